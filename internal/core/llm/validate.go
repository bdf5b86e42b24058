package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

// Extraction schemas are compiled on first use and shared by every reply.
var (
	transactionSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
		return compileSchema("transaction.json", TransactionSchema())
	})
	controlSheetSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
		return compileSchema("control_sheet.json", ControlSheetSchema())
	})
)

func compileSchema(url string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", url, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add %s: %w", url, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", url, err)
	}
	return schema, nil
}

// compiledSchema returns the schema matching docType; see SchemaFor.
func compiledSchema(docType constants.DocumentType) (*jsonschema.Schema, error) {
	if docType == constants.DocControlSheet {
		return controlSheetSchema()
	}
	return transactionSchema()
}

// ValidateExtraction checks a provider payload against the extraction schema
// for docType.
func ValidateExtraction(docType constants.DocumentType, data []byte) error {
	schema, err := compiledSchema(docType)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match %s schema: %w", docType, err)
	}
	return nil
}
