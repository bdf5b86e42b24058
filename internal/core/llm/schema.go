package llm

import "github.com/joseph-ayodele/inventory-scanner/constants"

// TransactionSchema is the JSON Schema providers must satisfy for
// transaction documents. It is sent in the prompt and validated locally.
func TransactionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"destination": map[string]any{"type": "string"},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"itemName": map[string]any{"type": "string", "minLength": 1},
						"quantity": map[string]any{"type": "integer", "minimum": 1},
						"itemType": map[string]any{"type": "string", "enum": itemTypes()},
					},
					"required":             []string{"itemName", "quantity"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"items"},
		"additionalProperties": false,
	}
}

// ControlSheetSchema is the JSON Schema for control-sheet documents.
func ControlSheetSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rows": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"deliveryDate": map[string]any{"type": "string"},
						"destination":  map[string]any{"type": "string"},
						"model":        map[string]any{"type": "string", "minLength": 1},
						"quantity":     map[string]any{"type": "integer", "minimum": 1},
					},
					"required":             []string{"model", "quantity"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"rows"},
		"additionalProperties": false,
	}
}

// SchemaFor picks the schema matching docType.
func SchemaFor(docType constants.DocumentType) map[string]any {
	if docType == constants.DocControlSheet {
		return ControlSheetSchema()
	}
	return TransactionSchema()
}

func itemTypes() []string {
	return []string{string(constants.ItemTypeSheet), string(constants.ItemTypeModule), string(constants.ItemTypeOther)}
}
