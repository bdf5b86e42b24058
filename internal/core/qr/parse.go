package qr

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
	"github.com/joseph-ayodele/inventory-scanner/internal/normalize"
)

var (
	nameKeys        = []string{"itemName", "name", "item", "producto", "model", "modelo"}
	quantityKeys    = []string{"quantity", "qty", "cantidad"}
	typeKeys        = []string{"itemType", "type", "tipo"}
	destinationKeys = []string{"destination", "destino", "cliente"}
	dateKeys        = []string{"deliveryDate", "date", "fecha"}
	itemsKeys       = []string{"items", "productos", "lineas"}
	rowsKeys        = []string{"rows", "filas", "items"}
)

// Parse turns a QR payload into an extraction for docType. Structured JSON is
// tried first, then the delimited line grammar. The result is already
// normalized; false means the payload held nothing usable.
func Parse(raw string, docType constants.DocumentType) (entity.Extraction, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return entity.Extraction{}, false
	}
	var (
		e  entity.Extraction
		ok bool
	)
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		e, ok = parseJSON(raw, docType)
	}
	if !ok {
		e = parseDelimited(raw, docType)
	}
	e = normalize.Extraction(e, docType)
	if e.IsEmpty(docType) {
		return entity.Extraction{}, false
	}
	return e, true
}

func parseJSON(raw string, docType constants.DocumentType) (entity.Extraction, bool) {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return entity.Extraction{}, false
	}
	if docType == constants.DocControlSheet {
		var list []interface{}
		switch t := v.(type) {
		case []interface{}:
			list = t
		case map[string]interface{}:
			list, _ = pick(t, rowsKeys).([]interface{})
		}
		rows := make([]entity.ExtractedControlRow, 0, len(list))
		for _, r := range list {
			m, ok := r.(map[string]interface{})
			if !ok {
				continue
			}
			qty, ok := positiveInt(pick(m, quantityKeys))
			if !ok {
				continue
			}
			rows = append(rows, entity.ExtractedControlRow{
				DeliveryDate: str(pick(m, dateKeys)),
				Destination:  str(pick(m, destinationKeys)),
				Model:        str(pick(m, nameKeys)),
				Quantity:     qty,
			})
		}
		return entity.Extraction{Rows: rows}, true
	}

	tx := &entity.ExtractedTransaction{}
	var list []interface{}
	switch t := v.(type) {
	case []interface{}:
		list = t
	case map[string]interface{}:
		tx.Destination = str(pick(t, destinationKeys))
		list, _ = pick(t, itemsKeys).([]interface{})
	}
	for _, it := range list {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		qty, ok := positiveInt(pick(m, quantityKeys))
		if !ok {
			continue
		}
		tx.Items = append(tx.Items, entity.LineItem{
			ItemName: str(pick(m, nameKeys)),
			Quantity: qty,
			ItemType: constants.ItemType(str(pick(m, typeKeys))),
		})
	}
	return entity.Extraction{Transaction: tx}, true
}

// parseDelimited reads lines separated by newline or ';', each split on
// ':', '|' or ','.
func parseDelimited(raw string, docType constants.DocumentType) entity.Extraction {
	lines := strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' || r == ';' })
	if docType == constants.DocControlSheet {
		var rows []entity.ExtractedControlRow
		for _, line := range lines {
			if row, ok := parseControlLine(splitFields(line)); ok {
				rows = append(rows, row)
			}
		}
		return entity.Extraction{Rows: rows}
	}

	tx := &entity.ExtractedTransaction{}
	for _, line := range lines {
		fields := splitFields(line)
		if len(fields) < 2 {
			continue
		}
		if isDestinationLabel(fields[0]) {
			tx.Destination = strings.Join(fields[1:], " ")
			continue
		}
		qty, ok := positiveInt(fields[1])
		if !ok || fields[0] == "" {
			continue
		}
		item := entity.LineItem{ItemName: fields[0], Quantity: qty}
		if len(fields) > 2 {
			if t, ok := constants.ParseItemType(fields[2]); ok {
				item.ItemType = t
			}
		}
		tx.Items = append(tx.Items, item)
	}
	return entity.Extraction{Transaction: tx}
}

// parseControlLine accepts date|destination|model|qty, date|model|qty and model|qty.
func parseControlLine(f []string) (entity.ExtractedControlRow, bool) {
	if len(f) < 2 {
		return entity.ExtractedControlRow{}, false
	}
	qty, ok := positiveInt(f[len(f)-1])
	if !ok {
		return entity.ExtractedControlRow{}, false
	}
	row := entity.ExtractedControlRow{Quantity: qty}
	switch len(f) {
	case 2:
		row.Model = f[0]
	case 3:
		row.DeliveryDate, row.Model = f[0], f[1]
	default:
		row.DeliveryDate, row.Destination, row.Model = f[0], f[1], f[len(f)-2]
	}
	return row, row.Model != ""
}

func splitFields(line string) []string {
	parts := strings.FieldsFunc(line, func(r rune) bool { return r == ':' || r == '|' || r == ',' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isDestinationLabel(s string) bool {
	for _, k := range destinationKeys {
		if strings.EqualFold(strings.TrimSpace(s), k) {
			return true
		}
	}
	return false
}

func pick(m map[string]interface{}, keys []string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func str(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func positiveInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t > 0 && t == math.Trunc(t) && t <= math.MaxInt32 {
			return int(t), true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
