package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

// synonym lists are ordered: when a reply carries two synonyms for the same
// key, the earlier one wins.
type synonym struct{ from, to string }

var (
	itemSynonyms = []synonym{
		{"item_name", "itemName"}, {"name", "itemName"}, {"nombre", "itemName"}, {"producto", "itemName"}, {"item", "itemName"},
		{"qty", "quantity"}, {"cantidad", "quantity"},
		{"item_type", "itemType"}, {"type", "itemType"}, {"tipo", "itemType"},
	}
	rowSynonyms = []synonym{
		{"modelo", "model"}, {"itemName", "model"}, {"name", "model"}, {"producto", "model"},
		{"qty", "quantity"}, {"cantidad", "quantity"},
		{"delivery_date", "deliveryDate"}, {"fecha", "deliveryDate"}, {"date", "deliveryDate"},
		{"destino", "destination"}, {"cliente", "destination"},
	}
	topSynonyms = []synonym{
		{"destino", "destination"}, {"cliente", "destination"},
		{"productos", "items"}, {"lineas", "items"},
		{"filas", "rows"},
	}
	itemKeys = map[string]struct{}{"itemName": {}, "quantity": {}, "itemType": {}}
	rowKeys  = map[string]struct{}{"deliveryDate": {}, "destination": {}, "model": {}, "quantity": {}}
)

// NormalizeAndSanitizeJSON reshapes a provider payload so it can pass schema
// validation:
//   - renames Spanish and snake_case synonyms to schema keys
//   - wraps a bare control-sheet array as {"rows": [...]}
//   - coerces numeric strings and whole floats to integers
//   - drops entries whose quantity is not a positive integer or whose name
//     (itemName, or model on control sheets) is blank, and unknown keys
func NormalizeAndSanitizeJSON(raw []byte, docType constants.DocumentType, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	listKey, nameKey, synonyms, allowed := "items", "itemName", itemSynonyms, itemKeys
	if docType == constants.DocControlSheet {
		listKey, nameKey, synonyms, allowed = "rows", "model", rowSynonyms, rowKeys
	}

	var m map[string]any
	switch t := v.(type) {
	case map[string]any:
		m = t
	case []any:
		m = map[string]any{listKey: t}
	default:
		return nil, nil, fmt.Errorf("sanitize: unexpected top-level %T", v)
	}

	dropped := make([]string, 0, 8)
	for _, syn := range topSynonyms {
		rename(m, syn.from, syn.to, &dropped)
	}
	if docType == constants.DocControlSheet {
		rename(m, "items", "rows", &dropped)
	}

	list, _ := m[listKey].([]any)
	kept := make([]any, 0, len(list))
	for i, e := range list {
		entry, ok := e.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("%s[%d](type)", listKey, i))
			continue
		}
		for _, syn := range synonyms {
			rename(entry, syn.from, syn.to, &dropped)
		}
		qty, ok := coerceInt(entry["quantity"])
		if !ok || qty <= 0 {
			dropped = append(dropped, fmt.Sprintf("%s[%d](quantity)", listKey, i))
			continue
		}
		if name, _ := entry[nameKey].(string); strings.TrimSpace(name) == "" {
			dropped = append(dropped, fmt.Sprintf("%s[%d](%s)", listKey, i, nameKey))
			continue
		}
		entry["quantity"] = qty
		for k, val := range entry {
			if _, ok := allowed[k]; !ok {
				delete(entry, k)
				dropped = append(dropped, fmt.Sprintf("%s[%d].%s(unknown)", listKey, i, k))
				continue
			}
			if s, ok := val.(string); ok {
				entry[k] = strings.TrimSpace(s)
			} else if val == nil {
				delete(entry, k)
			}
		}
		if t, ok := entry["itemType"].(string); ok {
			if parsed, ok := constants.ParseItemType(t); ok {
				entry["itemType"] = string(parsed)
			} else {
				delete(entry, "itemType")
				dropped = append(dropped, fmt.Sprintf("%s[%d].itemType(enum)", listKey, i))
			}
		}
		kept = append(kept, entry)
	}
	m[listKey] = kept

	top := map[string]any{listKey: kept}
	if d, ok := m["destination"].(string); ok && docType != constants.DocControlSheet {
		top["destination"] = strings.TrimSpace(d)
	}

	out, err := json.Marshal(top)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func rename(m map[string]any, from, to string, dropped *[]string) {
	v, ok := m[from]
	if !ok {
		return
	}
	// don't overwrite an existing value
	if _, exists := m[to]; !exists {
		m[to] = v
	}
	delete(m, from)
	*dropped = append(*dropped, from+"->"+to)
}

func coerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) {
			return int(t), true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
	}
	return 0, false
}

// CleanJSONBlock removes markdown code block wrappers from JSON.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
