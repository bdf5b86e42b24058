package normalize

import (
	"strings"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// MergeTransaction normalizes names, drops invalid items and merges items
// sharing a CanonicalKey by summing their quantities. The first occurrence
// keeps its position, display name and type.
func MergeTransaction(tx entity.ExtractedTransaction) entity.ExtractedTransaction {
	out := entity.ExtractedTransaction{
		Destination: NormalizePartnerName(tx.Destination),
		Items:       make([]entity.LineItem, 0, len(tx.Items)),
	}
	index := make(map[string]int, len(tx.Items))
	for _, it := range tx.Items {
		name := NormalizeItemName(it.ItemName)
		key := CanonicalKey(name)
		if key == "" || it.Quantity <= 0 {
			continue
		}
		if pos, ok := index[key]; ok {
			out.Items[pos].Quantity += it.Quantity
			continue
		}
		itemType := it.ItemType
		if parsed, ok := constants.ParseItemType(string(itemType)); ok {
			itemType = parsed
		} else {
			itemType = ItemTypeFor(name)
		}
		index[key] = len(out.Items)
		out.Items = append(out.Items, entity.LineItem{ItemName: name, Quantity: it.Quantity, ItemType: itemType})
	}
	return out
}

// CleanControlRows normalizes rows and drops those with a non-positive
// quantity or an empty model.
func CleanControlRows(rows []entity.ExtractedControlRow) []entity.ExtractedControlRow {
	out := make([]entity.ExtractedControlRow, 0, len(rows))
	for _, r := range rows {
		model := NormalizeItemName(r.Model)
		if model == "" || r.Quantity <= 0 {
			continue
		}
		out = append(out, entity.ExtractedControlRow{
			DeliveryDate: strings.TrimSpace(r.DeliveryDate),
			Destination:  NormalizePartnerName(r.Destination),
			Model:        model,
			Quantity:     r.Quantity,
		})
	}
	return out
}

// Extraction applies the merge step matching docType. The result is what
// gets cached, so cache hits never need re-normalization.
func Extraction(e entity.Extraction, docType constants.DocumentType) entity.Extraction {
	if docType == constants.DocControlSheet {
		return entity.Extraction{Rows: CleanControlRows(e.Rows)}
	}
	if e.Transaction == nil {
		return entity.Extraction{Transaction: &entity.ExtractedTransaction{Items: []entity.LineItem{}}}
	}
	tx := MergeTransaction(*e.Transaction)
	return entity.Extraction{Transaction: &tx}
}
