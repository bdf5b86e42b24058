package ocr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

var (
	// "Chapa JC 250 ...... 5", "Modulo Hex: 2", "Chapa Lisa  x 3", "Tornillo\t10 u"
	reTrailingQty = regexp.MustCompile(`^(.*?\S)\s*(?:\.{2,}|:|\||=|\t|\s{2,}|\s[xX]\s?)\s*(\d{1,5})\s*(?:u|un|unid|unidades|pcs)?\.?$`)
	// "5 x Chapa JC 250", "12 u. Modulo Hex"
	reLeadingQty  = regexp.MustCompile(`^(\d{1,5})\s*(?:x|u\.?|un\.?|unid\.?)?\s+([^\d\s].*)$`)
	reDestination = regexp.MustCompile(`(?i)^\s*(?:destino|cliente|destination|entregar a)\s*[:\-]?\s*(.+)$`)
	// "01/03/2024 Obra Sur  Chapa JC 250 4"
	reControlRow = regexp.MustCompile(`^(\d{1,2}[/\-.]\d{1,2}(?:[/\-.]\d{2,4})?)\s+(.+?)\s+(\d{1,5})$`)
	reColumnGap  = regexp.MustCompile(`\s{2,}|\t|\|`)
)

// ParseTransactionText reads item lines with a leading or trailing quantity
// and an optional destination line.
func ParseTransactionText(text string) entity.ExtractedTransaction {
	tx := entity.ExtractedTransaction{}
	for _, line := range strings.Split(Normalize(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := reDestination.FindStringSubmatch(line); m != nil {
			if tx.Destination == "" {
				tx.Destination = strings.TrimSpace(m[1])
			}
			continue
		}
		if m := reTrailingQty.FindStringSubmatch(line); m != nil {
			if qty, err := strconv.Atoi(m[2]); err == nil && qty > 0 {
				tx.Items = append(tx.Items, entity.LineItem{ItemName: strings.Trim(m[1], " .:-"), Quantity: qty})
			}
			continue
		}
		if m := reLeadingQty.FindStringSubmatch(line); m != nil {
			if qty, err := strconv.Atoi(m[1]); err == nil && qty > 0 {
				tx.Items = append(tx.Items, entity.LineItem{ItemName: strings.TrimSpace(m[2]), Quantity: qty})
			}
		}
	}
	return tx
}

// ParseControlSheetText reads dated rows ending in a quantity. Destination
// and model are told apart by a column gap; without one the middle text is
// the model.
func ParseControlSheetText(text string) []entity.ExtractedControlRow {
	var rows []entity.ExtractedControlRow
	for _, line := range strings.Split(Normalize(text), "\n") {
		m := reControlRow.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[3])
		if err != nil || qty <= 0 {
			continue
		}
		row := entity.ExtractedControlRow{DeliveryDate: m[1], Quantity: qty}
		cols := splitColumns(m[2])
		switch len(cols) {
		case 0:
			continue
		case 1:
			row.Model = cols[0]
		default:
			row.Destination = cols[0]
			row.Model = cols[len(cols)-1]
		}
		rows = append(rows, row)
	}
	return rows
}

func splitColumns(s string) []string {
	var out []string
	for _, c := range reColumnGap.Split(s, -1) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
