package resolver

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// Summary renders a compact plain-text context for remote providers: stock
// per item, then the most recent movements in each direction.
func (s *Snapshot) Summary(maxRows int) string {
	if maxRows <= 0 {
		maxRows = maxRecent
	}
	var b strings.Builder
	b.WriteString("Stock:\n")
	for i, it := range s.items {
		if i == maxRows*2 {
			fmt.Fprintf(&b, "... %d more items\n", len(s.items)-i)
			break
		}
		fmt.Fprintf(&b, "- %s: %d\n", it.Name, s.stock[it.ID])
	}
	s.writeMovements(&b, "Recent sales", s.outcomes, maxRows)
	s.writeMovements(&b, "Recent income", s.incomes, maxRows)
	if len(s.partners) > 0 {
		names := make([]string, 0, len(s.partners))
		for _, p := range s.partners {
			names = append(names, p.name)
		}
		fmt.Fprintf(&b, "Partners: %s\n", strings.Join(names, ", "))
	}
	return b.String()
}

func (s *Snapshot) writeMovements(b *strings.Builder, title string, txs []entity.Transaction, maxRows int) {
	if len(txs) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d total, %d units):\n", title, len(txs), sumUnits(txs))
	for i, tx := range txs {
		if i == maxRows {
			break
		}
		fmt.Fprintf(b, "- %s %s x%d", tx.CreatedAt, s.ItemName(tx.ItemID), tx.Quantity)
		if tx.Destination != "" {
			fmt.Fprintf(b, " -> %s", tx.Destination)
		}
		b.WriteString("\n")
	}
}
