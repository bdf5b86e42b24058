// Package resolver answers common inventory questions from an immutable
// snapshot of items, transactions and partners, without remote calls.
package resolver

import (
	"sort"
	"time"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
	"github.com/joseph-ayodele/inventory-scanner/internal/normalize"
)

type indexedItem struct {
	key  string
	item entity.Item
}

type indexedPartner struct {
	key  string
	id   string // empty for partners seen only as a transaction destination
	name string
}

// Snapshot is rebuilt from scratch whenever the collections change and is
// read-only afterwards, so it is safe for concurrent queries.
type Snapshot struct {
	items    []entity.Item
	stock    map[string]int
	outcomes []entity.Transaction
	incomes  []entity.Transaction
	itemIdx  []indexedItem
	partners []indexedPartner
	names    map[string]string // item id -> display name
}

// Build is a pure function of its inputs; the input slices are not retained.
func Build(items []entity.Item, transactions []entity.Transaction, partners []entity.Partner) *Snapshot {
	s := &Snapshot{
		items: append([]entity.Item(nil), items...),
		stock: make(map[string]int, len(items)),
		names: make(map[string]string, len(items)),
	}

	for _, it := range items {
		s.names[it.ID] = it.Name
		if key := normalize.Sanitize(it.Name); key != "" {
			s.itemIdx = append(s.itemIdx, indexedItem{key: key, item: it})
		}
	}

	for _, tx := range transactions {
		switch tx.Type {
		case constants.TransactionIncome:
			s.stock[tx.ItemID] += tx.Quantity
			s.incomes = append(s.incomes, tx)
		case constants.TransactionOutcome:
			s.stock[tx.ItemID] -= tx.Quantity
			s.outcomes = append(s.outcomes, tx)
		}
	}
	sortRecentFirst(s.incomes)
	sortRecentFirst(s.outcomes)

	seen := make(map[string]struct{})
	add := func(id, name string) {
		key := normalize.Sanitize(name)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		s.partners = append(s.partners, indexedPartner{key: key, id: id, name: name})
	}
	for _, p := range partners {
		add(p.ID, p.Name)
	}
	for _, tx := range transactions {
		add("", tx.Destination)
	}
	return s
}

// sortRecentFirst orders by creation time descending. Unparseable
// timestamps sort first; ties keep input order.
func sortRecentFirst(txs []entity.Transaction) {
	type keyed struct {
		t  time.Time
		ok bool
	}
	keys := make([]keyed, len(txs))
	for i, tx := range txs {
		t, ok := parseTime(tx.CreatedAt)
		keys[i] = keyed{t: t, ok: ok}
	}
	idx := make([]int, len(txs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.ok != kb.ok {
			return !ka.ok
		}
		return ka.t.After(kb.t)
	})
	sorted := make([]entity.Transaction, len(txs))
	for i, j := range idx {
		sorted[i] = txs[j]
	}
	copy(txs, sorted)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Stock returns the signed stock of an item id.
func (s *Snapshot) Stock(itemID string) int {
	return s.stock[itemID]
}

// Items returns the items in input order.
func (s *Snapshot) Items() []entity.Item {
	return append([]entity.Item(nil), s.items...)
}

// ItemName returns the display name for an item id, or the id itself.
func (s *Snapshot) ItemName(itemID string) string {
	if n, ok := s.names[itemID]; ok {
		return n
	}
	return itemID
}
