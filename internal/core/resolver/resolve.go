package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
	"github.com/joseph-ayodele/inventory-scanner/internal/normalize"
)

const (
	defaultRecent = 5
	maxRecent     = 20
)

// Kind identifies which rule produced an answer.
type Kind string

const (
	KindStock        Kind = "stock"
	KindRecentOut    Kind = "recent_outcome"
	KindTotalsOut    Kind = "totals_outcome"
	KindRecentIn     Kind = "recent_income"
	KindTotalsIn     Kind = "totals_income"
	KindPartnerTotal Kind = "partner_totals"
)

// Answer is a locally computed reply.
type Answer struct {
	Kind         Kind
	Text         string
	ItemID       string
	Partner      string
	Stock        int
	Count        int
	Units        int
	Transactions []entity.Transaction
}

// vocabulary is matched token by token against the sanitized question,
// Spanish and English. A trailing '*' lets the word match any token it
// prefixes; otherwise the token must be equal. Phrases match consecutive
// tokens.
var (
	stockWords   = vocab("stock", "inventario*", "existencia*", "cuanto hay", "cuantos hay", "cuantas hay", "how many left")
	outcomeWords = vocab("venta*", "vendid*", "vendimos", "salida*", "sale", "sales", "sold", "outflow*", "outcome*")
	incomeWords  = vocab("ingreso*", "entrada*", "compra*", "recibid*", "income*", "inflow*", "purchase*")
	partnerWords = vocab("cliente*", "destino*", "socio*", "partner*", "customer*")
	recentWords  = vocab("ultim*", "reciente*", "recent*", "last", "latest")
	totalWords   = vocab("cuant*", "total*", "count", "how many", "suma*")
)

type phrase []string

func vocab(words ...string) []phrase {
	out := make([]phrase, 0, len(words))
	for _, w := range words {
		out = append(out, strings.Fields(w))
	}
	return out
}

// Resolve evaluates the rules in fixed priority order. false means no rule
// matched and the caller should ask a remote provider.
func (s *Snapshot) Resolve(question string) (Answer, bool) {
	q := normalize.Sanitize(question)
	if q == "" {
		return Answer{}, false
	}
	toks := strings.Fields(q)

	if item, ok := s.matchItem(q); ok && containsAny(toks, stockWords) {
		stock := s.stock[item.ID]
		return Answer{
			Kind:   KindStock,
			ItemID: item.ID,
			Stock:  stock,
			Text:   fmt.Sprintf("Stock de %s: %d unidades.", item.Name, stock),
		}, true
	}

	if containsAny(toks, outcomeWords) {
		return s.movementAnswer(toks, s.outcomes, constants.TransactionOutcome), true
	}
	if containsAny(toks, incomeWords) {
		return s.movementAnswer(toks, s.incomes, constants.TransactionIncome), true
	}

	if containsAny(toks, partnerWords) {
		if p, ok := s.matchPartner(q); ok {
			return s.partnerAnswer(p), true
		}
	}
	return Answer{}, false
}

// matchItem returns the first index entry, in index order, whose key is a
// substring of q or contains q.
func (s *Snapshot) matchItem(q string) (entity.Item, bool) {
	for _, e := range s.itemIdx {
		if strings.Contains(q, e.key) || strings.Contains(e.key, q) {
			return e.item, true
		}
	}
	return entity.Item{}, false
}

func (s *Snapshot) matchPartner(q string) (indexedPartner, bool) {
	for _, p := range s.partners {
		if strings.Contains(q, p.key) || strings.Contains(p.key, q) {
			return p, true
		}
	}
	return indexedPartner{}, false
}

// movementAnswer prefers totals when the question asks for a count or total,
// otherwise lists the most recent N movements.
func (s *Snapshot) movementAnswer(toks []string, txs []entity.Transaction, dir constants.TransactionType) Answer {
	label := "ventas"
	recentKind, totalKind := KindRecentOut, KindTotalsOut
	if dir == constants.TransactionIncome {
		label = "ingresos"
		recentKind, totalKind = KindRecentIn, KindTotalsIn
	}

	if containsAny(toks, totalWords) && !containsAny(toks, recentWords) {
		units := sumUnits(txs)
		return Answer{
			Kind:  totalKind,
			Count: len(txs),
			Units: units,
			Text:  fmt.Sprintf("Total de %s: %d movimientos, %d unidades.", label, len(txs), units),
		}
	}

	n := recentCount(toks)
	if n > len(txs) {
		n = len(txs)
	}
	recent := append([]entity.Transaction(nil), txs[:n]...)
	units := sumUnits(recent)

	var b strings.Builder
	fmt.Fprintf(&b, "Ultimas %d %s (%d unidades):", n, label, units)
	for _, tx := range recent {
		fmt.Fprintf(&b, "\n- %s x%d", s.ItemName(tx.ItemID), tx.Quantity)
		if tx.Destination != "" {
			fmt.Fprintf(&b, " -> %s", tx.Destination)
		}
		if tx.CreatedAt != "" {
			fmt.Fprintf(&b, " (%s)", tx.CreatedAt)
		}
	}
	return Answer{Kind: recentKind, Count: n, Units: units, Transactions: recent, Text: b.String()}
}

func (s *Snapshot) partnerAnswer(p indexedPartner) Answer {
	count, units := 0, 0
	for _, tx := range s.outcomes {
		if s.attributable(tx, p) {
			count++
			units += tx.Quantity
		}
	}
	return Answer{
		Kind:    KindPartnerTotal,
		Partner: p.name,
		Count:   count,
		Units:   units,
		Text:    fmt.Sprintf("%s: %d ventas, %d unidades.", p.name, count, units),
	}
}

// attributable matches by partner id when the transaction has one, else by
// sanitized destination text.
func (s *Snapshot) attributable(tx entity.Transaction, p indexedPartner) bool {
	if tx.PartnerID != "" {
		return p.id != "" && tx.PartnerID == p.id
	}
	return normalize.Sanitize(tx.Destination) == p.key
}

// recentCount reads N from a number placed next to a recency or movement
// word ("ultimas 3 ventas", "last 3 sales"), default 5, capped at 20. Numbers
// elsewhere, such as model codes, are ignored.
func recentCount(toks []string) int {
	for i, tok := range toks {
		if len(tok) > 3 || !isDigits(tok) {
			continue
		}
		if !nearMovementWord(toks, i) {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 {
			return defaultRecent
		}
		if n > maxRecent {
			return maxRecent
		}
		return n
	}
	return defaultRecent
}

func nearMovementWord(toks []string, i int) bool {
	for _, j := range []int{i - 1, i + 1} {
		if j < 0 || j >= len(toks) {
			continue
		}
		next := toks[j : j+1]
		if containsAny(next, recentWords) || containsAny(next, outcomeWords) || containsAny(next, incomeWords) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sumUnits(txs []entity.Transaction) int {
	total := 0
	for _, tx := range txs {
		total += tx.Quantity
	}
	return total
}

func containsAny(toks []string, words []phrase) bool {
	for _, w := range words {
		for i := 0; i+len(w) <= len(toks); i++ {
			if matchPhrase(toks[i:i+len(w)], w) {
				return true
			}
		}
	}
	return false
}

func matchPhrase(toks []string, w phrase) bool {
	for i, word := range w {
		if stem, ok := strings.CutSuffix(word, "*"); ok {
			if !strings.HasPrefix(toks[i], stem) {
				return false
			}
		} else if toks[i] != word {
			return false
		}
	}
	return true
}
