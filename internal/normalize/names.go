package normalize

import (
	"strings"
	"unicode"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

// legal suffixes always rendered upper-case in partner names.
var legalSuffixes = map[string]struct{}{
	"srl": {}, "sa": {}, "sas": {}, "sac": {}, "sl": {}, "llc": {},
}

// NormalizeItemName returns the display form of an item name, e.g.
// "CHAPAS  jc-250" -> "Chapa JC250" and "Módulo Hex" -> "Modulo Hex".
func NormalizeItemName(raw string) string {
	tokens := strings.Fields(stripDiacritics(raw))
	if len(tokens) == 0 {
		return ""
	}
	allCaps := isUpper(strings.Join(tokens, ""))

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		lower := strings.ToLower(tok)

		// "JC 250" -> "JC250"
		if i+1 < len(tokens) && isCodePrefix(tok) && isNumeric(tokens[i+1]) && !isConnector(lower) {
			out = append(out, strings.ToUpper(tok)+tokens[i+1])
			i++
			continue
		}

		switch {
		case hasDigit(tok):
			out = append(out, strings.ToUpper(strings.ReplaceAll(tok, "-", "")))
		case i > 0 && isConnector(lower):
			out = append(out, lower)
		case !allCaps && isUpper(tok) && len([]rune(tok)) <= 4:
			out = append(out, tok)
		default:
			out = append(out, capitalize(singular(lower)))
		}
	}
	return strings.Join(out, " ")
}

// NormalizePartnerName returns the display form of a partner or destination name.
func NormalizePartnerName(raw string) string {
	tokens := strings.Fields(stripDiacritics(raw))
	if len(tokens) == 0 {
		return ""
	}
	allCaps := isUpper(strings.Join(tokens, ""))

	out := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		lower := strings.ToLower(strings.Trim(tok, "."))
		switch {
		case isLegalSuffix(lower):
			out = append(out, strings.ToUpper(lower))
		case hasDigit(tok):
			out = append(out, strings.ToUpper(tok))
		case i > 0 && isConnector(lower):
			out = append(out, lower)
		case !allCaps && isUpper(tok) && len([]rune(tok)) <= 4:
			out = append(out, tok)
		default:
			out = append(out, capitalize(strings.ToLower(tok)))
		}
	}
	return strings.Join(out, " ")
}

// CanonicalKey is the merge identity of a name: lower-case, diacritic-free,
// type nouns singularized and every non-alphanumeric removed.
// "JC 250" and "JC-250" share a key.
func CanonicalKey(name string) string {
	var b strings.Builder
	for _, tok := range strings.Fields(strings.ToLower(stripDiacritics(name))) {
		for _, r := range singular(tok) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// ItemTypeFor derives the item type from keywords in the name.
func ItemTypeFor(name string) constants.ItemType {
	s := Sanitize(name)
	switch {
	case strings.Contains(s, "chapa"), strings.Contains(s, "sheet"):
		return constants.ItemTypeSheet
	case strings.Contains(s, "modulo"), strings.Contains(s, "module"):
		return constants.ItemTypeModule
	default:
		return constants.ItemTypeOther
	}
}

// isCodePrefix matches short alphabetic model prefixes such as "JC" or "hx".
func isCodePrefix(tok string) bool {
	n := len([]rune(tok))
	if !isAlpha(tok) || n > 3 {
		return false
	}
	return n <= 2 || isUpper(tok)
}

func isConnector(lower string) bool {
	_, ok := connectors[lower]
	return ok
}

func isLegalSuffix(lower string) bool {
	_, ok := legalSuffixes[lower]
	return ok
}
