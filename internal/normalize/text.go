// Package normalize canonicalizes item and partner names so extracted data
// from QR, OCR and remote providers merges into the same entities.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// plural item-type nouns and their singular forms, diacritic-free.
var singulars = map[string]string{
	"chapas":    "chapa",
	"modulos":   "modulo",
	"perfiles":  "perfil",
	"tornillos": "tornillo",
	"paneles":   "panel",
	"placas":    "placa",
	"planchas":  "plancha",
	"tubos":     "tubo",
	"angulos":   "angulo",
	"sheets":    "sheet",
	"modules":   "module",
	"panels":    "panel",
}

// connectors stay lower-case inside display names.
var connectors = map[string]struct{}{
	"de": {}, "del": {}, "la": {}, "el": {}, "los": {}, "las": {},
	"y": {}, "con": {}, "para": {}, "en": {}, "por": {}, "x": {},
}

// stripDiacritics removes combining marks: "Módulo" -> "Modulo".
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func singular(lowerToken string) string {
	if s, ok := singulars[lowerToken]; ok {
		return s
	}
	return lowerToken
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isUpper reports whether every letter of s is upper-case and s has at least one letter.
func isUpper(s string) bool {
	seen := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			seen = true
		}
	}
	return seen
}

func capitalize(lower string) string {
	if lower == "" {
		return lower
	}
	r := []rune(lower)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Sanitize produces the search form used by the knowledge resolver:
// lower-case, no diacritics, punctuation replaced by spaces, whitespace collapsed.
func Sanitize(s string) string {
	s = strings.ToLower(stripDiacritics(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
