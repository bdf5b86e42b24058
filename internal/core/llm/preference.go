package llm

import (
	"strings"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

// Preference is the ordered provider list derived once from configuration.
type Preference struct {
	Order    []string
	Disabled bool
}

// ParsePreference splits a comma-separated list such as "gemini,openai".
// Names are lower-cased and de-duplicated keeping first position. The
// "none" sentinel anywhere in the list disables remote use.
func ParsePreference(s string) Preference {
	var p Preference
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if name == constants.ProviderNone {
			p.Disabled = true
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		p.Order = append(p.Order, name)
	}
	return p
}

func (p Preference) String() string {
	if p.Disabled {
		return constants.ProviderNone
	}
	return strings.Join(p.Order, ",")
}
