package datespec

import (
	"fmt"
	"strings"
	"time"
)

// RussianGenitive is the default month vocabulary, as dates are printed on the
// archive page ("2 августа 2025").
var RussianGenitive = Vocabulary{names: [12]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}}

// Vocabulary maps month names to calendar months. Names are exact lowercase keys.
type Vocabulary struct {
	names [12]string
}

// NewVocabulary builds a vocabulary from twelve names ordered January..December.
func NewVocabulary(names []string) (Vocabulary, error) {
	var v Vocabulary
	if len(names) != 12 {
		return v, fmt.Errorf("month vocabulary needs 12 names, got %d", len(names))
	}

	seen := make(map[string]bool, 12)
	for i, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return v, fmt.Errorf("month %d has an empty name", i+1)
		}
		if strings.ContainsAny(name, " \t") {
			return v, fmt.Errorf("month name %q contains whitespace", name)
		}
		if seen[name] {
			return v, fmt.Errorf("duplicate month name %q", name)
		}
		seen[name] = true
		v.names[i] = name
	}
	return v, nil
}

// Lookup returns the month for an exact name.
func (v Vocabulary) Lookup(name string) (time.Month, bool) {
	for i, n := range v.names {
		if n != "" && n == name {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// Name returns the vocabulary spelling of m.
func (v Vocabulary) Name(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return v.names[m-1]
}

// Names returns the twelve names in calendar order.
func (v Vocabulary) Names() []string {
	out := make([]string, 12)
	copy(out, v.names[:])
	return out
}
