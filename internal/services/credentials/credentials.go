// Package credentials holds the ordered token list the dispatcher rotates through.
package credentials

import (
	"strings"

	"github.com/samber/lo"
)

// Delimiter separates tokens in the raw configuration value.
const Delimiter = ","

// List is an ordered, immutable sequence of API tokens. Order defines attempt
// order. The zero value is an empty list.
type List struct {
	tokens []string
}

// Parse splits raw on Delimiter, trims whitespace and discards empty entries.
func Parse(raw string) List {
	tokens := lo.FilterMap(strings.Split(raw, Delimiter), func(item string, _ int) (string, bool) {
		t := strings.TrimSpace(item)
		return t, t != ""
	})
	return List{tokens: tokens}
}

// New builds a list from already-separated tokens, applying the same trimming rules as Parse.
func New(tokens ...string) List {
	return Parse(strings.Join(tokens, Delimiter))
}

// Len returns the number of tokens.
func (l List) Len() int {
	return len(l.tokens)
}

// IsEmpty reports whether no tokens are configured.
func (l List) IsEmpty() bool {
	return len(l.tokens) == 0
}

// At returns the token at index i. It panics if i is out of range.
func (l List) At(i int) string {
	return l.tokens[i]
}

// Values returns a copy of the tokens in attempt order.
func (l List) Values() []string {
	out := make([]string, len(l.tokens))
	copy(out, l.tokens)
	return out
}

// Mask hides all but the last four characters of a token for diagnostics.
func Mask(token string) string {
	const visible = 4
	if len(token) <= visible {
		return strings.Repeat("*", len(token))
	}
	prefix := ""
	if i := strings.Index(token, "_"); i > 0 && i < len(token)-visible {
		prefix = token[:i+1]
	}
	return prefix + "..." + token[len(token)-visible:]
}
