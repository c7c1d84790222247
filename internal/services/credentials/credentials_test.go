package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", []string{}},
		{"only delimiters", " , ,, ", []string{}},
		{"single", "hf_abc", []string{"hf_abc"}},
		{"trims and keeps order", " C , A,B ", []string{"C", "A", "B"}},
		{"drops empties between", "A,,B,", []string{"A", "B"}},
		{"keeps duplicates", "A,A", []string{"A", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Parse(tt.raw)
			assert.Equal(t, tt.want, l.Values())
			assert.Equal(t, len(tt.want), l.Len())
			assert.Equal(t, len(tt.want) == 0, l.IsEmpty())
		})
	}
}

func TestList_ValuesIsACopy(t *testing.T) {
	l := New("A", "B")
	v := l.Values()
	v[0] = "mutated"
	assert.Equal(t, "A", l.At(0))
}

func TestList_ZeroValue(t *testing.T) {
	var l List
	assert.True(t, l.IsEmpty())
	assert.Empty(t, l.Values())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "hf_...wxyz", Mask("hf_abcdefghwxyz"))
	assert.Equal(t, "...6789", Mask("0123456789"))
	assert.Equal(t, "***", Mask("abc"))
	assert.Equal(t, "", Mask(""))
}
