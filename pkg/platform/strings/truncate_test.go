package strings

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short input is kept", in: "청년", n: 10, want: "청년"},
		{name: "limit off", in: "청년 월세", n: 0, want: "청년 월세"},
		{name: "ascii cut", in: "abcdef", n: 3, want: "abc"},
		{name: "cut inside a hangul rune backs off", in: "ab가나", n: 4, want: "ab"},
		{name: "cut on a rune boundary", in: "ab가나", n: 5, want: "ab가"},
		{name: "first rune does not fit", in: "가나", n: 2, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateUTF8(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}

	long := "ab" + strings.Repeat("가", 2000)
	got := TruncateUTF8(long, 4000)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 4000)
	assert.Equal(t, 3998, len(got))
}
