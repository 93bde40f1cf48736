package suggest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"Single", "Singel", 2},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, distance([]rune(tt.a), []rune(tt.b)), "%s/%s", tt.a, tt.b)
		require.Equal(t, tt.want, distance([]rune(tt.b), []rune(tt.a)), "%s/%s", tt.b, tt.a)
	}
}

func TestSimilar(t *testing.T) {
	methods := []string{
		"Demo.C::Single()",
		"Demo.C::Shared()",
		"Demo.C::Broken()",
		"Demo.Other::Run()",
	}
	require.Equal(t, []string{"Demo.C::Single()"}, Similar("Demo.C::Singel()", methods))
	require.Equal(t, []string{"Demo.C::Shared()"}, Similar("demo.c::shared()x", methods))
	require.Empty(t, Similar("Demo.C::Single()", methods))
	require.Empty(t, Similar("Totally.Different::Name()", methods))
	require.Nil(t, Similar("", methods))
}

func TestHint(t *testing.T) {
	require.Equal(t, "", Hint(nil))
	require.Equal(t, "did you mean a?", Hint([]string{"a"}))
	require.Equal(t, "did you mean one of a, b?", Hint([]string{"a", "b"}))
}
