package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	require.Equal(t, "+", Token('+').String())
	require.Equal(t, "..", CONCAT.String())
	require.Equal(t, "let", LET.String())
	require.Equal(t, "end of file", EOF.String())
}

func TestTokenGoString(t *testing.T) {
	require.Equal(t, "'+'", Token('+').GoString())
	require.Equal(t, "if", IF.GoString())
}

func TestKeywords(t *testing.T) {
	for word, tok := range Keywords {
		require.Equal(t, word, tok.String())
	}
	_, ok := Keywords["notakeyword"]
	require.False(t, ok)
}
