package scanner_test

import (
	"testing"

	"github.com/ember-lang/ember/lang/scanner"
	"github.com/ember-lang/ember/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []scanner.Tok {
	t.Helper()
	s := scanner.New("test", src)
	var toks []scanner.Tok
	for {
		tok, err := s.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []scanner.Tok) []token.Token {
	out := make([]token.Token, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestKeywordsAndIdents(t *testing.T) {
	toks := scanAll(t, "let x = foo")
	require.Equal(t, []token.Token{token.LET, token.IDENT, token.Token('='), token.IDENT, token.EOF}, kinds(toks))
	require.Equal(t, "x", toks[1].Ident)
	require.Equal(t, "foo", toks[3].Ident)
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"123", 123},
		{"3.1415", 3.1415},
		{"0x1F", 31},
		{"0o17", 15},
		{"0b101", 5},
		{"1e3", 1000},
	}
	for _, c := range cases {
		toks := scanAll(t, c.src)
		require.Equal(t, token.NUM, toks[0].Kind)
		require.Equal(t, c.want, toks[0].Num)
	}
}

func TestMultiCharOperators(t *testing.T) {
	toks := scanAll(t, "a == b != c <= d >= e && f || g .. h")
	got := kinds(toks)
	want := []token.Token{
		token.IDENT, token.EQ, token.IDENT, token.NEQ, token.IDENT, token.LE,
		token.IDENT, token.GE, token.IDENT, token.AND, token.IDENT, token.OR,
		token.IDENT, token.CONCAT, token.IDENT, token.EOF,
	}
	require.Equal(t, want, got)
}

func TestLineTracking(t *testing.T) {
	toks := scanAll(t, "let x\n= 1")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[2].Line)
}

func TestSingleCharSymbols(t *testing.T) {
	toks := scanAll(t, "(1 + 2) * 3")
	require.Equal(t, token.Token('('), toks[0].Kind)
	require.Equal(t, token.Token('+'), toks[2].Kind)
	require.Equal(t, token.Token(')'), toks[4].Kind)
	require.Equal(t, token.Token('*'), toks[5].Kind)
}
