package addon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerTokensBasic(t *testing.T) {
	l := newLexer(`{ ["a"] = 1, b = true, c = -2.5 }`)
	var kinds []tokenKind
	for {
		tok, err := l.next()
		require.NoError(t, err)
		kinds = append(kinds, tok.kind)
		if tok.kind == tokEOF {
			break
		}
	}
	assert.Equal(t, tokEOF, kinds[len(kinds)-1])
}

func TestLexerStringEscapes(t *testing.T) {
	l := newLexer(`"a\"b\\c\nd"`)
	tok, err := l.next()
	require.NoError(t, err)
	assert.Equal(t, tokString, tok.kind)
	assert.Equal(t, "a\"b\\c\nd", tok.str)
}

func TestLexerUnterminatedString(t *testing.T) {
	l := newLexer(`"unterminated`)
	_, err := l.next()
	assert.Error(t, err)
}

func TestLexerNegativeNumber(t *testing.T) {
	l := newLexer(`-42`)
	tok, err := l.next()
	require.NoError(t, err)
	assert.Equal(t, tokNumber, tok.kind)
	assert.Equal(t, float64(-42), tok.num)
}

func TestLexerLineComment(t *testing.T) {
	l := newLexer("-- a header comment\ntrue")
	tok, err := l.next()
	require.NoError(t, err)
	assert.Equal(t, tokTrue, tok.kind)
}
