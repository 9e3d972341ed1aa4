package addon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentSimpleBinding(t *testing.T) {
	out, err := parseDocument(`Foo = { a = 1, b = "x", c = true }`)
	require.NoError(t, err)
	tbl, ok := out["Foo"].AsTable()
	require.True(t, ok)

	v, ok := tbl.GetString("a")
	require.True(t, ok)
	n, _ := v.AsInt()
	assert.Equal(t, 1, n)

	v, ok = tbl.GetString("b")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "x", s)

	v, ok = tbl.GetString("c")
	require.True(t, ok)
	b, _ := v.AsBool()
	assert.True(t, b)
}

func TestParseDocumentBracketStringKey(t *testing.T) {
	out, err := parseDocument(`Foo = { ["Area 52"] = { ["Some Char"] = 1 } }`)
	require.NoError(t, err)
	tbl, _ := out["Foo"].AsTable()
	realm, ok := tbl.GetString("Area 52")
	require.True(t, ok)
	realmTbl, _ := realm.AsTable()
	v, ok := realmTbl.GetString("Some Char")
	require.True(t, ok)
	n, _ := v.AsInt()
	assert.Equal(t, 1, n)
}

func TestParseDocumentBareIntegerKey(t *testing.T) {
	out, err := parseDocument(`Foo = { 5 = "five", 7 = "seven" }`)
	require.NoError(t, err)
	tbl, _ := out["Foo"].AsTable()
	v, ok := tbl.GetInt(5)
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "five", s)
	v, ok = tbl.GetInt(7)
	require.True(t, ok)
	s, _ = v.AsString()
	assert.Equal(t, "seven", s)
}

// TestParseDocumentImplicitArrayValues exercises the ambiguous case: bare
// numbers with no following '=' are positional array elements, not keys.
func TestParseDocumentImplicitArrayValues(t *testing.T) {
	out, err := parseDocument(`Foo = { 10, 20, 30 }`)
	require.NoError(t, err)
	tbl, _ := out["Foo"].AsTable()
	require.Equal(t, 3, tbl.Len())
	for i, want := range []int{10, 20, 30} {
		v, ok := tbl.GetInt(i + 1)
		require.True(t, ok)
		n, _ := v.AsInt()
		assert.Equal(t, want, n)
	}
}

// TestParseDocumentMixedKeysAndImplicitValues covers a table mixing implicit
// array positions (nested tables of bare numbers) with a string key in one
// literal.
func TestParseDocumentMixedKeysAndImplicitValues(t *testing.T) {
	out, err := parseDocument(`Foo = { {1,90,80}, {2,85,75}, name = "x" }`)
	require.NoError(t, err)
	tbl, _ := out["Foo"].AsTable()

	v, ok := tbl.GetInt(1)
	require.True(t, ok)
	inner, ok := v.AsTable()
	require.True(t, ok)
	n, _ := inner.GetInt(1)
	spec, _ := n.AsInt()
	assert.Equal(t, 1, spec)

	v, ok = tbl.GetString("name")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "x", s)
}

func TestParseDocumentMalformedTable(t *testing.T) {
	_, err := parseDocument(`Foo = { a = }`)
	assert.ErrorIs(t, err, ErrMalformedTable)
}

func TestParseDocumentUnexpectedTopLevel(t *testing.T) {
	_, err := parseDocument(`1 = 2`)
	assert.ErrorIs(t, err, ErrMalformedTable)
}
