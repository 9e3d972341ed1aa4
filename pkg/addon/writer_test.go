package addon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDocumentRoundTrips(t *testing.T) {
	t1 := NewTable()
	t1.SetString("a", IntValue(1))
	t1.SetString("b", StringValue("hello \"world\""))
	t1.SetInt(1, IntValue(42))

	doc := encodeDocument("Foo", TableValue(t1))

	out, err := parseDocument(doc)
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
	assert.Equal(t, `hello "world"`, s)

	v, ok = tbl.GetInt(1)
	require.True(t, ok)
	n, _ = v.AsInt()
	assert.Equal(t, 42, n)
}

func TestEncodeTableEmpty(t *testing.T) {
	doc := encodeDocument("Foo", TableValue(NewTable()))
	out, err := parseDocument(doc)
	require.NoError(t, err)
	tbl, ok := out["Foo"].AsTable()
	require.True(t, ok)
	assert.Equal(t, 0, tbl.Len())
}

func TestHasUnsafeName(t *testing.T) {
	assert.True(t, hasUnsafeName(""))
	assert.False(t, hasUnsafeName("Area 52"))
}
