package addon

import (
	"strconv"
	"strings"
)

// encodeDocument renders a single top-level `name = <table>` binding using
// the same grammar parseDocument consumes, so writer output always
// round-trips through the reader (spec.md §4.1's round-trip law).
func encodeDocument(name string, v Value) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(" = ")
	encodeValue(&b, v, 0)
	b.WriteString("\n")
	return b.String()
}

func encodeValue(b *strings.Builder, v Value, indent int) {
	switch v.Kind {
	case KindString:
		b.WriteString(quoteString(v.Str))
	case KindNumber:
		// Numbers are rendered as integers per spec.md §4.1.
		b.WriteString(strconv.Itoa(int(v.Num)))
	case KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindTable:
		encodeTable(b, v.Tbl, indent)
	}
}

func encodeTable(b *strings.Builder, t *Table, indent int) {
	if t.Len() == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{\n")
	inner := indent + 1
	for i, e := range t.Entries() {
		writeIndent(b, inner)
		writeKey(b, e.Key)
		b.WriteString(" = ")
		encodeValue(b, e.Value, inner)
		if i < len(t.Entries())-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	writeIndent(b, indent)
	b.WriteString("}")
}

func writeIndent(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		b.WriteString("  ")
	}
}

func writeKey(b *strings.Builder, k Key) {
	if k.IsString {
		b.WriteString("[")
		b.WriteString(quoteString(k.Str))
		b.WriteString("]")
		return
	}
	b.WriteString(strconv.Itoa(k.Int))
}

// quoteString escapes quotes and backslashes. Strings that cannot be
// represented unescaped (spec.md §4.1: "may not contain unescaped quotes")
// are still emitted escaped rather than dropped; the caller is responsible
// for skipping records with names that would otherwise be ambiguous.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteString("\"")
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString("\"")
	return b.String()
}

// hasUnsafeName reports whether a realm/character name is empty or contains
// a NUL character. Such records are skipped on export; names with quotes or
// backslashes are kept and written escaped by quoteString.
func hasUnsafeName(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsAny(s, "\x00")
}

// encodeVariables renders name/value pairs in the order given (echoVariables
// passes them sorted by key) for the Fetcher's query_echo diagnostic dump. It
// reuses the same table encoder as the export writer.
func encodeVariables(name string, pairs []KV) string {
	t := NewTable()
	for _, kv := range pairs {
		t.SetString(kv.Key, kv.Value)
	}
	return encodeDocument(name, TableValue(t))
}

// KV is a named value used to build a diagnostic dump table.
type KV struct {
	Key   string
	Value Value
}
