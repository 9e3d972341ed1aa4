// Package addon implements AddonCodec: a minimal reader/writer for the
// declarative table language the game addon uses for its on-disk save files,
// and the schema extraction/emission logic layered on top of it.
//
// The language is a strict subset of Lua table syntax restricted to data
// declarations (per spec.md §4.1/§9): nested ordered maps with string or
// integer keys and string/number/boolean/nested-table values. There are no
// function calls and no control flow, so a hand-written recursive descent
// parser is used instead of embedding a full language runtime.
package addon

import "fmt"

// ValueKind discriminates the dynamic type carried by a Value.
type ValueKind int

// Value kinds.
const (
	KindString ValueKind = iota
	KindNumber
	KindBool
	KindTable
)

// Value is one decoded table value.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Tbl  *Table
}

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue wraps a number.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// IntValue wraps an integer as a number.
func IntValue(n int) Value { return Value{Kind: KindNumber, Num: float64(n)} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// TableValue wraps a nested table.
func TableValue(t *Table) Value { return Value{Kind: KindTable, Tbl: t} }

// AsString returns the string form of a Value, or ("", false) if the kind
// isn't string.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// AsInt returns the integer form of a Value, truncated toward zero, or
// (0, false) if the kind isn't number.
func (v Value) AsInt() (int, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return int(v.Num), true
}

// AsBool returns the boolean form of a Value, or (false, false) if the kind
// isn't boolean.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

// AsTable returns the nested table, or (nil, false) if the kind isn't table.
func (v Value) AsTable() (*Table, bool) {
	if v.Kind != KindTable {
		return nil, false
	}
	return v.Tbl, true
}

// Key is a table entry key: either a string (bracketed literal or bare
// identifier) or an integer (bare, bracketed literal, or implicit array
// position).
type Key struct {
	IsString bool
	Str      string
	Int      int
}

func stringKey(s string) Key { return Key{IsString: true, Str: s} }
func intKey(i int) Key       { return Key{IsString: false, Int: i} }

// Entry is one key/value pair within a Table, kept in declaration order.
type Entry struct {
	Key   Key
	Value Value
}

// Table is an ordered map with string or integer keys, preserving insertion
// order so re-emission reproduces the original declaration order.
type Table struct {
	entries []Entry
	index   map[string]int // lookup key (string: "s:"+Str, int: "i:"+itoa) -> entries index
}

// NewTable returns an empty table ready for appends.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

func lookupKey(k Key) string {
	if k.IsString {
		return "s:" + k.Str
	}
	return fmt.Sprintf("i:%d", k.Int)
}

// SetString sets table[key] = value for a string key, appending if new.
func (t *Table) SetString(key string, v Value) {
	t.set(stringKey(key), v)
}

// SetInt sets table[key] = value for an integer key, appending if new.
func (t *Table) SetInt(key int, v Value) {
	t.set(intKey(key), v)
}

func (t *Table) set(k Key, v Value) {
	lk := lookupKey(k)
	if idx, ok := t.index[lk]; ok {
		t.entries[idx].Value = v
		return
	}
	t.index[lk] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: k, Value: v})
}

// GetString looks up table[key] for a string key.
func (t *Table) GetString(key string) (Value, bool) {
	idx, ok := t.index[lookupKey(stringKey(key))]
	if !ok {
		return Value{}, false
	}
	return t.entries[idx].Value, true
}

// GetInt looks up table[key] for an integer key.
func (t *Table) GetInt(key int) (Value, bool) {
	idx, ok := t.index[lookupKey(intKey(key))]
	if !ok {
		return Value{}, false
	}
	return t.entries[idx].Value, true
}

// Entries returns the table's entries in declaration order.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Len reports the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}
