package addon

import (
	"errors"
	"fmt"
)

// ErrMalformedTable is returned for any syntax error in the declarative
// table language. AddonCodec wraps it with the offending file's path;
// Codec.ReadAll stops at the first malformed file and returns the error.
var ErrMalformedTable = errors.New("addon: malformed declarative table")

// parser is a recursive descent parser over the data-only table grammar:
//
//	document := (ident '=' value)*
//	value    := string | number | bool | table
//	table    := '{' (entry (',' entry)* ','?)? '}'
//	entry    := key '=' value | value
//	key      := '[' (string | integer) ']' | integer | ident
//
// An entry without a key is stored at the next implicit array position.
type parser struct {
	lex *lexer
	cur token
	err error
}

func newParser(src string) (*parser, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	p.cur = tok
	return nil
}

// Bindings maps top-level identifier to its parsed value. The format allows
// several top-level assignments in one file; AddonCodec extracts the one
// binding it cares about by name.
func parseDocument(src string) (map[string]Value, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Value)
	for p.cur.kind != tokEOF {
		if p.cur.kind != tokIdent {
			return nil, fmt.Errorf("%w: expected top-level identifier at offset %d", ErrMalformedTable, p.cur.pos)
		}
		name := p.cur.str
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokEquals {
			return nil, fmt.Errorf("%w: expected '=' after %q at offset %d", ErrMalformedTable, name, p.cur.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func (p *parser) parseValue() (Value, error) {
	switch p.cur.kind {
	case tokString:
		v := StringValue(p.cur.str)
		return v, p.advance()
	case tokNumber:
		v := NumberValue(p.cur.num)
		return v, p.advance()
	case tokTrue:
		return BoolValue(true), p.advance()
	case tokFalse:
		return BoolValue(false), p.advance()
	case tokLBrace:
		return p.parseTable()
	default:
		return Value{}, fmt.Errorf("%w: unexpected token at offset %d", ErrMalformedTable, p.cur.pos)
	}
}

func (p *parser) parseTable() (Value, error) {
	if err := p.advance(); err != nil { // consume '{'
		return Value{}, err
	}
	t := NewTable()
	nextImplicit := 1
	for p.cur.kind != tokRBrace {
		if err := p.parseEntry(t, &nextImplicit); err != nil {
			return Value{}, err
		}
		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return Value{}, err
			}
			continue
		}
		break
	}
	if p.cur.kind != tokRBrace {
		return Value{}, fmt.Errorf("%w: expected '}' at offset %d", ErrMalformedTable, p.cur.pos)
	}
	if err := p.advance(); err != nil { // consume '}'
		return Value{}, err
	}
	return TableValue(t), nil
}

// parseEntry parses one table entry and stores it into t. A bare number is
// ambiguous between "integer key" (`5 = value`) and "implicit array element"
// (`value,`); it is resolved with one token of lookahead via the lexer's
// save/restore.
func (p *parser) parseEntry(t *Table, nextImplicit *int) error {
	switch p.cur.kind {
	case tokLBracket:
		if err := p.advance(); err != nil {
			return err
		}
		var key Key
		switch p.cur.kind {
		case tokString:
			key = stringKey(p.cur.str)
		case tokNumber:
			key = intKey(int(p.cur.num))
		default:
			return fmt.Errorf("%w: expected string or integer key at offset %d", ErrMalformedTable, p.cur.pos)
		}
		if err := p.advance(); err != nil {
			return err
		}
		if p.cur.kind != tokRBracket {
			return fmt.Errorf("%w: expected ']' at offset %d", ErrMalformedTable, p.cur.pos)
		}
		if err := p.advance(); err != nil {
			return err
		}
		return p.expectEqualsThenStore(t, key)
	case tokIdent:
		name := p.cur.str
		if err := p.advance(); err != nil {
			return err
		}
		return p.expectEqualsThenStore(t, stringKey(name))
	case tokNumber:
		savedPos := p.lex.pos
		n := p.cur.num
		if err := p.advance(); err != nil {
			return err
		}
		if p.cur.kind == tokEquals {
			return p.expectEqualsAlreadySeenThenStore(t, intKey(int(n)))
		}
		// Not a key: rewind and parse as a bare value instead.
		p.lex.pos = savedPos
		p.cur = token{kind: tokNumber, num: n}
		v, err := p.parseValue()
		if err != nil {
			return err
		}
		t.SetInt(*nextImplicit, v)
		*nextImplicit++
		return nil
	default:
		v, err := p.parseValue()
		if err != nil {
			return err
		}
		t.SetInt(*nextImplicit, v)
		*nextImplicit++
		return nil
	}
}

func (p *parser) expectEqualsThenStore(t *Table, key Key) error {
	if p.cur.kind != tokEquals {
		return fmt.Errorf("%w: expected '=' at offset %d", ErrMalformedTable, p.cur.pos)
	}
	return p.expectEqualsAlreadySeenThenStore(t, key)
}

func (p *parser) expectEqualsAlreadySeenThenStore(t *Table, key Key) error {
	if err := p.advance(); err != nil { // consume '='
		return err
	}
	v, err := p.parseValue()
	if err != nil {
		return err
	}
	if key.IsString {
		t.SetString(key.Str, v)
	} else {
		t.SetInt(key.Int, v)
	}
	return nil
}
