package richtext

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// literalParser reads the literal notation that some table exports use instead of JSON:
// single- or double-quoted strings, True/False/None, numbers, [lists], (tuples) and {mappings},
// with optional trailing commas. Lists and tuples decode to []any, mappings to map[string]any
// and numbers to json.Number so the result has the same shape as decoded JSON.
type literalParser struct {
	src string
	pos int
}

func parseLiteral(s string) (any, error) {
	p := &literalParser{src: s}

	v, err := p.value()
	if err != nil {
		return nil, err
	}

	p.skipSpace()

	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos])
	}

	return v, nil
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("literal: offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) value() (any, error) {
	p.skipSpace()

	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}

	switch c := p.src[p.pos]; {
	case c == '\'' || c == '"':
		return p.str()
	case c == '[':
		return p.sequence(']')
	case c == '(':
		return p.sequence(')')
	case c == '{':
		return p.mapping()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.keyword()
	}
}

func (p *literalParser) keyword() (any, error) {
	for word, v := range map[string]any{"True": true, "False": false, "None": nil} {
		if strings.HasPrefix(p.src[p.pos:], word) {
			p.pos += len(word)
			return v, nil
		}
	}

	return nil, p.errorf("unexpected %q", p.src[p.pos])
}

func (p *literalParser) sequence(closing byte) (any, error) {
	p.pos++

	items := []any{}

	for {
		p.skipSpace()

		if p.pos < len(p.src) && p.src[p.pos] == closing {
			p.pos++
			return items, nil
		}

		v, err := p.value()
		if err != nil {
			return nil, err
		}

		items = append(items, v)

		if err := p.separator(closing); err != nil {
			return nil, err
		}
	}
}

func (p *literalParser) mapping() (any, error) {
	p.pos++

	m := map[string]any{}

	for {
		p.skipSpace()

		if p.pos < len(p.src) && p.src[p.pos] == '}' {
			p.pos++
			return m, nil
		}

		key, err := p.value()
		if err != nil {
			return nil, err
		}

		p.skipSpace()

		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, p.errorf("expected ':' after mapping key")
		}

		p.pos++

		v, err := p.value()
		if err != nil {
			return nil, err
		}

		m[stringify(key)] = v

		if err := p.separator('}'); err != nil {
			return nil, err
		}
	}
}

// separator consumes a comma, or leaves the closing delimiter for the caller.
func (p *literalParser) separator(closing byte) error {
	p.skipSpace()

	if p.pos >= len(p.src) {
		return p.errorf("unexpected end of input")
	}

	switch p.src[p.pos] {
	case ',':
		p.pos++
		return nil
	case closing:
		return nil
	default:
		return p.errorf("expected ',' or %q", closing)
	}
}

func (p *literalParser) number() (any, error) {
	start := p.pos

	for p.pos < len(p.src) && strings.IndexByte("+-.0123456789eE_", p.src[p.pos]) >= 0 {
		p.pos++
	}

	raw := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	raw = strings.TrimPrefix(raw, "+")

	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		p.pos = start
		return nil, p.errorf("invalid number")
	}

	return json.Number(raw), nil
}

func (p *literalParser) str() (any, error) {
	quote := p.src[p.pos]
	p.pos++

	var sb strings.Builder

	for p.pos < len(p.src) {
		c := p.src[p.pos]

		switch {
		case c == quote:
			p.pos++
			return sb.String(), nil
		case c == '\\':
			if err := p.escape(&sb); err != nil {
				return nil, err
			}
		case c == '\n':
			return nil, p.errorf("newline in string")
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			sb.WriteRune(r)
			p.pos += size
		}
	}

	return nil, p.errorf("unterminated string")
}

func (p *literalParser) escape(sb *strings.Builder) error {
	p.pos++

	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}

	c := p.src[p.pos]
	p.pos++

	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case '0':
		sb.WriteByte(0)
	case '\\', '\'', '"':
		sb.WriteByte(c)
	case '\n':
		// line continuation
	case 'x':
		return p.hexRune(sb, 2)
	case 'u':
		return p.hexRune(sb, 4)
	case 'U':
		return p.hexRune(sb, 8)
	default:
		sb.WriteByte('\\')
		sb.WriteByte(c)
	}

	return nil
}

func (p *literalParser) hexRune(sb *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return p.errorf("truncated escape")
	}

	code, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return p.errorf("invalid escape")
	}

	p.pos += digits
	sb.WriteRune(rune(code))

	return nil
}
