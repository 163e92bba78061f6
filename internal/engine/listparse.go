package engine

import (
	"strings"
)

// ParseList decodes a serialized list cell such as ['S1', "D3"]. A lone
// quoted string decodes to a one-element list. Anything malformed yields
// (nil, false); callers treat that as a row without tokens.
func ParseList(s string) ([]string, bool) {
	p := listParser{src: strings.TrimSpace(s)}
	if p.src == "" {
		return nil, false
	}
	if p.src[0] != '[' {
		v, ok := p.quoted()
		p.skipSpace()
		if !ok || p.pos != len(p.src) {
			return nil, false
		}
		return []string{v}, true
	}
	p.pos++

	out := []string{}
	for {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			break
		}
		v, ok := p.quoted()
		if !ok {
			return nil, false
		}
		out = append(out, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			p.skipSpace()
			if p.pos != len(p.src) {
				return nil, false
			}
			return out, true
		default:
			return nil, false
		}
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, false
	}
	return out, true
}

type listParser struct {
	src string
	pos int
}

func (p *listParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *listParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// quoted reads a single- or double-quoted string with backslash escapes.
func (p *listParser) quoted() (string, bool) {
	q := p.peek()
	if q != '\'' && q != '"' {
		return "", false
	}
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case q:
			return sb.String(), true
		case '\\':
			if p.pos >= len(p.src) {
				return "", false
			}
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(e)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(e)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return "", false
}
