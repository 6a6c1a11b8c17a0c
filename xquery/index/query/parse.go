package query

import (
	"strconv"
	"strings"
	"unicode/utf8"

	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrSyntax is returned when a query text cannot be parsed.
var ErrSyntax = errors.NewKind("syntax error at offset %d in query %q: %s")

// Parse reads a query from its text form, as produced by the String
// method of the queries.
func Parse(s string) (Query, error) {
	p := &parser{input: s}
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}

	p.skipSpaces()
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected trailing input")
	}
	return q, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(msg string) error {
	return ErrSyntax.New(p.pos, p.input, msg)
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) rest() string {
	return p.input[p.pos:]
}

func (p *parser) parseQuery() (Query, error) {
	p.skipSpaces()
	switch {
	case p.pos >= len(p.input):
		return nil, p.errorf("unexpected end of query")
	case strings.HasPrefix(p.rest(), "*:*"):
		p.pos += 3
		return NewMatchAll(), nil
	case p.peek() == '(':
		return p.parseBoolean()
	case strings.HasPrefix(p.rest(), "near/"), strings.HasPrefix(p.rest(), "near~"):
		return p.parseNear()
	default:
		return p.parseTerm()
	}
}

func (p *parser) parseBoolean() (Query, error) {
	p.pos++ // (

	var clauses []Clause
	for {
		p.skipSpaces()
		switch p.peek() {
		case 0:
			return nil, p.errorf("unterminated boolean query")
		case ')':
			p.pos++
			return NewBoolean(clauses...), nil
		}

		occur := Should
		switch p.peek() {
		case '+':
			occur = Must
			p.pos++
		case '-':
			occur = MustNot
			p.pos++
		}

		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, Clause{occur, q})
	}
}

func (p *parser) parseNear() (Query, error) {
	p.pos += len("near")
	inOrder := p.peek() == '/'
	p.pos++

	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	slop, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil {
		return nil, p.errorf("invalid slop")
	}

	if p.peek() != '(' {
		return nil, p.errorf("expecting '('")
	}
	p.pos++

	var clauses []Query
	for {
		p.skipSpaces()
		switch p.peek() {
		case 0:
			return nil, p.errorf("unterminated proximity query")
		case ')':
			p.pos++
			return NewNear(slop, inOrder, clauses...)
		}

		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, q)
	}
}

func (p *parser) parseTerm() (Query, error) {
	start := p.pos
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.rest())
		if !isFieldRune(r) {
			break
		}
		p.pos += size
	}

	field := p.input[start:p.pos]
	if field == "" || p.peek() != ':' {
		return nil, p.errorf("expecting field name")
	}
	p.pos++

	text, err := p.parseText()
	if err != nil {
		return nil, err
	}
	return NewTerm(field, text)
}

func (p *parser) parseText() (string, error) {
	if p.peek() == '"' {
		quoted, err := strconv.QuotedPrefix(p.rest())
		if err != nil {
			return "", p.errorf("invalid quoted term")
		}
		p.pos += len(quoted)
		return strconv.Unquote(quoted)
	}

	start := p.pos
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.rest())
		if !isBareRune(r) {
			break
		}
		p.pos += size
	}

	if start == p.pos {
		return "", p.errorf("expecting term text")
	}
	return p.input[start:p.pos], nil
}
