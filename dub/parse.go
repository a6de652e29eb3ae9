package dub

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (MatchExpr) isNode()  {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string

// MatchExpr selects steps of a measure. Each matcher applies to a level of
// subdivision: level 0 selects beats, every following level halves the
// previous one. Steps are selected when they are matched on every level.
type MatchExpr struct {
	matchers []matchItem
}

// Number returns the value of an Int or Float node.
func Number(n Node) (float64, bool) {
	switch v := n.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	}
	return 0, false
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

// ParseMatchExpr parses a match expression on its own, without the opening
// quote.
func ParseMatchExpr(input string) (MatchExpr, error) {
	cmd, err := Parse("match '" + input)
	if err != nil {
		return MatchExpr{}, err
	}
	if len(cmd.Args) != 1 {
		return MatchExpr{}, errors.NotValidf("match expression %q", input)
	}
	expr, ok := cmd.Args[0].(MatchExpr)
	if !ok {
		return MatchExpr{}, errors.NotValidf("match expression %q", input)
	}
	return expr, nil
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != typeEOF {
		p.pos++
	}
	return t
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	name := p.next()
	if name.typ != typeIdentifier {
		return cmd, unexpected(name)
	}
	cmd.Name = Identifier(name.text)
	for t := p.next(); t.typ != typeEOF; t = p.next() {
		arg, err := p.arg(t)
		if err != nil {
			return cmd, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

// arg converts the argument starting at t.
func (p *parser) arg(t token) (Node, error) {
	switch t.typ {
	case typeIdentifier:
		return Identifier(t.text), nil
	case typeString:
		return String(strings.Trim(t.text, `"`)), nil
	case typeFloat:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, errors.Annotatef(err, "position %d", t.pos)
		}
		return Float(f), nil
	case typeInt:
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, errors.Annotatef(err, "position %d", t.pos)
		}
		return Int(n), nil
	case typeQuote:
		return p.matchExpr()
	}
	return nil, unexpected(t)
}

// matchExpr parses the expression following an opening quote. The closing
// quote is optional at the end of the input.
func (p *parser) matchExpr() (MatchExpr, error) {
	var (
		match MatchExpr
		level int
	)
	for {
		token := p.next()
		var m matcher
		switch token.typ {
		case typeAsterisk:
			m = matchAll
		case typeInt:
			if p.peek().typ == typeColon {
				p.next()
				r, err := p.rangeMatch(token, p.next())
				if err != nil {
					return match, err
				}
				m = r
			} else {
				list, err := p.listMatch(token)
				if err != nil {
					return match, err
				}
				m = list
			}
		default:
			return match, unexpected(token)
		}
		match.matchers = append(match.matchers, matchItem{level: level, matcher: m})

		slashes := 0
		for p.peek().typ == typeSlash {
			p.next()
			slashes++
		}
		if slashes > 0 {
			level += slashes
			continue
		}
		switch t := p.peek(); t.typ {
		case typeQuote:
			p.next()
			return match, nil
		case typeEOF:
			return match, nil
		default:
			return match, unexpected(t)
		}
	}
}

func (p *parser) rangeMatch(start, end token) (rangeMatch, error) {
	if end.typ != typeInt {
		return rangeMatch{}, unexpected(end)
	}
	from, err := strconv.Atoi(start.text)
	if err != nil {
		return rangeMatch{}, errors.Trace(err)
	}
	to, err := strconv.Atoi(end.text)
	if err != nil {
		return rangeMatch{}, errors.Trace(err)
	}
	return rangeMatch{start: from, end: to}, nil
}

func (p *parser) listMatch(start token) (listMatch, error) {
	var list listMatch
	for current := start; ; current = p.next() {
		if current.typ != typeInt {
			return list, unexpected(current)
		}
		n, err := strconv.Atoi(current.text)
		if err != nil {
			return list, errors.Trace(err)
		}
		list = append(list, n)
		if p.peek().typ != typeComma {
			return list, nil
		}
		p.next()
	}
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return errors.Errorf("unexpected end of input")
	}
	return errors.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
