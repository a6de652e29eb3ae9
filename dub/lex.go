// Package dub implements the command language of the interactive shell:
// a command name followed by identifiers, numbers, quoted strings and
// match expressions that select steps of a measure, e.g.
//
//	pattern snare '2,4/*' 16
package dub

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/juju/errors"
)

type tokenType int

const (
	typeUnknown tokenType = iota
	typeInt
	typeFloat
	typeIdentifier
	typeString
	typeQuote
	typeComma
	typeColon
	typeSlash
	typeAsterisk
	typeSemicolon
	typeEOF
)

var typeNames = [...]string{
	typeUnknown:    "unknown",
	typeInt:        "int",
	typeFloat:      "float",
	typeIdentifier: "identifier",
	typeString:     "string",
	typeQuote:      "quote",
	typeComma:      "comma",
	typeColon:      "colon",
	typeSlash:      "slash",
	typeAsterisk:   "asterisk",
	typeSemicolon:  "semicolon",
	typeEOF:        "EOF",
}

func (t tokenType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("tokenType(%d)", int(t))
}

const eof = -1

var punctuation = map[rune]tokenType{
	'\'': typeQuote,
	',':  typeComma,
	':':  typeColon,
	'/':  typeSlash,
	'*':  typeAsterisk,
	';':  typeSemicolon,
}

type token struct {
	typ  tokenType
	pos  int // byte offset of the first character
	text string
}

func (t token) String() string {
	return fmt.Sprintf("%v %q@%d", t.typ, t.text, t.pos)
}

// lex splits input into tokens. Without an error the last token has type
// typeEOF.
func lex(input string) ([]token, error) {
	l := &lexer{input: input}
	for state := lexAny; state != nil; {
		state = state(l)
	}
	return l.tokens, l.err
}

// stateFn scans from the current position and returns the next state, or
// nil when scanning is done.
type stateFn func(*lexer) stateFn

type lexer struct {
	input string
	start int
	pos   int
	width int

	tokens []token
	err    error
}

func lexAny(l *lexer) stateFn {
	r := l.next()
	switch {
	case r == eof:
		l.emit(typeEOF)
		return nil
	case unicode.IsSpace(r):
		l.skipSpace()
		return lexAny
	case unicode.IsLetter(r):
		return lexIdentifier
	case r == '"':
		return lexString
	case l.startsNumber(r):
		l.backup()
		return lexNumber
	}
	if typ, ok := punctuation[r]; ok {
		l.emit(typ)
		return lexAny
	}
	return l.errorf("unexpected character %#U at position %d", r, l.start)
}

func lexIdentifier(l *lexer) stateFn {
	l.acceptRun(func(r rune) bool {
		return unicode.IsLetter(r) || isDigit(r) || strings.ContainsRune("_-.", r)
	})
	if r := l.peek(); r != eof && !unicode.IsSpace(r) {
		return l.errorf("unexpected character %#U at position %d", r, l.pos)
	}
	l.emit(typeIdentifier)
	return lexAny
}

func lexString(l *lexer) stateFn {
	for {
		switch l.next() {
		case '"':
			l.emit(typeString)
			return lexAny
		case eof:
			return l.errorf("unterminated string at position %d", l.start)
		}
	}
}

// lexNumber scans an optionally signed integer or decimal. A number ends
// at a space or at one of the separators of a match expression.
func lexNumber(l *lexer) stateFn {
	l.accept("-")
	l.acceptRun(isDigit)
	typ := typeInt
	if l.accept(".") {
		typ = typeFloat
		l.acceptRun(isDigit)
	}
	if r := l.peek(); r != eof && !unicode.IsSpace(r) && !strings.ContainsRune("/:,'", r) {
		return l.errorf("unexpected character %#U at position %d", r, l.pos)
	}
	l.emit(typ)
	return lexAny
}

// startsNumber reports whether r, which has just been read, is the start of
// a number: a digit, or a sign or decimal point followed by one.
func (l *lexer) startsNumber(r rune) bool {
	rest := l.input[l.pos:]
	switch {
	case isDigit(r):
		return true
	case r == '-':
		rest = strings.TrimPrefix(rest, ".")
	case r == '.':
	default:
		return false
	}
	return rest != "" && isDigit(rune(rest[0]))
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) backup() {
	l.pos -= l.width
}

func (l *lexer) emit(t tokenType) {
	l.tokens = append(l.tokens, token{typ: t, pos: l.start, text: l.input[l.start:l.pos]})
	l.start = l.pos
	l.width = 0
}

func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.err = errors.Errorf(format, args...)
	return nil
}

func (l *lexer) skipSpace() {
	for unicode.IsSpace(l.peek()) {
		l.next()
	}
	l.start = l.pos
}

func (l *lexer) accept(set string) bool {
	if strings.ContainsRune(set, l.next()) {
		return true
	}
	l.backup()
	return false
}

func (l *lexer) acceptRun(valid func(rune) bool) {
	for valid(l.next()) {
	}
	l.backup()
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
