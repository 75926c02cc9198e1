// Package lexer turns Kong source text into a stream of [token.Token]
// values. It reads one byte at a time, never re-scanning, and hands the
// parser one token per call to NextToken.
package lexer

import (
	"strings"

	"github.com/kongscript/kong/token"
)

// singleCharTokens maps a byte to its token when that byte never starts a
// longer token (so no lookahead is needed to classify it).
var singleCharTokens = map[byte]token.Token{
	'+': {Type: token.Plus, Literal: "+"},
	'-': {Type: token.Minus, Literal: "-"},
	'/': {Type: token.Slash, Literal: "/"},
	'*': {Type: token.Asterisk, Literal: "*"},
	';': {Type: token.Semicolon, Literal: ";"},
	':': {Type: token.Colon, Literal: ":"},
	',': {Type: token.Comma, Literal: ","},
	'(': {Type: token.Lparen, Literal: "("},
	')': {Type: token.Rparen, Literal: ")"},
	'{': {Type: token.Lbrace, Literal: "{"},
	'}': {Type: token.Rbrace, Literal: "}"},
	'[': {Type: token.Lbracket, Literal: "["},
	']': {Type: token.Rbracket, Literal: "]"},
}

var tokenEOF = token.Token{Type: token.EOF, Literal: ""}

// Lexer scans input one byte at a time, tracking the current byte (ch) and
// the position just past it (readPosition) so NextToken never backs up.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
	illegalTok   token.Token // reused buffer for Illegal tokens
}

// New returns a Lexer positioned at the first byte of input.
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken consumes and returns the next token, skipping any leading
// whitespace and `//` comments.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	switch l.ch {
	case '=':
		return l.lexMaybeTwoChar('=', token.Eq, token.Assign, "=")
	case '!':
		return l.lexMaybeTwoChar('=', token.NotEq, token.Bang, "!")
	case '<':
		return l.lexMaybeTwoChar('=', token.Lte, token.Lt, "<")
	case '>':
		return l.lexMaybeTwoChar('=', token.Gte, token.Gt, ">")
	case '"':
		return l.lexString()
	case 0:
		return tokenEOF
	}

	if tok, ok := singleCharTokens[l.ch]; ok {
		l.readChar()
		return tok
	}
	if isLetter(l.ch) {
		literal := l.readIdentifier()
		return token.Token{Type: token.LookupIdent(literal), Literal: literal}
	}
	if isDigit(l.ch) {
		return token.Token{Type: token.Int, Literal: l.readNumber()}
	}

	l.illegalTok = token.Token{Type: token.Illegal, Literal: string(l.ch)}
	l.readChar()
	return l.illegalTok
}

// lexMaybeTwoChar handles the four operators that are one character unless
// followed by '=', in which case they form a two-character token instead
// (e.g. '<' vs "<=").
func (l *Lexer) lexMaybeTwoChar(second byte, twoCharType token.Type, oneCharType token.Type, oneCharLit string) token.Token {
	first := l.ch
	if l.peekChar() != second {
		l.readChar()
		return token.Token{Type: oneCharType, Literal: oneCharLit}
	}
	l.readChar()
	l.readChar()
	return token.Token{Type: twoCharType, Literal: string(first) + string(second)}
}

// lexString consumes a double-quoted string, including escape sequences,
// returning Illegal if the closing quote is never found.
func (l *Lexer) lexString() token.Token {
	lit, ok := l.readString()
	if !ok {
		l.illegalTok = token.Token{Type: token.Illegal, Literal: "unterminated string"}
		return l.illegalTok
	}
	tok := token.Token{Type: token.String, Literal: lit}
	l.readChar()
	return tok
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// skipWhitespace consumes runs of whitespace and `//` line comments,
// alternating between the two until neither is present.
func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		break
	}
}

// readString consumes bytes up to the closing quote, leaving l.ch on it
// (lexString steps past it), expanding backslash escapes, and reports
// whether a closing quote was found before EOF.
func (l *Lexer) readString() (string, bool) {
	var b strings.Builder
	l.readChar() // step past the opening quote

	for {
		switch l.ch {
		case '"':
			return b.String(), true
		case 0:
			return b.String(), false
		case '\\':
			l.readChar()
			if l.ch == 0 {
				return b.String(), false
			}
			writeEscape(&b, l.ch)
		default:
			b.WriteByte(l.ch)
		}
		l.readChar()
	}
}

func writeEscape(b *strings.Builder, ch byte) {
	switch ch {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '"':
		b.WriteByte('"')
	case '\\':
		b.WriteByte('\\')
	default:
		b.WriteByte('\\')
		b.WriteByte(ch)
	}
}
