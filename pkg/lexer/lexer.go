// Package lexer provides tokenization for the quill language.
//
// It performs character-by-character processing to produce tokens for the
// parser. Whitespace (space, tab, newline) and # comments are skipped.
//
// Token Types:
//
//	IDENTIFIER  - Static names (e.g., count, pack_format, f')
//	VARIABLE    - Dynamic names written with a sigil (e.g., $count)
//	NUMBER      - Unsigned integer literals (e.g., 42)
//	STRING      - Double-quoted strings (e.g., "hello")
//	COMMAND     - A raw command: '/' up to end of line or an unbalanced '}'
//	ASSIGN      - Declaration operator :=
//	EQUALS      - Reassignment operator =
//	PLUS, STAR  - Arithmetic
//
// Output Format (JSON array):
//
//	[{"type": "IDENTIFIER", "value": "count", "offset": 0, "len": 5, "line": 1, "col": 0}, ...]
package lexer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/diag"
)

// Lexer tokenizes quill source code.
type Lexer struct {
	input  string // The source code being tokenized
	base   int    // Offset of input within the enclosing source
	pos    int    // Current position in input
	line   int    // Current line number (1-indexed)
	col    int    // Current column number (0-indexed)
	tokens []Token
}

// New creates a new Lexer for the given input.
func New(input string) *Lexer {
	return NewAt(input, 0, 1, 0)
}

// NewAt creates a Lexer for a fragment that starts at the given offset,
// line and column of a larger source. Interpolation holes are lexed this way.
func NewAt(input string, offset, line, col int) *Lexer {
	return &Lexer{
		input:  input,
		base:   offset,
		line:   line,
		col:    col,
		tokens: make([]Token, 0),
	}
}

// NewFromReader creates a new Lexer from an io.Reader.
func NewFromReader(r io.Reader) (*Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return New(string(data)), nil
}

// Tokenize processes the entire input and returns all tokens, terminated
// by an EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		l.skipWhitespace()
		if l.isAtEnd() {
			break
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.tokens = append(l.tokens, Token{Type: EOF, Offset: l.base + l.pos, Line: l.line, Column: l.col})
	return l.tokens, nil
}

// TokenizeJSON processes the input and returns tokens as a JSON array.
func (l *Lexer) TokenizeJSON() (string, error) {
	tokens, err := l.Tokenize()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tokens: %w", err)
	}
	return string(data), nil
}

// Helper methods for character access and movement

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) advance() byte {
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch
}

// mark captures the current position as the start of a token.
type mark struct {
	pos, line, col int
}

func (l *Lexer) mark() mark {
	return mark{pos: l.pos, line: l.line, col: l.col}
}

func (l *Lexer) addToken(typ TokenType, value string, m mark) {
	l.tokens = append(l.tokens, Token{
		Type:   typ,
		Value:  value,
		Offset: l.base + m.pos,
		Len:    l.pos - m.pos,
		Line:   m.line,
		Column: m.col,
	})
}

func (l *Lexer) errorAt(m mark, length int, format string, args ...interface{}) *diag.Error {
	err := diag.Errorf(ast.Position{Offset: l.base + m.pos, Length: length, Line: m.line, Column: m.col}, format, args...)
	err.Incomplete = l.isAtEnd()
	return err
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

// skipWhitespace skips spaces, tabs, newlines and # comments.
func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '#':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// scanToken scans a single token from the current position.
func (l *Lexer) scanToken() error {
	m := l.mark()
	char := l.peek()

	switch char {
	case '(':
		l.advance()
		l.addToken(LPAREN, "(", m)
	case ')':
		l.advance()
		l.addToken(RPAREN, ")", m)
	case '{':
		l.advance()
		l.addToken(LBRACE, "{", m)
	case '}':
		l.advance()
		l.addToken(RBRACE, "}", m)
	case ',':
		l.advance()
		l.addToken(COMMA, ",", m)
	case ';':
		l.advance()
		l.addToken(SEMI, ";", m)
	case '+':
		l.advance()
		l.addToken(PLUS, "+", m)
	case '*':
		l.advance()
		l.addToken(STAR, "*", m)
	case '=':
		l.advance()
		l.addToken(EQUALS, "=", m)

	// Colon or declaration operator
	case ':':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			l.addToken(ASSIGN, ":=", m)
		} else {
			l.addToken(COLON, ":", m)
		}

	case '"':
		return l.scanString()

	case '/':
		return l.scanCommand()

	case '$':
		l.advance()
		if !isAlpha(l.peek()) {
			return l.errorAt(m, 1, "invalid identifier")
		}
		l.addToken(VARIABLE, l.scanIdentifier(), m)

	default:
		switch {
		case isDigit(char):
			for !l.isAtEnd() && isDigit(l.peek()) {
				l.advance()
			}
			l.addToken(NUMBER, l.input[m.pos:l.pos], m)
		case isAlpha(char):
			word := l.scanIdentifier()
			if typ, ok := keywords[word]; ok {
				l.addToken(typ, word, m)
			} else {
				l.addToken(IDENTIFIER, word, m)
			}
		default:
			l.advance()
			return l.errorAt(m, 1, "unexpected character %q", char)
		}
	}
	return nil
}

// scanIdentifier consumes alpha alphanumeric* '\''*.
func (l *Lexer) scanIdentifier() string {
	start := l.pos
	for !l.isAtEnd() && isAlphaNumeric(l.peek()) {
		l.advance()
	}
	for !l.isAtEnd() && l.peek() == '\'' {
		l.advance()
	}
	return l.input[start:l.pos]
}

// scanString handles "string" with \" \\ \n \t escapes.
func (l *Lexer) scanString() error {
	m := l.mark()
	l.advance() // opening quote

	var str strings.Builder
	for {
		if l.isAtEnd() {
			return l.errorAt(m, l.pos-m.pos, "unterminated string")
		}
		c := l.advance()
		switch c {
		case '"':
			l.addToken(STRING, str.String(), m)
			return nil
		case '\n':
			return l.errorAt(m, l.pos-m.pos, "unterminated string")
		case '\\':
			if l.isAtEnd() {
				return l.errorAt(m, l.pos-m.pos, "unterminated string")
			}
			switch esc := l.advance(); esc {
			case 'n':
				str.WriteByte('\n')
			case 't':
				str.WriteByte('\t')
			case '"', '\\':
				str.WriteByte(esc)
			default:
				return l.errorAt(m, l.pos-m.pos, "invalid escape sequence \\%c", esc)
			}
		default:
			str.WriteByte(c)
		}
	}
}

// HoleEnd returns the index of the '}' that closes an interpolation hole
// whose body starts at s[0], or -1 if the line ends first. Braces inside
// string literals in the hole do not count.
func HoleEnd(s string) int {
	inString := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\n':
			return -1
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case !inString && c == '}':
			return i
		}
	}
	return -1
}

// scanCommand reads a raw command line. The command ends at a newline, at
// end of input, or at a '}' that closes an enclosing block. Balanced braces
// and #{...} holes are kept verbatim for the parser to split.
func (l *Lexer) scanCommand() error {
	m := l.mark()
	l.advance() // '/'

	depth := 0
	for !l.isAtEnd() {
		c := l.peek()
		if c == '\n' {
			break
		}
		if c == '#' && l.peekNext() == '{' {
			hole := l.mark()
			end := HoleEnd(l.input[l.pos+2:])
			if end < 0 {
				for !l.isAtEnd() && l.peek() != '\n' {
					l.advance()
				}
				return l.errorAt(hole, l.pos-hole.pos, "unterminated interpolation")
			}
			for i := 0; i < end+3; i++ {
				l.advance()
			}
			continue
		}
		if c == '{' {
			depth++
		} else if c == '}' {
			if depth == 0 {
				break
			}
			depth--
		}
		l.advance()
	}

	text := l.input[m.pos+1 : l.pos]
	trimmed := strings.TrimRight(text, " \t\r")
	// Give back trailing whitespace so the token spans only the command.
	end := m.pos + 1 + len(trimmed)
	tok := Token{
		Type:   COMMAND,
		Value:  trimmed,
		Offset: l.base + m.pos,
		Len:    end - m.pos,
		Line:   m.line,
		Column: m.col,
	}
	l.tokens = append(l.tokens, tok)
	return nil
}

// String returns a string representation of the lexer state (for debugging).
func (l *Lexer) String() string {
	return fmt.Sprintf("Lexer{pos=%d, line=%d, col=%d, tokens=%d}",
		l.pos, l.line, l.col, len(l.tokens))
}
