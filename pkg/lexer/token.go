// Package lexer provides tokenization for the quill language.
package lexer

// TokenType represents the type of a token.
type TokenType string

const (
	// Basic tokens
	IDENTIFIER TokenType = "IDENTIFIER" // Static names (e.g., count, pack_format, x')
	VARIABLE   TokenType = "VARIABLE"   // Dynamic names; Value holds the name without the $ sigil
	NUMBER     TokenType = "NUMBER"     // Unsigned integer literals (e.g., 42)
	STRING     TokenType = "STRING"     // Double-quoted strings; Value holds the unescaped text
	COMMAND    TokenType = "COMMAND"    // Raw command line after '/', holes still embedded as #{...}

	// Keywords
	IF     TokenType = "IF"
	ELSE   TokenType = "ELSE"
	DEF    TokenType = "DEF"
	RETURN TokenType = "RETURN"
	TRUE   TokenType = "TRUE"
	FALSE  TokenType = "FALSE"

	// Delimiters
	LPAREN TokenType = "LPAREN" // (
	RPAREN TokenType = "RPAREN" // )
	LBRACE TokenType = "LBRACE" // {
	RBRACE TokenType = "RBRACE" // }
	COMMA  TokenType = "COMMA"  // ,
	SEMI   TokenType = "SEMI"   // ;
	COLON  TokenType = "COLON"  // :

	// Operators
	ASSIGN TokenType = "ASSIGN" // :=
	EQUALS TokenType = "EQUALS" // =
	PLUS   TokenType = "PLUS"   // +
	STAR   TokenType = "STAR"   // *

	EOF TokenType = "EOF"
)

var keywords = map[string]TokenType{
	"if":     IF,
	"else":   ELSE,
	"def":    DEF,
	"return": RETURN,
	"true":   TRUE,
	"false":  FALSE,
}

// Token represents a single token from the lexer.
type Token struct {
	Type   TokenType `json:"type"`
	Value  string    `json:"value"`
	Offset int       `json:"offset"` // Byte offset of the first character
	Len    int       `json:"len"`    // Length of the raw source text
	Line   int       `json:"line"`   // 1-indexed
	Column int       `json:"col"`    // 0-indexed
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Offset + t.Len
}

// IsKeyword returns true if the token is a reserved word.
func (t Token) IsKeyword() bool {
	switch t.Type {
	case IF, ELSE, DEF, RETURN, TRUE, FALSE:
		return true
	}
	return false
}

// IsName returns true for static and dynamic names alike.
func (t Token) IsName() bool {
	return t.Type == IDENTIFIER || t.Type == VARIABLE
}

// IsLiteral returns true if the token represents a literal value.
func (t Token) IsLiteral() bool {
	switch t.Type {
	case NUMBER, STRING, TRUE, FALSE:
		return true
	}
	return false
}
