// Package parser converts quill token streams into syntax trees.
//
// The grammar is parsed by recursive descent without backtracking: once a
// construct is recognised by its leading tokens (def, if, a name followed
// by :=), any failure inside it aborts the whole parse. Static/dynamic
// misuse that is visible from the tree alone is also rejected here, so the
// generator never sees it.
package parser

import (
	"strconv"

	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/diag"
	"github.com/chazu/quill/pkg/lexer"
)

// Parser converts token streams to syntax trees
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New creates a parser over tokens. The slice must end with an EOF token.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// Parse tokenizes and parses a complete program.
func Parse(src string) (*ast.Program, error) {
	tokens, err := lexer.New(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(tokens).ParseProgram()
}

// ParseExpr tokenizes and parses a single expression covering all of src.
func ParseExpr(src string) (ast.Expr, error) {
	tokens, err := lexer.New(src).Tokenize()
	if err != nil {
		return nil, err
	}
	p := New(tokens)
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errorf(p.peek(), "invalid expression")
	}
	return expr, nil
}

// ParseProgram parses statements until EOF.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	stmts := make(ast.Block, 0)
	for !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return &ast.Program{Statements: stmts, End: p.position(p.peek())}, nil
}

// === Expressions ===

// parseExpr handles: summand ('+' expression)?
func (p *Parser) parseExpr() (ast.Expr, error) {
	start := p.peek()
	left, err := p.parseSummand()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.PLUS {
		return left, nil
	}
	p.advance()
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Sum{Position: p.span(start), Left: left, Right: right}, nil
}

// parseSummand handles: term ('*' summand)?
// Both operators nest to the right, so a*b*c is a*(b*c).
func (p *Parser) parseSummand() (ast.Expr, error) {
	start := p.peek()
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.STAR {
		return left, nil
	}
	p.advance()
	right, err := p.parseSummand()
	if err != nil {
		return nil, err
	}
	return &ast.Product{Position: p.span(start), Left: left, Right: right}, nil
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.NUMBER:
		p.advance()
		n, err := strconv.ParseInt(tok.Value, 10, 32)
		if err != nil {
			return nil, p.errorf(tok, "integer literal out of range")
		}
		return &ast.NumberLit{Position: p.position(tok), Value: int32(n)}, nil

	case lexer.STRING:
		p.advance()
		return &ast.StringLit{Position: p.position(tok), Value: tok.Value}, nil

	case lexer.TRUE, lexer.FALSE:
		p.advance()
		return &ast.BoolLit{Position: p.position(tok), Value: tok.Type == lexer.TRUE}, nil

	case lexer.IDENTIFIER, lexer.VARIABLE:
		if p.peekAhead(1).Type == lexer.LPAREN {
			return p.parseCall()
		}
		p.advance()
		return &ast.VarRef{Position: p.position(tok), Name: nameOf(tok)}, nil

	case lexer.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		return &ast.Paren{Position: p.span(tok), Inner: inner}, nil
	}

	return nil, p.errorf(tok, "invalid expression")
}

// parseCall handles: name '(' expression,* ')'
func (p *Parser) parseCall() (*ast.FunctionCall, error) {
	nameTok := p.advance()
	p.advance() // (

	args := make([]ast.Expr, 0)
	for p.peek().Type != lexer.RPAREN {
		if len(args) > 0 {
			if _, err := p.expect(lexer.COMMA, "expected ',' or ')'"); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.advance() // )

	call := &ast.FunctionCall{Position: p.span(nameTok), Name: nameOf(nameTok), Args: args}
	if call.Name.IsStatic() {
		for _, arg := range args {
			if !arg.IsStatic() {
				return nil, diag.Errorf(arg.Pos(), "can't call a static function with dynamic arguments")
			}
		}
	}
	return call, nil
}

// === Helpers ===

func nameOf(tok lexer.Token) ast.VariableName {
	if tok.Type == lexer.VARIABLE {
		return ast.Dynamic(tok.Value)
	}
	return ast.Static(tok.Value)
}

func (p *Parser) position(tok lexer.Token) ast.Position {
	return ast.Position{Offset: tok.Offset, Length: tok.Len, Line: tok.Line, Column: tok.Column}
}

// span covers start through the last consumed token.
func (p *Parser) span(start lexer.Token) ast.Position {
	pos := p.position(start)
	if p.pos > 0 {
		pos.Length = p.tokens[p.pos-1].End() - start.Offset
	}
	return pos
}

func (p *Parser) errorf(tok lexer.Token, format string, args ...interface{}) *diag.Error {
	err := diag.Errorf(p.position(tok), format, args...)
	err.Incomplete = tok.Type == lexer.EOF
	return err
}

func (p *Parser) expect(typ lexer.TokenType, msg string) (lexer.Token, error) {
	tok := p.peek()
	if tok.Type != typ {
		return tok, p.errorf(tok, "%s", msg)
	}
	return p.advance(), nil
}

func (p *Parser) peek() lexer.Token {
	return p.peekAhead(0)
}

func (p *Parser) peekAhead(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return p.eof()
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == lexer.EOF
}

func (p *Parser) eof() lexer.Token {
	if n := len(p.tokens); n > 0 && p.tokens[n-1].Type == lexer.EOF {
		return p.tokens[n-1]
	}
	return lexer.Token{Type: lexer.EOF}
}
