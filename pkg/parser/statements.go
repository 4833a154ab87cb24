package parser

import (
	"errors"
	"strings"

	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/diag"
	"github.com/chazu/quill/pkg/lexer"
)

func (p *Parser) parseStatement() (ast.Stmt, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.COMMAND:
		return p.parseCommand()
	case lexer.IF:
		return p.parseIf()
	case lexer.DEF:
		return p.parseFunction()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.IDENTIFIER, lexer.VARIABLE:
		switch p.peekAhead(1).Type {
		case lexer.COLON, lexer.ASSIGN, lexer.EQUALS:
			return p.parseAssignment()
		case lexer.LPAREN:
			call, err := p.parseCall()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.SEMI, "expected ';' after call"); err != nil {
				return nil, err
			}
			call.Position = p.span(tok)
			return call, nil
		}
		return nil, p.errorf(p.peekAhead(1), "expected ':=', '=' or '(' after %s", nameOf(tok))
	case lexer.RBRACE:
		return nil, p.errorf(tok, "unexpected '}'")
	}
	return nil, p.errorf(tok, "invalid statement")
}

// parseBlock handles: '{' statement* '}'
// The result is never nil, so an empty else branch stays distinguishable
// from a missing one.
func (p *Parser) parseBlock() (ast.Block, error) {
	if _, err := p.expect(lexer.LBRACE, "expected '{'"); err != nil {
		return nil, err
	}
	stmts := make(ast.Block, 0)
	for p.peek().Type != lexer.RBRACE {
		if p.atEnd() {
			return nil, p.errorf(p.peek(), "expected '}'")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.advance() // }
	return stmts, nil
}

// parseIf handles: 'if' expr block ('else' 'if' expr block)* ('else' block)?
// Each else-if becomes an IfStatement nested under the previous one.
func (p *Parser) parseIf() (*ast.IfStatement, error) {
	start := p.advance() // if

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Condition: cond, Then: then}

	if p.peek().Type == lexer.ELSE {
		p.advance()
		if p.peek().Type == lexer.IF {
			stmt.ElseIf, err = p.parseIf()
		} else {
			stmt.Else, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
	}
	stmt.Position = p.span(start)
	return stmt, nil
}

// parseAssignment handles: name (':' typing)? ':=' expr ';' and name '=' expr ';'
func (p *Parser) parseAssignment() (*ast.VariableAssignment, error) {
	nameTok := p.advance()
	stmt := &ast.VariableAssignment{Target: nameOf(nameTok)}

	if p.peek().Type == lexer.COLON {
		p.advance()
		typing, err := p.parseTyping()
		if err != nil {
			return nil, err
		}
		stmt.Typing = typing
		if p.peek().Type != lexer.ASSIGN {
			return nil, p.errorf(p.peek(), "expected ':='")
		}
	}

	stmt.Declare = p.advance().Type == lexer.ASSIGN

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI, "expected ';'"); err != nil {
		return nil, err
	}
	stmt.Value = value
	stmt.Position = p.span(nameTok)

	if stmt.Target.IsStatic() && !value.IsStatic() {
		return nil, diag.Errorf(value.Pos(), "can't assign a dynamic value to static variable %s", stmt.Target)
	}
	return stmt, nil
}

func (p *Parser) parseTyping() (ast.Typing, error) {
	tok := p.peek()
	if tok.Type != lexer.IDENTIFIER {
		return ast.TypeUnknown, p.errorf(tok, "invalid type")
	}
	typing, ok := ast.ParseTyping(tok.Value)
	if !ok {
		return ast.TypeUnknown, p.errorf(tok, "invalid type")
	}
	p.advance()
	return typing, nil
}

// parseFunction handles: 'def' name '(' (name (':' typing)?),* ')' block
func (p *Parser) parseFunction() (*ast.FunctionDeclaration, error) {
	start := p.advance() // def

	nameTok := p.peek()
	if !nameTok.IsName() {
		return nil, p.errorf(nameTok, "invalid identifier")
	}
	p.advance()
	if _, err := p.expect(lexer.LPAREN, "expected '('"); err != nil {
		return nil, err
	}

	sig := ast.FunctionSignature{Name: nameOf(nameTok), Args: make([]ast.VariableSignature, 0)}
	seen := make(map[ast.VariableName]bool)
	for p.peek().Type != lexer.RPAREN {
		if len(sig.Args) > 0 {
			if _, err := p.expect(lexer.COMMA, "expected ',' or ')'"); err != nil {
				return nil, err
			}
		}
		argTok := p.peek()
		if !argTok.IsName() {
			return nil, p.errorf(argTok, "invalid identifier")
		}
		p.advance()
		arg := ast.VariableSignature{Name: nameOf(argTok)}
		if sig.Name.IsStatic() && arg.Name.Dynamic {
			return nil, p.errorf(argTok, "can't use dynamic arguments in a macro declaration")
		}
		if seen[arg.Name] {
			return nil, p.errorf(argTok, "duplicate parameter %s", arg.Name)
		}
		seen[arg.Name] = true
		if p.peek().Type == lexer.COLON {
			p.advance()
			typing, err := p.parseTyping()
			if err != nil {
				return nil, err
			}
			arg.Typing = typing
		}
		sig.Args = append(sig.Args, arg)
	}
	p.advance() // )

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	if sig.Name.IsStatic() {
		for _, stmt := range body {
			if !stmt.IsStatic() {
				return nil, diag.Errorf(stmt.Pos(), "can't use dynamic statements in a static function")
			}
		}
	}

	pos := p.span(start)
	fn := &ast.Function{Position: pos, Signature: sig, Body: body}
	return &ast.FunctionDeclaration{Position: pos, Function: fn}, nil
}

// parseReturn handles: 'return' expr ';'
func (p *Parser) parseReturn() (*ast.Return, error) {
	start := p.advance() // return
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI, "expected ';'"); err != nil {
		return nil, err
	}
	return &ast.Return{Position: p.span(start), Value: value}, nil
}

// parseCommand splits a raw command into literal segments and #{...}
// holes. Each hole is lexed in place so its positions point into the
// original source.
func (p *Parser) parseCommand() (*ast.Command, error) {
	tok := p.advance()
	cmd := &ast.Command{Position: p.position(tok), Parts: make([]ast.Interpolation, 0)}

	text := tok.Value
	base := 1 // skip '/'
	for {
		open := strings.Index(text, "#{")
		if open < 0 {
			break
		}
		end := lexer.HoleEnd(text[open+2:])
		if end < 0 {
			// The lexer guarantees holes are closed.
			panic("parser: unterminated interpolation in command token")
		}
		end += open + 2

		holeOffset := base + open
		holePos := ast.Position{
			Offset: tok.Offset + holeOffset,
			Length: end - open + 1,
			Line:   tok.Line,
			Column: tok.Column + holeOffset,
		}
		expr, err := parseHole(text[open+2:end], holePos)
		if err != nil {
			return nil, err
		}
		if !expr.IsStatic() {
			return nil, diag.Errorf(holePos, "can't interpolate a dynamic value in a command")
		}
		cmd.Parts = append(cmd.Parts, ast.Interpolation{Literal: text[:open], Expr: expr})

		base += end + 1
		text = text[end+1:]
	}
	cmd.Tail = text
	return cmd, nil
}

// parseHole parses the inside of #{...} as one full expression.
func parseHole(src string, hole ast.Position) (ast.Expr, error) {
	inner := hole
	inner.Offset += 2
	inner.Column += 2

	tokens, err := lexer.NewAt(src, inner.Offset, inner.Line, inner.Column).Tokenize()
	if err != nil {
		return nil, complete(err)
	}
	sub := New(tokens)
	if sub.atEnd() {
		return nil, diag.Errorf(hole, "invalid expression")
	}
	expr, err := sub.parseExpr()
	if err != nil {
		return nil, complete(err)
	}
	if !sub.atEnd() {
		return nil, diag.Errorf(sub.position(sub.peek()), "invalid expression")
	}
	return expr, nil
}

// complete clears the Incomplete flag: a hole is already closed, so running
// out of tokens inside it is never a sign of unfinished input.
func complete(err error) error {
	var de *diag.Error
	if errors.As(err, &de) {
		de.Incomplete = false
	}
	return err
}
