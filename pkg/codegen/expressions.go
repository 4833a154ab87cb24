package codegen

import (
	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/diag"
)

// generateExpr emits commands that leave the value of e on top of the
// stack. A static expression is folded first and pushed as one literal.
func (g *generator) generateExpr(e ast.Expr) error {
	if e.IsStatic() {
		v, err := g.fold(e)
		if err != nil {
			return err
		}
		g.write(g.pushValue(v))
		return nil
	}

	switch e := e.(type) {
	case *ast.VarRef:
		path, _, err := g.scopes.RuntimePath(e.Name, e.Position)
		if err != nil {
			return err
		}
		g.write(g.pushFrom(path))
		return nil

	case *ast.Paren:
		return g.generateExpr(e.Inner)

	case *ast.Sum:
		return g.generateArithmetic(e.Left, e.Right, "+=", e.Position)

	case *ast.Product:
		return g.generateArithmetic(e.Left, e.Right, "*=", e.Position)

	case *ast.FunctionCall:
		return g.generateCall(e, true)
	}
	panic("codegen: unexpected dynamic expression")
}

// generateArithmetic pushes both operands, moves them into the score
// registers, pops them and pushes the result.
func (g *generator) generateArithmetic(left, right ast.Expr, op string, pos ast.Position) error {
	if g.typingOf(left) == ast.TypeString || g.typingOf(right) == ast.TypeString {
		return diag.Errorf(pos, "can't do arithmetic on strings at runtime")
	}
	if err := g.generateExpr(left); err != nil {
		return err
	}
	if err := g.generateExpr(right); err != nil {
		return err
	}
	g.write(g.load(regLeft, -2))
	g.write(g.load(regRight, -1))
	g.write(g.pop())
	g.write(g.pop())
	g.write(g.operate(op))
	for _, cmd := range g.pushLeft() {
		g.write(cmd)
	}
	return nil
}

// fold reduces a static expression to a value. Integer arithmetic wraps
// at 32 bits like scoreboard arithmetic does. Folding a static call
// expands the macro, which may emit commands of its own.
func (g *generator) fold(e ast.Expr) (ast.Value, error) {
	if !e.IsStatic() {
		panic("codegen: fold called on a dynamic expression")
	}

	switch e := e.(type) {
	case *ast.NumberLit:
		return ast.IntValue(e.Value), nil
	case *ast.StringLit:
		return ast.StringValue(e.Value), nil
	case *ast.BoolLit:
		return ast.BoolValue(e.Value), nil
	case *ast.Paren:
		return g.fold(e.Inner)
	case *ast.VarRef:
		return g.scopes.LookupStatic(e.Name, e.Position)

	case *ast.Sum:
		l, r, err := g.foldOperands(e.Left, e.Right)
		if err != nil {
			return ast.Value{}, err
		}
		switch {
		case l.Type == ast.TypeInteger && r.Type == ast.TypeInteger:
			return ast.IntValue(l.Int + r.Int), nil
		case l.Type == ast.TypeString && r.Type == ast.TypeString:
			return ast.StringValue(l.Str + r.Str), nil
		}
		return ast.Value{}, diag.Errorf(e.Position, "can't add %s and %s", l.Type, r.Type)

	case *ast.Product:
		l, r, err := g.foldOperands(e.Left, e.Right)
		if err != nil {
			return ast.Value{}, err
		}
		if l.Type == ast.TypeInteger && r.Type == ast.TypeInteger {
			return ast.IntValue(l.Int * r.Int), nil
		}
		return ast.Value{}, diag.Errorf(e.Position, "can't multiply %s and %s", l.Type, r.Type)

	case *ast.FunctionCall:
		v, ok, err := g.expandMacro(e)
		if err != nil {
			return ast.Value{}, err
		}
		if !ok {
			return ast.Value{}, diag.Errorf(e.Position, "macro %s doesn't return a value", e.Name)
		}
		return v, nil
	}
	panic("codegen: unexpected static expression")
}

func (g *generator) foldOperands(left, right ast.Expr) (ast.Value, ast.Value, error) {
	l, err := g.fold(left)
	if err != nil {
		return ast.Value{}, ast.Value{}, err
	}
	r, err := g.fold(right)
	if err != nil {
		return ast.Value{}, ast.Value{}, err
	}
	return l, r, nil
}

// typingOf reports what is known about the type of e without emitting
// anything: declared typings of variables and the structure of literals.
func (g *generator) typingOf(e ast.Expr) ast.Typing {
	switch e := e.(type) {
	case *ast.VarRef:
		if e.Name.IsStatic() {
			v, err := g.scopes.LookupStatic(e.Name, e.Position)
			if err != nil {
				return ast.TypeUnknown
			}
			return v.Type
		}
		_, typing, err := g.scopes.RuntimePath(e.Name, e.Position)
		if err != nil {
			return ast.TypeUnknown
		}
		return typing
	case *ast.Paren:
		return g.typingOf(e.Inner)
	}
	return ast.InferTyping(e)
}
