package codegen

import (
	"strings"

	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/diag"
	"github.com/chazu/quill/pkg/scope"
)

// generateBlock generates a block in two phases. The first registers every
// function declared directly in the block and generates the bodies of
// dynamic functions without static parameters, so calls that appear
// before a declaration still resolve. At the root it also hoists runtime
// variable declarations for those bodies. The second emits the statements
// in order.
func (g *generator) generateBlock(block ast.Block) error {
	root := g.scopes.Top().Kind == scope.Root
	var eager []*scope.Entry
	for _, stmt := range block {
		if a, ok := stmt.(*ast.VariableAssignment); ok && root && a.Declare && !a.Target.IsStatic() {
			g.scopes.HoistRuntime(a.Target, a.Typing)
			continue
		}
		decl, ok := stmt.(*ast.FunctionDeclaration)
		if !ok {
			continue
		}
		entry, err := g.scopes.RegisterFunction(decl.Function)
		if err != nil {
			return err
		}
		sig := decl.Function.Signature
		if !sig.IsStatic() && sig.StaticParams() == 0 {
			entry.File = g.newFile()
			eager = append(eager, entry)
		}
	}
	// File names are reserved before any body is generated so that the
	// bodies can call each other.
	for _, entry := range eager {
		if err := g.generateFunctionBody(entry, entry.File, nil); err != nil {
			return err
		}
	}

	for _, stmt := range block {
		if err := g.generateStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) generateStatement(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Command:
		return g.generateCommand(s)
	case *ast.IfStatement:
		return g.generateIf(s)
	case *ast.VariableAssignment:
		return g.generateAssignment(s)
	case *ast.FunctionDeclaration:
		// Registered by generateBlock.
		return nil
	case *ast.FunctionCall:
		return g.generateCall(s, false)
	case *ast.Return:
		return g.generateReturn(s)
	}
	panic("codegen: unknown statement type")
}

// generateCommand folds each interpolation hole and writes the line.
// A folded value must not break the line.
func (g *generator) generateCommand(cmd *ast.Command) error {
	var b strings.Builder
	for _, part := range cmd.Parts {
		v, err := g.fold(part.Expr)
		if err != nil {
			return err
		}
		if strings.ContainsAny(v.Str, "\n\r") {
			return diag.Errorf(part.Expr.Pos(), "can't interpolate a string containing a line break into a command")
		}
		b.WriteString(part.Literal)
		b.WriteString(v.String())
	}
	b.WriteString(cmd.Tail)
	g.write(b.String())
	return nil
}

// generateIf evaluates the condition onto the stack, links each branch
// file behind a guard on it, and pops it. The condition is reloaded into
// the scratch score before every guard because a branch may overwrite it.
func (g *generator) generateIf(s *ast.IfStatement) error {
	if err := g.generateExpr(s.Condition); err != nil {
		return err
	}

	then, err := g.generateBranch(s.Then)
	if err != nil {
		return err
	}
	g.write(g.loadCond())
	g.write(g.runIf(then))

	var other string
	switch {
	case s.ElseIf != nil:
		other, err = g.withFile(func() error {
			return g.generateIf(s.ElseIf)
		})
	case s.Else != nil:
		other, err = g.generateBranch(s.Else)
	}
	if err != nil {
		return err
	}
	if other != "" {
		g.write(g.loadCond())
		g.write(g.runUnless(other))
	}

	g.write(g.pop())
	return nil
}

// generateBranch writes block to its own file, inside a scope with a
// runtime frame when the block declares anything.
func (g *generator) generateBranch(block ast.Block) (string, error) {
	return g.withFile(func() error {
		if block.RequiresScope() {
			return g.withScope(scope.Block, func() error {
				return g.generateBlock(block)
			})
		}
		return g.generateBlock(block)
	})
}

func (g *generator) generateAssignment(s *ast.VariableAssignment) error {
	if s.Target.IsStatic() {
		return g.assignStatic(s)
	}
	return g.assignRuntime(s)
}

func (g *generator) assignStatic(s *ast.VariableAssignment) error {
	v, err := g.fold(s.Value)
	if err != nil {
		return err
	}
	g.checkTyping(s, v.Type)
	if s.Declare {
		g.scopes.DeclareStatic(s.Target, v, g.currentFile())
		return nil
	}
	return g.scopes.ReassignStatic(s.Target, v, g.currentFile(), s.Position)
}

// assignRuntime stores a value into a variable's frame slot. A static value
// is folded and stored with a single command. The value is generated
// before a declaration takes effect, so `$x := $x + 1` reads the outer $x.
func (g *generator) assignRuntime(s *ast.VariableAssignment) error {
	var (
		folded ast.Value
		static = s.Value.IsStatic()
	)
	if static {
		v, err := g.fold(s.Value)
		if err != nil {
			return err
		}
		folded = v
		g.checkTyping(s, v.Type)
	} else {
		if err := g.generateExpr(s.Value); err != nil {
			return err
		}
		g.checkTyping(s, g.typingOf(s.Value))
	}

	if s.Declare {
		g.scopes.DeclareRuntime(s.Target, s.Typing)
	}
	path, _, err := g.scopes.RuntimePath(s.Target, s.Position)
	if err != nil {
		return err
	}

	if static {
		g.write(g.storeValue(path, folded))
		return nil
	}
	g.write(g.storeTop(path))
	g.write(g.pop())
	return nil
}

// checkTyping warns when an annotation disagrees with the value's type.
func (g *generator) checkTyping(s *ast.VariableAssignment, got ast.Typing) {
	if s.Typing == ast.TypeUnknown || got == ast.TypeUnknown || s.Typing == got {
		return
	}
	g.warn(s.Value.Pos(), "%s is declared %s but assigned a %s", s.Target, s.Typing, got)
}

// generateReturn delivers a value to the enclosing function. Execution is
// not interrupted; the last return executed wins.
func (g *generator) generateReturn(s *ast.Return) error {
	target := g.ret
	if target == nil {
		return diag.Errorf(s.Position, "return outside of a function")
	}

	if target.macro {
		if g.currentFile() != target.file {
			return diag.Errorf(s.Position, "return in macro %s must be at the top level of its body", target.name)
		}
		v, err := g.fold(s.Value)
		if err != nil {
			return err
		}
		target.value, target.set = v, true
		return nil
	}

	if s.Value.IsStatic() {
		v, err := g.fold(s.Value)
		if err != nil {
			return err
		}
		g.write(g.storeReturnValue(v))
		return nil
	}
	if err := g.generateExpr(s.Value); err != nil {
		return err
	}
	g.write(g.storeReturnTop())
	g.write(g.pop())
	return nil
}
