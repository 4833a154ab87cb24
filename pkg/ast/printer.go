package ast

import (
	"strconv"
	"strings"
)

// Print renders a program back to canonical quill source. Printing the
// result of parsing Print's output yields the same text.
func Print(p *Program) string {
	var pr printer
	pr.block(p.Statements)
	return pr.b.String()
}

// PrintExpr renders a single expression.
func PrintExpr(e Expr) string {
	var pr printer
	pr.expr(e)
	return pr.b.String()
}

type printer struct {
	b      strings.Builder
	indent int
}

func (pr *printer) line(s string) {
	pr.b.WriteString(strings.Repeat("  ", pr.indent))
	pr.b.WriteString(s)
	pr.b.WriteByte('\n')
}

func (pr *printer) block(b Block) {
	for _, s := range b {
		pr.stmt(s)
	}
}

func (pr *printer) braced(b Block) {
	pr.b.WriteString("{\n")
	pr.indent++
	pr.block(b)
	pr.indent--
	pr.b.WriteString(strings.Repeat("  ", pr.indent))
	pr.b.WriteString("}")
}

func (pr *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *Command:
		var b strings.Builder
		b.WriteByte('/')
		for _, part := range s.Parts {
			b.WriteString(part.Literal)
			b.WriteString("#{")
			b.WriteString(PrintExpr(part.Expr))
			b.WriteString("}")
		}
		b.WriteString(s.Tail)
		pr.line(b.String())

	case *IfStatement:
		pr.b.WriteString(strings.Repeat("  ", pr.indent))
		pr.ifChain(s)
		pr.b.WriteByte('\n')

	case *VariableAssignment:
		op := " = "
		if s.Declare {
			op = " := "
		}
		target := s.Target.String()
		if s.Typing != TypeUnknown {
			target += ": " + s.Typing.String()
		}
		pr.line(target + op + PrintExpr(s.Value) + ";")

	case *FunctionDeclaration:
		pr.b.WriteString(strings.Repeat("  ", pr.indent))
		pr.b.WriteString("def ")
		pr.b.WriteString(signatureSource(s.Function.Signature))
		pr.b.WriteByte(' ')
		pr.braced(s.Function.Body)
		pr.b.WriteByte('\n')

	case *FunctionCall:
		pr.line(PrintExpr(s) + ";")

	case *Return:
		pr.line("return " + PrintExpr(s.Value) + ";")
	}
}

func (pr *printer) ifChain(s *IfStatement) {
	pr.b.WriteString("if ")
	pr.expr(s.Condition)
	pr.b.WriteByte(' ')
	pr.braced(s.Then)
	switch {
	case s.ElseIf != nil:
		pr.b.WriteString(" else ")
		pr.ifChain(s.ElseIf)
	case s.Else != nil:
		pr.b.WriteString(" else ")
		pr.braced(s.Else)
	}
}

func signatureSource(sig FunctionSignature) string {
	args := make([]string, len(sig.Args))
	for i, a := range sig.Args {
		args[i] = a.Name.String()
		if a.Typing != TypeUnknown {
			args[i] += ": " + a.Typing.String()
		}
	}
	return sig.Name.String() + "(" + strings.Join(args, ", ") + ")"
}

func (pr *printer) expr(e Expr) {
	switch e := e.(type) {
	case *Sum:
		pr.expr(e.Left)
		pr.b.WriteString(" + ")
		pr.expr(e.Right)
	case *Product:
		pr.expr(e.Left)
		pr.b.WriteString(" * ")
		pr.expr(e.Right)
	case *NumberLit:
		pr.b.WriteString(strconv.FormatInt(int64(e.Value), 10))
	case *StringLit:
		pr.b.WriteString(quote(e.Value))
	case *BoolLit:
		pr.b.WriteString(strconv.FormatBool(e.Value))
	case *VarRef:
		pr.b.WriteString(e.Name.String())
	case *Paren:
		pr.b.WriteByte('(')
		pr.expr(e.Inner)
		pr.b.WriteByte(')')
	case *FunctionCall:
		pr.b.WriteString(e.Name.String())
		pr.b.WriteByte('(')
		for i, a := range e.Args {
			if i > 0 {
				pr.b.WriteString(", ")
			}
			pr.expr(a)
		}
		pr.b.WriteByte(')')
	}
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}
