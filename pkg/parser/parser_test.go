package parser

import (
	"errors"
	"testing"

	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/diag"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}
	return prog
}

func TestParseExpr_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // canonical print of the tree with explicit grouping
	}{
		{"number", "42", "42"},
		{"string", `"hi"`, `"hi"`},
		{"bool", "true", "true"},
		{"static var", "x", "x"},
		{"dynamic var", "$x", "$x"},
		{"sum", "1 + 2", "(1 + 2)"},
		{"product binds tighter", "1 + 2 * 3", "(1 + (2 * 3))"},
		{"sum is right associative", "1 + 2 + 3", "(1 + (2 + 3))"},
		{"product is right associative", "a * b * c", "(a * (b * c))"},
		{"parens", "(1 + 2) * 3", "([(1 + 2)] * 3)"},
		{"call", "$f(1, y)", "$f(1, y)"},
		{"call no args", "$f()", "$f()"},
		{"call in sum", "$f(1) + 2", "($f(1) + 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseExpr(tt.input)
			if err != nil {
				t.Fatalf("ParseExpr() error = %v", err)
			}
			if got := shape(expr); got != tt.want {
				t.Errorf("shape = %s, want %s", got, tt.want)
			}
		})
	}
}

// shape prints an expression with every binary node parenthesised and
// Paren nodes shown as brackets.
func shape(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Sum:
		return "(" + shape(e.Left) + " + " + shape(e.Right) + ")"
	case *ast.Product:
		return "(" + shape(e.Left) + " * " + shape(e.Right) + ")"
	case *ast.Paren:
		return "[" + shape(e.Inner) + "]"
	case *ast.FunctionCall:
		s := e.Name.String() + "("
		for i, a := range e.Args {
			if i > 0 {
				s += ", "
			}
			s += shape(a)
		}
		return s + ")"
	}
	return ast.PrintExpr(e)
}

func TestParseExpr_Positions(t *testing.T) {
	expr, err := ParseExpr("1 + $x * 2")
	if err != nil {
		t.Fatalf("ParseExpr() error = %v", err)
	}
	sum, ok := expr.(*ast.Sum)
	if !ok {
		t.Fatalf("got %T, want *ast.Sum", expr)
	}
	if sum.Pos().Offset != 0 || sum.Pos().Length != 10 {
		t.Errorf("sum position = %+v, want offset 0 length 10", sum.Pos())
	}
	prod := sum.Right.(*ast.Product)
	if prod.Pos().Offset != 4 || prod.Pos().Length != 6 || prod.Pos().Column != 4 {
		t.Errorf("product position = %+v", prod.Pos())
	}
}

func TestParse_Statements(t *testing.T) {
	prog := mustParse(t, `
pack_format := 48;
$count: int := 0;
$count = $count + 1;
def $tick() { /say tick }
$tick();
/say done
`)
	if len(prog.Statements) != 6 {
		t.Fatalf("got %d statements, want 6", len(prog.Statements))
	}

	decl := prog.Statements[0].(*ast.VariableAssignment)
	if decl.Target != ast.Static("pack_format") || !decl.Declare || decl.Typing != ast.TypeUnknown {
		t.Errorf("statement 0 = %+v", decl)
	}

	typed := prog.Statements[1].(*ast.VariableAssignment)
	if typed.Target != ast.Dynamic("count") || typed.Typing != ast.TypeInteger || !typed.Declare {
		t.Errorf("statement 1 = %+v", typed)
	}

	reassign := prog.Statements[2].(*ast.VariableAssignment)
	if reassign.Declare {
		t.Error("statement 2 should be a reassignment")
	}

	fn := prog.Statements[3].(*ast.FunctionDeclaration)
	if fn.Function.Signature.Name != ast.Dynamic("tick") || len(fn.Function.Body) != 1 {
		t.Errorf("statement 3 = %+v", fn.Function)
	}

	if _, ok := prog.Statements[4].(*ast.FunctionCall); !ok {
		t.Errorf("statement 4 = %T, want *ast.FunctionCall", prog.Statements[4])
	}

	cmd := prog.Statements[5].(*ast.Command)
	if cmd.Tail != "say done" || len(cmd.Parts) != 0 {
		t.Errorf("statement 5 = %+v", cmd)
	}
}

// TestParse_ElseIfNesting checks that a chain of N conditions becomes N-1
// nested ElseIf levels ending in one else block.
func TestParse_ElseIfNesting(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		depth   int
		hasElse bool
	}{
		{"if only", "if true { /a }", 0, false},
		{"if else", "if true { /a } else { /b }", 0, true},
		{"one else if", "if $a { /a } else if $b { /b }", 1, false},
		{"chain of four", "if $a { /a } else if $b { /b } else if $c { /c } else if $d { /d } else { /e }", 3, true},
		{"empty else", "if $a { /a } else {}", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustParse(t, tt.input)
			stmt := prog.Statements[0].(*ast.IfStatement)
			depth := 0
			for stmt.ElseIf != nil {
				if stmt.Else != nil {
					t.Fatal("ElseIf and Else both set on one level")
				}
				stmt = stmt.ElseIf
				depth++
			}
			if depth != tt.depth {
				t.Errorf("depth = %d, want %d", depth, tt.depth)
			}
			if (stmt.Else != nil) != tt.hasElse {
				t.Errorf("has else = %v, want %v", stmt.Else != nil, tt.hasElse)
			}
		})
	}
}

func TestParse_CommandInterpolation(t *testing.T) {
	prog := mustParse(t, `/say #{1+2} and #{"x"} end`)
	cmd := prog.Statements[0].(*ast.Command)
	if len(cmd.Parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(cmd.Parts))
	}
	if cmd.Parts[0].Literal != "say " || cmd.Parts[1].Literal != " and " || cmd.Tail != " end" {
		t.Errorf("segments = %q %q %q", cmd.Parts[0].Literal, cmd.Parts[1].Literal, cmd.Tail)
	}
	// "/say " puts the first hole's expression at column 7.
	if col := cmd.Parts[0].Expr.Pos().Column; col != 7 {
		t.Errorf("hole expression column = %d, want 7", col)
	}
	if off := cmd.Parts[1].Expr.Pos().Offset; off != 18 {
		t.Errorf("second hole offset = %d, want 18", off)
	}
}

func TestParse_BraceInHoleString(t *testing.T) {
	prog := mustParse(t, `/say #{"}"} then #{"{"}`)
	cmd := prog.Statements[0].(*ast.Command)
	if len(cmd.Parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(cmd.Parts))
	}
	for i, want := range []string{"}", "{"} {
		lit, ok := cmd.Parts[i].Expr.(*ast.StringLit)
		if !ok || lit.Value != want {
			t.Errorf("part %d = %#v, want string %q", i, cmd.Parts[i].Expr, want)
		}
	}
	if cmd.Parts[1].Literal != " then " || cmd.Tail != "" {
		t.Errorf("segments = %q %q", cmd.Parts[1].Literal, cmd.Tail)
	}
}

func TestParse_FunctionSignature(t *testing.T) {
	prog := mustParse(t, `def $f(n: int, $s: string, flag) { return $s; }`)
	sig := prog.Statements[0].(*ast.FunctionDeclaration).Function.Signature
	want := []ast.VariableSignature{
		{Name: ast.Static("n"), Typing: ast.TypeInteger},
		{Name: ast.Dynamic("s"), Typing: ast.TypeString},
		{Name: ast.Static("flag")},
	}
	if len(sig.Args) != len(want) {
		t.Fatalf("got %d args, want %d", len(sig.Args), len(want))
	}
	for i := range want {
		if sig.Args[i] != want[i] {
			t.Errorf("arg %d = %+v, want %+v", i, sig.Args[i], want[i])
		}
	}
	if sig.IsStatic() || sig.StaticParams() != 2 {
		t.Errorf("IsStatic = %v, StaticParams = %d", sig.IsStatic(), sig.StaticParams())
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantMsg    string
		wantLine   int
		wantCol    int
		incomplete bool
	}{
		{"invalid expression", "x := ;", "invalid expression", 1, 5, false},
		{"invalid type", "x: float := 1;", "invalid type", 1, 3, false},
		{"missing semicolon", "x := 1", "expected ';'", 1, 6, true},
		{"unclosed block", "if true {\n/say a\n", "expected '}'", 3, 0, true},
		{"invalid identifier after def", "def 1() {}", "invalid identifier", 1, 4, false},
		{"integer out of range", "x := 2147483648;", "integer literal out of range", 1, 5, false},
		{"stray close brace", "}", "unexpected '}'", 1, 0, false},
		{"bare name", "x;", "expected ':=', '=' or '(' after x", 1, 1, false},
		{"static from dynamic", "$a := 1;\nx := $a + 1;", "can't assign a dynamic value to static variable x", 2, 5, false},
		{"dynamic macro argument", "def f(a, $b) {}", "can't use dynamic arguments in a macro declaration", 1, 9, false},
		{"dynamic statement in macro", "def f() {\n  $x := 1;\n}", "can't use dynamic statements in a static function", 2, 2, false},
		{"dynamic interpolation", "$x := 1; /say #{$x}", "can't interpolate a dynamic value in a command", 1, 14, false},
		{"static call with dynamic argument", "f($x);", "can't call a static function with dynamic arguments", 1, 2, false},
		{"empty hole", "/say #{}", "invalid expression", 1, 5, false},
		{"trailing tokens in hole", "/say #{1 2}", "invalid expression", 1, 9, false},
		{"duplicate parameter", "def $f(a, a) {}", "duplicate parameter a", 1, 10, false},
		{"unclosed call", "$f(1,", "invalid expression", 1, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var de *diag.Error
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not *diag.Error", err)
			}
			if de.Msg != tt.wantMsg {
				t.Errorf("Msg = %q, want %q", de.Msg, tt.wantMsg)
			}
			if de.Pos.Line != tt.wantLine || de.Pos.Column != tt.wantCol {
				t.Errorf("position = %d:%d, want %d:%d", de.Pos.Line, de.Pos.Column, tt.wantLine, tt.wantCol)
			}
			if de.Incomplete != tt.incomplete {
				t.Errorf("Incomplete = %v, want %v", de.Incomplete, tt.incomplete)
			}
		})
	}
}

// TestPrintRoundTrip checks that printing a parsed program and parsing the
// result again is stable.
func TestPrintRoundTrip(t *testing.T) {
	inputs := []string{
		`pack_format := 48; pack_description := "demo";`,
		`$x: int := 3 * one + 2; $x = ($x + 1) * 2;`,
		`if $a { /say a } else if $b { /say b } else if c { /say c } else { /say #{1 + 2} done }`,
		`def double(n: int) { return n * 2; } def $hello($who: string, times) { /say hi #{times} }`,
		`$hello("bob", 3); /tellraw @a {"text":"x"}`,
		`s := "quote \" and \\ slash";`,
		`if true { if false { /say a } }`,
	}

	for _, input := range inputs {
		first := ast.Print(mustParse(t, input))
		second := ast.Print(mustParse(t, first))
		if first != second {
			t.Errorf("round trip unstable for %q:\nfirst:\n%s\nsecond:\n%s", input, first, second)
		}
	}
}
