// Package codegen lowers a quill syntax tree into datapack function files.
//
// Static values are folded at compile time and only ever appear in the
// output as literals. Dynamic values live in command storage: a value
// stack for temporaries and a frame stack for variables. Every branch body
// and every dynamic function body is written to its own numbered file.
package codegen

import (
	"fmt"
	"strconv"

	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/scope"
)

// maxDepth bounds nested macro expansion and function specialization.
const maxDepth = 64

// Result contains the generated files and any warnings.
type Result struct {
	// Files maps a file name to its commands, one per line.
	Files map[string][]string

	// Order lists file names in creation order. The root file comes first.
	Order []string

	Warnings []string

	// Statics holds the compile-time variables of the root scope as they
	// stood at the end of the program.
	Statics map[ast.VariableName]ast.Value
}

// Root returns the name of the file holding the top-level program.
func (r *Result) Root() string {
	return r.Order[0]
}

// PackMeta returns the pack_format and pack_description variables, which
// every program must set at top level.
func (r *Result) PackMeta() (int32, string, error) {
	format, ok := r.Statics[ast.Static("pack_format")]
	if !ok {
		return 0, "", fmt.Errorf("variable `pack_format` isn't set to any value")
	}
	if format.Type != ast.TypeInteger {
		return 0, "", fmt.Errorf("variable `pack_format` must be an int, got %s", format.Type)
	}
	desc, ok := r.Statics[ast.Static("pack_description")]
	if !ok {
		return 0, "", fmt.Errorf("variable `pack_description` isn't set to any value")
	}
	if desc.Type != ast.TypeString {
		return 0, "", fmt.Errorf("variable `pack_description` must be a string, got %s", desc.Type)
	}
	return format.Int, desc.Str, nil
}

// Generate produces the function files for prog. The static variable
// namespace is bound to ns before the first statement.
func Generate(prog *ast.Program, ns string) (*Result, error) {
	g := newGenerator(ns)
	statics, err := g.generateProgram(prog)
	if err != nil {
		return nil, err
	}
	return &Result{
		Files:    g.files,
		Order:    g.order,
		Warnings: g.warnings,
		Statics:  statics,
	}, nil
}

type generator struct {
	ns string

	files     map[string][]string
	order     []string
	fileStack []string
	counter   int

	scopes *scope.Stack

	// ret is where return statements deliver their value.
	ret *returnTarget

	// depth counts nested macro expansions and specializations.
	depth int

	warnings []string
}

// returnTarget receives the value of return statements. A macro folds its
// return value; a dynamic function stores it in runtime storage.
type returnTarget struct {
	macro bool
	name  string
	file  string // macros: the file the top level of the body writes to
	value ast.Value
	set   bool
}

func newGenerator(ns string) *generator {
	return &generator{
		ns:      ns,
		files:   make(map[string][]string),
		counter: -1,
		scopes:  scope.New(),
	}
}

func (g *generator) generateProgram(prog *ast.Program) (map[ast.VariableName]ast.Value, error) {
	var statics map[ast.VariableName]ast.Value
	_, err := g.withFile(func() error {
		root := g.scopes.Push(scope.Root, true, g.currentFile())
		defer g.popScope()

		g.scopes.DeclareStatic(ast.Static("namespace"), ast.StringValue(g.ns), g.currentFile())
		if err := g.generateBlock(prog.Statements); err != nil {
			return err
		}
		statics = root.Statics()
		return nil
	})
	return statics, err
}

// === Files ===

// newFile mints a file name and creates an empty file for it.
func (g *generator) newFile() string {
	g.counter++
	name := strconv.Itoa(g.counter)
	g.files[name] = []string{}
	g.order = append(g.order, name)
	return name
}

// withFile runs fn with a fresh file as the write target.
func (g *generator) withFile(fn func() error) (string, error) {
	name := g.newFile()
	return name, g.withExistingFile(name, fn)
}

// withExistingFile runs fn with name as the write target. The file stack
// is restored on every exit path.
func (g *generator) withExistingFile(name string, fn func() error) error {
	g.fileStack = append(g.fileStack, name)
	defer func() {
		g.fileStack = g.fileStack[:len(g.fileStack)-1]
	}()
	return fn()
}

func (g *generator) currentFile() string {
	if len(g.fileStack) == 0 {
		panic("codegen: write with no active file")
	}
	return g.fileStack[len(g.fileStack)-1]
}

// write appends one command to the active file.
func (g *generator) write(cmd string) {
	name := g.currentFile()
	g.files[name] = append(g.files[name], cmd)
}

// === Scopes ===

// withScope runs fn inside a new scope. Block scopes allocate their frame
// on entry and free it on exit; a function's frame is allocated by its
// caller; comptime scopes have none.
func (g *generator) withScope(kind scope.Kind, fn func() error) error {
	frame := kind != scope.Comptime
	g.scopes.Push(kind, frame, g.currentFile())
	defer g.popScope()

	if kind == scope.Block {
		g.write(g.allocFrame())
	}
	if err := fn(); err != nil {
		return err
	}
	if kind == scope.Block {
		g.write(g.freeFrame())
	}
	return nil
}

func (g *generator) popScope() {
	sc := g.scopes.Pop()
	for _, e := range sc.Functions() {
		if !e.Function.IsStatic() && e.Calls == 0 {
			g.warn(e.Function.Position, "function %s is declared but never called", e.Function.Signature)
		}
	}
}

func (g *generator) warn(pos ast.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	g.warnings = append(g.warnings, fmt.Sprintf("%d:%d: %s", pos.Line, pos.Column+1, msg))
}
