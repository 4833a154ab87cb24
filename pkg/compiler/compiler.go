// Package compiler is the entry point that turns quill source into a
// datapack: parse, generate, assemble, write.
package compiler

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/codegen"
	"github.com/chazu/quill/pkg/datapack"
	"github.com/chazu/quill/pkg/parser"
)

//go:embed prelude.ql
var prelude string

// DefaultNamespace is used when Options leaves Namespace empty.
const DefaultNamespace = "quill"

// Options configures a compilation.
type Options struct {
	// OutDir is the directory the datapack is written to.
	OutDir string

	// Namespace scopes every function and storage name of the pack.
	Namespace string
}

// Output is a compiled pack and the warnings raised while compiling it.
type Output struct {
	Pack     *datapack.Pack
	Warnings []string
}

var namespacePattern = regexp.MustCompile(`^[a-z0-9_.-]+$`)

// ValidateNamespace checks that ns is usable as a datapack namespace.
func ValidateNamespace(ns string) error {
	if !namespacePattern.MatchString(ns) {
		return fmt.Errorf("invalid namespace %q: only [a-z0-9_.-] are allowed", ns)
	}
	return nil
}

// Build compiles src in memory. Nothing is written.
func Build(src, ns string) (*Output, error) {
	if ns == "" {
		ns = DefaultNamespace
	}
	if err := ValidateNamespace(ns); err != nil {
		return nil, err
	}

	prog, err := Parse(src)
	if err != nil {
		return nil, err
	}
	res, err := codegen.Generate(prog, ns)
	if err != nil {
		return nil, err
	}
	pack, err := datapack.New(ns, res)
	if err != nil {
		return nil, err
	}
	return &Output{Pack: pack, Warnings: res.Warnings}, nil
}

// Compile compiles src and writes the pack to opts.OutDir. Nothing is
// written when compilation fails.
func Compile(src string, opts Options) (*Output, error) {
	if opts.OutDir == "" {
		return nil, fmt.Errorf("no output directory given")
	}
	out, err := Build(src, opts.Namespace)
	if err != nil {
		return nil, err
	}
	if err := out.Pack.Write(opts.OutDir); err != nil {
		return nil, err
	}
	return out, nil
}

// Parse parses src and prepends the runtime prelude. Positions in the
// returned program refer to src; the prelude is parsed on its own.
func Parse(src string) (*ast.Program, error) {
	pre, err := parser.Parse(prelude)
	if err != nil {
		panic(fmt.Sprintf("compiler: prelude does not parse: %v", err))
	}
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}

	stmts := make(ast.Block, 0, len(pre.Statements)+len(prog.Statements))
	stmts = append(stmts, pre.Statements...)
	stmts = append(stmts, prog.Statements...)
	return &ast.Program{Statements: stmts, End: prog.End}, nil
}
