// Package main provides a CLI tool for inspecting each stage of the quill
// compiler.
//
// Usage:
//
//	quill-inspect tokenize <file.ql>    # Output JSON tokens
//	quill-inspect parse <file.ql>       # Output the program as canonical source
//	quill-inspect files <file.ql>       # Output every generated function file
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/compiler"
	"github.com/chazu/quill/pkg/diag"
	"github.com/chazu/quill/pkg/lexer"
	"github.com/chazu/quill/pkg/parser"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var run func(string) error
	switch command {
	case "tokenize":
		run = cmdTokenize
	case "parse":
		run = cmdParse
	case "files":
		run = cmdFiles
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}

	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Error: missing file argument")
		printUsage()
		os.Exit(1)
	}
	if err := run(os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`quill-inspect - Inspect the stages of the quill compiler

Usage:
  quill-inspect tokenize <file.ql>    Output JSON tokens
  quill-inspect parse <file.ql>       Output the parsed program as canonical source
  quill-inspect files <file.ql>       Output every generated function file
  quill-inspect help                  Show this help message

Examples:
  quill-inspect tokenize counter.ql | jq .
  quill-inspect parse counter.ql
  quill-inspect files counter.ql`)
}

func readSource(filename string) (string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(content), nil
}

// cmdTokenize reads a file and outputs JSON tokens.
func cmdTokenize(filename string) error {
	src, err := readSource(filename)
	if err != nil {
		return err
	}

	jsonOutput, err := lexer.New(src).TokenizeJSON()
	if err != nil {
		return fmt.Errorf("tokenizing:\n%s", diag.Format(err, src, false))
	}

	fmt.Println(jsonOutput)
	return nil
}

// cmdParse reads a file, parses it, and prints it back. Each top-level
// statement is annotated with its staticness.
func cmdParse(filename string) error {
	src, err := readSource(filename)
	if err != nil {
		return err
	}

	prog, err := parser.Parse(src)
	if err != nil {
		return fmt.Errorf("parsing:\n%s", diag.Format(err, src, false))
	}

	for _, stmt := range prog.Statements {
		kind := "dynamic"
		if stmt.IsStatic() {
			kind = "static"
		}
		pos := stmt.Pos()
		text := ast.Print(&ast.Program{Statements: ast.Block{stmt}})
		fmt.Printf("# %d:%d %s\n%s", pos.Line, pos.Column+1, kind, text)
	}
	return nil
}

// cmdFiles compiles a file, runtime prelude included, and outputs each
// generated function.
func cmdFiles(filename string) error {
	src, err := readSource(filename)
	if err != nil {
		return err
	}

	out, err := compiler.Build(src, compiler.DefaultNamespace)
	if err != nil {
		return fmt.Errorf("compiling:\n%s", diag.Format(err, src, false))
	}

	for _, w := range out.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	for _, name := range out.Pack.Order {
		fmt.Printf("== %s\n", out.Pack.FunctionPath(name))
		if lines := out.Pack.Functions[name]; len(lines) > 0 {
			fmt.Println(strings.Join(lines, "\n"))
		}
	}
	return nil
}
