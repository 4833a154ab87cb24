// Quill - compiles .ql programs into Minecraft datapacks.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/quill/pkg/compiler"
	"github.com/chazu/quill/pkg/diag"
)

var (
	outDir    = flag.String("o", "out", "directory the datapack is written to")
	namespace = flag.String("namespace", compiler.DefaultNamespace, "datapack namespace")
	emit      = flag.String("emit", "datapack", "output kind: datapack (write -o), go (Go source on stdout) or stdout (function files on stdout)")
	goPackage = flag.String("go-package", "pack", "package name for -emit go")
	dryRun    = flag.Bool("dry-run", false, "compile and report without writing anything")
	verbose   = flag.Bool("v", false, "print per-file statistics")
	color     = flag.Bool("color", true, "colorize diagnostics")
	repl      = flag.Bool("repl", false, "start an interactive session")
	version   = flag.Bool("version", false, "print version and exit")
)

const versionStr = "0.3.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Quill - a small language that compiles to Minecraft datapacks\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  quill [options] program.ql\n")
		fmt.Fprintf(os.Stderr, "  quill [options] < program.ql\n")
		fmt.Fprintf(os.Stderr, "  quill -repl\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("quill version %s\n", versionStr)
		os.Exit(0)
	}

	if err := compiler.ValidateNamespace(*namespace); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if *repl {
		os.Exit(runRepl(*namespace))
	}

	src, name, err := readInput(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
	if len(src) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no input provided\n")
		fmt.Fprintf(os.Stderr, "Usage: quill program.ql\n")
		os.Exit(1)
	}

	out, err := compiler.Build(src, *namespace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", name, diag.Format(err, src, *color))
		os.Exit(1)
	}

	for _, w := range out.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	if *verbose {
		for _, fn := range out.Pack.Order {
			fmt.Fprintf(os.Stderr, "  %s:%s - %d command(s)\n", out.Pack.Namespace, fn, len(out.Pack.Functions[fn]))
		}
		stats := out.Pack.Stats()
		fmt.Fprintf(os.Stderr, "\nGenerated %d function(s), %d command(s).\n\n", stats.Functions, stats.Commands)
	}

	if *dryRun {
		entries, err := out.Pack.Entries()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Dry run - would write %d file(s) to %s\n", len(entries), *outDir)
		os.Exit(0)
	}

	switch *emit {
	case "datapack":
		if err := out.Pack.Write(*outDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "go":
		code, err := out.Pack.GoSource(*goPackage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(code)
	case "stdout":
		entries, err := out.Pack.Entries()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, e := range entries {
			fmt.Printf("# %s\n%s\n", e.Path, e.Content)
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown emit kind %q (use 'datapack', 'go' or 'stdout')\n", *emit)
		os.Exit(2)
	}
}

// readInput reads the program from the first argument, or from stdin when
// there is none.
func readInput(args []string) (src, name string, err error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		return string(data), "<stdin>", err
	}
	data, err := os.ReadFile(args[0])
	return string(data), filepath.Base(args[0]), err
}
