package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/chazu/quill/pkg/codegen"
	"github.com/chazu/quill/pkg/compiler"
	"github.com/chazu/quill/pkg/diag"
	"github.com/chazu/quill/pkg/parser"
)

const (
	historyFile = ".quill_history"
	promptMain  = "ql> "
	promptCont  = "... "
)

var banner = fmt.Sprintf("quill %s\nCtrl+C cancels input, Ctrl+D exits. Commands: :files :source :reset :quit", versionStr)

func dim(s string) string {
	if !*color {
		return s
	}
	return "\x1b[2m" + s + "\x1b[0m"
}

// session accumulates accepted input. Every entry recompiles the whole
// session so that earlier declarations stay visible.
type session struct {
	ns     string
	source string
	last   *codegen.Result
}

// eval compiles the session extended by entry. On success the entry is
// kept and the files it added or changed are returned.
func (s *session) eval(entry string) (*codegen.Result, []string, error) {
	src := s.source + entry + "\n"
	prog, err := compiler.Parse(src)
	if err != nil {
		return nil, nil, err
	}
	res, err := codegen.Generate(prog, s.ns)
	if err != nil {
		return nil, nil, err
	}

	var changed []string
	for _, name := range res.Order {
		if s.last == nil || !equalLines(s.last.Files[name], res.Files[name]) {
			changed = append(changed, name)
		}
	}
	s.source = src
	s.last = res
	return res, changed, nil
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func runRepl(ns string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := &session{ns: ns}
	var prevRoot int
	for {
		entry, ok := readEntry(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			switch trimmed {
			case ":quit":
				return 0
			case ":reset":
				s = &session{ns: ns}
				prevRoot = 0
			case ":source":
				fmt.Print(s.source)
			case ":files":
				if s.last != nil {
					for _, name := range s.last.Order {
						printFile(name, s.last.Files[name])
					}
				}
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		res, changed, err := s.eval(entry)
		if err != nil {
			fmt.Fprintln(os.Stderr, diag.Format(err, s.source+entry, *color))
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(entry, "\n", " "))

		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, dim("warning: "+w))
		}
		root := res.Root()
		for _, line := range res.Files[root][min(prevRoot, len(res.Files[root])):] {
			fmt.Println(line)
		}
		prevRoot = len(res.Files[root])
		for _, name := range changed {
			if name != root {
				printFile(name, res.Files[name])
			}
		}
	}
}

func printFile(name string, lines []string) {
	fmt.Println(dim("== " + name + " (" + strconv.Itoa(len(lines)) + " command(s))"))
	for _, line := range lines {
		fmt.Println("   " + line)
	}
}

// readEntry reads lines until they form a complete program fragment, or
// until the parser reports an error that more input cannot fix.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, err := parser.Parse(src); err != nil && diag.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}
