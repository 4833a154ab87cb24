// Package diag defines the compiler's positioned error and renders it with
// a window of the offending source.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/quill/pkg/ast"
)

// Error is the single error kind produced by lexing, parsing and generation.
type Error struct {
	Msg string
	Pos ast.Position

	// Incomplete is set when the input ended before the construct did.
	// The REPL uses it to keep reading lines.
	Incomplete bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column+1, e.Msg)
}

// Errorf creates an Error at pos.
func Errorf(pos ast.Position, format string, args ...interface{}) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// IsIncomplete reports whether err is a positioned error raised at end of input.
func IsIncomplete(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Incomplete
}

const (
	contextBefore = 2
	contextAfter  = 2
)

const (
	ansiRed   = "\033[31m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

// Format renders err against src. Positioned errors get a context window
// with a caret under the failing column; anything else is returned as-is.
func Format(err error, src string, color bool) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}

	lines := strings.Split(src, "\n")
	line := e.Pos.Line
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	col := e.Pos.Column
	if col < 0 {
		col = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", paint(ansiBold+ansiRed, fmt.Sprintf("error at %d:%d:", line, col+1)), e.Msg)

	first := line - contextBefore
	if first < 1 {
		first = 1
	}
	last := line + contextAfter
	if last > len(lines) {
		last = len(lines)
	}
	for n := first; n <= last; n++ {
		text := strings.TrimRight(lines[n-1], "\r")
		if n != line {
			fmt.Fprintf(&b, "%s\n", paint(ansiDim, fmt.Sprintf("%4d | %s", n, text)))
			continue
		}
		fmt.Fprintf(&b, "%4d | %s\n", n, text)
		width := e.Pos.Length
		if width < 1 {
			width = 1
		}
		if col+width > len(text) && len(text) > col {
			width = len(text) - col
		}
		caret := strings.Repeat(" ", col) + "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(&b, "     | %s\n", paint(ansiRed, caret))
	}
	return strings.TrimRight(b.String(), "\n")
}
