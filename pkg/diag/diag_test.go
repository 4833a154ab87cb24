package diag

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/quill/pkg/ast"
)

func TestError(t *testing.T) {
	err := Errorf(ast.Position{Line: 3, Column: 4}, "unknown variable %s", "x")
	if got := err.Error(); got != "3:5: unknown variable x" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsIncomplete(t *testing.T) {
	incomplete := &Error{Msg: "expected '}'", Incomplete: true}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"incomplete", incomplete, true},
		{"wrapped", fmt.Errorf("parsing: %w", incomplete), true},
		{"complete", Errorf(ast.Position{}, "invalid expression"), false},
		{"other error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsIncomplete(tt.err); got != tt.want {
				t.Errorf("IsIncomplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	src := "a := 1;\nb := abc;\nc := 2;"
	err := Errorf(ast.Position{Line: 2, Column: 5, Length: 3}, "unknown variable abc")

	want := strings.Join([]string{
		"error at 2:6: unknown variable abc",
		"",
		"   1 | a := 1;",
		"   2 | b := abc;",
		"     |      ^~~",
		"   3 | c := 2;",
	}, "\n")
	if got := Format(err, src, false); got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormat_Window(t *testing.T) {
	src := "1\n2\n3\n4\n5\n6\n7"
	got := Format(Errorf(ast.Position{Line: 5}, "here"), src, false)
	for _, want := range []string{"   3 | 3", "   7 | 7"} {
		if !strings.Contains(got, want) {
			t.Errorf("Format() missing %q:\n%s", want, got)
		}
	}
	for _, unwanted := range []string{"   2 | 2", "   1 | 1"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("Format() should not show %q:\n%s", unwanted, got)
		}
	}
}

func TestFormat_Clamps(t *testing.T) {
	// Positions past the end of the source are clamped to the last line.
	got := Format(Errorf(ast.Position{Line: 9, Column: 20}, "unexpected end of input"), "x := 1", false)
	if !strings.HasPrefix(got, "error at 1:21:") || !strings.Contains(got, "   1 | x := 1") {
		t.Errorf("Format() =\n%s", got)
	}
}

func TestFormat_Color(t *testing.T) {
	got := Format(Errorf(ast.Position{Line: 1}, "bad"), "x", true)
	if !strings.Contains(got, ansiRed) || !strings.Contains(got, ansiReset) {
		t.Errorf("Format() with color has no escapes: %q", got)
	}
}

func TestFormat_PlainError(t *testing.T) {
	err := errors.New("invalid namespace")
	if got := Format(err, "src", true); got != "invalid namespace" {
		t.Errorf("Format() = %q", got)
	}
}
