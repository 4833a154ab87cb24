package lexer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/quill/pkg/diag"
)

// stripPositions drops everything but Type and Value for easier comparison.
func stripPositions(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, tok := range tokens {
		out[i] = Token{Type: tok.Type, Value: tok.Value}
	}
	return out
}

func assertTokens(t *testing.T, got, want []Token) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

// TestTokenize_BasicTokens tests tokenization of punctuation and operators.
func TestTokenize_BasicTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "empty input",
			input:    "",
			expected: []Token{{Type: EOF}},
		},
		{
			name:  "delimiters",
			input: "(){},;",
			expected: []Token{
				{Type: LPAREN, Value: "("},
				{Type: RPAREN, Value: ")"},
				{Type: LBRACE, Value: "{"},
				{Type: RBRACE, Value: "}"},
				{Type: COMMA, Value: ","},
				{Type: SEMI, Value: ";"},
				{Type: EOF},
			},
		},
		{
			name:  "declaration versus colon",
			input: ": := =",
			expected: []Token{
				{Type: COLON, Value: ":"},
				{Type: ASSIGN, Value: ":="},
				{Type: EQUALS, Value: "="},
				{Type: EOF},
			},
		},
		{
			name:  "arithmetic",
			input: "1+2*3",
			expected: []Token{
				{Type: NUMBER, Value: "1"},
				{Type: PLUS, Value: "+"},
				{Type: NUMBER, Value: "2"},
				{Type: STAR, Value: "*"},
				{Type: NUMBER, Value: "3"},
				{Type: EOF},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := New(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			assertTokens(t, stripPositions(tokens), tt.expected)
		})
	}
}

// TestTokenize_Names covers static names, dynamic names and keywords.
func TestTokenize_Names(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "static identifier",
			input:    "pack_format",
			expected: []Token{{Type: IDENTIFIER, Value: "pack_format"}, {Type: EOF}},
		},
		{
			name:     "dynamic variable drops sigil",
			input:    "$count",
			expected: []Token{{Type: VARIABLE, Value: "count"}, {Type: EOF}},
		},
		{
			name:     "trailing primes",
			input:    "x'' $y'",
			expected: []Token{{Type: IDENTIFIER, Value: "x''"}, {Type: VARIABLE, Value: "y'"}, {Type: EOF}},
		},
		{
			name:  "keywords",
			input: "if else def return true false",
			expected: []Token{
				{Type: IF, Value: "if"},
				{Type: ELSE, Value: "else"},
				{Type: DEF, Value: "def"},
				{Type: RETURN, Value: "return"},
				{Type: TRUE, Value: "true"},
				{Type: FALSE, Value: "false"},
				{Type: EOF},
			},
		},
		{
			name:     "keyword prefix is an identifier",
			input:    "iffy",
			expected: []Token{{Type: IDENTIFIER, Value: "iffy"}, {Type: EOF}},
		},
		{
			name:     "sigil makes keyword text a variable",
			input:    "$if",
			expected: []Token{{Type: VARIABLE, Value: "if"}, {Type: EOF}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := New(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			assertTokens(t, stripPositions(tokens), tt.expected)
		})
	}
}

func TestTokenize_Strings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `"hello"`, "hello"},
		{"empty", `""`, ""},
		{"escaped quote", `"say \"hi\""`, `say "hi"`},
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"newline and tab", `"a\nb\tc"`, "a\nb\tc"},
		{"hash is literal", `"#{x}"`, "#{x}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := New(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			if tokens[0].Type != STRING || tokens[0].Value != tt.want {
				t.Errorf("got %+v, want STRING %q", tokens[0], tt.want)
			}
			if tokens[0].Len != len(tt.input) {
				t.Errorf("Len = %d, want %d", tokens[0].Len, len(tt.input))
			}
		})
	}
}

func TestTokenize_Commands(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "runs to end of line",
			input:    "/say hello world\n$x := 1;",
			expected: []Token{{Type: COMMAND, Value: "say hello world"}, {Type: VARIABLE, Value: "x"}, {Type: ASSIGN, Value: ":="}, {Type: NUMBER, Value: "1"}, {Type: SEMI, Value: ";"}, {Type: EOF}},
		},
		{
			name:     "trailing whitespace trimmed",
			input:    "/say hi   \r\n",
			expected: []Token{{Type: COMMAND, Value: "say hi"}, {Type: EOF}},
		},
		{
			name:     "holes kept verbatim",
			input:    "/say #{1 + 2} apples",
			expected: []Token{{Type: COMMAND, Value: "say #{1 + 2} apples"}, {Type: EOF}},
		},
		{
			name:     "unbalanced brace ends the command",
			input:    "if true { /say a }",
			expected: []Token{{Type: IF, Value: "if"}, {Type: TRUE, Value: "true"}, {Type: LBRACE, Value: "{"}, {Type: COMMAND, Value: "say a"}, {Type: RBRACE, Value: "}"}, {Type: EOF}},
		},
		{
			name:     "balanced braces stay in the command",
			input:    `/tellraw @a {"text":"hi"}`,
			expected: []Token{{Type: COMMAND, Value: `tellraw @a {"text":"hi"}`}, {Type: EOF}},
		},
		{
			name:     "brace inside a hole string",
			input:    `if true { /say #{"}"} #{"a\"}"} }`,
			expected: []Token{{Type: IF, Value: "if"}, {Type: TRUE, Value: "true"}, {Type: LBRACE, Value: "{"}, {Type: COMMAND, Value: `say #{"}"} #{"a\"}"}`}, {Type: RBRACE, Value: "}"}, {Type: EOF}},
		},
		{
			name:     "hash without brace is literal",
			input:    "/scoreboard players set #lhs rt 1",
			expected: []Token{{Type: COMMAND, Value: "scoreboard players set #lhs rt 1"}, {Type: EOF}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := New(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			assertTokens(t, stripPositions(tokens), tt.expected)
		})
	}
}

func TestHoleEnd(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"x}", 1},
		{"} }", 0},
		{`"}"}`, 3},
		{`"a\"}" + b}`, 10},
		{`"\\"}`, 4},
		{`"}`, -1},
		{"1\n}", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := HoleEnd(tt.input); got != tt.want {
			t.Errorf("HoleEnd(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestTokenize_Comments(t *testing.T) {
	input := "# leading comment\nx := 1; # trailing\n"
	tokens, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	want := []Token{
		{Type: IDENTIFIER, Value: "x"},
		{Type: ASSIGN, Value: ":="},
		{Type: NUMBER, Value: "1"},
		{Type: SEMI, Value: ";"},
		{Type: EOF},
	}
	assertTokens(t, stripPositions(tokens), want)
}

// TestTokenize_Positions verifies offsets, lengths, lines and columns.
func TestTokenize_Positions(t *testing.T) {
	input := "x := 1;\n  $y = \"ab\";"
	tokens, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	want := []Token{
		{Type: IDENTIFIER, Value: "x", Offset: 0, Len: 1, Line: 1, Column: 0},
		{Type: ASSIGN, Value: ":=", Offset: 2, Len: 2, Line: 1, Column: 2},
		{Type: NUMBER, Value: "1", Offset: 5, Len: 1, Line: 1, Column: 5},
		{Type: SEMI, Value: ";", Offset: 6, Len: 1, Line: 1, Column: 6},
		{Type: VARIABLE, Value: "y", Offset: 10, Len: 2, Line: 2, Column: 2},
		{Type: EQUALS, Value: "=", Offset: 13, Len: 1, Line: 2, Column: 5},
		{Type: STRING, Value: "ab", Offset: 15, Len: 4, Line: 2, Column: 7},
		{Type: SEMI, Value: ";", Offset: 19, Len: 1, Line: 2, Column: 11},
		{Type: EOF, Offset: 20, Line: 2, Column: 12},
	}
	assertTokens(t, tokens, want)
}

func TestNewAt_OffsetsFragment(t *testing.T) {
	tokens, err := NewAt("a + 1", 40, 3, 12).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if tokens[0].Offset != 40 || tokens[0].Line != 3 || tokens[0].Column != 12 {
		t.Errorf("first token = %+v, want offset 40 at 3:12", tokens[0])
	}
	if tokens[2].Offset != 44 || tokens[2].Column != 16 {
		t.Errorf("third token = %+v, want offset 44 col 16", tokens[2])
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantMsg    string
		wantCol    int
		incomplete bool
	}{
		{"bare sigil", "$ x", "invalid identifier", 0, false},
		{"sigil then digit", "$1", "invalid identifier", 0, false},
		{"unexpected character", "x := 1 - 2;", "unexpected character '-'", 7, false},
		{"unterminated string", `x := "abc`, "unterminated string", 5, true},
		{"string across newline", "x := \"abc\n\";", "unterminated string", 5, false},
		{"bad escape", `"\q"`, `invalid escape sequence \q`, 0, false},
		{"unterminated hole", "/say #{1 + 2", "unterminated interpolation", 5, true},
		{"unterminated string in hole", `/say #{"}`, "unterminated interpolation", 5, true},
		{"hole across newline", "/say #{1\n}", "unterminated interpolation", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.input).Tokenize()
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
			if de.Pos.Column != tt.wantCol {
				t.Errorf("Column = %d, want %d", de.Pos.Column, tt.wantCol)
			}
			if de.Incomplete != tt.incomplete {
				t.Errorf("Incomplete = %v, want %v", de.Incomplete, tt.incomplete)
			}
		})
	}
}

func TestTokenizeJSON(t *testing.T) {
	out, err := New("$x := 1;").TokenizeJSON()
	if err != nil {
		t.Fatalf("TokenizeJSON() error = %v", err)
	}
	var tokens []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &tokens); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(tokens) != 5 {
		t.Fatalf("got %d tokens, want 5", len(tokens))
	}
	if tokens[0]["type"] != "VARIABLE" || tokens[0]["value"] != "x" {
		t.Errorf("first token = %v", tokens[0])
	}
}

func TestNewFromReader(t *testing.T) {
	l, err := NewFromReader(strings.NewReader("/say hi"))
	if err != nil {
		t.Fatalf("NewFromReader() error = %v", err)
	}
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if tokens[0].Type != COMMAND || tokens[0].Value != "say hi" {
		t.Errorf("got %+v", tokens[0])
	}
}

func TestTokenHelpers(t *testing.T) {
	tok := Token{Type: TRUE, Value: "true", Offset: 3, Len: 4}
	if !tok.IsKeyword() || !tok.IsLiteral() || tok.IsName() {
		t.Errorf("TRUE classification wrong: %+v", tok)
	}
	if tok.End() != 7 {
		t.Errorf("End() = %d, want 7", tok.End())
	}
	if !(Token{Type: VARIABLE}).IsName() {
		t.Error("VARIABLE should be a name")
	}
}
