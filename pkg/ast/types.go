// Package ast defines the quill syntax tree produced by the parser.
package ast

import (
	"strconv"
	"strings"
)

// Position represents a span in the source file.
type Position struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
	Line   int `json:"line"` // 1-indexed
	Column int `json:"col"`  // 0-indexed
}

// Pos returns the position itself so that embedding Position satisfies Node.
func (p Position) Pos() Position {
	return p
}

// Node is anything carrying a source position.
type Node interface {
	Pos() Position
}

// VariableName identifies a variable or function. A static and a dynamic
// name with the same text are different identities.
type VariableName struct {
	Name    string
	Dynamic bool
}

// Static returns the compile-time name n.
func Static(n string) VariableName {
	return VariableName{Name: n}
}

// Dynamic returns the runtime name $n.
func Dynamic(n string) VariableName {
	return VariableName{Name: n, Dynamic: true}
}

// IsStatic reports whether the name carries no sigil.
func (v VariableName) IsStatic() bool {
	return !v.Dynamic
}

func (v VariableName) String() string {
	if v.Dynamic {
		return "$" + v.Name
	}
	return v.Name
}

// Typing is the advisory type attached to declarations.
type Typing int

const (
	TypeUnknown Typing = iota
	TypeInteger
	TypeString
	TypeBoolean
)

func (t Typing) String() string {
	switch t {
	case TypeInteger:
		return "int"
	case TypeString:
		return "string"
	case TypeBoolean:
		return "bool"
	default:
		return "unknown"
	}
}

// ParseTyping maps a type annotation to its Typing.
func ParseTyping(s string) (Typing, bool) {
	switch s {
	case "int":
		return TypeInteger, true
	case "string":
		return TypeString, true
	case "bool":
		return TypeBoolean, true
	}
	return TypeUnknown, false
}

// Value is a fully resolved compile-time value.
type Value struct {
	Type Typing
	Int  int32
	Str  string
	Bool bool
}

// IntValue returns an integer value.
func IntValue(i int32) Value { return Value{Type: TypeInteger, Int: i} }

// StringValue returns a string value.
func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{Type: TypeBoolean, Bool: b} }

// String renders the value the way it appears inside a command line.
func (v Value) String() string {
	switch v.Type {
	case TypeInteger:
		return strconv.FormatInt(int64(v.Int), 10)
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

var snbtEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

// SNBT renders the value as a storage literal. It always fits on one line.
func (v Value) SNBT() string {
	if v.Type != TypeString {
		return v.String()
	}
	return `"` + snbtEscaper.Replace(v.Str) + `"`
}

// === Expressions ===

// Expr is a node of the sum -> product -> term precedence ladder.
type Expr interface {
	Node
	exprNode()
	IsStatic() bool
}

// Sum represents: summand + expression
type Sum struct {
	Position
	Left  Expr
	Right Expr
}

func (*Sum) exprNode() {}

// Product represents: term * summand
type Product struct {
	Position
	Left  Expr
	Right Expr
}

func (*Product) exprNode() {}

// NumberLit represents a 32-bit integer literal.
type NumberLit struct {
	Position
	Value int32
}

func (*NumberLit) exprNode() {}

// StringLit represents a string literal.
type StringLit struct {
	Position
	Value string
}

func (*StringLit) exprNode() {}

// BoolLit represents true or false.
type BoolLit struct {
	Position
	Value bool
}

func (*BoolLit) exprNode() {}

// VarRef represents a variable reference.
type VarRef struct {
	Position
	Name VariableName
}

func (*VarRef) exprNode() {}

// Paren represents a parenthesized sub-expression.
type Paren struct {
	Position
	Inner Expr
}

func (*Paren) exprNode() {}

// FunctionCall is both a term and, followed by ';', a statement.
type FunctionCall struct {
	Position
	Name VariableName
	Args []Expr
}

func (*FunctionCall) exprNode() {}
func (*FunctionCall) stmtNode() {}

// === Statements ===

// Stmt represents a statement.
type Stmt interface {
	Node
	stmtNode()
	IsStatic() bool
}

// Block is a sequence of statements.
type Block []Stmt

// Program is the root of a parsed source file.
type Program struct {
	Statements Block
	End        Position // Position of end of input
}

// Interpolation is a literal segment followed by a #{...} hole.
type Interpolation struct {
	Literal string
	Expr    Expr
}

// Command represents a raw command line: /say #{x} done
type Command struct {
	Position
	Parts []Interpolation
	Tail  string
}

func (*Command) stmtNode() {}

// IfStatement represents if/else if/else. An else-if chain is nested
// through ElseIf; ElseIf and Else are never both set.
type IfStatement struct {
	Position
	Condition Expr
	Then      Block
	ElseIf    *IfStatement
	Else      Block // nil when there is no else branch
}

func (*IfStatement) stmtNode() {}

// VariableAssignment represents `x: int := expr;` (Declare) or `x = expr;`.
type VariableAssignment struct {
	Position
	Target  VariableName
	Typing  Typing
	Value   Expr
	Declare bool
}

func (*VariableAssignment) stmtNode() {}

// FunctionDeclaration represents `def name(args) { ... }`.
type FunctionDeclaration struct {
	Position
	Function *Function
}

func (*FunctionDeclaration) stmtNode() {}

// Return represents: return expr;
type Return struct {
	Position
	Value Expr
}

func (*Return) stmtNode() {}

// VariableSignature is a declared parameter.
type VariableSignature struct {
	Name   VariableName
	Typing Typing
}

// FunctionSignature identifies one overload.
type FunctionSignature struct {
	Name VariableName
	Args []VariableSignature
}

// Key returns a string usable as a map key; equal signatures have equal keys.
func (s FunctionSignature) Key() string {
	var b strings.Builder
	b.WriteString(s.Name.String())
	b.WriteByte('(')
	for i, a := range s.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Name.String())
		b.WriteByte(':')
		b.WriteString(a.Typing.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Equal reports whether two signatures are identical.
func (s FunctionSignature) Equal(o FunctionSignature) bool {
	return s.Key() == o.Key()
}

func (s FunctionSignature) String() string {
	return s.Name.String() + "/" + strconv.Itoa(len(s.Args))
}

// Function is a declared function or macro.
type Function struct {
	Position
	Signature FunctionSignature
	Body      Block
}
