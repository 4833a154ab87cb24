// Package scope tracks lexical bindings during code generation.
//
// A Stack mirrors the nesting of the blocks being generated. Each Scope
// holds runtime variables (which live in a frame of the target's frame
// stack), compile-time variables (folded values), and declared functions.
// Lookups walk from the innermost scope outwards.
package scope

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/diag"
)

// Kind says why a scope was opened.
type Kind int

const (
	Root     Kind = iota // the program
	Block                // a conditional branch body
	Function             // a dynamic function body
	Comptime             // an inlined macro; never has a frame
)

func (k Kind) String() string {
	switch k {
	case Root:
		return "root"
	case Block:
		return "block"
	case Function:
		return "function"
	case Comptime:
		return "comptime"
	default:
		return "unknown"
	}
}

type binding struct {
	value ast.Value
	file  string // output file the binding was declared in
}

// Entry is a declared function together with its generated code.
type Entry struct {
	Function *ast.Function

	// File holds the generated body of a function without static
	// parameters. Empty until generated.
	File string

	// Specialized caches generated bodies of functions with static
	// parameters, keyed by the folded static arguments and by what the
	// body sees of the calling scope.
	Specialized map[string]string

	// Calls counts resolved call sites.
	Calls int
}

// Scope is one lexical level.
type Scope struct {
	Kind  Kind
	Frame bool   // owns a frame on the runtime frame stack
	File  string // output file that was active when the scope opened

	runtime   map[ast.VariableName]ast.Typing
	comptime  map[ast.VariableName]*binding
	functions []*Entry

	// hoisted holds root variables declared later in the program. Only
	// function bodies see them.
	hoisted map[ast.VariableName]ast.Typing
}

func newScope(kind Kind, frame bool, file string) *Scope {
	return &Scope{
		Kind:     kind,
		Frame:    frame,
		File:     file,
		runtime:  make(map[ast.VariableName]ast.Typing),
		comptime: make(map[ast.VariableName]*binding),
		hoisted:  make(map[ast.VariableName]ast.Typing),
	}
}

// Functions returns the functions declared directly in s.
func (s *Scope) Functions() []*Entry {
	return s.functions
}

// Statics returns a copy of the compile-time bindings declared directly in s.
func (s *Scope) Statics() map[ast.VariableName]ast.Value {
	out := make(map[ast.VariableName]ast.Value, len(s.comptime))
	for name, b := range s.comptime {
		out[name] = b.value
	}
	return out
}

// Stack is the scope stack of one generation run.
type Stack struct {
	scopes []*Scope
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{}
}

// Push opens a scope on top of the stack.
func (s *Stack) Push(kind Kind, frame bool, file string) *Scope {
	sc := newScope(kind, frame, file)
	s.scopes = append(s.scopes, sc)
	return sc
}

// Pop closes the innermost scope and returns it.
func (s *Stack) Pop() *Scope {
	if len(s.scopes) == 0 {
		panic("scope: pop on empty stack")
	}
	sc := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	return sc
}

// Depth returns the number of open scopes.
func (s *Stack) Depth() int {
	return len(s.scopes)
}

// Top returns the innermost scope.
func (s *Stack) Top() *Scope {
	if len(s.scopes) == 0 {
		panic("scope: no open scope")
	}
	return s.scopes[len(s.scopes)-1]
}

// === Runtime variables ===

// DeclareRuntime binds a runtime variable in the innermost scope.
func (s *Stack) DeclareRuntime(name ast.VariableName, typing ast.Typing) {
	top := s.Top()
	if !top.Frame {
		panic(fmt.Sprintf("scope: runtime variable %s declared in a %s scope without a frame", name, top.Kind))
	}
	top.runtime[name] = typing
}

// HoistRuntime announces a root variable before its declaration runs, so
// that function bodies generated ahead of it can refer to it.
func (s *Stack) HoistRuntime(name ast.VariableName, typing ast.Typing) {
	top := s.Top()
	if top.Kind != Root {
		panic("scope: hoisting outside the root scope")
	}
	if _, ok := top.hoisted[name]; !ok {
		top.hoisted[name] = typing
	}
}

// RuntimePath returns the storage path of a runtime variable relative to
// the current top of the frame stack: frames[-N].name, where N counts the
// frames between the innermost scope and the declaring one. Variables of
// the root scope read from inside a function use frames[0], since the
// function may run at any frame depth. Any other variable of an enclosing
// function is out of reach.
func (s *Stack) RuntimePath(name ast.VariableName, pos ast.Position) (string, ast.Typing, error) {
	frames := 0
	crossed := false
	for i := len(s.scopes) - 1; i >= 0; i-- {
		sc := s.scopes[i]
		if sc.Frame {
			frames++
		}
		typing, ok := sc.runtime[name]
		if !ok && crossed && sc.Kind == Root {
			typing, ok = sc.hoisted[name]
		}
		if ok {
			switch {
			case !crossed:
				return fmt.Sprintf("frames[-%d].%s", frames, name.Name), typing, nil
			case sc.Kind == Root:
				return fmt.Sprintf("frames[0].%s", name.Name), typing, nil
			default:
				return "", ast.TypeUnknown, diag.Errorf(pos, "can't use %s inside a nested function", name)
			}
		}
		if sc.Kind == Function {
			crossed = true
		}
	}
	return "", ast.TypeUnknown, diag.Errorf(pos, "unknown variable %s%s", name, didYouMean(name.String(), s.runtimeNames()))
}

// === Compile-time variables ===

// DeclareStatic binds a folded value in the innermost scope.
func (s *Stack) DeclareStatic(name ast.VariableName, value ast.Value, file string) {
	s.Top().comptime[name] = &binding{value: value, file: file}
}

// LookupStatic resolves a compile-time variable.
func (s *Stack) LookupStatic(name ast.VariableName, pos ast.Position) (ast.Value, error) {
	if b := s.findStatic(name); b != nil {
		return b.value, nil
	}
	return ast.Value{}, diag.Errorf(pos, "unknown variable %s%s", name, didYouMean(name.String(), s.staticNames()))
}

// ReassignStatic updates an existing compile-time variable. The update must
// happen in the output file that declared it.
func (s *Stack) ReassignStatic(name ast.VariableName, value ast.Value, file string, pos ast.Position) error {
	b := s.findStatic(name)
	if b == nil {
		return diag.Errorf(pos, "unknown variable %s%s", name, didYouMean(name.String(), s.staticNames()))
	}
	if b.file != file {
		return diag.Errorf(pos, "can't reassign static variable %s inside a branch or function body", name)
	}
	b.value = value
	return nil
}

// Static reports the visible value of a compile-time variable.
func (s *Stack) Static(name ast.VariableName) (ast.Value, bool) {
	if b := s.findStatic(name); b != nil {
		return b.value, true
	}
	return ast.Value{}, false
}

func (s *Stack) findStatic(name ast.VariableName) *binding {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if b, ok := s.scopes[i].comptime[name]; ok {
			return b
		}
	}
	return nil
}

// === Functions ===

// RegisterFunction declares fn in the innermost scope. Two overloads with
// identical signatures in one scope are an error; inner scopes may shadow.
func (s *Stack) RegisterFunction(fn *ast.Function) (*Entry, error) {
	top := s.Top()
	for _, e := range top.functions {
		if e.Function.Signature.Equal(fn.Signature) {
			return nil, diag.Errorf(fn.Position, "function %s is already declared in this scope", fn.Signature)
		}
	}
	e := &Entry{Function: fn}
	top.functions = append(top.functions, e)
	return e, nil
}

// Arg describes one call argument for overload resolution.
type Arg struct {
	Static bool
	Typing ast.Typing
}

// Resolve picks the overload of name that best matches args. A candidate
// must have the same arity and must not receive a dynamic argument in a
// static parameter. Among candidates, the one with the most positions
// where both parameter and argument are static wins; then the one with
// the most matching typings; then the innermost; then the first declared.
func (s *Stack) Resolve(name ast.VariableName, args []Arg, pos ast.Position) (*Entry, error) {
	var best *Entry
	bestStatic, bestTyping := -1, -1
	seen := false

	for i := len(s.scopes) - 1; i >= 0; i-- {
		for _, e := range s.scopes[i].functions {
			sig := e.Function.Signature
			if sig.Name != name {
				continue
			}
			seen = true
			staticScore, typingScore, ok := score(sig, args)
			if !ok {
				continue
			}
			if staticScore > bestStatic || (staticScore == bestStatic && typingScore > bestTyping) {
				best, bestStatic, bestTyping = e, staticScore, typingScore
			}
		}
	}

	if best != nil {
		return best, nil
	}
	if seen {
		return nil, diag.Errorf(pos, "no overload of %s matches %d argument(s)", name, len(args))
	}
	return nil, diag.Errorf(pos, "unresolved call to %s%s", name, didYouMean(name.String(), s.functionNames(name.Dynamic)))
}

// Candidates returns every visible function named name, innermost first.
func (s *Stack) Candidates(name ast.VariableName) []*Entry {
	var out []*Entry
	for i := len(s.scopes) - 1; i >= 0; i-- {
		for _, e := range s.scopes[i].functions {
			if e.Function.Signature.Name == name {
				out = append(out, e)
			}
		}
	}
	return out
}

func score(sig ast.FunctionSignature, args []Arg) (staticScore, typingScore int, ok bool) {
	if len(sig.Args) != len(args) {
		return 0, 0, false
	}
	for i, param := range sig.Args {
		arg := args[i]
		if param.Name.IsStatic() && !arg.Static {
			return 0, 0, false
		}
		if param.Name.IsStatic() && arg.Static {
			staticScore++
		}
		if param.Typing != ast.TypeUnknown && param.Typing == arg.Typing {
			typingScore++
		}
	}
	return staticScore, typingScore, true
}

// === Suggestions ===

func (s *Stack) runtimeNames() []string {
	var names []string
	for _, sc := range s.scopes {
		for name := range sc.runtime {
			names = append(names, name.String())
		}
	}
	return names
}

func (s *Stack) staticNames() []string {
	var names []string
	for _, sc := range s.scopes {
		for name := range sc.comptime {
			names = append(names, name.String())
		}
	}
	return names
}

func (s *Stack) functionNames(dynamic bool) []string {
	var names []string
	for _, sc := range s.scopes {
		for _, e := range sc.functions {
			if n := e.Function.Signature.Name; n.Dynamic == dynamic {
				names = append(names, n.String())
			}
		}
	}
	return names
}

// didYouMean finds the closest candidate using fuzzy matching and formats
// it as a hint, or returns "".
func didYouMean(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	// Candidates come from maps; sort so ties are reported stably.
	sort.Strings(candidates)
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Stable(ranks)
	if ranks[0].Target == target {
		return ""
	}
	return fmt.Sprintf(" (did you mean %s?)", ranks[0].Target)
}
