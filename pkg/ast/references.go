package ast

// References returns the static variables b reads or assigns and the
// functions it calls, each listed once in order of first appearance.
// Bodies of functions declared inside b are included.
func (b Block) References() (vars, calls []VariableName) {
	w := &refWalker{seenVars: map[VariableName]bool{}, seenCalls: map[VariableName]bool{}}
	w.block(b)
	return w.vars, w.calls
}

type refWalker struct {
	vars, calls         []VariableName
	seenVars, seenCalls map[VariableName]bool
}

func (w *refWalker) variable(name VariableName) {
	if name.IsStatic() && !w.seenVars[name] {
		w.seenVars[name] = true
		w.vars = append(w.vars, name)
	}
}

func (w *refWalker) block(b Block) {
	for _, s := range b {
		w.stmt(s)
	}
}

func (w *refWalker) stmt(s Stmt) {
	switch s := s.(type) {
	case *Command:
		for _, part := range s.Parts {
			w.expr(part.Expr)
		}
	case *IfStatement:
		w.expr(s.Condition)
		w.block(s.Then)
		if s.ElseIf != nil {
			w.stmt(s.ElseIf)
		}
		w.block(s.Else)
	case *VariableAssignment:
		w.variable(s.Target)
		w.expr(s.Value)
	case *FunctionDeclaration:
		w.block(s.Function.Body)
	case *FunctionCall:
		w.expr(s)
	case *Return:
		w.expr(s.Value)
	}
}

func (w *refWalker) expr(e Expr) {
	switch e := e.(type) {
	case *Sum:
		w.expr(e.Left)
		w.expr(e.Right)
	case *Product:
		w.expr(e.Left)
		w.expr(e.Right)
	case *Paren:
		w.expr(e.Inner)
	case *VarRef:
		w.variable(e.Name)
	case *FunctionCall:
		if !w.seenCalls[e.Name] {
			w.seenCalls[e.Name] = true
			w.calls = append(w.calls, e.Name)
		}
		for _, a := range e.Args {
			w.expr(a)
		}
	}
}
