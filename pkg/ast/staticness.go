package ast

// Staticness is a pure structural classification: a static node can be
// resolved entirely at compile time, a dynamic one needs runtime storage.

func (e *Sum) IsStatic() bool { return e.Left.IsStatic() && e.Right.IsStatic() }
func (e *Product) IsStatic() bool { return e.Left.IsStatic() && e.Right.IsStatic() }
func (*NumberLit) IsStatic() bool { return true }
func (*StringLit) IsStatic() bool { return true }
func (*BoolLit) IsStatic() bool { return true }
func (e *VarRef) IsStatic() bool { return e.Name.IsStatic() }
func (e *Paren) IsStatic() bool { return e.Inner.IsStatic() }
func (c *FunctionCall) IsStatic() bool { return c.Name.IsStatic() }

// IsStatic is always true: interpolated holes are checked by the parser.
func (*Command) IsStatic() bool { return true }

// IsStatic requires the condition and every branch to be static. A missing
// else-if or else branch counts as static.
func (s *IfStatement) IsStatic() bool {
	if !s.Condition.IsStatic() || !s.Then.IsStatic() {
		return false
	}
	if s.ElseIf != nil && !s.ElseIf.IsStatic() {
		return false
	}
	if s.Else != nil && !s.Else.IsStatic() {
		return false
	}
	return true
}

func (s *VariableAssignment) IsStatic() bool { return s.Target.IsStatic() }
func (s *FunctionDeclaration) IsStatic() bool { return s.Function.IsStatic() }
func (s *Return) IsStatic() bool { return s.Value.IsStatic() }

// IsStatic reports whether every statement is static.
func (b Block) IsStatic() bool {
	for _, s := range b {
		if !s.IsStatic() {
			return false
		}
	}
	return true
}

// IsDynamic reports whether every statement is dynamic. This is not the
// negation of IsStatic: a block mixing both kinds is neither.
func (b Block) IsDynamic() bool {
	for _, s := range b {
		if s.IsStatic() {
			return false
		}
	}
	return true
}

// RequiresScope reports whether generating b needs its own scope: it
// declares a variable or a function, or holds a conditional whose branches
// need one.
func (b Block) RequiresScope() bool {
	for _, s := range b {
		switch s := s.(type) {
		case *VariableAssignment:
			if s.Declare {
				return true
			}
		case *FunctionDeclaration:
			return true
		case *IfStatement:
			if s.requiresScope() {
				return true
			}
		}
	}
	return false
}

func (s *IfStatement) requiresScope() bool {
	if s.Then.RequiresScope() || s.Else.RequiresScope() {
		return true
	}
	return s.ElseIf != nil && s.ElseIf.requiresScope()
}

// HasReturn reports whether a return statement appears anywhere in b,
// not counting nested function declarations.
func (b Block) HasReturn() bool {
	for _, s := range b {
		switch s := s.(type) {
		case *Return:
			return true
		case *IfStatement:
			for cur := s; cur != nil; cur = cur.ElseIf {
				if cur.Then.HasReturn() || cur.Else.HasReturn() {
					return true
				}
			}
		}
	}
	return false
}

// IsStatic reports whether the function is a macro: a sigil-less name.
// The parser rejects sigil-less functions with dynamic parameters or bodies.
func (f *Function) IsStatic() bool {
	return f.Signature.IsStatic()
}

// IsStatic is true for a sigil-less name without dynamic parameters.
func (s FunctionSignature) IsStatic() bool {
	if s.Name.Dynamic {
		return false
	}
	for _, a := range s.Args {
		if a.Name.Dynamic {
			return false
		}
	}
	return true
}

// StaticParams counts the sigil-less parameters.
func (s FunctionSignature) StaticParams() int {
	n := 0
	for _, a := range s.Args {
		if a.Name.IsStatic() {
			n++
		}
	}
	return n
}

// InferTyping derives a type from the shape of e without resolving names.
func InferTyping(e Expr) Typing {
	switch e := e.(type) {
	case *NumberLit:
		return TypeInteger
	case *StringLit:
		return TypeString
	case *BoolLit:
		return TypeBoolean
	case *Paren:
		return InferTyping(e.Inner)
	case *Sum:
		return joinTyping(InferTyping(e.Left), InferTyping(e.Right))
	case *Product:
		return joinTyping(InferTyping(e.Left), InferTyping(e.Right))
	}
	return TypeUnknown
}

func joinTyping(a, b Typing) Typing {
	if a == b {
		return a
	}
	return TypeUnknown
}
