package codegen

import (
	"fmt"
	"strings"

	"github.com/chazu/quill/pkg/ast"
	"github.com/chazu/quill/pkg/diag"
	"github.com/chazu/quill/pkg/scope"
)

func (g *generator) resolve(call *ast.FunctionCall) (*scope.Entry, error) {
	args := make([]scope.Arg, len(call.Args))
	for i, a := range call.Args {
		args[i] = scope.Arg{Static: a.IsStatic(), Typing: g.typingOf(a)}
	}
	entry, err := g.scopes.Resolve(call.Name, args, call.Position)
	if err != nil {
		return nil, err
	}
	entry.Calls++
	return entry, nil
}

// generateCall emits a call. A macro is expanded in place. A dynamic
// function runs from its own file: its dynamic arguments are pushed in
// reverse order, a frame is allocated and filled from the stack in
// declaration order, and the frame is freed after the call. When the
// call is used as an expression, the return value is pushed.
func (g *generator) generateCall(call *ast.FunctionCall, asExpr bool) error {
	if call.Name.IsStatic() {
		if asExpr {
			return g.generateExpr(call)
		}
		_, _, err := g.expandMacro(call)
		return err
	}

	entry, err := g.resolve(call)
	if err != nil {
		return err
	}
	fn := entry.Function
	if asExpr && !fn.Body.HasReturn() {
		return diag.Errorf(call.Position, "function %s doesn't return a value", fn.Signature)
	}

	file := entry.File
	if fn.Signature.StaticParams() > 0 {
		file, err = g.specialize(entry, call)
		if err != nil {
			return err
		}
	}

	var dynamic []int
	for i, param := range fn.Signature.Args {
		if param.Name.Dynamic {
			dynamic = append(dynamic, i)
		}
	}
	for i := len(dynamic) - 1; i >= 0; i-- {
		if err := g.generateExpr(call.Args[dynamic[i]]); err != nil {
			return err
		}
	}
	g.write(g.allocFrame())
	for _, i := range dynamic {
		g.write(g.storeTop("frames[-1]." + fn.Signature.Args[i].Name.Name))
		g.write(g.pop())
	}
	g.write(g.call(file))
	g.write(g.freeFrame())

	if asExpr {
		g.write(g.pushReturn())
	}
	return nil
}

// specialize returns the file holding fn's body with its static
// parameters bound to the call's folded arguments. The body resolves names
// in the caller's scope chain, so bodies are cached per distinct argument
// list and per distinct view of that chain.
func (g *generator) specialize(entry *scope.Entry, call *ast.FunctionCall) (string, error) {
	sig := entry.Function.Signature
	bindings := make(map[ast.VariableName]ast.Value)
	var key []string
	for i, param := range sig.Args {
		if param.Name.Dynamic {
			continue
		}
		v, err := g.fold(call.Args[i])
		if err != nil {
			return "", err
		}
		bindings[param.Name] = v
		key = append(key, v.Type.String()+":"+v.SNBT())
	}

	k := strings.Join(append(key, g.visibleTo(entry.Function)...), ",")
	if file, ok := entry.Specialized[k]; ok {
		return file, nil
	}
	if g.depth >= maxDepth {
		return "", diag.Errorf(call.Position, "specialization of %s nested too deeply", sig)
	}

	if entry.Specialized == nil {
		entry.Specialized = make(map[string]string)
	}
	// Cached before generation so a recursive call with the same
	// arguments reuses the file.
	file := g.newFile()
	entry.Specialized[k] = file

	g.depth++
	defer func() { g.depth-- }()
	if err := g.generateFunctionBody(entry, file, bindings); err != nil {
		return "", err
	}
	return file, nil
}

// visibleTo describes what the body of fn observes of the current scope
// chain: the value of every static variable it can reach and the overloads
// behind every name it can call. Calls are followed into the bodies they
// may resolve to, since macros expand against the same chain.
func (g *generator) visibleTo(fn *ast.Function) []string {
	params := make(map[ast.VariableName]bool)
	for _, param := range fn.Signature.Args {
		params[param.Name] = true
	}

	var out []string
	seenVar := make(map[ast.VariableName]bool)
	seenFn := map[*ast.Function]bool{fn: true}
	queue := []*ast.Function{fn}
	for len(queue) > 0 {
		vars, calls := queue[0].Body.References()
		queue = queue[1:]

		for _, name := range vars {
			if params[name] || seenVar[name] {
				continue
			}
			seenVar[name] = true
			if v, ok := g.scopes.Static(name); ok {
				out = append(out, name.Name+"="+v.Type.String()+":"+v.SNBT())
			} else {
				out = append(out, name.Name+"=")
			}
		}
		for _, name := range calls {
			ids := make([]string, 0, 1)
			for _, e := range g.scopes.Candidates(name) {
				ids = append(ids, fmt.Sprintf("%p", e))
				if !seenFn[e.Function] {
					seenFn[e.Function] = true
					queue = append(queue, e.Function)
				}
			}
			out = append(out, name.String()+"->"+strings.Join(ids, "|"))
		}
	}
	return out
}

// generateFunctionBody writes a dynamic function's body into file. Dynamic
// parameters live in the frame the caller allocates; static parameters
// are bound from statics.
func (g *generator) generateFunctionBody(entry *scope.Entry, file string, statics map[ast.VariableName]ast.Value) error {
	fn := entry.Function
	return g.withExistingFile(file, func() error {
		return g.withScope(scope.Function, func() error {
			for _, param := range fn.Signature.Args {
				if param.Name.Dynamic {
					g.scopes.DeclareRuntime(param.Name, param.Typing)
				} else {
					g.scopes.DeclareStatic(param.Name, statics[param.Name], file)
				}
			}

			saved := g.ret
			g.ret = &returnTarget{name: fn.Signature.String()}
			defer func() { g.ret = saved }()

			return g.generateBlock(fn.Body)
		})
	})
}

// expandMacro inlines a macro call under a comptime scope with its
// parameters bound to the folded arguments. It reports the value of the
// macro's return statement, if one ran.
func (g *generator) expandMacro(call *ast.FunctionCall) (ast.Value, bool, error) {
	entry, err := g.resolve(call)
	if err != nil {
		return ast.Value{}, false, err
	}
	fn := entry.Function

	args := make([]ast.Value, len(call.Args))
	for i, a := range call.Args {
		v, err := g.fold(a)
		if err != nil {
			return ast.Value{}, false, err
		}
		args[i] = v
	}

	if g.depth >= maxDepth {
		return ast.Value{}, false, diag.Errorf(call.Position, "expansion of macro %s nested too deeply", fn.Signature)
	}
	g.depth++
	defer func() { g.depth-- }()

	target := &returnTarget{macro: true, name: fn.Signature.String(), file: g.currentFile()}
	saved := g.ret
	g.ret = target
	defer func() { g.ret = saved }()

	err = g.withScope(scope.Comptime, func() error {
		for i, param := range fn.Signature.Args {
			g.scopes.DeclareStatic(param.Name, args[i], g.currentFile())
		}
		return g.generateBlock(fn.Body)
	})
	if err != nil {
		return ast.Value{}, false, err
	}
	return target.value, target.set, nil
}
