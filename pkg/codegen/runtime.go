package codegen

import (
	"fmt"

	"github.com/chazu/quill/pkg/ast"
)

// Runtime layout. Storage <ns>:runtime holds:
//
//	stack   value stack for temporaries
//	frames  one compound per open scope, keyed by variable name
//	return  the value of the last executed return statement
//
// Arithmetic goes through score holders on objective <ns>.rt.
const (
	regLeft  = "#lhs"
	regRight = "#rhs"
	regCond  = "#cond"
)

func (g *generator) storage() string {
	return g.ns + ":runtime"
}

func (g *generator) objective() string {
	return g.ns + ".rt"
}

func (g *generator) pushValue(v ast.Value) string {
	return fmt.Sprintf("data modify storage %s stack append value %s", g.storage(), v.SNBT())
}

func (g *generator) pushFrom(path string) string {
	return fmt.Sprintf("data modify storage %s stack append from storage %s %s", g.storage(), g.storage(), path)
}

func (g *generator) pop() string {
	return fmt.Sprintf("data remove storage %s stack[-1]", g.storage())
}

func (g *generator) allocFrame() string {
	return fmt.Sprintf("data modify storage %s frames append value {}", g.storage())
}

func (g *generator) freeFrame() string {
	return fmt.Sprintf("data remove storage %s frames[-1]", g.storage())
}

// storeTop copies the top of the stack into path without popping it.
func (g *generator) storeTop(path string) string {
	return fmt.Sprintf("data modify storage %s %s set from storage %s stack[-1]", g.storage(), path, g.storage())
}

func (g *generator) storeValue(path string, v ast.Value) string {
	return fmt.Sprintf("data modify storage %s %s set value %s", g.storage(), path, v.SNBT())
}

// load reads stack[index] into a score holder.
func (g *generator) load(reg string, index int) string {
	return fmt.Sprintf("execute store result score %s %s run data get storage %s stack[%d]", reg, g.objective(), g.storage(), index)
}

func (g *generator) operate(op string) string {
	return fmt.Sprintf("scoreboard players operation %s %s %s %s %s", regLeft, g.objective(), op, regRight, g.objective())
}

// pushLeft pushes the left register: a placeholder cell is appended and
// then overwritten with the score.
func (g *generator) pushLeft() []string {
	return []string{
		g.pushValue(ast.IntValue(0)),
		fmt.Sprintf("execute store result storage %s stack[-1] int 1 run scoreboard players get %s %s", g.storage(), regLeft, g.objective()),
	}
}

func (g *generator) loadCond() string {
	return g.load(regCond, -1)
}

func (g *generator) runIf(file string) string {
	return fmt.Sprintf("execute if score %s %s matches 1 run function %s:%s", regCond, g.objective(), g.ns, file)
}

func (g *generator) runUnless(file string) string {
	return fmt.Sprintf("execute unless score %s %s matches 1 run function %s:%s", regCond, g.objective(), g.ns, file)
}

func (g *generator) call(file string) string {
	return fmt.Sprintf("function %s:%s", g.ns, file)
}

func (g *generator) pushReturn() string {
	return g.pushFrom("return")
}

func (g *generator) storeReturnTop() string {
	return g.storeTop("return")
}

func (g *generator) storeReturnValue(v ast.Value) string {
	return g.storeValue("return", v)
}
