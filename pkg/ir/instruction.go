// Package ir implements the typed intermediate representation: a flat,
// append-only instruction sequence whose types are resolved lazily through
// a graph of dependencies.
package ir

import (
	"fmt"
	"strings"

	"github.com/zurustar/mya/pkg/compiler/ast"
	"github.com/zurustar/mya/pkg/opcode"
	"github.com/zurustar/mya/pkg/types"
)

// Instruction is one IR operation.
//
// Arg holds the primary operand (int64 or string literal, a variable or
// method name, or an argument index). ExtraArg holds the secondary operand
// (argument or parameter count) when the command has one. The dependency
// answers Type and is set at most once.
type Instruction struct {
	Cmd      opcode.Cmd
	Arg      any
	ExtraArg any
	Index    int          // position in the program
	Pos      ast.Position // source node that emitted it

	dependency Dependency
}

// NewInstruction creates an instruction with only a primary operand.
func NewInstruction(cmd opcode.Cmd, arg any) *Instruction {
	return &Instruction{Cmd: cmd, Arg: arg}
}

// SetDependency attaches the dependency that answers Type.
// It panics if the instruction already has one.
func (i *Instruction) SetDependency(dep Dependency) {
	if i.dependency != nil {
		panic(fmt.Sprintf("ir: instruction %s already has a dependency", i))
	}
	i.dependency = dep
}

// Dependency returns the attached dependency, or nil.
func (i *Instruction) Dependency() Dependency {
	return i.dependency
}

// Type resolves the instruction's type. Repeated calls are legal and give
// the same answer for the same table contents. Instructions that produce
// no value report types.None. The error may be a *PendingError while the
// program is still being built.
func (i *Instruction) Type() (types.Type, error) {
	return NewResolution().TypeOf(i)
}

// Resolve makes an instruction usable as a dependency of another one:
// the dependent instruction has the same type.
func (i *Instruction) Resolve(r *Resolution) (types.Type, error) {
	return r.TypeOf(i)
}

// Operands returns [Cmd, Arg?, ExtraArg?] with absent operands omitted.
func (i *Instruction) Operands() []any {
	ops := []any{i.Cmd}
	if i.Arg != nil {
		ops = append(ops, i.Arg)
	}
	if i.ExtraArg != nil {
		ops = append(ops, i.ExtraArg)
	}
	return ops
}

// String renders the instruction as "cmd arg extra".
func (i *Instruction) String() string {
	parts := []string{string(i.Cmd)}
	if i.Arg != nil {
		if s, ok := i.Arg.(string); ok && i.Cmd == opcode.PushStr {
			parts = append(parts, fmt.Sprintf("%q", s))
		} else {
			parts = append(parts, fmt.Sprint(i.Arg))
		}
	}
	if i.ExtraArg != nil {
		parts = append(parts, fmt.Sprint(i.ExtraArg))
	}
	return strings.Join(parts, " ")
}

// Name returns Arg as a string for named commands (set_var, push_var,
// def, end_def, call), or "".
func (i *Instruction) Name() string {
	s, _ := i.Arg.(string)
	return s
}

// Count returns ExtraArg as an int, or 0.
func (i *Instruction) Count() int {
	n, _ := i.ExtraArg.(int)
	return n
}
