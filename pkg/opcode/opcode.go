// Package opcode defines the instruction set of the typed IR.
// This package is the foundation that the compiler, the IR and every
// backend depend on. The compiler emits instructions with these commands
// and backends dispatch on them.
package opcode

// Cmd represents an instruction command.
type Cmd string

// Instruction commands. The primary operand is called Arg and the
// secondary operand ExtraArg, following the instruction layout in pkg/ir.
const (
	// PushInt pushes an integer literal.
	// Arg: int64 value
	PushInt Cmd = "push_int"

	// PushStr pushes a string literal.
	// Arg: string value
	PushStr Cmd = "push_str"

	// PushTrue pushes the boolean true.
	PushTrue Cmd = "push_true"

	// PushFalse pushes the boolean false.
	PushFalse Cmd = "push_false"

	// SetVar pops the top value into a variable of the current scope.
	// Arg: variable name
	SetVar Cmd = "set_var"

	// PushVar pushes the current value of a variable.
	// Arg: variable name
	PushVar Cmd = "push_var"

	// Def opens a method body. Everything up to the matching EndDef
	// belongs to the method.
	// Arg: method name, ExtraArg: parameter count
	Def Cmd = "def"

	// EndDef closes the method body opened by Def.
	// Arg: method name
	EndDef Cmd = "end_def"

	// PushArg pushes the incoming argument at an index.
	// Arg: argument index
	PushArg Cmd = "push_arg"

	// Call invokes a method or a built-in operator with the values on the stack.
	// Arg: method name, ExtraArg: argument count
	Call Cmd = "call"

	// If pops a condition and opens the then-branch.
	If Cmd = "if"

	// Else closes the then-branch and opens the else-branch.
	Else Cmd = "else"

	// EndIf closes the else-branch.
	EndIf Cmd = "end_if"
)

// ProducesValue reports whether instructions with this command leave a
// value behind and therefore carry a type. Def is included: its type
// mirrors the method body's final value.
func (c Cmd) ProducesValue() bool {
	switch c {
	case PushInt, PushStr, PushTrue, PushFalse, SetVar, PushVar, Def, PushArg, Call, If:
		return true
	default:
		return false
	}
}

// Closer returns the command that closes a region opened by c, or "" if
// c does not open one.
func (c Cmd) Closer() Cmd {
	switch c {
	case Def:
		return EndDef
	case If:
		return EndIf
	default:
		return ""
	}
}

// IsMarker reports whether c only delimits a region.
func (c Cmd) IsMarker() bool {
	return c == EndDef || c == Else || c == EndIf
}

// Valid reports whether c is part of the instruction set.
func (c Cmd) Valid() bool {
	switch c {
	case PushInt, PushStr, PushTrue, PushFalse, SetVar, PushVar, Def, EndDef, PushArg, Call, If, Else, EndIf:
		return true
	default:
		return false
	}
}
