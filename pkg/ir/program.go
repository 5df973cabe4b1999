package ir

import (
	"github.com/zurustar/mya/pkg/opcode"
	"github.com/zurustar/mya/pkg/types"
)

// Program is the result of compiling one AST: the flat instruction
// sequence plus the tables its dependencies read from.
type Program struct {
	Instructions []*Instruction
	Methods      *MethodTable
	Calls        *CallRegistry
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{
		Methods: NewMethodTable(),
		Calls:   NewCallRegistry(),
	}
}

// Append adds an instruction and assigns its index.
func (p *Program) Append(i *Instruction) *Instruction {
	i.Index = len(p.Instructions)
	p.Instructions = append(p.Instructions, i)
	return i
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// Check resolves every instruction once no more code will be added. Any
// error that was still pending is final at this point. The first error in
// program order is returned. All instructions share one Resolution, so
// each is resolved once.
func (p *Program) Check() error {
	r := NewResolution()
	for _, inst := range p.Instructions {
		if _, err := r.TypeOf(inst); err != nil {
			return at(Finalize(err), inst.Pos)
		}
	}
	return nil
}

// Types resolves every instruction, in program order. It fails like Check.
func (p *Program) Types() ([]types.Type, error) {
	r := NewResolution()
	out := make([]types.Type, len(p.Instructions))
	for idx, inst := range p.Instructions {
		t, err := r.TypeOf(inst)
		if err != nil {
			return nil, at(Finalize(err), inst.Pos)
		}
		out[idx] = t
	}
	return out, nil
}

// ResultType is the type of the program's value: the last value-producing
// instruction outside any def or if region. An empty program has type None.
func (p *Program) ResultType() (types.Type, error) {
	depth := 0
	var last *Instruction
	for _, inst := range p.Instructions {
		if depth == 0 && inst.Cmd.ProducesValue() {
			last = inst
		}
		switch inst.Cmd {
		case opcode.Def, opcode.If:
			depth++
		case opcode.EndDef, opcode.EndIf:
			depth--
		}
	}
	if last == nil {
		return types.None, nil
	}
	t, err := last.Type()
	if err != nil {
		return types.None, at(Finalize(err), last.Pos)
	}
	return t, nil
}

// Entry is the plain-data view of one instruction: its resolved type and
// its operands as [cmd, arg?, extra_arg?].
type Entry struct {
	Type        types.Type
	Instruction []any
}

// Entries converts the program to its plain-data view, resolving every
// type. Entries are in program order.
func (p *Program) Entries() ([]Entry, error) {
	ts, err := p.Types()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(p.Instructions))
	for idx, inst := range p.Instructions {
		entries[idx] = Entry{Type: ts[idx], Instruction: inst.Operands()}
	}
	return entries, nil
}
