package backend

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/zurustar/mya/pkg/ir"
	"github.com/zurustar/mya/pkg/opcode"
)

// entryDoc is the YAML shape of one instruction.
type entryDoc struct {
	Type        string `yaml:"type"`
	Instruction []any  `yaml:"instruction,flow"`
}

// Entries writes the flat instruction sequence as a YAML list of
// {type, instruction} mappings.
type Entries struct{}

// Name implements Backend.
func (Entries) Name() string { return "entries" }

// Emit implements Backend.
func (Entries) Emit(p *ir.Program, name string, w io.Writer) error {
	entries, err := p.Entries()
	if err != nil {
		return err
	}

	docs := make([]entryDoc, len(entries))
	for i, e := range entries {
		docs[i] = entryDoc{Type: e.Type.String(), Instruction: plainOperands(e.Instruction)}
	}
	return writeYAML(w, name, docs)
}

// plainOperands converts opcode.Cmd operands to strings so the YAML
// output does not depend on Go type names.
func plainOperands(ops []any) []any {
	out := make([]any, len(ops))
	for i, op := range ops {
		if cmd, ok := op.(opcode.Cmd); ok {
			out[i] = string(cmd)
		} else {
			out[i] = op
		}
	}
	return out
}

func writeYAML(w io.Writer, name string, v any) error {
	if _, err := fmt.Fprintf(w, "# %s\n", name); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return enc.Close()
}
