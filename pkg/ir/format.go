package ir

import (
	"fmt"
	"strings"

	"github.com/zurustar/mya/pkg/opcode"
)

// Disassemble returns a human-readable listing of the program with each
// instruction's resolved type:
//
//	== fib ==
//	0000    1 def fib 1                 :int
//	0001    2   push_arg 0              :int
//
// Region bodies are indented. The source line column shows "|" when it
// repeats the previous one.
func Disassemble(p *Program, name string) (string, error) {
	ts, err := p.Types()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	depth := 0
	for idx, inst := range p.Instructions {
		if inst.Cmd.IsMarker() && depth > 0 {
			depth--
		}

		sb.WriteString(fmt.Sprintf("%04d ", idx))
		if idx > 0 && inst.Pos.Line == p.Instructions[idx-1].Pos.Line {
			sb.WriteString("   | ")
		} else {
			sb.WriteString(fmt.Sprintf("%4d ", inst.Pos.Line))
		}

		text := strings.Repeat("  ", depth) + inst.String()
		if inst.Cmd.ProducesValue() {
			sb.WriteString(fmt.Sprintf("%-26s %s\n", text, ts[idx].Symbol()))
		} else {
			sb.WriteString(text + "\n")
		}

		if inst.Cmd == opcode.Def || inst.Cmd == opcode.If || inst.Cmd == opcode.Else {
			depth++
		}
	}

	return sb.String(), nil
}
