package ir

import (
	"fmt"

	"github.com/zurustar/mya/pkg/opcode"
)

// Node is one element of the nested view of a program. The flat sequence
// stays the canonical form; the nested view groups each def and if region
// with its body. Marker instructions are kept on the node so Flatten
// restores the exact sequence.
type Node struct {
	Instruction *Instruction

	// def: Body and End (end_def).
	// if: Body is the then-branch, Else holds the else-branch after the
	// ElseMarker, End is end_if.
	Body       []*Node
	Else       []*Node
	ElseMarker *Instruction
	End        *Instruction
}

// Nest groups a flat instruction sequence into regions.
func Nest(instructions []*Instruction) ([]*Node, error) {
	n := &nester{instructions: instructions}
	nodes, stop, err := n.parse()
	if err != nil {
		return nil, err
	}
	if stop != nil {
		return nil, fmt.Errorf("unexpected %s at %d", stop.Cmd, n.pos-1)
	}
	return nodes, nil
}

type nester struct {
	instructions []*Instruction
	pos          int
}

// parse reads nodes until the input ends or a marker instruction is met.
// The marker is consumed and returned.
func (n *nester) parse() ([]*Node, *Instruction, error) {
	var nodes []*Node
	for n.pos < len(n.instructions) {
		inst := n.instructions[n.pos]
		n.pos++

		if inst.Cmd.IsMarker() {
			return nodes, inst, nil
		}

		node := &Node{Instruction: inst}
		switch inst.Cmd {
		case opcode.Def:
			body, stop, err := n.parse()
			if err != nil {
				return nil, nil, err
			}
			if stop == nil || stop.Cmd != opcode.EndDef {
				return nil, nil, n.unclosed(inst, stop)
			}
			node.Body, node.End = body, stop

		case opcode.If:
			then, stop, err := n.parse()
			if err != nil {
				return nil, nil, err
			}
			if stop == nil || stop.Cmd != opcode.Else {
				return nil, nil, n.unclosed(inst, stop)
			}
			els, end, err := n.parse()
			if err != nil {
				return nil, nil, err
			}
			if end == nil || end.Cmd != opcode.EndIf {
				return nil, nil, n.unclosed(inst, end)
			}
			node.Body, node.ElseMarker, node.Else, node.End = then, stop, els, end
		}
		nodes = append(nodes, node)
	}
	return nodes, nil, nil
}

func (n *nester) unclosed(open, stop *Instruction) error {
	if stop == nil {
		return fmt.Errorf("%s at %d is never closed", open.Cmd, open.Index)
	}
	return fmt.Errorf("%s at %d closed by %s at %d", open.Cmd, open.Index, stop.Cmd, n.pos-1)
}

// Flatten is the inverse of Nest.
func Flatten(nodes []*Node) []*Instruction {
	var out []*Instruction
	for _, node := range nodes {
		out = append(out, node.Instruction)
		out = append(out, Flatten(node.Body)...)
		if node.ElseMarker != nil {
			out = append(out, node.ElseMarker)
			out = append(out, Flatten(node.Else)...)
		}
		if node.End != nil {
			out = append(out, node.End)
		}
	}
	return out
}
