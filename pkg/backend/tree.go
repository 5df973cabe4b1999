package backend

import (
	"io"

	"github.com/zurustar/mya/pkg/ir"
	"github.com/zurustar/mya/pkg/opcode"
)

// treeDoc is the YAML shape of one node of the nested view. A def carries
// its body; an if carries both branches.
type treeDoc struct {
	Type        string    `yaml:"type"`
	Instruction []any     `yaml:"instruction,flow"`
	Body        []treeDoc `yaml:"body,omitempty"`
	IfTrue      []treeDoc `yaml:"if_true,omitempty"`
	IfFalse     []treeDoc `yaml:"if_false,omitempty"`
}

// Tree writes the nested view of a program: def bodies and if branches
// become child lists and the closing markers are dropped. It is a view for
// inspection; the flat sequence stays canonical.
type Tree struct{}

// Name implements Backend.
func (Tree) Name() string { return "tree" }

// Emit implements Backend.
func (Tree) Emit(p *ir.Program, name string, w io.Writer) error {
	// Resolve everything first so a type error is reported once, in
	// program order, like the other backends.
	if err := p.Check(); err != nil {
		return err
	}

	nodes, err := ir.Nest(p.Instructions)
	if err != nil {
		return err
	}

	docs, err := treeDocs(nodes)
	if err != nil {
		return err
	}
	return writeYAML(w, name, docs)
}

func treeDocs(nodes []*ir.Node) ([]treeDoc, error) {
	docs := make([]treeDoc, 0, len(nodes))
	for _, n := range nodes {
		t, err := n.Instruction.Type()
		if err != nil {
			return nil, err
		}
		doc := treeDoc{Type: t.String(), Instruction: plainOperands(n.Instruction.Operands())}

		switch n.Instruction.Cmd {
		case opcode.Def:
			if doc.Body, err = treeDocs(n.Body); err != nil {
				return nil, err
			}
		case opcode.If:
			if doc.IfTrue, err = treeDocs(n.Body); err != nil {
				return nil, err
			}
			if doc.IfFalse, err = treeDocs(n.Else); err != nil {
				return nil, err
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
