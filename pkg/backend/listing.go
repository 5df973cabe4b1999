package backend

import (
	"io"

	"github.com/zurustar/mya/pkg/ir"
)

// Listing prints the disassembly of a program, one instruction per line.
type Listing struct{}

// Name implements Backend.
func (Listing) Name() string { return "listing" }

// Emit implements Backend.
func (Listing) Emit(p *ir.Program, name string, w io.Writer) error {
	text, err := ir.Disassemble(p, name)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}
