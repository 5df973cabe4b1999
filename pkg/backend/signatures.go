package backend

import (
	"fmt"
	"io"
	"strings"

	"github.com/zurustar/mya/pkg/ir"
	"github.com/zurustar/mya/pkg/opcode"
	"github.com/zurustar/mya/pkg/types"
)

// Signatures prints the LLVM function signature a code generator would
// declare for every method, plus main typed by the program's result:
//
//	; fib.yaml
//	define i32 @fib(i32 %n)
//	define void @main()
type Signatures struct{}

// Name implements Backend.
func (Signatures) Name() string { return "signatures" }

// Emit implements Backend.
func (Signatures) Emit(p *ir.Program, name string, w io.Writer) error {
	if err := p.Check(); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("; %s\n", name))

	for _, inst := range p.Instructions {
		if inst.Cmd != opcode.Def {
			continue
		}
		sig, err := methodSignature(p, inst)
		if err != nil {
			return err
		}
		sb.WriteString(sig + "\n")
	}

	result, err := p.ResultType()
	if err != nil {
		return err
	}
	sb.WriteString(fmt.Sprintf("define %s @main()\n", LLVMType(result)))

	_, err = io.WriteString(w, sb.String())
	return err
}

// methodSignature reads the parameters of def from the push_arg/set_var
// pair the compiler emits for each of them right after the def.
func methodSignature(p *ir.Program, def *ir.Instruction) (string, error) {
	ret, err := def.Type()
	if err != nil {
		return "", err
	}

	params := make([]string, def.Count())
	for i := range params {
		at := def.Index + 1 + 2*i
		if at+1 >= p.Len() {
			return "", fmt.Errorf("def %s: missing parameter %d", def.Name(), i)
		}
		arg, set := p.Instructions[at], p.Instructions[at+1]
		if arg.Cmd != opcode.PushArg || set.Cmd != opcode.SetVar {
			return "", fmt.Errorf("def %s: expected push_arg/set_var for parameter %d, got %s/%s",
				def.Name(), i, arg.Cmd, set.Cmd)
		}
		t, err := arg.Type()
		if err != nil {
			return "", err
		}
		params[i] = fmt.Sprintf("%s %%%s", LLVMType(t), set.Name())
	}

	return fmt.Sprintf("define %s @%s(%s)", LLVMType(ret), def.Name(), strings.Join(params, ", ")), nil
}

// LLVMType maps an inferred type to its LLVM representation: int is a
// 32-bit integer, str a byte pointer, bool a single bit. A method or
// program without a value returns void.
func LLVMType(t types.Type) string {
	switch t {
	case types.Int:
		return "i32"
	case types.Str:
		return "i8*"
	case types.Bool:
		return "i1"
	default:
		return "void"
	}
}
