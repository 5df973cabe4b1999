// Package compiler provides IR generation for parsed programs.
// It walks an AST once, depth first, and appends typed instructions whose
// types are resolved lazily through the tables in pkg/ir.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/zurustar/mya/pkg/compiler/ast"
	"github.com/zurustar/mya/pkg/ir"
	"github.com/zurustar/mya/pkg/logger"
	"github.com/zurustar/mya/pkg/opcode"
	"github.com/zurustar/mya/pkg/types"
)

// CompilerError represents a structural problem found while walking the
// AST: an unknown node, a bad operator arity, a value-less argument.
// Type conflicts are reported as *ir.TypeError instead.
type CompilerError struct {
	Kind    ir.ErrorKind
	Message string
	Line    int
	Column  int
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compiler error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("compiler error: %s", e.Message)
}

// NewCompilerError creates a new CompilerError with the given kind, message and location.
func NewCompilerError(kind ir.ErrorKind, message string, pos ast.Position) *CompilerError {
	return &CompilerError{
		Kind:    kind,
		Message: message,
		Line:    pos.Line,
		Column:  pos.Column,
	}
}

// Compiler generates IR from an AST.
type Compiler struct {
	log *slog.Logger
}

// New creates a new Compiler that logs through the application logger.
func New() *Compiler {
	return &Compiler{log: logger.GetLogger()}
}

// WithLogger returns a copy of c that logs to l.
func (c *Compiler) WithLogger(l *slog.Logger) *Compiler {
	return &Compiler{log: l}
}

// Compile walks root and returns the program once every instruction's type
// has been resolved. Any error aborts compilation; no partial program is
// returned.
func (c *Compiler) Compile(root ast.Node) (*ir.Program, error) {
	if root == nil {
		return nil, NewCompilerError(ir.ErrUnknownNode, "program is nil", ast.Position{})
	}

	w := newWalker(c.log)
	if _, err := w.walk(root); err != nil {
		return nil, err
	}
	if err := w.program.Check(); err != nil {
		return nil, err
	}

	c.log.Debug("Compiled program",
		"instructions", w.program.Len(),
		"methods", len(w.program.Methods.Names()))
	return w.program, nil
}

// walker is the state threaded through one compilation: the program being
// built and the stack of variable scopes. The top-level scope is always at
// the bottom of the stack.
type walker struct {
	program *ir.Program
	scopes  []*ir.Scope
	log     *slog.Logger
}

func newWalker(log *slog.Logger) *walker {
	return &walker{
		program: ir.NewProgram(),
		scopes:  []*ir.Scope{ir.NewScope("")},
		log:     log,
	}
}

func (w *walker) scope() *ir.Scope {
	return w.scopes[len(w.scopes)-1]
}

func (w *walker) pushScope(name string) {
	w.scopes = append(w.scopes, ir.NewScope(name))
	w.log.Debug("Entered scope", "method", name, "depth", len(w.scopes))
}

func (w *walker) popScope() {
	w.log.Debug("Left scope", "method", w.scope().Name, "depth", len(w.scopes))
	w.scopes = w.scopes[:len(w.scopes)-1]
}

// emit appends an instruction for node.
func (w *walker) emit(node ast.Node, cmd opcode.Cmd, arg any, dep ir.Dependency) *ir.Instruction {
	inst := ir.NewInstruction(cmd, arg)
	inst.Pos = node.Pos()
	if dep != nil {
		inst.SetDependency(dep)
	}
	return w.program.Append(inst)
}

// walk compiles a node and returns the instruction holding its value, or
// nil if the node produces none.
func (w *walker) walk(node ast.Node) (*ir.Instruction, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return w.emit(n, opcode.PushInt, n.Value, ir.Constant(types.Int)), nil
	case *ast.StringLiteral:
		return w.emit(n, opcode.PushStr, n.Value, ir.Constant(types.Str)), nil
	case *ast.BooleanLiteral:
		if n.Value {
			return w.emit(n, opcode.PushTrue, nil, ir.Constant(types.Bool)), nil
		}
		return w.emit(n, opcode.PushFalse, nil, ir.Constant(types.Bool)), nil
	case *ast.Block:
		return w.walkBlock(n)
	case *ast.Assignment:
		return w.walkAssignment(n)
	case *ast.VariableReference:
		return w.emit(n, opcode.PushVar, n.Name, &ir.VariableDependency{Scope: w.scope(), Name: n.Name}), nil
	case *ast.MethodDefinition:
		return w.walkDefinition(n)
	case *ast.Call:
		return w.walkCall(n)
	case *ast.If:
		return w.walkIf(n)
	default:
		var pos ast.Position
		if node != nil {
			pos = node.Pos()
		}
		return nil, NewCompilerError(ir.ErrUnknownNode, fmt.Sprintf("unknown node type: %T", node), pos)
	}
}

// walkBlock compiles each child in order. The block's value is its last
// child's value.
func (w *walker) walkBlock(b *ast.Block) (*ir.Instruction, error) {
	var last *ir.Instruction
	for _, child := range b.Nodes {
		inst, err := w.walk(child)
		if err != nil {
			return nil, err
		}
		last = inst
	}
	return last, nil
}

func (w *walker) walkAssignment(a *ast.Assignment) (*ir.Instruction, error) {
	value, err := w.walk(a.Value)
	if err != nil {
		return nil, err
	}

	var dep ir.Dependency
	if value != nil {
		dep = value
	}
	return w.assign(a, a.Name, dep)
}

// assign emits set_var, records it and re-checks the variable so a type
// conflict is reported at the conflicting assignment.
func (w *walker) assign(node ast.Node, name string, dep ir.Dependency) (*ir.Instruction, error) {
	inst := w.emit(node, opcode.SetVar, name, dep)
	w.scope().Record(name, inst)
	if err := w.scope().Check(name); err != nil {
		if te, ok := ir.AsTypeError(err); ok && !te.Pos.IsValid() {
			te.Pos = node.Pos()
		}
		return nil, err
	}
	return inst, nil
}

func (w *walker) walkDefinition(d *ast.MethodDefinition) (*ir.Instruction, error) {
	arity := len(d.Parameters)
	def := w.emit(d, opcode.Def, d.Name, nil)
	def.ExtraArg = arity

	w.pushScope(d.Name)
	for i, param := range d.Parameters {
		arg := w.emit(d, opcode.PushArg, i, &ir.CallArgDependency{
			Calls:  w.program.Calls,
			Method: d.Name,
			Index:  i,
			Name:   param,
			Arity:  arity,
		})
		if _, err := w.assign(d, param, arg); err != nil {
			return nil, err
		}
	}

	var last *ir.Instruction
	if d.Body != nil {
		var err error
		if last, err = w.walkBlock(d.Body); err != nil {
			return nil, err
		}
	}
	if last != nil {
		def.SetDependency(last)
	} else {
		def.SetDependency(ir.Constant(types.None))
	}

	if err := w.program.Methods.Define(d.Name, def); err != nil {
		return nil, err
	}
	w.popScope()
	w.emit(d, opcode.EndDef, d.Name, nil)

	w.log.Debug("Defined method", "name", d.Name, "params", arity)
	return def, nil
}

func (w *walker) walkCall(c *ast.Call) (*ir.Instruction, error) {
	args := make([]*ir.Instruction, 0, len(c.Arguments))
	for i, argument := range c.Arguments {
		inst, err := w.walk(argument)
		if err != nil {
			return nil, err
		}
		if inst == nil {
			return nil, NewCompilerError(ir.ErrUnresolved,
				fmt.Sprintf("argument %d of '%s' has no value", i+1, c.Name), argument.Pos())
		}
		args = append(args, inst)
	}

	// The site must be visible before the call exists so recursive
	// parameter lookups see it.
	w.program.Calls.Record(c.Name, args, c.Pos())
	w.log.Debug("Recorded call site", "method", c.Name, "args", len(args))

	var dep ir.Dependency
	if op, ok := LookupBuiltin(c.Name); ok {
		if len(args) != op.Arity {
			return nil, NewCompilerError(ir.ErrArity,
				fmt.Sprintf("wrong number of arguments for '%s' (given %d, expected %d)", c.Name, len(args), op.Arity),
				c.Pos())
		}
		dep = &ir.OperatorDependency{Operator: c.Name, Rule: op.Rule, Operands: args}
	} else {
		dep = &ir.MethodDependency{Methods: w.program.Methods, Name: c.Name, Argc: len(args)}
	}

	call := w.emit(c, opcode.Call, c.Name, dep)
	call.ExtraArg = len(args)
	return call, nil
}

func (w *walker) walkIf(n *ast.If) (*ir.Instruction, error) {
	if _, err := w.walk(n.Condition); err != nil {
		return nil, err
	}
	cond := w.emit(n, opcode.If, nil, nil)

	then, err := w.walk(n.Then)
	if err != nil {
		return nil, err
	}
	w.emit(n, opcode.Else, nil, nil)
	els, err := w.walk(n.Else)
	if err != nil {
		return nil, err
	}
	w.emit(n, opcode.EndIf, nil, nil)

	cond.SetDependency(&ir.BranchDependency{Then: then, Else: els})
	return cond, nil
}
