package ir

import (
	"fmt"
	"math"

	"github.com/zurustar/mya/pkg/opcode"
	"github.com/zurustar/mya/pkg/types"
)

// Dependency answers "what type does this instruction have?". Each variant
// holds a reference to the tables it needs, so resolution is pulled on
// demand instead of being computed while the program is emitted.
type Dependency interface {
	Resolve(r *Resolution) (types.Type, error)
}

// Resolution is one type query, or a batch of queries over tables that no
// longer change. It tracks the instructions and variables currently being
// resolved. Meeting one that is already active means the query looped back
// on itself; that path yields a PendingError so branch and operand rules
// can fall back to the other inputs.
//
// Results that did not depend on an enclosing active entry are kept, so
// each instruction and variable is resolved at most once per query.
type Resolution struct {
	active map[any]int // entry -> depth on the active path
	done   map[any]resolved
	depth  int
	low    int // shallowest active depth hit by a loop in the current entry
}

type resolved struct {
	t   types.Type
	err error
}

// variableKey identifies a variable within its scope.
type variableKey struct {
	scope *Scope
	name  string
}

// NewResolution starts a fresh type query.
func NewResolution() *Resolution {
	return &Resolution{
		active: make(map[any]int),
		done:   make(map[any]resolved),
		low:    math.MaxInt,
	}
}

// TypeOf resolves an instruction within this query.
func (r *Resolution) TypeOf(i *Instruction) (types.Type, error) {
	if i.dependency == nil {
		return types.None, nil
	}
	return r.enter(i,
		func() error {
			return pending(ErrUnresolved, "Could not infer type of %s: it only depends on itself", i)
		},
		func() (types.Type, error) {
			t, err := i.dependency.Resolve(r)
			if err != nil {
				return types.None, at(err, i.Pos)
			}
			return t, nil
		})
}

// variableType resolves a variable from its assignment history. A variable
// read while its own history is being resolved is pending.
func (r *Resolution) variableType(s *Scope, name string) (types.Type, error) {
	return r.enter(variableKey{scope: s, name: name},
		func() error {
			return pending(ErrUnresolved, "Could not infer type of %s %s: it only depends on itself", opcode.PushVar, name)
		},
		func() (types.Type, error) {
			return s.typeOf(name, r)
		})
}

func (r *Resolution) enter(key any, loop func() error, resolve func() (types.Type, error)) (types.Type, error) {
	if res, ok := r.done[key]; ok {
		return res.t, res.err
	}
	if d, ok := r.active[key]; ok {
		r.low = min(r.low, d)
		return types.None, loop()
	}

	r.depth++
	d := r.depth
	r.active[key] = d
	outer := r.low
	r.low = math.MaxInt

	t, err := resolve()

	delete(r.active, key)
	r.depth--
	// Only loops back to this entry or below: the result holds for any
	// query that reaches it.
	if r.low >= d {
		r.done[key] = resolved{t: t, err: err}
	}
	r.low = min(outer, r.low)
	return t, err
}

// Constant is a type known when the instruction is emitted.
type Constant types.Type

// Resolve returns the constant type.
func (c Constant) Resolve(*Resolution) (types.Type, error) {
	return types.Type(c), nil
}

// VariableDependency is the type of a variable in a scope. It is bound to
// the scope, not to a particular assignment, so assignments recorded later
// are seen too.
type VariableDependency struct {
	Scope *Scope
	Name  string
}

// Resolve reads the variable's assignment history.
func (d *VariableDependency) Resolve(r *Resolution) (types.Type, error) {
	return r.variableType(d.Scope, d.Name)
}

// CallArgDependency is the type of a method parameter, taken from the
// argument passed at that index by every recorded call site.
type CallArgDependency struct {
	Calls  *CallRegistry
	Method string
	Index  int
	Name   string // parameter name, for messages
	Arity  int    // declared parameter count
}

// Resolve unifies the argument types across call sites.
func (d *CallArgDependency) Resolve(r *Resolution) (types.Type, error) {
	sites := d.Calls.Sites(d.Method)
	if len(sites) == 0 {
		return types.None, pending(ErrNotEnoughInformation,
			"Not enough information to infer type of argument '%s' in method '%s'", d.Name, d.Method)
	}

	var (
		seen         types.Set
		firstPending error
	)
	for _, site := range sites {
		if d.Index >= len(site.Args) {
			return types.None, &TypeError{
				Kind:    ErrArity,
				Message: arityMessage(d.Method, len(site.Args), d.Arity),
				Pos:     site.Pos,
			}
		}
		t, err := r.TypeOf(site.Args[d.Index])
		if err != nil {
			if IsPending(err) {
				if firstPending == nil {
					firstPending = err
				}
				continue
			}
			return types.None, err
		}
		seen.Add(t)
	}

	if seen.Len() == 0 {
		return types.None, firstPending
	}
	if t, ok := seen.Only(); ok {
		return t, nil
	}
	return types.None, NewTypeError(ErrArgumentTypes,
		"Argument '%s' in method '%s' was called with more than one type: %s",
		d.Name, d.Method, types.FormatList(seen.Types()))
}

// MethodDependency is the return type of a user method, looked up by name
// when resolved. Deferring the lookup lets a method call itself and lets a
// call appear before the definition it targets.
type MethodDependency struct {
	Methods *MethodTable
	Name    string
	Argc    int
}

// Resolve finds the definition and takes its type.
func (d *MethodDependency) Resolve(r *Resolution) (types.Type, error) {
	def, ok := d.Methods.Lookup(d.Name)
	if !ok {
		return types.None, pending(ErrUnknownMethod, "Method '%s' not found", d.Name)
	}
	if want := def.Count(); want != d.Argc {
		return types.None, NewTypeError(ErrArity, "%s", arityMessage(d.Name, d.Argc, want))
	}
	return r.TypeOf(def)
}

// BranchDependency is the type of an if: both branches must agree. A nil
// branch contributes types.None.
type BranchDependency struct {
	Then *Instruction
	Else *Instruction
}

// Resolve unifies the branch types. A branch that only loops back on
// itself is skipped, which lets a recursive method take its type from the
// base case.
func (d *BranchDependency) Resolve(r *Resolution) (types.Type, error) {
	var (
		seen         types.Set
		firstPending error
	)
	for _, branch := range []*Instruction{d.Then, d.Else} {
		if branch == nil {
			seen.Add(types.None)
			continue
		}
		t, err := r.TypeOf(branch)
		if err != nil {
			if IsPending(err) {
				if firstPending == nil {
					firstPending = err
				}
				continue
			}
			return types.None, err
		}
		seen.Add(t)
	}

	if seen.Len() == 0 {
		return types.None, firstPending
	}
	if t, ok := seen.Only(); ok {
		return t, nil
	}
	return types.None, NewTypeError(ErrBranchTypes,
		"Instruction '%s' could have more than one type: %s",
		opcode.If, types.FormatList(seen.Types()))
}

// OperatorRule decides the result type of a built-in operator.
type OperatorRule int

const (
	// Arithmetic takes the type of its first resolvable operand.
	Arithmetic OperatorRule = iota
	// Comparison always yields bool.
	Comparison
	// Effect yields no value.
	Effect
)

// OperatorDependency is the type of a built-in operator call.
type OperatorDependency struct {
	Operator string
	Rule     OperatorRule
	Operands []*Instruction
}

// Resolve applies the operator's rule.
func (d *OperatorDependency) Resolve(r *Resolution) (types.Type, error) {
	switch d.Rule {
	case Comparison:
		return types.Bool, nil
	case Effect:
		return types.None, nil
	}

	var firstPending error
	for _, operand := range d.Operands {
		t, err := r.TypeOf(operand)
		if err != nil {
			if IsPending(err) {
				if firstPending == nil {
					firstPending = err
				}
				continue
			}
			return types.None, err
		}
		return t, nil
	}
	if firstPending == nil {
		return types.None, pending(ErrUnresolved, "Could not infer type of operator '%s'", d.Operator)
	}
	return types.None, firstPending
}

func arityMessage(name string, given, expected int) string {
	return fmt.Sprintf("wrong number of arguments for '%s' (given %d, expected %d)", name, given, expected)
}
