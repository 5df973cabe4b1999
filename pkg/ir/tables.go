package ir

import (
	"sort"

	"github.com/zurustar/mya/pkg/compiler/ast"
	"github.com/zurustar/mya/pkg/types"
)

// Scope maps variable names to their assignment history within one method
// body or the top level. Scopes do not nest: a method body never sees the
// variables of the code around it.
//
// Tables are written only by the walker and read by type queries; neither
// runs concurrently with the other.
type Scope struct {
	Name string // method name, or "" for the top level

	assignments map[string][]*Instruction
	names       []string
}

// NewScope creates an empty scope.
func NewScope(name string) *Scope {
	return &Scope{
		Name:        name,
		assignments: make(map[string][]*Instruction),
	}
}

// Record appends an assignment instruction to a variable's history.
func (s *Scope) Record(name string, assignment *Instruction) {
	if _, ok := s.assignments[name]; !ok {
		s.names = append(s.names, name)
	}
	s.assignments[name] = append(s.assignments[name], assignment)
}

// History returns the assignments of a variable in program order.
func (s *Scope) History(name string) []*Instruction {
	history := s.assignments[name]
	out := make([]*Instruction, len(history))
	copy(out, history)
	return out
}

// Names returns the assigned variable names in first-assignment order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Check verifies that the assignments of a variable seen so far agree on
// one type. Assignments that cannot be resolved yet are skipped; only a
// terminal error is returned.
func (s *Scope) Check(name string) error {
	if _, err := NewResolution().variableType(s, name); err != nil && !IsPending(err) {
		return err
	}
	return nil
}

// TypeOf resolves the type of a variable from all of its assignments.
func (s *Scope) TypeOf(name string) (types.Type, error) {
	return NewResolution().variableType(s, name)
}

// typeOf unifies the types of all assignments. An assignment of a value
// with no type does not take part.
func (s *Scope) typeOf(name string, r *Resolution) (types.Type, error) {
	history := s.History(name)
	if len(history) == 0 {
		return types.None, pending(ErrUnresolved, "Variable '%s' has no assignment in this scope", name)
	}

	var (
		seen         types.Set
		firstPending error
		valueless    bool
	)
	for _, assignment := range history {
		t, err := r.TypeOf(assignment)
		if err != nil {
			if IsPending(err) {
				if firstPending == nil {
					firstPending = err
				}
				continue
			}
			return types.None, err
		}
		if t == types.None {
			valueless = true
			continue
		}
		seen.Add(t)
	}

	if seen.Len() == 0 {
		if valueless {
			return types.None, nil
		}
		return types.None, firstPending
	}
	if t, ok := seen.Only(); ok {
		return t, nil
	}
	return types.None, NewTypeError(ErrVariableTypes,
		"Variable %s was set with more than one type: %s", name, types.FormatList(seen.Types()))
}

// CallSite is one recorded call: the instructions that produce its
// arguments, in order.
type CallSite struct {
	Args []*Instruction
	Pos  ast.Position
}

// CallRegistry records every call site by callee name, operators included.
// Sites are recorded before the call instruction itself is emitted.
type CallRegistry struct {
	sites map[string][]CallSite
}

// NewCallRegistry creates an empty registry.
func NewCallRegistry() *CallRegistry {
	return &CallRegistry{sites: make(map[string][]CallSite)}
}

// Record appends a call site for a callee.
func (c *CallRegistry) Record(method string, args []*Instruction, pos ast.Position) {
	site := CallSite{Args: make([]*Instruction, len(args)), Pos: pos}
	copy(site.Args, args)
	c.sites[method] = append(c.sites[method], site)
}

// Sites returns the call sites of a callee in program order.
func (c *CallRegistry) Sites(method string) []CallSite {
	sites := c.sites[method]
	out := make([]CallSite, len(sites))
	copy(out, sites)
	return out
}

// Methods returns every callee name with at least one site, sorted.
func (c *CallRegistry) Methods() []string {
	names := make([]string, 0, len(c.sites))
	for name := range c.sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MethodTable maps method names to their def instructions.
type MethodTable struct {
	defs  map[string]*Instruction
	names []string
}

// NewMethodTable creates an empty table.
func NewMethodTable() *MethodTable {
	return &MethodTable{defs: make(map[string]*Instruction)}
}

// Define registers a method. It returns a DUPLICATE_METHOD error if the
// name is already taken.
func (m *MethodTable) Define(name string, def *Instruction) error {
	if _, exists := m.defs[name]; exists {
		return &TypeError{
			Kind:    ErrDuplicateMethod,
			Message: "Method '" + name + "' is already defined",
			Pos:     def.Pos,
		}
	}
	m.defs[name] = def
	m.names = append(m.names, name)
	return nil
}

// Lookup returns the def instruction of a method.
func (m *MethodTable) Lookup(name string) (*Instruction, bool) {
	def, ok := m.defs[name]
	return def, ok
}

// Names returns method names in definition order.
func (m *MethodTable) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}
