package compiler

import (
	"sort"

	"github.com/zurustar/mya/pkg/ir"
)

// Builtin describes a built-in operator. Calls to these names never
// consult the method table, so a user method with the same name neither
// collides with nor overrides them.
type Builtin struct {
	Name  string
	Rule  ir.OperatorRule
	Arity int
}

var builtins = map[string]Builtin{
	// Arithmetic
	"+": {Name: "+", Rule: ir.Arithmetic, Arity: 2},
	"-": {Name: "-", Rule: ir.Arithmetic, Arity: 2},
	"*": {Name: "*", Rule: ir.Arithmetic, Arity: 2},
	"/": {Name: "/", Rule: ir.Arithmetic, Arity: 2},

	// Comparison
	"==": {Name: "==", Rule: ir.Comparison, Arity: 2},
	"!=": {Name: "!=", Rule: ir.Comparison, Arity: 2},
	"<":  {Name: "<", Rule: ir.Comparison, Arity: 2},
	"<=": {Name: "<=", Rule: ir.Comparison, Arity: 2},
	">":  {Name: ">", Rule: ir.Comparison, Arity: 2},
	">=": {Name: ">=", Rule: ir.Comparison, Arity: 2},

	// Output
	"p": {Name: "p", Rule: ir.Effect, Arity: 1},
}

// LookupBuiltin returns the built-in operator with the given name.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

// IsBuiltin reports whether name is a built-in operator.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// BuiltinNames returns the built-in operator names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
