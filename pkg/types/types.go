// Package types defines the concrete value types the compiler can infer.
// There is no unification and no generic type: every value-producing
// instruction resolves to exactly one of these.
package types

import "strings"

// Type is a concrete inferred type.
type Type string

const (
	// None is reported by instructions that produce no value
	// (scope markers, print calls, empty method bodies).
	None Type = ""

	Int  Type = "int"
	Str  Type = "str"
	Bool Type = "bool"
)

// String returns the type name, or "nil" for None.
func (t Type) String() string {
	if t == None {
		return "nil"
	}
	return string(t)
}

// Symbol renders the type the way diagnostics print it, e.g. ":int".
func (t Type) Symbol() string {
	return ":" + t.String()
}

// IsValue reports whether t is a concrete value type.
func (t Type) IsValue() bool {
	return t != None
}

// Set accumulates distinct types in first-seen order.
// The zero value is ready to use.
type Set struct {
	order []Type
}

// Add records t if it has not been seen yet.
func (s *Set) Add(t Type) {
	for _, seen := range s.order {
		if seen == t {
			return
		}
	}
	s.order = append(s.order, t)
}

// Len returns the number of distinct types recorded.
func (s *Set) Len() int {
	return len(s.order)
}

// Types returns the distinct types in first-seen order.
func (s *Set) Types() []Type {
	out := make([]Type, len(s.order))
	copy(out, s.order)
	return out
}

// Only returns the single recorded type. ok is false unless exactly one
// type was recorded.
func (s *Set) Only() (Type, bool) {
	if len(s.order) != 1 {
		return None, false
	}
	return s.order[0], true
}

// FormatList renders types as "[:int, :str]", preserving order.
func FormatList(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.Symbol()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
