// Package ast defines the abstract syntax tree consumed by the compiler.
// The tree is produced by an external parser; Decode reads it from the
// s-expression document format described in decode.go.
package ast

import (
	"bytes"
	"strconv"
	"strings"
)

// Position is a 1-indexed location in the document the node was decoded
// from. The zero Position means the node was built in code.
type Position struct {
	Line   int
	Column int
}

// Pos returns p. Embedding Position gives every node its Pos method.
func (p Position) Pos() Position { return p }

// IsValid reports whether p points into a document.
func (p Position) IsValid() bool { return p.Line > 0 }

// Node is the interface for all AST nodes.
type Node interface {
	Pos() Position
	// Kind returns the s-expression tag of the node, e.g. "lasgn".
	Kind() string
	String() string
	node()
}

// IntegerLiteral
type IntegerLiteral struct {
	Position
	Value int64
}

func (n *IntegerLiteral) node()        {}
func (n *IntegerLiteral) Kind() string { return "lit" }
func (n *IntegerLiteral) String() string {
	return "(lit " + strconv.FormatInt(n.Value, 10) + ")"
}

// StringLiteral
type StringLiteral struct {
	Position
	Value string
}

func (n *StringLiteral) node()          {}
func (n *StringLiteral) Kind() string   { return "str" }
func (n *StringLiteral) String() string { return "(str " + strconv.Quote(n.Value) + ")" }

// BooleanLiteral
type BooleanLiteral struct {
	Position
	Value bool
}

func (n *BooleanLiteral) node() {}
func (n *BooleanLiteral) Kind() string {
	if n.Value {
		return "true"
	}
	return "false"
}
func (n *BooleanLiteral) String() string { return "(" + n.Kind() + ")" }

// Block is a sequence of nodes. Its value is the value of its last node.
type Block struct {
	Position
	Nodes []Node
}

func (n *Block) node()        {}
func (n *Block) Kind() string { return "block" }
func (n *Block) String() string {
	var out bytes.Buffer
	out.WriteString("(block")
	for _, child := range n.Nodes {
		out.WriteString(" ")
		out.WriteString(child.String())
	}
	out.WriteString(")")
	return out.String()
}

// Assignment binds the value of an expression to a local variable.
// Example: a = 1
type Assignment struct {
	Position
	Name  string
	Value Node
}

func (n *Assignment) node()        {}
func (n *Assignment) Kind() string { return "lasgn" }
func (n *Assignment) String() string {
	return "(lasgn " + n.Name + " " + n.Value.String() + ")"
}

// VariableReference reads a local variable.
type VariableReference struct {
	Position
	Name string
}

func (n *VariableReference) node()          {}
func (n *VariableReference) Kind() string   { return "lvar" }
func (n *VariableReference) String() string { return "(lvar " + n.Name + ")" }

// MethodDefinition defines a named method.
// Example: def foo(a, b) ... end
type MethodDefinition struct {
	Position
	Name       string
	Parameters []string
	Body       *Block
}

func (n *MethodDefinition) node()        {}
func (n *MethodDefinition) Kind() string { return "defn" }
func (n *MethodDefinition) String() string {
	var out bytes.Buffer
	out.WriteString("(defn ")
	out.WriteString(n.Name)
	out.WriteString(" (args")
	if len(n.Parameters) > 0 {
		out.WriteString(" ")
		out.WriteString(strings.Join(n.Parameters, " "))
	}
	out.WriteString(")")
	if n.Body != nil {
		for _, child := range n.Body.Nodes {
			out.WriteString(" ")
			out.WriteString(child.String())
		}
	}
	out.WriteString(")")
	return out.String()
}

// Call invokes a user-defined method or a built-in operator.
// Operator receivers are already folded into Arguments, so `a + b` is
// Call{Name: "+", Arguments: [a, b]}.
type Call struct {
	Position
	Name      string
	Arguments []Node
}

func (n *Call) node()        {}
func (n *Call) Kind() string { return "call" }
func (n *Call) String() string {
	var out bytes.Buffer
	out.WriteString("(call ")
	out.WriteString(n.Name)
	for _, arg := range n.Arguments {
		out.WriteString(" ")
		out.WriteString(arg.String())
	}
	out.WriteString(")")
	return out.String()
}

// If is a two-armed conditional. Its value is the value of the branch taken.
type If struct {
	Position
	Condition Node
	Then      Node
	Else      Node
}

func (n *If) node()        {}
func (n *If) Kind() string { return "if" }
func (n *If) String() string {
	return "(if " + n.Condition.String() + " " + n.Then.String() + " " + n.Else.String() + ")"
}
