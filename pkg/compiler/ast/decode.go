package ast

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// The document format is one s-expression written as nested YAML (or JSON)
// sequences, in the shape Ruby-style parsers produce:
//
//	[block,
//	  [defn, double, [args, n], [call, [lvar, n], "+", [lvar, n]]],
//	  [call, null, double, [lit, 21]]]
//
// Tags and names are taken from the scalar text, so YAML tag resolution
// (true, null, numbers) never changes what a node means. A leading ':' is
// accepted on tags and names so Ruby symbol dumps decode unchanged.

// DecodeError reports a malformed node in an AST document.
type DecodeError struct {
	Message string
	Pos     Position
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}
	return e.Message
}

// Decode reads a single AST from a YAML or JSON document.
func Decode(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse AST document: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &DecodeError{Message: "empty AST document"}
	}
	return decodeNode(doc.Content[0])
}

// DecodeString is Decode for string input.
func DecodeString(source string) (Node, error) {
	return Decode([]byte(source))
}

func decodeNode(n *yaml.Node) (Node, error) {
	n = deref(n)
	pos := positionOf(n)

	if n.Kind != yaml.SequenceNode {
		return nil, errorAt(n, "expected a node sequence, got %s", describe(n))
	}
	if len(n.Content) == 0 {
		return nil, errorAt(n, "empty node")
	}

	tag, err := decodeName(n.Content[0])
	if err != nil {
		return nil, err
	}
	args := n.Content[1:]

	switch tag {
	case "lit":
		if err := expectArgs(n, tag, args, 1); err != nil {
			return nil, err
		}
		v := deref(args[0])
		if v.Kind != yaml.ScalarNode {
			return nil, errorAt(v, "invalid integer literal: %s", describe(v))
		}
		value, err := strconv.ParseInt(v.Value, 0, 64)
		if err != nil {
			return nil, errorAt(v, "invalid integer literal %q", v.Value)
		}
		return &IntegerLiteral{Position: pos, Value: value}, nil

	case "str":
		if err := expectArgs(n, tag, args, 1); err != nil {
			return nil, err
		}
		v := deref(args[0])
		if v.Kind != yaml.ScalarNode {
			return nil, errorAt(v, "invalid string literal: %s", describe(v))
		}
		return &StringLiteral{Position: pos, Value: v.Value}, nil

	case "true", "false":
		if err := expectArgs(n, tag, args, 0); err != nil {
			return nil, err
		}
		return &BooleanLiteral{Position: pos, Value: tag == "true"}, nil

	case "block":
		nodes, err := decodeNodes(args)
		if err != nil {
			return nil, err
		}
		return &Block{Position: pos, Nodes: nodes}, nil

	case "lasgn":
		if err := expectArgs(n, tag, args, 2); err != nil {
			return nil, err
		}
		name, err := decodeName(args[0])
		if err != nil {
			return nil, err
		}
		value, err := decodeNode(args[1])
		if err != nil {
			return nil, err
		}
		return &Assignment{Position: pos, Name: name, Value: value}, nil

	case "lvar":
		if err := expectArgs(n, tag, args, 1); err != nil {
			return nil, err
		}
		name, err := decodeName(args[0])
		if err != nil {
			return nil, err
		}
		return &VariableReference{Position: pos, Name: name}, nil

	case "defn":
		return decodeDefinition(n, args)

	case "call":
		return decodeCall(n, args)

	case "if":
		if err := expectArgs(n, tag, args, 3); err != nil {
			return nil, err
		}
		if isNull(args[1]) || isNull(args[2]) {
			return nil, errorAt(n, "if requires both a then-branch and an else-branch")
		}
		parts, err := decodeNodes(args)
		if err != nil {
			return nil, err
		}
		return &If{Position: pos, Condition: parts[0], Then: parts[1], Else: parts[2]}, nil

	default:
		return nil, errorAt(n.Content[0], "unknown node: %s", tag)
	}
}

// decodeDefinition handles [defn, name, [args, p...], body...].
func decodeDefinition(n *yaml.Node, args []*yaml.Node) (Node, error) {
	if len(args) < 2 {
		return nil, errorAt(n, "defn expects a name and an argument list")
	}
	name, err := decodeName(args[0])
	if err != nil {
		return nil, err
	}

	list := deref(args[1])
	if list.Kind != yaml.SequenceNode || len(list.Content) == 0 {
		return nil, errorAt(list, "defn %s: expected [args, ...], got %s", name, describe(list))
	}
	head, err := decodeName(list.Content[0])
	if err != nil {
		return nil, err
	}
	if head != "args" {
		return nil, errorAt(list, "defn %s: expected [args, ...], got [%s, ...]", name, head)
	}

	params := make([]string, 0, len(list.Content)-1)
	seen := make(map[string]bool)
	for _, p := range list.Content[1:] {
		param, err := decodeName(p)
		if err != nil {
			return nil, err
		}
		if seen[param] {
			return nil, errorAt(p, "defn %s: duplicate parameter %s", name, param)
		}
		seen[param] = true
		params = append(params, param)
	}

	body, err := decodeNodes(args[2:])
	if err != nil {
		return nil, err
	}

	pos := positionOf(n)
	return &MethodDefinition{
		Position:   pos,
		Name:       name,
		Parameters: params,
		Body:       &Block{Position: pos, Nodes: body},
	}, nil
}

// decodeCall handles [call, receiver, name, args...]. A receiver is folded
// into the argument list as the first argument.
func decodeCall(n *yaml.Node, args []*yaml.Node) (Node, error) {
	if len(args) < 2 {
		return nil, errorAt(n, "call expects a receiver and a method name")
	}
	name, err := decodeName(args[1])
	if err != nil {
		return nil, err
	}

	var arguments []Node
	if !isNull(args[0]) {
		receiver, err := decodeNode(args[0])
		if err != nil {
			return nil, err
		}
		arguments = append(arguments, receiver)
	}

	rest, err := decodeNodes(args[2:])
	if err != nil {
		return nil, err
	}
	arguments = append(arguments, rest...)

	return &Call{Position: positionOf(n), Name: name, Arguments: arguments}, nil
}

func decodeNodes(ns []*yaml.Node) ([]Node, error) {
	nodes := make([]Node, 0, len(ns))
	for _, child := range ns {
		node, err := decodeNode(child)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func decodeName(n *yaml.Node) (string, error) {
	n = deref(n)
	if n.Kind != yaml.ScalarNode {
		return "", errorAt(n, "expected a name, got %s", describe(n))
	}
	name := strings.TrimPrefix(n.Value, ":")
	if name == "" {
		return "", errorAt(n, "expected a name, got an empty scalar")
	}
	return name, nil
}

func expectArgs(n *yaml.Node, tag string, args []*yaml.Node, want int) error {
	if len(args) != want {
		return errorAt(n, "%s expects %d operand(s), got %d", tag, want, len(args))
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	n = deref(n)
	if n.Kind != yaml.ScalarNode {
		return false
	}
	return n.Tag == "!!null" || n.Value == "nil"
}

func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func positionOf(n *yaml.Node) Position {
	return Position{Line: n.Line, Column: n.Column}
}

func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return fmt.Sprintf("scalar %q", n.Value)
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a sequence"
	default:
		return "an unsupported YAML node"
	}
}

func errorAt(n *yaml.Node, format string, args ...any) *DecodeError {
	return &DecodeError{Message: fmt.Sprintf(format, args...), Pos: positionOf(n)}
}
