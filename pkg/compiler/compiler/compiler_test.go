package compiler

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zurustar/mya/pkg/compiler/ast"
	"github.com/zurustar/mya/pkg/ir"
	"github.com/zurustar/mya/pkg/opcode"
	"github.com/zurustar/mya/pkg/types"
)

func compileSource(t *testing.T, input string) (*ir.Program, error) {
	t.Helper()
	root, err := ast.DecodeString(input)
	if err != nil {
		t.Fatalf("failed to decode input: %v\nInput:\n%s", err, input)
	}
	return New().Compile(root)
}

func compileEntries(t *testing.T, input string) []ir.Entry {
	t.Helper()
	program, err := compileSource(t, input)
	if err != nil {
		t.Fatalf("unexpected compile error: %v\nInput:\n%s", err, input)
	}
	entries, err := program.Entries()
	if err != nil {
		t.Fatalf("unexpected type error: %v", err)
	}
	return entries
}

func compileError(t *testing.T, input string) error {
	t.Helper()
	_, err := compileSource(t, input)
	if err == nil {
		t.Fatalf("expected compilation to fail\nInput:\n%s", input)
	}
	return err
}

func entry(t types.Type, ops ...any) ir.Entry {
	return ir.Entry{Type: t, Instruction: ops}
}

func TestCompileLiterals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []ir.Entry
	}{
		{"integer", "[lit, 1]", []ir.Entry{entry(types.Int, opcode.PushInt, int64(1))}},
		{"string", `[str, "foo"]`, []ir.Entry{entry(types.Str, opcode.PushStr, "foo")}},
		{"true", "[true]", []ir.Entry{entry(types.Bool, opcode.PushTrue)}},
		{"false", "[false]", []ir.Entry{entry(types.Bool, opcode.PushFalse)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compileEntries(t, tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCompileVariables(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []ir.Entry
	}{
		{
			name:  "set and get",
			input: "[block, [lasgn, a, [lit, 1]], [lvar, a]]",
			expected: []ir.Entry{
				entry(types.Int, opcode.PushInt, int64(1)),
				entry(types.Int, opcode.SetVar, "a"),
				entry(types.Int, opcode.PushVar, "a"),
			},
		},
		{
			name:  "set more than once",
			input: "[block, [lasgn, a, [lit, 1]], [lasgn, a, [lit, 2]]]",
			expected: []ir.Entry{
				entry(types.Int, opcode.PushInt, int64(1)),
				entry(types.Int, opcode.SetVar, "a"),
				entry(types.Int, opcode.PushInt, int64(2)),
				entry(types.Int, opcode.SetVar, "a"),
			},
		},
		{
			name:  "copy between variables",
			input: "[block, [lasgn, a, [str, x]], [lasgn, b, [lvar, a]], [lvar, b]]",
			expected: []ir.Entry{
				entry(types.Str, opcode.PushStr, "x"),
				entry(types.Str, opcode.SetVar, "a"),
				entry(types.Str, opcode.PushVar, "a"),
				entry(types.Str, opcode.SetVar, "b"),
				entry(types.Str, opcode.PushVar, "b"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compileEntries(t, tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCompileVariableTypeChange(t *testing.T) {
	err := compileError(t, "[block, [lasgn, a, [lit, 1]], [lasgn, a, [str, foo]]]")

	te, ok := ir.AsTypeError(err)
	if !ok {
		t.Fatalf("expected *ir.TypeError, got %T: %v", err, err)
	}
	if te.Kind != ir.ErrVariableTypes {
		t.Errorf("expected kind %s, got %s", ir.ErrVariableTypes, te.Kind)
	}
	if te.Error() != "Variable a was set with more than one type: [:int, :str]" {
		t.Errorf("unexpected message: %q", te.Error())
	}
	// Reported at the second assignment.
	if te.Pos.Column != 31 {
		t.Errorf("expected error at column 31, got %d", te.Pos.Column)
	}
}

func TestCompileSelfReferencingAssignments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []ir.Entry
	}{
		{
			name:  "increment",
			input: `[block, [lasgn, x, [lit, 1]], [lasgn, x, [call, [lvar, x], "+", [lit, 1]]], [lvar, x]]`,
			expected: []ir.Entry{
				entry(types.Int, opcode.PushInt, int64(1)),
				entry(types.Int, opcode.SetVar, "x"),
				entry(types.Int, opcode.PushVar, "x"),
				entry(types.Int, opcode.PushInt, int64(1)),
				entry(types.Int, opcode.Call, "+", 2),
				entry(types.Int, opcode.SetVar, "x"),
				entry(types.Int, opcode.PushVar, "x"),
			},
		},
		{
			name:  "append to string",
			input: `[block, [lasgn, s, [str, a]], [lasgn, s, [call, [lvar, s], "+", [lvar, s]]]]`,
			expected: []ir.Entry{
				entry(types.Str, opcode.PushStr, "a"),
				entry(types.Str, opcode.SetVar, "s"),
				entry(types.Str, opcode.PushVar, "s"),
				entry(types.Str, opcode.PushVar, "s"),
				entry(types.Str, opcode.Call, "+", 2),
				entry(types.Str, opcode.SetVar, "s"),
			},
		},
		{
			name:  "swap through another variable",
			input: `[block, [lasgn, a, [lit, 1]], [lasgn, b, [lvar, a]], [lasgn, a, [lvar, b]], [lasgn, b, [lvar, a]]]`,
			expected: []ir.Entry{
				entry(types.Int, opcode.PushInt, int64(1)),
				entry(types.Int, opcode.SetVar, "a"),
				entry(types.Int, opcode.PushVar, "a"),
				entry(types.Int, opcode.SetVar, "b"),
				entry(types.Int, opcode.PushVar, "b"),
				entry(types.Int, opcode.SetVar, "a"),
				entry(types.Int, opcode.PushVar, "a"),
				entry(types.Int, opcode.SetVar, "b"),
			},
		},
		{
			name:  "print result is not a variable type",
			input: `[block, [lasgn, a, [call, null, p, [lit, 1]]], [lasgn, a, [lit, 2]], [lvar, a]]`,
			expected: []ir.Entry{
				entry(types.Int, opcode.PushInt, int64(1)),
				entry(types.None, opcode.Call, "p", 1),
				entry(types.None, opcode.SetVar, "a"),
				entry(types.Int, opcode.PushInt, int64(2)),
				entry(types.Int, opcode.SetVar, "a"),
				entry(types.Int, opcode.PushVar, "a"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compileEntries(t, tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// incrementChain is x = 1 followed by n copies of x = x + 1, then x.
func incrementChain(n int) *ast.Block {
	block := &ast.Block{Nodes: []ast.Node{
		&ast.Assignment{Name: "x", Value: &ast.IntegerLiteral{Value: 1}},
	}}
	for i := 0; i < n; i++ {
		block.Nodes = append(block.Nodes, &ast.Assignment{
			Name: "x",
			Value: &ast.Call{Name: "+", Arguments: []ast.Node{
				&ast.VariableReference{Name: "x"},
				&ast.IntegerLiteral{Value: 1},
			}},
		})
	}
	block.Nodes = append(block.Nodes, &ast.VariableReference{Name: "x"})
	return block
}

func TestCompileLongIncrementChain(t *testing.T) {
	for _, n := range []int{50, 500} {
		program, err := New().Compile(incrementChain(n))
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if program.Len() != 2+4*n+1 {
			t.Errorf("n=%d: expected %d instructions, got %d", n, 2+4*n+1, program.Len())
		}
		got, err := program.ResultType()
		if err != nil || got != types.Int {
			t.Errorf("n=%d: expected result int, got %s (%v)", n, got, err)
		}
	}
}

func TestCompileMethodDefinitions(t *testing.T) {
	input := `
- block
- [defn, foo, [args], [str, foo]]
- [defn, bar, [args], [lit, 1]]
- [call, null, foo]
- [call, null, bar]
`
	expected := []ir.Entry{
		entry(types.Str, opcode.Def, "foo", 0),
		entry(types.Str, opcode.PushStr, "foo"),
		entry(types.None, opcode.EndDef, "foo"),
		entry(types.Int, opcode.Def, "bar", 0),
		entry(types.Int, opcode.PushInt, int64(1)),
		entry(types.None, opcode.EndDef, "bar"),
		entry(types.Str, opcode.Call, "foo", 0),
		entry(types.Int, opcode.Call, "bar", 0),
	}

	got := compileEntries(t, input)
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestCompileMethodDefinitionsWithArguments(t *testing.T) {
	input := `
- block
- [defn, foo, [args, a, b], [lvar, a]]
- [defn, bar, [args, a], [lvar, a]]
- [call, null, foo, [str, foo], [lit, 1]]
- [call, null, bar, [lit, 2]]
`
	expected := []ir.Entry{
		entry(types.Str, opcode.Def, "foo", 2),
		entry(types.Str, opcode.PushArg, 0),
		entry(types.Str, opcode.SetVar, "a"),
		entry(types.Int, opcode.PushArg, 1),
		entry(types.Int, opcode.SetVar, "b"),
		entry(types.Str, opcode.PushVar, "a"),
		entry(types.None, opcode.EndDef, "foo"),

		entry(types.Int, opcode.Def, "bar", 1),
		entry(types.Int, opcode.PushArg, 0),
		entry(types.Int, opcode.SetVar, "a"),
		entry(types.Int, opcode.PushVar, "a"),
		entry(types.None, opcode.EndDef, "bar"),

		entry(types.Str, opcode.PushStr, "foo"),
		entry(types.Int, opcode.PushInt, int64(1)),
		entry(types.Str, opcode.Call, "foo", 2),

		entry(types.Int, opcode.PushInt, int64(2)),
		entry(types.Int, opcode.Call, "bar", 1),
	}

	got := compileEntries(t, input)
	if !reflect.DeepEqual(got, expected) {
		for i := range got {
			if i < len(expected) && !reflect.DeepEqual(got[i], expected[i]) {
				t.Errorf("entry %d: expected %v, got %v", i, expected[i], got[i])
			}
		}
		t.Fatalf("expected %d entries, got %d", len(expected), len(got))
	}
}

func TestCompileCallBeforeDefinition(t *testing.T) {
	input := "[block, [call, null, foo, [lit, 1]], [defn, foo, [args, a], [lvar, a]]]"
	got := compileEntries(t, input)
	if got[1].Type != types.Int {
		t.Errorf("expected the call to be typed int, got %s", got[1].Type)
	}
}

func TestCompileEmptyMethodBody(t *testing.T) {
	got := compileEntries(t, "[block, [defn, noop, [args]], [call, null, noop]]")
	expected := []ir.Entry{
		entry(types.None, opcode.Def, "noop", 0),
		entry(types.None, opcode.EndDef, "noop"),
		entry(types.None, opcode.Call, "noop", 0),
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestCompileIf(t *testing.T) {
	got := compileEntries(t, "[if, [true], [lit, 1], [lit, 2]]")
	expected := []ir.Entry{
		entry(types.Bool, opcode.PushTrue),
		entry(types.Int, opcode.If),
		entry(types.Int, opcode.PushInt, int64(1)),
		entry(types.None, opcode.Else),
		entry(types.Int, opcode.PushInt, int64(2)),
		entry(types.None, opcode.EndIf),
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestCompileOperators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected types.Type
	}{
		{"addition", `[call, [lit, 1], "+", [lit, 2]]`, types.Int},
		{"string concatenation", `[call, [str, a], "+", [str, b]]`, types.Str},
		{"subtraction", `[call, [lit, 3], "-", [lit, 2]]`, types.Int},
		{"equality", `[call, [lit, 1], "==", [lit, 2]]`, types.Bool},
		{"equality of strings", `[call, [str, a], "==", [str, b]]`, types.Bool},
		{"less than", `[call, [lit, 1], "<", [lit, 2]]`, types.Bool},
		{"print", `[call, null, p, [lit, 1]]`, types.None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compileEntries(t, tt.input)
			last := got[len(got)-1]
			if last.Type != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, last.Type)
			}
			if last.Instruction[0] != opcode.Call || last.Instruction[2] != len(got)-1 {
				t.Errorf("unexpected call instruction %v", last.Instruction)
			}
		})
	}
}

func TestCompileOperatorDoesNotCollideWithMethod(t *testing.T) {
	input := `
- block
- [defn, "+", [args, a, b], [str, plus]]
- [call, [lit, 1], "+", [lit, 2]]
`
	got := compileEntries(t, input)
	if got[0].Type != types.Str {
		t.Errorf("expected the user method to be typed str, got %s", got[0].Type)
	}
	if last := got[len(got)-1]; last.Type != types.Int {
		t.Errorf("expected the operator call to be typed int, got %s", last.Type)
	}
}

func TestCompileScopesAreIsolated(t *testing.T) {
	input := `
- block
- [lasgn, a, [lit, 1]]
- [defn, foo, [args], [lvar, a]]
- [call, null, foo]
`
	err := compileError(t, input)
	te, ok := ir.AsTypeError(err)
	if !ok || te.Kind != ir.ErrUnresolved {
		t.Fatalf("expected UNRESOLVED error, got %v", err)
	}
	if te.Message != "Variable 'a' has no assignment in this scope" {
		t.Errorf("unexpected message %q", te.Message)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    ir.ErrorKind
		message string
	}{
		{
			name:    "unknown argument type",
			input:   "[defn, foo, [args, a], [lvar, a]]",
			kind:    ir.ErrNotEnoughInformation,
			message: "Not enough information to infer type of argument 'a' in method 'foo'",
		},
		{
			name: "argument with more than one type",
			input: `
- block
- [defn, foo, [args, a], [lvar, a]]
- [call, null, foo, [lit, 1]]
- [call, null, foo, [str, bar]]
`,
			kind:    ir.ErrArgumentTypes,
			message: "Argument 'a' in method 'foo' was called with more than one type: [:int, :str]",
		},
		{
			name:    "branches disagree",
			input:   "[if, [true], [lit, 1], [str, a]]",
			kind:    ir.ErrBranchTypes,
			message: "Instruction 'if' could have more than one type: [:int, :str]",
		},
		{
			name:    "duplicate method",
			input:   "[block, [defn, foo, [args], [lit, 1]], [defn, foo, [args], [lit, 2]]]",
			kind:    ir.ErrDuplicateMethod,
			message: "Method 'foo' is already defined",
		},
		{
			name:    "unknown method",
			input:   "[call, null, bar]",
			kind:    ir.ErrUnknownMethod,
			message: "Method 'bar' not found",
		},
		{
			name:    "method called with too few arguments",
			input:   "[block, [defn, foo, [args, a], [lvar, a]], [call, null, foo]]",
			kind:    ir.ErrArity,
			message: "wrong number of arguments for 'foo' (given 0, expected 1)",
		},
		{
			name:    "method called with too many arguments",
			input:   "[block, [defn, foo, [args], [lit, 1]], [call, null, foo, [lit, 2]]]",
			kind:    ir.ErrArity,
			message: "wrong number of arguments for 'foo' (given 1, expected 0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileError(t, tt.input)
			te, ok := ir.AsTypeError(err)
			if !ok {
				t.Fatalf("expected *ir.TypeError, got %T: %v", err, err)
			}
			if te.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, te.Kind)
			}
			if te.Message != tt.message {
				t.Errorf("expected %q, got %q", tt.message, te.Message)
			}
		})
	}
}

func TestCompilerErrors(t *testing.T) {
	tests := []struct {
		name    string
		root    ast.Node
		kind    ir.ErrorKind
		message string
	}{
		{
			name:    "nil program",
			root:    nil,
			kind:    ir.ErrUnknownNode,
			message: "program is nil",
		},
		{
			name:    "unknown node",
			root:    &ast.Block{Nodes: []ast.Node{nil}},
			kind:    ir.ErrUnknownNode,
			message: "unknown node type: <nil>",
		},
		{
			name:    "operator arity",
			root:    &ast.Call{Position: ast.Position{Line: 4, Column: 2}, Name: "p"},
			kind:    ir.ErrArity,
			message: "wrong number of arguments for 'p' (given 0, expected 1)",
		},
		{
			name: "argument without value",
			root: &ast.Call{Name: "p", Arguments: []ast.Node{
				&ast.Block{},
			}},
			kind:    ir.ErrUnresolved,
			message: "argument 1 of 'p' has no value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Compile(tt.root)
			var ce *CompilerError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CompilerError, got %T: %v", err, err)
			}
			if ce.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, ce.Kind)
			}
			if ce.Message != tt.message {
				t.Errorf("expected %q, got %q", tt.message, ce.Message)
			}
		})
	}
}

func TestCompilerErrorFormat(t *testing.T) {
	withPos := NewCompilerError(ir.ErrArity, "bad", ast.Position{Line: 4, Column: 2})
	if got := withPos.Error(); got != "compiler error at line 4, column 2: bad" {
		t.Errorf("unexpected message %q", got)
	}
	noPos := NewCompilerError(ir.ErrArity, "bad", ast.Position{})
	if got := noPos.Error(); got != "compiler error: bad" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestBuiltins(t *testing.T) {
	for _, name := range BuiltinNames() {
		if !IsBuiltin(name) {
			t.Errorf("%s: listed but not recognized", name)
		}
	}
	if IsBuiltin("fib") {
		t.Error("fib is not a built-in")
	}
	if op, _ := LookupBuiltin("p"); op.Rule != ir.Effect || op.Arity != 1 {
		t.Errorf("unexpected definition of p: %+v", op)
	}
}
