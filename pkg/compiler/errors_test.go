package compiler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zurustar/mya/pkg/compiler/ast"
	"github.com/zurustar/mya/pkg/compiler/compiler"
	"github.com/zurustar/mya/pkg/ir"
)

// TestCompileError_Error tests the Error() method of CompileError.
func TestCompileError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *CompileError
		expected string
	}{
		{
			name: "decoder error without context",
			err: &CompileError{
				Phase:   PhaseDecoder,
				Message: "unknown node: bogus",
				Line:    2,
				Column:  4,
			},
			expected: "decoder error at line 2, column 4: unknown node: bogus",
		},
		{
			name: "typecheck error without position",
			err: &CompileError{
				Phase:   PhaseTypecheck,
				Kind:    ir.ErrNotEnoughInformation,
				Message: "Not enough information to infer type of argument 'a' in method 'foo'",
			},
			expected: "typecheck error: Not enough information to infer type of argument 'a' in method 'foo'",
		},
		{
			name: "error with context",
			err: &CompileError{
				Phase:   PhaseCompiler,
				Message: "unknown node type: <nil>",
				Line:    1,
				Column:  1,
				Context: "> 1 | [block]\n      ^\n",
			},
			expected: "compiler error at line 1, column 1: unknown node type: <nil>\n> 1 | [block]\n      ^\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestGenerateErrorContext tests the GenerateErrorContext function.
func TestGenerateErrorContext(t *testing.T) {
	source := "- block\n- [lasgn, a, [lit, 1]]\n- [lasgn, b, [lit, 2]]\n- [lasgn, a, [str, x]]\n- [lvar, a]\n- [lvar, b]"

	tests := []struct {
		name        string
		line        int
		column      int
		contains    []string
		notContains []string
	}{
		{
			name:        "middle of source",
			line:        4,
			column:      3,
			contains:    []string{"  2 | - [lasgn, a, [lit, 1]]", "> 4 | - [lasgn, a, [str, x]]", "  6 | - [lvar, b]"},
			notContains: []string{"1 | - block"},
		},
		{
			name:        "first line",
			line:        1,
			column:      1,
			contains:    []string{"> 1 | - block", "  3 |"},
			notContains: []string{"4 |"},
		},
		{
			name:     "last line",
			line:     6,
			column:   3,
			contains: []string{"  4 |", "> 6 | - [lvar, b]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			context := GenerateErrorContext(source, tt.line, tt.column)
			for _, substr := range tt.contains {
				if !strings.Contains(context, substr) {
					t.Errorf("GenerateErrorContext() = %q, want to contain %q", context, substr)
				}
			}
			for _, substr := range tt.notContains {
				if strings.Contains(context, substr) {
					t.Errorf("GenerateErrorContext() = %q, should not contain %q", context, substr)
				}
			}
		})
	}
}

func TestGenerateErrorContext_OutOfRange(t *testing.T) {
	tests := []struct {
		source string
		line   int
	}{
		{"", 1},
		{"[lit, 1]", 0},
		{"[lit, 1]", 5},
	}
	for _, tt := range tests {
		if got := GenerateErrorContext(tt.source, tt.line, 1); got != "" {
			t.Errorf("GenerateErrorContext(%q, %d) = %q, want empty", tt.source, tt.line, got)
		}
	}
}

// TestGenerateErrorContext_PointerPosition tests that the pointer is correctly positioned.
func TestGenerateErrorContext_PointerPosition(t *testing.T) {
	source := "[block, [lvar, x]]"

	tests := []struct {
		column   int
		expected string
	}{
		{1, "> 1 | [block, [lvar, x]]\n      ^\n"},
		{9, "> 1 | [block, [lvar, x]]\n              ^\n"},
		{0, "> 1 | [block, [lvar, x]]\n      ^\n"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("column %d", tt.column), func(t *testing.T) {
			if got := GenerateErrorContext(source, 1, tt.column); got != tt.expected {
				t.Errorf("GenerateErrorContext() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	source := "[block, [lvar, x]]"

	tests := []struct {
		name  string
		err   *CompileError
		phase string
		kind  ir.ErrorKind
	}{
		{"decoder", NewDecoderErrorWithContext("bad", 1, 2, source), PhaseDecoder, ""},
		{"compiler", NewCompilerErrorWithContext(ir.ErrArity, "bad", 1, 2, source), PhaseCompiler, ir.ErrArity},
		{"typecheck", NewTypecheckErrorWithContext(ir.ErrUnresolved, "bad", 1, 2, source), PhaseTypecheck, ir.ErrUnresolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %q, want %q", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", tt.err.Kind, tt.kind)
			}
			if tt.err.Line != 1 || tt.err.Column != 2 {
				t.Errorf("position = %d:%d, want 1:2", tt.err.Line, tt.err.Column)
			}
			if !strings.Contains(tt.err.Context, "> 1 |") {
				t.Errorf("Context = %q, want the error line", tt.err.Context)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	source := "- block\n- [lvar, x]"
	plain := errors.New("plain")

	tests := []struct {
		name  string
		err   error
		phase string
		kind  ir.ErrorKind
		line  int
	}{
		{
			name:  "decode error",
			err:   &ast.DecodeError{Message: "unknown node: bogus", Pos: ast.Position{Line: 2, Column: 4}},
			phase: PhaseDecoder,
			line:  2,
		},
		{
			name:  "walker error",
			err:   compiler.NewCompilerError(ir.ErrArity, "bad", ast.Position{Line: 2, Column: 3}),
			phase: PhaseCompiler,
			kind:  ir.ErrArity,
			line:  2,
		},
		{
			name:  "type error",
			err:   &ir.TypeError{Kind: ir.ErrUnresolved, Message: "bad", Pos: ast.Position{Line: 2, Column: 3}},
			phase: PhaseTypecheck,
			kind:  ir.ErrUnresolved,
			line:  2,
		},
		{
			name:  "wrapped type error",
			err:   fmt.Errorf("outer: %w", &ir.TypeError{Kind: ir.ErrArity, Message: "bad"}),
			phase: PhaseTypecheck,
			kind:  ir.ErrArity,
		},
		{
			name:  "yaml syntax error",
			err:   fmt.Errorf("failed to parse AST document: %w", errors.New("yaml: line 2: did not find expected ',' or ']'")),
			phase: PhaseDecoder,
			line:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapError(tt.err, source)
			var ce *CompileError
			if !errors.As(wrapped, &ce) {
				t.Fatalf("expected *CompileError, got %T", wrapped)
			}
			if ce.Phase != tt.phase {
				t.Errorf("Phase = %q, want %q", ce.Phase, tt.phase)
			}
			if ce.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", ce.Kind, tt.kind)
			}
			if ce.Line != tt.line {
				t.Errorf("Line = %d, want %d", ce.Line, tt.line)
			}
		})
	}

	if got := wrapError(plain, source); got != plain {
		t.Errorf("expected unknown errors to pass through, got %v", got)
	}
}

func TestYAMLErrorLine(t *testing.T) {
	tests := []struct {
		msg  string
		want int
	}{
		{"yaml: line 3: mapping values are not allowed in this context", 3},
		{"failed to parse AST document: yaml: line 12: found character that cannot start any token", 12},
		{"yaml: unmarshal errors", 0},
		{"yaml: line x: bad", 0},
	}
	for _, tt := range tests {
		if got := yamlErrorLine(tt.msg); got != tt.want {
			t.Errorf("yamlErrorLine(%q) = %d, want %d", tt.msg, got, tt.want)
		}
	}
}

// TestCompileError_ImplementsError tests that CompileError implements the error interface.
func TestCompileError_ImplementsError(t *testing.T) {
	var _ error = &CompileError{}
}
