// Package compiler provides the compilation pipeline for AST documents.
// This file defines the CompileError type for structured error reporting.
package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zurustar/mya/pkg/compiler/ast"
	"github.com/zurustar/mya/pkg/compiler/compiler"
	"github.com/zurustar/mya/pkg/ir"
)

// Compilation phases reported in CompileError.Phase.
const (
	PhaseDecoder   = "decoder"
	PhaseCompiler  = "compiler"
	PhaseTypecheck = "typecheck"
)

// CompileError represents a structured compilation error with location information.
// It implements the error interface and provides detailed context about where
// the error occurred in the AST document.
type CompileError struct {
	// Phase indicates which compilation phase generated the error.
	// Valid values: "decoder", "compiler", "typecheck"
	Phase string

	// Kind classifies the error. Empty for decoder errors.
	Kind ir.ErrorKind

	// Message is the human-readable error description.
	Message string

	// Line is the 1-indexed line number where the error occurred (0 if unknown).
	Line int

	// Column is the 1-indexed column number where the error occurred (0 if unknown).
	Column int

	// Context contains the source around the error location.
	// This includes 2 lines before and after the error line,
	// with a pointer (^) indicating the error column.
	Context string
}

// Error implements the error interface.
// It returns a formatted error message including phase, location, message, and context.
func (e *CompileError) Error() string {
	var loc string
	if e.Line > 0 {
		loc = fmt.Sprintf(" at line %d, column %d", e.Line, e.Column)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s error%s: %s\n%s", e.Phase, loc, e.Message, e.Context)
	}
	return fmt.Sprintf("%s error%s: %s", e.Phase, loc, e.Message)
}

// NewDecoderErrorWithContext creates a new CompileError for decoder phase errors with source context.
func NewDecoderErrorWithContext(message string, line, column int, source string) *CompileError {
	return &CompileError{
		Phase:   PhaseDecoder,
		Message: message,
		Line:    line,
		Column:  column,
		Context: GenerateErrorContext(source, line, column),
	}
}

// NewCompilerErrorWithContext creates a new CompileError for compiler phase errors with source context.
func NewCompilerErrorWithContext(kind ir.ErrorKind, message string, line, column int, source string) *CompileError {
	return &CompileError{
		Phase:   PhaseCompiler,
		Kind:    kind,
		Message: message,
		Line:    line,
		Column:  column,
		Context: GenerateErrorContext(source, line, column),
	}
}

// NewTypecheckErrorWithContext creates a new CompileError for type errors with source context.
func NewTypecheckErrorWithContext(kind ir.ErrorKind, message string, line, column int, source string) *CompileError {
	return &CompileError{
		Phase:   PhaseTypecheck,
		Kind:    kind,
		Message: message,
		Line:    line,
		Column:  column,
		Context: GenerateErrorContext(source, line, column),
	}
}

// wrapError converts an error from any phase into a *CompileError carrying
// source context. Errors of unknown shape pass through unchanged.
func wrapError(err error, source string) error {
	var de *ast.DecodeError
	if errors.As(err, &de) {
		return NewDecoderErrorWithContext(de.Message, de.Pos.Line, de.Pos.Column, source)
	}

	var ce *compiler.CompilerError
	if errors.As(err, &ce) {
		return NewCompilerErrorWithContext(ce.Kind, ce.Message, ce.Line, ce.Column, source)
	}

	if te, ok := ir.AsTypeError(err); ok {
		return NewTypecheckErrorWithContext(te.Kind, te.Message, te.Pos.Line, te.Pos.Column, source)
	}

	// yaml.v3 syntax errors only carry the line in their text
	if line := yamlErrorLine(err.Error()); line > 0 {
		return NewDecoderErrorWithContext(err.Error(), line, 0, source)
	}

	return err
}

// yamlErrorLine extracts N from "yaml: line N: ..." and returns 0 when absent.
func yamlErrorLine(msg string) int {
	_, rest, ok := strings.Cut(msg, "yaml: line ")
	if !ok {
		return 0
	}
	digits, _, ok := strings.Cut(rest, ":")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// GenerateErrorContext generates source context around an error location.
// It includes 2 lines before and 2 lines after the error line, with line numbers
// and a pointer (^) indicating the error column.
//
// Example output:
//
//	  2 | - [lasgn, a, [lit, 1]]
//	  3 | - [lasgn, a, [str, x]]
//	> 4 | - [lvar, b]
//	    |   ^
//	  5 | - [lvar, a]
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}

	// 2 lines before, 2 lines after
	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}

	var buf strings.Builder

	lineNumWidth := len(strconv.Itoa(end))

	for i := start; i < end; i++ {
		lineNum := i + 1
		lineContent := lines[i]

		if lineNum == line {
			buf.WriteString(fmt.Sprintf("> %*d | %s\n", lineNumWidth, lineNum, lineContent))
			// "> " + lineNumWidth + " | "
			pointerIndent := 2 + lineNumWidth + 3
			if column > 0 {
				buf.WriteString(fmt.Sprintf("%s%s^\n", strings.Repeat(" ", pointerIndent), strings.Repeat(" ", column-1)))
			} else {
				buf.WriteString(fmt.Sprintf("%s^\n", strings.Repeat(" ", pointerIndent)))
			}
		} else {
			buf.WriteString(fmt.Sprintf("  %*d | %s\n", lineNumWidth, lineNum, lineContent))
		}
	}

	return buf.String()
}
