// Package compiler provides the compilation pipeline for AST documents.
// It transforms a YAML/JSON s-expression into a typed instruction sequence
// through three phases:
// 1. Decoder: AST document to ast.Node
// 2. Compiler: depth-first walk emitting instructions
// 3. Typecheck: resolving every instruction's type
//
// This package provides a unified API:
// - Compile: Compiles a source string
// - CompileNode: Compiles an already decoded AST
// - CompileFile: Compiles a file (handles Shift-JIS and BOM)
// - CompileSource: Compiles one named source and returns a CompileResult
// - CompileScripts: Compiles multiple scripts loaded by script.Loader
// - CompileDirectory / CompileFS: Loads and compiles every AST document in a tree
package compiler

import (
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zurustar/mya/pkg/compiler/ast"
	"github.com/zurustar/mya/pkg/compiler/compiler"
	"github.com/zurustar/mya/pkg/ir"
	"github.com/zurustar/mya/pkg/logger"
	"github.com/zurustar/mya/pkg/script"
)

// CompileOptions provides configuration options for compilation.
type CompileOptions struct {
	// Encoding of files read from disk. Zero value means auto-detect.
	Encoding script.Encoding
	// Logger overrides the application logger.
	Logger *slog.Logger
}

func (o CompileOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger.GetLogger()
}

// Compile compiles an AST document to a typed program.
// It chains the decoder → compiler → typecheck pipeline.
//
// Parameters:
//   - source: UTF-8 encoded YAML or JSON document
//
// Returns:
//   - *ir.Program: The compiled program (nil on failure)
//   - []error: Compilation errors as *CompileError (empty if successful)
func Compile(source string) (*ir.Program, []error) {
	return CompileWithOptions(source, CompileOptions{})
}

// CompileWithOptions compiles an AST document with additional options.
func CompileWithOptions(source string, opts CompileOptions) (*ir.Program, []error) {
	root, err := ast.DecodeString(source)
	if err != nil {
		// If any phase fails, stop the pipeline
		return nil, []error{wrapError(err, source)}
	}

	c := compiler.New().WithLogger(opts.logger())
	program, err := c.Compile(root)
	if err != nil {
		return nil, []error{wrapError(err, source)}
	}

	return program, nil
}

// CompileNode compiles an already decoded AST. Errors are returned as they
// come from the walker: *compiler.CompilerError or *ir.TypeError.
func CompileNode(root ast.Node) (*ir.Program, error) {
	return compiler.New().Compile(root)
}

// CompileFile compiles a file.
// It reads the file, converts Shift-JIS or BOM-prefixed UTF-8 to UTF-8,
// and then compiles the content.
//
// Parameters:
//   - path: Path to the AST document
//
// Returns:
//   - *ir.Program: The compiled program
//   - []error: Any errors (empty if successful)
func CompileFile(path string) (*ir.Program, []error) {
	return CompileFileWithOptions(path, CompileOptions{})
}

// CompileFileWithOptions compiles a file with additional options.
func CompileFileWithOptions(path string, opts CompileOptions) (*ir.Program, []error) {
	s, err := script.LoadFile(path, opts.Encoding)
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read file %s: %w", path, err)}
	}

	result := compileScript(*s, opts)
	return result.Program, result.Errors
}

// CompileResult represents the compilation result for a single script.
// It contains the file name, compiled program, and any errors that occurred.
type CompileResult struct {
	// ID identifies this compilation in logs
	ID uuid.UUID
	// FileName is the name of the script file
	FileName string
	// Path is the script's path relative to its root
	Path string
	// Program is the compiled program (nil if compilation failed)
	Program *ir.Program
	// Errors contains any compilation errors (empty if successful)
	Errors []error
}

// OK reports whether the compilation succeeded.
func (r CompileResult) OK() bool {
	return len(r.Errors) == 0
}

// CompileSource compiles one named source and returns a detailed result.
func CompileSource(name, source string) CompileResult {
	return compileScript(script.Script{FileName: name, Path: name, Content: source}, CompileOptions{})
}

func compileScript(s script.Script, opts CompileOptions) CompileResult {
	id := uuid.New()
	log := opts.logger().With("compile_id", id.String(), "file", s.FileName)

	log.Debug("Compiling", "path", s.Path, "size", len(s.Content))
	program, errs := CompileWithOptions(s.Content, CompileOptions{Encoding: opts.Encoding, Logger: log})
	if len(errs) > 0 {
		log.Debug("Compilation failed", "errors", len(errs))
	} else {
		log.Debug("Compilation succeeded", "instructions", program.Len())
	}

	return CompileResult{
		ID:       id,
		FileName: s.FileName,
		Path:     s.Path,
		Program:  program,
		Errors:   errs,
	}
}

// CompileScripts compiles multiple scripts loaded by script.Loader.
// Each script is compiled independently, and results are returned for all scripts.
// This function does not stop on the first error.
//
// Returns:
//   - map[string]*ir.Program: Map of path to compiled program (only successful compilations)
//   - []error: All compilation errors from all scripts (empty if all successful)
func CompileScripts(scripts []script.Script) (map[string]*ir.Program, []error) {
	results := make(map[string]*ir.Program)
	var allErrors []error

	for _, r := range CompileScriptsWithResults(scripts) {
		if !r.OK() {
			// Wrap errors with file name for context
			for _, err := range r.Errors {
				allErrors = append(allErrors, fmt.Errorf("%s: %w", r.Path, err))
			}
			continue
		}
		results[r.Path] = r.Program
	}

	return results, allErrors
}

// CompileScriptsWithResults compiles multiple scripts and returns detailed results
// in script order, so callers see both successful and failed compilations.
func CompileScriptsWithResults(scripts []script.Script) []CompileResult {
	results := make([]CompileResult, 0, len(scripts))
	for _, s := range scripts {
		results = append(results, compileScript(s, CompileOptions{}))
	}
	return results
}

// CompileDirectory loads all AST documents from a directory and compiles them.
// This is a convenience function that combines script.Loader with CompileScripts.
func CompileDirectory(dirPath string) (map[string]*ir.Program, []error) {
	scripts, err := script.NewLoader(dirPath).LoadAllScripts()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to load scripts from %s: %w", dirPath, err)}
	}

	return CompileScripts(scripts)
}

// CompileDirectoryWithResults loads all AST documents from a directory and compiles them,
// returning detailed results for each script.
func CompileDirectoryWithResults(dirPath string) ([]CompileResult, error) {
	scripts, err := script.NewLoader(dirPath).LoadAllScripts()
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts from %s: %w", dirPath, err)
	}

	return CompileScriptsWithResults(scripts), nil
}

// CompileFS loads all AST documents under root in fsys (an embed.FS, for
// example) and compiles them.
func CompileFS(fsys fs.FS, root string) ([]CompileResult, error) {
	scripts, err := script.NewLoaderFS(fsys, root).LoadAllScripts()
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts from %s: %w", root, err)
	}

	return CompileScriptsWithResults(scripts), nil
}

// Re-export types from sub-packages for convenience.
// This allows users to import only the main compiler package.

// Program is re-exported from the ir package
type Program = ir.Program

// TypeError is re-exported from the ir package
type TypeError = ir.TypeError

// DecodeError is re-exported from the ast package
type DecodeError = ast.DecodeError

// CompilerErrorType is re-exported from the compiler sub-package
type CompilerErrorType = compiler.CompilerError
