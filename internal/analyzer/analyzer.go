// Package analyzer implements the PHPX type checker and inference engine.
// It walks one module's AST in a fixed pass order (declaration pre-pass,
// alias resolution, body checking), collects every diagnostic instead of
// stopping at the first, and produces the TypeMap the module compiler and
// bridge read.
package analyzer

import (
	"fmt"
	"sort"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// Analyzer performs semantic analysis on a PHPX-mode AST.
type Analyzer struct {
	env *symbols.Environment
}

// New creates an Analyzer over the given type environment. The
// environment should chain to symbols.NewGlobalEnv() so Option/Result
// resolve.
func New(env *symbols.Environment) *Analyzer {
	return &Analyzer{env: env}
}

// CheckModule runs all passes over the program and returns the inferred
// type map plus every diagnostic, sorted by position. Parse errors are an
// earlier phase; a non-PHPX program is not checked.
func (a *Analyzer) CheckModule(prog *ast.Program) (map[ast.Node]typesystem.Type, []*diagnostics.DiagnosticError) {
	c := NewModuleCheck(a.env, prog)
	c.AnalyzeNames()
	c.AnalyzeHeaders()
	c.AnalyzeBodies()
	return c.Results()
}

// ModuleCheck drives the passes over one module in separate phases, so
// a loader can analyze the names and headers of every module in an
// import cycle before any body is checked.
type ModuleCheck struct {
	w    *walker
	prog *ast.Program
}

func NewModuleCheck(env *symbols.Environment, prog *ast.Program) *ModuleCheck {
	return &ModuleCheck{
		w: &walker{
			env:         env,
			errorSet:    make(map[string]*diagnostics.DiagnosticError),
			TypeMap:     make(map[ast.Node]typesystem.Type),
			currentFile: prog.File,
		},
		prog: prog,
	}
}

// AnalyzeNames claims every top-level name. It needs nothing from other
// modules; imported names may be bound afterwards.
func (c *ModuleCheck) AnalyzeNames() {
	c.w.registerDeclarations(c.prog)
}

// AnalyzeHeaders resolves aliases and fills declaration signatures.
// Imported type names must be bound in the environment before this
// runs; imported function signatures are not needed yet.
func (c *ModuleCheck) AnalyzeHeaders() {
	c.w.resolveAliases()
	c.w.fillSignatures(c.prog)
}

// AnalyzeBodies checks statement and expression bodies. Imported
// signatures must be bound by now.
func (c *ModuleCheck) AnalyzeBodies() {
	c.w.checkBodies(c.prog)
}

// Results returns the inferred type map and every diagnostic collected
// across the phases, sorted by position.
func (c *ModuleCheck) Results() (map[ast.Node]typesystem.Type, []*diagnostics.DiagnosticError) {
	return c.w.TypeMap, c.w.getErrors()
}

type walker struct {
	env         *symbols.Environment
	errorSet    map[string]*diagnostics.DiagnosticError
	TypeMap     map[ast.Node]typesystem.Type
	currentFile string

	// pending aliases in declaration order, for the eager resolution pass
	aliasOrder []*ast.TypeAliasDeclaration

	// current function's declared return type; nil at top level
	currentReturn typesystem.Type
}

// addError deduplicates by position and code, matching the diagnostic's
// batch semantics: one report per site per kind.
func (w *walker) addError(err *diagnostics.DiagnosticError) {
	if err.File == "" && w.currentFile != "" {
		err.File = w.currentFile
	}
	key := fmt.Sprintf("%d:%d:%s", err.Token.Line, err.Token.Column, err.Code)
	w.errorSet[key] = err
}

func (w *walker) getErrors() []*diagnostics.DiagnosticError {
	result := make([]*diagnostics.DiagnosticError, 0, len(w.errorSet))
	for _, err := range w.errorSet {
		result = append(result, err)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Token.Line != result[j].Token.Line {
			return result[i].Token.Line < result[j].Token.Line
		}
		if result[i].Token.Column != result[j].Token.Column {
			return result[i].Token.Column < result[j].Token.Column
		}
		return result[i].Code < result[j].Code
	})
	return result
}

// setType records an inferred type and returns it, so inference sites can
// `return w.setType(node, t)`.
func (w *walker) setType(node ast.Node, t typesystem.Type) typesystem.Type {
	w.TypeMap[node] = t
	return t
}
