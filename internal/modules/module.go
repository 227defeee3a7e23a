// Package modules implements per-module compilation and isolation:
// stable module identity, private namespaces with an explicit export
// surface, transitive re-export resolution, and lazy at-most-once
// evaluation of module top-level code.
package modules

import (
	"path/filepath"

	"github.com/google/uuid"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/registry"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// moduleNamespace seeds the uuid v5 derivation of module IDs.
var moduleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("phpx://module"))

// IDForPath derives the module ID from the cleaned module path. The
// same path always maps to the same ID, within a run and across runs.
func IDForPath(path string) registry.ModuleID {
	cleaned := filepath.ToSlash(filepath.Clean(path))
	return uuid.NewSHA1(moduleNamespace, []byte(cleaned))
}

// Mangle builds the private internal name of a module-level
// declaration. Two modules declaring the same name never collide.
func Mangle(id registry.ModuleID, name string) string {
	return id.String() + "::" + name
}

// CompiledModule is the output of compiling one checked module: the
// export table plus what later stages need. The checking environment's
// declaration tables ride along so importers can bind foreign types;
// the lexical scopes are gone.
type CompiledModule struct {
	ID      registry.ModuleID
	Path    string
	Program *ast.Program
	TypeMap map[ast.Node]typesystem.Type

	Exports map[string]registry.ExportSignature

	// Declaration tables retained for importers.
	Structs   map[string]*symbols.StructInfo
	Enums     map[string]*symbols.EnumInfo
	Functions map[string]typesystem.TFunc

	// Diagnostics carries everything found while checking and
	// compiling. A module with error-severity entries is failed: it
	// publishes nothing and never evaluates.
	Diagnostics []*diagnostics.DiagnosticError
}

// Failed reports whether the module produced error-severity
// diagnostics.
func (m *CompiledModule) Failed() bool {
	return diagnostics.HasErrors(m.Diagnostics)
}
