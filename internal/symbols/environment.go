// Package symbols implements the TypeEnvironment: the per-module symbol
// table mapping names to type schemes, plus the global built-in scope that
// registers Option, Result and the primitives. One environment is created
// per module compilation and discarded afterwards; only export signatures
// outlive it, in the module registry.
package symbols

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/config"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// StructInfo is the checked definition of a struct.
type StructInfo struct {
	Name       string
	FieldOrder []string
	Fields     map[string]typesystem.Type
	Defaults   map[string]ast.Expression // field name -> default constant expression
	Embeds     []string                  // `use Other;` entries, in order
	Methods    map[string]typesystem.TFunc
}

// EnumInfo is the checked definition of an enum.
type EnumInfo struct {
	Name         string
	TypeParams   []string // generic parameters, e.g. Option's [T]
	VariantOrder []string
	Variants     map[string][]typesystem.Type // variant name -> payload types
}

// PayloadArity returns the declared payload arity of a variant.
func (e *EnumInfo) PayloadArity(variant string) (int, bool) {
	payload, ok := e.Variants[variant]
	if !ok {
		return 0, false
	}
	return len(payload), true
}

// InterfaceInfo is a structural constraint: the method set a concrete type
// must carry to satisfy it.
type InterfaceInfo struct {
	Name    string
	Methods map[string]typesystem.TFunc
}

// AliasInfo tracks one `type Name = ...` declaration through eager
// resolution. Resolved stays nil while resolution is in progress; a
// circular chain pins Resolved to TUnknown so checking continues without
// cascading.
type AliasInfo struct {
	Name     string
	Raw      ast.TypeExpr
	Resolved typesystem.Type
}

// Environment is one module's type environment. Lookups fall through to
// the parent (ultimately the global built-in scope). Variable bindings
// live in a scope stack with an optional narrowing overlay per branch.
type Environment struct {
	parent *Environment

	aliases    map[string]*AliasInfo
	structs    map[string]*StructInfo
	enums      map[string]*EnumInfo
	interfaces map[string]*InterfaceInfo
	functions  map[string]typesystem.TFunc
	consts     map[string]typesystem.Type

	scopes    []map[string]typesystem.Type
	narrowing []map[string]typesystem.Type
}

// NewEnvironment creates a module environment chained to parent (usually
// the global built-in scope from NewGlobalEnv).
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent:     parent,
		aliases:    make(map[string]*AliasInfo),
		structs:    make(map[string]*StructInfo),
		enums:      make(map[string]*EnumInfo),
		interfaces: make(map[string]*InterfaceInfo),
		functions:  make(map[string]typesystem.TFunc),
		consts:     make(map[string]typesystem.Type),
		scopes:     []map[string]typesystem.Type{make(map[string]typesystem.Type)},
	}
}

// NewGlobalEnv builds the built-in scope shared by every module: the
// primitives need no registration, Option and Result are ordinary enums
// with generic payloads.
func NewGlobalEnv() *Environment {
	env := NewEnvironment(nil)

	env.DefineEnum(&EnumInfo{
		Name:         config.OptionTypeName,
		TypeParams:   []string{"T"},
		VariantOrder: []string{config.SomeCtorName, config.NoneCtorName},
		Variants: map[string][]typesystem.Type{
			config.SomeCtorName: {typesystem.TVar{Name: "T"}},
			config.NoneCtorName: {},
		},
	})
	env.DefineEnum(&EnumInfo{
		Name:         config.ResultTypeName,
		TypeParams:   []string{"T", "E"},
		VariantOrder: []string{config.OkCtorName, config.ErrCtorName},
		Variants: map[string][]typesystem.Type{
			config.OkCtorName:  {typesystem.TVar{Name: "T"}},
			config.ErrCtorName: {typesystem.TVar{Name: "E"}},
		},
	})
	return env
}

// HasName reports whether a top-level name is already taken in this
// environment (not in parents); used by the declaration pre-pass.
func (e *Environment) HasName(name string) bool {
	if _, ok := e.aliases[name]; ok {
		return true
	}
	if _, ok := e.structs[name]; ok {
		return true
	}
	if _, ok := e.enums[name]; ok {
		return true
	}
	if _, ok := e.interfaces[name]; ok {
		return true
	}
	if _, ok := e.functions[name]; ok {
		return true
	}
	if _, ok := e.consts[name]; ok {
		return true
	}
	return false
}

func (e *Environment) DefineAlias(info *AliasInfo)         { e.aliases[info.Name] = info }
func (e *Environment) DefineStruct(info *StructInfo)       { e.structs[info.Name] = info }
func (e *Environment) DefineEnum(info *EnumInfo)           { e.enums[info.Name] = info }
func (e *Environment) DefineInterface(info *InterfaceInfo) { e.interfaces[info.Name] = info }

func (e *Environment) DefineFunction(name string, sig typesystem.TFunc) {
	e.functions[name] = sig
}

func (e *Environment) DefineConst(name string, t typesystem.Type) {
	e.consts[name] = t
}

func (e *Environment) Alias(name string) (*AliasInfo, bool) {
	for env := e; env != nil; env = env.parent {
		if info, ok := env.aliases[name]; ok {
			return info, true
		}
	}
	return nil, false
}

func (e *Environment) Struct(name string) (*StructInfo, bool) {
	for env := e; env != nil; env = env.parent {
		if info, ok := env.structs[name]; ok {
			return info, true
		}
	}
	return nil, false
}

func (e *Environment) Enum(name string) (*EnumInfo, bool) {
	for env := e; env != nil; env = env.parent {
		if info, ok := env.enums[name]; ok {
			return info, true
		}
	}
	return nil, false
}

func (e *Environment) Interface(name string) (*InterfaceInfo, bool) {
	for env := e; env != nil; env = env.parent {
		if info, ok := env.interfaces[name]; ok {
			return info, true
		}
	}
	return nil, false
}

func (e *Environment) Function(name string) (typesystem.TFunc, bool) {
	for env := e; env != nil; env = env.parent {
		if sig, ok := env.functions[name]; ok {
			return sig, true
		}
	}
	return typesystem.TFunc{}, false
}

func (e *Environment) Const(name string) (typesystem.Type, bool) {
	for env := e; env != nil; env = env.parent {
		if t, ok := env.consts[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// EnumForVariant finds the enum declaring a bare constructor name, for
// `Some(v)` / `None` style references without the Enum:: prefix.
func (e *Environment) EnumForVariant(variant string) (*EnumInfo, bool) {
	for env := e; env != nil; env = env.parent {
		for _, info := range env.enums {
			if _, ok := info.Variants[variant]; ok {
				return info, true
			}
		}
	}
	return nil, false
}

// StructFieldType resolves a field on a struct, walking embedded structs
// depth-first. Ambiguity across embeds was rejected at declaration time,
// so the first hit wins.
func (e *Environment) StructFieldType(structName, field string) (typesystem.Type, bool) {
	visited := make(map[string]bool)
	return e.structFieldType(structName, field, visited)
}

func (e *Environment) structFieldType(structName, field string, visited map[string]bool) (typesystem.Type, bool) {
	if visited[structName] {
		return nil, false
	}
	visited[structName] = true

	info, ok := e.Struct(structName)
	if !ok {
		return nil, false
	}
	if t, ok := info.Fields[field]; ok {
		return t, true
	}
	for _, embed := range info.Embeds {
		if t, ok := e.structFieldType(embed, field, visited); ok {
			return t, true
		}
	}
	return nil, false
}

// PushScope/PopScope bracket a lexical scope for variable bindings.
func (e *Environment) PushScope() {
	e.scopes = append(e.scopes, make(map[string]typesystem.Type))
}

func (e *Environment) PopScope() {
	if len(e.scopes) > 1 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

// SetVar binds a variable in the innermost scope.
func (e *Environment) SetVar(name string, t typesystem.Type) {
	e.scopes[len(e.scopes)-1][name] = t
}

// LookupVar resolves a variable, consulting narrowing overlays first
// (innermost wins), then the scope stack, then the parent environment.
func (e *Environment) LookupVar(name string) (typesystem.Type, bool) {
	for i := len(e.narrowing) - 1; i >= 0; i-- {
		if t, ok := e.narrowing[i][name]; ok {
			return t, true
		}
	}
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i][name]; ok {
			return t, true
		}
	}
	if e.parent != nil {
		return e.parent.LookupVar(name)
	}
	return nil, false
}

// PushNarrowing opens a branch-local shadow table. Narrowed types written
// with Narrow are visible until the matching PopNarrowing and never leak
// past the branch.
func (e *Environment) PushNarrowing() {
	e.narrowing = append(e.narrowing, make(map[string]typesystem.Type))
}

func (e *Environment) PopNarrowing() {
	if len(e.narrowing) > 0 {
		e.narrowing = e.narrowing[:len(e.narrowing)-1]
	}
}

// Narrow records a branch-local refinement of a binding's type.
func (e *Environment) Narrow(name string, t typesystem.Type) {
	if len(e.narrowing) == 0 {
		return
	}
	e.narrowing[len(e.narrowing)-1][name] = t
}

// Structs returns the module's own struct definitions (not inherited),
// for export table construction.
func (e *Environment) Structs() map[string]*StructInfo { return e.structs }

// Enums returns the module's own enum definitions.
func (e *Environment) Enums() map[string]*EnumInfo { return e.enums }

// Functions returns the module's own function signatures.
func (e *Environment) Functions() map[string]typesystem.TFunc { return e.functions }
