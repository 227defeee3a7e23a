package analyzer

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/config"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// The prelude enums and their constructors resolve in every module;
// redeclaring one would silently shadow it.
var builtinNames = map[string]bool{
	config.OptionTypeName: true,
	config.ResultTypeName: true,
	config.SomeCtorName:   true,
	config.NoneCtorName:   true,
	config.OkCtorName:     true,
	config.ErrCtorName:    true,
}

// registerDeclarations is the declaration pre-pass: every top-level name
// is registered before any body is checked, so forward references
// type-check. Only names are claimed here; signatures and fields are
// filled in by fillSignatures once aliases are resolved.
func (w *walker) registerDeclarations(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		if legacy, ok := stmt.(*ast.LegacyDeclaration); ok {
			w.addError(diagnostics.NewError(diagnostics.ErrLegacyConstructRejected, legacy.Token, legacy.Kind))
			continue
		}

		name := ast.DeclaredName(stmt)
		if name == "" {
			continue
		}
		if builtinNames[name] {
			w.addError(diagnostics.NewError(diagnostics.ErrBuiltinShadowed, stmt.GetToken(), name))
			continue
		}
		if w.env.HasName(name) {
			w.addError(diagnostics.NewError(diagnostics.ErrDuplicateDeclaration, stmt.GetToken(), name))
			continue
		}

		switch s := stmt.(type) {
		case *ast.StructDeclaration:
			w.env.DefineStruct(&symbols.StructInfo{
				Name:     name,
				Fields:   make(map[string]typesystem.Type),
				Defaults: make(map[string]ast.Expression),
				Methods:  make(map[string]typesystem.TFunc),
			})
		case *ast.EnumDeclaration:
			w.env.DefineEnum(&symbols.EnumInfo{
				Name:     name,
				Variants: make(map[string][]typesystem.Type),
			})
		case *ast.TypeAliasDeclaration:
			w.env.DefineAlias(&symbols.AliasInfo{Name: name, Raw: s.Aliased})
			w.aliasOrder = append(w.aliasOrder, s)
		case *ast.InterfaceDeclaration:
			w.env.DefineInterface(&symbols.InterfaceInfo{
				Name:    name,
				Methods: make(map[string]typesystem.TFunc),
			})
		case *ast.FunctionDeclaration:
			// Placeholder; the real signature is built after alias
			// resolution.
			w.env.DefineFunction(name, typesystem.TFunc{})
		case *ast.ConstDeclaration:
			w.env.DefineConst(name, typesystem.TUnknown{})
		}
	}
}

// fillSignatures completes the registered declarations: struct fields and
// methods, enum variants, interface method sets, function signatures and
// const types. Runs after alias resolution so annotations can name
// aliases; runs before any body is checked so bodies can call forward.
func (w *walker) fillSignatures(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		if builtinNames[ast.DeclaredName(stmt)] {
			continue // rejected by the pre-pass; must not touch the prelude's infos
		}
		switch s := stmt.(type) {
		case *ast.StructDeclaration:
			w.fillStruct(s)
		case *ast.EnumDeclaration:
			w.fillEnum(s)
		case *ast.InterfaceDeclaration:
			w.fillInterface(s)
		case *ast.FunctionDeclaration:
			w.env.DefineFunction(s.Name.Value, w.buildFunctionSignature(s))
		case *ast.ConstDeclaration:
			if s.Type != nil {
				w.env.DefineConst(s.Name.Value, w.buildType(s.Type, nil))
			}
		}
	}

	// Composition is validated only after every struct is filled, so
	// embeds declared later in the file are visible.
	for _, stmt := range prog.Statements {
		if s, ok := stmt.(*ast.StructDeclaration); ok {
			w.checkComposition(s)
		}
	}
}

func (w *walker) fillStruct(decl *ast.StructDeclaration) {
	info, ok := w.env.Struct(decl.Name.Value)
	if !ok {
		return // name collided in the pre-pass
	}

	for _, field := range decl.Fields {
		if _, exists := info.Fields[field.Name]; exists {
			w.addError(diagnostics.NewError(diagnostics.ErrDuplicateField, field.Token, field.Name, decl.Name.Value))
			continue
		}
		info.FieldOrder = append(info.FieldOrder, field.Name)
		info.Fields[field.Name] = w.buildType(field.Type, nil)
		if field.Default != nil {
			info.Defaults[field.Name] = field.Default
		}
	}
	for _, embed := range decl.Uses {
		info.Embeds = append(info.Embeds, embed.Value)
	}
	for _, method := range decl.Methods {
		info.Methods[method.Name.Value] = w.buildFunctionSignature(method)
	}
}

func (w *walker) fillEnum(decl *ast.EnumDeclaration) {
	info, ok := w.env.Enum(decl.Name.Value)
	if !ok {
		return
	}
	for _, variant := range decl.Variants {
		if _, exists := info.Variants[variant.Name]; exists {
			w.addError(diagnostics.NewError(diagnostics.ErrDuplicateDeclaration, variant.Token, variant.Name))
			continue
		}
		payload := make([]typesystem.Type, len(variant.Params))
		for i, p := range variant.Params {
			payload[i] = w.buildType(p, nil)
		}
		info.VariantOrder = append(info.VariantOrder, variant.Name)
		info.Variants[variant.Name] = payload
	}
}

func (w *walker) fillInterface(decl *ast.InterfaceDeclaration) {
	info, ok := w.env.Interface(decl.Name.Value)
	if !ok {
		return
	}
	for _, method := range decl.Methods {
		params := make([]typesystem.Type, len(method.Params))
		for i, p := range method.Params {
			params[i] = w.buildType(p, nil)
		}
		var ret typesystem.Type
		if method.Return != nil {
			ret = w.buildType(method.Return, nil)
		}
		info.Methods[method.Name] = typesystem.TFunc{
			Params:   params,
			Return:   ret,
			Required: len(params),
		}
	}
}

// buildFunctionSignature builds a TFunc from a declaration, warning on
// generic parameters that never appear in the signature.
func (w *walker) buildFunctionSignature(decl *ast.FunctionDeclaration) typesystem.TFunc {
	scope := make(map[string]string, len(decl.TypeParams))
	typeParams := make([]typesystem.TVar, 0, len(decl.TypeParams))
	for _, tp := range decl.TypeParams {
		if tp.Constraint != "" {
			if _, ok := w.env.Interface(tp.Constraint); !ok {
				w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, tp.Token, tp.Constraint))
			}
		}
		scope[tp.Name] = tp.Constraint
		typeParams = append(typeParams, typesystem.TVar{Name: tp.Name, Constraint: tp.Constraint})
	}

	required := 0
	params := make([]typesystem.Type, len(decl.Params))
	for i, p := range decl.Params {
		params[i] = w.buildType(p.Type, scope)
		if p.Default == nil {
			required = i + 1
		}
	}
	var ret typesystem.Type
	if decl.Return != nil {
		ret = w.buildType(decl.Return, scope)
	}

	sig := typesystem.TFunc{
		TypeParams: typeParams,
		Params:     params,
		Return:     ret,
		Required:   required,
	}

	used := make(map[string]bool)
	collectTypeVars(params, used)
	if ret != nil {
		collectTypeVars([]typesystem.Type{ret}, used)
	}
	for _, tp := range decl.TypeParams {
		if !used[tp.Name] {
			w.addError(diagnostics.NewError(diagnostics.WarnUnusedGenericParam, tp.Token, tp.Name))
		}
	}
	return sig
}

func collectTypeVars(types []typesystem.Type, out map[string]bool) {
	for _, t := range types {
		switch typ := t.(type) {
		case typesystem.TVar:
			out[typ.Name] = true
		case typesystem.TApp:
			collectTypeVars(typ.Args, out)
		case typesystem.TShape:
			for _, f := range typ.Fields {
				collectTypeVars([]typesystem.Type{f.Type}, out)
			}
		case typesystem.TUnion:
			collectTypeVars(typ.Types, out)
		case typesystem.TFunc:
			collectTypeVars(typ.Params, out)
			if typ.Return != nil {
				collectTypeVars([]typesystem.Type{typ.Return}, out)
			}
		}
	}
}

// checkComposition verifies `use Other` embeds: the embedded struct must
// exist and its promoted fields must not collide with the composing
// struct's own fields or with other embeds.
func (w *walker) checkComposition(decl *ast.StructDeclaration) {
	info, ok := w.env.Struct(decl.Name.Value)
	if !ok {
		return
	}

	seen := make(map[string]bool, len(info.Fields))
	for name := range info.Fields {
		seen[name] = true
	}

	for _, embed := range decl.Uses {
		embedded, ok := w.env.Struct(embed.Value)
		if !ok {
			w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, embed.Token, embed.Value))
			continue
		}
		for _, field := range w.promotedFields(embedded) {
			if seen[field] {
				w.addError(diagnostics.NewError(diagnostics.ErrDuplicateField, embed.Token, field, decl.Name.Value))
				continue
			}
			seen[field] = true
		}
	}
}

// promotedFields returns every field an embed contributes, including its
// own embeds, cycle-safe.
func (w *walker) promotedFields(info *symbols.StructInfo) []string {
	var out []string
	visited := map[string]bool{}
	var walk func(s *symbols.StructInfo)
	walk = func(s *symbols.StructInfo) {
		if visited[s.Name] {
			return
		}
		visited[s.Name] = true
		out = append(out, s.FieldOrder...)
		for _, embed := range s.Embeds {
			if inner, ok := w.env.Struct(embed); ok {
				walk(inner)
			}
		}
	}
	walk(info)
	return out
}
