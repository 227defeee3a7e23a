package analyzer

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// resolveAliases eagerly resolves every `type Name = ...` in declaration
// order. A self-referential or mutually-recursive chain with no
// terminating concrete type is reported once and the alias is pinned to
// Unknown so the rest of the module checks without cascading.
func (w *walker) resolveAliases() {
	for _, decl := range w.aliasOrder {
		visiting := make(map[string]bool)
		w.resolveAlias(decl.Name.Value, decl, visiting)
	}
}

func (w *walker) resolveAlias(name string, decl *ast.TypeAliasDeclaration, visiting map[string]bool) typesystem.Type {
	info, ok := w.env.Alias(name)
	if !ok {
		return typesystem.TUnknown{}
	}
	if info.Resolved != nil {
		return info.Resolved
	}
	if visiting[name] {
		w.addError(diagnostics.NewError(diagnostics.ErrCircularAlias, decl.GetToken(), name))
		info.Resolved = typesystem.TUnknown{}
		return info.Resolved
	}
	visiting[name] = true
	info.Resolved = w.buildTypeResolvingAliases(info.Raw, visiting)
	delete(visiting, name)
	return info.Resolved
}

// buildTypeResolvingAliases is buildType restricted to the alias pass: a
// reference to another alias recurses through resolveAlias with the
// shared visiting set so cycles surface.
func (w *walker) buildTypeResolvingAliases(texpr ast.TypeExpr, visiting map[string]bool) typesystem.Type {
	ref, ok := texpr.(*ast.TypeRef)
	if !ok {
		return w.buildType(texpr, nil)
	}
	if info, isAlias := w.env.Alias(ref.Name); isAlias {
		if info.Resolved != nil {
			return info.Resolved
		}
		if visiting[ref.Name] {
			w.addError(diagnostics.NewError(diagnostics.ErrCircularAlias, ref.Token, ref.Name))
			info.Resolved = typesystem.TUnknown{}
			return info.Resolved
		}
		visiting[ref.Name] = true
		info.Resolved = w.buildTypeResolvingAliases(info.Raw, visiting)
		delete(visiting, ref.Name)
		return info.Resolved
	}
	if len(ref.Args) > 0 {
		args := make([]typesystem.Type, len(ref.Args))
		for i, a := range ref.Args {
			args[i] = w.buildTypeResolvingAliases(a, visiting)
		}
		return w.buildNamedType(ref, args, nil)
	}
	return w.buildType(texpr, nil)
}
