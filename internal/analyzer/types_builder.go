package analyzer

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/config"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// buildType lowers a type annotation into a TypeScheme. typeParamScope
// maps in-scope generic parameter names to their constraint (possibly "").
func (w *walker) buildType(texpr ast.TypeExpr, typeParamScope map[string]string) typesystem.Type {
	switch t := texpr.(type) {
	case *ast.TypeRef:
		if t.Nullable {
			w.addError(diagnostics.NewError(diagnostics.ErrNullRejected, t.Token))
		}
		args := make([]typesystem.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = w.buildType(a, typeParamScope)
		}
		return w.buildNamedType(t, args, typeParamScope)

	case *ast.ShapeType:
		fields := make(map[string]typesystem.ShapeField, len(t.Fields))
		for _, f := range t.Fields {
			if _, exists := fields[f.Name]; exists {
				w.addError(diagnostics.NewError(diagnostics.ErrDuplicateKey, f.Token, f.Name))
				continue
			}
			fields[f.Name] = typesystem.ShapeField{
				Type:     w.buildType(f.Type, typeParamScope),
				Optional: f.Optional,
			}
		}
		return typesystem.TShape{Fields: fields}
	}
	return typesystem.TUnknown{}
}

func (w *walker) buildNamedType(ref *ast.TypeRef, args []typesystem.Type, typeParamScope map[string]string) typesystem.Type {
	name := ref.Name

	if constraint, ok := typeParamScope[name]; ok {
		return typesystem.TVar{Name: name, Constraint: constraint}
	}

	switch name {
	case config.IntTypeName:
		return typesystem.TPrim{Kind: typesystem.Int}
	case config.FloatTypeName:
		return typesystem.TPrim{Kind: typesystem.Float}
	case config.BoolTypeName:
		return typesystem.TPrim{Kind: typesystem.Bool}
	case config.StringTypeName:
		return typesystem.TPrim{Kind: typesystem.String}
	case config.VoidTypeName:
		return typesystem.TPrim{Kind: typesystem.Void}
	case "null":
		w.addError(diagnostics.NewError(diagnostics.ErrNullRejected, ref.Token))
		return typesystem.TUnknown{}
	case config.OptionTypeName:
		if len(args) != 1 {
			w.addError(diagnostics.NewError(diagnostics.ErrArityMismatch, ref.Token, config.OptionTypeName, 1, len(args)))
			return typesystem.TUnknown{}
		}
		return typesystem.TApp{Base: config.OptionTypeName, Args: args}
	case config.ResultTypeName:
		if len(args) != 2 {
			w.addError(diagnostics.NewError(diagnostics.ErrArityMismatch, ref.Token, config.ResultTypeName, 2, len(args)))
			return typesystem.TUnknown{}
		}
		return typesystem.TApp{Base: config.ResultTypeName, Args: args}
	}

	if info, ok := w.env.Alias(name); ok {
		if info.Resolved != nil {
			return info.Resolved
		}
		return typesystem.TUnknown{}
	}
	if _, ok := w.env.Struct(name); ok {
		return typesystem.TStruct{Name: name}
	}
	if info, ok := w.env.Enum(name); ok {
		if len(info.TypeParams) > 0 {
			if len(args) != len(info.TypeParams) {
				w.addError(diagnostics.NewError(diagnostics.ErrArityMismatch, ref.Token, name, len(info.TypeParams), len(args)))
				return typesystem.TUnknown{}
			}
			return typesystem.TApp{Base: name, Args: args}
		}
		return typesystem.TEnum{Name: name}
	}
	if _, ok := w.env.Interface(name); ok {
		return typesystem.TInterface{Name: name}
	}

	w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, ref.Token, name))
	return typesystem.TUnknown{}
}
