package analyzer

import (
	"sort"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/typesystem"
)

func (w *walker) inferCall(e *ast.CallExpression) typesystem.Type {
	switch callee := e.Callee.(type) {
	case *ast.Identifier:
		if sig, ok := w.env.Function(callee.Value); ok {
			return w.checkCall(callee.Value, sig, e)
		}
		if info, ok := w.env.EnumForVariant(callee.Value); ok {
			return w.checkVariantCall(info, callee.Value, e)
		}
		w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, callee.Token, callee.Value))
		w.inferArgs(e)
		return typesystem.TUnknown{}

	case *ast.ScopeResolution:
		info, ok := w.env.Enum(callee.Left.Value)
		if !ok {
			w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, callee.Left.Token, callee.Left.Value))
			w.inferArgs(e)
			return typesystem.TUnknown{}
		}
		if _, ok := info.Variants[callee.Member.Value]; !ok {
			w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, callee.Member.Token, callee.Left.Value+"::"+callee.Member.Value))
			w.inferArgs(e)
			return typesystem.TUnknown{}
		}
		return w.checkVariantCall(info, callee.Member.Value, e)

	case *ast.DotAccess:
		// Struct method call: receiver.method(args).
		if ast.IsMemberAccess(callee) {
			receiver := w.inferExpression(callee.Left)
			if st, ok := receiver.(typesystem.TStruct); ok {
				if info, ok := w.env.Struct(st.Name); ok {
					if sig, ok := info.Methods[callee.Member.Value]; ok {
						return w.checkCall(st.Name+"."+callee.Member.Value, sig, e)
					}
				}
				w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, callee.Member.Token, callee.Member.Value))
				w.inferArgs(e)
				return typesystem.TUnknown{}
			}
			if isAbsorbing(receiver) {
				w.inferArgs(e)
				return typesystem.TUnknown{}
			}
			w.addError(diagnostics.NewError(diagnostics.ErrInvalidDotAccess, callee.Token, receiver.String()))
			w.inferArgs(e)
			return typesystem.TUnknown{}
		}
	}

	calleeType := w.inferExpression(e.Callee)
	if sig, ok := calleeType.(typesystem.TFunc); ok {
		return w.checkCall(e.Callee.TokenLiteral(), sig, e)
	}
	if !isAbsorbing(calleeType) {
		w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Token, "function", calleeType.String()))
	}
	w.inferArgs(e)
	return typesystem.TUnknown{}
}

func isAbsorbing(t typesystem.Type) bool {
	switch t.(type) {
	case typesystem.TUnknown, typesystem.TMixed:
		return true
	}
	return false
}

func (w *walker) inferArgs(e *ast.CallExpression) []typesystem.Type {
	types := make([]typesystem.Type, len(e.Args))
	for i, arg := range e.Args {
		types[i] = w.inferExpression(arg)
	}
	return types
}

// checkCall validates arity, resolves generic parameters (explicit type
// arguments win over inference from actuals), verifies constraints and
// per-parameter compatibility, and returns the instantiated return type.
func (w *walker) checkCall(name string, sig typesystem.TFunc, e *ast.CallExpression) typesystem.Type {
	argTypes := w.inferArgs(e)

	if len(argTypes) < sig.Required || len(argTypes) > len(sig.Params) {
		expected := sig.Required
		if len(argTypes) > len(sig.Params) {
			expected = len(sig.Params)
		}
		w.addError(diagnostics.NewError(diagnostics.ErrArityMismatch, e.Token, name, expected, len(argTypes)))
		return returnOf(sig, nil)
	}

	subst := make(typesystem.Subst)
	if len(e.TypeArgs) > 0 {
		if len(e.TypeArgs) != len(sig.TypeParams) {
			w.addError(diagnostics.NewError(diagnostics.ErrArityMismatch, e.Token,
				name+" type arguments", len(sig.TypeParams), len(e.TypeArgs)))
		}
		for i, tp := range sig.TypeParams {
			if i < len(e.TypeArgs) {
				subst[tp.Name] = w.buildType(e.TypeArgs[i], nil)
			}
		}
	} else {
		for i, argType := range argTypes {
			w.unify(sig.Params[i], argType, subst)
		}
	}

	for _, tp := range sig.TypeParams {
		if tp.Constraint == "" {
			continue
		}
		concrete, bound := subst[tp.Name]
		if !bound || isAbsorbing(concrete) {
			continue
		}
		iface, ok := w.env.Interface(tp.Constraint)
		if !ok {
			continue // already reported at declaration
		}
		if missing, ok := w.satisfies(concrete, iface); !ok {
			w.addError(diagnostics.NewError(diagnostics.ErrConstraintNotSatisfied, e.Token, concrete.String(), iface.Name, missing))
		}
	}

	for i, argType := range argTypes {
		expected := sig.Params[i].Apply(subst)
		if !typesystem.AssignableTo(argType, expected) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Args[i].GetToken(), expected.String(), argType.String()))
		}
	}

	return returnOf(sig, subst)
}

func returnOf(sig typesystem.TFunc, subst typesystem.Subst) typesystem.Type {
	if sig.Return == nil {
		return typesystem.TPrim{Kind: typesystem.Void}
	}
	if subst == nil {
		return sig.Return
	}
	return sig.Return.Apply(subst)
}

// checkVariantCall types an enum constructor call: payload arity must
// match the declaration, and for generic enums the payload actuals
// instantiate the enum's type parameters.
func (w *walker) checkVariantCall(info *symbols.EnumInfo, variant string, e *ast.CallExpression) typesystem.Type {
	argTypes := w.inferArgs(e)
	payload := info.Variants[variant]

	if len(argTypes) != len(payload) {
		w.addError(diagnostics.NewError(diagnostics.ErrArityMismatch, e.Token, info.Name+"::"+variant, len(payload), len(argTypes)))
		return typesystem.TEnumCase{Enum: info.Name, Case: variant, Args: argTypes}
	}

	subst := make(typesystem.Subst)
	for i, declared := range payload {
		w.unify(declared, argTypes[i], subst)
	}
	for i, declared := range payload {
		expected := declared.Apply(subst)
		if !typesystem.AssignableTo(argTypes[i], expected) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Args[i].GetToken(), expected.String(), argTypes[i].String()))
		}
	}

	instantiated := make([]typesystem.Type, len(payload))
	for i, declared := range payload {
		instantiated[i] = declared.Apply(subst)
	}
	return typesystem.TEnumCase{Enum: info.Name, Case: variant, Args: instantiated}
}

// unify binds generic parameters in `param` against the shape of `arg`.
// Directional and shallow: no occurs check, no constraint solving. A
// parameter bound twice merges, so id(1, "x") against (T, T) infers the
// union rather than silently picking a winner.
func (w *walker) unify(param, arg typesystem.Type, subst typesystem.Subst) {
	switch p := param.(type) {
	case typesystem.TVar:
		if isAbsorbing(arg) {
			return
		}
		if existing, ok := subst[p.Name]; ok {
			subst[p.Name] = typesystem.Merge(existing, arg)
			return
		}
		subst[p.Name] = arg

	case typesystem.TApp:
		switch a := arg.(type) {
		case typesystem.TApp:
			if a.Base == p.Base && len(a.Args) == len(p.Args) {
				for i := range p.Args {
					w.unify(p.Args[i], a.Args[i], subst)
				}
			}
		case typesystem.TEnumCase:
			if a.Enum != p.Base {
				return
			}
			info, ok := w.env.Enum(a.Enum)
			if !ok || len(info.TypeParams) != len(p.Args) {
				return
			}
			// Recover the enum's own type arguments from the case
			// payload, then line them up with the applied parameters.
			caseSubst := make(typesystem.Subst)
			declared := info.Variants[a.Case]
			for i := 0; i < len(declared) && i < len(a.Args); i++ {
				w.unify(declared[i], a.Args[i], caseSubst)
			}
			for i, tpName := range info.TypeParams {
				if enumArg, ok := caseSubst[tpName]; ok {
					w.unify(p.Args[i], enumArg, subst)
				}
			}
		}

	case typesystem.TShape:
		if a, ok := arg.(typesystem.TShape); ok {
			for name, pf := range p.Fields {
				if af, ok := a.Fields[name]; ok {
					w.unify(pf.Type, af.Type, subst)
				}
			}
		}

	case typesystem.TFunc:
		if a, ok := arg.(typesystem.TFunc); ok && len(a.Params) == len(p.Params) {
			for i := range p.Params {
				w.unify(p.Params[i], a.Params[i], subst)
			}
			if p.Return != nil && a.Return != nil {
				w.unify(p.Return, a.Return, subst)
			}
		}
	}
}

// satisfies checks structural interface satisfaction: the concrete type
// must carry every method of the interface with an identical signature.
// Returns the first missing or mismatched method name (sorted, so the
// diagnostic is deterministic).
func (w *walker) satisfies(concrete typesystem.Type, iface *symbols.InterfaceInfo) (string, bool) {
	var methods map[string]typesystem.TFunc
	if st, ok := concrete.(typesystem.TStruct); ok {
		if info, ok := w.env.Struct(st.Name); ok {
			methods = info.Methods
		}
	}

	names := make([]string, 0, len(iface.Methods))
	for name := range iface.Methods {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		want := iface.Methods[name]
		got, ok := methods[name]
		if !ok {
			return name, false
		}
		if !sameSignature(got, want) {
			return name, false
		}
	}
	return "", true
}

func sameSignature(got, want typesystem.TFunc) bool {
	if len(got.Params) != len(want.Params) {
		return false
	}
	for i := range want.Params {
		if !typesystem.Equal(got.Params[i], want.Params[i]) {
			return false
		}
	}
	if want.Return == nil || got.Return == nil {
		return want.Return == nil && got.Return == nil
	}
	return typesystem.Equal(got.Return, want.Return)
}
