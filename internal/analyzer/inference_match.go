package analyzer

import (
	"strings"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// inferMatch checks a match expression over an enum subject: every arm
// pattern must name a variant of the subject's enum with the declared
// payload arity, the arm set must cover every variant unless a '_'
// catch-all is present, and the expression's type is the merge of all
// arm body types.
func (w *walker) inferMatch(e *ast.MatchExpression) typesystem.Type {
	subject := w.inferExpression(e.Subject)

	info, enumArgs, ok := w.enumOf(subject)
	if !ok {
		if !isAbsorbing(subject) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Subject.GetToken(), "enum", subject.String()))
		}
		// Still walk the arm bodies so their own errors surface.
		for _, arm := range e.Arms {
			w.checkMatchArm(arm, nil, nil, e.Subject)
		}
		return typesystem.TUnknown{}
	}

	covered := make(map[string]bool, len(info.VariantOrder))
	catchAll := false
	var result typesystem.Type = typesystem.TUnknown{}

	for _, arm := range e.Arms {
		pat := arm.Pattern
		if pat.CatchAll {
			catchAll = true
			result = typesystem.Merge(result, w.enumInstance(w.checkMatchArm(arm, nil, nil, e.Subject)))
			continue
		}
		if pat.Enum != "" && pat.Enum != info.Name {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, pat.Token, info.Name, pat.Enum))
			result = typesystem.Merge(result, w.enumInstance(w.checkMatchArm(arm, nil, nil, e.Subject)))
			continue
		}
		payload, known := info.Variants[pat.Case]
		if !known {
			w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, pat.Token, info.Name+"::"+pat.Case))
			result = typesystem.Merge(result, w.enumInstance(w.checkMatchArm(arm, nil, nil, e.Subject)))
			continue
		}
		covered[pat.Case] = true

		if len(pat.Bindings) != len(payload) {
			w.addError(diagnostics.NewError(diagnostics.ErrPayloadArityMismatch, pat.Token, info.Name+"::"+pat.Case, len(payload), len(pat.Bindings)))
		}
		bindings := w.instantiatePayload(info, pat.Case, enumArgs)
		narrowed := w.variantType(info, pat.Case, enumArgs)
		result = typesystem.Merge(result, w.enumInstance(w.checkMatchArm(arm, bindings, narrowed, e.Subject)))
	}

	if !catchAll {
		var missing []string
		for _, v := range info.VariantOrder {
			if !covered[v] {
				missing = append(missing, info.Name+"::"+v)
			}
		}
		if len(missing) > 0 {
			w.addError(diagnostics.NewError(diagnostics.ErrNonExhaustiveMatch, e.Token, info.Name, strings.Join(missing, ", ")))
		}
	}

	return result
}

// checkMatchArm types one arm in a fresh scope: payload bindings become
// variables, the subject (when it is a plain variable) is narrowed to the
// matched case, the guard must be boolean, and the body's type is the
// arm's contribution.
func (w *walker) checkMatchArm(arm *ast.MatchArm, bindings []typesystem.Type, narrowed typesystem.Type, subject ast.Expression) typesystem.Type {
	w.env.PushScope()
	w.env.PushNarrowing()
	defer w.env.PopNarrowing()
	defer w.env.PopScope()

	for i, b := range arm.Pattern.Bindings {
		var t typesystem.Type = typesystem.TUnknown{}
		if i < len(bindings) {
			t = bindings[i]
		}
		w.env.SetVar(b.Name, t)
	}
	if narrowed != nil {
		if v, ok := subject.(*ast.Variable); ok {
			w.env.Narrow(v.Name, narrowed)
		}
	}

	if arm.Guard != nil {
		guard := w.inferExpression(arm.Guard)
		if !typesystem.AssignableTo(guard, typesystem.TPrim{Kind: typesystem.Bool}) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, arm.Guard.GetToken(), "bool", guard.String()))
		}
	}

	return w.inferExpression(arm.Body)
}

// enumOf extracts the enum declaration and its type arguments from a
// subject type. A bare case value matches against its owning enum, so
// `match (Some(1))` still sees Option's full variant set.
func (w *walker) enumOf(subject typesystem.Type) (*symbols.EnumInfo, []typesystem.Type, bool) {
	switch s := subject.(type) {
	case typesystem.TEnum:
		info, ok := w.env.Enum(s.Name)
		return info, nil, ok
	case typesystem.TApp:
		info, ok := w.env.Enum(s.Base)
		return info, s.Args, ok
	case typesystem.TEnumCase:
		info, ok := w.env.Enum(s.Enum)
		if !ok {
			return nil, nil, false
		}
		return info, w.enumArgsFromCase(info, s), true
	}
	return nil, nil, false
}

// enumInstance widens a bare case type to its enum's instantiation, so
// arms returning Some(1) and None merge to Option<int> rather than a
// caseless Option.
func (w *walker) enumInstance(t typesystem.Type) typesystem.Type {
	c, ok := t.(typesystem.TEnumCase)
	if !ok {
		return t
	}
	info, ok := w.env.Enum(c.Enum)
	if !ok {
		return t
	}
	if len(info.TypeParams) == 0 {
		return typesystem.TEnum{Name: c.Enum}
	}
	return typesystem.TApp{Base: c.Enum, Args: w.enumArgsFromCase(info, c)}
}

// enumArgsFromCase recovers the enum's type arguments from a concrete
// case's payload, e.g. Some(int) pins Option's T to int. Parameters the
// case doesn't mention stay Unknown.
func (w *walker) enumArgsFromCase(info *symbols.EnumInfo, c typesystem.TEnumCase) []typesystem.Type {
	if len(info.TypeParams) == 0 {
		return nil
	}
	subst := make(typesystem.Subst)
	declared := info.Variants[c.Case]
	for i := 0; i < len(declared) && i < len(c.Args); i++ {
		w.unify(declared[i], c.Args[i], subst)
	}
	args := make([]typesystem.Type, len(info.TypeParams))
	for i, name := range info.TypeParams {
		if t, ok := subst[name]; ok {
			args[i] = t
		} else {
			args[i] = typesystem.TUnknown{}
		}
	}
	return args
}

// instantiatePayload substitutes the enum's type arguments into a
// variant's declared payload types.
func (w *walker) instantiatePayload(info *symbols.EnumInfo, variant string, enumArgs []typesystem.Type) []typesystem.Type {
	payload := info.Variants[variant]
	if len(info.TypeParams) == 0 || enumArgs == nil {
		return payload
	}
	subst := make(typesystem.Subst, len(info.TypeParams))
	for i, name := range info.TypeParams {
		if i < len(enumArgs) {
			subst[name] = enumArgs[i]
		}
	}
	out := make([]typesystem.Type, len(payload))
	for i, p := range payload {
		out[i] = p.Apply(subst)
	}
	return out
}
