package analyzer

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/config"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// fact is one flow-sensitive refinement: inside the guarded branch,
// variable `name` is known to have type `t`.
type fact struct {
	name string
	t    typesystem.Type
}

// narrowFacts extracts refinements from a branch condition. Recognized
// shapes:
//
//	$x === Enum::Case   narrows $x to that case (negated: the complement
//	                    on two-variant enums)
//	$x !== Enum::Case   the mirror of the above
//	isset($x)           narrows an Option-typed $x to Some
//	a && b              facts from both sides (positive form only)
//	!cond               flips negate
//
// Anything else yields no facts; narrowing is best-effort and never
// produces errors of its own.
func (w *walker) narrowFacts(cond ast.Expression, negate bool) []fact {
	switch e := cond.(type) {
	case *ast.PrefixExpression:
		if e.Operator == "!" {
			return w.narrowFacts(e.Right, !negate)
		}

	case *ast.IssetExpression:
		v, ok := e.Target.(*ast.Variable)
		if !ok {
			return nil
		}
		t, ok := w.env.LookupVar(v.Name)
		if !ok {
			return nil
		}
		elem, ok := typesystem.AsOption(t)
		if !ok {
			return nil
		}
		if negate {
			return []fact{{name: v.Name, t: typesystem.TEnumCase{Enum: config.OptionTypeName, Case: config.NoneCtorName}}}
		}
		return []fact{{name: v.Name, t: typesystem.TEnumCase{Enum: config.OptionTypeName, Case: config.SomeCtorName, Args: []typesystem.Type{elem}}}}

	case *ast.InfixExpression:
		switch e.Operator {
		case "&&":
			if negate {
				return nil
			}
			return append(w.narrowFacts(e.Left, false), w.narrowFacts(e.Right, false)...)
		case "||":
			// De Morgan: !(a || b) gives both negated facts.
			if !negate {
				return nil
			}
			return append(w.narrowFacts(e.Left, true), w.narrowFacts(e.Right, true)...)
		case "===":
			return w.equalityFacts(e, negate)
		case "!==":
			return w.equalityFacts(e, !negate)
		}
	}
	return nil
}

// equalityFacts handles `$x === Enum::Case` (either operand order). The
// positive form pins the variable to the case; the negative form can only
// narrow when eliminating one case leaves exactly one other.
func (w *walker) equalityFacts(e *ast.InfixExpression, negate bool) []fact {
	v, sr := splitEqualityOperands(e)
	if v == nil || sr == nil {
		return nil
	}
	info, ok := w.env.Enum(sr.Left.Value)
	if !ok {
		return nil
	}
	if _, ok := info.Variants[sr.Member.Value]; !ok {
		return nil
	}
	declared, ok := w.env.LookupVar(v.Name)
	if !ok {
		return nil
	}
	var enumArgs []typesystem.Type
	if app, ok := declared.(typesystem.TApp); ok && app.Base == info.Name {
		enumArgs = app.Args
	}

	if !negate {
		return []fact{{name: v.Name, t: w.variantType(info, sr.Member.Value, enumArgs)}}
	}
	if len(info.VariantOrder) != 2 {
		return nil
	}
	other := info.VariantOrder[0]
	if other == sr.Member.Value {
		other = info.VariantOrder[1]
	}
	return []fact{{name: v.Name, t: w.variantType(info, other, enumArgs)}}
}

func splitEqualityOperands(e *ast.InfixExpression) (*ast.Variable, *ast.ScopeResolution) {
	if v, ok := e.Left.(*ast.Variable); ok {
		if sr, ok := e.Right.(*ast.ScopeResolution); ok {
			return v, sr
		}
	}
	if v, ok := e.Right.(*ast.Variable); ok {
		if sr, ok := e.Left.(*ast.ScopeResolution); ok {
			return v, sr
		}
	}
	return nil, nil
}
