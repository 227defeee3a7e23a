package analyzer

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// inferExpression infers an expression's type bottom-up, recording it in
// the TypeMap. Inference never stops at an error: a failed subexpression
// yields Unknown, which absorbs downstream so one mistake is reported
// once.
func (w *walker) inferExpression(expr ast.Expression) typesystem.Type {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return w.setType(e, typesystem.TPrim{Kind: typesystem.Int})
	case *ast.FloatLiteral:
		return w.setType(e, typesystem.TPrim{Kind: typesystem.Float})
	case *ast.StringLiteral:
		return w.setType(e, typesystem.TPrim{Kind: typesystem.String})
	case *ast.BooleanLiteral:
		return w.setType(e, typesystem.TPrim{Kind: typesystem.Bool})
	case *ast.NullLiteral:
		w.addError(diagnostics.NewError(diagnostics.ErrNullRejected, e.Token))
		return w.setType(e, typesystem.TUnknown{})

	case *ast.Variable:
		if t, ok := w.env.LookupVar(e.Name); ok {
			return w.setType(e, t)
		}
		w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, e.Token, "$"+e.Name))
		return w.setType(e, typesystem.TUnknown{})

	case *ast.Identifier:
		return w.setType(e, w.inferIdentifier(e))

	case *ast.ObjectLiteral:
		return w.setType(e, w.inferObjectLiteral(e))

	case *ast.StructLiteral:
		return w.setType(e, w.inferStructLiteral(e))

	case *ast.DotAccess:
		return w.setType(e, w.inferDotAccess(e))

	case *ast.ScopeResolution:
		return w.setType(e, w.inferScopeResolution(e))

	case *ast.CallExpression:
		return w.setType(e, w.inferCall(e))

	case *ast.InfixExpression:
		return w.setType(e, w.inferInfix(e))

	case *ast.PrefixExpression:
		return w.setType(e, w.inferPrefix(e))

	case *ast.AssignExpression:
		return w.setType(e, w.inferAssign(e))

	case *ast.IssetExpression:
		w.inferExpression(e.Target)
		return w.setType(e, typesystem.TPrim{Kind: typesystem.Bool})

	case *ast.MatchExpression:
		return w.setType(e, w.inferMatch(e))
	}
	return typesystem.TUnknown{}
}

func (w *walker) inferIdentifier(e *ast.Identifier) typesystem.Type {
	if t, ok := w.env.Const(e.Value); ok {
		return t
	}
	if sig, ok := w.env.Function(e.Value); ok {
		return sig
	}
	// Bare enum constructor reference: None, Some, user variants.
	if info, ok := w.env.EnumForVariant(e.Value); ok {
		return w.variantType(info, e.Value, nil)
	}
	w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, e.Token, e.Value))
	return typesystem.TUnknown{}
}

func (w *walker) inferObjectLiteral(e *ast.ObjectLiteral) typesystem.Type {
	fields := make(map[string]typesystem.ShapeField, len(e.Fields))
	for _, f := range ast.ExpandShorthand(e.Fields) {
		if _, exists := fields[f.Key]; exists {
			w.addError(diagnostics.NewError(diagnostics.ErrDuplicateKey, f.Token, f.Key))
			w.inferExpression(f.Value)
			continue
		}
		fields[f.Key] = typesystem.ShapeField{Type: w.inferExpression(f.Value)}
	}
	return typesystem.TShape{Fields: fields}
}

// inferStructLiteral checks a nominal construction field-by-field against
// the struct definition: unknown fields, per-field assignability, and
// missing required fields (no default, not provided, including promoted
// embeds).
func (w *walker) inferStructLiteral(e *ast.StructLiteral) typesystem.Type {
	info, ok := w.env.Struct(e.Name.Value)
	if !ok {
		w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, e.Name.Token, e.Name.Value))
		for _, f := range e.Fields {
			w.inferExpression(f.Value)
		}
		return typesystem.TUnknown{}
	}

	provided := make(map[string]bool, len(e.Fields))
	for _, f := range ast.ExpandShorthand(e.Fields) {
		if provided[f.Key] {
			w.addError(diagnostics.NewError(diagnostics.ErrDuplicateKey, f.Token, f.Key))
			w.inferExpression(f.Value)
			continue
		}
		provided[f.Key] = true

		declared, found := w.env.StructFieldType(info.Name, f.Key)
		actual := w.inferExpression(f.Value)
		if !found {
			w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, f.Token, f.Key))
			continue
		}
		if !typesystem.AssignableTo(actual, declared) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, f.Value.GetToken(), declared.String(), actual.String()))
		}
	}

	for _, field := range w.requiredFields(info) {
		if !provided[field] {
			w.addError(diagnostics.NewError(diagnostics.ErrMissingField, e.Token, info.Name, field))
		}
	}
	return typesystem.TStruct{Name: info.Name}
}

// requiredFields lists fields without defaults, own fields first, then
// promoted embeds.
func (w *walker) requiredFields(info *symbols.StructInfo) []string {
	var out []string
	visited := map[string]bool{}
	var walk func(s *symbols.StructInfo)
	walk = func(s *symbols.StructInfo) {
		if visited[s.Name] {
			return
		}
		visited[s.Name] = true
		for _, name := range s.FieldOrder {
			if _, hasDefault := s.Defaults[name]; !hasDefault {
				out = append(out, name)
			}
		}
		for _, embed := range s.Embeds {
			if inner, ok := w.env.Struct(embed); ok {
				walk(inner)
			}
		}
	}
	walk(info)
	return out
}

// inferDotAccess handles the tight member-access form. A loose dot was
// parsed as string concatenation upstream; if one still arrives it is
// typed as concatenation here.
func (w *walker) inferDotAccess(e *ast.DotAccess) typesystem.Type {
	if !ast.IsMemberAccess(e) {
		w.inferExpression(e.Left)
		return typesystem.TPrim{Kind: typesystem.String}
	}

	receiver := w.inferExpression(e.Left)
	switch r := receiver.(type) {
	case typesystem.TStruct:
		if t, ok := w.env.StructFieldType(r.Name, e.Member.Value); ok {
			return t
		}
		if info, ok := w.env.Struct(r.Name); ok {
			if sig, ok := info.Methods[e.Member.Value]; ok {
				return sig
			}
		}
		w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, e.Member.Token, e.Member.Value))
		return typesystem.TUnknown{}

	case typesystem.TShape:
		if f, ok := r.Fields[e.Member.Value]; ok {
			return f.Type
		}
		w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, e.Member.Token, e.Member.Value))
		return typesystem.TUnknown{}

	case typesystem.TUnknown, typesystem.TMixed:
		return typesystem.TUnknown{}
	}

	w.addError(diagnostics.NewError(diagnostics.ErrInvalidDotAccess, e.Token, receiver.String()))
	return typesystem.TUnknown{}
}

func (w *walker) inferScopeResolution(e *ast.ScopeResolution) typesystem.Type {
	info, ok := w.env.Enum(e.Left.Value)
	if !ok {
		w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, e.Left.Token, e.Left.Value))
		return typesystem.TUnknown{}
	}
	if _, ok := info.Variants[e.Member.Value]; !ok {
		w.addError(diagnostics.NewError(diagnostics.ErrUnknownName, e.Member.Token, e.Left.Value+"::"+e.Member.Value))
		return typesystem.TUnknown{}
	}
	return w.variantType(info, e.Member.Value, nil)
}

// variantType builds the TEnumCase for a variant. enumArgs instantiate a
// generic enum's parameters (nil leaves them as type variables for the
// call-site inference to resolve).
func (w *walker) variantType(info *symbols.EnumInfo, variant string, enumArgs []typesystem.Type) typesystem.Type {
	payload := info.Variants[variant]
	if len(info.TypeParams) > 0 && enumArgs != nil {
		subst := make(typesystem.Subst, len(info.TypeParams))
		for i, name := range info.TypeParams {
			if i < len(enumArgs) {
				subst[name] = enumArgs[i]
			}
		}
		instantiated := make([]typesystem.Type, len(payload))
		for i, p := range payload {
			instantiated[i] = p.Apply(subst)
		}
		payload = instantiated
	}
	return typesystem.TEnumCase{Enum: info.Name, Case: variant, Args: payload}
}

func (w *walker) inferInfix(e *ast.InfixExpression) typesystem.Type {
	left := w.inferExpression(e.Left)
	right := w.inferExpression(e.Right)

	switch e.Operator {
	case "+", "-", "*", "/", "%":
		if !typesystem.IsNumeric(left) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Left.GetToken(), "int|float", left.String()))
			return typesystem.TUnknown{}
		}
		if !typesystem.IsNumeric(right) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Right.GetToken(), "int|float", right.String()))
			return typesystem.TUnknown{}
		}
		if isFloat(left) || isFloat(right) {
			return typesystem.TPrim{Kind: typesystem.Float}
		}
		return typesystem.TPrim{Kind: typesystem.Int}

	case "===", "!==", "<", ">", "<=", ">=":
		return typesystem.TPrim{Kind: typesystem.Bool}

	case "&&", "||":
		boolT := typesystem.TPrim{Kind: typesystem.Bool}
		if !typesystem.AssignableTo(left, boolT) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Left.GetToken(), "bool", left.String()))
		}
		if !typesystem.AssignableTo(right, boolT) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Right.GetToken(), "bool", right.String()))
		}
		return boolT

	case ".":
		// Loose-dot concatenation.
		return typesystem.TPrim{Kind: typesystem.String}
	}
	return typesystem.TUnknown{}
}

func isFloat(t typesystem.Type) bool {
	prim, ok := t.(typesystem.TPrim)
	return ok && prim.Kind == typesystem.Float
}

func (w *walker) inferPrefix(e *ast.PrefixExpression) typesystem.Type {
	operand := w.inferExpression(e.Right)
	switch e.Operator {
	case "!":
		if !typesystem.AssignableTo(operand, typesystem.TPrim{Kind: typesystem.Bool}) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Right.GetToken(), "bool", operand.String()))
		}
		return typesystem.TPrim{Kind: typesystem.Bool}
	case "-":
		if !typesystem.IsNumeric(operand) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Right.GetToken(), "int|float", operand.String()))
			return typesystem.TUnknown{}
		}
		return operand
	}
	return typesystem.TUnknown{}
}

func (w *walker) inferAssign(e *ast.AssignExpression) typesystem.Type {
	actual := w.inferExpression(e.Value)

	switch target := e.Left.(type) {
	case *ast.Variable:
		if declared, exists := w.env.LookupVar(target.Name); exists {
			if !typesystem.AssignableTo(actual, declared) {
				w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Value.GetToken(), declared.String(), actual.String()))
			}
			w.setType(target, declared)
			return declared
		}
		w.env.SetVar(target.Name, actual)
		w.setType(target, actual)
		return actual

	case *ast.DotAccess:
		declared := w.inferDotAccess(target)
		w.setType(target, declared)
		if !typesystem.AssignableTo(actual, declared) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Value.GetToken(), declared.String(), actual.String()))
		}
		return declared
	}

	w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, e.Token, "assignable target", "expression"))
	return typesystem.TUnknown{}
}
