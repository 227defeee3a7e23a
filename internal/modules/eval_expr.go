package modules

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/config"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/token"
	"github.com/phpxlang/phpx/internal/values"
)

func (ev *evaluator) evalExpression(expr ast.Expression, env *evalEnv) (values.Value, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return &values.Integer{Value: e.Value}, nil
	case *ast.FloatLiteral:
		return &values.Float{Value: e.Value}, nil
	case *ast.StringLiteral:
		return &values.String{Value: e.Value}, nil
	case *ast.BooleanLiteral:
		return &values.Boolean{Value: e.Value}, nil

	case *ast.Variable:
		b, ok := env.lookup(e.Name)
		if !ok {
			return nil, evalErrf(e.Token, "undefined variable $%s", e.Name)
		}
		return b.Value(), nil

	case *ast.Identifier:
		if b, ok := env.lookup(e.Value); ok {
			return b.Value(), nil
		}
		// Bare nullary constructors resolve as values: None, etc.
		if info, ok := ev.symbols.EnumForVariant(e.Value); ok {
			arity, _ := info.PayloadArity(e.Value)
			if arity == 0 {
				return values.NewEnum(info.Name, e.Value, nil), nil
			}
			return nil, evalErrf(e.Token, "constructor %s::%s requires a payload", info.Name, e.Value)
		}
		return nil, evalErrf(e.Token, "undefined name %s", e.Value)

	case *ast.ScopeResolution:
		return ev.evalScopeResolution(e, nil)

	case *ast.ObjectLiteral:
		fields := make(map[string]values.Value, len(e.Fields))
		order := make([]string, 0, len(e.Fields))
		for _, f := range ast.ExpandShorthand(e.Fields) {
			v, err := ev.evalExpression(f.Value, env)
			if err != nil {
				return nil, err
			}
			if _, dup := fields[f.Key]; !dup {
				order = append(order, f.Key)
			}
			fields[f.Key] = v
		}
		return values.NewObject(fields, order), nil

	case *ast.StructLiteral:
		return ev.evalStructLiteral(e, env)

	case *ast.DotAccess:
		return ev.evalDotAccess(e, env)

	case *ast.CallExpression:
		return ev.evalCall(e, env)

	case *ast.InfixExpression:
		return ev.evalInfix(e, env)

	case *ast.PrefixExpression:
		return ev.evalPrefix(e, env)

	case *ast.AssignExpression:
		return ev.evalAssign(e, env)

	case *ast.IssetExpression:
		return ev.evalIsset(e, env)

	case *ast.MatchExpression:
		return ev.evalMatch(e, env)
	}
	return nil, evalErrf(expr.GetToken(), "cannot evaluate %T", expr)
}

func (ev *evaluator) evalScopeResolution(e *ast.ScopeResolution, payload []values.Value) (values.Value, error) {
	info, ok := ev.symbols.Enum(e.Left.Value)
	if !ok {
		return nil, evalErrf(e.Token, "unknown enum %s", e.Left.Value)
	}
	arity, ok := info.PayloadArity(e.Member.Value)
	if !ok {
		return nil, evalErrf(e.Token, "unknown variant %s::%s", info.Name, e.Member.Value)
	}
	if len(payload) != arity {
		return nil, evalErrf(e.Token, "%s::%s takes %d values, got %d", info.Name, e.Member.Value, arity, len(payload))
	}
	return values.NewEnum(info.Name, e.Member.Value, payload), nil
}

// structFieldSpecs lists a struct's fields in construction order, own
// fields first, then promoted ones from embeds.
func structFieldSpecs(env *symbols.Environment, info *symbols.StructInfo, order *[]string, defaults map[string]ast.Expression, seen map[string]bool) {
	for _, name := range info.FieldOrder {
		if seen[name] {
			continue
		}
		seen[name] = true
		*order = append(*order, name)
		if d, ok := info.Defaults[name]; ok {
			defaults[name] = d
		}
	}
	for _, embed := range info.Embeds {
		if sub, ok := env.Struct(embed); ok {
			structFieldSpecs(env, sub, order, defaults, seen)
		}
	}
}

func (ev *evaluator) evalStructLiteral(e *ast.StructLiteral, env *evalEnv) (values.Value, error) {
	info, ok := ev.symbols.Struct(e.Name.Value)
	if !ok {
		return nil, evalErrf(e.Token, "unknown struct %s", e.Name.Value)
	}

	var order []string
	defaults := make(map[string]ast.Expression)
	structFieldSpecs(ev.symbols, info, &order, defaults, make(map[string]bool))

	fields := make(map[string]values.Value, len(order))
	for _, f := range ast.ExpandShorthand(e.Fields) {
		v, err := ev.evalExpression(f.Value, env)
		if err != nil {
			return nil, err
		}
		fields[f.Key] = v
	}
	for _, name := range order {
		if _, set := fields[name]; set {
			continue
		}
		d, ok := defaults[name]
		if !ok {
			return nil, evalErrf(e.Token, "%s literal is missing field %s", info.Name, name)
		}
		v, err := ev.evalExpression(d, env)
		if err != nil {
			return nil, err
		}
		fields[name] = v
	}

	methods := make(map[string]bool, len(info.Methods))
	for name := range info.Methods {
		methods[name] = true
	}
	return values.NewStruct(info.Name, fields, order, methods), nil
}

func (ev *evaluator) evalDotAccess(e *ast.DotAccess, env *evalEnv) (values.Value, error) {
	left, err := ev.evalExpression(e.Left, env)
	if err != nil {
		return nil, err
	}
	if sv, ok := left.(*values.StructValue); ok && values.HasMethod(sv, e.Member.Value) {
		if bm, found := ev.loader.method(sv.Name, e.Member.Value); found {
			return &functionValue{
				name: sv.Name + "." + e.Member.Value,
				decl: bm.decl,
				env:  bm.ev.globals,
				this: sv,
			}, nil
		}
	}
	v, accErr := values.Fetch(left, e.Member.Value)
	if accErr != nil {
		return nil, evalErrf(e.Token, "%s", accErr.Error())
	}
	return v, nil
}

func (ev *evaluator) evalCall(e *ast.CallExpression, env *evalEnv) (values.Value, error) {
	switch callee := e.Callee.(type) {
	case *ast.Identifier:
		// Variant constructors shadow nothing; a name bound in scope wins.
		if _, bound := env.lookup(callee.Value); !bound {
			if info, ok := ev.symbols.EnumForVariant(callee.Value); ok {
				args, err := ev.evalArgs(e.Args, env)
				if err != nil {
					return nil, err
				}
				arity, _ := info.PayloadArity(callee.Value)
				if len(args) != arity {
					return nil, evalErrf(e.Token, "%s::%s takes %d values, got %d", info.Name, callee.Value, arity, len(args))
				}
				return values.NewEnum(info.Name, callee.Value, args), nil
			}
		}

	case *ast.ScopeResolution:
		args, err := ev.evalArgs(e.Args, env)
		if err != nil {
			return nil, err
		}
		return ev.evalScopeResolution(callee, args)
	}

	fnVal, err := ev.evalExpression(e.Callee, env)
	if err != nil {
		return nil, err
	}
	fn, ok := fnVal.(*functionValue)
	if !ok {
		return nil, evalErrf(e.Token, "%s is not callable", fnVal.TypeTag())
	}
	args, err := ev.evalArgs(e.Args, env)
	if err != nil {
		return nil, err
	}
	return ev.callFunction(fn, args, e.Token)
}

func (ev *evaluator) evalArgs(exprs []ast.Expression, env *evalEnv) ([]values.Value, error) {
	args := make([]values.Value, 0, len(exprs))
	for _, a := range exprs {
		v, err := ev.evalExpression(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (ev *evaluator) callFunction(fn *functionValue, args []values.Value, tok token.Token) (values.Value, error) {
	decl := fn.decl
	if len(args) > len(decl.Params) {
		return nil, evalErrf(tok, "%s takes at most %d arguments, got %d", fn.name, len(decl.Params), len(args))
	}
	callEnv := newEvalEnv(fn.env)
	if fn.this != nil {
		callEnv.define("this", fn.this)
	}
	for i, p := range decl.Params {
		switch {
		case i < len(args):
			callEnv.define(p.Name, args[i])
		case p.Default != nil:
			v, err := ev.evalExpression(p.Default, fn.env)
			if err != nil {
				return nil, err
			}
			callEnv.define(p.Name, v)
		default:
			return nil, evalErrf(tok, "%s is missing argument $%s", fn.name, p.Name)
		}
	}
	for _, st := range decl.Body.Statements {
		err := ev.evalStatement(st, callEnv, false)
		if ret, ok := err.(*returnSignal); ok {
			return ret.value, nil
		}
		if err != nil {
			return nil, err
		}
	}
	return &values.Void{}, nil
}

func (ev *evaluator) evalInfix(e *ast.InfixExpression, env *evalEnv) (values.Value, error) {
	// Short-circuit forms evaluate the right side lazily.
	if e.Operator == "&&" || e.Operator == "||" {
		left, err := ev.evalBool(e.Left, env)
		if err != nil {
			return nil, err
		}
		if (e.Operator == "&&" && !left) || (e.Operator == "||" && left) {
			return &values.Boolean{Value: left}, nil
		}
		right, err := ev.evalBool(e.Right, env)
		if err != nil {
			return nil, err
		}
		return &values.Boolean{Value: right}, nil
	}

	left, err := ev.evalExpression(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.evalExpression(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Operator {
	case "===":
		return &values.Boolean{Value: values.Equals(left, right)}, nil
	case "!==":
		return &values.Boolean{Value: !values.Equals(left, right)}, nil
	case ".":
		ls, lok := left.(*values.String)
		rs, rok := right.(*values.String)
		if !lok || !rok {
			return nil, evalErrf(e.Token, "cannot concatenate %s and %s", left.TypeTag(), right.TypeTag())
		}
		return &values.String{Value: ls.Value + rs.Value}, nil
	}

	return ev.evalNumericInfix(e, left, right)
}

func (ev *evaluator) evalNumericInfix(e *ast.InfixExpression, left, right values.Value) (values.Value, error) {
	li, lInt := left.(*values.Integer)
	ri, rInt := right.(*values.Integer)
	if lInt && rInt {
		switch e.Operator {
		case "+":
			return &values.Integer{Value: li.Value + ri.Value}, nil
		case "-":
			return &values.Integer{Value: li.Value - ri.Value}, nil
		case "*":
			return &values.Integer{Value: li.Value * ri.Value}, nil
		case "/":
			if ri.Value == 0 {
				return nil, evalErrf(e.Token, "division by zero")
			}
			return &values.Integer{Value: li.Value / ri.Value}, nil
		case "%":
			if ri.Value == 0 {
				return nil, evalErrf(e.Token, "division by zero")
			}
			return &values.Integer{Value: li.Value % ri.Value}, nil
		case "<":
			return &values.Boolean{Value: li.Value < ri.Value}, nil
		case ">":
			return &values.Boolean{Value: li.Value > ri.Value}, nil
		case "<=":
			return &values.Boolean{Value: li.Value <= ri.Value}, nil
		case ">=":
			return &values.Boolean{Value: li.Value >= ri.Value}, nil
		}
		return nil, evalErrf(e.Token, "unsupported operator %s", e.Operator)
	}

	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return nil, evalErrf(e.Token, "cannot apply %s to %s and %s", e.Operator, left.TypeTag(), right.TypeTag())
	}
	switch e.Operator {
	case "+":
		return &values.Float{Value: lf + rf}, nil
	case "-":
		return &values.Float{Value: lf - rf}, nil
	case "*":
		return &values.Float{Value: lf * rf}, nil
	case "/":
		if rf == 0 {
			return nil, evalErrf(e.Token, "division by zero")
		}
		return &values.Float{Value: lf / rf}, nil
	case "<":
		return &values.Boolean{Value: lf < rf}, nil
	case ">":
		return &values.Boolean{Value: lf > rf}, nil
	case "<=":
		return &values.Boolean{Value: lf <= rf}, nil
	case ">=":
		return &values.Boolean{Value: lf >= rf}, nil
	}
	return nil, evalErrf(e.Token, "unsupported operator %s", e.Operator)
}

func asFloat(v values.Value) (float64, bool) {
	switch n := v.(type) {
	case *values.Integer:
		return float64(n.Value), true
	case *values.Float:
		return n.Value, true
	}
	return 0, false
}

func (ev *evaluator) evalPrefix(e *ast.PrefixExpression, env *evalEnv) (values.Value, error) {
	operand, err := ev.evalExpression(e.Right, env)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "!":
		b, ok := operand.(*values.Boolean)
		if !ok {
			return nil, evalErrf(e.Token, "operand of ! is %s, not bool", operand.TypeTag())
		}
		return &values.Boolean{Value: !b.Value}, nil
	case "-":
		switch n := operand.(type) {
		case *values.Integer:
			return &values.Integer{Value: -n.Value}, nil
		case *values.Float:
			return &values.Float{Value: -n.Value}, nil
		}
		return nil, evalErrf(e.Token, "operand of - is %s, not a number", operand.TypeTag())
	}
	return nil, evalErrf(e.Token, "unsupported operator %s", e.Operator)
}

func (ev *evaluator) evalAssign(e *ast.AssignExpression, env *evalEnv) (values.Value, error) {
	val, err := ev.evalExpression(e.Value, env)
	if err != nil {
		return nil, err
	}
	switch target := e.Left.(type) {
	case *ast.Variable:
		b, ok := env.lookup(target.Name)
		if !ok {
			b = env.define(target.Name, val)
			return val, nil
		}
		b.Bind(val)
		return val, nil

	case *ast.DotAccess:
		tv, ok := target.Left.(*ast.Variable)
		if !ok {
			return nil, evalErrf(e.Token, "cannot assign through %T", target.Left)
		}
		b, found := env.lookup(tv.Name)
		if !found {
			return nil, evalErrf(tv.Token, "undefined variable $%s", tv.Name)
		}
		if accErr := values.Assign(b, target.Member.Value, val); accErr != nil {
			return nil, evalErrf(e.Token, "%s", accErr.Error())
		}
		return val, nil
	}
	return nil, evalErrf(e.Token, "cannot assign to %T", e.Left)
}

func (ev *evaluator) evalIsset(e *ast.IssetExpression, env *evalEnv) (values.Value, error) {
	switch target := e.Target.(type) {
	case *ast.Variable:
		b, ok := env.lookup(target.Name)
		if !ok {
			return &values.Boolean{Value: false}, nil
		}
		if enum, isEnum := b.Value().(*values.EnumValue); isEnum && enum.Enum == config.OptionTypeName {
			return &values.Boolean{Value: enum.Case == config.SomeCtorName}, nil
		}
		return &values.Boolean{Value: true}, nil

	case *ast.DotAccess:
		left, err := ev.evalExpression(target.Left, env)
		if err != nil {
			return nil, err
		}
		set, accErr := values.Isset(left, target.Member.Value)
		if accErr != nil {
			return nil, evalErrf(e.Token, "%s", accErr.Error())
		}
		return &values.Boolean{Value: set}, nil
	}
	return nil, evalErrf(e.Token, "isset target must be a variable or member access")
}

func (ev *evaluator) evalMatch(e *ast.MatchExpression, env *evalEnv) (values.Value, error) {
	subject, err := ev.evalExpression(e.Subject, env)
	if err != nil {
		return nil, err
	}
	enum, ok := subject.(*values.EnumValue)
	if !ok {
		return nil, evalErrf(e.Subject.GetToken(), "match subject is %s, not an enum value", subject.TypeTag())
	}

	for _, arm := range e.Arms {
		if arm.Pattern.CatchAll {
			return ev.evalExpression(arm.Body, newEvalEnv(env))
		}
		if arm.Pattern.Case != enum.Case {
			continue
		}
		if arm.Pattern.Enum != "" && arm.Pattern.Enum != enum.Enum {
			continue
		}
		armEnv := newEvalEnv(env)
		for i, binding := range arm.Pattern.Bindings {
			if i >= len(enum.Payload) {
				return nil, evalErrf(arm.Token, "%s::%s carries %d values, pattern binds %d", enum.Enum, enum.Case, len(enum.Payload), len(arm.Pattern.Bindings))
			}
			armEnv.define(binding.Name, enum.Payload[i])
		}
		if arm.Guard != nil {
			pass, err := ev.evalBool(arm.Guard, armEnv)
			if err != nil {
				return nil, err
			}
			if !pass {
				continue
			}
		}
		return ev.evalExpression(arm.Body, armEnv)
	}
	return nil, evalErrf(e.Token, "no arm matched %s", subject.Inspect())
}

func (ev *evaluator) evalBool(expr ast.Expression, env *evalEnv) (bool, error) {
	v, err := ev.evalExpression(expr, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(*values.Boolean)
	if !ok {
		return false, evalErrf(expr.GetToken(), "condition is %s, not bool", v.TypeTag())
	}
	return b.Value, nil
}
