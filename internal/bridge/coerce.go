package bridge

import (
	"sort"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/config"
	"github.com/phpxlang/phpx/internal/phpval"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/typesystem"
	"github.com/phpxlang/phpx/internal/values"
)

// In coerces an inbound legacy value against the declared PHPX type.
// Inbound conversion is deliberately lenient: legacy callers predate the
// type system.
func (c *Converter) In(v phpval.Value, want typesystem.Type, path string) (values.Value, error) {
	switch t := want.(type) {
	case nil, typesystem.TUnknown, typesystem.TMixed, typesystem.TVar:
		return c.inUntyped(v, path)

	case typesystem.TPrim:
		return c.inPrim(v, t, path)

	case typesystem.TApp:
		if elem, ok := typesystem.AsOption(want); ok {
			if v.Kind() == phpval.NULL_VAL {
				return noneValue(), nil
			}
			inner, err := c.In(v, elem, path)
			if err != nil {
				return nil, err
			}
			return someValue(inner), nil
		}
		if _, _, ok := typesystem.AsResult(want); ok {
			return nil, coerceErrf(path, "Result values cannot cross the boundary inbound")
		}
		return nil, coerceErrf(path, "no inbound coercion for %s", want.String())

	case typesystem.TStruct:
		info, ok := c.structs[t.Name]
		if !ok {
			return nil, coerceErrf(path, "unknown struct %s", t.Name)
		}
		return c.inStruct(v, info, path)

	case typesystem.TShape:
		return c.inShape(v, t, path)
	}
	return nil, coerceErrf(path, "no inbound coercion for %s", want.String())
}

// inUntyped converts without a declared target: scalars map directly and
// null becomes None.
func (c *Converter) inUntyped(v phpval.Value, path string) (values.Value, error) {
	switch pv := v.(type) {
	case *phpval.Null:
		return noneValue(), nil
	case *phpval.Bool:
		return &values.Boolean{Value: pv.Value}, nil
	case *phpval.Int:
		return &values.Integer{Value: pv.Value}, nil
	case *phpval.Float:
		return &values.Float{Value: pv.Value}, nil
	case *phpval.String:
		return &values.String{Value: pv.Value}, nil
	case *phpval.Array:
		if pv.IsList() && pv.Len() > 0 {
			return nil, coerceErrf(path, "list arrays have no untyped PHPX equivalent")
		}
		return c.untypedObject(stringEntries(pv), path)
	case *phpval.Object:
		entries := make([]entry, 0)
		for _, name := range pv.PropNames() {
			prop, _ := pv.Prop(name)
			entries = append(entries, entry{key: name, value: prop})
		}
		return c.untypedObject(entries, path)
	}
	return nil, coerceErrf(path, "cannot coerce %s", string(v.Kind()))
}

func (c *Converter) inPrim(v phpval.Value, want typesystem.TPrim, path string) (values.Value, error) {
	switch want.Kind {
	case typesystem.Int:
		if n, ok := v.(*phpval.Int); ok {
			return &values.Integer{Value: n.Value}, nil
		}
	case typesystem.Float:
		// Widening is the one implicit conversion, inbound included.
		switch n := v.(type) {
		case *phpval.Float:
			return &values.Float{Value: n.Value}, nil
		case *phpval.Int:
			return &values.Float{Value: float64(n.Value)}, nil
		}
	case typesystem.Bool:
		if b, ok := v.(*phpval.Bool); ok {
			return &values.Boolean{Value: b.Value}, nil
		}
	case typesystem.String:
		if s, ok := v.(*phpval.String); ok {
			return &values.String{Value: s.Value}, nil
		}
	case typesystem.Void:
		if v.Kind() == phpval.NULL_VAL {
			return &values.Void{}, nil
		}
	}
	return nil, coerceErrf(path, "expected %s, got %s", want.String(), string(v.Kind()))
}

type entry struct {
	key   string
	value phpval.Value
}

func stringEntries(a *phpval.Array) []entry {
	entries := make([]entry, 0, a.Len())
	for _, k := range a.Keys() {
		if k.IsInt {
			continue
		}
		v, _ := a.Get(k)
		entries = append(entries, entry{key: k.Str, value: v})
	}
	return entries
}

func (c *Converter) untypedObject(entries []entry, path string) (values.Value, error) {
	fields := make(map[string]values.Value, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		v, err := c.inUntyped(e.value, path+"."+e.key)
		if err != nil {
			return nil, err
		}
		fields[e.key] = v
		order = append(order, e.key)
	}
	return values.NewObject(fields, order), nil
}

// sourceFields accepts either an associative array or any object,
// structurally by its string keys or public properties.
func sourceFields(v phpval.Value, path string) (map[string]phpval.Value, error) {
	switch src := v.(type) {
	case *phpval.Array:
		out := make(map[string]phpval.Value)
		for _, e := range stringEntries(src) {
			out[e.key] = e.value
		}
		return out, nil
	case *phpval.Object:
		out := make(map[string]phpval.Value)
		for _, name := range src.PropNames() {
			prop, _ := src.Prop(name)
			out[name] = prop
		}
		return out, nil
	}
	return nil, coerceErrf(path, "expected array or object, got %s", string(v.Kind()))
}

// inStruct coerces a legacy array/object into a struct value. Extra keys
// are ignored; a missing field without a declared default is fatal.
func (c *Converter) inStruct(v phpval.Value, info *symbols.StructInfo, path string) (values.Value, error) {
	src, err := sourceFields(v, path)
	if err != nil {
		return nil, err
	}

	var order []string
	defaults := make(map[string]ast.Expression)
	fieldTypes := make(map[string]typesystem.Type)
	c.structFields(info, &order, defaults, fieldTypes, make(map[string]bool))

	fields := make(map[string]values.Value, len(order))
	for _, name := range order {
		fieldPath := path + "." + name
		raw, present := src[name]
		if present {
			converted, err := c.In(raw, fieldTypes[name], fieldPath)
			if err != nil {
				return nil, err
			}
			fields[name] = converted
			continue
		}
		def, hasDefault := defaults[name]
		if !hasDefault {
			return nil, coerceErrf(fieldPath, "missing required field of struct %s", info.Name)
		}
		dv, ok := constValue(def)
		if !ok {
			return nil, coerceErrf(fieldPath, "default of struct %s is not a constant", info.Name)
		}
		fields[name] = dv
	}

	methods := make(map[string]bool, len(info.Methods))
	for name := range info.Methods {
		methods[name] = true
	}
	return values.NewStruct(info.Name, fields, order, methods), nil
}

func (c *Converter) structFields(info *symbols.StructInfo, order *[]string, defaults map[string]ast.Expression, types map[string]typesystem.Type, seen map[string]bool) {
	for _, name := range info.FieldOrder {
		if seen[name] {
			continue
		}
		seen[name] = true
		*order = append(*order, name)
		types[name] = info.Fields[name]
		if d, ok := info.Defaults[name]; ok {
			defaults[name] = d
		}
	}
	for _, embed := range info.Embeds {
		if sub, ok := c.structs[embed]; ok {
			c.structFields(sub, order, defaults, types, seen)
		}
	}
}

func (c *Converter) inShape(v phpval.Value, want typesystem.TShape, path string) (values.Value, error) {
	src, err := sourceFields(v, path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(want.Fields))
	for name := range want.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make(map[string]values.Value)
	order := make([]string, 0, len(names))
	for _, name := range names {
		spec := want.Fields[name]
		raw, present := src[name]
		if !present {
			if spec.Optional {
				continue
			}
			return nil, coerceErrf(path+"."+name, "missing required field")
		}
		converted, err := c.In(raw, spec.Type, path+"."+name)
		if err != nil {
			return nil, err
		}
		fields[name] = converted
		order = append(order, name)
	}
	return values.NewObject(fields, order), nil
}

// constValue evaluates the constant default expressions struct fields
// may declare.
func constValue(expr ast.Expression) (values.Value, bool) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return &values.Integer{Value: e.Value}, true
	case *ast.FloatLiteral:
		return &values.Float{Value: e.Value}, true
	case *ast.StringLiteral:
		return &values.String{Value: e.Value}, true
	case *ast.BooleanLiteral:
		return &values.Boolean{Value: e.Value}, true
	case *ast.PrefixExpression:
		if e.Operator != "-" {
			return nil, false
		}
		inner, ok := constValue(e.Right)
		if !ok {
			return nil, false
		}
		switch n := inner.(type) {
		case *values.Integer:
			return &values.Integer{Value: -n.Value}, true
		case *values.Float:
			return &values.Float{Value: -n.Value}, true
		}
	}
	return nil, false
}

func noneValue() *values.EnumValue {
	return values.NewEnum(config.OptionTypeName, config.NoneCtorName, nil)
}

func someValue(v values.Value) *values.EnumValue {
	return values.NewEnum(config.OptionTypeName, config.SomeCtorName, []values.Value{v})
}

// Out coerces a PHPX value for a legacy caller. Outbound conversion is
// exact: the declared type drove the value's construction, so a
// mismatch here is a bug surfaced as an error, never a guess.
func (c *Converter) Out(v values.Value, declared typesystem.Type) (phpval.Value, error) {
	if v == nil {
		return &phpval.Null{}, nil
	}
	switch pv := v.(type) {
	case *values.Void:
		return &phpval.Null{}, nil
	case *values.Boolean:
		return &phpval.Bool{Value: pv.Value}, nil
	case *values.Integer:
		return &phpval.Int{Value: pv.Value}, nil
	case *values.Float:
		return &phpval.Float{Value: pv.Value}, nil
	case *values.String:
		return &phpval.String{Value: pv.Value}, nil

	case *values.EnumValue:
		return c.outEnum(pv, declared)

	case *values.ObjectValue:
		return c.outFields(pv.FieldNames(), pv, declared)
	case *values.StructValue:
		return c.outFields(pv.FieldNames(), pv, declared)
	}
	return nil, coerceErrf("", "no outbound coercion for %s", v.TypeTag())
}

func (c *Converter) outEnum(v *values.EnumValue, declared typesystem.Type) (phpval.Value, error) {
	switch v.Enum {
	case config.OptionTypeName:
		if v.Case == config.NoneCtorName {
			return &phpval.Null{}, nil
		}
		elem, _ := typesystem.AsOption(declared)
		return c.Out(payloadAt(v, 0), elem)

	case config.ResultTypeName:
		okT, errT, _ := typesystem.AsResult(declared)
		if v.Case == config.OkCtorName {
			return c.Out(payloadAt(v, 0), okT)
		}
		errOut, err := c.Out(payloadAt(v, 0), errT)
		if err != nil {
			return nil, err
		}
		failure := phpval.NewObject("")
		failure.SetProp("ok", &phpval.Bool{Value: false})
		failure.SetProp("error", errOut)
		return failure, nil
	}
	return nil, coerceErrf("", "enum %s has no legacy representation", v.Enum)
}

func payloadAt(v *values.EnumValue, i int) values.Value {
	if i >= len(v.Payload) {
		return &values.Void{}
	}
	return v.Payload[i]
}

type fieldReader interface {
	values.Value
	FieldNames() []string
}

func (c *Converter) outFields(names []string, v fieldReader, declared typesystem.Type) (phpval.Value, error) {
	fieldType := func(string) typesystem.Type { return nil }
	switch t := declared.(type) {
	case typesystem.TShape:
		fieldType = func(name string) typesystem.Type { return t.Fields[name].Type }
	case typesystem.TStruct:
		if info, ok := c.structs[t.Name]; ok {
			fieldType = func(name string) typesystem.Type { return info.Fields[name] }
		}
	}

	if c.EmitObjects {
		out := phpval.NewObject("")
		for _, name := range names {
			fv, accErr := values.Fetch(v, name)
			if accErr != nil {
				return nil, coerceErrf(name, "%s", accErr.Error())
			}
			converted, err := c.Out(fv, fieldType(name))
			if err != nil {
				return nil, err
			}
			out.SetProp(name, converted)
		}
		return out, nil
	}

	out := phpval.NewArray()
	for _, name := range names {
		fv, accErr := values.Fetch(v, name)
		if accErr != nil {
			return nil, coerceErrf(name, "%s", accErr.Error())
		}
		converted, err := c.Out(fv, fieldType(name))
		if err != nil {
			return nil, err
		}
		out.Set(phpval.StringKey(name), converted)
	}
	return out, nil
}
