package typesystem

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phpxlang/phpx/internal/config"
)

// Type is the interface for all types in our system.
type Type interface {
	String() string
	Apply(Subst) Type
}

// PrimKind enumerates the PHPX primitive types. There is deliberately no
// null kind: absence is only expressible as Option<T>.
type PrimKind int

const (
	Int PrimKind = iota
	Float
	Bool
	String
	Void
)

func (k PrimKind) String() string {
	switch k {
	case Int:
		return config.IntTypeName
	case Float:
		return config.FloatTypeName
	case Bool:
		return config.BoolTypeName
	case String:
		return config.StringTypeName
	default:
		return config.VoidTypeName
	}
}

// TUnknown is the type of expressions whose type could not be determined.
// It absorbs into any other type so one error does not cascade.
type TUnknown struct{}

func (t TUnknown) String() string   { return "unknown" }
func (t TUnknown) Apply(Subst) Type { return t }

// TMixed is the type of values arriving from legacy PHP. Never inferred
// for PHPX-native expressions.
type TMixed struct{}

func (t TMixed) String() string   { return "mixed" }
func (t TMixed) Apply(Subst) Type { return t }

// TPrim is a primitive type.
type TPrim struct {
	Kind PrimKind
}

func (t TPrim) String() string   { return t.Kind.String() }
func (t TPrim) Apply(Subst) Type { return t }

// TStruct is a nominal struct reference; its fields live in the
// TypeEnvironment.
type TStruct struct {
	Name string
}

func (t TStruct) String() string   { return t.Name }
func (t TStruct) Apply(Subst) Type { return t }

// ShapeField is one field of a structural object shape.
type ShapeField struct {
	Type     Type
	Optional bool
}

// TShape is a structural object type: `{a: int, b?: string}`.
type TShape struct {
	Fields map[string]ShapeField
}

func (t TShape) String() string {
	keys := make([]string, 0, len(t.Fields))
	for k := range t.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		f := t.Fields[k]
		name := k
		if f.Optional {
			name += "?"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, f.Type.String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (t TShape) Apply(s Subst) Type {
	fields := make(map[string]ShapeField, len(t.Fields))
	for k, f := range t.Fields {
		fields[k] = ShapeField{Type: f.Type.Apply(s), Optional: f.Optional}
	}
	return TShape{Fields: fields}
}

// TEnum is a nominal enum reference; variants live in the TypeEnvironment.
type TEnum struct {
	Name string
}

func (t TEnum) String() string   { return t.Name }
func (t TEnum) Apply(Subst) Type { return t }

// TEnumCase is the type of a single known variant value, e.g. the subject
// of a narrowed match arm: `Shape::Circle(float)`.
type TEnumCase struct {
	Enum string
	Case string
	Args []Type
}

func (t TEnumCase) String() string {
	if len(t.Args) == 0 {
		return t.Enum + "::" + t.Case
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s::%s(%s)", t.Enum, t.Case, strings.Join(parts, ", "))
}

func (t TEnumCase) Apply(s Subst) Type {
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Apply(s)
	}
	return TEnumCase{Enum: t.Enum, Case: t.Case, Args: args}
}

// TVar is a generic type parameter, optionally constrained by an
// interface name.
type TVar struct {
	Name       string
	Constraint string
}

func (t TVar) String() string { return t.Name }

func (t TVar) Apply(s Subst) Type {
	if replacement, ok := s[t.Name]; ok {
		if tv, isVar := replacement.(TVar); isVar && tv.Name == t.Name {
			return t
		}
		return replacement
	}
	return t
}

// TApp is a type application: `Option<string>`, `Result<int, string>`.
type TApp struct {
	Base string
	Args []Type
}

func (t TApp) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Base, strings.Join(parts, ", "))
}

func (t TApp) Apply(s Subst) Type {
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Apply(s)
	}
	return TApp{Base: t.Base, Args: args}
}

// TInterface is a nominal reference to a structural method-set; the
// method signatures live in the TypeEnvironment.
type TInterface struct {
	Name string
}

func (t TInterface) String() string   { return t.Name }
func (t TInterface) Apply(Subst) Type { return t }

// TUnion is a normalized union as produced by inference. Not user-writable
// beyond what annotations allow.
type TUnion struct {
	Types []Type // at least 2, flattened, deduped, sorted
}

func (t TUnion) String() string {
	parts := make([]string, len(t.Types))
	for i, m := range t.Types {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

func (t TUnion) Apply(s Subst) Type {
	members := make([]Type, len(t.Types))
	for i, m := range t.Types {
		members[i] = m.Apply(s)
	}
	return NormalizeUnion(members)
}

// TFunc is a function signature.
type TFunc struct {
	TypeParams []TVar
	Params     []Type
	Return     Type
	Required   int // parameters without defaults, counted from the front
}

func (t TFunc) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
		if i >= t.Required {
			parts[i] += "?"
		}
	}
	ret := "void"
	if t.Return != nil {
		ret = t.Return.String()
	}
	prefix := ""
	if len(t.TypeParams) > 0 {
		names := make([]string, len(t.TypeParams))
		for i, tp := range t.TypeParams {
			names[i] = tp.Name
			if tp.Constraint != "" {
				names[i] += ": " + tp.Constraint
			}
		}
		prefix = "<" + strings.Join(names, ", ") + ">"
	}
	return fmt.Sprintf("%s(%s) -> %s", prefix, strings.Join(parts, ", "), ret)
}

func (t TFunc) Apply(s Subst) Type {
	// Quantified parameters shadow outer substitutions.
	inner := make(Subst, len(s))
	bound := make(map[string]bool, len(t.TypeParams))
	for _, tp := range t.TypeParams {
		bound[tp.Name] = true
	}
	for k, v := range s {
		if !bound[k] {
			inner[k] = v
		}
	}

	params := make([]Type, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.Apply(inner)
	}
	var ret Type
	if t.Return != nil {
		ret = t.Return.Apply(inner)
	}
	return TFunc{TypeParams: t.TypeParams, Params: params, Return: ret, Required: t.Required}
}

// Subst maps generic parameter names to types.
type Subst map[string]Type

// Equal compares two types structurally. String forms are canonical
// (shape fields and union members are sorted), so this is exact.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// NormalizeUnion flattens nested unions, removes duplicates and sorts
// members. A single surviving member is returned directly.
func NormalizeUnion(types []Type) Type {
	flat := []Type{}
	for _, t := range types {
		if u, ok := t.(TUnion); ok {
			flat = append(flat, u.Types...)
		} else {
			flat = append(flat, t)
		}
	}

	seen := make(map[string]bool)
	unique := []Type{}
	for _, t := range flat {
		s := t.String()
		if !seen[s] {
			seen[s] = true
			unique = append(unique, t)
		}
	}

	if len(unique) == 1 {
		return unique[0]
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})
	return TUnion{Types: unique}
}

// OptionOf builds Option<t>.
func OptionOf(t Type) Type {
	return TApp{Base: config.OptionTypeName, Args: []Type{t}}
}

// ResultOf builds Result<ok, err>.
func ResultOf(ok, err Type) Type {
	return TApp{Base: config.ResultTypeName, Args: []Type{ok, err}}
}

// AsOption returns the element type of Option<T>, if t is one.
func AsOption(t Type) (Type, bool) {
	app, ok := t.(TApp)
	if !ok || app.Base != config.OptionTypeName || len(app.Args) != 1 {
		return nil, false
	}
	return app.Args[0], true
}

// AsResult returns the ok/err types of Result<T, E>, if t is one.
func AsResult(t Type) (Type, Type, bool) {
	app, ok := t.(TApp)
	if !ok || app.Base != config.ResultTypeName || len(app.Args) != 2 {
		return nil, nil, false
	}
	return app.Args[0], app.Args[1], true
}
