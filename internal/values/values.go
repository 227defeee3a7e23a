// Package values implements the PHPX runtime value model: immutable
// scalars, structural object literals and nominal structs sharing a
// copy-on-write field map, and enum case values. Values never reference
// the legacy PHP value graph; the bridge converts at the boundary.
package values

import (
	"fmt"
	"sort"
	"strings"
)

type ValueKind string

const (
	INTEGER_VAL ValueKind = "INTEGER"
	FLOAT_VAL   ValueKind = "FLOAT"
	BOOLEAN_VAL ValueKind = "BOOLEAN"
	STRING_VAL  ValueKind = "STRING"
	OBJECT_VAL  ValueKind = "OBJECT"
	STRUCT_VAL  ValueKind = "STRUCT"
	ENUM_VAL    ValueKind = "ENUM"
	VOID_VAL    ValueKind = "VOID"
)

// Value is any PHPX runtime value. TypeTag reports the introspection
// name: primitive names, the struct name for structs, a synthetic
// structural tag for object literals.
type Value interface {
	Kind() ValueKind
	Inspect() string
	TypeTag() string
}

type Integer struct {
	Value int64
}

func (i *Integer) Kind() ValueKind { return INTEGER_VAL }
func (i *Integer) Inspect() string { return fmt.Sprintf("%d", i.Value) }
func (i *Integer) TypeTag() string { return "int" }

type Float struct {
	Value float64
}

func (f *Float) Kind() ValueKind { return FLOAT_VAL }
func (f *Float) Inspect() string { return fmt.Sprintf("%g", f.Value) }
func (f *Float) TypeTag() string { return "float" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Kind() ValueKind { return BOOLEAN_VAL }
func (b *Boolean) Inspect() string { return fmt.Sprintf("%t", b.Value) }
func (b *Boolean) TypeTag() string { return "bool" }

type String struct {
	Value string
}

func (s *String) Kind() ValueKind { return STRING_VAL }
func (s *String) Inspect() string { return s.Value }
func (s *String) TypeTag() string { return "string" }

// Void is the result of calling a void function; it has no PHP
// counterpart and the bridge drops it.
type Void struct{}

func (v *Void) Kind() ValueKind { return VOID_VAL }
func (v *Void) Inspect() string { return "void" }
func (v *Void) TypeTag() string { return "void" }

// fieldMap is the shared storage behind object and struct values. refs
// counts the bindings that can reach it; writers clone when refs > 1.
// A single module evaluates on one goroutine, so the count is unguarded.
type fieldMap struct {
	fields map[string]Value
	order  []string
	refs   int
}

// A fresh map has refs 0; binding the wrapping value retains it.
func newFieldMap() *fieldMap {
	return &fieldMap{fields: make(map[string]Value)}
}

// set stores a field value. The map retains what it stores: a value
// reachable both from a binding and from a container must count both
// paths, or a write through the binding would leak into the container.
func (m *fieldMap) set(name string, v Value) {
	if old, ok := m.fields[name]; ok {
		release(old)
	} else {
		m.order = append(m.order, name)
	}
	retain(v)
	m.fields[name] = v
}

func (m *fieldMap) delete(name string) {
	old, ok := m.fields[name]
	if !ok {
		return
	}
	release(old)
	delete(m.fields, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// clone produces a private copy with refs 1, the cloning writer's
// share. Field values are shared; they are themselves COW or immutable.
func (m *fieldMap) clone() *fieldMap {
	out := &fieldMap{
		fields: make(map[string]Value, len(m.fields)),
		order:  append([]string(nil), m.order...),
		refs:   1,
	}
	for k, v := range m.fields {
		retain(v)
		out.fields[k] = v
	}
	return out
}

func (m *fieldMap) inspect() string {
	parts := make([]string, len(m.order))
	for i, name := range m.order {
		parts[i] = name + ": " + m.fields[name].Inspect()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ObjectValue is a structural record: `{a: 1, b: "x"}`. Two object
// values with the same fields are interchangeable regardless of origin.
type ObjectValue struct {
	fields *fieldMap
}

// NewObject builds an object literal value. Field insertion order is
// preserved for Inspect.
func NewObject(fields map[string]Value, order []string) *ObjectValue {
	m := newFieldMap()
	if order == nil {
		for name := range fields {
			order = append(order, name)
		}
		sort.Strings(order)
	}
	for _, name := range order {
		m.set(name, fields[name])
	}
	return &ObjectValue{fields: m}
}

func (o *ObjectValue) Kind() ValueKind { return OBJECT_VAL }
func (o *ObjectValue) Inspect() string { return o.fields.inspect() }

// TypeTag is the synthetic structural tag: `object{a, b}` with field
// names in declaration order.
func (o *ObjectValue) TypeTag() string {
	return "object{" + strings.Join(o.fields.order, ", ") + "}"
}

// FieldNames returns the field names in insertion order.
func (o *ObjectValue) FieldNames() []string {
	return append([]string(nil), o.fields.order...)
}

// StructValue is a nominal record. Name participates in equality and
// introspection; methods are resolved against the declaring struct's
// method set, never the fields.
type StructValue struct {
	Name    string
	fields  *fieldMap
	methods map[string]bool
}

// NewStruct builds a struct value. methods is the declared method name
// set; nil means the struct declares none.
func NewStruct(name string, fields map[string]Value, order []string, methods map[string]bool) *StructValue {
	obj := NewObject(fields, order)
	return &StructValue{Name: name, fields: obj.fields, methods: methods}
}

func (s *StructValue) Kind() ValueKind { return STRUCT_VAL }
func (s *StructValue) Inspect() string { return s.Name + " " + s.fields.inspect() }
func (s *StructValue) TypeTag() string { return s.Name }

// FieldNames returns the field names in declaration order.
func (s *StructValue) FieldNames() []string {
	return append([]string(nil), s.fields.order...)
}

// EnumValue is a constructed enum case, the runtime form of Option,
// Result and user enums.
type EnumValue struct {
	Enum    string
	Case    string
	Payload []Value
}

// NewEnum builds an enum case value. The payload slots are retained:
// the enum itself is immutable, but a container it captures stays
// reachable through it, and writes through other bindings must copy.
func NewEnum(enum, caseName string, payload []Value) *EnumValue {
	for _, p := range payload {
		retain(p)
	}
	return &EnumValue{Enum: enum, Case: caseName, Payload: payload}
}

func (e *EnumValue) Kind() ValueKind { return ENUM_VAL }

func (e *EnumValue) Inspect() string {
	if len(e.Payload) == 0 {
		return e.Enum + "::" + e.Case
	}
	parts := make([]string, len(e.Payload))
	for i, p := range e.Payload {
		parts[i] = p.Inspect()
	}
	return fmt.Sprintf("%s::%s(%s)", e.Enum, e.Case, strings.Join(parts, ", "))
}

func (e *EnumValue) TypeTag() string { return e.Enum + "::" + e.Case }

// HasMethod reports whether dot-dispatch can find a method on the value.
// Object literals never carry methods.
func HasMethod(v Value, name string) bool {
	s, ok := v.(*StructValue)
	return ok && s.methods[name]
}
