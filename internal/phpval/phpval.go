// Package phpval models the legacy PHP values that cross the bridge:
// null, scalars, ordered associative arrays and stdClass objects. PHPX
// code never sees these directly; the bridge coerces them against the
// exported signature on the way in and out.
package phpval

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind string

const (
	NULL_VAL   Kind = "NULL"
	BOOL_VAL   Kind = "BOOL"
	INT_VAL    Kind = "INT"
	FLOAT_VAL  Kind = "FLOAT"
	STRING_VAL Kind = "STRING"
	ARRAY_VAL  Kind = "ARRAY"
	OBJECT_VAL Kind = "OBJECT"
)

type Value interface {
	Kind() Kind
	Inspect() string
}

type Null struct{}

func (n *Null) Kind() Kind      { return NULL_VAL }
func (n *Null) Inspect() string { return "null" }

type Bool struct {
	Value bool
}

func (b *Bool) Kind() Kind      { return BOOL_VAL }
func (b *Bool) Inspect() string { return fmt.Sprintf("%t", b.Value) }

type Int struct {
	Value int64
}

func (i *Int) Kind() Kind      { return INT_VAL }
func (i *Int) Inspect() string { return strconv.FormatInt(i.Value, 10) }

type Float struct {
	Value float64
}

func (f *Float) Kind() Kind      { return FLOAT_VAL }
func (f *Float) Inspect() string { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

type String struct {
	Value string
}

func (s *String) Kind() Kind      { return STRING_VAL }
func (s *String) Inspect() string { return strconv.Quote(s.Value) }

// ArrayKey is a PHP array key: int or string, never both.
type ArrayKey struct {
	Str   string
	Int   int64
	IsInt bool
}

func StringKey(s string) ArrayKey { return ArrayKey{Str: s} }
func IntKey(i int64) ArrayKey     { return ArrayKey{Int: i, IsInt: true} }

func (k ArrayKey) String() string {
	if k.IsInt {
		return strconv.FormatInt(k.Int, 10)
	}
	return k.Str
}

// Array is a PHP array: insertion-ordered, int- or string-keyed.
type Array struct {
	keys    []ArrayKey
	entries map[ArrayKey]Value
	nextIdx int64
}

func NewArray() *Array {
	return &Array{entries: make(map[ArrayKey]Value)}
}

func (a *Array) Kind() Kind { return ARRAY_VAL }

func (a *Array) Inspect() string {
	parts := make([]string, len(a.keys))
	for i, k := range a.keys {
		parts[i] = k.String() + " => " + a.entries[k].Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *Array) Set(key ArrayKey, v Value) {
	if _, ok := a.entries[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.entries[key] = v
	if key.IsInt && key.Int >= a.nextIdx {
		a.nextIdx = key.Int + 1
	}
}

// Append adds v under the next free integer index, PHP's `$a[] = v`.
func (a *Array) Append(v Value) {
	a.Set(IntKey(a.nextIdx), v)
}

func (a *Array) Get(key ArrayKey) (Value, bool) {
	v, ok := a.entries[key]
	return v, ok
}

// GetString looks v up under the string key.
func (a *Array) GetString(key string) (Value, bool) {
	return a.Get(StringKey(key))
}

func (a *Array) Len() int { return len(a.keys) }

// Keys returns the keys in insertion order.
func (a *Array) Keys() []ArrayKey {
	return append([]ArrayKey(nil), a.keys...)
}

// IsList reports whether the array is a dense 0..n-1 integer-keyed list.
func (a *Array) IsList() bool {
	for i, k := range a.keys {
		if !k.IsInt || k.Int != int64(i) {
			return false
		}
	}
	return true
}

// Object is a PHP object. The bridge only ever builds stdClass; inbound
// objects of any class coerce structurally by their public properties.
type Object struct {
	Class string
	names []string
	props map[string]Value
}

func NewObject(class string) *Object {
	if class == "" {
		class = "stdClass"
	}
	return &Object{Class: class, props: make(map[string]Value)}
}

func (o *Object) Kind() Kind { return OBJECT_VAL }

func (o *Object) Inspect() string {
	parts := make([]string, len(o.names))
	for i, name := range o.names {
		parts[i] = name + ": " + o.props[name].Inspect()
	}
	return o.Class + "{" + strings.Join(parts, ", ") + "}"
}

func (o *Object) SetProp(name string, v Value) {
	if _, ok := o.props[name]; !ok {
		o.names = append(o.names, name)
	}
	o.props[name] = v
}

func (o *Object) Prop(name string) (Value, bool) {
	v, ok := o.props[name]
	return v, ok
}

// PropNames returns property names in declaration order.
func (o *Object) PropNames() []string {
	return append([]string(nil), o.names...)
}
