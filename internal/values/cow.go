package values

// Copy-on-write semantics. Bindings own value slots; object and struct
// values behind multiple bindings share one field map until a binding
// writes, at which point the writer clones and rebinds only itself.
// Readers holding the old binding keep the snapshot they had.

// AccessErrorKind classifies a failed member access.
type AccessErrorKind string

const (
	// NotDottable: the receiver is not an object or struct value.
	NotDottable AccessErrorKind = "NotDottable"
	// UnknownMember: the receiver has no such field.
	UnknownMember AccessErrorKind = "UnknownMember"
	// FixedShape: the operation would change a struct's field set.
	FixedShape AccessErrorKind = "FixedShape"
)

// AccessError is a runtime member-access failure. It is a value
// returned to the evaluator, never a panic.
type AccessError struct {
	Kind   AccessErrorKind
	Member string
	Tag    string // receiver's TypeTag (or kind for non-dottable values)
}

func (e *AccessError) Error() string {
	switch e.Kind {
	case NotDottable:
		return "value of type '" + e.Tag + "' has no members"
	case FixedShape:
		return "cannot unset field '" + e.Member + "' of struct '" + e.Tag + "'"
	default:
		return "'" + e.Tag + "' has no member '" + e.Member + "'"
	}
}

// Binding is one variable slot. Assignment between variables copies the
// binding, not the value: both bindings reference the same field map
// until one of them writes.
type Binding struct {
	value Value
}

func NewBinding(v Value) *Binding {
	retain(v)
	return &Binding{value: v}
}

func (b *Binding) Value() Value { return b.value }

// Bind replaces the bound value, releasing the old one's share.
func (b *Binding) Bind(v Value) {
	retain(v)
	release(b.value)
	b.value = v
}

func retain(v Value) {
	switch t := v.(type) {
	case *ObjectValue:
		t.fields.refs++
	case *StructValue:
		t.fields.refs++
	}
}

func release(v Value) {
	switch t := v.(type) {
	case *ObjectValue:
		t.fields.refs--
	case *StructValue:
		t.fields.refs--
	}
}

// Fetch reads a member. It never copies and never triggers COW.
func Fetch(v Value, member string) (Value, *AccessError) {
	m, err := fieldsOf(v)
	if err != nil {
		return nil, err
	}
	got, ok := m.fields[member]
	if !ok {
		return nil, &AccessError{Kind: UnknownMember, Member: member, Tag: v.TypeTag()}
	}
	return got, nil
}

// Isset reports member presence without copying.
func Isset(v Value, member string) (bool, *AccessError) {
	m, err := fieldsOf(v)
	if err != nil {
		return false, err
	}
	_, ok := m.fields[member]
	return ok, nil
}

// Assign writes a member through a binding. When the field map is
// shared the writer clones it first and rebinds itself; every other
// binding keeps the unmodified snapshot. Structs only accept writes to
// declared fields.
func Assign(b *Binding, member string, val Value) *AccessError {
	switch recv := b.value.(type) {
	case *ObjectValue:
		m := writable(b, recv.fields, func(m *fieldMap) Value { return &ObjectValue{fields: m} })
		m.set(member, val)
		return nil
	case *StructValue:
		if _, ok := recv.fields.fields[member]; !ok {
			return &AccessError{Kind: UnknownMember, Member: member, Tag: recv.TypeTag()}
		}
		m := writable(b, recv.fields, func(m *fieldMap) Value {
			return &StructValue{Name: recv.Name, fields: m, methods: recv.methods}
		})
		m.set(member, val)
		return nil
	}
	return notDottable(b.value)
}

// Unset removes a member through a binding, with the same COW rule as
// Assign. Struct field sets are fixed; unsetting one is an error.
func Unset(b *Binding, member string) *AccessError {
	switch recv := b.value.(type) {
	case *ObjectValue:
		m := writable(b, recv.fields, func(m *fieldMap) Value { return &ObjectValue{fields: m} })
		m.delete(member)
		return nil
	case *StructValue:
		return &AccessError{Kind: FixedShape, Member: member, Tag: recv.TypeTag()}
	}
	return notDottable(b.value)
}

// writable returns a field map the binding may mutate. A shared map is
// cloned, wrapped via rewrap, and rebound; the caller sees refs == 1.
func writable(b *Binding, m *fieldMap, rewrap func(*fieldMap) Value) *fieldMap {
	if m.refs <= 1 {
		return m
	}
	m.refs--
	cloned := m.clone()
	b.value = rewrap(cloned)
	return cloned
}

func fieldsOf(v Value) (*fieldMap, *AccessError) {
	switch recv := v.(type) {
	case *ObjectValue:
		return recv.fields, nil
	case *StructValue:
		return recv.fields, nil
	}
	return nil, notDottable(v)
}

func notDottable(v Value) *AccessError {
	tag := "void"
	if v != nil {
		tag = v.TypeTag()
	}
	return &AccessError{Kind: NotDottable, Tag: tag}
}
