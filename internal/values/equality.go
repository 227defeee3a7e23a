package values

// Equals implements `===`: recursive comparison by value. Nominal
// identity matters for structs (different names never compare equal) and
// an object literal never equals a struct, even with identical fields.
func Equals(a, b Value) bool {
	switch av := a.(type) {
	case *Integer:
		bv, ok := b.(*Integer)
		return ok && av.Value == bv.Value
	case *Float:
		bv, ok := b.(*Float)
		return ok && av.Value == bv.Value
	case *Boolean:
		bv, ok := b.(*Boolean)
		return ok && av.Value == bv.Value
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *Void:
		_, ok := b.(*Void)
		return ok
	case *ObjectValue:
		bv, ok := b.(*ObjectValue)
		return ok && fieldsEqual(av.fields, bv.fields)
	case *StructValue:
		bv, ok := b.(*StructValue)
		return ok && av.Name == bv.Name && fieldsEqual(av.fields, bv.fields)
	case *EnumValue:
		bv, ok := b.(*EnumValue)
		if !ok || av.Enum != bv.Enum || av.Case != bv.Case || len(av.Payload) != len(bv.Payload) {
			return false
		}
		for i := range av.Payload {
			if !Equals(av.Payload[i], bv.Payload[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func fieldsEqual(a, b *fieldMap) bool {
	if len(a.fields) != len(b.fields) {
		return false
	}
	for name, av := range a.fields {
		bv, ok := b.fields[name]
		if !ok || !Equals(av, bv) {
			return false
		}
	}
	return true
}
