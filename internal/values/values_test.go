package values

import "testing"

func intv(n int64) *Integer { return &Integer{Value: n} }
func strv(s string) *String { return &String{Value: s} }

func point(x, y int64) *StructValue {
	return NewStruct("Point",
		map[string]Value{"x": intv(x), "y": intv(y)},
		[]string{"x", "y"}, nil)
}

// $p1 = Point{x:1, y:2}; $p2 = $p1; $p2.x = 99
// $p1.x stays 1; $p2.y still reads 2.
func TestCopyOnWriteIsolation(t *testing.T) {
	p1 := NewBinding(point(1, 2))
	p2 := NewBinding(p1.Value())

	if err := Assign(p2, "x", intv(99)); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	got, err := Fetch(p1.Value(), "x")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.(*Integer).Value != 1 {
		t.Errorf("p1.x changed to %s; writers must not affect other bindings", got.Inspect())
	}

	got, err = Fetch(p2.Value(), "x")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.(*Integer).Value != 99 {
		t.Errorf("p2.x = %s, want 99", got.Inspect())
	}

	got, err = Fetch(p2.Value(), "y")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.(*Integer).Value != 2 {
		t.Errorf("p2.y = %s, want the untouched field carried into the clone", got.Inspect())
	}
}

func TestSoleBindingWritesInPlace(t *testing.T) {
	b := NewBinding(point(1, 2))
	before := b.Value()
	if err := Assign(b, "x", intv(5)); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if b.Value() != before {
		t.Error("sole binding cloned on write; COW should only trigger when shared")
	}
}

func TestFetchNeverCopies(t *testing.T) {
	p1 := NewBinding(point(1, 2))
	p2 := NewBinding(p1.Value())
	if _, err := Fetch(p2.Value(), "x"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if p1.Value() != p2.Value() {
		t.Error("fetch must not break sharing")
	}
}

func TestRebindReleasesShare(t *testing.T) {
	p1 := NewBinding(point(1, 2))
	p2 := NewBinding(p1.Value())
	p2.Bind(intv(0))

	// p1 is sole owner again; its next write must be in place.
	before := p1.Value()
	if err := Assign(p1, "x", intv(7)); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if p1.Value() != before {
		t.Error("write cloned after the other binding released its share")
	}
}

func TestUnsetOnObjectLiteral(t *testing.T) {
	obj := NewObject(map[string]Value{"a": intv(1), "b": intv(2)}, []string{"a", "b"})
	b1 := NewBinding(obj)
	b2 := NewBinding(b1.Value())

	if err := Unset(b2, "a"); err != nil {
		t.Fatalf("unset failed: %v", err)
	}
	if ok, _ := Isset(b2.Value(), "a"); ok {
		t.Error("unset field still present on writer")
	}
	if ok, _ := Isset(b1.Value(), "a"); !ok {
		t.Error("unset leaked to the other binding")
	}
}

func TestUnsetStructFieldIsFixedShape(t *testing.T) {
	b := NewBinding(point(1, 2))
	err := Unset(b, "x")
	if err == nil || err.Kind != FixedShape {
		t.Fatalf("expected FixedShape error, got %v", err)
	}
}

func TestAccessOnScalarIsNotDottable(t *testing.T) {
	_, err := Fetch(intv(1), "x")
	if err == nil || err.Kind != NotDottable {
		t.Fatalf("expected NotDottable, got %v", err)
	}
	if aerr := Assign(NewBinding(strv("s")), "x", intv(1)); aerr == nil || aerr.Kind != NotDottable {
		t.Fatalf("expected NotDottable on assign, got %v", aerr)
	}
}

func TestAssignUnknownStructFieldRejected(t *testing.T) {
	b := NewBinding(point(1, 2))
	err := Assign(b, "z", intv(3))
	if err == nil || err.Kind != UnknownMember {
		t.Fatalf("expected UnknownMember, got %v", err)
	}
}

func TestStructEqualityByNameAndFields(t *testing.T) {
	if !Equals(point(1, 2), point(1, 2)) {
		t.Error("identical structs must compare equal")
	}
	if Equals(point(1, 2), point(1, 3)) {
		t.Error("differing field values must not compare equal")
	}
	other := NewStruct("Vec",
		map[string]Value{"x": intv(1), "y": intv(2)},
		[]string{"x", "y"}, nil)
	if Equals(point(1, 2), other) {
		t.Error("different struct names must never compare equal")
	}
}

func TestObjectNeverEqualsStruct(t *testing.T) {
	obj := NewObject(map[string]Value{"x": intv(1), "y": intv(2)}, []string{"x", "y"})
	if Equals(obj, point(1, 2)) {
		t.Error("object literal must not equal a struct with the same fields")
	}
}

func TestObjectStructuralEquality(t *testing.T) {
	a := NewObject(map[string]Value{"x": intv(1)}, nil)
	b := NewObject(map[string]Value{"x": intv(1)}, nil)
	if !Equals(a, b) {
		t.Error("object literals compare by fields")
	}
}

func TestEnumEquality(t *testing.T) {
	some1 := &EnumValue{Enum: "Option", Case: "Some", Payload: []Value{intv(1)}}
	some1b := &EnumValue{Enum: "Option", Case: "Some", Payload: []Value{intv(1)}}
	none := &EnumValue{Enum: "Option", Case: "None"}
	if !Equals(some1, some1b) {
		t.Error("same case with equal payload must compare equal")
	}
	if Equals(some1, none) {
		t.Error("different cases must not compare equal")
	}
}

func TestTypeTags(t *testing.T) {
	obj := NewObject(map[string]Value{"b": intv(2), "a": intv(1)}, []string{"a", "b"})
	if got := obj.TypeTag(); got != "object{a, b}" {
		t.Errorf("object tag = %q", got)
	}
	if got := point(1, 2).TypeTag(); got != "Point" {
		t.Errorf("struct tag = %q", got)
	}
	if got := (&EnumValue{Enum: "Option", Case: "None"}).TypeTag(); got != "Option::None" {
		t.Errorf("enum tag = %q", got)
	}
}

func TestHasMethod(t *testing.T) {
	counter := NewStruct("Counter", map[string]Value{"n": intv(0)}, []string{"n"},
		map[string]bool{"next": true})
	if !HasMethod(counter, "next") {
		t.Error("declared method not found")
	}
	if HasMethod(counter, "prev") {
		t.Error("undeclared method reported present")
	}
	obj := NewObject(map[string]Value{"next": intv(1)}, nil)
	if HasMethod(obj, "next") {
		t.Error("object literals never have methods, even with a same-named field")
	}
}

// $p = Point{x:1, y:2}; $o = {inner: $p}; $p.x = 99
// The container holds the original snapshot; the write copies.
func TestContainerRetainsStoredValue(t *testing.T) {
	p := point(1, 2)
	bp := NewBinding(p)
	o := NewBinding(NewObject(map[string]Value{"inner": p}, []string{"inner"}))

	if err := Assign(bp, "x", intv(99)); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	inner, err := Fetch(o.Value(), "inner")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	got, err := Fetch(inner, "x")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.(*Integer).Value != 1 {
		t.Errorf("o.inner.x = %s; a write through $p must not reach the container", got.Inspect())
	}
	got, _ = Fetch(bp.Value(), "x")
	if got.(*Integer).Value != 99 {
		t.Errorf("p.x = %s, want 99", got.Inspect())
	}
}

// $p = Point{x:1, y:2}; $s = Some($p); $p.x = 99
func TestEnumPayloadRetainsStoredValue(t *testing.T) {
	p := point(1, 2)
	bp := NewBinding(p)
	some := NewEnum("Option", "Some", []Value{p})

	if err := Assign(bp, "x", intv(99)); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	got, err := Fetch(some.Payload[0], "x")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.(*Integer).Value != 1 {
		t.Errorf("Some payload x = %s; enum payloads are immutable snapshots", got.Inspect())
	}
}

// Writing the outer object clones its map; the clone must count as a
// fresh path to every carried field.
func TestCloneRetainsCarriedFields(t *testing.T) {
	p := point(1, 2)
	o1 := NewBinding(NewObject(map[string]Value{"inner": p, "n": intv(0)}, []string{"inner", "n"}))
	o2 := NewBinding(o1.Value())

	// o2 writes an unrelated field, cloning the outer map.
	if err := Assign(o2, "n", intv(7)); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	// A binding of the shared inner struct writes; both outer maps
	// reference it, so the write must copy rather than mutate.
	bp := NewBinding(p)
	if err := Assign(bp, "x", intv(99)); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	for _, outer := range []*Binding{o1, o2} {
		inner, err := Fetch(outer.Value(), "inner")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		got, _ := Fetch(inner, "x")
		if got.(*Integer).Value != 1 {
			t.Errorf("outer view of inner.x = %s, want 1", got.Inspect())
		}
	}
}
