package typesystem

// Assignability and merging. The widening rule is closed: the only
// implicit conversion in the language is int -> float. Everything else
// must be constructed explicitly.

// Widens reports whether `from` implicitly widens to `to`.
func Widens(from, to Type) bool {
	f, okF := from.(TPrim)
	t, okT := to.(TPrim)
	return okF && okT && f.Kind == Int && t.Kind == Float
}

// AssignableTo reports whether a value of type `actual` can be bound where
// `expected` is declared. Unknown and Mixed absorb in both directions to
// keep one failed inference from cascading into unrelated diagnostics.
func AssignableTo(actual, expected Type) bool {
	if actual == nil || expected == nil {
		return true
	}
	if _, ok := actual.(TUnknown); ok {
		return true
	}
	if _, ok := expected.(TUnknown); ok {
		return true
	}
	if _, ok := actual.(TMixed); ok {
		return true
	}
	if _, ok := expected.(TMixed); ok {
		return true
	}

	if Equal(actual, expected) {
		return true
	}
	if Widens(actual, expected) {
		return true
	}

	// A known enum case is assignable where its enum is expected.
	if ec, ok := actual.(TEnumCase); ok {
		if en, ok := expected.(TEnum); ok {
			return ec.Enum == en.Name
		}
		if app, ok := expected.(TApp); ok {
			return ec.Enum == app.Base
		}
	}

	// A bare enum fits an applied target of the same base: merged case
	// types lose their arguments, not their identity.
	if en, ok := actual.(TEnum); ok {
		if app, ok := expected.(TApp); ok {
			return en.Name == app.Base
		}
	}

	// Generic parameters in expected position accept anything; the call
	// site resolved them before comparison, so a surviving TVar means the
	// parameter never constrained this position.
	if _, ok := expected.(TVar); ok {
		return true
	}

	// Union in expected position: membership.
	if u, ok := expected.(TUnion); ok {
		for _, member := range u.Types {
			if AssignableTo(actual, member) {
				return true
			}
		}
		return false
	}
	// Union in actual position: every member must fit.
	if u, ok := actual.(TUnion); ok {
		for _, member := range u.Types {
			if !AssignableTo(member, expected) {
				return false
			}
		}
		return true
	}

	// Structural width subtyping: an object shape fits an expected shape
	// when every expected field is present (or declared optional) with an
	// assignable type. Extra fields in the actual shape are fine.
	if exp, ok := expected.(TShape); ok {
		act, ok := actual.(TShape)
		if !ok {
			return false
		}
		for name, want := range exp.Fields {
			got, present := act.Fields[name]
			if !present {
				if want.Optional {
					continue
				}
				return false
			}
			if !AssignableTo(got.Type, want.Type) {
				return false
			}
		}
		return true
	}

	// Applied types: same base, pairwise-assignable arguments.
	if expApp, ok := expected.(TApp); ok {
		actApp, ok := actual.(TApp)
		if !ok || actApp.Base != expApp.Base || len(actApp.Args) != len(expApp.Args) {
			return false
		}
		for i := range expApp.Args {
			if !AssignableTo(actApp.Args[i], expApp.Args[i]) {
				return false
			}
		}
		return true
	}

	return false
}

// Merge combines the types of two branches of the same expression.
// Unknown absorbs, Mixed dominates, int and float merge to float, and
// anything else becomes a normalized union.
func Merge(a, b Type) Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if Equal(a, b) {
		return a
	}
	if _, ok := a.(TUnknown); ok {
		return b
	}
	if _, ok := b.(TUnknown); ok {
		return a
	}
	if _, ok := a.(TMixed); ok {
		return TMixed{}
	}
	if _, ok := b.(TMixed); ok {
		return TMixed{}
	}
	if Widens(a, b) || Widens(b, a) {
		return TPrim{Kind: Float}
	}

	// Same applied base: merge the arguments pairwise, so Option<int>
	// and Option<Unknown> come out as Option<int>.
	if aa, okA := a.(TApp); okA {
		if ab, okB := b.(TApp); okB && aa.Base == ab.Base && len(aa.Args) == len(ab.Args) {
			args := make([]Type, len(aa.Args))
			for i := range args {
				args[i] = Merge(aa.Args[i], ab.Args[i])
			}
			return TApp{Base: aa.Base, Args: args}
		}
	}

	// A case and an instantiation of its enum merge to the
	// instantiation; two bare cases of the same enum merge to the enum.
	if ca, okA := a.(TEnumCase); okA {
		if app, okB := b.(TApp); okB && ca.Enum == app.Base {
			return app
		}
	}
	if cb, okB := b.(TEnumCase); okB {
		if app, okA := a.(TApp); okA && cb.Enum == app.Base {
			return app
		}
	}

	// Two cases of the same enum merge to the enum itself.
	if ca, okA := a.(TEnumCase); okA {
		if cb, okB := b.(TEnumCase); okB && ca.Enum == cb.Enum {
			return TEnum{Name: ca.Enum}
		}
		if en, okB := b.(TEnum); okB && ca.Enum == en.Name {
			return en
		}
	}
	if cb, okB := b.(TEnumCase); okB {
		if en, okA := a.(TEnum); okA && cb.Enum == en.Name {
			return en
		}
	}

	return NormalizeUnion([]Type{a, b})
}

// IsNumeric reports whether t supports arithmetic operators.
func IsNumeric(t Type) bool {
	switch typ := t.(type) {
	case TPrim:
		return typ.Kind == Int || typ.Kind == Float
	case TUnknown, TMixed:
		return true
	}
	return false
}
