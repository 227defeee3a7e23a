package modules

import (
	"sync"
	"testing"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/values"
)

func structDecl(name string, fields ...*ast.StructField) *ast.StructDeclaration {
	return &ast.StructDeclaration{Token: pos(1, 1), Name: id(1, 8, name), Fields: fields, Exported: true}
}

func structField(name string, typ ast.TypeExpr) *ast.StructField {
	return &ast.StructField{Token: pos(1, 1), Name: name, Type: typ}
}

func enumDecl(name string, variants ...*ast.EnumVariant) *ast.EnumDeclaration {
	return &ast.EnumDeclaration{Token: pos(1, 1), Name: id(1, 6, name), Variants: variants, Exported: true}
}

func variant(name string, payload ...ast.TypeExpr) *ast.EnumVariant {
	return &ast.EnumVariant{Token: pos(1, 1), Name: name, Params: payload}
}

func kv(key string, v ast.Expression) *ast.ObjectField {
	return &ast.ObjectField{Token: pos(1, 1), Key: key, Value: v}
}

func scopeRes(enum, member string) *ast.ScopeResolution {
	return &ast.ScopeResolution{Token: pos(1, 1), Left: id(1, 1, enum), Member: id(1, 8, member)}
}

func dot(left ast.Expression, member string) *ast.DotAccess {
	return &ast.DotAccess{Token: pos(1, 1), Left: left, Member: id(1, 3, member), Tight: true}
}

func matchExpr(subject ast.Expression, arms ...*ast.MatchArm) *ast.MatchExpression {
	return &ast.MatchExpression{Token: pos(1, 1), Subject: subject, Arms: arms}
}

func arm(enum, caseName string, bindings []*ast.Variable, body ast.Expression) *ast.MatchArm {
	return &ast.MatchArm{
		Token:   pos(1, 5),
		Pattern: &ast.MatchPattern{Token: pos(1, 5), Enum: enum, Case: caseName, Bindings: bindings},
		Body:    body,
	}
}

func catchAllArm(body ast.Expression) *ast.MatchArm {
	return &ast.MatchArm{
		Token:   pos(1, 5),
		Pattern: &ast.MatchPattern{Token: pos(1, 5), CatchAll: true},
		Body:    body,
	}
}

func demandExport(t *testing.T, l *Loader, path, name string) values.Value {
	t.Helper()
	v, err := l.RuntimeExport(path, name)
	if err != nil {
		t.Fatalf("demand %s from %s: %v", name, path, err)
	}
	return v
}

func wantInt(t *testing.T, v values.Value, want int64) {
	t.Helper()
	n, ok := v.(*values.Integer)
	if !ok {
		t.Fatalf("expected int, got %s", v.TypeTag())
	}
	if n.Value != want {
		t.Errorf("expected %d, got %d", want, n.Value)
	}
}

func TestDemandEvaluatesConst(t *testing.T) {
	m := prog(constDecl("answer", infix(intLit(40), "+", intLit(2))))
	l, _ := newTestLoader(map[string]*ast.Program{"m.phpx": m})

	wantInt(t, demandExport(t, l, "m.phpx", "answer"), 42)
}

func TestDemandRunsTopLevelOnce(t *testing.T) {
	m := prog(constDecl("answer", intLit(1)))
	l, _ := newTestLoader(map[string]*ast.Program{"m.phpx": m})

	if _, err := l.Demand("m.phpx"); err != nil {
		t.Fatalf("demand: %v", err)
	}
	if _, err := l.Demand("m.phpx"); err != nil {
		t.Fatalf("demand: %v", err)
	}
	if runs := l.EvalRuns(IDForPath("m.phpx")); runs != 1 {
		t.Errorf("expected one evaluation, got %d", runs)
	}
}

func TestConcurrentDemandEvaluatesOnce(t *testing.T) {
	m := prog(constDecl("answer", infix(intLit(6), "*", intLit(7))))
	l, _ := newTestLoader(map[string]*ast.Program{"m.phpx": m})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exports, err := l.Demand("m.phpx")
			if err != nil {
				t.Errorf("demand: %v", err)
				return
			}
			// A concurrent first demand may observe the table
			// mid-population, but never a wrong value.
			if v, ok := exports["answer"]; ok {
				if n, isInt := v.(*values.Integer); !isInt || n.Value != 42 {
					t.Errorf("unexpected answer: %s", v.Inspect())
				}
			}
		}()
	}
	wg.Wait()

	if runs := l.EvalRuns(IDForPath("m.phpx")); runs != 1 {
		t.Errorf("expected one evaluation, got %d", runs)
	}
}

func TestFailedModuleNeverEvaluates(t *testing.T) {
	m := prog(
		fnDecl("bad", nil, tref("int"),
			block(ret(&ast.StringLiteral{Token: pos(2, 12), Value: "no"})),
		),
	)
	l, _ := newTestLoader(map[string]*ast.Program{"m.phpx": m})

	if _, err := l.Demand("m.phpx"); err == nil {
		t.Fatal("expected demand on a failed module to error")
	}
	if runs := l.EvalRuns(IDForPath("m.phpx")); runs != 0 {
		t.Errorf("a failed module must not run, got %d runs", runs)
	}
}

func TestCrossModuleCall(t *testing.T) {
	app := prog(
		importDecl("lib.phpx", "add"),
		constDecl("result", call(id(2, 16, "add"), intLit(20), intLit(22))),
	)
	l, _ := newTestLoader(map[string]*ast.Program{
		"lib.phpx": addModule(),
		"app.phpx": app,
	})

	wantInt(t, demandExport(t, l, "app.phpx", "result"), 42)

	// Demanding app pulled lib in; both ran exactly once.
	if runs := l.EvalRuns(IDForPath("lib.phpx")); runs != 1 {
		t.Errorf("expected the dependency to run once, got %d", runs)
	}
}

func TestStructLiteralAndFieldAccess(t *testing.T) {
	m := prog(
		structDecl("Point", structField("x", tref("int")), structField("y", tref("int"))),
		constDecl("px", dot(&ast.StructLiteral{
			Token:  pos(2, 12),
			Name:   id(2, 12, "Point"),
			Fields: []*ast.ObjectField{kv("x", intLit(7)), kv("y", intLit(9))},
		}, "x")),
	)
	l, _ := newTestLoader(map[string]*ast.Program{"m.phpx": m})

	wantInt(t, demandExport(t, l, "m.phpx", "px"), 7)
}

func TestMatchEvaluation(t *testing.T) {
	m := prog(
		enumDecl("Shape", variant("Circle", tref("int")), variant("Empty")),
		fnDecl("classify", nil, tref("int"),
			block(ret(matchExpr(
				call(scopeRes("Shape", "Circle"), intLit(5)),
				arm("Shape", "Circle", []*ast.Variable{vr(3, 20, "r")}, infix(vr(3, 30, "r"), "*", intLit(2))),
				catchAllArm(intLit(0)),
			))),
		),
		constDecl("result", call(id(5, 16, "classify"))),
	)
	l, _ := newTestLoader(map[string]*ast.Program{"m.phpx": m})

	wantInt(t, demandExport(t, l, "m.phpx", "result"), 10)
}

func TestIssetOnOption(t *testing.T) {
	m := prog(
		fnDecl("present", []*ast.Param{param("o", tref("Option", tref("int")))}, tref("bool"),
			block(ret(&ast.IssetExpression{Token: pos(2, 12), Target: vr(2, 18, "o")})),
		),
		constDecl("someSet", call(id(4, 16, "present"), call(id(4, 24, "Some"), intLit(3)))),
		constDecl("noneSet", call(id(5, 16, "present"), id(5, 24, "None"))),
	)
	l, _ := newTestLoader(map[string]*ast.Program{"m.phpx": m})

	some := demandExport(t, l, "m.phpx", "someSet")
	if b, ok := some.(*values.Boolean); !ok || !b.Value {
		t.Errorf("expected isset(Some) to be true, got %s", some.Inspect())
	}
	none := demandExport(t, l, "m.phpx", "noneSet")
	if b, ok := none.(*values.Boolean); !ok || b.Value {
		t.Errorf("expected isset(None) to be false, got %s", none.Inspect())
	}
}

func TestDefaultParameterApplied(t *testing.T) {
	scale := &ast.FunctionDeclaration{
		Token: pos(1, 1),
		Name:  id(1, 10, "scale"),
		Params: []*ast.Param{
			param("n", tref("int")),
			{Token: pos(1, 20), Name: "factor", Type: tref("int"), Default: intLit(10)},
		},
		Return:   tref("int"),
		Body:     block(ret(infix(vr(2, 12, "n"), "*", vr(2, 17, "factor")))),
		Exported: true,
	}
	m := prog(scale, constDecl("result", call(id(4, 16, "scale"), intLit(4))))
	l, _ := newTestLoader(map[string]*ast.Program{"m.phpx": m})

	wantInt(t, demandExport(t, l, "m.phpx", "result"), 40)
}

func TestMethodCallOnStruct(t *testing.T) {
	area := &ast.FunctionDeclaration{
		Token:  pos(2, 5),
		Name:   id(2, 14, "area"),
		Return: tref("int"),
		Body: block(ret(infix(
			dot(vr(3, 16, "this"), "w"), "*", dot(vr(3, 26, "this"), "h"),
		))),
	}
	rect := &ast.StructDeclaration{
		Token:    pos(1, 1),
		Name:     id(1, 8, "Rect"),
		Fields:   []*ast.StructField{structField("w", tref("int")), structField("h", tref("int"))},
		Methods:  []*ast.FunctionDeclaration{area},
		Exported: true,
	}
	m := prog(
		rect,
		constDecl("result", call(dot(&ast.StructLiteral{
			Token:  pos(5, 16),
			Name:   id(5, 16, "Rect"),
			Fields: []*ast.ObjectField{kv("w", intLit(3)), kv("h", intLit(4))},
		}, "area"))),
	)
	l, _ := newTestLoader(map[string]*ast.Program{"m.phpx": m})

	wantInt(t, demandExport(t, l, "m.phpx", "result"), 12)
}

// Two modules importing each other's functions evaluate lazily: each
// runs once, and the side that finishes second can already call
// through the cycle at top level.
func TestMutualImportsEvaluate(t *testing.T) {
	a := prog(
		importDecl("b.phpx", "fromB"),
		fnDecl("fromA", nil, tref("int"), block(ret(intLit(40)))),
		constDecl("total", call(id(3, 18, "fromB"))),
	)
	b := prog(
		importDecl("a.phpx", "fromA"),
		fnDecl("fromB", nil, tref("int"),
			block(ret(infix(call(id(2, 12, "fromA")), "+", intLit(2)))),
		),
	)
	l, _ := newTestLoader(map[string]*ast.Program{
		"a.phpx": a,
		"b.phpx": b,
	})

	wantInt(t, demandExport(t, l, "a.phpx", "total"), 42)
	for _, path := range []string{"a.phpx", "b.phpx"} {
		if runs := l.EvalRuns(IDForPath(path)); runs != 1 {
			t.Errorf("%s ran top level %d times, want 1", path, runs)
		}
	}
}
