package modules

import (
	"strings"
	"testing"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
)

func hasDiagnostic(mod *CompiledModule, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	for _, d := range mod.Diagnostics {
		if d.Code == code {
			return d
		}
	}
	return nil
}

func TestLoadPublishesExports(t *testing.T) {
	l, reg := newTestLoader(map[string]*ast.Program{"lib.phpx": addModule()})

	mod, err := l.Load("lib.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if mod.Failed() {
		t.Fatalf("unexpected diagnostics: %v", mod.Diagnostics)
	}

	sig, ok := reg.Lookup(mod.ID, "add")
	if !ok {
		t.Fatal("expected add in the registry")
	}
	wantRef := Mangle(mod.ID, "add")
	if sig.RawRef != wantRef {
		t.Errorf("expected raw ref %s, got %s", wantRef, sig.RawRef)
	}
	if len(sig.Params) != 2 || sig.Return.String() != "int" {
		t.Errorf("unexpected signature: %v -> %v", sig.Params, sig.Return)
	}
}

func TestLoadIsMemoized(t *testing.T) {
	l, _ := newTestLoader(map[string]*ast.Program{"lib.phpx": addModule()})

	first, err := l.Load("lib.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := l.Load("./lib.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first != second {
		t.Error("expected both paths to resolve to the same compiled module")
	}
}

func TestMissingModule(t *testing.T) {
	l, _ := newTestLoader(nil)
	if _, err := l.Load("nowhere.phpx"); err == nil {
		t.Fatal("expected an error for a missing module")
	}
}

func TestImportResolvesThroughModuleRoots(t *testing.T) {
	app := prog(
		importDecl("util", "add"),
		fnDecl("run", nil, tref("int"),
			block(ret(call(id(2, 12, "add"), intLit(1), intLit(2)))),
		),
	)
	l, _ := newTestLoader(map[string]*ast.Program{
		"lib/util.phpx": addModule(),
		"app.phpx":      app,
	})
	l.SetModuleRoots([]string{"lib"})

	mod, err := l.Load("app.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if mod.Failed() {
		t.Fatalf("unexpected diagnostics: %v", mod.Diagnostics)
	}
}

func TestStrictPromotesWarnings(t *testing.T) {
	// `function id<T>(int $x): int` never uses T, which is a warning.
	unused := fnDecl("id",
		[]*ast.Param{param("x", tref("int"))},
		tref("int"),
		block(ret(vr(2, 12, "x"))),
	)
	unused.TypeParams = []*ast.TypeParam{{Token: pos(1, 13), Name: "T"}}

	lax, _ := newTestLoader(map[string]*ast.Program{"lib.phpx": prog(unused)})
	mod, err := lax.Load("lib.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if mod.Failed() {
		t.Fatalf("a warning alone must not fail the module: %v", mod.Diagnostics)
	}

	strict, reg := newTestLoader(map[string]*ast.Program{"lib.phpx": prog(unused)})
	strict.SetStrict(true)
	mod, err = strict.Load("lib.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !mod.Failed() {
		t.Fatal("strict mode must promote the warning to an error")
	}
	if reg.Published(mod.ID) {
		t.Error("a module failing under strict must not publish exports")
	}
}

func TestImportBindsFunction(t *testing.T) {
	app := prog(
		importDecl("lib.phpx", "add"),
		fnDecl("run", nil, tref("int"),
			block(ret(call(id(2, 12, "add"), intLit(1), intLit(2)))),
		),
	)
	l, _ := newTestLoader(map[string]*ast.Program{
		"lib.phpx": addModule(),
		"app.phpx": app,
	})

	mod, err := l.Load("app.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if mod.Failed() {
		t.Fatalf("unexpected diagnostics: %v", mod.Diagnostics)
	}
}

func TestUnusedImportIsError(t *testing.T) {
	app := prog(
		importDecl("lib.phpx", "add"),
		constDecl("answer", intLit(42)),
	)
	l, reg := newTestLoader(map[string]*ast.Program{
		"lib.phpx": addModule(),
		"app.phpx": app,
	})

	mod, err := l.Load("app.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !mod.Failed() {
		t.Fatal("expected the module to fail")
	}
	d := hasDiagnostic(mod, diagnostics.ErrUnusedImport)
	if d == nil {
		t.Fatalf("expected UnusedImport, got: %v", mod.Diagnostics)
	}
	if !strings.Contains(d.Message, "add") {
		t.Errorf("expected the diagnostic to name the import, got: %s", d.Message)
	}
	if reg.Published(mod.ID) {
		t.Error("a failed module must not publish exports")
	}
}

func TestImportOfUnexportedNameRejected(t *testing.T) {
	lib := prog(
		&ast.FunctionDeclaration{
			Token: pos(1, 1), Name: id(1, 10, "hidden"),
			Return: tref("int"),
			Body:   block(ret(intLit(1))),
		},
	)
	app := prog(
		importDecl("lib.phpx", "hidden"),
		fnDecl("run", nil, tref("int"),
			block(ret(call(id(2, 12, "hidden")))),
		),
	)
	l, _ := newTestLoader(map[string]*ast.Program{
		"lib.phpx": lib,
		"app.phpx": app,
	})

	mod, err := l.Load("app.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if hasDiagnostic(mod, diagnostics.ErrUnknownName) == nil {
		t.Fatalf("expected UnknownName for an unexported import, got: %v", mod.Diagnostics)
	}
}

func TestMutualFunctionImportsCompile(t *testing.T) {
	a := prog(
		importDecl("b.phpx", "fromB"),
		fnDecl("fromA", nil, tref("int"),
			block(ret(call(id(2, 12, "fromB")))),
		),
	)
	b := prog(
		importDecl("a.phpx", "fromA"),
		fnDecl("fromB", nil, tref("int"),
			block(ret(call(id(2, 12, "fromA")))),
		),
	)
	l, reg := newTestLoader(map[string]*ast.Program{
		"a.phpx": a,
		"b.phpx": b,
	})

	mod, err := l.Load("a.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if mod.Failed() {
		t.Fatalf("mutual function imports must compile, got: %v", mod.Diagnostics)
	}
	depB, err := l.Load("b.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if depB.Failed() {
		t.Fatalf("unexpected diagnostics on b: %v", depB.Diagnostics)
	}
	for _, m := range []*CompiledModule{mod, depB} {
		if !reg.Published(m.ID) {
			t.Errorf("expected %s to publish its exports", m.Path)
		}
	}
}

func TestReexportCycleIsCircularImport(t *testing.T) {
	a := prog(reexportDecl("b.phpx", "x"))
	b := prog(reexportDecl("a.phpx", "x"))
	l, _ := newTestLoader(map[string]*ast.Program{
		"a.phpx": a,
		"b.phpx": b,
	})

	mod, err := l.Load("a.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if hasDiagnostic(mod, diagnostics.ErrCircularImport) == nil {
		t.Fatalf("expected CircularImport for a re-export-only cycle, got: %v", mod.Diagnostics)
	}
	if !mod.Failed() {
		t.Error("a re-export chain without a declaration must fail")
	}
}

// A facade between two re-exporting modules still resolves as long as
// the chain bottoms out in a real declaration.
func TestReexportChainThroughFacades(t *testing.T) {
	outer := prog(reexportDecl("inner.phpx", "add"))
	inner := prog(reexportDecl("lib.phpx", "add"))
	l, _ := newTestLoader(map[string]*ast.Program{
		"outer.phpx": outer,
		"inner.phpx": inner,
		"lib.phpx":   addModule(),
	})

	mod, err := l.Load("outer.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if mod.Failed() {
		t.Fatalf("unexpected diagnostics: %v", mod.Diagnostics)
	}
	lib, _ := l.Load("lib.phpx")
	if sig := mod.Exports["add"]; sig.RawRef != Mangle(lib.ID, "add") {
		t.Errorf("chain must keep the declaring module's ref, got %s", sig.RawRef)
	}
}

func TestReexportKeepsOriginalRef(t *testing.T) {
	facade := prog(reexportDecl("lib.phpx", "add"))
	l, _ := newTestLoader(map[string]*ast.Program{
		"lib.phpx":    addModule(),
		"facade.phpx": facade,
	})

	mod, err := l.Load("facade.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if mod.Failed() {
		t.Fatalf("unexpected diagnostics: %v", mod.Diagnostics)
	}

	lib, _ := l.Load("lib.phpx")
	sig, ok := mod.Exports["add"]
	if !ok {
		t.Fatal("expected the facade to re-export add")
	}
	if sig.RawRef != Mangle(lib.ID, "add") {
		t.Errorf("re-export must keep the declaring module's ref, got %s", sig.RawRef)
	}
}

func TestReexportOfMissingName(t *testing.T) {
	facade := prog(reexportDecl("lib.phpx", "nope"))
	l, _ := newTestLoader(map[string]*ast.Program{
		"lib.phpx":    addModule(),
		"facade.phpx": facade,
	})

	mod, err := l.Load("facade.phpx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if hasDiagnostic(mod, diagnostics.ErrUnknownName) == nil {
		t.Fatalf("expected UnknownName, got: %v", mod.Diagnostics)
	}
}

func TestModuleIDsAreStable(t *testing.T) {
	a := IDForPath("src/app.phpx")
	if a != IDForPath("./src/app.phpx") {
		t.Error("equivalent paths must map to one module identity")
	}
	if a == IDForPath("src/other.phpx") {
		t.Error("distinct paths must map to distinct identities")
	}
}

func TestMangleUsesModuleID(t *testing.T) {
	idA := IDForPath("a.phpx")
	ref := Mangle(idA, "run")
	if !strings.HasPrefix(ref, idA.String()) || !strings.HasSuffix(ref, "::run") {
		t.Errorf("unexpected mangled ref: %s", ref)
	}
	if ref == Mangle(IDForPath("b.phpx"), "run") {
		t.Error("same name in different modules must not collide")
	}
}
