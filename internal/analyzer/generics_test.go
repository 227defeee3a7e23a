package analyzer

import (
	"testing"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
)

// function id<T>($x: T): T { return $x; }
func identityDecl(line int) *ast.FunctionDeclaration {
	return &ast.FunctionDeclaration{
		Token:      pos(line, 1),
		Name:       id(line, 10, "id"),
		TypeParams: []*ast.TypeParam{{Token: pos(line, 13), Name: "T"}},
		Params:     []*ast.Param{param(line, 16, "x", tref(line, 20, "T"))},
		Return:     tref(line, 24, "T"),
		Body:       block(line, ret(line+1, 5, vr(line+1, 12, "x"))),
	}
}

func TestGenericIdentityInfersFromArgument(t *testing.T) {
	c := call(3, 1, id(3, 1, "id"), strLit(3, 4, "hi"))
	typeMap := expectNoAnalyzerErrors(t, prog(identityDecl(1), exprStmt(c)))
	expectType(t, typeMap, c, "string")
}

func TestExplicitTypeArgumentsWinOverInference(t *testing.T) {
	// id<int>("hi") pins T to int, so the string argument is rejected.
	c := &ast.CallExpression{
		Token:    pos(3, 1),
		Callee:   id(3, 1, "id"),
		TypeArgs: []ast.TypeExpr{tref(3, 4, "int")},
		Args:     []ast.Expression{strLit(3, 9, "hi")},
	}
	expectAnalyzerError(t, prog(identityDecl(1), exprStmt(c)), diagnostics.ErrTypeMismatch)
}

func TestExplicitTypeArgumentCountMismatch(t *testing.T) {
	// id<int, string>(1) names two type arguments for one parameter.
	c := &ast.CallExpression{
		Token:    pos(3, 1),
		Callee:   id(3, 1, "id"),
		TypeArgs: []ast.TypeExpr{tref(3, 4, "int"), tref(3, 9, "string")},
		Args:     []ast.Expression{intLit(3, 17, 1)},
	}
	expectAnalyzerError(t, prog(identityDecl(1), exprStmt(c)), diagnostics.ErrArityMismatch)
}

// interface Printable { print(): string }
func printableDecl(line int) *ast.InterfaceDeclaration {
	return &ast.InterfaceDeclaration{
		Token: pos(line, 1),
		Name:  id(line, 11, "Printable"),
		Methods: []*ast.MethodSignature{
			{Token: pos(line, 23), Name: "print", Return: tref(line, 32, "string")},
		},
	}
}

// function show<T: Printable>($x: T): void {}
func showDecl(line int) *ast.FunctionDeclaration {
	return &ast.FunctionDeclaration{
		Token:      pos(line, 1),
		Name:       id(line, 10, "show"),
		TypeParams: []*ast.TypeParam{{Token: pos(line, 15), Name: "T", Constraint: "Printable"}},
		Params:     []*ast.Param{param(line, 29, "x", tref(line, 33, "T"))},
		Return:     tref(line, 37, "void"),
		Body:       block(line),
	}
}

func TestConstraintNotSatisfiedNamesMissingMethod(t *testing.T) {
	p := prog(
		printableDecl(1),
		showDecl(2),
		exprStmt(call(4, 1, id(4, 1, "show"), intLit(4, 6, 1))),
	)
	expectAnalyzerErrorContains(t, p, diagnostics.ErrConstraintNotSatisfied, "print")
}

func TestConstraintSatisfiedByStructMethod(t *testing.T) {
	tag := &ast.StructDeclaration{
		Token: pos(3, 1),
		Name:  id(3, 8, "Tag"),
		Methods: []*ast.FunctionDeclaration{{
			Token:  pos(4, 5),
			Name:   id(4, 14, "print"),
			Return: tref(4, 23, "string"),
			Body:   block(4, ret(5, 9, strLit(5, 16, "tag"))),
		}},
	}
	p := prog(
		printableDecl(1),
		showDecl(2),
		tag,
		exprStmt(call(7, 1, id(7, 1, "show"), &ast.StructLiteral{Token: pos(7, 6), Name: id(7, 6, "Tag")})),
	)
	expectNoAnalyzerErrors(t, p)
}

func TestConstraintRejectsMismatchedSignature(t *testing.T) {
	// Tag.print(): int does not match Printable's print(): string.
	tag := &ast.StructDeclaration{
		Token: pos(3, 1),
		Name:  id(3, 8, "Tag"),
		Methods: []*ast.FunctionDeclaration{{
			Token:  pos(4, 5),
			Name:   id(4, 14, "print"),
			Return: tref(4, 23, "int"),
			Body:   block(4, ret(5, 9, intLit(5, 16, 1))),
		}},
	}
	p := prog(
		printableDecl(1),
		showDecl(2),
		tag,
		exprStmt(call(7, 1, id(7, 1, "show"), &ast.StructLiteral{Token: pos(7, 6), Name: id(7, 6, "Tag")})),
	)
	expectAnalyzerErrorContains(t, p, diagnostics.ErrConstraintNotSatisfied, "print")
}

func TestUnusedGenericParamWarns(t *testing.T) {
	f := &ast.FunctionDeclaration{
		Token:      pos(1, 1),
		Name:       id(1, 10, "f"),
		TypeParams: []*ast.TypeParam{{Token: pos(1, 12), Name: "T"}},
		Params:     []*ast.Param{param(1, 15, "x", tref(1, 19, "int"))},
		Return:     tref(1, 24, "int"),
		Body:       block(1, ret(2, 5, vr(2, 12, "x"))),
	}
	_, errs := analyze(prog(f))
	if diagnostics.HasErrors(errs) {
		t.Fatalf("expected warnings only, got errors: %v", errs)
	}
	found := false
	for _, e := range errs {
		if e.Code == diagnostics.WarnUnusedGenericParam {
			found = true
			if e.Severity != diagnostics.SeverityWarning {
				t.Errorf("expected warning severity, got %s", e.Severity)
			}
		}
	}
	if !found {
		t.Errorf("expected %s, got %v", diagnostics.WarnUnusedGenericParam, errs)
	}
}

func TestStructMethodCall(t *testing.T) {
	// Counter with next(): int, called through tight dot.
	counter := &ast.StructDeclaration{
		Token:  pos(1, 1),
		Name:   id(1, 8, "Counter"),
		Fields: []*ast.StructField{structField(2, 5, "n", tref(2, 9, "int"), intLit(2, 15, 0))},
		Methods: []*ast.FunctionDeclaration{{
			Token:  pos(3, 5),
			Name:   id(3, 14, "next"),
			Return: tref(3, 22, "int"),
			Body: block(3, ret(4, 9, &ast.DotAccess{
				Token:  pos(4, 21),
				Left:   vr(4, 16, "this"),
				Member: id(4, 22, "n"),
				Tight:  true,
			})),
		}},
	}
	c := call(7, 1, &ast.DotAccess{
		Token:  pos(7, 9),
		Left:   &ast.StructLiteral{Token: pos(7, 1), Name: id(7, 1, "Counter")},
		Member: id(7, 10, "next"),
		Tight:  true,
	})
	typeMap := expectNoAnalyzerErrors(t, prog(counter, exprStmt(c)))
	expectType(t, typeMap, c, "int")
}
