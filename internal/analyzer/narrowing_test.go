package analyzer

import (
	"testing"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
)

// enum Status { Active; Inactive; }
func statusDecl(line int) *ast.EnumDeclaration {
	return &ast.EnumDeclaration{
		Token: pos(line, 1),
		Name:  id(line, 6, "Status"),
		Variants: []*ast.EnumVariant{
			variant(line, 15, "Active"),
			variant(line, 23, "Inactive"),
		},
	}
}

func statusVar(line int) *ast.VarDeclaration {
	return &ast.VarDeclaration{
		Token: pos(line, 1),
		Name:  vr(line, 8, "s"),
		Type:  tref(line, 1, "Status"),
		Value: &ast.ScopeResolution{Token: pos(line, 13), Left: id(line, 13, "Status"), Member: id(line, 21, "Active")},
	}
}

func statusCond(line int) ast.Expression {
	return &ast.InfixExpression{
		Token:    pos(line, 10),
		Operator: "===",
		Left:     vr(line, 5, "s"),
		Right:    &ast.ScopeResolution{Token: pos(line, 14), Left: id(line, 14, "Status"), Member: id(line, 22, "Active")},
	}
}

func TestEqualityNarrowsThenBranch(t *testing.T) {
	use := vr(4, 5, "s")
	p := prog(
		statusDecl(1),
		statusVar(2),
		&ast.IfStatement{
			Token:     pos(3, 1),
			Condition: statusCond(3),
			Then:      block(3, exprStmt(use)),
		},
	)
	typeMap := expectNoAnalyzerErrors(t, p)
	expectType(t, typeMap, use, "Status::Active")
}

func TestEqualityNarrowsElseBranchOnTwoVariantEnum(t *testing.T) {
	thenUse := vr(4, 5, "s")
	elseUse := vr(6, 5, "s")
	p := prog(
		statusDecl(1),
		statusVar(2),
		&ast.IfStatement{
			Token:     pos(3, 1),
			Condition: statusCond(3),
			Then:      block(3, exprStmt(thenUse)),
			Else:      block(5, exprStmt(elseUse)),
		},
	)
	typeMap := expectNoAnalyzerErrors(t, p)
	expectType(t, typeMap, thenUse, "Status::Active")
	expectType(t, typeMap, elseUse, "Status::Inactive")
}

func TestNarrowingDoesNotLeakPastBranch(t *testing.T) {
	after := vr(5, 1, "s")
	p := prog(
		statusDecl(1),
		statusVar(2),
		&ast.IfStatement{
			Token:     pos(3, 1),
			Condition: statusCond(3),
			Then:      block(3, exprStmt(vr(4, 5, "s"))),
		},
		exprStmt(after),
	)
	typeMap := expectNoAnalyzerErrors(t, p)
	expectType(t, typeMap, after, "Status")
}

func TestIssetNarrowsOptionToSome(t *testing.T) {
	use := vr(3, 5, "x")
	p := prog(
		optionIntVar(1),
		&ast.IfStatement{
			Token:     pos(2, 1),
			Condition: &ast.IssetExpression{Token: pos(2, 5), Target: vr(2, 11, "x")},
			Then:      block(2, exprStmt(use)),
		},
	)
	typeMap := expectNoAnalyzerErrors(t, p)
	expectType(t, typeMap, use, "Option::Some(int)")
}

func TestNegatedIssetNarrowsElseToNone(t *testing.T) {
	use := vr(3, 5, "x")
	p := prog(
		optionIntVar(1),
		&ast.IfStatement{
			Token: pos(2, 1),
			Condition: &ast.PrefixExpression{
				Token:    pos(2, 5),
				Operator: "!",
				Right:    &ast.IssetExpression{Token: pos(2, 6), Target: vr(2, 12, "x")},
			},
			Then: block(2, exprStmt(use)),
		},
	)
	typeMap := expectNoAnalyzerErrors(t, p)
	expectType(t, typeMap, use, "Option::None")
}

func TestNonBoolConditionRejected(t *testing.T) {
	p := prog(&ast.IfStatement{
		Token:     pos(1, 1),
		Condition: intLit(1, 5, 1),
		Then:      block(1),
	})
	expectAnalyzerError(t, p, diagnostics.ErrTypeMismatch)
}
