package analyzer

import (
	"strings"
	"testing"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/token"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// The shared parser lives outside this module, so tests assemble programs
// node by node. The helpers below keep the fixtures close to what the
// source would look like.

func pos(line, col int) token.Token {
	return token.Token{Type: token.IDENT, File: "test.phpx", Line: line, Column: col}
}

func prog(stmts ...ast.Statement) *ast.Program {
	return &ast.Program{File: "test.phpx", Mode: ast.ModePHPX, Statements: stmts}
}

func id(line, col int, name string) *ast.Identifier {
	return &ast.Identifier{Token: pos(line, col), Value: name}
}

func vr(line, col int, name string) *ast.Variable {
	return &ast.Variable{Token: pos(line, col), Name: name}
}

func intLit(line, col int, v int64) *ast.IntegerLiteral {
	return &ast.IntegerLiteral{Token: pos(line, col), Value: v}
}

func floatLit(line, col int, v float64) *ast.FloatLiteral {
	return &ast.FloatLiteral{Token: pos(line, col), Value: v}
}

func strLit(line, col int, v string) *ast.StringLiteral {
	return &ast.StringLiteral{Token: pos(line, col), Value: v}
}

func tref(line, col int, name string, args ...ast.TypeExpr) *ast.TypeRef {
	return &ast.TypeRef{Token: pos(line, col), Name: name, Args: args}
}

func param(line, col int, name string, typ ast.TypeExpr) *ast.Param {
	return &ast.Param{Token: pos(line, col), Name: name, Type: typ}
}

func block(line int, stmts ...ast.Statement) *ast.BlockStatement {
	return &ast.BlockStatement{Token: pos(line, 1), Statements: stmts}
}

func exprStmt(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Token: e.GetToken(), Expression: e}
}

func ret(line, col int, v ast.Expression) *ast.ReturnStatement {
	return &ast.ReturnStatement{Token: pos(line, col), Value: v}
}

func call(line, col int, callee ast.Expression, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Token: pos(line, col), Callee: callee, Args: args}
}

func kv(line, col int, key string, v ast.Expression) *ast.ObjectField {
	return &ast.ObjectField{Token: pos(line, col), Key: key, Value: v}
}

func structField(line, col int, name string, typ ast.TypeExpr, def ast.Expression) *ast.StructField {
	return &ast.StructField{Token: pos(line, col), Name: name, Type: typ, Default: def}
}

func variant(line, col int, name string, payload ...ast.TypeExpr) *ast.EnumVariant {
	return &ast.EnumVariant{Token: pos(line, col), Name: name, Params: payload}
}

func arm(line int, enum, caseName string, bindings []*ast.Variable, body ast.Expression) *ast.MatchArm {
	return &ast.MatchArm{
		Token:   pos(line, 5),
		Pattern: &ast.MatchPattern{Token: pos(line, 5), Enum: enum, Case: caseName, Bindings: bindings},
		Body:    body,
	}
}

func catchAllArm(line int, body ast.Expression) *ast.MatchArm {
	return &ast.MatchArm{
		Token:   pos(line, 5),
		Pattern: &ast.MatchPattern{Token: pos(line, 5), CatchAll: true},
		Body:    body,
	}
}

// analyze type-checks a hand-built program against a fresh environment
// chained to the global builtins.
func analyze(prog *ast.Program) (map[ast.Node]typesystem.Type, []*diagnostics.DiagnosticError) {
	env := symbols.NewEnvironment(symbols.NewGlobalEnv())
	return New(env).CheckModule(prog)
}

// expectAnalyzerError asserts that at least one diagnostic with the given
// code is produced and returns the first such diagnostic.
func expectAnalyzerError(t *testing.T, p *ast.Program, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	_, errs := analyze(p)
	if len(errs) == 0 {
		t.Fatalf("expected diagnostic %s, but got none", code)
	}
	for _, e := range errs {
		if e.Code == code {
			return e
		}
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	t.Fatalf("expected diagnostic %s, got:\n%s", code, strings.Join(msgs, "\n"))
	return nil
}

// expectAnalyzerErrorContains asserts a diagnostic with the given code
// whose message contains substr.
func expectAnalyzerErrorContains(t *testing.T, p *ast.Program, code diagnostics.ErrorCode, substr string) {
	t.Helper()
	e := expectAnalyzerError(t, p, code)
	if !strings.Contains(e.Message, substr) {
		t.Errorf("expected %s message to contain %q, got: %s", code, substr, e.Message)
	}
}

// expectNoAnalyzerErrors asserts that analysis produces no error-severity
// diagnostics (warnings are allowed).
func expectNoAnalyzerErrors(t *testing.T, p *ast.Program) map[ast.Node]typesystem.Type {
	t.Helper()
	typeMap, errs := analyze(p)
	if diagnostics.HasErrors(errs) {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("expected no errors, got:\n%s", strings.Join(msgs, "\n"))
	}
	return typeMap
}

func expectType(t *testing.T, typeMap map[ast.Node]typesystem.Type, node ast.Node, want string) {
	t.Helper()
	got, ok := typeMap[node]
	if !ok {
		t.Fatalf("no type recorded for node %T", node)
	}
	if got.String() != want {
		t.Errorf("expected type %s, got %s", want, got.String())
	}
}
