package modules

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/registry"
	"github.com/phpxlang/phpx/internal/token"
)

// The shared parser lives outside this module; tests register hand-built
// programs with the loader.

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

func intLit(v int64) *ast.IntegerLiteral {
	return &ast.IntegerLiteral{Token: pos(1, 1), Value: v}
}

func tref(name string, args ...ast.TypeExpr) *ast.TypeRef {
	return &ast.TypeRef{Token: pos(1, 1), Name: name, Args: args}
}

func importDecl(path string, names ...string) *ast.ImportDeclaration {
	decl := &ast.ImportDeclaration{Token: pos(1, 1), Path: path}
	for _, n := range names {
		decl.Names = append(decl.Names, id(1, 8, n))
	}
	return decl
}

func reexportDecl(from string, names ...string) *ast.ExportDeclaration {
	decl := &ast.ExportDeclaration{Token: pos(1, 1), From: from}
	for _, n := range names {
		decl.Names = append(decl.Names, id(1, 8, n))
	}
	return decl
}

func fnDecl(name string, params []*ast.Param, ret ast.TypeExpr, body *ast.BlockStatement) *ast.FunctionDeclaration {
	return &ast.FunctionDeclaration{
		Token:    pos(1, 1),
		Name:     id(1, 10, name),
		Params:   params,
		Return:   ret,
		Body:     body,
		Exported: true,
	}
}

func param(name string, typ ast.TypeExpr) *ast.Param {
	return &ast.Param{Token: pos(1, 1), Name: name, Type: typ}
}

func constDecl(name string, value ast.Expression) *ast.ConstDeclaration {
	return &ast.ConstDeclaration{Token: pos(1, 1), Name: id(1, 7, name), Value: value, Exported: true}
}

func block(stmts ...ast.Statement) *ast.BlockStatement {
	return &ast.BlockStatement{Token: pos(1, 1), Statements: stmts}
}

func ret(v ast.Expression) *ast.ReturnStatement {
	return &ast.ReturnStatement{Token: pos(2, 5), Value: v}
}

func call(callee ast.Expression, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Token: pos(1, 1), Callee: callee, Args: args}
}

func infix(left ast.Expression, op string, right ast.Expression) *ast.InfixExpression {
	return &ast.InfixExpression{Token: pos(1, 1), Left: left, Operator: op, Right: right}
}

// addModule is a `function add(int $a, int $b): int` library fixture.
func addModule() *ast.Program {
	return prog(
		fnDecl("add",
			[]*ast.Param{param("a", tref("int")), param("b", tref("int"))},
			tref("int"),
			block(ret(infix(vr(2, 12, "a"), "+", vr(2, 17, "b")))),
		),
	)
}

func newTestLoader(programs map[string]*ast.Program) (*Loader, *registry.Registry) {
	reg := registry.NewRegistry()
	l := NewLoader(reg)
	for path, p := range programs {
		l.AddProgram(path, p)
	}
	return l, reg
}
