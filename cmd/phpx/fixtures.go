package main

import (
	"sort"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/token"
)

// The shared parser ships separately; until it is wired in, the CLI
// demonstrates the core on built-in fixture modules assembled through
// the AST adapter. Each fixture mirrors a small .phpx source file.

func tok(file string, line, col int) token.Token {
	return token.Token{Type: token.IDENT, File: file, Line: line, Column: col}
}

// mathFixture
//
//	export function add(int $a, int $b): int { return $a + $b; }
//	export function scale(int $n, int $factor = 10): int { return $n * $factor; }
func mathFixture() *ast.Program {
	file := "math.phpx"
	return &ast.Program{
		File: file,
		Mode: ast.ModePHPX,
		Statements: []ast.Statement{
			&ast.FunctionDeclaration{
				Token: tok(file, 1, 1),
				Name:  &ast.Identifier{Token: tok(file, 1, 17), Value: "add"},
				Params: []*ast.Param{
					{Token: tok(file, 1, 21), Name: "a", Type: &ast.TypeRef{Token: tok(file, 1, 21), Name: "int"}},
					{Token: tok(file, 1, 29), Name: "b", Type: &ast.TypeRef{Token: tok(file, 1, 29), Name: "int"}},
				},
				Return: &ast.TypeRef{Token: tok(file, 1, 38), Name: "int"},
				Body: &ast.BlockStatement{Token: tok(file, 1, 42), Statements: []ast.Statement{
					&ast.ReturnStatement{Token: tok(file, 1, 44), Value: &ast.InfixExpression{
						Token:    tok(file, 1, 54),
						Left:     &ast.Variable{Token: tok(file, 1, 51), Name: "a"},
						Operator: "+",
						Right:    &ast.Variable{Token: tok(file, 1, 56), Name: "b"},
					}},
				}},
				Exported: true,
			},
			&ast.FunctionDeclaration{
				Token: tok(file, 2, 1),
				Name:  &ast.Identifier{Token: tok(file, 2, 17), Value: "scale"},
				Params: []*ast.Param{
					{Token: tok(file, 2, 23), Name: "n", Type: &ast.TypeRef{Token: tok(file, 2, 23), Name: "int"}},
					{
						Token:   tok(file, 2, 31),
						Name:    "factor",
						Type:    &ast.TypeRef{Token: tok(file, 2, 31), Name: "int"},
						Default: &ast.IntegerLiteral{Token: tok(file, 2, 45), Value: 10},
					},
				},
				Return: &ast.TypeRef{Token: tok(file, 2, 50), Name: "int"},
				Body: &ast.BlockStatement{Token: tok(file, 2, 54), Statements: []ast.Statement{
					&ast.ReturnStatement{Token: tok(file, 2, 56), Value: &ast.InfixExpression{
						Token:    tok(file, 2, 66),
						Left:     &ast.Variable{Token: tok(file, 2, 63), Name: "n"},
						Operator: "*",
						Right:    &ast.Variable{Token: tok(file, 2, 68), Name: "factor"},
					}},
				}},
				Exported: true,
			},
		},
	}
}

// shapesFixture
//
//	export enum Shape { Circle(int), Empty }
//	export function describe(): int {
//	    return match (Shape::Circle(5)) {
//	        Shape::Circle($r) => $r * 2,
//	        _ => 0,
//	    };
//	}
func shapesFixture() *ast.Program {
	file := "shapes.phpx"
	return &ast.Program{
		File: file,
		Mode: ast.ModePHPX,
		Statements: []ast.Statement{
			&ast.EnumDeclaration{
				Token: tok(file, 1, 1),
				Name:  &ast.Identifier{Token: tok(file, 1, 13), Value: "Shape"},
				Variants: []*ast.EnumVariant{
					{Token: tok(file, 1, 21), Name: "Circle", Params: []ast.TypeExpr{&ast.TypeRef{Token: tok(file, 1, 28), Name: "int"}}},
					{Token: tok(file, 1, 34), Name: "Empty"},
				},
				Exported: true,
			},
			&ast.FunctionDeclaration{
				Token:  tok(file, 2, 1),
				Name:   &ast.Identifier{Token: tok(file, 2, 17), Value: "describe"},
				Return: &ast.TypeRef{Token: tok(file, 2, 29), Name: "int"},
				Body: &ast.BlockStatement{Token: tok(file, 2, 33), Statements: []ast.Statement{
					&ast.ReturnStatement{Token: tok(file, 3, 5), Value: &ast.MatchExpression{
						Token: tok(file, 3, 12),
						Subject: &ast.CallExpression{
							Token: tok(file, 3, 19),
							Callee: &ast.ScopeResolution{
								Token:  tok(file, 3, 24),
								Left:   &ast.Identifier{Token: tok(file, 3, 19), Value: "Shape"},
								Member: &ast.Identifier{Token: tok(file, 3, 26), Value: "Circle"},
							},
							Args: []ast.Expression{&ast.IntegerLiteral{Token: tok(file, 3, 33), Value: 5}},
						},
						Arms: []*ast.MatchArm{
							{
								Token: tok(file, 4, 9),
								Pattern: &ast.MatchPattern{
									Token:    tok(file, 4, 9),
									Enum:     "Shape",
									Case:     "Circle",
									Bindings: []*ast.Variable{{Token: tok(file, 4, 23), Name: "r"}},
								},
								Body: &ast.InfixExpression{
									Token:    tok(file, 4, 33),
									Left:     &ast.Variable{Token: tok(file, 4, 30), Name: "r"},
									Operator: "*",
									Right:    &ast.IntegerLiteral{Token: tok(file, 4, 35), Value: 2},
								},
							},
							{
								Token:   tok(file, 5, 9),
								Pattern: &ast.MatchPattern{Token: tok(file, 5, 9), CatchAll: true},
								Body:    &ast.IntegerLiteral{Token: tok(file, 5, 14), Value: 0},
							},
						},
					}},
				}},
				Exported: true,
			},
		},
	}
}

// appFixture
//
//	import {add} from 'math.phpx';
//	export const answer = add(40, 2);
func appFixture() *ast.Program {
	file := "app.phpx"
	return &ast.Program{
		File: file,
		Mode: ast.ModePHPX,
		Statements: []ast.Statement{
			&ast.ImportDeclaration{
				Token: tok(file, 1, 1),
				Names: []*ast.Identifier{{Token: tok(file, 1, 9), Value: "add"}},
				Path:  "math.phpx",
			},
			&ast.ConstDeclaration{
				Token: tok(file, 2, 1),
				Name:  &ast.Identifier{Token: tok(file, 2, 14), Value: "answer"},
				Value: &ast.CallExpression{
					Token:  tok(file, 2, 23),
					Callee: &ast.Identifier{Token: tok(file, 2, 23), Value: "add"},
					Args: []ast.Expression{
						&ast.IntegerLiteral{Token: tok(file, 2, 27), Value: 40},
						&ast.IntegerLiteral{Token: tok(file, 2, 31), Value: 2},
					},
				},
				Exported: true,
			},
		},
	}
}

// brokenFixture carries a deliberate type error so `check` has
// something to report.
//
//	int $x = "hello";
func brokenFixture() *ast.Program {
	file := "broken.phpx"
	return &ast.Program{
		File: file,
		Mode: ast.ModePHPX,
		Statements: []ast.Statement{
			&ast.VarDeclaration{
				Token: tok(file, 1, 1),
				Name:  &ast.Variable{Token: tok(file, 1, 5), Name: "x"},
				Type:  &ast.TypeRef{Token: tok(file, 1, 1), Name: "int"},
				Value: &ast.StringLiteral{Token: tok(file, 1, 10), Value: "hello"},
			},
		},
	}
}

func fixturePrograms() map[string]*ast.Program {
	return map[string]*ast.Program{
		"math.phpx":   mathFixture(),
		"shapes.phpx": shapesFixture(),
		"app.phpx":    appFixture(),
		"broken.phpx": brokenFixture(),
	}
}

func fixtureNames() []string {
	programs := fixturePrograms()
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
