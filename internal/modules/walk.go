package modules

import "github.com/phpxlang/phpx/internal/ast"

// markNamesUsed records every name the program references: identifiers
// in expression position and names in type annotations. Import and
// export statements themselves do not count as uses.
func markNamesUsed(prog *ast.Program, used map[string]bool) {
	for _, stmt := range prog.Statements {
		markStmt(stmt, used)
	}
}

func markStmt(stmt ast.Statement, used map[string]bool) {
	switch s := stmt.(type) {
	case *ast.StructDeclaration:
		for _, f := range s.Fields {
			markType(f.Type, used)
			markExpr(f.Default, used)
		}
		for _, u := range s.Uses {
			used[u.Value] = true
		}
		for _, m := range s.Methods {
			markStmt(m, used)
		}
	case *ast.EnumDeclaration:
		for _, v := range s.Variants {
			for _, p := range v.Params {
				markType(p, used)
			}
		}
	case *ast.TypeAliasDeclaration:
		markType(s.Aliased, used)
	case *ast.InterfaceDeclaration:
		for _, m := range s.Methods {
			for _, p := range m.Params {
				markType(p, used)
			}
			markType(m.Return, used)
		}
	case *ast.FunctionDeclaration:
		for _, tp := range s.TypeParams {
			if tp.Constraint != "" {
				used[tp.Constraint] = true
			}
		}
		for _, p := range s.Params {
			markType(p.Type, used)
			markExpr(p.Default, used)
		}
		markType(s.Return, used)
		if s.Body != nil {
			markStmt(s.Body, used)
		}
	case *ast.ConstDeclaration:
		markType(s.Type, used)
		markExpr(s.Value, used)
	case *ast.VarDeclaration:
		markType(s.Type, used)
		markExpr(s.Value, used)
	case *ast.ExpressionStatement:
		markExpr(s.Expression, used)
	case *ast.ReturnStatement:
		markExpr(s.Value, used)
	case *ast.IfStatement:
		markExpr(s.Condition, used)
		markStmt(s.Then, used)
		if s.Else != nil {
			markStmt(s.Else, used)
		}
	case *ast.BlockStatement:
		for _, inner := range s.Statements {
			markStmt(inner, used)
		}
	}
}

func markExpr(expr ast.Expression, used map[string]bool) {
	switch e := expr.(type) {
	case nil:
		return
	case *ast.Identifier:
		used[e.Value] = true
	case *ast.ObjectLiteral:
		for _, f := range e.Fields {
			markExpr(f.Value, used)
		}
	case *ast.StructLiteral:
		used[e.Name.Value] = true
		for _, f := range e.Fields {
			markExpr(f.Value, used)
		}
	case *ast.DotAccess:
		markExpr(e.Left, used)
	case *ast.ScopeResolution:
		used[e.Left.Value] = true
	case *ast.CallExpression:
		markExpr(e.Callee, used)
		for _, t := range e.TypeArgs {
			markType(t, used)
		}
		for _, a := range e.Args {
			markExpr(a, used)
		}
	case *ast.InfixExpression:
		markExpr(e.Left, used)
		markExpr(e.Right, used)
	case *ast.PrefixExpression:
		markExpr(e.Right, used)
	case *ast.AssignExpression:
		markExpr(e.Left, used)
		markExpr(e.Value, used)
	case *ast.IssetExpression:
		markExpr(e.Target, used)
	case *ast.MatchExpression:
		markExpr(e.Subject, used)
		for _, arm := range e.Arms {
			if arm.Pattern != nil && arm.Pattern.Enum != "" {
				used[arm.Pattern.Enum] = true
			}
			markExpr(arm.Guard, used)
			markExpr(arm.Body, used)
		}
	}
}

func markType(texpr ast.TypeExpr, used map[string]bool) {
	switch t := texpr.(type) {
	case nil:
		return
	case *ast.TypeRef:
		used[t.Name] = true
		for _, a := range t.Args {
			markType(a, used)
		}
	case *ast.ShapeType:
		for _, f := range t.Fields {
			markType(f.Type, used)
		}
	}
}
