package analyzer

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// checkBodies walks every statement. Signatures were filled by the
// header phase.
func (w *walker) checkBodies(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		w.checkStatement(stmt)
	}
}

func (w *walker) checkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.StructDeclaration:
		w.checkStructBody(s)
	case *ast.FunctionDeclaration:
		w.checkFunctionBody(s, nil)
	case *ast.ConstDeclaration:
		w.checkConst(s)
	case *ast.VarDeclaration:
		w.checkVarDeclaration(s)
	case *ast.ExpressionStatement:
		w.inferExpression(s.Expression)
	case *ast.ReturnStatement:
		w.checkReturn(s)
	case *ast.IfStatement:
		w.checkIf(s)
	case *ast.BlockStatement:
		w.env.PushScope()
		for _, inner := range s.Statements {
			w.checkStatement(inner)
		}
		w.env.PopScope()
	}
}

// checkStructBody validates field defaults against field types and checks
// method bodies with $this bound to the struct.
func (w *walker) checkStructBody(decl *ast.StructDeclaration) {
	info, ok := w.env.Struct(decl.Name.Value)
	if !ok {
		return
	}
	for _, field := range decl.Fields {
		if field.Default == nil {
			continue
		}
		declared := info.Fields[field.Name]
		actual := w.inferExpression(field.Default)
		if !typesystem.AssignableTo(actual, declared) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, field.Default.GetToken(), declared.String(), actual.String()))
		}
	}
	receiver := typesystem.TStruct{Name: decl.Name.Value}
	for _, method := range decl.Methods {
		w.checkFunctionBody(method, receiver)
	}
}

// checkFunctionBody checks a function or method body. receiver is bound
// as $this for struct methods, nil otherwise.
func (w *walker) checkFunctionBody(decl *ast.FunctionDeclaration, receiver typesystem.Type) {
	sig := w.buildFunctionSignature(decl)
	if decl.Body == nil {
		return
	}

	w.env.PushScope()
	if receiver != nil {
		w.env.SetVar("this", receiver)
	}
	for i, p := range decl.Params {
		w.env.SetVar(p.Name, sig.Params[i])
		if p.Default != nil {
			actual := w.inferExpression(p.Default)
			if !typesystem.AssignableTo(actual, sig.Params[i]) {
				w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, p.Default.GetToken(), sig.Params[i].String(), actual.String()))
			}
		}
	}

	prevReturn := w.currentReturn
	w.currentReturn = sig.Return
	for _, stmt := range decl.Body.Statements {
		w.checkStatement(stmt)
	}
	w.currentReturn = prevReturn
	w.env.PopScope()

	if sig.Return != nil && !isVoid(sig.Return) && !blockAlwaysReturns(decl.Body) {
		w.addError(diagnostics.NewError(diagnostics.ErrMissingReturn, decl.GetToken(), decl.Name.Value, sig.Return.String()))
	}
}

func isVoid(t typesystem.Type) bool {
	prim, ok := t.(typesystem.TPrim)
	return ok && prim.Kind == typesystem.Void
}

// blockAlwaysReturns is a shallow structural check: the block returns on
// all paths when its last reachable statement is a return, or an
// if/else whose branches both always return.
func blockAlwaysReturns(block *ast.BlockStatement) bool {
	if block == nil || len(block.Statements) == 0 {
		return false
	}
	return stmtAlwaysReturns(block.Statements[len(block.Statements)-1])
}

func stmtAlwaysReturns(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.ReturnStatement:
		return true
	case *ast.IfStatement:
		if s.Else == nil {
			return false
		}
		if !blockAlwaysReturns(s.Then) {
			return false
		}
		return stmtAlwaysReturns(s.Else)
	case *ast.BlockStatement:
		return blockAlwaysReturns(s)
	}
	return false
}

func (w *walker) checkConst(decl *ast.ConstDeclaration) {
	actual := w.inferExpression(decl.Value)
	if decl.Type != nil {
		declared := w.buildType(decl.Type, nil)
		if !typesystem.AssignableTo(actual, declared) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, decl.Value.GetToken(), declared.String(), actual.String()))
		}
		w.env.DefineConst(decl.Name.Value, declared)
		return
	}
	w.env.DefineConst(decl.Name.Value, actual)
}

func (w *walker) checkVarDeclaration(decl *ast.VarDeclaration) {
	declared := w.buildType(decl.Type, nil)
	if decl.Value != nil {
		actual := w.inferExpression(decl.Value)
		if !typesystem.AssignableTo(actual, declared) {
			w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, decl.Value.GetToken(), declared.String(), actual.String()))
		}
	}
	w.env.SetVar(decl.Name.Name, declared)
	w.setType(decl, declared)
}

func (w *walker) checkReturn(stmt *ast.ReturnStatement) {
	var actual typesystem.Type = typesystem.TPrim{Kind: typesystem.Void}
	if stmt.Value != nil {
		actual = w.inferExpression(stmt.Value)
	}
	if w.currentReturn == nil {
		// Top-level return; the module evaluator's concern, not ours.
		return
	}
	if !typesystem.AssignableTo(actual, w.currentReturn) {
		w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, stmt.GetToken(), w.currentReturn.String(), actual.String()))
	}
}

// checkIf checks the condition and both branches, applying flow-sensitive
// narrowing inside each branch only. Narrowed types never leak past the
// branch.
func (w *walker) checkIf(stmt *ast.IfStatement) {
	condType := w.inferExpression(stmt.Condition)
	if !typesystem.AssignableTo(condType, typesystem.TPrim{Kind: typesystem.Bool}) {
		w.addError(diagnostics.NewError(diagnostics.ErrTypeMismatch, stmt.Condition.GetToken(), "bool", condType.String()))
	}

	w.env.PushNarrowing()
	for _, fact := range w.narrowFacts(stmt.Condition, false) {
		w.env.Narrow(fact.name, fact.t)
	}
	w.env.PushScope()
	for _, inner := range stmt.Then.Statements {
		w.checkStatement(inner)
	}
	w.env.PopScope()
	w.env.PopNarrowing()

	if stmt.Else != nil {
		w.env.PushNarrowing()
		for _, fact := range w.narrowFacts(stmt.Condition, true) {
			w.env.Narrow(fact.name, fact.t)
		}
		w.checkStatement(stmt.Else)
		w.env.PopNarrowing()
	}
}
