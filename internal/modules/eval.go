package modules

import (
	"fmt"
	"sync"

	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/registry"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/token"
	"github.com/phpxlang/phpx/internal/values"
)

// Lazy module evaluation. Compiling a module never runs its code; the
// first demand does, at most once. A demand arriving while the module
// is mid-evaluation observes the partially-populated export table
// without blocking, which is what breaks import cycles at runtime.

type evalState int

const (
	evalNotStarted evalState = iota
	evalInProgress
	evalDone
)

type moduleRuntime struct {
	mu      sync.Mutex
	state   evalState
	exports map[string]values.Value
	runs    int // top-level executions; at most 1 by construction
}

func (rt *moduleRuntime) export(name string, v values.Value) {
	rt.mu.Lock()
	rt.exports[name] = v
	rt.mu.Unlock()
}

func (rt *moduleRuntime) snapshot() map[string]values.Value {
	out := make(map[string]values.Value, len(rt.exports))
	for name, v := range rt.exports {
		out[name] = v
	}
	return out
}

func (l *Loader) runtime(id registry.ModuleID) *moduleRuntime {
	l.mu.Lock()
	defer l.mu.Unlock()
	rt, ok := l.runtimes[id]
	if !ok {
		rt = &moduleRuntime{exports: make(map[string]values.Value)}
		l.runtimes[id] = rt
	}
	return rt
}

// Demand compiles the module if needed and returns its runtime export
// values, evaluating top-level statements on first demand only. Failed
// modules never evaluate.
func (l *Loader) Demand(path string) (map[string]values.Value, error) {
	mod, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	if mod.Failed() {
		return nil, fmt.Errorf("module %s failed to compile", mod.Path)
	}

	rt := l.runtime(mod.ID)
	rt.mu.Lock()
	if rt.state != evalNotStarted {
		snap := rt.snapshot()
		rt.mu.Unlock()
		return snap, nil
	}
	rt.state = evalInProgress
	rt.runs++
	rt.mu.Unlock()

	ev := newEvaluator(l, mod, rt)
	evalErr := ev.run()

	rt.mu.Lock()
	rt.state = evalDone
	snap := rt.snapshot()
	rt.mu.Unlock()
	return snap, evalErr
}

// EvalRuns reports how many times the module's top-level statements
// executed.
func (l *Loader) EvalRuns(id registry.ModuleID) int {
	rt := l.runtime(id)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.runs
}

// RuntimeExport reads one evaluated export, demanding the module first.
func (l *Loader) RuntimeExport(path, name string) (values.Value, error) {
	exports, err := l.Demand(path)
	if err != nil {
		return nil, err
	}
	v, ok := exports[name]
	if !ok {
		return nil, fmt.Errorf("module %s does not export %q", path, name)
	}
	return v, nil
}

// EvalError is a runtime failure with its source position.
type EvalError struct {
	Token   token.Token
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Token.File, e.Token.Line, e.Token.Column, e.Message)
}

func evalErrf(tok token.Token, format string, args ...interface{}) *EvalError {
	return &EvalError{Token: tok, Message: fmt.Sprintf(format, args...)}
}

// returnSignal unwinds a function body. It never escapes callFunction.
type returnSignal struct {
	value values.Value
}

func (r *returnSignal) Error() string { return "return" }

// evalEnv is a lexical scope of variable bindings.
type evalEnv struct {
	parent *evalEnv
	vars   map[string]*values.Binding
}

func newEvalEnv(parent *evalEnv) *evalEnv {
	return &evalEnv{parent: parent, vars: make(map[string]*values.Binding)}
}

func (e *evalEnv) lookup(name string) (*values.Binding, bool) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

func (e *evalEnv) define(name string, v values.Value) *values.Binding {
	b := values.NewBinding(v)
	e.vars[name] = b
	return b
}

// functionValue is a declared function bound to its defining scope.
type functionValue struct {
	name string
	decl *ast.FunctionDeclaration
	env  *evalEnv
	this values.Value // receiver for bound struct methods, else nil
}

func (f *functionValue) Kind() values.ValueKind { return values.ValueKind("FUNCTION") }
func (f *functionValue) Inspect() string        { return "function " + f.name }
func (f *functionValue) TypeTag() string        { return "function" }

type evaluator struct {
	loader  *Loader
	mod     *CompiledModule
	rt      *moduleRuntime
	symbols *symbols.Environment
	globals *evalEnv
}

func newEvaluator(l *Loader, mod *CompiledModule, rt *moduleRuntime) *evaluator {
	env := symbols.NewEnvironment(symbols.NewGlobalEnv())
	for _, info := range mod.Structs {
		env.DefineStruct(info)
	}
	for _, info := range mod.Enums {
		env.DefineEnum(info)
	}
	return &evaluator{
		loader:  l,
		mod:     mod,
		rt:      rt,
		symbols: env,
		globals: newEvalEnv(nil),
	}
}

// boundMethod ties a struct method body to the evaluator of its
// declaring module, so method calls on imported struct values still
// close over the right scope.
type boundMethod struct {
	decl *ast.FunctionDeclaration
	ev   *evaluator
}

func (l *Loader) registerMethods(ev *evaluator) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, stmt := range ev.mod.Program.Statements {
		decl, ok := stmt.(*ast.StructDeclaration)
		if !ok {
			continue
		}
		table := make(map[string]*boundMethod, len(decl.Methods))
		for _, m := range decl.Methods {
			table[m.Name.Value] = &boundMethod{decl: m, ev: ev}
		}
		l.methods[decl.Name.Value] = table
	}
}

func (l *Loader) method(structName, name string) (*boundMethod, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	table, ok := l.methods[structName]
	if !ok {
		return nil, false
	}
	bm, ok := table[name]
	return bm, ok
}

// run executes the module's top-level statements in order, publishing
// each exported binding as soon as it exists. Function declarations
// hoist before imports bind, so a dependency cycling back mid-import
// already sees them in the partial table.
func (ev *evaluator) run() error {
	ev.loader.registerMethods(ev)
	ev.hoistFunctions()
	if err := ev.bindImports(); err != nil {
		return err
	}
	for _, stmt := range ev.mod.Program.Statements {
		if err := ev.evalStatement(stmt, ev.globals, true); err != nil {
			return err
		}
	}
	return nil
}

// hoistFunctions defines and publishes every top-level function before
// any statement runs.
func (ev *evaluator) hoistFunctions() {
	for _, stmt := range ev.mod.Program.Statements {
		decl, ok := stmt.(*ast.FunctionDeclaration)
		if !ok {
			continue
		}
		fn := &functionValue{name: decl.Name.Value, decl: decl, env: ev.globals}
		ev.globals.define(decl.Name.Value, fn)
		ev.maybeExport(true, decl.Name.Value, fn)
	}
}

// bindImports demands each dependency and binds the imported runtime
// values. A dependency still evaluating contributes whatever its
// partial table holds; names it has not yet published stay unbound and
// surface as undefined if actually called during the cycle.
func (ev *evaluator) bindImports() error {
	for _, imp := range ast.Imports(ev.mod.Program) {
		depPath := ev.loader.resolveImport(ev.mod.Path, imp.Path)
		depExports, err := ev.loader.Demand(depPath)
		if err != nil {
			return err
		}
		for _, name := range imp.Names {
			if v, ok := depExports[name.Value]; ok {
				ev.globals.define(name.Value, v)
			}
		}
	}
	return nil
}

func (ev *evaluator) evalStatement(stmt ast.Statement, env *evalEnv, topLevel bool) error {
	switch s := stmt.(type) {
	case *ast.ImportDeclaration, *ast.ExportDeclaration,
		*ast.StructDeclaration, *ast.EnumDeclaration,
		*ast.TypeAliasDeclaration, *ast.InterfaceDeclaration:
		// Declarations were handled at compile time; struct and enum
		// shapes come from the retained symbol tables.
		return nil

	case *ast.FunctionDeclaration:
		fn := &functionValue{name: s.Name.Value, decl: s, env: env}
		env.define(s.Name.Value, fn)
		ev.maybeExport(topLevel, s.Name.Value, fn)
		return nil

	case *ast.ConstDeclaration:
		v, err := ev.evalExpression(s.Value, env)
		if err != nil {
			return err
		}
		env.define(s.Name.Value, v)
		ev.maybeExport(topLevel, s.Name.Value, v)
		return nil

	case *ast.VarDeclaration:
		var v values.Value = &values.Void{}
		if s.Value != nil {
			var err error
			v, err = ev.evalExpression(s.Value, env)
			if err != nil {
				return err
			}
		}
		env.define(s.Name.Name, v)
		return nil

	case *ast.ExpressionStatement:
		_, err := ev.evalExpression(s.Expression, env)
		return err

	case *ast.ReturnStatement:
		var v values.Value = &values.Void{}
		if s.Value != nil {
			var err error
			v, err = ev.evalExpression(s.Value, env)
			if err != nil {
				return err
			}
		}
		return &returnSignal{value: v}

	case *ast.IfStatement:
		cond, err := ev.evalExpression(s.Condition, env)
		if err != nil {
			return err
		}
		b, ok := cond.(*values.Boolean)
		if !ok {
			return evalErrf(s.Condition.GetToken(), "condition is %s, not bool", cond.TypeTag())
		}
		if b.Value {
			return ev.evalStatement(s.Then, env, false)
		}
		if s.Else != nil {
			return ev.evalStatement(s.Else, env, false)
		}
		return nil

	case *ast.BlockStatement:
		inner := newEvalEnv(env)
		for _, st := range s.Statements {
			if err := ev.evalStatement(st, inner, false); err != nil {
				return err
			}
		}
		return nil
	}
	return evalErrf(stmt.GetToken(), "cannot evaluate %T", stmt)
}

func (ev *evaluator) maybeExport(topLevel bool, name string, v values.Value) {
	if !topLevel {
		return
	}
	if _, exported := ev.mod.Exports[name]; exported {
		ev.rt.export(name, v)
	}
}
