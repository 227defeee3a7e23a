package modules

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/phpxlang/phpx/internal/analyzer"
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/config"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/registry"
	"github.com/phpxlang/phpx/internal/symbols"
)

// Loader compiles modules on demand and tracks their lazy evaluation
// state. The shared parser feeds it programs through AddProgram; Load
// then checks, compiles and publishes each module at most once.
//
// Loading is two-phase: names and headers of every module reachable
// from the requested one are analyzed first, then bodies. Mutual
// imports are legal as long as no cycle consists entirely of
// re-exports, so a back edge binds against the dependency's partial
// environment instead of failing.
type Loader struct {
	registry *registry.Registry
	cache    *registry.SignatureCache
	roots    []string // module root directories, searched in order
	strict   bool     // promote warning diagnostics to errors

	mu       sync.Mutex
	programs map[string]*ast.Program
	compiled map[registry.ModuleID]*CompiledModule
	pending  map[registry.ModuleID]*pendingModule
	batch    []*pendingModule // header completion order of the current Load
	runtimes map[registry.ModuleID]*moduleRuntime
	methods  map[string]map[string]*boundMethod // struct name -> method name
}

func NewLoader(reg *registry.Registry) *Loader {
	return &Loader{
		registry: reg,
		programs: make(map[string]*ast.Program),
		compiled: make(map[registry.ModuleID]*CompiledModule),
		pending:  make(map[registry.ModuleID]*pendingModule),
		runtimes: make(map[registry.ModuleID]*moduleRuntime),
		methods:  make(map[string]map[string]*boundMethod),
	}
}

// pendingModule is a module mid-load: its names (and, later, headers)
// are analyzed but its body is not.
type pendingModule struct {
	mod      *CompiledModule
	env      *symbols.Environment
	check    *analyzer.ModuleCheck
	imported map[string]*ast.Identifier // imported name -> ident, for the use check
	bound    map[string]bool            // imported names actually bound into env
}

// SetCache attaches an optional signature cache; compiled modules are
// mirrored into it on publish.
func (l *Loader) SetCache(c *registry.SignatureCache) { l.cache = c }

// SetModuleRoots configures the directories searched when an import
// does not resolve relative to the importing module.
func (l *Loader) SetModuleRoots(roots []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roots = append([]string(nil), roots...)
}

// SetStrict promotes warning diagnostics to errors, so modules with
// warnings fail to publish.
func (l *Loader) SetStrict(strict bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.strict = strict
}

// AddProgram registers a parsed source file under its module path.
func (l *Loader) AddProgram(path string, prog *ast.Program) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.programs[cleanPath(path)] = prog
}

func cleanPath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// resolvePath resolves an import string: relative to the importing
// module first, then against each configured module root. An import
// without an extension gets the source extension appended.
func (l *Loader) resolvePath(fromPath, importPath string) string {
	if filepath.Ext(importPath) == "" {
		importPath += config.SourceFileExt
	}
	local := cleanPath(filepath.Join(filepath.Dir(fromPath), importPath))
	if _, ok := l.programs[local]; ok {
		return local
	}
	for _, root := range l.roots {
		cand := cleanPath(filepath.Join(root, importPath))
		if _, ok := l.programs[cand]; ok {
			return cand
		}
	}
	return local
}

// resolveImport is resolvePath behind the loader lock, for callers
// outside the load walk.
func (l *Loader) resolveImport(fromPath, importPath string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolvePath(fromPath, importPath)
}

// Load compiles the module at path (and, recursively, its
// dependencies), returning the cached result on repeat calls. A module
// that fails to check still returns a CompiledModule carrying its
// diagnostics; only a missing source returns an error.
func (l *Loader) Load(path string) (*CompiledModule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(cleanPath(path))
}

// load assumes l.mu is held. The whole dependency walk happens under
// one lock; module graphs are small and the header/body phases need
// the consistent view.
func (l *Loader) load(path string) (*CompiledModule, error) {
	id := IDForPath(path)
	if mod, ok := l.compiled[id]; ok {
		return mod, nil
	}
	p, err := l.loadHeaders(path)
	if err != nil {
		return nil, err
	}
	if err := l.finishBatch(); err != nil {
		return p.mod, err
	}
	return p.mod, nil
}

// loadHeaders analyzes the module's declaration surface: own names,
// then dependency headers, then signatures. Returns the existing
// pending entry on a back edge; the caller binds against its partial
// environment.
func (l *Loader) loadHeaders(path string) (*pendingModule, error) {
	id := IDForPath(path)
	if p, ok := l.pending[id]; ok {
		return p, nil
	}
	prog, ok := l.programs[path]
	if !ok {
		return nil, fmt.Errorf("module not found: %s", path)
	}

	mod := &CompiledModule{ID: id, Path: path, Program: prog}
	env := symbols.NewEnvironment(symbols.NewGlobalEnv())
	p := &pendingModule{
		mod:      mod,
		env:      env,
		check:    analyzer.NewModuleCheck(env, prog),
		imported: make(map[string]*ast.Identifier),
		bound:    make(map[string]bool),
	}
	l.pending[id] = p

	p.check.AnalyzeNames()
	l.bindImports(p)
	l.loadReexportSources(p)
	p.check.AnalyzeHeaders()

	// Declaration tables for importers. Struct and enum infos are
	// shared pointers, so fields filled later in the batch are seen.
	mod.Structs = env.Structs()
	mod.Enums = env.Enums()
	mod.Functions = env.Functions()

	l.batch = append(l.batch, p)
	return p, nil
}

// bindImports loads each dependency's headers and binds the imported
// names into the module environment. A missing dependency leaves its
// names unbound; references to them surface as UnknownName during
// checking.
func (l *Loader) bindImports(p *pendingModule) {
	for _, imp := range ast.Imports(p.mod.Program) {
		depPath := l.resolvePath(p.mod.Path, imp.Path)
		depP, depMod, err := l.depHeaders(depPath)
		if err != nil {
			p.mod.Diagnostics = append(p.mod.Diagnostics,
				diagnostics.NewError(diagnostics.ErrUnknownName, imp.Token, depPath))
			continue
		}
		for _, name := range imp.Names {
			p.imported[name.Value] = name
			l.bindName(p, depP, depMod, name)
		}
	}
}

// loadReexportSources header-loads the modules named by `export {x}
// from 'path'` statements; the tables resolve later, once the whole
// batch's local exports exist.
func (l *Loader) loadReexportSources(p *pendingModule) {
	for _, stmt := range p.mod.Program.Statements {
		ex, ok := stmt.(*ast.ExportDeclaration)
		if !ok || ex.From == "" {
			continue
		}
		depPath := l.resolvePath(p.mod.Path, ex.From)
		if _, _, err := l.depHeaders(depPath); err != nil {
			p.mod.Diagnostics = append(p.mod.Diagnostics,
				diagnostics.NewError(diagnostics.ErrUnknownName, ex.Token, depPath))
		}
	}
}

// depHeaders resolves a dependency to either its compiled module or
// its pending (possibly partial) state.
func (l *Loader) depHeaders(path string) (*pendingModule, *CompiledModule, error) {
	if mod, ok := l.compiled[IDForPath(path)]; ok {
		return nil, mod, nil
	}
	p, err := l.loadHeaders(path)
	if err != nil {
		return nil, nil, err
	}
	return p, nil, nil
}

// bindName copies one declaration of the dependency into the importing
// module's environment. Whether the name is actually exported is
// verified once the dependency's export table exists. On a back edge a
// function binds as its pre-pass placeholder; rebindImports refreshes
// it before bodies are checked.
func (l *Loader) bindName(p *pendingModule, depP *pendingModule, depMod *CompiledModule, name *ast.Identifier) {
	if p.env.HasName(name.Value) {
		p.mod.Diagnostics = append(p.mod.Diagnostics,
			diagnostics.NewError(diagnostics.ErrDuplicateDeclaration, name.Token, name.Value))
		return
	}
	if depP != nil {
		if sig, ok := depP.env.Function(name.Value); ok {
			p.env.DefineFunction(name.Value, sig)
			p.bound[name.Value] = true
		} else if info, ok := depP.env.Struct(name.Value); ok {
			p.env.DefineStruct(info)
			p.bound[name.Value] = true
		} else if info, ok := depP.env.Enum(name.Value); ok {
			p.env.DefineEnum(info)
			p.bound[name.Value] = true
		}
		return
	}
	if sig, ok := depMod.Functions[name.Value]; ok {
		p.env.DefineFunction(name.Value, sig)
		p.bound[name.Value] = true
	} else if info, ok := depMod.Structs[name.Value]; ok {
		p.env.DefineStruct(info)
		p.bound[name.Value] = true
	} else if info, ok := depMod.Enums[name.Value]; ok {
		p.env.DefineEnum(info)
		p.bound[name.Value] = true
	}
}

// rebindImports refreshes imported function signatures. A back edge
// bound the dependency's pre-pass placeholder; by body time the real
// signature exists.
func (l *Loader) rebindImports(p *pendingModule) {
	for _, imp := range ast.Imports(p.mod.Program) {
		depP, ok := l.pending[IDForPath(l.resolvePath(p.mod.Path, imp.Path))]
		if !ok {
			continue // compiled earlier; the first binding was final
		}
		for _, name := range imp.Names {
			if !p.bound[name.Value] {
				continue
			}
			if sig, ok := depP.env.Function(name.Value); ok {
				p.env.DefineFunction(name.Value, sig)
			}
		}
	}
}

// finishBatch runs the body phase over every module whose headers the
// current Load call assembled, then builds and publishes export
// tables. Bodies only run after the whole batch's headers exist, which
// is what lets mutual imports compile.
func (l *Loader) finishBatch() error {
	batch := l.batch
	l.batch = nil

	var reexports []reexportRef
	for _, p := range batch {
		l.rebindImports(p)
		p.check.AnalyzeBodies()
		typeMap, errs := p.check.Results()
		p.mod.TypeMap = typeMap
		p.mod.Diagnostics = append(p.mod.Diagnostics, errs...)
		l.checkImportUse(p.mod, p.imported)
		if l.strict {
			for _, d := range p.mod.Diagnostics {
				if d.Severity == diagnostics.SeverityWarning {
					d.Severity = diagnostics.SeverityError
				}
			}
		}
		reexports = append(reexports, l.buildLocalExports(p)...)
	}

	l.resolveReexports(reexports)
	l.checkImportVisibility(batch)
	l.propagateDepFailures(batch)

	var cacheErr error
	for _, p := range batch {
		delete(l.pending, p.mod.ID)
		l.compiled[p.mod.ID] = p.mod
		if p.mod.Failed() {
			continue
		}
		l.registry.Publish(p.mod.ID, p.mod.Exports)
		if l.cache != nil {
			if err := l.cache.Store(p.mod.ID, p.mod.Exports); err != nil && cacheErr == nil {
				cacheErr = fmt.Errorf("signature cache: %w", err)
			}
		}
	}
	return cacheErr
}

// checkImportUse records the use marker for each imported name and
// fails the module for any import never referenced. Unused imports are
// errors, not warnings.
func (l *Loader) checkImportUse(mod *CompiledModule, imported map[string]*ast.Identifier) {
	if len(imported) == 0 {
		return
	}
	used := make(map[string]bool)
	markNamesUsed(mod.Program, used)
	for name, tok := range imported {
		if !used[name] {
			mod.Diagnostics = append(mod.Diagnostics, diagnostics.NewError(diagnostics.ErrUnusedImport, tok.Token, name))
		}
	}
}

// buildLocalExports assembles the export table entries the module
// declares itself and returns its unresolved re-export references.
func (l *Loader) buildLocalExports(p *pendingModule) []reexportRef {
	mod, env := p.mod, p.env
	mod.Exports = make(map[string]registry.ExportSignature)

	addLocal := func(name *ast.Identifier) {
		if sig, ok := env.Function(name.Value); ok {
			mod.Exports[name.Value] = registry.ExportSignature{
				Name:     name.Value,
				Params:   sig.Params,
				Required: sig.Required,
				Return:   sig.Return,
				RawRef:   Mangle(mod.ID, name.Value),
			}
			return
		}
		if t, ok := env.Const(name.Value); ok {
			mod.Exports[name.Value] = registry.ExportSignature{
				Name:   name.Value,
				Return: t,
				RawRef: Mangle(mod.ID, name.Value),
			}
			return
		}
		if env.HasName(name.Value) {
			// Type export: structs, enums, aliases carry no call
			// signature, only the reference.
			mod.Exports[name.Value] = registry.ExportSignature{
				Name:   name.Value,
				RawRef: Mangle(mod.ID, name.Value),
			}
			return
		}
		mod.Diagnostics = append(mod.Diagnostics, diagnostics.NewError(diagnostics.ErrUnknownName, name.Token, name.Value))
	}

	var refs []reexportRef
	for _, stmt := range mod.Program.Statements {
		switch s := stmt.(type) {
		case *ast.ExportDeclaration:
			if s.From == "" {
				for _, name := range s.Names {
					addLocal(name)
				}
				continue
			}
			depPath := l.resolvePath(mod.Path, s.From)
			depID := IDForPath(depPath)
			if !l.known(depID) {
				continue // missing source, diagnosed at header time
			}
			for _, name := range s.Names {
				refs = append(refs, reexportRef{p: p, decl: s, name: name, dep: depID, depPath: depPath})
			}
		default:
			if ast.IsExported(stmt) {
				if name := ast.DeclaredIdent(stmt); name != nil {
					addLocal(name)
				}
			}
		}
	}
	return refs
}

// reexportRef is one `export {name} from 'path'` entry awaiting its
// source signature.
type reexportRef struct {
	p       *pendingModule
	decl    *ast.ExportDeclaration
	name    *ast.Identifier
	dep     registry.ModuleID
	depPath string
}

// resolveReexports runs the batch's re-exports to a fixpoint, keeping
// each resolved signature's original RawRef so the name still
// dispatches into its declaring module. What survives the fixpoint
// either names a missing export or sits on a cycle of re-exports that
// never terminates in a declaration; only the latter is CircularImport.
func (l *Loader) resolveReexports(refs []reexportRef) {
	for progress := true; progress && len(refs) > 0; {
		progress = false
		var unresolved []reexportRef
		for _, r := range refs {
			if sig, ok := l.exportOf(r.dep, r.name.Value); ok {
				r.p.mod.Exports[r.name.Value] = sig
				progress = true
				continue
			}
			unresolved = append(unresolved, r)
		}
		refs = unresolved
	}
	for _, r := range refs {
		if l.hasReexportOf(r.dep, r.name.Value) {
			r.p.mod.Diagnostics = append(r.p.mod.Diagnostics,
				diagnostics.NewError(diagnostics.ErrCircularImport, r.decl.Token, r.depPath))
		} else {
			r.p.mod.Diagnostics = append(r.p.mod.Diagnostics,
				diagnostics.NewError(diagnostics.ErrUnknownName, r.name.Token, r.name.Value))
		}
	}
}

// checkImportVisibility verifies every imported name against its
// dependency's finished export table. Binding happened at header time,
// before export surfaces existed.
func (l *Loader) checkImportVisibility(batch []*pendingModule) {
	for _, p := range batch {
		for _, imp := range ast.Imports(p.mod.Program) {
			dep := l.moduleFor(IDForPath(l.resolvePath(p.mod.Path, imp.Path)))
			if dep == nil || dep.Failed() {
				continue
			}
			for _, name := range imp.Names {
				if _, exported := dep.Exports[name.Value]; !exported {
					p.mod.Diagnostics = append(p.mod.Diagnostics,
						diagnostics.NewError(diagnostics.ErrUnknownName, name.Token, name.Value))
				}
			}
		}
	}
}

// propagateDepFailures fails every module that imports from a failed
// module, transitively. A failed dependency publishes nothing, so its
// importers cannot link.
func (l *Loader) propagateDepFailures(batch []*pendingModule) {
	for changed := true; changed; {
		changed = false
		for _, p := range batch {
			if p.mod.Failed() {
				continue
			}
			for _, imp := range ast.Imports(p.mod.Program) {
				depPath := l.resolvePath(p.mod.Path, imp.Path)
				dep := l.moduleFor(IDForPath(depPath))
				if dep == nil || !dep.Failed() {
					continue
				}
				p.mod.Diagnostics = append(p.mod.Diagnostics,
					diagnostics.NewError(diagnostics.ErrUnknownName, imp.Token, depPath))
				changed = true
				break
			}
		}
	}
}

func (l *Loader) known(id registry.ModuleID) bool {
	if _, ok := l.pending[id]; ok {
		return true
	}
	_, ok := l.compiled[id]
	return ok
}

func (l *Loader) moduleFor(id registry.ModuleID) *CompiledModule {
	if p, ok := l.pending[id]; ok {
		return p.mod
	}
	if mod, ok := l.compiled[id]; ok {
		return mod
	}
	return nil
}

func (l *Loader) exportOf(id registry.ModuleID, name string) (registry.ExportSignature, bool) {
	mod := l.moduleFor(id)
	if mod == nil || mod.Exports == nil {
		return registry.ExportSignature{}, false
	}
	sig, ok := mod.Exports[name]
	return sig, ok
}

// hasReexportOf reports whether the module re-exports name from
// somewhere else, meaning an unresolved reference to it is part of a
// re-export cycle rather than a plain missing name.
func (l *Loader) hasReexportOf(id registry.ModuleID, name string) bool {
	mod := l.moduleFor(id)
	if mod == nil {
		return false
	}
	for _, stmt := range mod.Program.Statements {
		ex, ok := stmt.(*ast.ExportDeclaration)
		if !ok || ex.From == "" {
			continue
		}
		for _, n := range ex.Names {
			if n.Value == name {
				return true
			}
		}
	}
	return false
}
