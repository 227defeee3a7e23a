package modules

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/pipeline"
	"github.com/phpxlang/phpx/internal/token"
)

// CompileProcessor is the compile stage: it registers the parsed
// program with the loader and compiles it into a published module. The
// loader re-runs the check against the module's own environment so
// imports resolve; the stage therefore replaces any TypeMap left by a
// standalone check stage.
type CompileProcessor struct {
	Loader *Loader
}

func NewCompileProcessor(l *Loader) *CompileProcessor {
	return &CompileProcessor{Loader: l}
}

func (cp *CompileProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil || !ast.IsPHPX(ctx.AstRoot) {
		return ctx
	}

	cp.Loader.AddProgram(ctx.FilePath, ctx.AstRoot)
	mod, err := cp.Loader.Load(ctx.FilePath)
	if err != nil {
		tok := token.Token{File: ctx.FilePath, Line: 1, Column: 1}
		if len(ctx.AstRoot.Statements) > 0 {
			tok = ctx.AstRoot.Statements[0].GetToken()
		}
		ctx.AddDiagnostics([]*diagnostics.DiagnosticError{
			diagnostics.NewError(diagnostics.ErrUnknownName, tok, ctx.FilePath),
		})
		return ctx
	}

	ctx.TypeMap = mod.TypeMap
	ctx.Compiled = mod
	ctx.AddDiagnostics(mod.Diagnostics)
	return ctx
}
