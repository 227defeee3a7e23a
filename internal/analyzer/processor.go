package analyzer

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/pipeline"
	"github.com/phpxlang/phpx/internal/symbols"
)

// AnalyzerProcessor is the check stage. PHP-mode programs pass through
// untouched; PHPX-mode programs are fully checked and the resulting
// TypeMap and environment are left on the context for the compile stage.
type AnalyzerProcessor struct{}

func (ap *AnalyzerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	if !ast.IsPHPX(ctx.AstRoot) {
		return ctx
	}

	env := ctx.Env
	if env == nil {
		env = symbols.NewEnvironment(symbols.NewGlobalEnv())
		ctx.Env = env
	}

	typeMap, errs := New(env).CheckModule(ctx.AstRoot)
	ctx.TypeMap = typeMap
	ctx.AddDiagnostics(errs)
	return ctx
}
