package pipeline

import (
	"github.com/phpxlang/phpx/internal/ast"
	"github.com/phpxlang/phpx/internal/config"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/typesystem"
)

// PipelineContext carries one source unit through the stages. Stages
// append diagnostics instead of aborting so a single run reports
// everything it can find.
type PipelineContext struct {
	FilePath string
	Project  *config.Project

	AstRoot *ast.Program
	Env     *symbols.Environment
	TypeMap map[ast.Node]typesystem.Type

	// Compiled is the module compiler's output. Stages past check leave
	// it nil when an error-severity diagnostic was recorded.
	Compiled any

	Errors   []*diagnostics.DiagnosticError
	Warnings []*diagnostics.DiagnosticError
}

// HasErrors reports whether any error-severity diagnostic was recorded.
// Warnings never block later stages.
func (c *PipelineContext) HasErrors() bool {
	return len(c.Errors) > 0
}

// AddDiagnostics files each diagnostic under Errors or Warnings by
// severity.
func (c *PipelineContext) AddDiagnostics(errs []*diagnostics.DiagnosticError) {
	for _, err := range errs {
		if err.Severity == diagnostics.SeverityWarning {
			c.Warnings = append(c.Warnings, err)
			continue
		}
		c.Errors = append(c.Errors, err)
	}
}

// Processor is one pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Continue on errors to collect diagnostics from all stages.
	}
	return ctx
}
