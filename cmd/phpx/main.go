package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/phpxlang/phpx/internal/bridge"
	"github.com/phpxlang/phpx/internal/config"
	"github.com/phpxlang/phpx/internal/diagnostics"
	"github.com/phpxlang/phpx/internal/modules"
	"github.com/phpxlang/phpx/internal/phpval"
	"github.com/phpxlang/phpx/internal/registry"
	"github.com/phpxlang/phpx/internal/values"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Prefix:          "phpx",
})

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorYell  = "\033[33m"
)

var colored = isatty.IsTerminal(os.Stderr.Fd())

func printDiagnostic(d *diagnostics.DiagnosticError) {
	line := d.Error()
	if colored {
		color := colorRed
		if d.Severity == diagnostics.SeverityWarning {
			color = colorYell
		}
		line = color + line + colorReset
	}
	fmt.Fprintln(os.Stderr, line)
	if d.Help != "" {
		fmt.Fprintf(os.Stderr, "  help: %s\n", d.Help)
	}
}

func newLoader() (*modules.Loader, *registry.Registry, *config.Project) {
	project, err := config.LoadProject(".")
	if err != nil {
		logger.Fatal("project config", "err", err)
	}

	reg := registry.NewRegistry()
	loader := modules.NewLoader(reg)
	loader.SetModuleRoots(project.ModuleRoots)
	loader.SetStrict(project.Strict)
	if project.SignatureCache != "" {
		cache, err := registry.OpenSignatureCache(project.SignatureCache)
		if err != nil {
			logger.Fatal("signature cache", "err", err)
		}
		loader.SetCache(cache)
	}

	for name, prog := range fixturePrograms() {
		loader.AddProgram(name, prog)
	}
	return loader, reg, project
}

// handleCheck type-checks the named modules (all fixtures without
// arguments) and prints every diagnostic.
func handleCheck(args []string) bool {
	if len(args) == 0 {
		args = fixtureNames()
	}
	loader, _, _ := newLoader()

	failed := false
	for _, name := range args {
		mod, err := loader.Load(name)
		if err != nil {
			logger.Error("load failed", "module", name, "err", err)
			failed = true
			continue
		}
		for _, d := range mod.Diagnostics {
			printDiagnostic(d)
		}
		if mod.Failed() {
			failed = true
			continue
		}
		logger.Info("ok", "module", name, "exports", len(mod.Exports))
	}
	if failed {
		os.Exit(1)
	}
	return true
}

// handleCompile compiles the named modules and prints their export
// tables with mangled references.
func handleCompile(args []string) bool {
	if len(args) == 0 {
		args = fixtureNames()
	}
	loader, _, _ := newLoader()

	failed := false
	for _, name := range args {
		mod, err := loader.Load(name)
		if err != nil {
			logger.Error("load failed", "module", name, "err", err)
			failed = true
			continue
		}
		if mod.Failed() {
			for _, d := range mod.Diagnostics {
				printDiagnostic(d)
			}
			failed = true
			continue
		}
		fmt.Printf("%s  (module %s)\n", name, mod.ID)
		for _, exportName := range sortedExports(mod) {
			sig := mod.Exports[exportName]
			fmt.Printf("  %-12s %s\n", exportName, describeSignature(sig))
		}
	}
	if failed {
		os.Exit(1)
	}
	return true
}

// handleExports compiles everything and dumps the shared registry, the
// view external tooling reads.
func handleExports() bool {
	loader, reg, _ := newLoader()

	for _, name := range fixtureNames() {
		if _, err := loader.Load(name); err != nil {
			logger.Error("load failed", "module", name, "err", err)
		}
	}

	for _, id := range reg.Modules() {
		exports, _ := reg.Exports(id)
		fmt.Println(id)
		names := make([]string, 0, len(exports))
		for name := range exports {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-12s %s\n", name, describeSignature(exports[name]))
		}
	}
	return true
}

// handleDemo evaluates app.phpx and calls its dependency through the
// bridge wrapper the way a legacy PHP caller would.
func handleDemo() bool {
	loader, reg, project := newLoader()

	answer, err := loader.RuntimeExport("app.phpx", "answer")
	if err != nil {
		logger.Fatal("demo", "err", err)
	}
	fmt.Printf("app.phpx answer = %s\n", answer.Inspect())

	math, err := loader.Load("math.phpx")
	if err != nil {
		logger.Fatal("demo", "err", err)
	}
	sig, _ := reg.Lookup(math.ID, "add")

	converter := bridge.NewConverter(math.Structs)
	converter.EmitObjects = project.EmitStdClass
	export, err := converter.EmitExport(sig, func(args []values.Value) (values.Value, error) {
		a := args[0].(*values.Integer)
		b := args[1].(*values.Integer)
		return &values.Integer{Value: a.Value + b.Value}, nil
	})
	if err != nil {
		logger.Fatal("demo", "err", err)
	}

	out, err := export.Wrapper([]phpval.Value{
		&phpval.Int{Value: 20},
		&phpval.Int{Value: 22},
	})
	if err != nil {
		logger.Fatal("demo", "err", err)
	}
	fmt.Printf("legacy add(20, 22) = %s\n", out.Inspect())
	return true
}

func sortedExports(mod *modules.CompiledModule) []string {
	names := make([]string, 0, len(mod.Exports))
	for name := range mod.Exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func describeSignature(sig registry.ExportSignature) string {
	params := ""
	for i, p := range sig.Params {
		if i > 0 {
			params += ", "
		}
		params += p.String()
	}
	ret := "void"
	if sig.Return != nil {
		ret = sig.Return.String()
	}
	return fmt.Sprintf("(%s): %s  -> %s", params, ret, sig.RawRef)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [modules...]

Commands:
  check     type-check modules and print diagnostics
  compile   compile modules and print their export tables
  exports   dump the module registry
  demo      evaluate app.phpx and call math.phpx through the bridge

Without module arguments, commands run over the built-in fixtures:
  %v
`, os.Args[0], fixtureNames())
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check":
		handleCheck(os.Args[2:])
	case "compile":
		handleCompile(os.Args[2:])
	case "exports":
		handleExports()
	case "demo":
		handleDemo()
	case "help", "-help", "--help":
		usage()
	default:
		logger.Error("unknown command", "command", os.Args[1])
		usage()
		os.Exit(1)
	}
}
