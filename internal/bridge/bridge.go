// Package bridge converts values across the PHP↔PHPX boundary. Every
// export carries two callables: the raw implementation used for
// PHPX-to-PHPX calls with no conversion, and a wrapper visible to
// legacy PHP that coerces arguments and results strictly against the
// export's declared signature. Coercion failures come back as error
// values; the bridge never panics into the host.
package bridge

import (
	"fmt"

	"github.com/phpxlang/phpx/internal/phpval"
	"github.com/phpxlang/phpx/internal/registry"
	"github.com/phpxlang/phpx/internal/symbols"
	"github.com/phpxlang/phpx/internal/typesystem"
	"github.com/phpxlang/phpx/internal/values"
)

// RawFunc is the unconverted implementation of an export.
type RawFunc func(args []values.Value) (values.Value, error)

// WrapperFunc is the legacy-facing callable; everything it touches is a
// PHP value.
type WrapperFunc func(args []phpval.Value) (phpval.Value, error)

// Export pairs the two call paths of one exported function.
type Export struct {
	Name    string
	Raw     RawFunc
	Wrapper WrapperFunc
}

// CoercionError reports a boundary conversion failure. Path locates the
// parameter or field that failed.
type CoercionError struct {
	Path    string
	Message string
}

func (e *CoercionError) Error() string {
	if e.Path == "" {
		return "bridge: " + e.Message
	}
	return "bridge: " + e.Path + ": " + e.Message
}

func coerceErrf(path, format string, args ...interface{}) *CoercionError {
	return &CoercionError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Converter coerces values against the declaration tables of the module
// whose exports it wraps. EmitObjects selects stdClass over associative
// arrays for outbound structs and shapes.
type Converter struct {
	structs     map[string]*symbols.StructInfo
	EmitObjects bool
}

func NewConverter(structs map[string]*symbols.StructInfo) *Converter {
	if structs == nil {
		structs = make(map[string]*symbols.StructInfo)
	}
	return &Converter{structs: structs}
}

// EmitExport builds the raw/wrapper pair for one signature. Result is
// not accepted as a parameter type from legacy callers, so a signature
// carrying one is rejected here rather than at call time.
func (c *Converter) EmitExport(sig registry.ExportSignature, raw RawFunc) (Export, error) {
	for i, p := range sig.Params {
		if _, _, isResult := typesystem.AsResult(p); isResult {
			return Export{}, coerceErrf(paramPath(sig.Name, i), "Result parameters are not callable from legacy PHP")
		}
	}

	wrapper := func(args []phpval.Value) (phpval.Value, error) {
		// Defaulted parameters may be omitted; the implementation
		// fills them in.
		if len(args) < sig.Required || len(args) > len(sig.Params) {
			want := fmt.Sprintf("%d", len(sig.Params))
			if sig.Required < len(sig.Params) {
				want = fmt.Sprintf("%d to %d", sig.Required, len(sig.Params))
			}
			return &phpval.Null{}, coerceErrf(sig.Name, "expected %s arguments, got %d", want, len(args))
		}
		coerced := make([]values.Value, len(args))
		for i, arg := range args {
			v, err := c.In(arg, sig.Params[i], paramPath(sig.Name, i))
			if err != nil {
				return &phpval.Null{}, err
			}
			coerced[i] = v
		}
		out, err := raw(coerced)
		if err != nil {
			return &phpval.Null{}, err
		}
		return c.Out(out, sig.Return)
	}

	return Export{Name: sig.Name, Raw: raw, Wrapper: wrapper}, nil
}

func paramPath(fn string, i int) string {
	return fmt.Sprintf("%s(arg %d)", fn, i+1)
}
