// Package diagnostics defines the diagnostic model shared by the type
// checker, the module compiler and the bridge. Diagnostics are collected,
// never thrown: each stage appends to its batch and the pipeline decides
// whether error-severity entries block the next stage.
package diagnostics

import (
	"fmt"

	"github.com/phpxlang/phpx/internal/token"
)

// Severity of a diagnostic. Errors block compilation of the module they
// belong to; warnings do not.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// ErrorCode is the stable machine-readable tag of a diagnostic. Formatting
// layers and the LSP match on codes, never on message text.
type ErrorCode string

const (
	ErrDuplicateDeclaration    ErrorCode = "DuplicateDeclaration"
	ErrBuiltinShadowed         ErrorCode = "BuiltinShadowed"
	ErrCircularAlias           ErrorCode = "CircularAlias"
	ErrInvalidDotAccess        ErrorCode = "InvalidDotAccess"
	ErrTypeMismatch            ErrorCode = "TypeMismatch"
	ErrConstraintNotSatisfied  ErrorCode = "ConstraintNotSatisfied"
	ErrNonExhaustiveMatch      ErrorCode = "NonExhaustiveMatch"
	ErrPayloadArityMismatch    ErrorCode = "PayloadArityMismatch"
	ErrDuplicateField          ErrorCode = "DuplicateField"
	ErrUnusedImport            ErrorCode = "UnusedImport"
	ErrCircularImport          ErrorCode = "CircularImport"
	ErrBridgeCoercion          ErrorCode = "BridgeCoercionError"
	ErrNotDottable             ErrorCode = "NotDottable"
	ErrUnknownName             ErrorCode = "UnknownName"
	ErrMissingField            ErrorCode = "MissingField"
	ErrDuplicateKey            ErrorCode = "DuplicateKey"
	ErrArityMismatch           ErrorCode = "ArityMismatch"
	ErrLegacyConstructRejected ErrorCode = "LegacyConstructRejected"
	ErrNullRejected            ErrorCode = "NullRejected"
	ErrMissingReturn           ErrorCode = "MissingReturn"
	WarnUnusedGenericParam     ErrorCode = "UnusedGenericParam"
)

type template struct {
	format   string
	help     string
	severity Severity
}

var templates = map[ErrorCode]template{
	ErrDuplicateDeclaration: {
		format: "duplicate declaration of '%s'",
		help:   "rename one of the declarations; top-level names must be unique within a module",
	},
	ErrBuiltinShadowed: {
		format: "'%s' is a built-in name",
		help:   "Option, Result and their constructors cannot be redeclared",
	},
	ErrCircularAlias: {
		format: "type alias '%s' is circular",
		help:   "break the cycle by pointing one alias at a concrete type",
	},
	ErrInvalidDotAccess: {
		format: "dot access on value of type '%s'",
		help:   "only struct and object-literal values support '.' access",
	},
	ErrTypeMismatch: {
		format: "type mismatch: expected '%s', got '%s'",
		help:   "only int widens to float implicitly; construct other types explicitly",
	},
	ErrConstraintNotSatisfied: {
		format: "type '%s' does not satisfy constraint '%s': missing method '%s'",
		help:   "implement the missing method with the signature the interface declares",
	},
	ErrNonExhaustiveMatch: {
		format: "match on enum '%s' is not exhaustive: missing %s",
		help:   "add arms for the missing variants or a '_' catch-all",
	},
	ErrPayloadArityMismatch: {
		format: "variant '%s' carries %d payload value(s), pattern destructures %d",
		help:   "match the destructure arity to the variant declaration",
	},
	ErrDuplicateField: {
		format: "duplicate field '%s' in struct '%s'",
		help:   "composed structs must not promote fields with colliding names",
	},
	ErrUnusedImport: {
		format: "imported name '%s' is never used",
		help:   "remove the import; unused imports are errors in PHPX",
	},
	ErrCircularImport: {
		format: "circular re-export involving module '%s'",
		help:   "a re-export chain must terminate in a concrete declaration",
	},
	ErrBridgeCoercion: {
		format: "cannot coerce legacy value: %s",
		help:   "the legacy caller must supply every required field of the PHPX type",
	},
	ErrNotDottable: {
		format: "value of kind '%s' has no members",
	},
	ErrUnknownName: {
		format: "unknown name '%s'",
		help:   "declare it first or import it from another module",
	},
	ErrDuplicateKey: {
		format: "duplicate key '%s' in object literal",
	},
	ErrMissingField: {
		format: "struct literal '%s' is missing required field '%s'",
		help:   "supply the field or declare a default on the struct",
	},
	ErrArityMismatch: {
		format: "'%s' expects %d argument(s), got %d",
	},
	ErrLegacyConstructRejected: {
		format: "'%s' is not supported in PHPX",
		help:   "PHPX has structs and enums instead of classes, traits and inheritance",
	},
	ErrNullRejected: {
		format: "'null' is not a PHPX value",
		help:   "use Option<T> with None to express absence",
	},
	ErrMissingReturn: {
		format: "function '%s' declares return type '%s' but not all paths return",
	},
	WarnUnusedGenericParam: {
		format:   "generic parameter '%s' is declared but never used",
		severity: SeverityWarning,
	},
}

// DiagnosticError is one diagnostic: a stable code, the source position of
// the offending token, a human-readable message and an optional suggestion.
type DiagnosticError struct {
	Code     ErrorCode
	Token    token.Token
	File     string
	Message  string
	Help     string
	Severity Severity
}

func (e *DiagnosticError) Error() string {
	file := e.File
	if file == "" {
		file = e.Token.File
	}
	if file != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s [%s]", file, e.Token.Line, e.Token.Column, e.Severity, e.Message, e.Code)
	}
	return fmt.Sprintf("%d:%d: %s: %s [%s]", e.Token.Line, e.Token.Column, e.Severity, e.Message, e.Code)
}

// NewError builds a diagnostic from a registered code, filling message,
// help and severity from the code's template. Unregistered codes produce a
// generic error-severity diagnostic so a missing template never panics.
func NewError(code ErrorCode, tok token.Token, args ...interface{}) *DiagnosticError {
	tpl, ok := templates[code]
	if !ok {
		return &DiagnosticError{
			Code:     code,
			Token:    tok,
			File:     tok.File,
			Message:  fmt.Sprint(args...),
			Severity: SeverityError,
		}
	}
	return &DiagnosticError{
		Code:     code,
		Token:    tok,
		File:     tok.File,
		Message:  fmt.Sprintf(tpl.format, args...),
		Help:     tpl.help,
		Severity: tpl.severity,
	}
}

// HasErrors reports whether any diagnostic in the batch is error-severity.
func HasErrors(diags []*DiagnosticError) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
