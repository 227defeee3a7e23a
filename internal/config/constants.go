package config

// SourceFileExt is appended to extension-less import paths during
// module resolution.
const SourceFileExt = ".phpx"

// Built-in type names
const (
	OptionTypeName = "Option"
	ResultTypeName = "Result"
	SomeCtorName   = "Some"
	NoneCtorName   = "None"
	OkCtorName     = "Ok"
	ErrCtorName    = "Err"
)

// Primitive type names as they appear in PHPX annotations.
const (
	IntTypeName    = "int"
	FloatTypeName  = "float"
	BoolTypeName   = "bool"
	StringTypeName = "string"
	VoidTypeName   = "void"
)
