package token

import "fmt"

// Type identifies the lexical class of a token as tagged by the shared
// lexer. The PHPX core never re-lexes source text; tokens arrive attached
// to AST nodes and are kept for error reporting and for the tight-dot rule.
type Type string

const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	IDENT    Type = "IDENT"    // foo, Point
	VARIABLE Type = "VARIABLE" // $x
	INT      Type = "INT"      // 42
	FLOAT    Type = "FLOAT"    // 3.14
	STRING   Type = "STRING"   // "hello"
	BOOL     Type = "BOOL"     // true / false

	ASSIGN   Type = "="
	DOT      Type = "."
	ARROW    Type = "->"
	FATARROW Type = "=>"
	DCOLON   Type = "::"

	PLUS     Type = "+"
	MINUS    Type = "-"
	ASTERISK Type = "*"
	SLASH    Type = "/"
	PERCENT  Type = "%"
	BANG     Type = "!"

	EQ    Type = "==="
	NOTEQ Type = "!=="
	LT    Type = "<"
	GT    Type = ">"
	LE    Type = "<="
	GE    Type = ">="

	LPAREN   Type = "("
	RPAREN   Type = ")"
	LBRACE   Type = "{"
	RBRACE   Type = "}"
	LBRACKET Type = "["
	RBRACKET Type = "]"
	COMMA    Type = ","
	COLON    Type = ":"
	SEMI     Type = ";"

	STRUCT    Type = "struct"
	ENUM      Type = "enum"
	TYPE      Type = "type"
	INTERFACE Type = "interface"
	FUNCTION  Type = "function"
	MATCH     Type = "match"
	USE       Type = "use"
	IMPORT    Type = "import"
	EXPORT    Type = "export"
	CONST     Type = "const"
	RETURN    Type = "return"
	IF        Type = "if"
	ELSE      Type = "else"
	ISSET     Type = "isset"

	// Legacy PHP constructs that reach the PHPX checker only to be rejected.
	CLASS   Type = "class"
	TRAIT   Type = "trait"
	EXTENDS Type = "extends"
	NULL    Type = "null"
)

// Token is the position-carrying unit attached to every AST node.
// Line and Column are 1-based; File is the source path the shared parser
// reported for the enclosing program.
type Token struct {
	Type   Type
	Lexeme string
	File   string
	Line   int
	Column int
}

// Pos renders the token position as file:line:column for diagnostics.
func (t Token) Pos() string {
	if t.File == "" {
		return fmt.Sprintf("%d:%d", t.Line, t.Column)
	}
	return fmt.Sprintf("%s:%d:%d", t.File, t.Line, t.Column)
}
