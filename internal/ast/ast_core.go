// Package ast models the shared parser's output for PHPX-mode programs and
// provides the typed views the rest of the core consumes. The shared
// lexer/parser is an external collaborator: this package never tokenizes
// source text, it only describes what arrives.
package ast

import (
	"github.com/phpxlang/phpx/internal/token"
)

// Mode tags a parsed program with the dialect the shared parser used.
type Mode int

const (
	ModePHP Mode = iota
	ModePHPX
)

// TokenProvider is implemented by any node that can report its primary
// token, used for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
}

// Statement is a Node in statement position.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Expression is a Node in expression position.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// Program is one parsed source file as delivered by the shared parser.
type Program struct {
	File       string
	Mode       Mode
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// StructField is one declared field of a struct: `$x: int = 0;`.
type StructField struct {
	Token   token.Token // the field's variable token
	Name    string      // without the $ sigil
	Type    TypeExpr
	Default Expression // nil when the field has no default
}

// StructDeclaration declares a nominal value type.
//
//	struct Point { $x: int = 0; $y: int = 0; use Base; }
type StructDeclaration struct {
	Token    token.Token // the 'struct' token
	Name     *Identifier
	Fields   []*StructField
	Uses     []*Identifier          // embedded structs, promoted fields
	Methods  []*FunctionDeclaration // methods declared in the struct body
	Exported bool
}

func (s *StructDeclaration) statementNode()        {}
func (s *StructDeclaration) TokenLiteral() string  { return s.Token.Lexeme }
func (s *StructDeclaration) GetToken() token.Token { return s.Token }

// EnumVariant is one case of an enum, optionally payload-carrying.
type EnumVariant struct {
	Token  token.Token
	Name   string
	Params []TypeExpr // payload types; empty for unit variants
}

// EnumDeclaration declares a sum type.
//
//	enum Shape { Circle(float); Rect(float, float); Empty; }
type EnumDeclaration struct {
	Token    token.Token // the 'enum' token
	Name     *Identifier
	Variants []*EnumVariant
	Exported bool
}

func (e *EnumDeclaration) statementNode()        {}
func (e *EnumDeclaration) TokenLiteral() string  { return e.Token.Lexeme }
func (e *EnumDeclaration) GetToken() token.Token { return e.Token }

// TypeAliasDeclaration declares `type Name = ...`.
type TypeAliasDeclaration struct {
	Token    token.Token // the 'type' token
	Name     *Identifier
	Aliased  TypeExpr
	Exported bool
}

func (t *TypeAliasDeclaration) statementNode()        {}
func (t *TypeAliasDeclaration) TokenLiteral() string  { return t.Token.Lexeme }
func (t *TypeAliasDeclaration) GetToken() token.Token { return t.Token }

// MethodSignature is one method shape required by an interface.
type MethodSignature struct {
	Token  token.Token
	Name   string
	Params []TypeExpr
	Return TypeExpr
}

// InterfaceDeclaration declares a structural method-set constraint.
type InterfaceDeclaration struct {
	Token    token.Token // the 'interface' token
	Name     *Identifier
	Methods  []*MethodSignature
	Exported bool
}

func (i *InterfaceDeclaration) statementNode()        {}
func (i *InterfaceDeclaration) TokenLiteral() string  { return i.Token.Lexeme }
func (i *InterfaceDeclaration) GetToken() token.Token { return i.Token }

// TypeParam is a declared generic parameter, optionally constrained:
// `function f<T: Printable>(...)`.
type TypeParam struct {
	Token      token.Token
	Name       string
	Constraint string // interface name; "" when unconstrained
}

// Param is one function parameter.
type Param struct {
	Token   token.Token // the parameter's variable token
	Name    string      // without the $ sigil
	Type    TypeExpr
	Default Expression // nil when required
}

// FunctionDeclaration declares a top-level function.
type FunctionDeclaration struct {
	Token      token.Token // the 'function' token
	Name       *Identifier
	TypeParams []*TypeParam
	Params     []*Param
	Return     TypeExpr // nil: void
	Body       *BlockStatement
	Exported   bool
}

func (f *FunctionDeclaration) statementNode()        {}
func (f *FunctionDeclaration) TokenLiteral() string  { return f.Token.Lexeme }
func (f *FunctionDeclaration) GetToken() token.Token { return f.Token }

// ImportDeclaration is `import {a, b} from 'path'`.
type ImportDeclaration struct {
	Token token.Token // the 'import' token
	Names []*Identifier
	Path  string
}

func (i *ImportDeclaration) statementNode()        {}
func (i *ImportDeclaration) TokenLiteral() string  { return i.Token.Lexeme }
func (i *ImportDeclaration) GetToken() token.Token { return i.Token }

// ExportDeclaration is `export {a, b}` or the re-export form
// `export {a} from 'other'` (From non-empty).
type ExportDeclaration struct {
	Token token.Token // the 'export' token
	Names []*Identifier
	From  string
}

func (e *ExportDeclaration) statementNode()        {}
func (e *ExportDeclaration) TokenLiteral() string  { return e.Token.Lexeme }
func (e *ExportDeclaration) GetToken() token.Token { return e.Token }

// ConstDeclaration is `const NAME: type = expr;`.
type ConstDeclaration struct {
	Token    token.Token
	Name     *Identifier
	Type     TypeExpr // nil: inferred
	Value    Expression
	Exported bool
}

func (c *ConstDeclaration) statementNode()        {}
func (c *ConstDeclaration) TokenLiteral() string  { return c.Token.Lexeme }
func (c *ConstDeclaration) GetToken() token.Token { return c.Token }

// VarDeclaration is a typed top-level or local binding: `int $x = expr;`.
type VarDeclaration struct {
	Token token.Token // the type annotation's token
	Name  *Variable
	Type  TypeExpr
	Value Expression
}

func (v *VarDeclaration) statementNode()        {}
func (v *VarDeclaration) TokenLiteral() string  { return v.Token.Lexeme }
func (v *VarDeclaration) GetToken() token.Token { return v.Token }

// LegacyDeclaration covers class/trait/interface-extends constructs the
// shared parser still recognizes in PHPX mode. The checker rejects them;
// nothing downstream ever sees one.
type LegacyDeclaration struct {
	Token token.Token // 'class', 'trait' or 'extends'
	Kind  string
	Name  *Identifier
}

func (l *LegacyDeclaration) statementNode()        {}
func (l *LegacyDeclaration) TokenLiteral() string  { return l.Token.Lexeme }
func (l *LegacyDeclaration) GetToken() token.Token { return l.Token }

// ExpressionStatement wraps an expression in statement position.
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (e *ExpressionStatement) statementNode()        {}
func (e *ExpressionStatement) TokenLiteral() string  { return e.Token.Lexeme }
func (e *ExpressionStatement) GetToken() token.Token { return e.Token }

// ReturnStatement is `return expr;` (Value nil for bare return).
type ReturnStatement struct {
	Token token.Token
	Value Expression
}

func (r *ReturnStatement) statementNode()        {}
func (r *ReturnStatement) TokenLiteral() string  { return r.Token.Lexeme }
func (r *ReturnStatement) GetToken() token.Token { return r.Token }

// BlockStatement is a braced statement list.
type BlockStatement struct {
	Token      token.Token
	Statements []Statement
}

func (b *BlockStatement) statementNode()        {}
func (b *BlockStatement) TokenLiteral() string  { return b.Token.Lexeme }
func (b *BlockStatement) GetToken() token.Token { return b.Token }

// IfStatement with optional else (either *BlockStatement or *IfStatement).
type IfStatement struct {
	Token     token.Token
	Condition Expression
	Then      *BlockStatement
	Else      Statement
}

func (i *IfStatement) statementNode()        {}
func (i *IfStatement) TokenLiteral() string  { return i.Token.Lexeme }
func (i *IfStatement) GetToken() token.Token { return i.Token }
