package ast

import (
	"github.com/phpxlang/phpx/internal/token"
)

// TypeExpr is a type annotation as written in source.
type TypeExpr interface {
	Node
	typeExprNode()
	GetToken() token.Token
}

// TypeRef names a type, optionally applied: `int`, `Option<string>`,
// `Point`. Nullable records a leading `?`, which PHPX rejects; it exists
// only so the checker can point at Option<T> instead.
type TypeRef struct {
	Token    token.Token
	Name     string
	Args     []TypeExpr
	Nullable bool
}

func (t *TypeRef) typeExprNode()         {}
func (t *TypeRef) TokenLiteral() string  { return t.Token.Lexeme }
func (t *TypeRef) GetToken() token.Token { return t.Token }

// ShapeField is one entry of an object-shape annotation.
type ShapeField struct {
	Token    token.Token
	Name     string
	Type     TypeExpr
	Optional bool
}

// ShapeType is a structural annotation: `{a: int, b?: string}`.
type ShapeType struct {
	Token  token.Token
	Fields []*ShapeField
}

func (t *ShapeType) typeExprNode()         {}
func (t *ShapeType) TokenLiteral() string  { return t.Token.Lexeme }
func (t *ShapeType) GetToken() token.Token { return t.Token }
