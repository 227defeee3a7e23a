package ast

import (
	"github.com/phpxlang/phpx/internal/token"
)

// Identifier is a bare name in expression or declaration position.
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()       {}
func (i *Identifier) TokenLiteral() string  { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token { return i.Token }

// Variable is a $-sigiled binding reference.
type Variable struct {
	Token token.Token
	Name  string // without the $ sigil
}

func (v *Variable) expressionNode()       {}
func (v *Variable) TokenLiteral() string  { return v.Token.Lexeme }
func (v *Variable) GetToken() token.Token { return v.Token }

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (l *IntegerLiteral) expressionNode()       {}
func (l *IntegerLiteral) TokenLiteral() string  { return l.Token.Lexeme }
func (l *IntegerLiteral) GetToken() token.Token { return l.Token }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (l *FloatLiteral) expressionNode()       {}
func (l *FloatLiteral) TokenLiteral() string  { return l.Token.Lexeme }
func (l *FloatLiteral) GetToken() token.Token { return l.Token }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (l *StringLiteral) expressionNode()       {}
func (l *StringLiteral) TokenLiteral() string  { return l.Token.Lexeme }
func (l *StringLiteral) GetToken() token.Token { return l.Token }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (l *BooleanLiteral) expressionNode()       {}
func (l *BooleanLiteral) TokenLiteral() string  { return l.Token.Lexeme }
func (l *BooleanLiteral) GetToken() token.Token { return l.Token }

// NullLiteral only exists so the checker can reject it with a pointer at
// Option<T>; PHPX has no null value.
type NullLiteral struct {
	Token token.Token
}

func (l *NullLiteral) expressionNode()       {}
func (l *NullLiteral) TokenLiteral() string  { return l.Token.Lexeme }
func (l *NullLiteral) GetToken() token.Token { return l.Token }

// ObjectField is one `key: value` entry of an object or struct literal.
// Shorthand `{$x}` arrives with Shorthand set and Value pointing at the
// variable; the adapter expands it before checking.
type ObjectField struct {
	Token     token.Token // the key token (identifier or quoted string)
	Key       string
	Value     Expression
	Shorthand bool
}

// ObjectLiteral is a structural record literal: `{a: 1, "b c": 2}`.
// Keys are identifiers or quoted strings; the shared parser never produces
// computed keys in PHPX mode.
type ObjectLiteral struct {
	Token  token.Token
	Fields []*ObjectField
}

func (o *ObjectLiteral) expressionNode()       {}
func (o *ObjectLiteral) TokenLiteral() string  { return o.Token.Lexeme }
func (o *ObjectLiteral) GetToken() token.Token { return o.Token }

// StructLiteral is a nominal construction: `Point { $x: 1, $y: 2 }`.
type StructLiteral struct {
	Token  token.Token
	Name   *Identifier
	Fields []*ObjectField
}

func (s *StructLiteral) expressionNode()       {}
func (s *StructLiteral) TokenLiteral() string  { return s.Token.Lexeme }
func (s *StructLiteral) GetToken() token.Token { return s.Token }

// DotAccess is `expr.member`. Tight records the lexical no-whitespace rule:
// the shared parser only emits member access when the dot touches both
// sides and the RHS is a bare identifier. A non-tight dot never reaches
// the checker as DotAccess.
type DotAccess struct {
	Token  token.Token // the '.' token
	Left   Expression
	Member *Identifier
	Tight  bool
}

func (d *DotAccess) expressionNode()       {}
func (d *DotAccess) TokenLiteral() string  { return d.Token.Lexeme }
func (d *DotAccess) GetToken() token.Token { return d.Token }

// ScopeResolution is `Enum::Case`, the value or constructor reference form.
type ScopeResolution struct {
	Token  token.Token // the '::' token
	Left   *Identifier
	Member *Identifier
}

func (s *ScopeResolution) expressionNode()       {}
func (s *ScopeResolution) TokenLiteral() string  { return s.Token.Lexeme }
func (s *ScopeResolution) GetToken() token.Token { return s.Token }

// CallExpression is `callee(args)` with optional explicit type arguments:
// `id<string>("x")`.
type CallExpression struct {
	Token    token.Token
	Callee   Expression
	TypeArgs []TypeExpr
	Args     []Expression
}

func (c *CallExpression) expressionNode()       {}
func (c *CallExpression) TokenLiteral() string  { return c.Token.Lexeme }
func (c *CallExpression) GetToken() token.Token { return c.Token }

type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (e *InfixExpression) expressionNode()       {}
func (e *InfixExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *InfixExpression) GetToken() token.Token { return e.Token }

type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Expression
}

func (e *PrefixExpression) expressionNode()       {}
func (e *PrefixExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *PrefixExpression) GetToken() token.Token { return e.Token }

// AssignExpression is `target = value`; target is a Variable or DotAccess.
type AssignExpression struct {
	Token token.Token
	Left  Expression
	Value Expression
}

func (e *AssignExpression) expressionNode()       {}
func (e *AssignExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *AssignExpression) GetToken() token.Token { return e.Token }

// IssetExpression is `isset($x)` / `isset($o.field)`.
type IssetExpression struct {
	Token  token.Token
	Target Expression
}

func (e *IssetExpression) expressionNode()       {}
func (e *IssetExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *IssetExpression) GetToken() token.Token { return e.Token }

// MatchPattern is one arm's pattern. Either CatchAll, or an enum case
// (Enum may be empty for bare builtin constructors like Some/None), with
// Bindings destructuring the payload.
type MatchPattern struct {
	Token    token.Token
	Enum     string
	Case     string
	Bindings []*Variable
	CatchAll bool
}

// MatchArm is `Pattern [if guard] => body`.
type MatchArm struct {
	Token   token.Token
	Pattern *MatchPattern
	Guard   Expression
	Body    Expression
}

// MatchExpression is `match (subject) { arms }`.
type MatchExpression struct {
	Token   token.Token
	Subject Expression
	Arms    []*MatchArm
}

func (m *MatchExpression) expressionNode()       {}
func (m *MatchExpression) TokenLiteral() string  { return m.Token.Lexeme }
func (m *MatchExpression) GetToken() token.Token { return m.Token }
