// Package ast defines the abstract syntax tree for phplite scripts.
package ast

import (
	"phplite/internal/span"
	"phplite/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Program (top-level AST root)
// ============================================================

// Program represents an entire script: an ordered sequence of inline text
// and statements, exactly as they appear in the source.
type Program struct {
	NodeBase
	Filename string
	Body     []Stmt
}

// ============================================================
// Expressions
// ============================================================

// IntLit represents an integer literal.
type IntLit struct {
	ExprBase
	Value int64
}

// FloatLit represents a floating-point literal.
type FloatLit struct {
	ExprBase
	Value float64
}

// StringLit represents a single- or double-quoted string literal.
type StringLit struct {
	ExprBase
	Value string
}

// BoolLit represents true or false.
type BoolLit struct {
	ExprBase
	Value bool
}

// NullLit represents null.
type NullLit struct {
	ExprBase
}

// VarExpr represents a variable reference: $name.
// Name holds the variable name without the sigil.
type VarExpr struct {
	ExprBase
	Name string
}

// VarVarExpr represents a variable-variable: $$name or $$$name.
// Name evaluates to the name of the variable to access.
type VarVarExpr struct {
	ExprBase
	Name Expr
}

// IdentExpr represents a bare identifier used as an expression
// (an undefined-constant reference in the interpreted language).
type IdentExpr struct {
	ExprBase
	Name string
}

// AssignExpr represents plain or compound assignment: $a = e, $a += e, ...
// Op is token.ASSIGN or one of the compound assignment kinds.
type AssignExpr struct {
	ExprBase
	Target Expr
	Op     token.Kind
	Value  Expr
}

// RefAssignExpr represents reference assignment: $a = &$b.
type RefAssignExpr struct {
	ExprBase
	Target Expr
	Source Expr
}

// BinaryExpr represents a binary operation: a + b, x == y, s . t.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// UnaryExpr represents a unary operation: !x, -x, +x, ~x.
type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// InstanceofExpr represents: left instanceof Class.
// Class is an IdentExpr for the usual literal form, or any expression
// for the dynamic form ($a instanceof $b).
type InstanceofExpr struct {
	ExprBase
	Left  Expr
	Class Expr
}

// SuppressExpr represents error suppression: @expr.
type SuppressExpr struct {
	ExprBase
	Operand Expr
}

// IssetExpr represents: isset($a, $b, ...).
type IssetExpr struct {
	ExprBase
	Vars []Expr
}

// EmptyExpr represents: empty($a).
type EmptyExpr struct {
	ExprBase
	Var Expr
}

// UnsetExpr represents: unset($a, $b, ...).
type UnsetExpr struct {
	ExprBase
	Vars []Expr
}

// PrintExpr represents: print expr.
type PrintExpr struct {
	ExprBase
	Value Expr
}

// ExitExpr represents die/exit with an optional status or message argument.
type ExitExpr struct {
	ExprBase
	Value Expr // may be nil
}

// IncludeMode selects between the four include/require forms.
type IncludeMode int

const (
	IncInclude IncludeMode = iota
	IncIncludeOnce
	IncRequire
	IncRequireOnce
)

func (m IncludeMode) String() string {
	switch m {
	case IncInclude:
		return "include"
	case IncIncludeOnce:
		return "include_once"
	case IncRequire:
		return "require"
	case IncRequireOnce:
		return "require_once"
	default:
		return "include"
	}
}

// IsRequire reports whether a resolution failure is fatal for this mode.
func (m IncludeMode) IsRequire() bool {
	return m == IncRequire || m == IncRequireOnce
}

// IsOnce reports whether repeat targets are skipped for this mode.
func (m IncludeMode) IsOnce() bool {
	return m == IncIncludeOnce || m == IncRequireOnce
}

// IncludeExpr represents include/include_once/require/require_once.
type IncludeExpr struct {
	ExprBase
	Mode IncludeMode
	Path Expr
}

// Arg represents one constructor argument, positional or named.
type Arg struct {
	Span  span.Span
	Name  string // empty for positional arguments
	Value Expr
}

// NewExpr represents object creation: new ClassName(args).
type NewExpr struct {
	ExprBase
	ClassName string
	Args      []*Arg
}

// PropFetchExpr represents property access: $obj->prop.
type PropFetchExpr struct {
	ExprBase
	Object Expr
	Prop   string
}

// IndexExpr represents array indexing: $a[k]. A nil Index is the append
// form $a[], valid only as an assignment target.
type IndexExpr struct {
	ExprBase
	Object Expr
	Index  Expr
}

// ArrayEntry is one element of an array literal. A nil Key means the
// next free integer index is used.
type ArrayEntry struct {
	Key   Expr
	Value Expr
}

// ArrayLit represents an array literal: [v, k => v, ...].
type ArrayLit struct {
	ExprBase
	Entries []ArrayEntry
}

// CallExpr represents a function call: name(args). The interpreter only
// dispatches to native functions; anything else is an undefined function.
type CallExpr struct {
	ExprBase
	Name string
	Args []Expr
}

// ============================================================
// Statements
// ============================================================

// InlineHTMLStmt is raw text outside the language's tags,
// emitted verbatim to output.
type InlineHTMLStmt struct {
	StmtBase
	Text string
}

// ExprStmt wraps an expression executed for its side effects only.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// EchoStmt represents: echo e1, e2, ...  (also produced by <?= ... ?>).
type EchoStmt struct {
	StmtBase
	Values []Expr
}

// ReturnStmt represents a return statement inside a constructor body.
type ReturnStmt struct {
	StmtBase
	Value Expr // may be nil
}

// ============================================================
// Declarations
// ============================================================

// ClassDeclStmt represents a class declaration.
type ClassDeclStmt struct {
	StmtBase
	Name     string
	Abstract bool
	Extends  string // may be empty if no extends
	Props    []*PropDecl
	Ctor     *CtorDecl // may be nil
}

// PropDecl represents a property declaration inside a class body.
type PropDecl struct {
	Span      span.Span
	Modifiers []string
	Name      string // without the sigil
	Default   Expr   // may be nil
}

// CtorDecl represents the __construct declaration inside a class.
type CtorDecl struct {
	Span   span.Span
	Params []*ParamDecl
	Body   []Stmt
}

// ParamDecl represents one constructor parameter. A parameter carrying any
// modifier is promoted: it doubles as a property of the new instance.
type ParamDecl struct {
	Span      span.Span
	Modifiers []string
	Type      string // lowercased type hint, empty if untyped
	Name      string // without the sigil
	Default   Expr   // may be nil
}

// Promoted reports whether the parameter declares a promoted property.
func (p *ParamDecl) Promoted() bool {
	return len(p.Modifiers) > 0
}
