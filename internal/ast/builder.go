package ast

import (
	"kestrel/internal/source"
)

// Builder allocates nodes with monotonically increasing NodeIDs. One Builder
// serves one compilation unit; IDs start at 1 so NoNodeID never names a node.
type Builder struct {
	next NodeID
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) base(sp source.Span) base {
	b.next++
	return base{id: b.next, span: sp}
}

// Count reports how many nodes were allocated so far.
func (b *Builder) Count() int {
	return int(b.next)
}

func (b *Builder) Program(sp source.Span, decls ...Decl) *Program {
	return &Program{base: b.base(sp), Decls: decls}
}

func (b *Builder) Func(sp source.Span, name string, params []*Param, result *TypeExpr, body *Block) *FuncDecl {
	return &FuncDecl{base: b.base(sp), Name: name, Params: params, Result: result, Body: body}
}

func (b *Builder) Param(sp source.Span, name string, typ *TypeExpr) *Param {
	return &Param{base: b.base(sp), Name: name, Type: typ}
}

func (b *Builder) Type(sp source.Span, name string) *TypeExpr {
	return &TypeExpr{base: b.base(sp), Name: name}
}

func (b *Builder) Var(sp source.Span, name string, typ *TypeExpr, init Expr) *VarDecl {
	return &VarDecl{base: b.base(sp), Name: name, Type: typ, Init: init}
}

func (b *Builder) Block(sp source.Span, stmts ...Stmt) *Block {
	return &Block{base: b.base(sp), Stmts: stmts}
}

func (b *Builder) If(sp source.Span, cond Expr, then *Block, els Stmt) *IfStmt {
	return &IfStmt{base: b.base(sp), Cond: cond, Then: then, Else: els}
}

func (b *Builder) While(sp source.Span, cond Expr, body *Block) *WhileStmt {
	return &WhileStmt{base: b.base(sp), Cond: cond, Body: body}
}

func (b *Builder) Return(sp source.Span, value Expr) *ReturnStmt {
	return &ReturnStmt{base: b.base(sp), Value: value}
}

func (b *Builder) Assign(sp source.Span, target *Ident, value Expr) *AssignStmt {
	return &AssignStmt{base: b.base(sp), Target: target, Value: value}
}

func (b *Builder) ExprStmt(sp source.Span, x Expr) *ExprStmt {
	return &ExprStmt{base: b.base(sp), X: x}
}

func (b *Builder) Binary(sp source.Span, op BinaryOp, left, right Expr) *BinaryExpr {
	return &BinaryExpr{base: b.base(sp), Op: op, Left: left, Right: right}
}

func (b *Builder) Unary(sp source.Span, op UnaryOp, x Expr) *UnaryExpr {
	return &UnaryExpr{base: b.base(sp), Op: op, X: x}
}

func (b *Builder) Call(sp source.Span, callee Expr, args ...Expr) *CallExpr {
	return &CallExpr{base: b.base(sp), Callee: callee, Args: args}
}

func (b *Builder) Ident(sp source.Span, name string) *Ident {
	return &Ident{base: b.base(sp), Name: name}
}

func (b *Builder) Int(sp source.Span, v int64) *Literal {
	return &Literal{base: b.base(sp), Kind: LitInt, Int: v}
}

func (b *Builder) Float(sp source.Span, v float64) *Literal {
	return &Literal{base: b.base(sp), Kind: LitFloat, Float: v}
}

func (b *Builder) Bool(sp source.Span, v bool) *Literal {
	return &Literal{base: b.base(sp), Kind: LitBool, Bool: v}
}

func (b *Builder) Str(sp source.Span, v string) *Literal {
	return &Literal{base: b.base(sp), Kind: LitString, Str: v}
}

func (b *Builder) Unit(sp source.Span) *Literal {
	return &Literal{base: b.base(sp), Kind: LitUnit}
}
