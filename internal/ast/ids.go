package ast

import "kestrel/internal/source"

// NodeID identifies a node within one compilation unit. It is the key for
// per-node side tables such as inferred types.
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

// Node is implemented by every AST node.
type Node interface {
	ID() NodeID
	Span() source.Span
}

type (
	// Expr is any expression node.
	Expr interface {
		Node
		exprNode()
	}
	// Stmt is any statement node.
	Stmt interface {
		Node
		stmtNode()
	}
	// Decl is any top-level declaration.
	Decl interface {
		Node
		declNode()
	}
)

type base struct {
	id   NodeID
	span source.Span
}

func (b *base) ID() NodeID        { return b.id }
func (b *base) Span() source.Span { return b.span }
