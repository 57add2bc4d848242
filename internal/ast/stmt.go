package ast

type (
	// Block is a braced statement list.
	Block struct {
		base
		Stmts []Stmt
	}

	// VarDecl is `let name[: T] [= init];`. At top level it declares a global.
	VarDecl struct {
		base
		Name string
		Type *TypeExpr
		Init Expr
	}

	// IfStmt has an optional Else that is either *Block or *IfStmt.
	IfStmt struct {
		base
		Cond Expr
		Then *Block
		Else Stmt
	}

	WhileStmt struct {
		base
		Cond Expr
		Body *Block
	}

	// ReturnStmt carries a nil Value for a bare `return;`.
	ReturnStmt struct {
		base
		Value Expr
	}

	AssignStmt struct {
		base
		Target *Ident
		Value  Expr
	}

	ExprStmt struct {
		base
		X Expr
	}
)

func (*Block) stmtNode()      {}
func (*VarDecl) stmtNode()    {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*ReturnStmt) stmtNode() {}
func (*AssignStmt) stmtNode() {}
func (*ExprStmt) stmtNode()   {}

func (*VarDecl) declNode() {}
