package ast

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// each node. When f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Program:
		for _, d := range n.Decls {
			Inspect(d, f)
		}
	case *FuncDecl:
		for _, p := range n.Params {
			Inspect(p, f)
		}
		if n.Result != nil {
			Inspect(n.Result, f)
		}
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *Param:
		if n.Type != nil {
			Inspect(n.Type, f)
		}
	case *VarDecl:
		if n.Type != nil {
			Inspect(n.Type, f)
		}
		if n.Init != nil {
			Inspect(n.Init, f)
		}
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *IfStmt:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *WhileStmt:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
	case *ReturnStmt:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *AssignStmt:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *ExprStmt:
		Inspect(n.X, f)
	case *BinaryExpr:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *UnaryExpr:
		Inspect(n.X, f)
	case *CallExpr:
		Inspect(n.Callee, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	}
}
