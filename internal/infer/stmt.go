package infer

import (
	"kestrel/internal/ast"
	"kestrel/internal/types"
)

func (e *Engine) inferStmt(st ast.Stmt) {
	switch st := st.(type) {
	case *ast.VarDecl:
		e.inferLocal(st)
	case *ast.Block:
		e.push()
		for _, s := range st.Stmts {
			e.inferStmt(s)
		}
		e.pop()
		e.record(st, types.Unit)
	case *ast.IfStmt:
		e.inferCond(st.Cond)
		e.inferStmt(st.Then)
		if st.Else != nil {
			e.inferStmt(st.Else)
		}
		e.record(st, types.Unit)
	case *ast.WhileStmt:
		e.inferCond(st.Cond)
		e.inferStmt(st.Body)
		e.record(st, types.Unit)
	case *ast.ReturnStmt:
		e.inferReturn(st)
	case *ast.AssignStmt:
		vt := e.inferExpr(st.Value)
		tt := e.inferExpr(st.Target)
		if e.constraint() {
			e.unify(st.Value, tt, vt)
		}
		e.record(st, types.Unit)
	case *ast.ExprStmt:
		e.record(st, e.inferExpr(st.X))
	}
}

// inferLocal: аннотация важнее инициализатора; без обоих - свежая переменная.
func (e *Engine) inferLocal(v *ast.VarDecl) {
	var t types.Type
	switch {
	case v.Type != nil && v.Init != nil:
		t = e.annotated(v.Type)
		it := e.inferExpr(v.Init)
		if e.constraint() {
			e.unify(v.Init, t, it)
		}
	case v.Type != nil:
		t = e.annotated(v.Type)
	case v.Init != nil:
		t = e.inferExpr(v.Init)
	default:
		t = e.Fresh()
	}
	// имя связывается после инициализатора: `let x = x + 1` видит внешний x
	e.bind(v.Name, t)
	e.record(v, t)
}

func (e *Engine) inferCond(cond ast.Expr) {
	t := e.inferExpr(cond)
	if e.constraint() {
		e.unify(cond, types.Bool, t)
	}
}

func (e *Engine) inferReturn(st *ast.ReturnStmt) {
	t := types.Unit
	if st.Value != nil {
		t = e.inferExpr(st.Value)
	}
	e.record(st, t)
	if !e.constraint() || e.fn == nil {
		return
	}
	if st.Value != nil {
		e.fn.sawValueRet = true
		e.unify(st.Value, e.fn.ret, t)
		return
	}
	e.unify(st, e.fn.ret, types.Unit)
}
