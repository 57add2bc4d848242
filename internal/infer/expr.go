package infer

import (
	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/types"
)

func (e *Engine) inferExpr(x ast.Expr) types.Type {
	switch x := x.(type) {
	case *ast.Literal:
		return e.record(x, literalType(x))
	case *ast.Ident:
		if t, ok := e.lookup(x.Name); ok {
			return e.record(x, t)
		}
		// неизвестное имя: резолвер решает, ошибка ли это
		return e.record(x, e.Fresh())
	case *ast.BinaryExpr:
		return e.record(x, e.inferBinary(x))
	case *ast.UnaryExpr:
		return e.record(x, e.inferUnary(x))
	case *ast.CallExpr:
		return e.record(x, e.inferCall(x))
	default:
		return e.Fresh()
	}
}

func literalType(l *ast.Literal) types.Type {
	switch l.Kind {
	case ast.LitInt:
		return types.Int
	case ast.LitFloat:
		return types.Float
	case ast.LitBool:
		return types.Bool
	case ast.LitString:
		return types.String
	default:
		return types.Unit
	}
}

func (e *Engine) inferBinary(b *ast.BinaryExpr) types.Type {
	lt := e.inferExpr(b.Left)
	rt := e.inferExpr(b.Right)

	if !e.constraint() {
		if b.Op.IsArithmetic() {
			return types.Int
		}
		return types.Bool
	}

	switch {
	case b.Op.IsLogical():
		e.unify(b.Left, types.Bool, lt)
		e.unify(b.Right, types.Bool, rt)
		return types.Bool
	case b.Op.IsArithmetic():
		if !e.unify(b, lt, rt) {
			return types.Int
		}
		t := e.unifier.Resolve(lt)
		if t.IsVar() {
			return t
		}
		// + на строках это конкатенация
		if b.Op == ast.BinAdd && t.Kind == types.KindString {
			return t
		}
		e.requireNumeric(b, t)
		return t
	default:
		if e.unify(b, lt, rt) && b.Op != ast.BinEq && b.Op != ast.BinNe {
			if t := e.unifier.Resolve(lt); !t.IsVar() && t.Kind != types.KindString {
				e.requireNumeric(b, t)
			}
		}
		return types.Bool
	}
}

func (e *Engine) requireNumeric(n ast.Node, t types.Type) {
	if t.Kind != types.KindInt && t.Kind != types.KindFloat {
		e.errorf(n, diag.SemaTypeMismatch, "operator needs int or float operands, got %s", t)
	}
}

func (e *Engine) inferUnary(u *ast.UnaryExpr) types.Type {
	t := e.inferExpr(u.X)
	if u.Op == ast.UnaryNot {
		if e.constraint() {
			e.unify(u.X, types.Bool, t)
		}
		return types.Bool
	}
	if e.constraint() {
		if r := e.unifier.Resolve(t); !r.IsVar() {
			e.requireNumeric(u, r)
		}
	}
	return t
}

func (e *Engine) inferCall(c *ast.CallExpr) types.Type {
	ct := e.inferExpr(c.Callee)
	args := make([]types.Type, len(c.Args))
	for i, a := range c.Args {
		args[i] = e.inferExpr(a)
	}

	if !e.constraint() {
		if r := e.unifier.Resolve(ct); r.Kind == types.KindFunc {
			return *r.Ret
		}
		return e.Fresh()
	}

	resolved := e.unifier.Resolve(ct)
	if resolved.Kind != types.KindFunc && resolved.Kind != types.KindVar {
		e.errorf(c.Callee, diag.SemaNotCallable, "%s is not callable", resolved)
		return e.Fresh()
	}
	ret := e.Fresh()
	e.unify(c, ct, types.Func(args, ret))
	return ret
}
