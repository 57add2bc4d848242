package ir

import (
	"fmt"

	"kestrel/internal/ast"
	"kestrel/internal/types"
)

var binOpFromAST = map[ast.BinaryOp]BinOp{
	ast.BinAdd: OpAdd,
	ast.BinSub: OpSub,
	ast.BinMul: OpMul,
	ast.BinDiv: OpDiv,
	ast.BinEq:  OpEq,
	ast.BinNe:  OpNe,
	ast.BinLt:  OpLt,
	ast.BinLe:  OpLe,
	ast.BinGt:  OpGt,
	ast.BinGe:  OpGe,
}

// lowerValue lowers e and fails with "expected value" when it yields none.
func (l *Lowerer) lowerValue(e ast.Expr) (Value, error) {
	v, err := l.lowerExpr(e)
	if err != nil {
		return Value{}, err
	}
	if v == nil {
		return Value{}, &LowerError{Span: e.Span(), Msg: "expected value"}
	}
	return *v, nil
}

// lowerExpr returns nil when the expression produces no value.
func (l *Lowerer) lowerExpr(e ast.Expr) (*Value, error) {
	switch e := e.(type) {
	case nil:
		return nil, nil
	case *ast.Literal:
		v := ConstValue(literalConst(e))
		return &v, nil
	case *ast.Ident:
		return l.lowerIdent(e), nil
	case *ast.BinaryExpr:
		if e.Op.IsLogical() {
			return l.lowerLogical(e)
		}
		left, err := l.lowerValue(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := l.lowerValue(e.Right)
		if err != nil {
			return nil, err
		}
		op := binOpFromAST[e.Op]
		t := types.Bool
		if op.IsArithmetic() {
			t = arithType(l.valueType(left), l.valueType(right))
		}
		dst := l.FreshTemp()
		l.emit(Instr{Kind: InstrBinary, Binary: BinaryInstr{
			Dst: dst, Op: op, Left: left, Right: right, Type: l.typeOr(e, t),
		}})
		v := Var(dst)
		return &v, nil
	case *ast.UnaryExpr:
		x, err := l.lowerValue(e.X)
		if err != nil {
			return nil, err
		}
		op, t := OpNeg, l.valueType(x)
		if e.Op == ast.UnaryNot {
			op, t = OpNot, types.Bool
		}
		dst := l.FreshTemp()
		l.emit(Instr{Kind: InstrUnary, Unary: UnaryInstr{Dst: dst, Op: op, X: x, Type: l.typeOr(e, t)}})
		v := Var(dst)
		return &v, nil
	case *ast.CallExpr:
		return l.lowerCall(e, true)
	default:
		return nil, &LowerError{Span: e.Span(), Msg: fmt.Sprintf("unsupported expression %T", e)}
	}
}

func (l *Lowerer) lowerIdent(id *ast.Ident) *Value {
	if _, ok := l.local(id.Name); ok {
		v := Var(id.Name)
		return &v
	}
	if gt, ok := l.globals[id.Name]; ok {
		dst := l.FreshTemp()
		l.emit(Instr{Kind: InstrLoad, Load: LoadInstr{Dst: dst, Global: id.Name, Type: gt}})
		v := Var(dst)
		return &v
	}
	v := Var(id.Name)
	return &v
}

// lowerLogical lowers `a && b` / `a || b` with short-circuit blocks:
//
//	t = a; branch t, rhs, end   (для || ветки меняются местами)
//	rhs: t = b; jump end
//	end: ...
func (l *Lowerer) lowerLogical(e *ast.BinaryExpr) (*Value, error) {
	left, err := l.lowerValue(e.Left)
	if err != nil {
		return nil, err
	}
	dst := l.FreshTemp()
	l.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: dst, Src: left, Type: types.Bool}})

	rhs := l.FreshLabel()
	end := l.FreshLabel()
	if e.Op == ast.BinAnd {
		l.terminate(Branch(Var(dst), rhs, end))
	} else {
		l.terminate(Branch(Var(dst), end, rhs))
	}

	l.cur = l.newBlock(rhs)
	right, err := l.lowerValue(e.Right)
	if err != nil {
		return nil, err
	}
	l.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: dst, Src: right, Type: types.Bool}})
	l.terminate(Jump(end))

	l.cur = l.newBlock(end)
	v := Var(dst)
	return &v, nil
}

func (l *Lowerer) lowerCall(c *ast.CallExpr, wantValue bool) (*Value, error) {
	callee, ok := c.Callee.(*ast.Ident)
	if !ok {
		return nil, &LowerError{Span: c.Callee.Span(), Msg: "callee must be a function name"}
	}
	args := make([]Value, 0, len(c.Args))
	for _, a := range c.Args {
		v, err := l.lowerValue(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	t := types.Int
	if fd, ok := l.funcs[callee.Name]; ok {
		t = l.resultType(fd)
	}
	call := CallInstr{Callee: callee.Name, Args: args, Type: l.typeOr(c, t)}
	if !wantValue {
		l.emit(Instr{Kind: InstrCall, Call: call})
		return nil, nil
	}
	call.HasDst = true
	call.Dst = l.FreshTemp()
	l.emit(Instr{Kind: InstrCall, Call: call})
	v := Var(call.Dst)
	return &v, nil
}

func (l *Lowerer) typeOr(n ast.Node, fallback types.Type) types.Type {
	if t, ok := l.inferred(n.ID()); ok {
		return t
	}
	return fallback
}

// valueType finds the type of an operand: constants carry it, variables are
// looked up among locals, then among destinations defined so far.
func (l *Lowerer) valueType(v Value) types.Type {
	if v.IsConst() {
		return v.Const.Type()
	}
	if t, ok := l.local(v.Name); ok {
		return t
	}
	if t, ok := l.temps[v.Name]; ok {
		return t
	}
	return types.Int
}

func arithType(a, b types.Type) types.Type {
	if a.Kind == types.KindString && b.Kind == types.KindString {
		return types.String
	}
	if a.Kind == types.KindFloat || b.Kind == types.KindFloat {
		return types.Float
	}
	return types.Int
}
