package opt

import "kestrel/internal/ir"

// ConstantFolding replaces binary and unary instructions over constant
// operands with an assignment of the computed constant. Division by zero is
// left alone for the VM to report.
type ConstantFolding struct{}

func (ConstantFolding) Name() string { return PassConstFold }

func (ConstantFolding) Run(m *ir.Module) bool {
	changed := false
	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				if foldInstr(&b.Instrs[i]) {
					changed = true
				}
			}
		}
	}
	return changed
}

func foldInstr(in *ir.Instr) bool {
	var (
		dst string
		c   ir.Const
		ok  bool
	)
	switch in.Kind {
	case ir.InstrBinary:
		bin := &in.Binary
		if !bin.Left.IsConst() || !bin.Right.IsConst() {
			return false
		}
		dst = bin.Dst
		c, ok = FoldBinary(bin.Op, bin.Left.Const, bin.Right.Const)
	case ir.InstrUnary:
		un := &in.Unary
		if !un.X.IsConst() {
			return false
		}
		dst = un.Dst
		c, ok = FoldUnary(un.Op, un.X.Const)
	default:
		return false
	}
	if !ok {
		return false
	}
	*in = ir.Instr{
		Kind:   ir.InstrAssign,
		Assign: ir.AssignInstr{Dst: dst, Src: ir.ConstValue(c), Type: c.Type()},
	}
	return true
}

// FoldBinary evaluates op over two constants of the same kind. It reports
// false when the pair is not foldable.
func FoldBinary(op ir.BinOp, a, b ir.Const) (ir.Const, bool) {
	if a.Kind != b.Kind {
		return ir.Const{}, false
	}
	switch a.Kind {
	case ir.ConstInt:
		return foldInt(op, a.Int, b.Int)
	case ir.ConstFloat:
		return foldFloat(op, a.Float, b.Float)
	case ir.ConstString:
		return foldString(op, a.Str, b.Str)
	case ir.ConstBool:
		switch op {
		case ir.OpEq:
			return ir.BoolConst(a.Bool == b.Bool), true
		case ir.OpNe:
			return ir.BoolConst(a.Bool != b.Bool), true
		}
	}
	return ir.Const{}, false
}

func foldInt(op ir.BinOp, a, b int64) (ir.Const, bool) {
	switch op {
	case ir.OpAdd:
		return ir.IntConst(a + b), true
	case ir.OpSub:
		return ir.IntConst(a - b), true
	case ir.OpMul:
		return ir.IntConst(a * b), true
	case ir.OpDiv:
		if b == 0 {
			return ir.Const{}, false
		}
		return ir.IntConst(a / b), true
	case ir.OpEq:
		return ir.BoolConst(a == b), true
	case ir.OpNe:
		return ir.BoolConst(a != b), true
	case ir.OpLt:
		return ir.BoolConst(a < b), true
	case ir.OpLe:
		return ir.BoolConst(a <= b), true
	case ir.OpGt:
		return ir.BoolConst(a > b), true
	case ir.OpGe:
		return ir.BoolConst(a >= b), true
	}
	return ir.Const{}, false
}

// foldString mirrors the VM: + concatenates, comparisons are bytewise.
func foldString(op ir.BinOp, a, b string) (ir.Const, bool) {
	switch op {
	case ir.OpAdd:
		return ir.StringConst(a + b), true
	case ir.OpEq:
		return ir.BoolConst(a == b), true
	case ir.OpNe:
		return ir.BoolConst(a != b), true
	case ir.OpLt:
		return ir.BoolConst(a < b), true
	case ir.OpLe:
		return ir.BoolConst(a <= b), true
	case ir.OpGt:
		return ir.BoolConst(a > b), true
	case ir.OpGe:
		return ir.BoolConst(a >= b), true
	}
	return ir.Const{}, false
}

func foldFloat(op ir.BinOp, a, b float64) (ir.Const, bool) {
	switch op {
	case ir.OpAdd:
		return ir.FloatConst(a + b), true
	case ir.OpSub:
		return ir.FloatConst(a - b), true
	case ir.OpMul:
		return ir.FloatConst(a * b), true
	case ir.OpDiv:
		if b == 0 {
			return ir.Const{}, false
		}
		return ir.FloatConst(a / b), true
	case ir.OpEq:
		return ir.BoolConst(a == b), true
	case ir.OpNe:
		return ir.BoolConst(a != b), true
	case ir.OpLt:
		return ir.BoolConst(a < b), true
	case ir.OpLe:
		return ir.BoolConst(a <= b), true
	case ir.OpGt:
		return ir.BoolConst(a > b), true
	case ir.OpGe:
		return ir.BoolConst(a >= b), true
	}
	return ir.Const{}, false
}

// FoldUnary evaluates neg over numbers and not over booleans.
func FoldUnary(op ir.UnOp, x ir.Const) (ir.Const, bool) {
	switch {
	case op == ir.OpNeg && x.Kind == ir.ConstInt:
		return ir.IntConst(-x.Int), true
	case op == ir.OpNeg && x.Kind == ir.ConstFloat:
		return ir.FloatConst(-x.Float), true
	case op == ir.OpNot && x.Kind == ir.ConstBool:
		return ir.BoolConst(!x.Bool), true
	}
	return ir.Const{}, false
}
