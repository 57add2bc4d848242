package vm

import (
	"cmp"
	"math"

	"kestrel/internal/bytecode"
)

func (vm *VM) arith(op bytecode.Opcode) *VMError {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	if a.Kind != b.Kind {
		return vm.fail(KindTypeMismatch, "%s %s %s", a.Kind, op, b.Kind)
	}
	var r Value
	switch a.Kind {
	case bytecode.KindInt:
		switch op {
		case bytecode.OpAdd:
			r = bytecode.Int(a.Int + b.Int)
		case bytecode.OpSub:
			r = bytecode.Int(a.Int - b.Int)
		case bytecode.OpMul:
			r = bytecode.Int(a.Int * b.Int)
		default:
			if b.Int == 0 {
				return vm.fail(KindDivisionByZero, "%d / 0", a.Int)
			}
			r = bytecode.Int(a.Int / b.Int)
		}
	case bytecode.KindFloat:
		switch op {
		case bytecode.OpAdd:
			r = bytecode.Float(a.Float + b.Float)
		case bytecode.OpSub:
			r = bytecode.Float(a.Float - b.Float)
		case bytecode.OpMul:
			r = bytecode.Float(a.Float * b.Float)
		default:
			if b.Float == 0 {
				return vm.fail(KindDivisionByZero, "%s / 0", a)
			}
			r = bytecode.Float(a.Float / b.Float)
		}
	case bytecode.KindString:
		if op != bytecode.OpAdd {
			return vm.fail(KindTypeMismatch, "%s on strings", op)
		}
		r = bytecode.String(a.Str + b.Str)
	default:
		return vm.fail(KindTypeMismatch, "%s on %s", op, a.Kind)
	}
	return vm.push(r)
}

func (vm *VM) compare(op bytecode.Opcode) *VMError {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	if a.Kind != b.Kind {
		return vm.fail(KindTypeMismatch, "%s %s %s", a.Kind, op, b.Kind)
	}
	if op == bytecode.OpEq || op == bytecode.OpNe {
		return vm.push(bytecode.Bool((a == b) == (op == bytecode.OpEq)))
	}

	var c int
	switch a.Kind {
	case bytecode.KindInt:
		c = cmp.Compare(a.Int, b.Int)
	case bytecode.KindFloat:
		// NaN is unordered: every ordering comparison is false.
		if math.IsNaN(a.Float) || math.IsNaN(b.Float) {
			return vm.push(bytecode.Bool(false))
		}
		c = cmp.Compare(a.Float, b.Float)
	case bytecode.KindString:
		c = cmp.Compare(a.Str, b.Str)
	default:
		return vm.fail(KindTypeMismatch, "%s on %s", op, a.Kind)
	}

	var r bool
	switch op {
	case bytecode.OpLt:
		r = c < 0
	case bytecode.OpLe:
		r = c <= 0
	case bytecode.OpGt:
		r = c > 0
	default:
		r = c >= 0
	}
	return vm.push(bytecode.Bool(r))
}

func (vm *VM) unary(op bytecode.Opcode) *VMError {
	x, err := vm.pop()
	if err != nil {
		return err
	}
	switch {
	case op == bytecode.OpNeg && x.Kind == bytecode.KindInt:
		return vm.push(bytecode.Int(-x.Int))
	case op == bytecode.OpNeg && x.Kind == bytecode.KindFloat:
		return vm.push(bytecode.Float(-x.Float))
	case op == bytecode.OpNot && x.Kind == bytecode.KindBool:
		return vm.push(bytecode.Bool(!x.Bool))
	}
	return vm.fail(KindTypeMismatch, "%s on %s", op, x.Kind)
}
