package vm

import (
	"fortio.org/safecast"

	"kestrel/internal/bytecode"
)

// step executes in, located at vm.pc, with next as the fall-through offset.
func (vm *VM) step(in bytecode.Instruction, next int) (halt bool, vmErr *VMError) {
	switch in.Op {
	case bytecode.OpNop:
	case bytecode.OpHalt:
		return true, nil

	case bytecode.OpLoadConst:
		vmErr = vm.push(in.Const)
	case bytecode.OpLoadLocal:
		locals := vm.frame().Locals
		if int(in.Slot) >= len(locals) {
			return false, vm.fail(KindInvalidAddress, "local slot %d", in.Slot)
		}
		vmErr = vm.push(locals[in.Slot])
	case bytecode.OpStoreLocal:
		locals := vm.frame().Locals
		if int(in.Slot) >= len(locals) {
			return false, vm.fail(KindInvalidAddress, "local slot %d", in.Slot)
		}
		var v Value
		if v, vmErr = vm.pop(); vmErr == nil {
			locals[in.Slot] = v
		}
	case bytecode.OpLoadGlobal:
		if int(in.Slot) >= len(vm.globals) {
			return false, vm.fail(KindInvalidAddress, "global slot %d", in.Slot)
		}
		vmErr = vm.push(vm.globals[in.Slot])
	case bytecode.OpStoreGlobal:
		if int(in.Slot) >= len(vm.globals) {
			return false, vm.fail(KindInvalidAddress, "global slot %d", in.Slot)
		}
		var v Value
		if v, vmErr = vm.pop(); vmErr == nil {
			vm.globals[in.Slot] = v
		}

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv:
		vmErr = vm.arith(in.Op)
	case bytecode.OpEq, bytecode.OpNe, bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
		vmErr = vm.compare(in.Op)
	case bytecode.OpNeg, bytecode.OpNot:
		vmErr = vm.unary(in.Op)

	case bytecode.OpJump:
		return false, vm.jump(in.Addr)
	case bytecode.OpJumpIfTrue, bytecode.OpJumpIfFalse:
		cond, err := vm.pop()
		if err != nil {
			return false, err
		}
		if cond.Kind != bytecode.KindBool {
			return false, vm.fail(KindTypeMismatch, "condition is %s, want bool", cond.Kind)
		}
		if cond.Bool == (in.Op == bytecode.OpJumpIfTrue) {
			return false, vm.jump(in.Addr)
		}

	case bytecode.OpCall:
		return false, vm.call(in.Argc, next)
	case bytecode.OpReturn:
		return vm.ret()

	case bytecode.OpPop:
		_, vmErr = vm.pop()
	case bytecode.OpDup:
		if len(vm.stack) <= vm.frame().Base {
			return false, vm.fail(KindStackUnderflow, "")
		}
		vmErr = vm.push(vm.stack[len(vm.stack)-1])

	default:
		return false, vm.fail(KindInvalidOpcode, "0x%02X", byte(in.Op))
	}
	if vmErr != nil {
		return false, vmErr
	}
	vm.pc = next
	return false, nil
}

func (vm *VM) jump(addr uint32) *VMError {
	target, err := safecast.Conv[int](addr)
	if err != nil || target > len(vm.code) {
		return vm.fail(KindOutOfBounds, "jump target %d", addr)
	}
	vm.pc = target
	return nil
}

// call expects the callee address below argc arguments on the stack.
func (vm *VM) call(argc uint16, retPC int) *VMError {
	n := int(argc)
	if len(vm.stack)-vm.frame().Base < n+1 {
		return vm.fail(KindStackUnderflow, "call needs %d arguments and a callee", n)
	}
	if n > vm.opts.MaxLocals {
		return vm.fail(KindInvalidAddress, "%d arguments exceed %d local slots", n, vm.opts.MaxLocals)
	}
	if len(vm.frames) >= vm.opts.MaxFrames {
		return vm.fail(KindStackOverflow, "call depth limit %d", vm.opts.MaxFrames)
	}
	calleeAt := len(vm.stack) - n - 1
	callee := vm.stack[calleeAt]
	if callee.Kind != bytecode.KindInt {
		return vm.fail(KindTypeMismatch, "callee is %s, want address", callee.Kind)
	}
	target, err := safecast.Conv[uint32](callee.Int)
	if err != nil || int(target) >= len(vm.code) {
		return vm.fail(KindInvalidAddress, "call target %d", callee.Int)
	}

	locals := make([]Value, vm.opts.MaxLocals)
	copy(locals, vm.stack[calleeAt+1:])
	clear(vm.stack[calleeAt:])
	vm.stack = vm.stack[:calleeAt]
	vm.frames = append(vm.frames, Frame{
		Func:   target,
		RetPC:  retPC,
		Base:   calleeAt,
		Locals: locals,
	})
	vm.pc = int(target)
	return nil
}

// ret leaves the current frame. A callee that pushed nothing returns Unit.
// Returning from the root frame halts with the returned value on top.
func (vm *VM) ret() (bool, *VMError) {
	f := vm.frame()
	result := bytecode.Unit()
	hasValue := len(vm.stack) > f.Base
	if hasValue {
		result = vm.stack[len(vm.stack)-1]
	}
	if len(vm.frames) == 1 {
		vm.stack = vm.stack[:f.Base]
		if hasValue {
			vm.stack = append(vm.stack, result)
		}
		return true, nil
	}
	clear(vm.stack[f.Base:])
	vm.stack = vm.stack[:f.Base]
	vm.pc = f.RetPC
	vm.frames = vm.frames[:len(vm.frames)-1]
	return false, vm.push(result)
}
