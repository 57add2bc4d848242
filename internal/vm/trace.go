package vm

import (
	"fmt"

	"kestrel/internal/bytecode"
	"kestrel/internal/trace"
)

func (vm *VM) traceOp(in bytecode.Instruction, parent uint64) {
	detail := fmt.Sprintf("pc=%d depth=%d sp=%d", vm.pc, len(vm.frames)-1, len(vm.stack))
	if p := vm.opts.Program; p != nil {
		if name, ok := p.FuncAt(vm.pc); ok {
			detail = name + " " + detail
		}
	}
	trace.Point(vm.tracer, trace.ScopeOp, in.String(), detail, parent)
}
