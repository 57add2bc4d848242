// Package vm executes bytecode produced by the assembler.
//
// A VM owns its operand stack, call frames, globals and heap; one instance
// runs one program at a time. Errors are returned as *VMError and never
// escape as panics.
package vm

import (
	"context"
	"errors"

	"kestrel/internal/bytecode"
	"kestrel/internal/trace"
)

// Default limits.
const (
	DefaultStackSize  = 1024
	DefaultMaxLocals  = 256
	DefaultMaxGlobals = 256
	DefaultMaxFrames  = 256
)

// Options configures limits. Zero fields take the defaults.
type Options struct {
	StackSize  int
	MaxLocals  int
	MaxGlobals int
	MaxFrames  int
	// Program supplies function names for backtraces and traces; optional.
	Program *bytecode.Program
}

// VM is the stack machine.
type VM struct {
	opts Options

	code    []byte
	pc      int
	stack   []Value
	frames  []Frame
	globals []Value
	heap    Heap

	tracer trace.Tracer
	steps  uint64
}

// New creates a VM with the given limits.
func New(opts Options) *VM {
	if opts.StackSize <= 0 {
		opts.StackSize = DefaultStackSize
	}
	if opts.MaxLocals <= 0 {
		opts.MaxLocals = DefaultMaxLocals
	}
	if opts.MaxGlobals <= 0 {
		opts.MaxGlobals = DefaultMaxGlobals
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}
	vm := &VM{opts: opts, tracer: trace.Nop}
	vm.Reset()
	return vm
}

// Reset clears all runtime state. The heap keeps its address counter
// reset as well, so a fresh run starts from address 1.
func (vm *VM) Reset() {
	vm.code = nil
	vm.pc = 0
	vm.stack = make([]Value, 0, min(vm.opts.StackSize, 64))
	vm.frames = vm.frames[:0]
	vm.globals = make([]Value, vm.opts.MaxGlobals)
	vm.heap.reset()
	vm.steps = 0
}

// Heap exposes the VM heap.
func (vm *VM) Heap() *Heap { return &vm.heap }

// Stack returns a copy of the operand stack, bottom first.
func (vm *VM) Stack() []Value { return append([]Value(nil), vm.stack...) }

// Globals returns a copy of the global slots.
func (vm *VM) Globals() []Value { return append([]Value(nil), vm.globals...) }

// Steps is the number of instructions executed by the last run.
func (vm *VM) Steps() uint64 { return vm.steps }

// Execute runs code from offset 0 until Halt, a top-level Return or the end
// of the code. The result is the value on top of the stack, or nil when the
// stack is empty.
func (vm *VM) Execute(code []byte) (*Value, error) {
	return vm.ExecuteContext(context.Background(), code)
}

// ExecuteContext is Execute with cancellation and tracing taken from ctx.
// Each instruction becomes an op-scope trace point at debug level.
func (vm *VM) ExecuteContext(ctx context.Context, code []byte) (*Value, error) {
	vm.Reset()
	vm.code = code
	vm.tracer = trace.FromContext(ctx)
	vm.frames = append(vm.frames, Frame{RetPC: -1, Locals: make([]Value, vm.opts.MaxLocals)})

	traceOps := vm.tracer.Enabled() && vm.tracer.Level().ShouldEmit(trace.ScopeOp)
	parent := trace.ParentOf(ctx)
	for {
		if vm.steps&0x3FF == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if vm.pc == len(vm.code) {
			return vm.result(), nil
		}
		in, n, err := bytecode.Decode(vm.code, vm.pc)
		if err != nil {
			return nil, vm.decodeError(err)
		}
		if traceOps {
			vm.traceOp(in, parent)
		}
		vm.steps++
		halt, vmErr := vm.step(in, vm.pc+n)
		if vmErr != nil {
			return nil, vmErr
		}
		if halt {
			return vm.result(), nil
		}
	}
}

func (vm *VM) result() *Value {
	if len(vm.stack) == 0 {
		return nil
	}
	v := vm.stack[len(vm.stack)-1]
	return &v
}

func (vm *VM) decodeError(err error) *VMError {
	var de *bytecode.DecodeError
	if errors.As(err, &de) && errors.Is(de.Err, bytecode.ErrInvalidOpcode) {
		return vm.fail(KindInvalidOpcode, "0x%02X", de.Op)
	}
	return vm.fail(KindOutOfBounds, "%v", err)
}

func (vm *VM) push(v Value) *VMError {
	if len(vm.stack) >= vm.opts.StackSize {
		return vm.fail(KindStackOverflow, "operand stack limit %d", vm.opts.StackSize)
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() (Value, *VMError) {
	if len(vm.stack) <= vm.frame().Base {
		return Value{}, vm.fail(KindStackUnderflow, "")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// pop2 returns the operands of a binary op: top of stack is b.
func (vm *VM) pop2() (Value, Value, *VMError) {
	b, err := vm.pop()
	if err != nil {
		return Value{}, Value{}, err
	}
	a, err := vm.pop()
	if err != nil {
		return Value{}, Value{}, err
	}
	return a, b, nil
}

func (vm *VM) frame() *Frame {
	return &vm.frames[len(vm.frames)-1]
}
