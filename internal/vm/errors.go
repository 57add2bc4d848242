package vm

import (
	"fmt"
	"strings"

	"kestrel/internal/bytecode"
)

// ErrorKind identifies the type of VM failure.
type ErrorKind int

// Stable error codes - do not change values.
const (
	KindInvalidOpcode  ErrorKind = 1001 // VM1001: unknown opcode byte
	KindStackOverflow  ErrorKind = 1002 // VM1002: operand stack or call stack full
	KindStackUnderflow ErrorKind = 1003 // VM1003: pop from empty stack
	KindInvalidAddress ErrorKind = 1004 // VM1004: bad slot, call target or heap address
	KindDivisionByZero ErrorKind = 1005 // VM1005: integer or float division by zero
	KindOutOfBounds    ErrorKind = 1006 // VM1006: pc or operand outside the code
	KindTypeMismatch   ErrorKind = 1007 // VM1007: operand of the wrong kind
)

// String returns the code as "VM1001" format.
func (k ErrorKind) String() string {
	return fmt.Sprintf("VM%d", int(k))
}

// Name is the human-readable kind.
func (k ErrorKind) Name() string {
	switch k {
	case KindInvalidOpcode:
		return "invalid opcode"
	case KindStackOverflow:
		return "stack overflow"
	case KindStackUnderflow:
		return "stack underflow"
	case KindInvalidAddress:
		return "invalid address"
	case KindDivisionByZero:
		return "division by zero"
	case KindOutOfBounds:
		return "out of bounds"
	case KindTypeMismatch:
		return "type mismatch"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; they match any *VMError of the same kind.
var (
	ErrInvalidOpcode  = &VMError{Kind: KindInvalidOpcode}
	ErrStackOverflow  = &VMError{Kind: KindStackOverflow}
	ErrStackUnderflow = &VMError{Kind: KindStackUnderflow}
	ErrInvalidAddress = &VMError{Kind: KindInvalidAddress}
	ErrDivisionByZero = &VMError{Kind: KindDivisionByZero}
	ErrOutOfBounds    = &VMError{Kind: KindOutOfBounds}
	ErrTypeMismatch   = &VMError{Kind: KindTypeMismatch}
)

// BacktraceFrame is one active call at the time of the error.
type BacktraceFrame struct {
	Func  uint32 // start offset of the function
	PC    int    // offset being executed in that frame
	Entry bool   // root frame, not entered through Call
}

// VMError is a runtime failure. Execution stops at the failing instruction.
type VMError struct {
	Kind      ErrorKind
	Message   string
	PC        int
	Op        byte             // raw opcode byte at PC
	Backtrace []BacktraceFrame // innermost first
}

// Error implements the error interface.
func (e *VMError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s at pc %d", e.Kind, e.Kind.Name(), e.PC)
	}
	return fmt.Sprintf("%s %s at pc %d: %s", e.Kind, e.Kind.Name(), e.PC, e.Message)
}

// Is matches errors of the same kind.
func (e *VMError) Is(target error) bool {
	t, ok := target.(*VMError)
	return ok && t.Kind == e.Kind
}

// Format renders the error with a backtrace. Function names come from p
// when it is non-nil.
func (e *VMError) Format(p *bytecode.Program) string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	sb.WriteString("\n")
	if len(e.Backtrace) == 0 {
		return sb.String()
	}
	sb.WriteString("backtrace:\n")
	for i, f := range e.Backtrace {
		fmt.Fprintf(&sb, "  %d: %s pc %d\n", i, frameName(f, p), f.PC)
	}
	return sb.String()
}

func frameName(f BacktraceFrame, p *bytecode.Program) string {
	if p != nil {
		if name, ok := p.FuncAt(f.PC); ok {
			return name
		}
	}
	if f.Entry {
		return "<entry>"
	}
	return fmt.Sprintf("@%d", f.Func)
}

func (vm *VM) fail(kind ErrorKind, format string, args ...any) *VMError {
	e := &VMError{Kind: kind, PC: vm.pc}
	if format != "" {
		e.Message = fmt.Sprintf(format, args...)
	}
	if vm.pc >= 0 && vm.pc < len(vm.code) {
		e.Op = vm.code[vm.pc]
	}
	pc := vm.pc
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := &vm.frames[i]
		e.Backtrace = append(e.Backtrace, BacktraceFrame{Func: f.Func, PC: pc, Entry: i == 0})
		pc = f.RetPC
	}
	return e
}
