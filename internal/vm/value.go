package vm

import "kestrel/internal/bytecode"

// Value is a runtime value. It shares the representation of bytecode
// constants so LoadConst pushes without conversion.
type Value = bytecode.Value

// Frame is one activation record.
type Frame struct {
	Func   uint32  // start offset of the callee
	RetPC  int     // where Return resumes in the caller
	Base   int     // operand stack height at entry
	Locals []Value // fixed-size slot array, Unit by default
}
