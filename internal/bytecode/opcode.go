// Package bytecode defines the stack machine instruction set, its binary
// encoding and the assembler that turns IR modules into code.
//
// Encoding is little-endian: one opcode byte followed by fixed operands.
// Slot indices and argument counts take 2 bytes, jump addresses 4 bytes,
// constants a tag byte plus payload.
package bytecode

import "fmt"

// Opcode is the first byte of every encoded instruction.
type Opcode uint8

const (
	OpNop Opcode = 0x00

	OpLoadConst   Opcode = 0x10
	OpLoadLocal   Opcode = 0x11
	OpStoreLocal  Opcode = 0x12
	OpLoadGlobal  Opcode = 0x13
	OpStoreGlobal Opcode = 0x14

	OpAdd Opcode = 0x20
	OpSub Opcode = 0x21
	OpMul Opcode = 0x22
	OpDiv Opcode = 0x23
	OpNeg Opcode = 0x24

	OpEq  Opcode = 0x30
	OpNe  Opcode = 0x31
	OpLt  Opcode = 0x32
	OpLe  Opcode = 0x33
	OpGt  Opcode = 0x34
	OpGe  Opcode = 0x35
	OpNot Opcode = 0x36

	OpJump        Opcode = 0x40
	OpJumpIfTrue  Opcode = 0x41
	OpJumpIfFalse Opcode = 0x42

	OpCall   Opcode = 0x50
	OpReturn Opcode = 0x51

	OpPop Opcode = 0x60
	OpDup Opcode = 0x61

	OpHalt Opcode = 0xFF
)

// OperandKind describes what follows an opcode byte.
type OperandKind uint8

const (
	OperandNone  OperandKind = iota
	OperandSlot              // u16 local or global slot
	OperandArgc              // u16 argument count
	OperandAddr              // u32 absolute byte offset
	OperandConst             // tagged constant
)

type opInfo struct {
	name    string
	operand OperandKind
}

var opTable = map[Opcode]opInfo{
	OpNop:         {"Nop", OperandNone},
	OpLoadConst:   {"LoadConst", OperandConst},
	OpLoadLocal:   {"LoadLocal", OperandSlot},
	OpStoreLocal:  {"StoreLocal", OperandSlot},
	OpLoadGlobal:  {"LoadGlobal", OperandSlot},
	OpStoreGlobal: {"StoreGlobal", OperandSlot},
	OpAdd:         {"Add", OperandNone},
	OpSub:         {"Sub", OperandNone},
	OpMul:         {"Mul", OperandNone},
	OpDiv:         {"Div", OperandNone},
	OpNeg:         {"Neg", OperandNone},
	OpEq:          {"Eq", OperandNone},
	OpNe:          {"Ne", OperandNone},
	OpLt:          {"Lt", OperandNone},
	OpLe:          {"Le", OperandNone},
	OpGt:          {"Gt", OperandNone},
	OpGe:          {"Ge", OperandNone},
	OpNot:         {"Not", OperandNone},
	OpJump:        {"Jump", OperandAddr},
	OpJumpIfTrue:  {"JumpIfTrue", OperandAddr},
	OpJumpIfFalse: {"JumpIfFalse", OperandAddr},
	OpCall:        {"Call", OperandArgc},
	OpReturn:      {"Return", OperandNone},
	OpPop:         {"Pop", OperandNone},
	OpDup:         {"Dup", OperandNone},
	OpHalt:        {"Halt", OperandNone},
}

// Valid reports whether op is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opTable[op]
	return ok
}

// Operand returns the operand kind that follows op.
func (op Opcode) Operand() OperandKind {
	return opTable[op].operand
}

func (op Opcode) String() string {
	if info, ok := opTable[op]; ok {
		return info.name
	}
	return fmt.Sprintf("Opcode(0x%02X)", uint8(op))
}
