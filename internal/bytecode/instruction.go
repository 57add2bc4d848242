package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// Instruction is one decoded opcode with its operand. Only the field
// selected by Op.Operand() is meaningful.
type Instruction struct {
	Op    Opcode
	Slot  uint16
	Argc  uint16
	Addr  uint32
	Const Value
}

func Simple(op Opcode) Instruction        { return Instruction{Op: op} }
func LoadConst(v Value) Instruction       { return Instruction{Op: OpLoadConst, Const: v} }
func LoadLocal(slot uint16) Instruction   { return Instruction{Op: OpLoadLocal, Slot: slot} }
func StoreLocal(slot uint16) Instruction  { return Instruction{Op: OpStoreLocal, Slot: slot} }
func LoadGlobal(slot uint16) Instruction  { return Instruction{Op: OpLoadGlobal, Slot: slot} }
func StoreGlobal(slot uint16) Instruction { return Instruction{Op: OpStoreGlobal, Slot: slot} }
func Jump(addr uint32) Instruction        { return Instruction{Op: OpJump, Addr: addr} }
func JumpIfTrue(addr uint32) Instruction  { return Instruction{Op: OpJumpIfTrue, Addr: addr} }
func JumpIfFalse(addr uint32) Instruction { return Instruction{Op: OpJumpIfFalse, Addr: addr} }
func Call(argc uint16) Instruction        { return Instruction{Op: OpCall, Argc: argc} }

// Encode returns the binary form of in.
func (in Instruction) Encode() []byte {
	return in.AppendTo(make([]byte, 0, in.Size()))
}

// AppendTo appends the binary form of in to buf.
func (in Instruction) AppendTo(buf []byte) []byte {
	buf = append(buf, byte(in.Op))
	switch in.Op.Operand() {
	case OperandSlot:
		buf = binary.LittleEndian.AppendUint16(buf, in.Slot)
	case OperandArgc:
		buf = binary.LittleEndian.AppendUint16(buf, in.Argc)
	case OperandAddr:
		buf = binary.LittleEndian.AppendUint32(buf, in.Addr)
	case OperandConst:
		buf = appendConst(buf, in.Const)
	}
	return buf
}

func appendConst(buf []byte, v Value) []byte {
	switch v.Kind {
	case KindInt:
		buf = append(buf, TagInt)
		return binary.LittleEndian.AppendUint64(buf, uint64(v.Int)) //nolint:gosec // two's complement bit pattern
	case KindFloat:
		buf = append(buf, TagFloat)
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.Float))
	case KindBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return append(buf, TagBool, b)
	case KindString:
		buf = append(buf, TagString)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Str))) //nolint:gosec // length checked by the assembler
		return append(buf, v.Str...)
	default:
		return append(buf, TagUnit)
	}
}

// Size is the encoded length of in in bytes.
func (in Instruction) Size() int {
	switch in.Op.Operand() {
	case OperandSlot, OperandArgc:
		return 3
	case OperandAddr:
		return 5
	case OperandConst:
		return 1 + constSize(in.Const)
	default:
		return 1
	}
}

func constSize(v Value) int {
	switch v.Kind {
	case KindInt, KindFloat:
		return 9
	case KindBool:
		return 2
	case KindString:
		return 5 + len(v.Str)
	default:
		return 1
	}
}

func (in Instruction) String() string {
	switch in.Op.Operand() {
	case OperandSlot:
		return fmt.Sprintf("%s %d", in.Op, in.Slot)
	case OperandArgc:
		return fmt.Sprintf("%s %d", in.Op, in.Argc)
	case OperandAddr:
		return fmt.Sprintf("%s @%d", in.Op, in.Addr)
	case OperandConst:
		return fmt.Sprintf("%s %s", in.Op, in.Const)
	default:
		return in.Op.String()
	}
}

// Decode errors, wrapped in *DecodeError.
var (
	ErrInvalidOpcode = errors.New("invalid opcode")
	ErrTruncated     = errors.New("truncated operand")
	ErrInvalidConst  = errors.New("invalid constant")
)

// DecodeError reports where decoding stopped.
type DecodeError struct {
	PC  int
	Op  byte
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pc %d: opcode 0x%02X: %v", e.PC, e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode reads the instruction starting at code[pc] and returns it with its
// encoded size.
func Decode(code []byte, pc int) (Instruction, int, error) {
	if pc < 0 || pc >= len(code) {
		return Instruction{}, 0, &DecodeError{PC: pc, Err: ErrTruncated}
	}
	op := Opcode(code[pc])
	if !op.Valid() {
		return Instruction{}, 0, &DecodeError{PC: pc, Op: code[pc], Err: ErrInvalidOpcode}
	}
	in := Instruction{Op: op}
	rest := code[pc+1:]
	fail := func(err error) (Instruction, int, error) {
		return Instruction{}, 0, &DecodeError{PC: pc, Op: byte(op), Err: err}
	}

	switch op.Operand() {
	case OperandSlot, OperandArgc:
		if len(rest) < 2 {
			return fail(ErrTruncated)
		}
		v := binary.LittleEndian.Uint16(rest)
		if op == OpCall {
			in.Argc = v
		} else {
			in.Slot = v
		}
		return in, 3, nil
	case OperandAddr:
		if len(rest) < 4 {
			return fail(ErrTruncated)
		}
		in.Addr = binary.LittleEndian.Uint32(rest)
		return in, 5, nil
	case OperandConst:
		v, n, err := decodeConst(rest)
		if err != nil {
			return fail(err)
		}
		in.Const = v
		return in, 1 + n, nil
	default:
		return in, 1, nil
	}
}

func decodeConst(b []byte) (Value, int, error) {
	if len(b) == 0 {
		return Value{}, 0, ErrTruncated
	}
	payload := b[1:]
	switch b[0] {
	case TagUnit:
		return Unit(), 1, nil
	case TagInt:
		if len(payload) < 8 {
			return Value{}, 0, ErrTruncated
		}
		return Int(int64(binary.LittleEndian.Uint64(payload))), 9, nil //nolint:gosec // two's complement bit pattern
	case TagFloat:
		if len(payload) < 8 {
			return Value{}, 0, ErrTruncated
		}
		return Float(math.Float64frombits(binary.LittleEndian.Uint64(payload))), 9, nil
	case TagBool:
		if len(payload) < 1 {
			return Value{}, 0, ErrTruncated
		}
		switch payload[0] {
		case 0:
			return Bool(false), 2, nil
		case 1:
			return Bool(true), 2, nil
		}
		return Value{}, 0, ErrInvalidConst
	case TagString:
		if len(payload) < 4 {
			return Value{}, 0, ErrTruncated
		}
		n := binary.LittleEndian.Uint32(payload)
		body := payload[4:]
		if uint64(len(body)) < uint64(n) {
			return Value{}, 0, ErrTruncated
		}
		s := body[:n]
		if !utf8.Valid(s) {
			return Value{}, 0, ErrInvalidConst
		}
		return String(string(s)), 5 + int(n), nil
	default:
		return Value{}, 0, ErrInvalidConst
	}
}
