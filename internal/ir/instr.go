package ir

import "kestrel/internal/types"

// InstrKind enumerates instruction kinds in IR.
type InstrKind uint8

const (
	// InstrAssign copies a value into a variable.
	InstrAssign InstrKind = iota
	// InstrBinary applies a binary operator.
	InstrBinary
	// InstrUnary applies a unary operator.
	InstrUnary
	// InstrCall calls a function by name.
	InstrCall
	// InstrAlloca declares a variable without an initializer.
	InstrAlloca
	// InstrLoad reads a global.
	InstrLoad
	// InstrStore writes a global.
	InstrStore
)

func (k InstrKind) String() string {
	switch k {
	case InstrAssign:
		return "assign"
	case InstrBinary:
		return "binary"
	case InstrUnary:
		return "unary"
	case InstrCall:
		return "call"
	case InstrAlloca:
		return "alloca"
	case InstrLoad:
		return "load"
	case InstrStore:
		return "store"
	default:
		return "?"
	}
}

// BinOp enumerates IR binary operators. `&&` and `||` never reach IR:
// lowering turns them into branches.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

var binOpNames = [...]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div",
	OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge",
}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "?"
}

// IsArithmetic reports whether op is add, sub, mul or div.
func (op BinOp) IsArithmetic() bool { return op <= OpDiv }

// UnOp enumerates IR unary operators.
type UnOp uint8

const (
	OpNeg UnOp = iota
	OpNot
)

func (op UnOp) String() string {
	if op == OpNot {
		return "not"
	}
	return "neg"
}

// Instr represents an IR instruction. Only the payload matching Kind is set.
type Instr struct {
	Kind InstrKind

	Assign AssignInstr
	Binary BinaryInstr
	Unary  UnaryInstr
	Call   CallInstr
	Alloca AllocaInstr
	Load   LoadInstr
	Store  StoreInstr
}

type AssignInstr struct {
	Dst  string
	Src  Value
	Type types.Type
}

type BinaryInstr struct {
	Dst   string
	Op    BinOp
	Left  Value
	Right Value
	Type  types.Type
}

type UnaryInstr struct {
	Dst  string
	Op   UnOp
	X    Value
	Type types.Type
}

// CallInstr calls Callee with Args. With HasDst false the result is discarded.
type CallInstr struct {
	HasDst bool
	Dst    string
	Callee string
	Args   []Value
	Type   types.Type
}

type AllocaInstr struct {
	Dst  string
	Type types.Type
}

type LoadInstr struct {
	Dst    string
	Global string
	Type   types.Type
}

type StoreInstr struct {
	Global string
	Src    Value
}

// Dest returns the variable the instruction defines, if any.
func (in *Instr) Dest() (string, bool) {
	switch in.Kind {
	case InstrAssign:
		return in.Assign.Dst, true
	case InstrBinary:
		return in.Binary.Dst, true
	case InstrUnary:
		return in.Unary.Dst, true
	case InstrCall:
		return in.Call.Dst, in.Call.HasDst
	case InstrAlloca:
		return in.Alloca.Dst, true
	case InstrLoad:
		return in.Load.Dst, true
	default:
		return "", false
	}
}

// DestType returns the type of the defined variable.
func (in *Instr) DestType() types.Type {
	switch in.Kind {
	case InstrAssign:
		return in.Assign.Type
	case InstrBinary:
		return in.Binary.Type
	case InstrUnary:
		return in.Unary.Type
	case InstrCall:
		return in.Call.Type
	case InstrAlloca:
		return in.Alloca.Type
	case InstrLoad:
		return in.Load.Type
	default:
		return types.Unit
	}
}

// Operands returns the values the instruction reads.
func (in *Instr) Operands() []Value {
	switch in.Kind {
	case InstrAssign:
		return []Value{in.Assign.Src}
	case InstrBinary:
		return []Value{in.Binary.Left, in.Binary.Right}
	case InstrUnary:
		return []Value{in.Unary.X}
	case InstrCall:
		return in.Call.Args
	case InstrStore:
		return []Value{in.Store.Src}
	default:
		return nil
	}
}

// HasSideEffects reports whether the instruction must stay even when its
// destination is unused.
func (in *Instr) HasSideEffects() bool {
	return in.Kind == InstrCall || in.Kind == InstrStore
}
