package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"fortio.org/safecast"

	"kestrel/internal/ir"
)

// EntryFunc is called by the entry stub when the module defines it.
const EntryFunc = "main"

// Program is assembled code plus the symbol tables the CLI and the
// disassembler print.
type Program struct {
	Code      []byte
	Funcs     map[string]uint32 // function name -> start offset
	Globals   []string          // global slot -> name
	MaxLocals int               // largest slot count of any function
	HasEntry  bool              // code starts with the main stub
}

// AssembleError reports a module the assembler cannot encode.
type AssembleError struct {
	Func string
	Msg  string
}

func (e *AssembleError) Error() string {
	if e.Func == "" {
		return "assemble: " + e.Msg
	}
	return fmt.Sprintf("assemble %s: %s", e.Func, e.Msg)
}

type patchKind uint8

const (
	patchLabel patchKind = iota
	patchFunc
)

// patch is a forward reference fixed up once every address is known.
type patch struct {
	kind  patchKind
	at    int // offset of the operand payload
	fn    string
	label string
}

type labelKey struct {
	fn, label string
}

// Assembler lowers IR to bytecode. Local slots are allocated per function
// with parameters first; global slots are shared by the whole module.
type Assembler struct {
	code    []byte
	funcs   map[string]uint32
	labels  map[labelKey]uint32
	patches []patch
	globals map[string]uint16
	locals  map[string]uint16
	curFunc string
	maxLoc  int
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble encodes m into a Program.
func Assemble(m *ir.Module) ([]byte, error) {
	p, err := NewAssembler().Assemble(m)
	if err != nil {
		return nil, err
	}
	return p.Code, nil
}

// Assemble encodes m. The assembler is reset first, so one instance can
// assemble several modules in turn.
func (a *Assembler) Assemble(m *ir.Module) (*Program, error) {
	a.reset()
	prog := &Program{}

	for i, g := range m.Globals {
		slot, err := safecast.Conv[uint16](i)
		if err != nil {
			return nil, &AssembleError{Msg: fmt.Sprintf("too many globals (%d)", len(m.Globals))}
		}
		if _, dup := a.globals[g.Name]; dup {
			return nil, &AssembleError{Msg: fmt.Sprintf("duplicate global %q", g.Name)}
		}
		a.globals[g.Name] = slot
		prog.Globals = append(prog.Globals, g.Name)
	}

	if m.Func(EntryFunc) != nil {
		prog.HasEntry = true
		if err := a.entryStub(m); err != nil {
			return nil, err
		}
	}

	for _, f := range m.Funcs {
		if _, dup := a.funcs[f.Name]; dup {
			return nil, &AssembleError{Func: f.Name, Msg: "duplicate function"}
		}
		if err := a.function(f); err != nil {
			return nil, err
		}
	}
	a.emit(Simple(OpHalt))

	if err := a.resolve(); err != nil {
		return nil, err
	}
	prog.Code = a.code
	prog.Funcs = a.funcs
	prog.MaxLocals = a.maxLoc
	return prog, nil
}

func (a *Assembler) reset() {
	a.code = nil
	a.funcs = make(map[string]uint32)
	a.labels = make(map[labelKey]uint32)
	a.patches = a.patches[:0]
	a.globals = make(map[string]uint16)
	a.locals = nil
	a.curFunc = ""
	a.maxLoc = 0
}

// entryStub initialises globals, calls main and halts with its result.
func (a *Assembler) entryStub(m *ir.Module) error {
	for i := range m.Globals {
		g := &m.Globals[i]
		init := ir.Zero(g.Type)
		if g.Init != nil {
			init = *g.Init
		}
		v, err := constValue(init)
		if err != nil {
			return err
		}
		a.emit(LoadConst(v))
		a.emit(StoreGlobal(a.globals[g.Name]))
	}
	a.callee(EntryFunc)
	a.emit(Call(0))
	a.emit(Simple(OpHalt))
	return nil
}

func (a *Assembler) function(f *ir.Func) error {
	addr, err := a.pc()
	if err != nil {
		return err
	}
	a.funcs[f.Name] = addr
	a.curFunc = f.Name
	a.locals = make(map[string]uint16, len(f.Params))
	for _, p := range f.Params {
		if _, err := a.slot(p.Name); err != nil {
			return err
		}
	}

	for _, b := range f.Blocks {
		key := labelKey{f.Name, b.Label}
		if _, dup := a.labels[key]; dup {
			return a.errorf("duplicate label %q", b.Label)
		}
		if a.labels[key], err = a.pc(); err != nil {
			return err
		}
		for i := range b.Instrs {
			if err := a.instr(&b.Instrs[i]); err != nil {
				return err
			}
		}
		if err := a.term(&b.Term, b.Label); err != nil {
			return err
		}
	}
	a.maxLoc = max(a.maxLoc, len(a.locals))
	return nil
}

func (a *Assembler) instr(in *ir.Instr) error {
	switch in.Kind {
	case ir.InstrAssign:
		if err := a.push(in.Assign.Src); err != nil {
			return err
		}
		return a.store(in.Assign.Dst)
	case ir.InstrBinary:
		bin := &in.Binary
		if err := a.push(bin.Left); err != nil {
			return err
		}
		if err := a.push(bin.Right); err != nil {
			return err
		}
		a.emit(Simple(binaryOpcode(bin.Op)))
		return a.store(bin.Dst)
	case ir.InstrUnary:
		if err := a.push(in.Unary.X); err != nil {
			return err
		}
		op := OpNeg
		if in.Unary.Op == ir.OpNot {
			op = OpNot
		}
		a.emit(Simple(op))
		return a.store(in.Unary.Dst)
	case ir.InstrCall:
		call := &in.Call
		if call.Callee == "" {
			return a.errorf("call without callee")
		}
		argc, err := safecast.Conv[uint16](len(call.Args))
		if err != nil {
			return a.errorf("too many arguments to %s", call.Callee)
		}
		a.callee(call.Callee)
		for _, arg := range call.Args {
			if err := a.push(arg); err != nil {
				return err
			}
		}
		a.emit(Call(argc))
		if !call.HasDst {
			a.emit(Simple(OpPop))
			return nil
		}
		return a.store(call.Dst)
	case ir.InstrAlloca:
		v, err := constValue(ir.Zero(in.Alloca.Type))
		if err != nil {
			return err
		}
		a.emit(LoadConst(v))
		return a.store(in.Alloca.Dst)
	case ir.InstrLoad:
		slot, ok := a.globals[in.Load.Global]
		if !ok {
			return a.errorf("unknown global %q", in.Load.Global)
		}
		a.emit(LoadGlobal(slot))
		return a.store(in.Load.Dst)
	case ir.InstrStore:
		slot, ok := a.globals[in.Store.Global]
		if !ok {
			return a.errorf("unknown global %q", in.Store.Global)
		}
		if err := a.push(in.Store.Src); err != nil {
			return err
		}
		a.emit(StoreGlobal(slot))
		return nil
	default:
		return a.errorf("unsupported instruction %v", in.Kind)
	}
}

func (a *Assembler) term(t *ir.Terminator, label string) error {
	switch t.Kind {
	case ir.TermReturn:
		if t.Return.HasValue {
			if err := a.push(t.Return.Value); err != nil {
				return err
			}
		}
		a.emit(Simple(OpReturn))
	case ir.TermJump:
		a.jump(OpJump, t.Jump.Target)
	case ir.TermBranch:
		if err := a.push(t.Branch.Cond); err != nil {
			return err
		}
		a.jump(OpJumpIfFalse, t.Branch.Else)
		a.jump(OpJump, t.Branch.Then)
	default:
		return a.errorf("block %q has no terminator", label)
	}
	return nil
}

func binaryOpcode(op ir.BinOp) Opcode {
	switch op {
	case ir.OpAdd:
		return OpAdd
	case ir.OpSub:
		return OpSub
	case ir.OpMul:
		return OpMul
	case ir.OpDiv:
		return OpDiv
	case ir.OpEq:
		return OpEq
	case ir.OpNe:
		return OpNe
	case ir.OpLt:
		return OpLt
	case ir.OpLe:
		return OpLe
	case ir.OpGt:
		return OpGt
	default:
		return OpGe
	}
}

// push loads v onto the operand stack. A variable read before any write
// gets a fresh slot and reads Unit.
func (a *Assembler) push(v ir.Value) error {
	if v.IsConst() {
		c, err := constValue(v.Const)
		if err != nil {
			return err
		}
		a.emit(LoadConst(c))
		return nil
	}
	slot, err := a.slot(v.Name)
	if err != nil {
		return err
	}
	a.emit(LoadLocal(slot))
	return nil
}

func (a *Assembler) store(name string) error {
	if name == "" {
		return a.errorf("instruction without destination")
	}
	slot, err := a.slot(name)
	if err != nil {
		return err
	}
	a.emit(StoreLocal(slot))
	return nil
}

func (a *Assembler) slot(name string) (uint16, error) {
	if s, ok := a.locals[name]; ok {
		return s, nil
	}
	s, err := safecast.Conv[uint16](len(a.locals))
	if err != nil {
		return 0, a.errorf("too many locals")
	}
	a.locals[name] = s
	return s, nil
}

func (a *Assembler) callee(name string) {
	a.patches = append(a.patches, patch{kind: patchFunc, at: len(a.code) + 2, fn: name})
	a.emit(LoadConst(Int(0)))
}

func (a *Assembler) jump(op Opcode, label string) {
	a.patches = append(a.patches, patch{kind: patchLabel, at: len(a.code) + 1, fn: a.curFunc, label: label})
	a.emit(Instruction{Op: op})
}

func (a *Assembler) resolve() error {
	for _, p := range a.patches {
		switch p.kind {
		case patchLabel:
			addr, ok := a.labels[labelKey{p.fn, p.label}]
			if !ok {
				return &AssembleError{Func: p.fn, Msg: fmt.Sprintf("unknown label %q", p.label)}
			}
			binary.LittleEndian.PutUint32(a.code[p.at:], addr)
		case patchFunc:
			addr, ok := a.funcs[p.fn]
			if !ok {
				return &AssembleError{Msg: fmt.Sprintf("call to undefined function %q", p.fn)}
			}
			binary.LittleEndian.PutUint64(a.code[p.at:], uint64(addr))
		}
	}
	return nil
}

func (a *Assembler) emit(in Instruction) {
	a.code = in.AppendTo(a.code)
}

func (a *Assembler) pc() (uint32, error) {
	pc, err := safecast.Conv[uint32](len(a.code))
	if err != nil {
		return 0, &AssembleError{Func: a.curFunc, Msg: "code exceeds 4 GiB"}
	}
	return pc, nil
}

func (a *Assembler) errorf(format string, args ...any) error {
	return &AssembleError{Func: a.curFunc, Msg: fmt.Sprintf(format, args...)}
}

// constValue maps an IR constant to its runtime value.
func constValue(c ir.Const) (Value, error) {
	switch c.Kind {
	case ir.ConstInt:
		return Int(c.Int), nil
	case ir.ConstFloat:
		return Float(c.Float), nil
	case ir.ConstBool:
		return Bool(c.Bool), nil
	case ir.ConstString:
		if uint64(len(c.Str)) > math.MaxUint32 {
			return Value{}, &AssembleError{Msg: "string constant too long"}
		}
		return String(c.Str), nil
	default:
		return Unit(), nil
	}
}
