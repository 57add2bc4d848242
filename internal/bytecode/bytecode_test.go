package bytecode_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"kestrel/internal/ast"
	"kestrel/internal/bytecode"
	"kestrel/internal/diag"
	"kestrel/internal/ir"
	"kestrel/internal/parser"
	"kestrel/internal/source"
	"kestrel/internal/types"
)

func lower(t *testing.T, src string) *ir.Module {
	t.Helper()
	bag := diag.NewBag(16)
	prog := parser.ParseSource(source.NewFileSet(), "test.ks", []byte(src), ast.NewBuilder(), parser.Options{
		Reporter: diag.BagReporter{Bag: bag},
	})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	m, err := ir.Lower(prog)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	return m
}

func assemble(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	p, err := bytecode.NewAssembler().Assemble(lower(t, src))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return p
}

func decodeAll(t *testing.T, code []byte, from int) []bytecode.Instruction {
	t.Helper()
	var out []bytecode.Instruction
	for pc := from; pc < len(code); {
		in, n, err := bytecode.Decode(code, pc)
		if err != nil {
			t.Fatalf("Decode at %d: %v", pc, err)
		}
		out = append(out, in)
		pc += n
	}
	return out
}

func TestNopEncoding(t *testing.T) {
	if got := bytecode.Simple(bytecode.OpNop).Encode(); len(got) != 1 || got[0] != 0x00 {
		t.Fatalf("Nop encodes to %x", got)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []bytecode.Instruction{
		bytecode.Simple(bytecode.OpNop),
		bytecode.LoadConst(bytecode.Unit()),
		bytecode.LoadConst(bytecode.Int(-42)),
		bytecode.LoadConst(bytecode.Float(2.5)),
		bytecode.LoadConst(bytecode.Bool(true)),
		bytecode.LoadConst(bytecode.String("héllo")),
		bytecode.LoadLocal(7),
		bytecode.StoreLocal(65535),
		bytecode.LoadGlobal(1),
		bytecode.StoreGlobal(2),
		bytecode.Simple(bytecode.OpAdd),
		bytecode.Simple(bytecode.OpNot),
		bytecode.Jump(0xDEADBEEF),
		bytecode.JumpIfTrue(3),
		bytecode.JumpIfFalse(4),
		bytecode.Call(2),
		bytecode.Simple(bytecode.OpReturn),
		bytecode.Simple(bytecode.OpDup),
		bytecode.Simple(bytecode.OpHalt),
	}
	for _, want := range tests {
		code := want.Encode()
		if len(code) != want.Size() {
			t.Errorf("%s: encoded %d bytes, Size() = %d", want, len(code), want.Size())
		}
		if bytecode.Opcode(code[0]) != want.Op {
			t.Errorf("%s: opcode byte 0x%02X", want, code[0])
		}
		got, n, err := bytecode.Decode(code, 0)
		if err != nil {
			t.Fatalf("%s: Decode: %v", want, err)
		}
		if got != want || n != len(code) {
			t.Errorf("round trip %s -> %s (%d bytes)", want, got, n)
		}
	}
}

func TestOpcodeValues(t *testing.T) {
	tests := []struct {
		op   bytecode.Opcode
		want byte
	}{
		{bytecode.OpLoadConst, 0x10},
		{bytecode.OpStoreGlobal, 0x14},
		{bytecode.OpNeg, 0x24},
		{bytecode.OpNot, 0x36},
		{bytecode.OpJumpIfFalse, 0x42},
		{bytecode.OpReturn, 0x51},
		{bytecode.OpDup, 0x61},
		{bytecode.OpHalt, 0xFF},
	}
	for _, tt := range tests {
		if byte(tt.op) != tt.want {
			t.Errorf("%s = 0x%02X, want 0x%02X", tt.op, byte(tt.op), tt.want)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want error
	}{
		{"unknown opcode", []byte{0x99}, bytecode.ErrInvalidOpcode},
		{"short slot", []byte{0x11, 0x01}, bytecode.ErrTruncated},
		{"short address", []byte{0x40, 0, 0}, bytecode.ErrTruncated},
		{"short int", []byte{0x10, 0x01, 1, 2}, bytecode.ErrTruncated},
		{"bad tag", []byte{0x10, 0x09}, bytecode.ErrInvalidConst},
		{"bad bool", []byte{0x10, 0x03, 2}, bytecode.ErrInvalidConst},
		{"short string", []byte{0x10, 0x04, 5, 0, 0, 0, 'a'}, bytecode.ErrTruncated},
		{"past end", nil, bytecode.ErrTruncated},
	}
	for _, tt := range tests {
		_, _, err := bytecode.Decode(tt.code, 0)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
		var de *bytecode.DecodeError
		if !errors.As(err, &de) {
			t.Errorf("%s: %T is not a *DecodeError", tt.name, err)
		}
	}
}

func TestDisassembleEntryStub(t *testing.T) {
	p := assemble(t, "fn main() -> int { return 1 + 2; }")
	var buf bytes.Buffer
	if err := bytecode.DisassembleProgram(&buf, p); err != nil {
		t.Fatal(err)
	}
	want := `
0000  10  LoadConst 14
0010  50  Call 0
0013  FF  Halt
main:
0014  10  LoadConst 1
0024  10  LoadConst 2
0034  20  Add
0035  12  StoreLocal 0
0038  11  LoadLocal 0
0041  51  Return
0042  FF  Halt`
	if got := strings.TrimSpace(buf.String()); got != strings.TrimSpace(want) {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
	if !p.HasEntry || p.Funcs["main"] != 14 {
		t.Errorf("program = %+v", p)
	}
}

func TestForwardLabelsResolve(t *testing.T) {
	p := assemble(t, "fn f() { let i = 0; while i < 3 { i = i + 1; } if i == 3 { i = 0; } }")
	if p.HasEntry {
		t.Fatal("no main, no entry stub")
	}
	starts := map[uint32]bool{}
	var jumps []bytecode.Instruction
	pc := 0
	for pc < len(p.Code) {
		in, n, err := bytecode.Decode(p.Code, pc)
		if err != nil {
			t.Fatal(err)
		}
		starts[uint32(pc)] = true
		if in.Op.Operand() == bytecode.OperandAddr {
			jumps = append(jumps, in)
		}
		pc += n
	}
	if len(jumps) == 0 {
		t.Fatal("expected jumps")
	}
	for _, j := range jumps {
		if j.Addr == 0 || !starts[j.Addr] {
			t.Errorf("%s does not target an instruction boundary", j)
		}
	}
}

func TestSlotsPerFunction(t *testing.T) {
	p := assemble(t, "fn f(x: int) -> int { return x; } fn g(y: int, x: int) -> int { return x; }")
	for name, want := range map[string]uint16{"f": 0, "g": 1} {
		first := decodeAll(t, p.Code, int(p.Funcs[name]))[0]
		if first.Op != bytecode.OpLoadLocal || first.Slot != want {
			t.Errorf("%s starts with %s, want LoadLocal %d", name, first, want)
		}
	}
}

func TestEntryInitialisesGlobals(t *testing.T) {
	p := assemble(t, "let g = 5; let h: bool; fn main() -> int { return g; }")
	got := decodeAll(t, p.Code, 0)[:4]
	want := []bytecode.Instruction{
		bytecode.LoadConst(bytecode.Int(5)),
		bytecode.StoreGlobal(0),
		bytecode.LoadConst(bytecode.Bool(false)),
		bytecode.StoreGlobal(1),
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instr %d = %s, want %s", i, got[i], want[i])
		}
	}
	if strings.Join(p.Globals, ",") != "g,h" {
		t.Errorf("globals = %v", p.Globals)
	}
}

func TestCallWithoutDestPops(t *testing.T) {
	p := assemble(t, "fn g() -> int { return 1; } fn main() { g(); }")
	ins := decodeAll(t, p.Code, int(p.Funcs["main"]))
	if ins[0].Op != bytecode.OpLoadConst || ins[0].Const != bytecode.Int(int64(p.Funcs["g"])) {
		t.Fatalf("callee load = %s", ins[0])
	}
	if ins[1] != bytecode.Call(0) || ins[2].Op != bytecode.OpPop {
		t.Fatalf("got %s, %s", ins[1], ins[2])
	}
}

func TestAssembleErrors(t *testing.T) {
	fn := func(blocks ...*ir.Block) *ir.Module {
		return &ir.Module{Funcs: []*ir.Func{{Name: "f", Result: types.Unit, Blocks: blocks}}}
	}
	tests := []struct {
		name string
		m    *ir.Module
		want string
	}{
		{"undefined callee", fn(&ir.Block{
			Label:  "entry",
			Instrs: []ir.Instr{{Kind: ir.InstrCall, Call: ir.CallInstr{Callee: "nope"}}},
			Term:   ir.ReturnNone(),
		}), `undefined function "nope"`},
		{"unknown label", fn(&ir.Block{Label: "entry", Term: ir.Jump("L9")}), `unknown label "L9"`},
		{"open block", fn(&ir.Block{Label: "entry"}), "no terminator"},
		{"unknown global", fn(&ir.Block{
			Label:  "entry",
			Instrs: []ir.Instr{{Kind: ir.InstrLoad, Load: ir.LoadInstr{Dst: "x", Global: "g"}}},
			Term:   ir.ReturnNone(),
		}), `unknown global "g"`},
	}
	for _, tt := range tests {
		_, err := bytecode.Assemble(tt.m)
		var ae *bytecode.AssembleError
		if !errors.As(err, &ae) || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: err = %v, want %q", tt.name, err, tt.want)
		}
	}
}

func TestFuncAt(t *testing.T) {
	p := assemble(t, "fn a() {} fn main() { a(); }")
	if name, ok := p.FuncAt(int(p.Funcs["main"]) + 1); !ok || name != "main" {
		t.Errorf("FuncAt = %q, %v", name, ok)
	}
	if _, ok := p.FuncAt(0); ok {
		t.Error("entry stub belongs to no function")
	}
}
