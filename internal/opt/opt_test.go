package opt_test

import (
	"context"
	"strings"
	"testing"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/ir"
	"kestrel/internal/opt"
	"kestrel/internal/parser"
	"kestrel/internal/source"
	"kestrel/internal/trace"
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

// single builds a module with one function main -> int and one entry block.
func single(term ir.Terminator, instrs ...ir.Instr) *ir.Module {
	return &ir.Module{Funcs: []*ir.Func{{
		Name:   "main",
		Result: types.Int,
		Blocks: []*ir.Block{{Label: "entry", Instrs: instrs, Term: term}},
	}}}
}

func binary(dst string, op ir.BinOp, a, b ir.Value) ir.Instr {
	return ir.Instr{Kind: ir.InstrBinary, Binary: ir.BinaryInstr{Dst: dst, Op: op, Left: a, Right: b, Type: types.Int}}
}

func intv(v int64) ir.Value { return ir.ConstValue(ir.IntConst(v)) }

func TestPipeline(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		want  string
		iters int
	}{
		{
			name: "fold without propagation",
			src:  "fn main() -> int { let x = 1 + 2 * 3; return x; }",
			want: `
fn main() -> int {
entry:
  t0 = 6
  t1 = add 1, t0
  x = t1
  return x
}`,
			iters: 2,
		},
		{
			name: "dead store",
			src:  "fn f() -> int { let y = 2 * 2; return 1; }",
			want: `
fn f() -> int {
entry:
  return 1
}`,
			iters: 3,
		},
		{
			name: "unread call keeps the call",
			src:  "fn g() -> int { return 1; } fn main() { let r = g(); }",
			want: `
fn g() -> int {
entry:
  return 1
}

fn main() -> unit {
entry:
  call g()
  return
}`,
			iters: 3,
		},
		{
			name: "folded condition",
			src:  "fn f() -> bool { return !(1 < 2); }",
			want: `
fn f() -> bool {
entry:
  t0 = true
  t1 = not t0
  return t1
}`,
			iters: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := lower(t, tt.src)
			st := opt.NewDefault().Run(m)
			if got, want := strings.TrimSpace(m.String()), strings.TrimSpace(tt.want); got != want {
				t.Errorf("got\n%s\nwant\n%s", got, want)
			}
			if !st.Converged || st.Iterations != tt.iters {
				t.Errorf("stats = %+v, want converged after %d iterations", st, tt.iters)
			}
			if err := ir.Validate(m); err != nil {
				t.Errorf("Validate after opt: %v", err)
			}
		})
	}
}

func TestFoldSubOrder(t *testing.T) {
	m := single(ir.Return(ir.Var("t0")), binary("t0", ir.OpSub, intv(5), intv(2)))
	if !(opt.ConstantFolding{}).Run(m) {
		t.Fatal("expected a change")
	}
	in := m.Funcs[0].Blocks[0].Instrs[0]
	if in.Kind != ir.InstrAssign || in.Assign.Src.Const != ir.IntConst(3) {
		t.Fatalf("Sub(5, 2) folded to %s, want 3", ir.FormatInstr(&in))
	}
}

func TestFoldStringConcat(t *testing.T) {
	m := lower(t, `fn main() -> string { return "a" + "b"; }`)
	if !(opt.ConstantFolding{}).Run(m) {
		t.Fatal("expected a change")
	}
	in := m.Funcs[0].Blocks[0].Instrs[0]
	if in.Kind != ir.InstrAssign || in.Assign.Src.Const != ir.StringConst("ab") {
		t.Fatalf("\"a\" + \"b\" folded to %s", ir.FormatInstr(&in))
	}
}

func TestFoldDivisionByZero(t *testing.T) {
	for _, zero := range []ir.Value{intv(0), ir.ConstValue(ir.FloatConst(0))} {
		one := intv(1)
		if zero.Const.Kind == ir.ConstFloat {
			one = ir.ConstValue(ir.FloatConst(1))
		}
		m := single(ir.Return(ir.Var("t0")), binary("t0", ir.OpDiv, one, zero))
		if (opt.ConstantFolding{}).Run(m) {
			t.Errorf("division by %s must not fold", zero)
		}
		if k := m.Funcs[0].Blocks[0].Instrs[0].Kind; k != ir.InstrBinary {
			t.Errorf("instruction kind = %v, want binary", k)
		}
	}
}

func TestFoldBinary(t *testing.T) {
	tests := []struct {
		op   ir.BinOp
		a, b ir.Const
		want ir.Const
		ok   bool
	}{
		{ir.OpMul, ir.IntConst(6), ir.IntConst(7), ir.IntConst(42), true},
		{ir.OpDiv, ir.IntConst(7), ir.IntConst(2), ir.IntConst(3), true},
		{ir.OpGe, ir.IntConst(2), ir.IntConst(3), ir.BoolConst(false), true},
		{ir.OpAdd, ir.FloatConst(1.5), ir.FloatConst(2), ir.FloatConst(3.5), true},
		{ir.OpLt, ir.FloatConst(1), ir.FloatConst(2), ir.BoolConst(true), true},
		{ir.OpEq, ir.BoolConst(true), ir.BoolConst(true), ir.BoolConst(true), true},
		{ir.OpNe, ir.BoolConst(true), ir.BoolConst(false), ir.BoolConst(true), true},
		{ir.OpAdd, ir.BoolConst(true), ir.BoolConst(false), ir.Const{}, false},
		{ir.OpAdd, ir.IntConst(1), ir.FloatConst(1), ir.Const{}, false},
		{ir.OpAdd, ir.StringConst("ke"), ir.StringConst("strel"), ir.StringConst("kestrel"), true},
		{ir.OpEq, ir.StringConst("a"), ir.StringConst("a"), ir.BoolConst(true), true},
		{ir.OpLt, ir.StringConst("a"), ir.StringConst("b"), ir.BoolConst(true), true},
		{ir.OpMul, ir.StringConst("a"), ir.StringConst("b"), ir.Const{}, false},
		{ir.OpAdd, ir.StringConst("a"), ir.IntConst(1), ir.Const{}, false},
	}
	for _, tt := range tests {
		got, ok := opt.FoldBinary(tt.op, tt.a, tt.b)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("FoldBinary(%s, %s, %s) = %s, %v; want %s, %v", tt.op, tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFoldUnary(t *testing.T) {
	if got, ok := opt.FoldUnary(ir.OpNeg, ir.IntConst(4)); !ok || got != ir.IntConst(-4) {
		t.Errorf("neg 4 = %s, %v", got, ok)
	}
	if got, ok := opt.FoldUnary(ir.OpNot, ir.BoolConst(false)); !ok || got != ir.BoolConst(true) {
		t.Errorf("not false = %s, %v", got, ok)
	}
	if _, ok := opt.FoldUnary(ir.OpNot, ir.IntConst(1)); ok {
		t.Error("not on int must not fold")
	}
}

func TestDCEIdempotent(t *testing.T) {
	m := lower(t, "fn main(a: int) -> int { let x = a + 1; let dead = a * 2; return x; }")
	dce := opt.DeadCodeElimination{}
	if !dce.Run(m) {
		t.Fatal("first run should remove dead definitions")
	}
	for dce.Run(m) {
	}
	before := m.String()
	if dce.Run(m) {
		t.Fatal("DCE on minimal IR reported a change")
	}
	if m.String() != before {
		t.Fatal("DCE on minimal IR modified the module")
	}
	if strings.Contains(before, "dead") {
		t.Fatalf("dead definition survived:\n%s", before)
	}
}

func TestDCEKeepsStores(t *testing.T) {
	m := lower(t, "let g = 0; fn main() { g = 5; }")
	if (opt.DeadCodeElimination{}).Run(m) {
		t.Fatalf("store must not be removed:\n%s", m)
	}
}

func TestDCEModuleWideUses(t *testing.T) {
	// x is read in g, which keeps the unread x in f alive.
	m := lower(t, "fn f() { let x = 1; } fn g(x: int) -> int { return x; }")
	opt.NewDefault().Run(m)
	if n := len(m.Func("f").Entry().Instrs); n != 1 {
		t.Fatalf("f has %d instructions, want 1:\n%s", n, m)
	}
}

type alwaysChanged struct{ runs int }

func (p *alwaysChanged) Name() string        { return "always" }
func (p *alwaysChanged) Run(*ir.Module) bool { p.runs++; return true }

func TestIterationCap(t *testing.T) {
	mgr, err := opt.NewManager(opt.Options{MaxIterations: 3, Passes: []string{opt.PassConstFold}})
	if err != nil {
		t.Fatal(err)
	}
	p := &alwaysChanged{}
	mgr.Add(p)
	st := mgr.Run(single(ir.ReturnNone()))
	if st.Iterations != 3 || st.Converged || p.runs != 3 {
		t.Fatalf("stats = %+v, runs = %d", st, p.runs)
	}
}

func TestNewManager(t *testing.T) {
	mgr, err := opt.NewManager(opt.Options{Disabled: []string{opt.PassDCE}})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(mgr.Passes(), ","); got != opt.PassConstFold {
		t.Errorf("passes = %s", got)
	}
	if _, err := opt.NewManager(opt.Options{Passes: []string{"inline"}}); err == nil {
		t.Error("unknown pass must be rejected")
	}
	if _, err := opt.NewManager(opt.Options{Disabled: []string{"inline"}}); err == nil {
		t.Error("unknown disabled pass must be rejected")
	}
}

func TestSimplifyCFG(t *testing.T) {
	m := &ir.Module{Funcs: []*ir.Func{{
		Name:   "f",
		Params: []ir.Param{{Name: "c", Type: types.Bool}},
		Result: types.Unit,
		Blocks: []*ir.Block{
			{Label: "entry", Term: ir.Branch(ir.Var("c"), "A", "B")},
			{Label: "A", Term: ir.Jump("C")},
			{Label: "B", Term: ir.Jump("C")},
			{Label: "C", Term: ir.ReturnNone()},
			{Label: "orphan", Term: ir.Jump("C")},
		},
	}}}
	mgr, err := opt.NewManager(opt.Options{Passes: []string{opt.PassSimplifyCFG}})
	if err != nil {
		t.Fatal(err)
	}
	mgr.Run(m)

	f := m.Funcs[0]
	if len(f.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2:\n%s", len(f.Blocks), m)
	}
	if term := f.Entry().Term; term.Kind != ir.TermJump || term.Jump.Target != "C" {
		t.Fatalf("entry terminator = %s", ir.FormatTerm(&term))
	}
	if err := ir.Validate(m); err != nil {
		t.Fatal(err)
	}
}

func TestSimplifyCFGDeadTail(t *testing.T) {
	m := lower(t, "fn f() -> int { return 1; let y = 2; }")
	mgr, err := opt.NewManager(opt.Options{Passes: []string{opt.PassSimplifyCFG, opt.PassDCE}})
	if err != nil {
		t.Fatal(err)
	}
	mgr.Run(m)
	if n := len(m.Funcs[0].Blocks); n != 1 {
		t.Fatalf("got %d blocks, want 1:\n%s", n, m)
	}
}

func TestRunTracesPasses(t *testing.T) {
	r := trace.NewRingTracer(64, trace.LevelPass)
	ctx := trace.WithTracer(context.Background(), r)
	opt.NewDefault().RunContext(ctx, lower(t, "fn main() -> int { return 1 + 1; }"))

	var begins []string
	for _, ev := range r.Snapshot() {
		if ev.Kind == trace.KindSpanBegin {
			begins = append(begins, ev.Name)
		}
	}
	want := "opt/const-fold,opt/dce,opt/const-fold,opt/dce"
	if got := strings.Join(begins, ","); got != want {
		t.Fatalf("pass spans = %s, want %s", got, want)
	}
}
