package ir_test

import (
	"errors"
	"strings"
	"testing"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/ir"
	"kestrel/internal/parser"
	"kestrel/internal/source"
	"kestrel/internal/types"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(16)
	prog := parser.ParseSource(fs, "test.ks", []byte(src), ast.NewBuilder(), parser.Options{
		Reporter: diag.BagReporter{Bag: bag},
	})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	return prog
}

func lower(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, err := ir.Lower(parseProgram(t, src))
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if err := ir.Validate(m); err != nil {
		t.Fatalf("Validate: %v\n%s", err, m)
	}
	return m
}

func trimDump(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\t", ""))
}

func TestFreshNames(t *testing.T) {
	l := ir.NewLowerer(ir.LowerOptions{})
	if a, b := l.FreshTemp(), l.FreshTemp(); a != "t0" || b != "t1" {
		t.Fatalf("FreshTemp = %s, %s; want t0, t1", a, b)
	}
	if a, b := l.FreshLabel(), l.FreshLabel(); a != "L0" || b != "L1" {
		t.Fatalf("FreshLabel = %s, %s; want L0, L1", a, b)
	}
	l.Reset()
	if got := l.FreshTemp(); got != "t0" {
		t.Fatalf("after Reset FreshTemp = %s", got)
	}
}

func TestLowerDump(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "arithmetic",
			src:  "fn main() -> int { let x = 1 + 2 * 3; return x; }",
			want: `
fn main() -> int {
entry:
  t0 = mul 2, 3
  t1 = add 1, t0
  x = t1
  return x
}`,
		},
		{
			name: "implicit return",
			src:  "fn f(a: int) { let b = -a; }",
			want: `
fn f(a: int) -> unit {
entry:
  t0 = neg a
  b = t0
  return
}`,
		},
		{
			name: "dead code after return",
			src:  "fn f() -> int { return 1; let y = 2; }",
			want: `
fn f() -> int {
entry:
  return 1
L0:
  y = 2
  return
}`,
		},
		{
			name: "if else",
			src:  "fn f(a: int) -> int { if a > 0 { return 1; } else { return 2; } }",
			want: `
fn f(a: int) -> int {
entry:
  t0 = gt a, 0
  branch t0, L0, L2
L0:
  return 1
L2:
  return 2
L1:
  return
}`,
		},
		{
			name: "while",
			src:  "fn f() { let i = 0; while i < 3 { i = i + 1; } }",
			want: `
fn f() -> unit {
entry:
  i = 0
  jump L0
L0:
  t0 = lt i, 3
  branch t0, L1, L2
L1:
  t1 = add i, 1
  i = t1
  jump L0
L2:
  return
}`,
		},
		{
			name: "short circuit",
			src:  "fn f(a: bool, b: bool) -> bool { return a && !b; }",
			want: `
fn f(a: bool, b: bool) -> bool {
entry:
  t0 = a
  branch t0, L0, L1
L0:
  t1 = not b
  t0 = t1
  jump L1
L1:
  return t0
}`,
		},
		{
			name: "globals",
			src:  "let g = 10; let h: float; fn main() { g = g + 1; }",
			want: `
global g: int = 10
global h: float

fn main() -> unit {
entry:
  t0 = load @g
  t1 = add t0, 1
  store @g, t1
  return
}`,
		},
		{
			name: "calls",
			src:  "fn add(a: int, b: int) -> int { return a + b; } fn main() { add(1, 2); let r = add(3, 4); }",
			want: `
fn add(a: int, b: int) -> int {
entry:
  t0 = add a, b
  return t0
}

fn main() -> unit {
entry:
  call add(1, 2)
  t1 = call add(3, 4)
  r = t1
  return
}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := lower(t, tt.src)
			if got, want := trimDump(m.String()), trimDump(tt.want); got != want {
				t.Errorf("got\n%s\nwant\n%s", got, want)
			}
		})
	}
}

func TestLowerLocalShadowsGlobal(t *testing.T) {
	m := lower(t, "let x = 1; fn f() -> int { let x = 2; return x; }")
	for _, in := range m.Func("f").Entry().Instrs {
		if in.Kind == ir.InstrLoad {
			t.Fatalf("local x must not be read from the global: %s", m)
		}
	}
}

func TestLowerTypes(t *testing.T) {
	m := lower(t, `fn f() { let a = 1.5 * 2.0; let b = a < 1.0; let s = "hi"; let u; }`)
	want := map[string]types.Type{"a": types.Float, "b": types.Bool, "s": types.String, "u": types.Int}
	for _, in := range m.Func("f").Entry().Instrs {
		dst, _ := in.Dest()
		if w, ok := want[dst]; ok && !in.DestType().Equal(w) {
			t.Errorf("%s: type %s, want %s", dst, in.DestType(), w)
		}
	}
}

func TestLowerUsesInferredTypes(t *testing.T) {
	prog := parseProgram(t, "fn f(x) -> int { return x; }")
	param := prog.Decls[0].(*ast.FuncDecl).Params[0]
	l := ir.NewLowerer(ir.LowerOptions{Types: func(id ast.NodeID) (types.Type, bool) {
		if id == param.ID() {
			return types.Float, true
		}
		return types.VarOf(0), true
	}})
	m, err := l.Lower(prog)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Funcs[0].Params[0].Type; !got.Equal(types.Float) {
		t.Fatalf("param type = %s, want float", got)
	}
}

func TestLowerErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"complex callee", "fn f() { f(1)(2); }", "callee must be a function name"},
		{"non constant global", "fn g() -> int { return 1; } let x = g();", "must be a constant literal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ir.Lower(parseProgram(t, tt.src))
			if err == nil {
				t.Fatalf("expected error, got module\n%s", m)
			}
			var le *ir.LowerError
			if !errors.As(err, &le) || !strings.Contains(le.Msg, tt.msg) {
				t.Fatalf("err = %v, want LowerError containing %q", err, tt.msg)
			}
			if le.Span.Empty() {
				t.Error("error carries an empty span")
			}
		})
	}
}

func TestLowerNegativeGlobal(t *testing.T) {
	m := lower(t, "let g = -5; let f = -2.5; let b = true;")
	if g, _ := m.Global("g"); g == nil || g.Init == nil || g.Init.Int != -5 {
		t.Fatalf("g = %+v", g)
	}
	if f, _ := m.Global("f"); f.Init.Float != -2.5 || !f.Type.Equal(types.Float) {
		t.Fatalf("f = %+v", f)
	}
	if b, idx := m.Global("b"); !b.Type.Equal(types.Bool) || idx != 2 {
		t.Fatalf("b = %+v at %d", b, idx)
	}
}
