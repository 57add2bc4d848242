package parser_test

import (
	"testing"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/parser"
	"kestrel/internal/source"
)

func parse(t *testing.T, src string) (*ast.Program, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(32)
	prog := parser.ParseSource(fs, "test.ks", []byte(src), ast.NewBuilder(), parser.Options{
		Reporter: diag.BagReporter{Bag: bag},
	})
	return prog, bag
}

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, bag := parse(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics for %q: %+v", src, bag.Items())
	}
	return prog
}

func TestParsePrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "function",
			src:  "fn add(a: int, b: int) -> int { return a + b; }",
			want: "(program (fn add (a:int b:int) int (block (return (+ a b)))))",
		},
		{
			name: "untyped params and no result",
			src:  "fn f(x) { x; }",
			want: "(program (fn f (x) _ (block (expr x))))",
		},
		{
			name: "global let",
			src:  "let g: int = 4; let h;",
			want: "(program (let g:int 4) (let h))",
		},
		{
			name: "precedence",
			src:  "fn main() { return 1 + 2 * 3 - 4 / 2; }",
			want: "(program (fn main () _ (block (return (- (+ 1 (* 2 3)) (/ 4 2))))))",
		},
		{
			name: "logical and comparison",
			src:  "fn main() { return a < b && b != c || !d; }",
			want: "(program (fn main () _ (block (return (|| (&& (< a b) (!= b c)) (! d))))))",
		},
		{
			name: "parens and unary",
			src:  "fn main() { return -(1 + 2) * x; }",
			want: "(program (fn main () _ (block (return (* (- (+ 1 2)) x)))))",
		},
		{
			name: "if else chain",
			src:  "fn main() { if a { return 1; } else if b { return 2; } else { return 3; } }",
			want: "(program (fn main () _ (block (if a (block (return 1)) (if b (block (return 2)) (block (return 3)))))))",
		},
		{
			name: "while and assignment",
			src:  "fn main() { let i = 0; while i < 10 { i = i + 1; } return; }",
			want: "(program (fn main () _ (block (let i 0) (while (< i 10) (block (= i (+ i 1)))) (return))))",
		},
		{
			name: "calls",
			src:  `fn main() { print("hi", f(1), g()); }`,
			want: `(program (fn main () _ (block (expr (call print "hi" (call f 1) (call g))))))`,
		},
		{
			name: "literals",
			src:  "fn main() { let a = 1_000; let b = 2.5; let c = true; let d = (); }",
			want: "(program (fn main () _ (block (let a 1000) (let b 2.5) (let c true) (let d ()))))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustParse(t, tt.src)
			if got := ast.Sprint(prog); got != tt.want {
				t.Errorf("got\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestParseSpansCoverTokens(t *testing.T) {
	src := "fn main() { return 1 + 22; }"
	prog := mustParse(t, src)
	fn := prog.Decls[0].(*ast.FuncDecl)
	if sp := fn.Span(); sp.Start != 0 || int(sp.End) != len(src) {
		t.Fatalf("fn span = %v, want 0..%d", sp, len(src))
	}
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	bin := ret.Value.(*ast.BinaryExpr)
	if got := src[bin.Span().Start:bin.Span().End]; got != "1 + 22" {
		t.Errorf("binary span text = %q", got)
	}
	if got := src[ret.Span().Start:ret.Span().End]; got != "return 1 + 22;" {
		t.Errorf("return span text = %q", got)
	}
}

func TestParseUniqueIDs(t *testing.T) {
	prog := mustParse(t, "fn f(a) { let x = a + 1; return x; }")
	seen := map[ast.NodeID]bool{}
	ast.Inspect(prog, func(n ast.Node) bool {
		if !n.ID().IsValid() {
			t.Errorf("node %T has no id", n)
		}
		if seen[n.ID()] {
			t.Errorf("duplicate id %d on %T", n.ID(), n)
		}
		seen[n.ID()] = true
		return true
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"missing semicolon", "fn main() { let x = 1 }", diag.SynExpectSemicolon},
		{"missing expression", "fn main() { return +; }", diag.SynExpectExpression},
		{"bad top level", "return 1;", diag.SynUnexpectedTopLevel},
		{"missing name", "fn (a) {}", diag.SynExpectIdentifier},
		{"unclosed brace", "fn main() { let x = 1;", diag.SynUnclosedBrace},
		{"missing type", "fn f(a: ) {}", diag.SynExpectType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := parse(t, tt.src)
			if !bag.HasErrors() {
				t.Fatalf("expected errors for %q", tt.src)
			}
			found := false
			for _, d := range bag.Items() {
				if d.Code == tt.code {
					found = true
				}
			}
			if !found {
				t.Errorf("code %v not reported; got %+v", tt.code, bag.Items())
			}
		})
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	prog, bag := parse(t, "fn bad() { let = 3; } fn good() { return 1; }")
	if !bag.HasErrors() {
		t.Fatal("expected an error")
	}
	var names []string
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			names = append(names, fn.Name)
		}
	}
	if len(names) != 2 || names[1] != "good" {
		t.Fatalf("recovered functions = %v", names)
	}
}
