package resolve_test

import (
	"testing"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/parser"
	"kestrel/internal/resolve"
	"kestrel/internal/source"
)

func resolveSrc(t *testing.T, src string, strict bool) (*ast.Program, *resolve.Result, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(32)
	prog := parser.ParseSource(fs, "test.ks", []byte(src), ast.NewBuilder(), parser.Options{
		Reporter: diag.BagReporter{Bag: bag},
	})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	res := resolve.Resolve(prog, resolve.Options{Reporter: diag.BagReporter{Bag: bag}, Strict: strict})
	return prog, res, bag
}

func TestResolveBindsUses(t *testing.T) {
	src := `
let g = 1;
fn main() -> int {
	let x = g;
	{
		let x = 2;
		x = x + 1;
	}
	return helper(x);
}
fn helper(a: int) -> int { return a; }
`
	prog, res, bag := resolveSrc(t, src, true)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}

	kinds := map[string]resolve.SymbolKind{}
	ast.Inspect(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			sym := res.UseOf(id.ID())
			if sym == nil {
				t.Errorf("identifier %q at %v unresolved", id.Name, id.Span())
				return true
			}
			kinds[id.Name] = sym.Kind
		}
		return true
	})
	want := map[string]resolve.SymbolKind{
		"g":      resolve.SymbolGlobal,
		"x":      resolve.SymbolLocal,
		"helper": resolve.SymbolFunction,
		"a":      resolve.SymbolParam,
	}
	for name, k := range want {
		if kinds[name] != k {
			t.Errorf("%s resolved to %v, want %v", name, kinds[name], k)
		}
	}
}

func TestResolveShadowingUsesInnerScope(t *testing.T) {
	prog, res, _ := resolveSrc(t, "fn f() { let x = 1; { let x = 2; return x; } }", false)
	fn := prog.Decls[0].(*ast.FuncDecl)
	outer := fn.Body.Stmts[0].(*ast.VarDecl)
	inner := fn.Body.Stmts[1].(*ast.Block)
	innerDecl := inner.Stmts[0].(*ast.VarDecl)
	ret := inner.Stmts[1].(*ast.ReturnStmt)
	sym := res.UseOf(ret.Value.ID())
	if sym == nil || sym.Decl != innerDecl.ID() {
		t.Fatalf("return x bound to %+v, want decl %d (outer is %d)", sym, innerDecl.ID(), outer.ID())
	}
	if got := res.Scope(sym.Scope).Kind; got != resolve.ScopeBlock {
		t.Errorf("inner x scope kind = %v", got)
	}
}

func TestResolveDuplicates(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"functions", "fn f() {} fn f() {}"},
		{"global and function", "let f = 1; fn f() {}"},
		{"params", "fn f(a, a) {}"},
		{"param and local", "fn f(a) { let a = 1; }"},
		{"locals", "fn f() { let x = 1; let x = 2; }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, bag := resolveSrc(t, tt.src, false)
			if bag.Len() != 1 || bag.Items()[0].Code != diag.SemaDuplicateSymbol {
				t.Fatalf("diagnostics = %+v, want one duplicate error", bag.Items())
			}
			if len(bag.Items()[0].Notes) != 1 {
				t.Errorf("expected a note pointing at the previous declaration")
			}
		})
	}
}

func TestResolveUnresolvedPermissiveAndStrict(t *testing.T) {
	src := "fn f() { return missing + 1; }"

	_, res, bag := resolveSrc(t, src, false)
	if bag.Len() != 0 {
		t.Fatalf("permissive mode reported %+v", bag.Items())
	}
	if len(res.Unresolved) != 1 {
		t.Fatalf("unresolved = %v, want 1 entry", res.Unresolved)
	}

	_, _, bag = resolveSrc(t, src, true)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.SemaUnresolvedSymbol {
		t.Fatalf("strict mode diagnostics = %+v", bag.Items())
	}
}

func TestResolveScopeTree(t *testing.T) {
	_, res, _ := resolveSrc(t, "fn f() { if true { } else { } while false { } }", false)
	root := res.Scope(res.Root)
	if root.Kind != resolve.ScopeGlobal || len(root.Children) != 1 {
		t.Fatalf("root = %+v", root)
	}
	fnScope := res.Scope(root.Children[0])
	if fnScope.Kind != resolve.ScopeFunction || len(fnScope.Children) != 3 {
		t.Fatalf("function scope = %+v, want 3 block children", fnScope)
	}
}
