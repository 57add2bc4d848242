// Package resolve builds the scope tree for a parsed program and binds
// identifier uses to their declarations.
//
// Lowering and inference match names by string and do not need the result;
// resolution is a validation pass that reports duplicate declarations and,
// in strict mode, unresolved identifiers.
package resolve

import (
	"fmt"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/source"
)

// Options configures resolution.
type Options struct {
	Reporter diag.Reporter
	// Strict reports identifiers that resolve to nothing. By default such
	// uses pass through silently.
	Strict bool
}

// Result is the scope arena produced by Resolve. Index 0 of Scopes and
// Symbols is a reserved sentinel.
type Result struct {
	Scopes  []Scope
	Symbols []Symbol
	Root    ScopeID
	// Uses maps every resolved *ast.Ident to its symbol.
	Uses map[ast.NodeID]SymbolID
	// Unresolved lists identifier nodes nothing was found for.
	Unresolved []ast.NodeID
}

func (r *Result) Scope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(r.Scopes) {
		return nil
	}
	return &r.Scopes[id]
}

func (r *Result) Symbol(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(r.Symbols) {
		return nil
	}
	return &r.Symbols[id]
}

// Lookup walks from scope up to the root and returns the nearest symbol
// named name.
func (r *Result) Lookup(scope ScopeID, name string) (SymbolID, bool) {
	for s := r.Scope(scope); s != nil; s = r.Scope(s.Parent) {
		if id, ok := s.Names[name]; ok {
			return id, true
		}
	}
	return NoSymbolID, false
}

// UseOf returns the symbol an identifier node was bound to.
func (r *Result) UseOf(id ast.NodeID) *Symbol {
	return r.Symbol(r.Uses[id])
}

type resolver struct {
	res   *Result
	opts  Options
	stack []ScopeID
}

// Resolve walks prog and returns its scope tree. Diagnostics go to
// opts.Reporter; the result is complete even when errors were reported.
func Resolve(prog *ast.Program, opts Options) *Result {
	r := &resolver{
		res: &Result{
			Scopes:  make([]Scope, 1, 16),
			Symbols: make([]Symbol, 1, 32),
			Uses:    make(map[ast.NodeID]SymbolID),
		},
		opts: opts,
	}
	r.res.Root = r.push(ScopeGlobal, prog.ID(), prog.Span())

	// глобальные имена видны до объявления: вызовы вперёд разрешены
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			r.declare(d.Name, SymbolFunction, d.ID(), d.Span())
		case *ast.VarDecl:
			r.declare(d.Name, SymbolGlobal, d.ID(), d.Span())
		}
	}
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			r.walkFunc(d)
		case *ast.VarDecl:
			r.walkExpr(d.Init)
		}
	}
	r.pop()
	return r.res
}

func (r *resolver) current() ScopeID {
	return r.stack[len(r.stack)-1]
}

func (r *resolver) push(kind ScopeKind, owner ast.NodeID, sp source.Span) ScopeID {
	parent := NoScopeID
	if len(r.stack) > 0 {
		parent = r.current()
	}
	id := ScopeID(len(r.res.Scopes))
	r.res.Scopes = append(r.res.Scopes, Scope{
		Kind:   kind,
		Parent: parent,
		Owner:  owner,
		Span:   sp,
		Names:  make(map[string]SymbolID),
	})
	if parent.IsValid() {
		p := r.res.Scope(parent)
		p.Children = append(p.Children, id)
	}
	r.stack = append(r.stack, id)
	return id
}

func (r *resolver) pop() {
	r.stack = r.stack[:len(r.stack)-1]
}

func (r *resolver) declare(name string, kind SymbolKind, decl ast.NodeID, sp source.Span) SymbolID {
	scope := r.res.Scope(r.current())
	if prev, ok := scope.Names[name]; ok {
		prevSym := r.res.Symbol(prev)
		diag.ReportError(r.opts.Reporter, diag.SemaDuplicateSymbol, sp,
			fmt.Sprintf("%s %q is already declared in this %s scope", kind, name, scope.Kind)).
			WithNote(prevSym.Span, "previous declaration here").
			Emit()
		return prev
	}
	id := SymbolID(len(r.res.Symbols))
	r.res.Symbols = append(r.res.Symbols, Symbol{
		Name:  name,
		Kind:  kind,
		Decl:  decl,
		Span:  sp,
		Scope: r.current(),
	})
	scope.Names[name] = id
	scope.Symbols = append(scope.Symbols, id)
	return id
}

func (r *resolver) walkFunc(fn *ast.FuncDecl) {
	r.push(ScopeFunction, fn.ID(), fn.Span())
	defer r.pop()
	for _, p := range fn.Params {
		r.declare(p.Name, SymbolParam, p.ID(), p.Span())
	}
	// тело функции живёт в той же области, что и параметры
	for _, st := range fn.Body.Stmts {
		r.walkStmt(st)
	}
}

func (r *resolver) walkBlock(b *ast.Block) {
	r.push(ScopeBlock, b.ID(), b.Span())
	defer r.pop()
	for _, st := range b.Stmts {
		r.walkStmt(st)
	}
}

func (r *resolver) walkStmt(st ast.Stmt) {
	switch st := st.(type) {
	case *ast.VarDecl:
		// инициализатор видит внешнюю переменную с тем же именем
		r.walkExpr(st.Init)
		r.declare(st.Name, SymbolLocal, st.ID(), st.Span())
	case *ast.Block:
		r.walkBlock(st)
	case *ast.IfStmt:
		r.walkExpr(st.Cond)
		r.walkBlock(st.Then)
		if st.Else != nil {
			r.walkStmt(st.Else)
		}
	case *ast.WhileStmt:
		r.walkExpr(st.Cond)
		r.walkBlock(st.Body)
	case *ast.ReturnStmt:
		r.walkExpr(st.Value)
	case *ast.AssignStmt:
		r.use(st.Target)
		r.walkExpr(st.Value)
	case *ast.ExprStmt:
		r.walkExpr(st.X)
	}
}

func (r *resolver) walkExpr(e ast.Expr) {
	switch e := e.(type) {
	case nil:
	case *ast.Ident:
		r.use(e)
	case *ast.BinaryExpr:
		r.walkExpr(e.Left)
		r.walkExpr(e.Right)
	case *ast.UnaryExpr:
		r.walkExpr(e.X)
	case *ast.CallExpr:
		r.walkExpr(e.Callee)
		for _, a := range e.Args {
			r.walkExpr(a)
		}
	}
}

func (r *resolver) use(id *ast.Ident) {
	if sym, ok := r.res.Lookup(r.current(), id.Name); ok {
		r.res.Uses[id.ID()] = sym
		return
	}
	r.res.Unresolved = append(r.res.Unresolved, id.ID())
	if r.opts.Strict {
		diag.ReportError(r.opts.Reporter, diag.SemaUnresolvedSymbol, id.Span(),
			fmt.Sprintf("undefined name %q", id.Name)).Emit()
	}
}
