package ir

import (
	"fmt"

	"kestrel/internal/ast"
	"kestrel/internal/source"
	"kestrel/internal/types"
)

// LowerError is the first failure met while lowering; it aborts the pass.
type LowerError struct {
	Span source.Span
	Msg  string
}

func (e *LowerError) Error() string {
	return e.Msg
}

// TypeFunc returns the inferred type of a node, when known.
type TypeFunc func(ast.NodeID) (types.Type, bool)

type LowerOptions struct {
	// Types, when set, supplies inferred types for temporaries and
	// declarations. Missing or unresolved entries fall back to the type
	// derived from the expression's shape.
	Types TypeFunc
}

// Lowerer turns an AST into an IR module. Temporaries and labels come from
// per-instance counters, so one Lowerer yields unique names across every
// module it lowers until Reset is called.
type Lowerer struct {
	opts  LowerOptions
	temp  int
	label int

	mod     *Module
	funcs   map[string]*ast.FuncDecl
	globals map[string]types.Type

	fn     *Func
	cur    *Block
	scopes []map[string]types.Type
	temps  map[string]types.Type
}

func NewLowerer(opts LowerOptions) *Lowerer {
	return &Lowerer{opts: opts}
}

// Lower converts prog with a fresh Lowerer.
func Lower(prog *ast.Program) (*Module, error) {
	return NewLowerer(LowerOptions{}).Lower(prog)
}

// FreshTemp returns t0, t1, ...
func (l *Lowerer) FreshTemp() string {
	name := fmt.Sprintf("t%d", l.temp)
	l.temp++
	return name
}

// FreshLabel returns L0, L1, ...
func (l *Lowerer) FreshLabel() string {
	name := fmt.Sprintf("L%d", l.label)
	l.label++
	return name
}

// Reset rewinds the name counters.
func (l *Lowerer) Reset() {
	l.temp = 0
	l.label = 0
}

// Lower converts prog. The first error aborts lowering and no module is
// returned.
func (l *Lowerer) Lower(prog *ast.Program) (*Module, error) {
	l.mod = &Module{}
	l.funcs = make(map[string]*ast.FuncDecl)
	l.globals = make(map[string]types.Type)
	defer func() {
		l.fn, l.cur, l.scopes, l.temps = nil, nil, nil, nil
	}()

	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			l.funcs[d.Name] = d
		case *ast.VarDecl:
			g, err := l.lowerGlobal(d)
			if err != nil {
				return nil, err
			}
			l.globals[g.Name] = g.Type
			l.mod.Globals = append(l.mod.Globals, g)
		}
	}
	for _, d := range prog.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok {
			continue
		}
		f, err := l.lowerFunc(fd)
		if err != nil {
			return nil, err
		}
		l.mod.Funcs = append(l.mod.Funcs, f)
	}
	return l.mod, nil
}

func (l *Lowerer) lowerGlobal(d *ast.VarDecl) (Global, error) {
	g := Global{Name: d.Name, Type: types.Int}
	if d.Init != nil {
		c, ok := constOf(d.Init)
		if !ok {
			return g, &LowerError{Span: d.Init.Span(), Msg: fmt.Sprintf("initializer of global %q must be a constant literal", d.Name)}
		}
		g.Init = &c
		g.Type = c.Type()
	}
	if d.Type != nil {
		g.Type = types.FromName(d.Type.Name)
	} else if t, ok := l.inferred(d.ID()); ok {
		g.Type = t
	}
	return g, nil
}

// constOf accepts literals and negated numeric literals.
func constOf(e ast.Expr) (Const, bool) {
	switch e := e.(type) {
	case *ast.Literal:
		return literalConst(e), true
	case *ast.UnaryExpr:
		if e.Op != ast.UnaryNeg {
			return Const{}, false
		}
		c, ok := constOf(e.X)
		switch {
		case !ok:
			return Const{}, false
		case c.Kind == ConstInt:
			return IntConst(-c.Int), true
		case c.Kind == ConstFloat:
			return FloatConst(-c.Float), true
		}
	}
	return Const{}, false
}

func literalConst(lit *ast.Literal) Const {
	switch lit.Kind {
	case ast.LitInt:
		return IntConst(lit.Int)
	case ast.LitFloat:
		return FloatConst(lit.Float)
	case ast.LitBool:
		return BoolConst(lit.Bool)
	case ast.LitString:
		return StringConst(lit.Str)
	default:
		return UnitConst()
	}
}

func (l *Lowerer) lowerFunc(fd *ast.FuncDecl) (*Func, error) {
	f := &Func{Name: fd.Name, Result: l.resultType(fd)}
	l.fn = f
	l.scopes = []map[string]types.Type{{}}
	l.temps = make(map[string]types.Type)
	for _, p := range fd.Params {
		pt := types.Int
		if p.Type != nil {
			pt = types.FromName(p.Type.Name)
		} else if t, ok := l.inferred(p.ID()); ok {
			pt = t
		}
		f.Params = append(f.Params, Param{Name: p.Name, Type: pt})
		l.declare(p.Name, pt)
	}

	l.cur = l.newBlock("entry")
	for _, st := range fd.Body.Stmts {
		if err := l.lowerStmt(st); err != nil {
			return nil, err
		}
	}
	// неявный return на каждом незавершённом блоке
	for _, b := range f.Blocks {
		if !b.Terminated() {
			b.Term = ReturnNone()
		}
	}
	return f, nil
}

// resultType: annotation, then inferred signature, then int when the body
// returns a value and unit otherwise.
func (l *Lowerer) resultType(fd *ast.FuncDecl) types.Type {
	if fd.Result != nil {
		return types.FromName(fd.Result.Name)
	}
	if t, ok := l.inferred(fd.ID()); ok && t.Kind == types.KindFunc && !t.Ret.IsVar() {
		return *t.Ret
	}
	returnsValue := false
	ast.Inspect(fd.Body, func(n ast.Node) bool {
		if r, ok := n.(*ast.ReturnStmt); ok && r.Value != nil {
			returnsValue = true
		}
		return !returnsValue
	})
	if returnsValue {
		return types.Int
	}
	return types.Unit
}

func (l *Lowerer) inferred(id ast.NodeID) (types.Type, bool) {
	if l.opts.Types == nil {
		return types.Type{}, false
	}
	t, ok := l.opts.Types(id)
	if !ok || t.IsVar() || t.Kind == types.KindInvalid {
		return types.Type{}, false
	}
	return t, true
}

func (l *Lowerer) newBlock(label string) *Block {
	b := &Block{Label: label}
	l.fn.Blocks = append(l.fn.Blocks, b)
	return b
}

func (l *Lowerer) emit(in Instr) {
	if dst, ok := in.Dest(); ok {
		l.temps[dst] = in.DestType()
	}
	l.cur.Instrs = append(l.cur.Instrs, in)
}

// terminate sets the terminator of the current block if it is still open.
func (l *Lowerer) terminate(t Terminator) {
	if !l.cur.Terminated() {
		l.cur.Term = t
	}
}

func (l *Lowerer) pushScope() {
	l.scopes = append(l.scopes, map[string]types.Type{})
}

func (l *Lowerer) popScope() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

func (l *Lowerer) declare(name string, t types.Type) {
	l.scopes[len(l.scopes)-1][name] = t
}

// local reports whether name is a parameter or local visible here.
func (l *Lowerer) local(name string) (types.Type, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if t, ok := l.scopes[i][name]; ok {
			return t, true
		}
	}
	return types.Type{}, false
}
