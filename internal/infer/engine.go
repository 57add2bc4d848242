// Package infer assigns a type to every expression and declaration of a
// program.
//
// Two modes exist. ModeStructural computes each node's type from its shape
// alone: arithmetic is int, comparisons and logical operators are bool, and
// operand types are recorded but never constrained. ModeConstraint feeds the
// same walk through types.Unifier so operands, call arguments, returns and
// annotations must agree.
package infer

import (
	"errors"
	"fmt"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/types"
)

// Mode selects how strictly inference constrains types.
type Mode uint8

const (
	ModeStructural Mode = iota
	ModeConstraint
)

func (m Mode) String() string {
	if m == ModeConstraint {
		return "constraint"
	}
	return "structural"
}

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "structural":
		return ModeStructural, nil
	case "constraint":
		return ModeConstraint, nil
	default:
		return ModeStructural, fmt.Errorf("unknown check mode %q (want structural or constraint)", s)
	}
}

type Options struct {
	Mode     Mode
	Reporter diag.Reporter
}

// Engine holds the state of one inference session. TypeVars are never
// reused, even across repeated Infer calls on the same Engine.
type Engine struct {
	opts    Options
	unifier *types.Unifier
	nodes   map[ast.NodeID]types.Type
	next    types.TypeVar
	globals map[string]types.Type
	scopes  []map[string]types.Type
	fn      *fnState
	errors  int
}

type fnState struct {
	ret         types.Type
	sawValueRet bool
}

func NewEngine(opts Options) *Engine {
	return &Engine{
		opts:    opts,
		unifier: types.NewUnifier(),
		nodes:   make(map[ast.NodeID]types.Type),
		globals: make(map[string]types.Type),
	}
}

// Fresh returns a new, never before issued type variable.
func (e *Engine) Fresh() types.Type {
	v := e.next
	e.next++
	return types.VarOf(v)
}

// TypeOf returns the type recorded for a node, resolved through the current
// substitution.
func (e *Engine) TypeOf(id ast.NodeID) (types.Type, bool) {
	t, ok := e.nodes[id]
	if !ok {
		return types.Type{}, false
	}
	return e.unifier.Resolve(t), true
}

// Subst exposes the substitution built so far.
func (e *Engine) Subst() types.Subst {
	return e.unifier.Subst()
}

// Errors reports how many error diagnostics the engine emitted.
func (e *Engine) Errors() int {
	return e.errors
}

// Infer walks prog and records a type per node. It reports false when any
// error diagnostic was emitted during this call.
func (e *Engine) Infer(prog *ast.Program) bool {
	before := e.errors

	// сигнатуры функций и типы глобалов известны до обхода тел
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			e.declareFunc(d)
		case *ast.VarDecl:
			t := e.annotated(d.Type)
			e.globals[d.Name] = t
			e.record(d, t)
		}
	}
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			e.inferFunc(d)
		case *ast.VarDecl:
			if d.Init == nil {
				continue
			}
			it := e.inferExpr(d.Init)
			switch {
			case e.constraint():
				e.unify(d.Init, e.globals[d.Name], it)
			case d.Type == nil:
				e.globals[d.Name] = it
				e.record(d, it)
			}
		}
	}
	e.record(prog, types.Unit)
	return e.errors == before
}

func (e *Engine) constraint() bool {
	return e.opts.Mode == ModeConstraint
}

func (e *Engine) record(n ast.Node, t types.Type) types.Type {
	e.nodes[n.ID()] = t
	return t
}

// annotated returns the named type, or a fresh variable for a missing
// annotation.
func (e *Engine) annotated(te *ast.TypeExpr) types.Type {
	if te == nil {
		return e.Fresh()
	}
	t := types.FromName(te.Name)
	e.record(te, t)
	return t
}

func (e *Engine) declareFunc(fn *ast.FuncDecl) {
	params := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = e.annotated(p.Type)
		e.record(p, params[i])
	}
	ret := e.annotated(fn.Result)
	t := types.Func(params, ret)
	if _, dup := e.globals[fn.Name]; !dup {
		e.globals[fn.Name] = t
	}
	e.record(fn, t)
}

func (e *Engine) inferFunc(fn *ast.FuncDecl) {
	sig := e.nodes[fn.ID()]
	e.fn = &fnState{ret: *sig.Ret}
	e.push()
	for i, p := range fn.Params {
		e.bind(p.Name, sig.Params[i])
	}
	for _, st := range fn.Body.Stmts {
		e.inferStmt(st)
	}
	e.record(fn.Body, types.Unit)
	e.pop()

	if e.constraint() && !e.fn.sawValueRet && fn.Result == nil {
		// функция без `return expr` возвращает unit
		if e.unifier.Resolve(e.fn.ret).IsVar() {
			e.unify(fn, e.fn.ret, types.Unit)
		}
	}
	e.fn = nil
}

func (e *Engine) push() {
	e.scopes = append(e.scopes, make(map[string]types.Type))
}

func (e *Engine) pop() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

func (e *Engine) bind(name string, t types.Type) {
	if len(e.scopes) == 0 {
		e.globals[name] = t
		return
	}
	e.scopes[len(e.scopes)-1][name] = t
}

func (e *Engine) lookup(name string) (types.Type, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i][name]; ok {
			return t, true
		}
	}
	t, ok := e.globals[name]
	return t, ok
}

// unify runs a constraint and turns a failure into a diagnostic at n.
func (e *Engine) unify(n ast.Node, a, b types.Type) bool {
	err := e.unifier.Unify(a, b)
	if err == nil {
		return true
	}
	code := diag.SemaTypeMismatch
	var (
		oe *types.OccursError
		ae *types.ArityError
	)
	switch {
	case errors.As(err, &oe):
		code = diag.SemaOccursCheck
	case errors.As(err, &ae):
		code = diag.SemaArityMismatch
	}
	e.errorf(n, code, "%v", err)
	return false
}

func (e *Engine) errorf(n ast.Node, code diag.Code, format string, args ...any) {
	e.errors++
	diag.ReportError(e.opts.Reporter, code, n.Span(), fmt.Sprintf(format, args...)).Emit()
}
