package cgen

import (
	"fmt"

	"kestrel/internal/ir"
	"kestrel/internal/types"
)

func (e *Emitter) emitFunc(f *ir.Func) error {
	fe := &funcEmitter{e: e, f: f, locals: make(map[string]types.Type)}
	fe.collectLocals()

	fmt.Fprintf(&e.buf, "%s {\n", signature(f))
	for _, name := range fe.order {
		t := fe.locals[name]
		fmt.Fprintf(&e.buf, "  %s %s = %s;\n", cType(t), localName(name), cConst(ir.Zero(t)))
	}
	targets := jumpTargets(f)
	for _, b := range f.Blocks {
		// метка без goto даёт -Wunused-label
		if targets[b.Label] {
			fmt.Fprintf(&e.buf, "%s:\n", labelName(b.Label))
		}
		for i := range b.Instrs {
			if err := fe.emitInstr(&b.Instrs[i]); err != nil {
				return fmt.Errorf("cgen %s: %w", f.Name, err)
			}
		}
		if err := fe.emitTerm(&b.Term, b.Label); err != nil {
			return fmt.Errorf("cgen %s: %w", f.Name, err)
		}
	}
	e.buf.WriteString("}\n\n")
	return nil
}

func jumpTargets(f *ir.Func) map[string]bool {
	targets := make(map[string]bool)
	for _, b := range f.Blocks {
		switch b.Term.Kind {
		case ir.TermJump:
			targets[b.Term.Jump.Target] = true
		case ir.TermBranch:
			targets[b.Term.Branch.Then] = true
			targets[b.Term.Branch.Else] = true
		}
	}
	return targets
}

// collectLocals declares every non-parameter name the function touches,
// typed by its first definition.
func (fe *funcEmitter) collectLocals() {
	params := make(map[string]bool, len(fe.f.Params))
	for _, p := range fe.f.Params {
		params[p.Name] = true
		fe.locals[p.Name] = p.Type
	}
	add := func(name string, t types.Type) {
		if name == "" || params[name] {
			return
		}
		if _, seen := fe.locals[name]; seen {
			return
		}
		fe.locals[name] = t
		fe.order = append(fe.order, name)
	}
	for _, b := range fe.f.Blocks {
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if dst, ok := in.Dest(); ok {
				add(dst, concrete(in.DestType()))
			}
		}
	}
	for _, b := range fe.f.Blocks {
		for i := range b.Instrs {
			for _, v := range b.Instrs[i].Operands() {
				if !v.IsConst() {
					add(v.Name, types.Int)
				}
			}
		}
		for _, v := range b.Term.Operands() {
			if !v.IsConst() {
				add(v.Name, types.Int)
			}
		}
	}
}

func (fe *funcEmitter) line(format string, args ...any) {
	fe.e.buf.WriteString("  ")
	fmt.Fprintf(&fe.e.buf, format, args...)
	fe.e.buf.WriteString("\n")
}

func (fe *funcEmitter) emitInstr(in *ir.Instr) error {
	switch in.Kind {
	case ir.InstrAssign:
		fe.line("%s = %s;", localName(in.Assign.Dst), fe.value(in.Assign.Src))
	case ir.InstrBinary:
		fe.line("%s = %s;", localName(in.Binary.Dst), fe.binary(&in.Binary))
	case ir.InstrUnary:
		op := "-"
		if in.Unary.Op == ir.OpNot {
			op = "!"
		}
		fe.line("%s = %s%s;", localName(in.Unary.Dst), op, fe.value(in.Unary.X))
	case ir.InstrCall:
		call := &in.Call
		if _, ok := fe.e.funcs[call.Callee]; !ok {
			return fmt.Errorf("call to undefined function %q", call.Callee)
		}
		args := ""
		for i, a := range call.Args {
			if i > 0 {
				args += ", "
			}
			args += fe.value(a)
		}
		expr := fmt.Sprintf("%s(%s)", funcName(call.Callee), args)
		if call.HasDst {
			fe.line("%s = %s;", localName(call.Dst), expr)
		} else {
			fe.line("(void)%s;", expr)
		}
	case ir.InstrAlloca:
		fe.line("%s = %s;", localName(in.Alloca.Dst), cConst(ir.Zero(in.Alloca.Type)))
	case ir.InstrLoad:
		if _, ok := fe.e.globals[in.Load.Global]; !ok {
			return fmt.Errorf("unknown global %q", in.Load.Global)
		}
		fe.line("%s = %s;", localName(in.Load.Dst), globalName(in.Load.Global))
	case ir.InstrStore:
		if _, ok := fe.e.globals[in.Store.Global]; !ok {
			return fmt.Errorf("unknown global %q", in.Store.Global)
		}
		fe.line("%s = %s;", globalName(in.Store.Global), fe.value(in.Store.Src))
	default:
		return fmt.Errorf("unsupported instruction %v", in.Kind)
	}
	return nil
}

var cBinOps = map[ir.BinOp]string{
	ir.OpAdd: "+", ir.OpSub: "-", ir.OpMul: "*", ir.OpDiv: "/",
	ir.OpEq: "==", ir.OpNe: "!=", ir.OpLt: "<", ir.OpLe: "<=", ir.OpGt: ">", ir.OpGe: ">=",
}

func (fe *funcEmitter) binary(b *ir.BinaryInstr) string {
	l, r := fe.value(b.Left), fe.value(b.Right)
	if fe.typeOf(b.Left).Kind == types.KindString {
		if b.Op == ir.OpAdd {
			return fmt.Sprintf("ks_concat(%s, %s)", l, r)
		}
		if !b.Op.IsArithmetic() {
			return fmt.Sprintf("(strcmp(%s, %s) %s 0)", l, r, cBinOps[b.Op])
		}
	}
	return fmt.Sprintf("(%s %s %s)", l, cBinOps[b.Op], r)
}

func (fe *funcEmitter) emitTerm(t *ir.Terminator, label string) error {
	switch t.Kind {
	case ir.TermReturn:
		if t.Return.HasValue {
			fe.line("return %s;", fe.value(t.Return.Value))
		} else {
			fe.line("return %s;", cConst(ir.Zero(fe.f.Result)))
		}
	case ir.TermJump:
		fe.line("goto %s;", labelName(t.Jump.Target))
	case ir.TermBranch:
		fe.line("if (%s) goto %s; else goto %s;",
			fe.value(t.Branch.Cond), labelName(t.Branch.Then), labelName(t.Branch.Else))
	default:
		return fmt.Errorf("block %q has no terminator", label)
	}
	return nil
}

func (fe *funcEmitter) value(v ir.Value) string {
	if v.IsConst() {
		return cConst(v.Const)
	}
	return localName(v.Name)
}

func (fe *funcEmitter) typeOf(v ir.Value) types.Type {
	if v.IsConst() {
		return v.Const.Type()
	}
	if t, ok := fe.locals[v.Name]; ok {
		return t
	}
	return types.Int
}

// concrete maps unresolved types to int, matching the VM default.
func concrete(t types.Type) types.Type {
	if t.Kind == types.KindVar || t.Kind == types.KindInvalid {
		return types.Int
	}
	return t
}
