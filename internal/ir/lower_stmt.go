package ir

import (
	"fmt"

	"kestrel/internal/ast"
	"kestrel/internal/types"
)

func (l *Lowerer) lowerStmt(st ast.Stmt) error {
	// мёртвый код после терминатора уходит в свежий недостижимый блок
	if l.cur.Terminated() {
		l.cur = l.newBlock(l.FreshLabel())
	}

	switch st := st.(type) {
	case *ast.VarDecl:
		return l.lowerLet(st)
	case *ast.Block:
		l.pushScope()
		defer l.popScope()
		for _, s := range st.Stmts {
			if err := l.lowerStmt(s); err != nil {
				return err
			}
		}
		return nil
	case *ast.IfStmt:
		return l.lowerIf(st)
	case *ast.WhileStmt:
		return l.lowerWhile(st)
	case *ast.ReturnStmt:
		if st.Value == nil {
			l.terminate(ReturnNone())
			return nil
		}
		v, err := l.lowerValue(st.Value)
		if err != nil {
			return err
		}
		l.terminate(Return(v))
		return nil
	case *ast.AssignStmt:
		return l.lowerAssign(st)
	case *ast.ExprStmt:
		if call, ok := st.X.(*ast.CallExpr); ok {
			_, err := l.lowerCall(call, false)
			return err
		}
		_, err := l.lowerExpr(st.X)
		return err
	default:
		return &LowerError{Span: st.Span(), Msg: fmt.Sprintf("unsupported statement %T", st)}
	}
}

func (l *Lowerer) lowerLet(v *ast.VarDecl) error {
	var declared *types.Type
	if v.Type != nil {
		t := types.FromName(v.Type.Name)
		declared = &t
	}
	if v.Init == nil {
		t := types.Int
		if declared != nil {
			t = *declared
		} else if it, ok := l.inferred(v.ID()); ok {
			t = it
		}
		l.declare(v.Name, t)
		l.emit(Instr{Kind: InstrAlloca, Alloca: AllocaInstr{Dst: v.Name, Type: t}})
		return nil
	}

	val, err := l.lowerValue(v.Init)
	if err != nil {
		return err
	}
	t := l.valueType(val)
	if declared != nil {
		t = *declared
	} else if it, ok := l.inferred(v.ID()); ok {
		t = it
	}
	// объявляем после инициализатора: `let x = x + 1` читает внешний x
	l.declare(v.Name, t)
	l.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: v.Name, Src: val, Type: t}})
	return nil
}

func (l *Lowerer) lowerAssign(a *ast.AssignStmt) error {
	val, err := l.lowerValue(a.Value)
	if err != nil {
		return err
	}
	name := a.Target.Name
	if t, ok := l.local(name); ok {
		l.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: name, Src: val, Type: t}})
		return nil
	}
	if _, ok := l.globals[name]; ok {
		l.emit(Instr{Kind: InstrStore, Store: StoreInstr{Global: name, Src: val}})
		return nil
	}
	// незнакомое имя: ведём себя как с локальной переменной
	t := l.valueType(val)
	l.declare(name, t)
	l.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: name, Src: val, Type: t}})
	return nil
}

func (l *Lowerer) lowerIf(s *ast.IfStmt) error {
	cond, err := l.lowerValue(s.Cond)
	if err != nil {
		return err
	}
	thenLabel := l.FreshLabel()
	endLabel := l.FreshLabel()
	elseLabel := endLabel
	if s.Else != nil {
		elseLabel = l.FreshLabel()
	}
	l.terminate(Branch(cond, thenLabel, elseLabel))

	l.cur = l.newBlock(thenLabel)
	if err := l.lowerStmt(s.Then); err != nil {
		return err
	}
	l.terminate(Jump(endLabel))

	if s.Else != nil {
		l.cur = l.newBlock(elseLabel)
		if err := l.lowerStmt(s.Else); err != nil {
			return err
		}
		l.terminate(Jump(endLabel))
	}
	l.cur = l.newBlock(endLabel)
	return nil
}

func (l *Lowerer) lowerWhile(s *ast.WhileStmt) error {
	head := l.FreshLabel()
	body := l.FreshLabel()
	end := l.FreshLabel()
	l.terminate(Jump(head))

	l.cur = l.newBlock(head)
	cond, err := l.lowerValue(s.Cond)
	if err != nil {
		return err
	}
	l.terminate(Branch(cond, body, end))

	l.cur = l.newBlock(body)
	if err := l.lowerStmt(s.Body); err != nil {
		return err
	}
	l.terminate(Jump(head))

	l.cur = l.newBlock(end)
	return nil
}
