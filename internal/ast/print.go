package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Sprint renders n as a compact parenthesised form, e.g.
// (fn add (a:int b) int (block (return (+ a b)))). Used by tests and
// `kestrel ast`.
func Sprint(n Node) string {
	var sb strings.Builder
	sprint(&sb, n)
	return sb.String()
}

func sprint(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		sb.WriteString("nil")
	case *Program:
		sb.WriteString("(program")
		for _, d := range n.Decls {
			sb.WriteByte(' ')
			sprint(sb, d)
		}
		sb.WriteByte(')')
	case *FuncDecl:
		fmt.Fprintf(sb, "(fn %s (", n.Name)
		for i, p := range n.Params {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sprint(sb, p)
		}
		sb.WriteString(") ")
		if n.Result != nil {
			sb.WriteString(n.Result.Name)
		} else {
			sb.WriteByte('_')
		}
		sb.WriteByte(' ')
		sprint(sb, n.Body)
		sb.WriteByte(')')
	case *Param:
		sb.WriteString(n.Name)
		if n.Type != nil {
			sb.WriteString(":" + n.Type.Name)
		}
	case *TypeExpr:
		sb.WriteString(n.Name)
	case *VarDecl:
		sb.WriteString("(let " + n.Name)
		if n.Type != nil {
			sb.WriteString(":" + n.Type.Name)
		}
		if n.Init != nil {
			sb.WriteByte(' ')
			sprint(sb, n.Init)
		}
		sb.WriteByte(')')
	case *Block:
		sb.WriteString("(block")
		for _, s := range n.Stmts {
			sb.WriteByte(' ')
			sprint(sb, s)
		}
		sb.WriteByte(')')
	case *IfStmt:
		sb.WriteString("(if ")
		sprint(sb, n.Cond)
		sb.WriteByte(' ')
		sprint(sb, n.Then)
		if n.Else != nil {
			sb.WriteByte(' ')
			sprint(sb, n.Else)
		}
		sb.WriteByte(')')
	case *WhileStmt:
		sb.WriteString("(while ")
		sprint(sb, n.Cond)
		sb.WriteByte(' ')
		sprint(sb, n.Body)
		sb.WriteByte(')')
	case *ReturnStmt:
		sb.WriteString("(return")
		if n.Value != nil {
			sb.WriteByte(' ')
			sprint(sb, n.Value)
		}
		sb.WriteByte(')')
	case *AssignStmt:
		sb.WriteString("(= " + n.Target.Name + " ")
		sprint(sb, n.Value)
		sb.WriteByte(')')
	case *ExprStmt:
		sb.WriteString("(expr ")
		sprint(sb, n.X)
		sb.WriteByte(')')
	case *BinaryExpr:
		sb.WriteString("(" + n.Op.String() + " ")
		sprint(sb, n.Left)
		sb.WriteByte(' ')
		sprint(sb, n.Right)
		sb.WriteByte(')')
	case *UnaryExpr:
		sb.WriteString("(" + n.Op.String() + " ")
		sprint(sb, n.X)
		sb.WriteByte(')')
	case *CallExpr:
		sb.WriteString("(call ")
		sprint(sb, n.Callee)
		for _, a := range n.Args {
			sb.WriteByte(' ')
			sprint(sb, a)
		}
		sb.WriteByte(')')
	case *Ident:
		sb.WriteString(n.Name)
	case *Literal:
		switch n.Kind {
		case LitInt:
			sb.WriteString(strconv.FormatInt(n.Int, 10))
		case LitFloat:
			sb.WriteString(strconv.FormatFloat(n.Float, 'g', -1, 64))
		case LitBool:
			sb.WriteString(strconv.FormatBool(n.Bool))
		case LitString:
			sb.WriteString(strconv.Quote(n.Str))
		case LitUnit:
			sb.WriteString("()")
		}
	default:
		fmt.Fprintf(sb, "<%T>", n)
	}
}
