package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable representation of a module.
func Dump(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	var sb strings.Builder
	for _, g := range m.Globals {
		fmt.Fprintf(&sb, "global %s: %s", g.Name, g.Type)
		if g.Init != nil {
			fmt.Fprintf(&sb, " = %s", g.Init)
		}
		sb.WriteByte('\n')
	}
	for i, f := range m.Funcs {
		if i > 0 || len(m.Globals) > 0 {
			sb.WriteByte('\n')
		}
		dumpFunc(&sb, f)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String renders the module the way Dump does.
func (m *Module) String() string {
	var sb strings.Builder
	_ = Dump(&sb, m)
	return sb.String()
}

func dumpFunc(sb *strings.Builder, f *Func) {
	fmt.Fprintf(sb, "fn %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s: %s", p.Name, p.Type)
	}
	fmt.Fprintf(sb, ") -> %s {\n", f.Result)
	for _, b := range f.Blocks {
		fmt.Fprintf(sb, "%s:\n", b.Label)
		for i := range b.Instrs {
			sb.WriteString("  ")
			sb.WriteString(FormatInstr(&b.Instrs[i]))
			sb.WriteByte('\n')
		}
		sb.WriteString("  ")
		sb.WriteString(FormatTerm(&b.Term))
		sb.WriteByte('\n')
	}
	sb.WriteString("}\n")
}

// FormatInstr renders one instruction, e.g. `t0 = add a, 1`.
func FormatInstr(in *Instr) string {
	switch in.Kind {
	case InstrAssign:
		return fmt.Sprintf("%s = %s", in.Assign.Dst, in.Assign.Src)
	case InstrBinary:
		b := in.Binary
		return fmt.Sprintf("%s = %s %s, %s", b.Dst, b.Op, b.Left, b.Right)
	case InstrUnary:
		return fmt.Sprintf("%s = %s %s", in.Unary.Dst, in.Unary.Op, in.Unary.X)
	case InstrCall:
		c := in.Call
		args := make([]string, len(c.Args))
		for i, a := range c.Args {
			args[i] = a.String()
		}
		call := fmt.Sprintf("call %s(%s)", c.Callee, strings.Join(args, ", "))
		if c.HasDst {
			return c.Dst + " = " + call
		}
		return call
	case InstrAlloca:
		return fmt.Sprintf("%s = alloca %s", in.Alloca.Dst, in.Alloca.Type)
	case InstrLoad:
		return fmt.Sprintf("%s = load @%s", in.Load.Dst, in.Load.Global)
	case InstrStore:
		return fmt.Sprintf("store @%s, %s", in.Store.Global, in.Store.Src)
	default:
		return "<?>"
	}
}

// FormatTerm renders a terminator.
func FormatTerm(t *Terminator) string {
	switch t.Kind {
	case TermReturn:
		if t.Return.HasValue {
			return "return " + t.Return.Value.String()
		}
		return "return"
	case TermBranch:
		return fmt.Sprintf("branch %s, %s, %s", t.Branch.Cond, t.Branch.Then, t.Branch.Else)
	case TermJump:
		return "jump " + t.Jump.Target
	default:
		return "<unterminated>"
	}
}
