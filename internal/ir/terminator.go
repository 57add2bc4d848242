package ir

type TermKind uint8

const (
	TermNone TermKind = iota
	TermReturn
	TermBranch
	TermJump
)

type Terminator struct {
	Kind TermKind

	Return ReturnTerm
	Branch BranchTerm
	Jump   JumpTerm
}

type ReturnTerm struct {
	HasValue bool
	Value    Value
}

// BranchTerm jumps to Then when Cond is true, otherwise to Else.
type BranchTerm struct {
	Cond Value
	Then string
	Else string
}

type JumpTerm struct {
	Target string
}

// Successors lists the labels control can reach from t.
func (t *Terminator) Successors() []string {
	switch t.Kind {
	case TermBranch:
		return []string{t.Branch.Then, t.Branch.Else}
	case TermJump:
		return []string{t.Jump.Target}
	default:
		return nil
	}
}

// Operands returns the values the terminator reads.
func (t *Terminator) Operands() []Value {
	switch t.Kind {
	case TermReturn:
		if t.Return.HasValue {
			return []Value{t.Return.Value}
		}
	case TermBranch:
		return []Value{t.Branch.Cond}
	}
	return nil
}

func Return(v Value) Terminator {
	return Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: true, Value: v}}
}

func ReturnNone() Terminator {
	return Terminator{Kind: TermReturn}
}

func Branch(cond Value, then, els string) Terminator {
	return Terminator{Kind: TermBranch, Branch: BranchTerm{Cond: cond, Then: then, Else: els}}
}

func Jump(target string) Terminator {
	return Terminator{Kind: TermJump, Jump: JumpTerm{Target: target}}
}
