package ast

type (
	// Program is the root of one compilation unit.
	Program struct {
		base
		Decls []Decl
	}

	FuncDecl struct {
		base
		Name   string
		Params []*Param
		Result *TypeExpr // nil when the signature omits `-> T`
		Body   *Block
	}

	Param struct {
		base
		Name string
		Type *TypeExpr
	}

	// TypeExpr names a type: int, float, bool, string, unit or a custom name.
	TypeExpr struct {
		base
		Name string
	}
)

func (*FuncDecl) declNode() {}
