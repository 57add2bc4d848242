package ast

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
)

var binaryOpText = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
	BinAnd: "&&", BinOr: "||",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// IsArithmetic reports whether op is one of + - * /.
func (op BinaryOp) IsArithmetic() bool { return op <= BinDiv }

// IsComparison reports whether op is an equality or ordering operator.
func (op BinaryOp) IsComparison() bool { return op >= BinEq && op <= BinGe }

// IsLogical reports whether op is && or ||.
func (op BinaryOp) IsLogical() bool { return op == BinAnd || op == BinOr }

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

func (op UnaryOp) String() string {
	if op == UnaryNot {
		return "!"
	}
	return "-"
}

// LitKind distinguishes literal kinds.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitString
	LitUnit
)

type (
	BinaryExpr struct {
		base
		Op    BinaryOp
		Left  Expr
		Right Expr
	}

	UnaryExpr struct {
		base
		Op UnaryOp
		X  Expr
	}

	CallExpr struct {
		base
		Callee Expr
		Args   []Expr
	}

	Ident struct {
		base
		Name string
	}

	Literal struct {
		base
		Kind  LitKind
		Int   int64
		Float float64
		Bool  bool
		Str   string
	}
)

func (*BinaryExpr) exprNode() {}
func (*UnaryExpr) exprNode()  {}
func (*CallExpr) exprNode()   {}
func (*Ident) exprNode()      {}
func (*Literal) exprNode()    {}
