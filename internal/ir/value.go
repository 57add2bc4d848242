package ir

import (
	"strconv"
	"strings"

	"kestrel/internal/types"
)

// ConstKind enumerates constant kinds.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	ConstString
	ConstUnit
)

// Const is an immediate value.
type Const struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

func IntConst(v int64) Const     { return Const{Kind: ConstInt, Int: v} }
func FloatConst(v float64) Const { return Const{Kind: ConstFloat, Float: v} }
func BoolConst(v bool) Const     { return Const{Kind: ConstBool, Bool: v} }
func StringConst(v string) Const { return Const{Kind: ConstString, Str: v} }
func UnitConst() Const           { return Const{Kind: ConstUnit} }

// Type returns the static type of the constant.
func (c Const) Type() types.Type {
	switch c.Kind {
	case ConstInt:
		return types.Int
	case ConstFloat:
		return types.Float
	case ConstBool:
		return types.Bool
	case ConstString:
		return types.String
	default:
		return types.Unit
	}
}

// Zero returns the zero constant of t; unknown types get int 0.
func Zero(t types.Type) Const {
	switch t.Kind {
	case types.KindFloat:
		return FloatConst(0)
	case types.KindBool:
		return BoolConst(false)
	case types.KindString:
		return StringConst("")
	case types.KindUnit:
		return UnitConst()
	default:
		return IntConst(0)
	}
}

func (c Const) String() string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		s := strconv.FormatFloat(c.Float, 'g', -1, 64)
		if strings.ContainsAny(s, ".eEnN") {
			return s
		}
		return s + ".0"
	case ConstBool:
		return strconv.FormatBool(c.Bool)
	case ConstString:
		return strconv.Quote(c.Str)
	default:
		return "()"
	}
}

// ValueKind distinguishes the two operand forms.
type ValueKind uint8

const (
	ValueVar ValueKind = iota
	ValueConst
)

// Value is an instruction operand: a named variable or a constant.
// Names are the binding key; temporaries are t0, t1, ...
type Value struct {
	Kind  ValueKind
	Name  string
	Const Const
}

func Var(name string) Value { return Value{Kind: ValueVar, Name: name} }

func ConstValue(c Const) Value { return Value{Kind: ValueConst, Const: c} }

func (v Value) IsConst() bool { return v.Kind == ValueConst }

func (v Value) String() string {
	if v.Kind == ValueConst {
		return v.Const.String()
	}
	return v.Name
}
