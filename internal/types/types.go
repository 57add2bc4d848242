// Package types defines the type language used by inference: primitive
// types, type variables, function, tuple and named types, together with
// substitutions and unification.
package types

import (
	"fmt"
	"strings"
)

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindUnit
	KindVar
	KindFunc
	KindTuple
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindUnit:
		return "unit"
	case KindVar:
		return "var"
	case KindFunc:
		return "fn"
	case KindTuple:
		return "tuple"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsPrimitive reports whether k is one of int, float, bool, string, unit.
func (k Kind) IsPrimitive() bool {
	return k >= KindInt && k <= KindUnit
}

// TypeVar is an opaque inference variable. Values are handed out by a
// monotonic counter and never reused within a session.
type TypeVar uint32

func (v TypeVar) String() string {
	return fmt.Sprintf("?%d", v)
}

// Type is a tagged variant; only the fields relevant to Kind are set.
type Type struct {
	Kind   Kind
	Var    TypeVar // KindVar
	Params []Type  // KindFunc
	Ret    *Type   // KindFunc
	Elems  []Type  // KindTuple
	Name   string  // KindCustom
}

var (
	Int    = Type{Kind: KindInt}
	Float  = Type{Kind: KindFloat}
	Bool   = Type{Kind: KindBool}
	String = Type{Kind: KindString}
	Unit   = Type{Kind: KindUnit}
)

func VarOf(v TypeVar) Type {
	return Type{Kind: KindVar, Var: v}
}

func Func(params []Type, ret Type) Type {
	return Type{Kind: KindFunc, Params: params, Ret: &ret}
}

func Tuple(elems ...Type) Type {
	return Type{Kind: KindTuple, Elems: elems}
}

func Custom(name string) Type {
	return Type{Kind: KindCustom, Name: name}
}

// FromName maps a source-level type name to a Type. Unknown names are
// custom types.
func FromName(name string) Type {
	switch name {
	case "int":
		return Int
	case "float":
		return Float
	case "bool":
		return Bool
	case "string":
		return String
	case "unit":
		return Unit
	default:
		return Custom(name)
	}
}

func (t Type) IsVar() bool { return t.Kind == KindVar }

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindVar:
		return t.Var == o.Var
	case KindCustom:
		return t.Name == o.Name
	case KindFunc:
		if len(t.Params) != len(o.Params) || !t.Ret.Equal(*o.Ret) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return true
	case KindTuple:
		if len(t.Elems) != len(o.Elems) {
			return false
		}
		for i := range t.Elems {
			if !t.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.Kind {
	case KindVar:
		return t.Var.String()
	case KindCustom:
		return t.Name
	case KindFunc:
		var sb strings.Builder
		sb.WriteString("fn(")
		writeList(&sb, t.Params)
		sb.WriteString(") -> ")
		sb.WriteString(t.Ret.String())
		return sb.String()
	case KindTuple:
		var sb strings.Builder
		sb.WriteByte('(')
		writeList(&sb, t.Elems)
		sb.WriteByte(')')
		return sb.String()
	default:
		return t.Kind.String()
	}
}

func writeList(sb *strings.Builder, ts []Type) {
	for i, t := range ts {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
}
