package bytecode

import (
	"strconv"
	"strings"
)

// Kind tags a runtime value.
type Kind uint8

const (
	KindUnit Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Constant tags in the encoded stream.
const (
	TagUnit   byte = 0x00
	TagInt    byte = 0x01
	TagFloat  byte = 0x02
	TagBool   byte = 0x03
	TagString byte = 0x04
)

// Value is a constant operand and a VM stack value. The zero Value is Unit.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

func Unit() Value           { return Value{} }
func Int(v int64) Value     { return Value{Kind: KindInt, Int: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func Bool(v bool) Value     { return Value{Kind: KindBool, Bool: v} }
func String(v string) Value { return Value{Kind: KindString, Str: v} }

// IsUnit reports whether v carries no value.
func (v Value) IsUnit() bool { return v.Kind == KindUnit }

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if strings.ContainsAny(s, ".eEnN") {
			return s
		}
		return s + ".0"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return strconv.Quote(v.Str)
	default:
		return "()"
	}
}
