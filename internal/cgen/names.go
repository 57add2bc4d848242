package cgen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"kestrel/internal/ir"
	"kestrel/internal/types"
)

func cType(t types.Type) string {
	switch t.Kind {
	case types.KindFloat:
		return "double"
	case types.KindBool:
		return "bool"
	case types.KindString:
		return "const char *"
	case types.KindUnit:
		return "ks_unit"
	default:
		return "int64_t"
	}
}

func cConst(c ir.Const) string {
	switch c.Kind {
	case ir.ConstInt:
		if c.Int == math.MinInt64 {
			return "INT64_MIN"
		}
		return fmt.Sprintf("INT64_C(%d)", c.Int)
	case ir.ConstFloat:
		switch {
		case math.IsNaN(c.Float):
			return "NAN"
		case math.IsInf(c.Float, 1):
			return "INFINITY"
		case math.IsInf(c.Float, -1):
			return "(-INFINITY)"
		}
		return c.String()
	case ir.ConstBool:
		return strconv.FormatBool(c.Bool)
	case ir.ConstString:
		return cString(c.Str)
	default:
		return "(ks_unit)0"
	}
}

// cString quotes s as a C string literal. Bytes outside printable ASCII are
// written as three-digit octal escapes.
func cString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '?':
			// trigraphs
			sb.WriteString(`\?`)
		default:
			if c < 0x20 || c >= 0x7F {
				fmt.Fprintf(&sb, `\%03o`, c)
				continue
			}
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func funcName(name string) string   { return "ks_" + mangle(name) }
func globalName(name string) string { return "g_" + mangle(name) }
func localName(name string) string  { return "v_" + mangle(name) }
func labelName(label string) string { return "bb_" + mangle(label) }

// mangle keeps ASCII identifier characters and escapes the rest as _uXXXX.
func mangle(name string) string {
	ok := true
	for _, r := range name {
		if !isIdentRune(r) {
			ok = false
			break
		}
	}
	if ok {
		return name
	}
	var sb strings.Builder
	for _, r := range name {
		if isIdentRune(r) {
			sb.WriteRune(r)
			continue
		}
		fmt.Fprintf(&sb, "_u%04X", r)
	}
	return sb.String()
}

func isIdentRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}
