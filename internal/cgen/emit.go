// Package cgen renders an IR module as a single C11 translation unit.
//
// Every IR function becomes a static C function named ks_<name>, blocks
// become labels and terminators become return, if/goto and goto. When the
// module defines main, a C main wrapper prints its result.
package cgen

import (
	"fmt"
	"io"
	"strings"

	"kestrel/internal/ir"
	"kestrel/internal/types"
)

// Emitter holds module-wide state while rendering.
type Emitter struct {
	mod     *ir.Module
	buf     strings.Builder
	funcs   map[string]*ir.Func
	globals map[string]types.Type
}

type funcEmitter struct {
	e      *Emitter
	f      *ir.Func
	locals map[string]types.Type
	order  []string
}

// Emit writes the C translation of m to w. m is not modified.
func Emit(w io.Writer, m *ir.Module) error {
	src, err := EmitString(m)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, src)
	return err
}

// EmitString returns the C translation of m.
func EmitString(m *ir.Module) (string, error) {
	if m == nil {
		return "", nil
	}
	e := &Emitter{
		mod:     m,
		funcs:   make(map[string]*ir.Func, len(m.Funcs)),
		globals: make(map[string]types.Type, len(m.Globals)),
	}
	for _, f := range m.Funcs {
		if _, dup := e.funcs[f.Name]; dup {
			return "", fmt.Errorf("cgen: duplicate function %q", f.Name)
		}
		e.funcs[f.Name] = f
	}
	for _, g := range m.Globals {
		e.globals[g.Name] = g.Type
	}

	e.buf.WriteString(preamble)
	e.emitGlobals()
	e.emitPrototypes()
	for _, f := range m.Funcs {
		if err := e.emitFunc(f); err != nil {
			return "", err
		}
	}
	e.emitMain()
	return e.buf.String(), nil
}

func (e *Emitter) emitGlobals() {
	if len(e.mod.Globals) == 0 {
		return
	}
	for _, g := range e.mod.Globals {
		init := ir.Zero(g.Type)
		if g.Init != nil {
			init = *g.Init
		}
		fmt.Fprintf(&e.buf, "static %s %s = %s;\n", cType(g.Type), globalName(g.Name), cConst(init))
	}
	e.buf.WriteString("\n")
}

func (e *Emitter) emitPrototypes() {
	if len(e.mod.Funcs) == 0 {
		return
	}
	for _, f := range e.mod.Funcs {
		fmt.Fprintf(&e.buf, "%s;\n", signature(f))
	}
	e.buf.WriteString("\n")
}

func signature(f *ir.Func) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = cType(p.Type) + " " + localName(p.Name)
	}
	list := "void"
	if len(params) > 0 {
		list = strings.Join(params, ", ")
	}
	return fmt.Sprintf("static %s %s(%s)", cType(f.Result), funcName(f.Name), list)
}

// emitMain adds the C entry point when the module has a main function.
func (e *Emitter) emitMain() {
	f := e.funcs["main"]
	if f == nil {
		return
	}
	e.buf.WriteString("int main(void) {\n")
	call := funcName("main") + "()"
	switch f.Result.Kind {
	case types.KindInt:
		fmt.Fprintf(&e.buf, "  printf(\"%%lld\\n\", (long long)%s);\n", call)
	case types.KindFloat:
		fmt.Fprintf(&e.buf, "  printf(\"%%g\\n\", %s);\n", call)
	case types.KindBool:
		fmt.Fprintf(&e.buf, "  puts(%s ? \"true\" : \"false\");\n", call)
	case types.KindString:
		fmt.Fprintf(&e.buf, "  puts(%s);\n", call)
	default:
		fmt.Fprintf(&e.buf, "  (void)%s;\n", call)
	}
	e.buf.WriteString("  return 0;\n}\n")
}

const preamble = `#include <inttypes.h>
#include <math.h>
#include <stdbool.h>
#include <stdint.h>
#include <stdio.h>
#include <stdlib.h>
#include <string.h>

typedef uint8_t ks_unit;

static inline const char *ks_concat(const char *a, const char *b) {
  size_t la = strlen(a), lb = strlen(b);
  char *s = malloc(la + lb + 1);
  if (s == NULL) {
    abort();
  }
  memcpy(s, a, la);
  memcpy(s + la, b, lb + 1);
  return s;
}

`
