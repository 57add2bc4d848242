package bytecode

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
)

// Disassemble writes one line per instruction: the byte offset, the raw
// opcode byte and the decoded form. It stops at the first decode error.
func Disassemble(w io.Writer, code []byte) error {
	return disassemble(w, code, nil)
}

// DisassembleProgram is Disassemble with function headers taken from p.
func DisassembleProgram(w io.Writer, p *Program) error {
	starts := make(map[int][]string, len(p.Funcs))
	for name, addr := range p.Funcs {
		starts[int(addr)] = append(starts[int(addr)], name)
	}
	for _, names := range starts {
		slices.Sort(names)
	}
	if len(p.Globals) > 0 {
		for i, g := range p.Globals {
			if _, err := fmt.Fprintf(w, "global %d: %s\n", i, g); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return disassemble(w, p.Code, starts)
}

func disassemble(w io.Writer, code []byte, starts map[int][]string) error {
	for pc := 0; pc < len(code); {
		for _, name := range starts[pc] {
			if _, err := fmt.Fprintf(w, "%s:\n", name); err != nil {
				return err
			}
		}
		in, n, err := Decode(code, pc)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%04d  %02X  %s\n", pc, byte(in.Op), in); err != nil {
			return err
		}
		pc += n
	}
	return nil
}

// FuncAt returns the name of the function whose body contains pc.
func (p *Program) FuncAt(pc int) (string, bool) {
	type entry struct {
		name string
		addr int
	}
	entries := make([]entry, 0, len(p.Funcs))
	for _, name := range slices.Sorted(maps.Keys(p.Funcs)) {
		entries = append(entries, entry{name, int(p.Funcs[name])})
	}
	slices.SortStableFunc(entries, func(a, b entry) int { return cmp.Compare(a.addr, b.addr) })
	best := ""
	for _, e := range entries {
		if e.addr > pc {
			break
		}
		best = e.name
	}
	return best, best != ""
}
