package opt

import "kestrel/internal/ir"

// DeadCodeElimination drops value-producing instructions whose destination
// is never read. Uses are collected over the whole module, so a name read in
// one function keeps a same-named definition alive in every other function.
// Calls and stores are kept; an unread call only loses its destination.
type DeadCodeElimination struct{}

func (DeadCodeElimination) Name() string { return PassDCE }

func (DeadCodeElimination) Run(m *ir.Module) bool {
	used := collectUses(m)
	changed := false
	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			kept := b.Instrs[:0]
			for _, in := range b.Instrs {
				dst, ok := in.Dest()
				if !ok || used[dst] {
					kept = append(kept, in)
					continue
				}
				if in.HasSideEffects() {
					if in.Kind == ir.InstrCall {
						in.Call.HasDst = false
						in.Call.Dst = ""
					}
					kept = append(kept, in)
					changed = true
					continue
				}
				changed = true
			}
			clear(b.Instrs[len(kept):])
			b.Instrs = kept
		}
	}
	return changed
}

func collectUses(m *ir.Module) map[string]bool {
	used := make(map[string]bool)
	mark := func(vals []ir.Value) {
		for _, v := range vals {
			if !v.IsConst() {
				used[v.Name] = true
			}
		}
	}
	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				mark(b.Instrs[i].Operands())
			}
			mark(b.Term.Operands())
		}
	}
	return used
}
