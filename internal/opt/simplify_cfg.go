package opt

import "kestrel/internal/ir"

// SimplifyCFG cleans up the control flow graph of every function:
//  1. Branches with identical targets become jumps
//  2. Jumps through empty forwarding blocks are collapsed
//  3. Blocks unreachable from the entry are removed
//
// The entry block is never removed or redirected.
type SimplifyCFG struct{}

func (SimplifyCFG) Name() string { return PassSimplifyCFG }

func (SimplifyCFG) Run(m *ir.Module) bool {
	changed := false
	for _, f := range m.Funcs {
		if simplifyFunc(f) {
			changed = true
		}
	}
	return changed
}

func simplifyFunc(f *ir.Func) bool {
	if len(f.Blocks) == 0 {
		return false
	}
	changed := false

	for _, b := range f.Blocks {
		if b.Term.Kind == ir.TermBranch && b.Term.Branch.Then == b.Term.Branch.Else {
			b.Term = ir.Jump(b.Term.Branch.Then)
			changed = true
		}
	}

	redirects := buildRedirects(f)
	if len(redirects) > 0 {
		redirect := func(label string) string {
			if to, ok := redirects[label]; ok {
				return to
			}
			return label
		}
		for _, b := range f.Blocks {
			switch b.Term.Kind {
			case ir.TermJump:
				if to := redirect(b.Term.Jump.Target); to != b.Term.Jump.Target {
					b.Term.Jump.Target = to
					changed = true
				}
			case ir.TermBranch:
				br := &b.Term.Branch
				then, els := redirect(br.Then), redirect(br.Else)
				if then != br.Then || els != br.Else {
					br.Then, br.Else = then, els
					changed = true
				}
			}
		}
	}

	reachable := reachableBlocks(f)
	if len(reachable) == len(f.Blocks) {
		return changed
	}
	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if reachable[b.Label] {
			kept = append(kept, b)
		}
	}
	clear(f.Blocks[len(kept):])
	f.Blocks = kept
	return true
}

// buildRedirects maps every empty non-entry block that only jumps onwards to
// the final target of its chain.
func buildRedirects(f *ir.Func) map[string]string {
	entry := f.Blocks[0].Label
	trivial := func(label string) (string, bool) {
		if label == entry {
			return "", false
		}
		b := f.Block(label)
		if b == nil || len(b.Instrs) != 0 || b.Term.Kind != ir.TermJump {
			return "", false
		}
		return b.Term.Jump.Target, true
	}

	redirects := make(map[string]string)
	for _, b := range f.Blocks {
		target, ok := trivial(b.Label)
		if !ok {
			continue
		}
		visited := map[string]bool{b.Label: true}
		for !visited[target] {
			visited[target] = true
			next, ok := trivial(target)
			if !ok {
				break
			}
			target = next
		}
		// цикл из пустых блоков оставляем как есть
		if target == b.Label {
			continue
		}
		redirects[b.Label] = target
	}
	return redirects
}

func reachableBlocks(f *ir.Func) map[string]bool {
	seen := make(map[string]bool, len(f.Blocks))
	stack := []string{f.Blocks[0].Label}
	for len(stack) > 0 {
		label := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[label] {
			continue
		}
		b := f.Block(label)
		if b == nil {
			continue
		}
		seen[label] = true
		stack = append(stack, b.Term.Successors()...)
	}
	return seen
}
