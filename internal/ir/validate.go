package ir

import (
	"errors"
	"fmt"
)

// Validate checks IR module invariants.
// Returns error if any invariant is violated.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	seen := make(map[string]bool, len(m.Funcs))
	for _, f := range m.Funcs {
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("function %s: defined twice", f.Name))
		}
		seen[f.Name] = true
		if err := validateFunc(f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunc(f *Func) error {
	if len(f.Blocks) == 0 {
		return errors.New("no blocks")
	}
	var errs []error

	// 1. Метки уникальны
	labels := make(map[string]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		if labels[b.Label] {
			errs = append(errs, fmt.Errorf("%s: duplicate label", b.Label))
		}
		labels[b.Label] = true
	}

	for _, b := range f.Blocks {
		// 2. Каждый блок завершён терминатором
		if !b.Terminated() {
			errs = append(errs, fmt.Errorf("%s: unterminated block", b.Label))
		}
		// 3. Цели переходов существуют
		for _, target := range b.Term.Successors() {
			if !labels[target] {
				errs = append(errs, fmt.Errorf("%s: jump to unknown label %s", b.Label, target))
			}
		}
		// 4. Назначения не пустые
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if dst, ok := in.Dest(); ok && dst == "" {
				errs = append(errs, fmt.Errorf("%s: instr %d (%s) has an empty destination", b.Label, i, in.Kind))
			}
			if in.Kind == InstrCall && in.Call.Callee == "" {
				errs = append(errs, fmt.Errorf("%s: instr %d calls an empty name", b.Label, i))
			}
		}
	}
	return errors.Join(errs...)
}
