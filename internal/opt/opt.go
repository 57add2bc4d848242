// Package opt rewrites IR modules in place. A Manager runs an ordered list
// of passes until none of them reports a change or the iteration cap is hit.
package opt

import (
	"context"
	"fmt"
	"strconv"

	"kestrel/internal/ir"
	"kestrel/internal/trace"
)

// DefaultMaxIterations bounds the fixed-point loop.
const DefaultMaxIterations = 10

// Pass is a single IR transformation. Run reports whether it changed m.
type Pass interface {
	Name() string
	Run(m *ir.Module) bool
}

// Pass names accepted by Options.Passes and Options.Disabled.
const (
	PassConstFold   = "const-fold"
	PassDCE         = "dce"
	PassSimplifyCFG = "simplify-cfg"
)

// DefaultPasses is the pipeline used when Options.Passes is empty.
var DefaultPasses = []string{PassConstFold, PassDCE}

// Options configures a Manager.
type Options struct {
	// MaxIterations caps the fixed-point loop; zero means DefaultMaxIterations.
	MaxIterations int
	// Passes lists pass names in run order; empty means DefaultPasses.
	Passes []string
	// Disabled names passes to drop from the pipeline.
	Disabled []string
}

// Stats summarises one Manager.Run.
type Stats struct {
	Iterations   int
	Converged    bool
	Changes      map[string]int // pass name -> iterations in which it changed the module
	InstrsBefore int
	InstrsAfter  int
}

// Manager owns the pass pipeline.
type Manager struct {
	passes  []Pass
	maxIter int
}

// NewPass returns the pass registered under name.
func NewPass(name string) (Pass, error) {
	switch name {
	case PassConstFold:
		return ConstantFolding{}, nil
	case PassDCE:
		return DeadCodeElimination{}, nil
	case PassSimplifyCFG:
		return SimplifyCFG{}, nil
	default:
		return nil, fmt.Errorf("unknown optimization pass %q", name)
	}
}

// NewManager builds a pipeline from opts.
func NewManager(opts Options) (*Manager, error) {
	names := opts.Passes
	if len(names) == 0 {
		names = DefaultPasses
	}
	disabled := make(map[string]bool, len(opts.Disabled))
	for _, name := range opts.Disabled {
		if _, err := NewPass(name); err != nil {
			return nil, err
		}
		disabled[name] = true
	}
	mgr := &Manager{maxIter: opts.MaxIterations}
	if mgr.maxIter <= 0 {
		mgr.maxIter = DefaultMaxIterations
	}
	for _, name := range names {
		p, err := NewPass(name)
		if err != nil {
			return nil, err
		}
		if disabled[name] {
			continue
		}
		mgr.passes = append(mgr.passes, p)
	}
	return mgr, nil
}

// NewDefault returns a Manager with the default pipeline.
func NewDefault() *Manager {
	return &Manager{
		passes:  []Pass{ConstantFolding{}, DeadCodeElimination{}},
		maxIter: DefaultMaxIterations,
	}
}

// Add appends p to the pipeline.
func (mgr *Manager) Add(p Pass) {
	mgr.passes = append(mgr.passes, p)
}

// Passes returns the names of the configured passes in run order.
func (mgr *Manager) Passes() []string {
	names := make([]string, len(mgr.passes))
	for i, p := range mgr.passes {
		names[i] = p.Name()
	}
	return names
}

// Run optimizes m without tracing.
func (mgr *Manager) Run(m *ir.Module) Stats {
	return mgr.RunContext(context.Background(), m)
}

// RunContext optimizes m, emitting one pass-scope span per pass run to the
// tracer carried by ctx.
func (mgr *Manager) RunContext(ctx context.Context, m *ir.Module) Stats {
	st := Stats{Changes: make(map[string]int, len(mgr.passes))}
	if m == nil {
		st.Converged = true
		return st
	}
	tr := trace.FromContext(ctx)
	parent := trace.ParentOf(ctx)
	st.InstrsBefore = m.InstrCount()

	for st.Iterations < mgr.maxIter {
		st.Iterations++
		changed := false
		for _, p := range mgr.passes {
			span := trace.Begin(tr, trace.ScopePass, "opt/"+p.Name(), parent)
			did := p.Run(m)
			span.WithExtra("iter", strconv.Itoa(st.Iterations)).
				WithExtra("changed", strconv.FormatBool(did)).
				End("")
			if did {
				st.Changes[p.Name()]++
				changed = true
			}
		}
		if !changed {
			st.Converged = true
			break
		}
	}
	st.InstrsAfter = m.InstrCount()
	return st
}
