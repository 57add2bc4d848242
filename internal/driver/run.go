package driver

import (
	"context"
	"errors"
	"strconv"

	"kestrel/internal/bytecode"
	"kestrel/internal/trace"
	"kestrel/internal/vm"
)

// RunResult is the outcome of executing a program.
type RunResult struct {
	Value *vm.Value
	Steps uint64
}

// Run executes p on a fresh VM configured by opts.VM. The locals and
// globals arrays are grown to what p needs. A *vm.VMError is returned
// unwrapped so callers can format its backtrace against p.
func Run(ctx context.Context, p *bytecode.Program, opts Options) (*RunResult, error) {
	if p == nil {
		return nil, errors.New("no program to run")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	vopts := opts.VM
	vopts.Program = p
	vopts.MaxLocals = max(vopts.MaxLocals, p.MaxLocals)
	vopts.MaxGlobals = max(vopts.MaxGlobals, len(p.Globals))
	machine := vm.New(vopts)

	ctx, span := trace.Start(ctx, trace.ScopeStage, "run")
	idx := opts.Timer.Begin("run")
	opts.observeRun(PhaseStart, 0)

	v, err := machine.ExecuteContext(ctx, p.Code)
	note := ""
	if err != nil {
		note = "failed"
	}
	span.WithExtra("steps", strconv.FormatUint(machine.Steps(), 10))
	dur := span.End(note)
	opts.Timer.End(idx, note)
	opts.observeRun(PhaseEnd, dur)

	if err != nil {
		return &RunResult{Steps: machine.Steps()}, err
	}
	return &RunResult{Value: v, Steps: machine.Steps()}, nil
}
