package driver

import (
	"fmt"
	"strings"
	"time"

	"kestrel/internal/cache"
	"kestrel/internal/infer"
	"kestrel/internal/observ"
	"kestrel/internal/opt"
	"kestrel/internal/project"
	"kestrel/internal/vm"
)

// Stage определяет, до какого этапа доводить компиляцию.
type Stage uint8

const (
	StageCheck Stage = iota // parse, resolve, infer
	StageLower              // + lower, opt
	StageAsm                // + asm
)

func (s Stage) String() string {
	switch s {
	case StageCheck:
		return "check"
	case StageLower:
		return "lower"
	case StageAsm:
		return "asm"
	}
	return "unknown"
}

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a compilation phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
	// FileDone and FileFailed are sent by BuildAll once per file; Name is
	// empty.
	FileDone
	FileFailed
)

// PhaseEvent describes a timing phase boundary.
type PhaseEvent struct {
	Path    string
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	Err     error
}

// PhaseObserver receives phase events emitted during Compile. Parallel
// builds call it from several goroutines.
type PhaseObserver func(PhaseEvent)

// Options configures one compilation.
type Options struct {
	Check  infer.Mode
	Strict bool

	Optimize bool
	Opt      opt.Options

	MaxDiagnostics int
	VM             vm.Options

	// Cache, when set, serves StageAsm from stored artifacts.
	Cache *cache.Disk
	// Timer and Observer are optional.
	Timer    *observ.Timer
	Observer PhaseObserver
}

// DefaultOptions mirrors project.Default().
func DefaultOptions() Options {
	return Options{
		Optimize:       true,
		MaxDiagnostics: 100,
	}
}

// FromManifest maps a project manifest onto Options. Cache, Timer and
// Observer are left to the caller.
func FromManifest(m *project.Manifest) (Options, error) {
	mode, err := infer.ParseMode(m.Check.Mode)
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		Check:          mode,
		Strict:         m.Check.Strict,
		Optimize:       m.Optimize(),
		Opt:            opt.Options{MaxIterations: m.Build.MaxIterations, Passes: m.Build.Passes},
		MaxDiagnostics: m.Check.MaxDiagnostics,
		VM: vm.Options{
			StackSize:  m.VM.StackSize,
			MaxLocals:  m.VM.MaxLocals,
			MaxGlobals: m.VM.MaxGlobals,
			MaxFrames:  m.VM.MaxFrames,
		},
	}
	if _, err := opt.NewManager(opts.Opt); err != nil {
		return Options{}, fmt.Errorf("[build].passes: %w", err)
	}
	return opts, nil
}

// fingerprint is the part of Options that changes generated code.
func (o Options) fingerprint() project.Digest {
	mgr, err := opt.NewManager(o.Opt)
	passes := ""
	if err == nil {
		passes = strings.Join(mgr.Passes(), ",")
	}
	iter := o.Opt.MaxIterations
	if iter <= 0 {
		iter = opt.DefaultMaxIterations
	}
	s := fmt.Sprintf("check=%s;strict=%t;opt=%t;passes=%s;iter=%d", o.Check, o.Strict, o.Optimize, passes, iter)
	return project.Sum([]byte(s))
}

func (o Options) observeRun(st PhaseStatus, dur time.Duration) {
	if o.Observer != nil {
		o.Observer(PhaseEvent{Name: "run", Status: st, Elapsed: dur})
	}
}
