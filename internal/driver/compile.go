// Package driver runs the compilation pipeline: parse, resolve, infer,
// lower, opt, asm and run.
//
// Source-level problems end up in Result.Bag and are returned as a
// *diag.BagError. Other errors (I/O, cancellation, bad options, internal
// invariant failures) are returned as is.
package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"kestrel/internal/ast"
	"kestrel/internal/bytecode"
	"kestrel/internal/cache"
	"kestrel/internal/diag"
	"kestrel/internal/infer"
	"kestrel/internal/ir"
	"kestrel/internal/opt"
	"kestrel/internal/parser"
	"kestrel/internal/project"
	"kestrel/internal/resolve"
	"kestrel/internal/source"
	"kestrel/internal/trace"
)

// Result holds every artefact produced for one source file. Fields past the
// requested stage stay nil.
type Result struct {
	Path    string
	FileSet *source.FileSet
	FileID  source.FileID
	Bag     *diag.Bag

	AST    *ast.Program
	Scopes *resolve.Result
	Types  *infer.Engine

	Module   *ir.Module
	OptStats *opt.Stats

	Program  *bytecode.Program
	Artifact *cache.Artifact
	CacheHit bool
	// CacheErr records a failed cache write; the build itself succeeded.
	CacheErr error

	// Err is set by BuildAll.
	Err error
}

// CompileFile loads path and compiles it up to stage.
func CompileFile(ctx context.Context, path string, stage Stage, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return Compile(ctx, fs, id, stage, opts)
}

// CompileSource compiles an in-memory source.
func CompileSource(ctx context.Context, name string, src []byte, stage Stage, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	return Compile(ctx, fs, fs.AddVirtual(name, src), stage, opts)
}

type compilation struct {
	ctx  context.Context
	opts Options
	res  *Result
	rep  diag.Reporter
}

// Compile runs the pipeline over file id of fs up to stage.
func Compile(ctx context.Context, fs *source.FileSet, id source.FileID, stage Stage, opts Options) (*Result, error) {
	f := fs.Get(id)
	if f == nil {
		return nil, fmt.Errorf("unknown file id %d", id)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	res := &Result{
		Path:    f.Path,
		FileSet: fs,
		FileID:  id,
		Bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	c := &compilation{ctx: ctx, opts: opts, res: res, rep: diag.BagReporter{Bag: res.Bag}}

	var key project.Digest
	fingerprint := opts.fingerprint()
	if stage == StageAsm && opts.Cache != nil {
		key = project.Combine(f.Hash, fingerprint)
		if c.lookup(key) {
			return res, nil
		}
	}

	if err := c.frontend(); err != nil {
		return res, err
	}
	if stage == StageCheck {
		return res, nil
	}
	if err := c.lower(); err != nil {
		return res, err
	}
	if stage == StageLower {
		return res, nil
	}
	if err := c.assemble(); err != nil {
		return res, err
	}

	res.Artifact = cache.NewArtifact(res.Path, res.Program, f.Hash, fingerprint)
	if opts.Cache != nil {
		if err := opts.Cache.Put(res.Artifact); err != nil {
			res.CacheErr = err
			trace.Point(trace.FromContext(ctx), trace.ScopeStage, "cache/put", err.Error(), trace.ParentOf(ctx))
		}
	}
	return res, nil
}

func (c *compilation) lookup(key project.Digest) bool {
	a, ok, err := c.opts.Cache.Get(key)
	tr := trace.FromContext(c.ctx)
	if err != nil {
		// битый артефакт равносилен промаху
		trace.Point(tr, trace.ScopeStage, "cache/get", err.Error(), trace.ParentOf(c.ctx))
		return false
	}
	if !ok {
		return false
	}
	trace.Point(tr, trace.ScopeStage, "cache/hit", key.String()[:12], trace.ParentOf(c.ctx))
	c.res.Artifact = a
	c.res.Program = a.Program()
	c.res.CacheHit = true
	return true
}

// phase runs fn as one pipeline stage: a trace span, a timer phase and a
// pair of observer events.
func (c *compilation) phase(name string, fn func(ctx context.Context) error) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	ctx, span := trace.Start(c.ctx, trace.ScopeStage, name)
	span.WithExtra("file", filepath.Base(c.res.Path))
	idx := c.opts.Timer.Begin(name)
	c.observe(name, PhaseStart, 0)

	err := fn(ctx)
	note := filepath.Base(c.res.Path)
	if err != nil {
		note += ": failed"
	}
	dur := span.End(note)
	c.opts.Timer.End(idx, note)
	c.observe(name, PhaseEnd, dur)
	return err
}

func (c *compilation) observe(name string, st PhaseStatus, dur time.Duration) {
	if c.opts.Observer == nil {
		return
	}
	c.opts.Observer(PhaseEvent{Path: c.res.Path, Name: name, Status: st, Elapsed: dur})
}

func (c *compilation) frontend() error {
	res := c.res
	err := c.phase("parse", func(context.Context) error {
		res.AST = parser.ParseFile(res.FileSet, res.FileID, ast.NewBuilder(), parser.Options{Reporter: c.rep})
		return res.Bag.Err()
	})
	if err != nil {
		return err
	}
	err = c.phase("resolve", func(context.Context) error {
		res.Scopes = resolve.Resolve(res.AST, resolve.Options{Reporter: c.rep, Strict: c.opts.Strict})
		return res.Bag.Err()
	})
	if err != nil {
		return err
	}
	return c.phase("infer", func(ctx context.Context) error {
		res.Types = infer.NewEngine(infer.Options{Mode: c.opts.Check, Reporter: c.rep})
		res.Types.Infer(res.AST)
		trace.Point(trace.FromContext(ctx), trace.ScopePass, "infer/mode", c.opts.Check.String(), trace.ParentOf(ctx))
		return res.Bag.Err()
	})
}

func (c *compilation) lower() error {
	res := c.res
	err := c.phase("lower", func(context.Context) error {
		lopts := ir.LowerOptions{}
		// структурные типы не участвуют в выборе типов временных
		if c.opts.Check == infer.ModeConstraint {
			lopts.Types = res.Types.TypeOf
		}
		m, err := ir.NewLowerer(lopts).Lower(res.AST)
		if err != nil {
			var le *ir.LowerError
			sp := source.Span{File: res.FileID}
			if errors.As(err, &le) {
				sp = le.Span
			}
			res.Bag.Add(diag.NewError(diag.GenLowerFailed, sp, err.Error()))
			return res.Bag.Err()
		}
		res.Module = m
		return nil
	})
	if err != nil || !c.opts.Optimize {
		return err
	}
	return c.phase("opt", func(ctx context.Context) error {
		mgr, err := opt.NewManager(c.opts.Opt)
		if err != nil {
			return err
		}
		st := mgr.RunContext(ctx, res.Module)
		res.OptStats = &st
		if err := ir.Validate(res.Module); err != nil {
			return fmt.Errorf("invalid IR after optimization: %w", err)
		}
		return nil
	})
}

func (c *compilation) assemble() error {
	res := c.res
	return c.phase("asm", func(ctx context.Context) error {
		p, err := bytecode.NewAssembler().Assemble(res.Module)
		if err != nil {
			res.Bag.Add(diag.NewError(diag.GenAssembleFailed, source.Span{File: res.FileID}, err.Error()))
			return res.Bag.Err()
		}
		res.Program = p
		trace.Point(trace.FromContext(ctx), trace.ScopePass, "asm/size", strconv.Itoa(len(p.Code)), trace.ParentOf(ctx))
		return nil
	})
}
