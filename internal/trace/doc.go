// Package trace records what the compiler and VM are doing.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	kestrel run --trace=- --trace-level=pass prog.ks
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelStage: CLI command and pipeline stages (parse, infer, lower, opt, asm, run)
//   - LevelPass: Optimizer passes and per-function work
//   - LevelDebug: Everything including single VM instructions
//
// # Context Propagation
//
// Tracers travel through the pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeStage, "parse", trace.ParentOf(ctx))
//	defer span.End("")
package trace
