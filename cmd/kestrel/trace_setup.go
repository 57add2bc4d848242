package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kestrel/internal/trace"
)

// tracing is the tracer attached to the command context plus what the
// CLI needs to dump or close it.
type tracing struct {
	tracer trace.Tracer
	ring   *trace.RingTracer
	format trace.Format
	span   *trace.Span
}

// setupTracing inspects trace-related flags, attaches a tracer to the
// command context and opens the driver-scope span of the command.
func setupTracing(cmd *cobra.Command) (*tracing, error) {
	flags := cmd.Root().PersistentFlags()

	output, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	// --trace без уровня включает стадии
	if level == trace.LevelOff && output != "" {
		level = trace.LevelStage
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	t := &tracing{tracer: tracer, format: format}
	if ring, ok := tracer.(*trace.RingTracer); ok {
		t.ring = ring
	}
	ctx, span := trace.Start(trace.WithTracer(cmd.Context(), tracer), trace.ScopeDriver, cmd.Name())
	t.span = span
	cmd.SetContext(ctx)
	return t, nil
}

// dump writes the ring buffer, if any, to w.
func (t *tracing) dump(w io.Writer) {
	if t == nil || t.ring == nil {
		return
	}
	fmt.Fprintln(w, "--- trace (last events) ---")
	if err := t.ring.Dump(w, t.format); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}

// close ends the command span and flushes the tracer.
func (t *tracing) close(cmd *cobra.Command, err error) {
	if t == nil {
		return
	}
	detail := ""
	if err != nil {
		detail = "failed"
	}
	t.span.End(detail)
	if err := t.tracer.Flush(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
	}
	if err := t.tracer.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
	}
}
