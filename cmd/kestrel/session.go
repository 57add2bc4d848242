package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kestrel/internal/cache"
	"kestrel/internal/diag"
	"kestrel/internal/diagfmt"
	"kestrel/internal/driver"
	"kestrel/internal/infer"
	"kestrel/internal/observ"
	"kestrel/internal/project"
	"kestrel/internal/vm"
)

// session bundles what one command invocation needs: the manifest, the
// driver options derived from it and the flags, and the tracer.
type session struct {
	cmd         *cobra.Command
	manifest    *project.Manifest
	hasManifest bool
	opts        driver.Options
	trace       *tracing
	quiet       bool
	timings     bool
}

// addCompileFlags registers the flags shared by commands that compile.
func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "type checking mode (structural|constraint)")
	cmd.Flags().Bool("strict", false, "report unresolved identifiers")
	cmd.Flags().StringSlice("passes", nil, "optimizer passes in order (const-fold,dce,simplify-cfg)")
	cmd.Flags().Int("max-iterations", 0, "cap on optimizer fixed-point iterations")
}

// newSession loads the manifest next to startDir (or --config), applies
// flag overrides and starts tracing.
func newSession(cmd *cobra.Command, startDir string) (*session, error) {
	rootFlags := cmd.Root().PersistentFlags()
	quiet, _ := rootFlags.GetBool("quiet")
	timings, _ := rootFlags.GetBool("timings")
	configPath, _ := rootFlags.GetString("config")

	var (
		m   *project.Manifest
		ok  bool
		err error
	)
	if configPath != "" {
		m, err = project.Load(configPath)
		ok = true
	} else {
		m, ok, err = project.Discover(startDir)
	}
	if err != nil {
		return nil, err
	}
	if err := applyManifestFlags(cmd, m); err != nil {
		return nil, err
	}
	opts, err := driver.FromManifest(m)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Lookup("no-opt") != nil {
		if noOpt, _ := cmd.Flags().GetBool("no-opt"); noOpt {
			opts.Optimize = false
		}
	}

	noCache, _ := rootFlags.GetBool("no-cache")
	if ok && !noCache && !m.Cache.Disabled {
		c, err := cache.Open(m.CachePath())
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		opts.Cache = c
	}
	if timings {
		opts.Timer = observ.NewTimer()
	}

	tr, err := setupTracing(cmd)
	if err != nil {
		return nil, err
	}
	return &session{
		cmd:         cmd,
		manifest:    m,
		hasManifest: ok,
		opts:        opts,
		trace:       tr,
		quiet:       quiet,
		timings:     timings,
	}, nil
}

func applyManifestFlags(cmd *cobra.Command, m *project.Manifest) error {
	rootFlags := cmd.Root().PersistentFlags()
	if rootFlags.Changed("max-diagnostics") {
		m.Check.MaxDiagnostics, _ = rootFlags.GetInt("max-diagnostics")
	}
	flags := cmd.Flags()
	if flags.Lookup("mode") != nil && flags.Changed("mode") {
		mode, _ := flags.GetString("mode")
		if _, err := infer.ParseMode(mode); err != nil {
			return err
		}
		m.Check.Mode = mode
	}
	if flags.Lookup("strict") != nil && flags.Changed("strict") {
		m.Check.Strict, _ = flags.GetBool("strict")
	}
	if flags.Lookup("passes") != nil && flags.Changed("passes") {
		m.Build.Passes, _ = flags.GetStringSlice("passes")
	}
	if flags.Lookup("max-iterations") != nil && flags.Changed("max-iterations") {
		m.Build.MaxIterations, _ = flags.GetInt("max-iterations")
	}
	return m.Validate()
}

// startDirFor picks the directory manifest discovery starts from.
func startDirFor(args []string) string {
	if len(args) == 0 {
		return "."
	}
	if st, err := os.Stat(args[0]); err == nil && st.IsDir() {
		return args[0]
	}
	return filepath.Dir(args[0])
}

// finish prints timings and closes the tracer. It returns err unchanged.
func (s *session) finish(err error) error {
	if s.timings && s.opts.Timer != nil {
		printTimings(s.cmd.ErrOrStderr(), s.opts.Timer.Report(), useColor())
	}
	s.trace.close(s.cmd, err)
	return err
}

// report prints the diagnostics collected for res.
func (s *session) report(res *driver.Result) {
	if res == nil || res.Bag == nil || res.Bag.Len() == 0 {
		return
	}
	res.Bag.Sort()
	res.Bag.Dedup()
	opts := diagfmt.PrettyOpts{
		Color:     useColor(),
		ShowNotes: true,
		Max:       s.manifest.Check.MaxDiagnostics,
	}
	if s.hasManifest {
		opts.BaseDir = s.manifest.Root
	} else if wd, err := os.Getwd(); err == nil {
		opts.BaseDir = wd
	}
	if err := diagfmt.Pretty(s.cmd.ErrOrStderr(), res.Bag, res.FileSet, opts); err != nil {
		fmt.Fprintf(s.cmd.ErrOrStderr(), "failed to print diagnostics: %v\n", err)
	}
}

// fail turns a compile error into the command result: diagnostics are
// printed and replaced by errReported.
func (s *session) fail(res *driver.Result, err error) error {
	var be *diag.BagError
	if errors.As(err, &be) {
		s.report(res)
		return errReported
	}
	return err
}

// failRun prints a VM error with its backtrace and the trace ring.
func (s *session) failRun(res *driver.Result, err error) error {
	var ve *vm.VMError
	if !errors.As(err, &ve) {
		return err
	}
	stderr := s.cmd.ErrOrStderr()
	fmt.Fprint(stderr, ve.Format(res.Program))
	s.trace.dump(stderr)
	return errReported
}

func (s *session) printf(format string, args ...any) {
	if s.quiet {
		return
	}
	fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
