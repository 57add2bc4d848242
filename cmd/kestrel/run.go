package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kestrel/internal/driver"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [file.ks|file.kbc]",
	Short: "Compile and execute a program on the VM",
	Long: `Compile a source file (or load a .kbc artifact) and execute it on the
stack VM. The value returned by main is printed unless it is unit.
On a runtime error the backtrace is printed; with --trace-mode=ring the
last trace events are dumped as well.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExecution,
}

func init() {
	addCompileFlags(runCmd)
	runCmd.Flags().Bool("no-opt", false, "disable the optimizer")
}

func runExecution(cmd *cobra.Command, args []string) (err error) {
	s, err := newSession(cmd, startDirFor(args))
	if err != nil {
		return err
	}
	defer func() { err = s.finish(err) }()

	path := s.manifest.MainPath()
	if len(args) == 1 {
		path = args[0]
	}
	res, err := driver.LoadProgram(cmd.Context(), path, s.opts)
	if err != nil {
		return s.fail(res, err)
	}
	s.report(res)

	out, err := driver.Run(cmd.Context(), res.Program, s.opts)
	if err != nil {
		return s.failRun(res, err)
	}
	if out.Value != nil && !out.Value.IsUnit() {
		// результат печатается всегда, даже с --quiet
		fmt.Fprintln(cmd.OutOrStdout(), out.Value.String())
	}
	return nil
}
