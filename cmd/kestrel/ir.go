package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"kestrel/internal/driver"
	"kestrel/internal/ir"
)

var irCmd = &cobra.Command{
	Use:   "ir [flags] [file.ks]",
	Short: "Print the lowered IR",
	Args:  cobra.MaximumNArgs(1),
	RunE:  irExecution,
}

func init() {
	addCompileFlags(irCmd)
	irCmd.Flags().Bool("opt", false, "run the optimizer before printing")
	irCmd.Flags().Bool("stats", false, "print optimizer statistics to stderr")
}

func irExecution(cmd *cobra.Command, args []string) (err error) {
	s, err := newSession(cmd, startDirFor(args))
	if err != nil {
		return err
	}
	defer func() { err = s.finish(err) }()

	s.opts.Optimize, _ = cmd.Flags().GetBool("opt")
	path := s.manifest.MainPath()
	if len(args) == 1 {
		path = args[0]
	}
	res, err := driver.CompileFile(cmd.Context(), path, driver.StageLower, s.opts)
	if err != nil {
		return s.fail(res, err)
	}
	s.report(res)
	if err := ir.Dump(cmd.OutOrStdout(), res.Module); err != nil {
		return err
	}
	if stats, _ := cmd.Flags().GetBool("stats"); stats && res.OptStats != nil {
		printOptStats(cmd, res)
	}
	return nil
}

func printOptStats(cmd *cobra.Command, res *driver.Result) {
	st := res.OptStats
	names := make([]string, 0, len(st.Changes))
	for name := range st.Changes {
		names = append(names, name)
	}
	slices.Sort(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, st.Changes[name])
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "opt: %d iteration(s), converged=%t, instrs %d -> %d, changes [%s]\n",
		st.Iterations, st.Converged, st.InstrsBefore, st.InstrsAfter, strings.Join(parts, " "))
}
