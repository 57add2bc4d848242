package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kestrel/internal/diagfmt"
	"kestrel/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.ks]",
	Short: "Parse, resolve and type-check a source file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  checkExecution,
}

func init() {
	addCompileFlags(checkCmd)
	checkCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
}

func checkExecution(cmd *cobra.Command, args []string) (err error) {
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	s, err := newSession(cmd, startDirFor(args))
	if err != nil {
		return err
	}
	defer func() { err = s.finish(err) }()

	path := s.manifest.MainPath()
	if len(args) == 1 {
		path = args[0]
	}
	res, cerr := driver.CompileFile(cmd.Context(), path, driver.StageCheck, s.opts)
	if res == nil {
		return cerr
	}

	if format == "json" {
		res.Bag.Sort()
		jerr := diagfmt.JSON(cmd.OutOrStdout(), res.Bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
			Max:              s.manifest.Check.MaxDiagnostics,
			BaseDir:          s.manifest.Root,
		})
		if jerr != nil {
			return jerr
		}
		if cerr != nil {
			return errReported
		}
		return nil
	}

	if cerr != nil {
		return s.fail(res, cerr)
	}
	s.report(res)
	s.printf("%s: ok (%s mode)\n", relPath(res.Path), s.opts.Check)
	return nil
}
