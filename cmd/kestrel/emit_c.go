package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"kestrel/internal/cgen"
	"kestrel/internal/driver"
)

var emitCCmd = &cobra.Command{
	Use:   "emit-c [flags] [file.ks]",
	Short: "Translate a source file to C",
	Long: `Lower a source file and print it as a self-contained C program.
With -o the output is written to a file; "-o ." derives the name from the
source (main.ks -> main.c) in the build directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: emitCExecution,
}

func init() {
	addCompileFlags(emitCCmd)
	emitCCmd.Flags().Bool("no-opt", false, "disable the optimizer")
	emitCCmd.Flags().StringP("output", "o", "", "write C to this file instead of stdout")
}

func emitCExecution(cmd *cobra.Command, args []string) (err error) {
	s, err := newSession(cmd, startDirFor(args))
	if err != nil {
		return err
	}
	defer func() { err = s.finish(err) }()

	path := s.manifest.MainPath()
	if len(args) == 1 {
		path = args[0]
	}
	res, err := driver.CompileFile(cmd.Context(), path, driver.StageLower, s.opts)
	if err != nil {
		return s.fail(res, err)
	}
	s.report(res)

	var buf bytes.Buffer
	idx := s.opts.Timer.Begin("cgen")
	err = cgen.Emit(&buf, res.Module)
	s.opts.Timer.End(idx, filepath.Base(res.Path))
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("output")
	switch out {
	case "", "-":
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	case ".":
		base := strings.TrimSuffix(filepath.Base(res.Path), filepath.Ext(res.Path))
		out = filepath.Join(s.manifest.OutPath(), base+".c")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o600); err != nil {
		return err
	}
	s.printf("wrote %s\n", relPath(out))
	return nil
}
