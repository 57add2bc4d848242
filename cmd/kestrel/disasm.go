package main

import (
	"github.com/spf13/cobra"

	"kestrel/internal/bytecode"
	"kestrel/internal/driver"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [flags] [file.ks|file.kbc]",
	Short: "Assemble a source (or load a .kbc) and print its bytecode",
	Args:  cobra.MaximumNArgs(1),
	RunE:  disasmExecution,
}

func init() {
	addCompileFlags(disasmCmd)
	disasmCmd.Flags().Bool("no-opt", false, "disable the optimizer")
	disasmCmd.Flags().Bool("raw", false, "print bare instructions without function headers")
}

func disasmExecution(cmd *cobra.Command, args []string) (err error) {
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
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		return bytecode.Disassemble(cmd.OutOrStdout(), res.Program.Code)
	}
	return bytecode.DisassembleProgram(cmd.OutOrStdout(), res.Program)
}
