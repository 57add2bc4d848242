// Package main implements the kestrel CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kestrel/internal/prof"
	"kestrel/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "kestrel",
	Short:         "kestrel language compiler and toolchain",
	Long:          `kestrel compiles small programs to bytecode, runs them on a stack VM and emits C`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyColorFlag(cmd); err != nil {
			return err
		}
		return startProfiling(cmd)
	},
}

// profiling is stopped by main after the command returns.
var profiling *prof.Session

func startProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	var cfg prof.Config
	cfg.CPU, _ = flags.GetString("cpuprofile")
	cfg.Mem, _ = flags.GetString("memprofile")
	cfg.Runtime, _ = flags.GetString("runtime-trace")
	if !cfg.Enabled() {
		return nil
	}
	s, err := prof.Start(cfg)
	if err != nil {
		return err
	}
	profiling = s
	return nil
}

// errReported marks a failure whose details were already printed
// (diagnostics, VM backtraces).
var errReported = errors.New("errors reported")

func init() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(emitCCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("config", "", "project manifest (default: nearest kestrel.toml or kestrel.yaml)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "do not read or write the artifact cache")

	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|stage|pass|debug)")
	rootCmd.PersistentFlags().String("trace-format", "text", "trace format (text|ndjson)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring); ring is dumped on failure")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")

	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to file")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
}

// main executes the root command. Any error exits with status 1.
func main() {
	err := rootCmd.Execute()
	if perr := profiling.Stop(); perr != nil {
		fmt.Fprintf(os.Stderr, "profiling: %v\n", perr)
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // Fd fits in int on supported platforms
}
