package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"kestrel/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new kestrel project",
	Long: `Initialize a new kestrel project by creating a project manifest (kestrel.toml)
and an entry point (main.ks). If [path|name] is omitted, initializes the
current directory. A missing directory is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	res, err := project.Init(target)
	if err != nil {
		return err
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	if quiet {
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized kestrel project in %s\n", relPath(res.Root))
	fmt.Fprintf(out, "  - %s\n", filepath.Base(res.Manifest))
	if res.MainExisting {
		fmt.Fprintf(out, "  - %s (existing)\n", filepath.Base(res.Main))
	} else {
		fmt.Fprintf(out, "  - %s\n", filepath.Base(res.Main))
	}
	return nil
}
