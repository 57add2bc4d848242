package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// colorEnabled maps --color to a decision for stdout. "auto" follows the
// terminal and NO_COLOR.
func colorEnabled(mode string, f *os.File) (bool, error) {
	switch strings.ToLower(mode) {
	case "on", "always", "true":
		return true, nil
	case "off", "never", "false":
		return false, nil
	case "auto", "":
		if _, set := os.LookupEnv("NO_COLOR"); set {
			return false, nil
		}
		return isTerminal(f), nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
}

func applyColorFlag(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	on, err := colorEnabled(mode, os.Stdout)
	if err != nil {
		return err
	}
	color.NoColor = !on
	return nil
}

func useColor() bool {
	return !color.NoColor
}
