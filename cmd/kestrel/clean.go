package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"kestrel/internal/cache"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached artifacts",
	Long:  `Remove the project's artifact cache. With --all the build directory is removed too.`,
	Args:  cobra.NoArgs,
	RunE:  cleanExecution,
}

func init() {
	cleanCmd.Flags().Bool("all", false, "also remove the build output directory")
}

func cleanExecution(cmd *cobra.Command, args []string) (err error) {
	s, err := newSession(cmd, ".")
	if err != nil {
		return err
	}
	defer func() { err = s.finish(err) }()
	if !s.hasManifest {
		return errors.New("no kestrel.toml found; nothing to clean")
	}

	c := s.opts.Cache
	if c == nil {
		if c, err = cache.Open(s.manifest.CachePath()); err != nil {
			return err
		}
	}
	n, err := c.Len()
	if err != nil {
		return err
	}
	if err := c.DropAll(); err != nil {
		return err
	}
	s.printf("removed %d cached artifact(s) from %s\n", n, relPath(c.Dir()))

	if all, _ := cmd.Flags().GetBool("all"); all {
		out := s.manifest.OutPath()
		if err := os.RemoveAll(out); err != nil {
			return err
		}
		s.printf("removed %s\n", relPath(out))
	}
	return nil
}
