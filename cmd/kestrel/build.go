package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"kestrel/internal/driver"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [files or dirs...]",
	Short: "Compile sources to bytecode (.kbc)",
	Long: `Compile each source to a .kbc bytecode artifact in the output directory.
Without arguments the project entry point ([package].main) is built.
Directories are searched for *.ks files. Files compile in parallel (-j).`,
	RunE: buildExecution,
}

func init() {
	addCompileFlags(buildCmd)
	buildCmd.Flags().Bool("no-opt", false, "disable the optimizer")
	buildCmd.Flags().StringP("out", "o", "", "output directory (default: [build].out_dir)")
	buildCmd.Flags().IntP("jobs", "j", 0, "parallel compile jobs (default: [build].jobs or GOMAXPROCS)")
	buildCmd.Flags().String("progress", "auto", "interactive progress (auto|on|off)")
}

func buildExecution(cmd *cobra.Command, args []string) (err error) {
	s, err := newSession(cmd, startDirFor(args))
	if err != nil {
		return err
	}
	defer func() { err = s.finish(err) }()

	paths := args
	if len(paths) == 0 {
		paths = []string{s.manifest.MainPath()}
	}
	paths, err = driver.ExpandPaths(paths)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no sources to build")
	}

	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = s.manifest.OutPath()
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs == 0 {
		jobs = s.manifest.Build.Jobs
	}

	progressMode, _ := cmd.Flags().GetString("progress")
	showProgress, err := progressEnabled(progressMode, s.quiet)
	if err != nil {
		return err
	}
	var results []*driver.Result
	if showProgress {
		results, err = runBuildWithUI(cmd.Context(), "building", paths, jobs, s.opts)
	} else {
		results, err = driver.BuildAll(cmd.Context(), paths, jobs, driver.StageAsm, s.opts)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			if rerr := s.fail(res, res.Err); !errors.Is(rerr, errReported) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Path, res.Err)
			}
			continue
		}
		s.report(res) // предупреждения
		out := driver.OutputPath(res.Path, outDir)
		if err := driver.WriteArtifactFile(out, res.Artifact); err != nil {
			return err
		}
		if res.CacheErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: cache write failed: %v\n", res.CacheErr)
		}
		suffix := ""
		if res.CacheHit {
			suffix = " (cached)"
		}
		s.printf("built %s -> %s%s\n", relPath(res.Path), relPath(out), suffix)
	}
	if failed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d file(s) failed\n", failed, len(results))
		return errReported
	}
	return nil
}

func relPath(p string) string {
	if !filepath.IsAbs(p) {
		return p
	}
	if wd, err := filepath.Abs("."); err == nil {
		if rel, err := filepath.Rel(wd, p); err == nil {
			return rel
		}
	}
	return p
}
