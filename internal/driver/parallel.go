package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"kestrel/internal/diag"
	"kestrel/internal/source"
)

// SourceExt is the extension of kestrel source files.
const SourceExt = ".ks"

// ListSources возвращает отсортированный список всех *.ks файлов в директории
func ListSources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// ExpandPaths replaces directories in paths with the sources they contain.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			out = append(out, p)
			continue
		}
		files, err := ListSources(p)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// BuildAll compiles every path to stage with at most jobs files in flight;
// jobs <= 0 means GOMAXPROCS. Results keep the order of paths. A file that
// fails to load or compile records the error in its Result.Err; only
// cancellation aborts the group.
func BuildAll(ctx context.Context, paths []string, jobs int, stage Stage, opts Options) ([]*Result, error) {
	results := make([]*Result, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := buildOne(gctx, path, stage, opts)
			res.Err = err
			if opts.Observer != nil {
				st := FileDone
				if err != nil {
					st = FileFailed
				}
				opts.Observer(PhaseEvent{Path: res.Path, Status: st, Err: err})
			}
			// индекс i уникален для горутины, мьютекс не нужен
			results[i] = res
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func buildOne(ctx context.Context, path string, stage Stage, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		bag := diag.NewBag(opts.MaxDiagnostics)
		bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+err.Error()))
		return &Result{Path: path, FileSet: fs, Bag: bag}, err
	}
	res, err := Compile(ctx, fs, id, stage, opts)
	if res == nil {
		res = &Result{Path: path, FileSet: fs, FileID: id, Bag: diag.NewBag(opts.MaxDiagnostics)}
	}
	return res, err
}
