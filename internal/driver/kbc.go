package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kestrel/internal/cache"
	"kestrel/internal/diag"
)

// ArtifactExt is the extension of compiled bytecode files.
const ArtifactExt = ".kbc"

// OutputPath maps src to its artifact path under outDir.
func OutputPath(src, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(outDir, base+ArtifactExt)
}

// WriteArtifactFile atomically writes a to path.
func WriteArtifactFile(path string, a *cache.Artifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".kbc-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := cache.WriteArtifact(f, a); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ReadArtifactFile loads a .kbc file.
func ReadArtifactFile(path string) (*cache.Artifact, error) {
	// #nosec G304 -- path is a CLI argument
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, err := cache.ReadArtifact(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// IsArtifact reports whether path names a .kbc file.
func IsArtifact(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ArtifactExt)
}

// LoadProgram returns a runnable Result for path: .kbc files are decoded,
// sources are compiled to StageAsm.
func LoadProgram(ctx context.Context, path string, opts Options) (*Result, error) {
	if !IsArtifact(path) {
		return CompileFile(ctx, path, StageAsm, opts)
	}
	a, err := ReadArtifactFile(path)
	if err != nil {
		return nil, err
	}
	return &Result{Path: path, Bag: diag.NewBag(opts.MaxDiagnostics), Artifact: a, Program: a.Program(), CacheHit: true}, nil
}
