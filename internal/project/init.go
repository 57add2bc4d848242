package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InitResult lists what Init wrote.
type InitResult struct {
	Root         string
	Manifest     string
	Main         string
	MainExisting bool
}

// Init creates a project in dir: a kestrel.toml manifest and a main.ks
// entry. The directory is created when missing. An existing manifest is an
// error; an existing main.ks is kept.
func Init(dir string) (*InitResult, error) {
	target, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", target)
	}

	for _, name := range ManifestNames {
		if _, err := os.Stat(filepath.Join(target, name)); err == nil {
			return nil, fmt.Errorf("project already initialized: %s exists", filepath.Join(target, name))
		}
	}

	name := packageName(filepath.Base(target))
	res := &InitResult{
		Root:     target,
		Manifest: filepath.Join(target, "kestrel.toml"),
		Main:     filepath.Join(target, DefaultMain),
	}
	if err := os.WriteFile(res.Manifest, []byte(DefaultManifest(name)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	if _, err := os.Stat(res.Main); err == nil {
		res.MainExisting = true
		return res, nil
	}
	if err := os.WriteFile(res.Main, []byte(defaultMain), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", DefaultMain, err)
	}
	return res, nil
}

func packageName(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "kestrel-project"
	}
	return base
}

// DefaultManifest returns the manifest Init writes.
func DefaultManifest(name string) string {
	return fmt.Sprintf(`# kestrel project manifest
[package]
name = %q
version = "0.1.0"
main = %q

[build]
opt = true
max_iterations = 10
out_dir = %q

[check]
mode = "structural"
strict = false

[vm]
stack_size = 1024
max_frames = 256

[cache]
dir = %q
`, name, DefaultMain, DefaultOutDir, DefaultCacheDir)
}

const defaultMain = `// kestrel entry point
fn fib(n: int) -> int {
    if n < 2 {
        return n;
    }
    return fib(n - 1) + fib(n - 2);
}

fn main() -> int {
    return fib(10);
}
`
