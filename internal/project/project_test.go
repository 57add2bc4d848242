package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kestrel/internal/project"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kestrel.toml")
	writeFile(t, path, `
[package]
name = "demo"
main = "src/app.ks"

[build]
opt = false
passes = ["const-fold"]
jobs = 2

[check]
mode = "constraint"
strict = true

[vm]
max_frames = 32
`)
	m, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Package.Name != "demo" || m.Optimize() || m.Build.Jobs != 2 {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if m.Check.Mode != "constraint" || !m.Check.Strict || m.VM.MaxFrames != 32 {
		t.Fatalf("unexpected check/vm config %+v %+v", m.Check, m.VM)
	}
	if m.Build.MaxIterations != 10 || m.Check.MaxDiagnostics != 100 {
		t.Fatalf("defaults not applied: %+v", m.Build)
	}
	if got, want := m.MainPath(), filepath.Join(dir, "src", "app.ks"); got != want {
		t.Fatalf("MainPath = %q, want %q", got, want)
	}
	if got, want := m.CachePath(), filepath.Join(dir, ".kestrel", "cache"); got != want {
		t.Fatalf("CachePath = %q, want %q", got, want)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kestrel.yaml")
	writeFile(t, path, "package:\n  name: demo\nbuild:\n  max_iterations: 3\ncache:\n  disabled: true\n")
	m, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Build.MaxIterations != 3 || !m.Cache.Disabled || !m.Optimize() {
		t.Fatalf("unexpected manifest %+v", m)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"no package", "kestrel.toml", "[build]\nopt = true\n", "missing [package]"},
		{"no name", "kestrel.toml", "[package]\nmain = \"main.ks\"\n", "missing [package].name"},
		{"unknown key", "kestrel.toml", "[package]\nname = \"x\"\nbogus = 1\n", "unknown keys: package.bogus"},
		{"bad mode", "kestrel.toml", "[package]\nname = \"x\"\n[check]\nmode = \"loose\"\n", "[check].mode"},
		{"bad main", "kestrel.toml", "[package]\nname = \"x\"\nmain = \"main.py\"\n", "[package].main"},
		{"yaml unknown", "kestrel.yaml", "package:\n  name: x\n  colour: red\n", "colour"},
		{"yaml no package", "kestrel.yml", "build:\n  jobs: 1\n", "missing [package]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)
			_, err := project.Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	m := project.Default()
	m.Check.Mode = "nope"
	m.Build.Jobs = -1
	err := m.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "[check].mode") || !strings.Contains(err.Error(), "[build].jobs") {
		t.Fatalf("errors not joined: %v", err)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "kestrel.toml"), "[package]\nname = \"x\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok, err := project.FindProjectRoot(nested)
	if err != nil || !ok {
		t.Fatalf("FindProjectRoot: %v %v", ok, err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Fatalf("root = %q, want %q", got, want)
	}
}

func TestDiscoverWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	m, ok, err := project.Discover(dir)
	if err != nil || ok {
		t.Fatalf("Discover: ok=%v err=%v", ok, err)
	}
	if m.Package.Main != project.DefaultMain || !m.Optimize() {
		t.Fatalf("defaults missing: %+v", m)
	}
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hello")
	res, err := project.Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if res.MainExisting {
		t.Fatal("main.ks should be fresh")
	}
	m, err := project.Load(res.Manifest)
	if err != nil {
		t.Fatalf("generated manifest does not load: %v", err)
	}
	if m.Package.Name != "hello" {
		t.Fatalf("name = %q", m.Package.Name)
	}
	if _, err := os.Stat(res.Main); err != nil {
		t.Fatalf("main.ks missing: %v", err)
	}

	if _, err := project.Init(dir); err == nil || !strings.Contains(err.Error(), "already initialized") {
		t.Fatalf("second Init err = %v", err)
	}
}

func TestCombine(t *testing.T) {
	a := project.Sum([]byte("a"))
	b := project.Sum([]byte("b"))
	if project.Combine(a, b) == project.Combine(b, a) {
		t.Fatal("Combine must depend on order")
	}
	if project.Combine(a, b) != project.Combine(a, b) {
		t.Fatal("Combine must be deterministic")
	}
	if len(a.String()) != 64 {
		t.Fatalf("hex digest length = %d", len(a.String()))
	}
}

func TestMissingPackageSentinel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kestrel.toml")
	writeFile(t, path, "[vm]\nstack_size = 8\n")
	_, err := project.Load(path)
	if !errors.Is(err, project.ErrPackageSectionMissing) {
		t.Fatalf("err = %v, want ErrPackageSectionMissing", err)
	}
}
