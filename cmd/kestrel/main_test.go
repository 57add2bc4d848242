package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"kestrel/internal/observ"
	"kestrel/internal/project"
)

// resetFlags returns every flag of cmd and its children to the default so
// successive executions in one test binary do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "app")
	if _, err := project.Init(dir); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestColorEnabled(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	tests := []struct {
		mode    string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"always", true, false},
		{"off", false, false},
		{"auto", false, false},
		{"", false, false},
		{"sometimes", false, true},
	}
	for _, tt := range tests {
		got, err := colorEnabled(tt.mode, os.Stdout)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("colorEnabled(%q) = %v, %v", tt.mode, got, err)
		}
	}
}

func TestPrintTimingsPlain(t *testing.T) {
	var buf bytes.Buffer
	printTimings(&buf, observ.Report{
		TotalMS: 3.5,
		Phases: []observ.PhaseReport{
			{Name: "parse", DurationMS: 1.25, Note: "main.ks"},
			{Name: "asm", DurationMS: 2.25},
		},
	}, false)
	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("plain output has escapes: %q", out)
	}
	for _, want := range []string{"timings", "parse", "1.25 ms", "main.ks", "asm", "total", "3.50 ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}

	buf.Reset()
	printTimings(&buf, observ.Report{}, false)
	if buf.Len() != 0 {
		t.Fatalf("empty report printed %q", buf.String())
	}
}

func TestRunProjectMain(t *testing.T) {
	dir := newProject(t)
	stdout, stderr, err := execute(t, "run", filepath.Join(dir, "main.ks"))
	if err != nil {
		t.Fatalf("run: %v\n%s", err, stderr)
	}
	if strings.TrimSpace(stdout) != "55" {
		t.Fatalf("stdout = %q, want 55", stdout)
	}
}

func TestBuildThenRunArtifact(t *testing.T) {
	dir := newProject(t)
	outDir := filepath.Join(dir, "out")
	mainPath := filepath.Join(dir, "main.ks")

	stdout, stderr, err := execute(t, "build", "-o", outDir, mainPath)
	if err != nil {
		t.Fatalf("build: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "built ") || strings.Contains(stdout, "(cached)") {
		t.Fatalf("first build output %q", stdout)
	}
	stdout, _, err = execute(t, "build", "-o", outDir, mainPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "(cached)") {
		t.Fatalf("second build should hit the cache: %q", stdout)
	}

	stdout, stderr, err = execute(t, "run", filepath.Join(outDir, "main.kbc"))
	if err != nil {
		t.Fatalf("run .kbc: %v\n%s", err, stderr)
	}
	if strings.TrimSpace(stdout) != "55" {
		t.Fatalf("stdout = %q", stdout)
	}

	stdout, _, err = execute(t, "--config", filepath.Join(dir, "kestrel.toml"), "clean")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "removed 1 cached artifact(s)") {
		t.Fatalf("clean output %q", stdout)
	}
}

func TestCheckReportsDiagnostics(t *testing.T) {
	dir := newProject(t)
	bad := filepath.Join(dir, "bad.ks")
	if err := os.WriteFile(bad, []byte("fn main() -> int { return true; }\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := execute(t, "check", "--mode", "constraint", bad)
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v, want errReported", err)
	}
	if !strings.Contains(stderr, "bad.ks:1:") {
		t.Fatalf("stderr lacks location:\n%s", stderr)
	}

	stdout, _, err := execute(t, "check", "--mode", "constraint", "--format", "json", bad)
	if !errors.Is(err, errReported) {
		t.Fatalf("json err = %v", err)
	}
	var payload struct {
		Count int `json:"count"`
	}
	if jerr := json.Unmarshal([]byte(stdout), &payload); jerr != nil {
		t.Fatalf("invalid json %q: %v", stdout, jerr)
	}
	if payload.Count == 0 {
		t.Fatal("json reported no diagnostics")
	}

	stdout, _, err = execute(t, "check", filepath.Join(dir, "main.ks"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "ok (structural mode)") {
		t.Fatalf("check output %q", stdout)
	}
}

func TestRunReportsRuntimeError(t *testing.T) {
	dir := newProject(t)
	src := filepath.Join(dir, "div.ks")
	if err := os.WriteFile(src, []byte("fn div(a: int, b: int) -> int { return a / b; }\nfn main() -> int { return div(1, 0); }\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, stderr, err := execute(t, "run", "--no-opt", src)
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(strings.ToLower(stderr), "division by zero") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, _, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "kestrel" || payload.Version == "" {
		t.Fatalf("payload = %+v", payload)
	}
	if _, _, err := execute(t, "version", "--format", "xml"); err == nil {
		t.Fatal("unknown format accepted")
	}
}

func TestProgressEnabled(t *testing.T) {
	for mode, want := range map[string]bool{"on": true, "off": false, "auto": false} {
		// в тестах stdout не терминал
		got, err := progressEnabled(mode, false)
		if err != nil || got != want {
			t.Errorf("progressEnabled(%q) = %v, %v", mode, got, err)
		}
	}
	if got, _ := progressEnabled("auto", true); got {
		t.Error("quiet must disable auto progress")
	}
	if _, err := progressEnabled("maybe", false); err == nil {
		t.Error("invalid mode accepted")
	}
}
