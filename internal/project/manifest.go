package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Manifest is the decoded project file. Zero fields are filled by
// Defaults; CLI flags override whatever the file sets.
type Manifest struct {
	Package PackageConfig `toml:"package" yaml:"package"`
	Build   BuildConfig   `toml:"build" yaml:"build"`
	Check   CheckConfig   `toml:"check" yaml:"check"`
	VM      VMConfig      `toml:"vm" yaml:"vm"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`

	// Path and Root are set by Load.
	Path string `toml:"-" yaml:"-"`
	Root string `toml:"-" yaml:"-"`
}

type PackageConfig struct {
	Name    string `toml:"name" yaml:"name"`
	Version string `toml:"version" yaml:"version"`
	Main    string `toml:"main" yaml:"main"`
}

type BuildConfig struct {
	// Opt is a pointer so an explicit false survives Defaults.
	Opt           *bool    `toml:"opt" yaml:"opt"`
	MaxIterations int      `toml:"max_iterations" yaml:"max_iterations"`
	Passes        []string `toml:"passes" yaml:"passes"`
	OutDir        string   `toml:"out_dir" yaml:"out_dir"`
	Jobs          int      `toml:"jobs" yaml:"jobs"`
}

type CheckConfig struct {
	Mode           string `toml:"mode" yaml:"mode"`
	Strict         bool   `toml:"strict" yaml:"strict"`
	MaxDiagnostics int    `toml:"max_diagnostics" yaml:"max_diagnostics"`
}

type VMConfig struct {
	StackSize  int `toml:"stack_size" yaml:"stack_size"`
	MaxLocals  int `toml:"max_locals" yaml:"max_locals"`
	MaxGlobals int `toml:"max_globals" yaml:"max_globals"`
	MaxFrames  int `toml:"max_frames" yaml:"max_frames"`
}

type CacheConfig struct {
	Disabled bool   `toml:"disabled" yaml:"disabled"`
	Dir      string `toml:"dir" yaml:"dir"`
}

const (
	DefaultMain     = "main.ks"
	DefaultOutDir   = "build"
	DefaultCacheDir = ".kestrel/cache"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is empty.
	ErrPackageNameMissing = errors.New("missing [package].name")
)

// Default returns a manifest with every default applied, for runs without
// a project file.
func Default() *Manifest {
	m := &Manifest{}
	m.Defaults()
	return m
}

// Defaults fills zero fields.
func (m *Manifest) Defaults() {
	if m.Package.Main == "" {
		m.Package.Main = DefaultMain
	}
	if m.Build.Opt == nil {
		on := true
		m.Build.Opt = &on
	}
	if m.Build.MaxIterations == 0 {
		m.Build.MaxIterations = 10
	}
	if m.Build.OutDir == "" {
		m.Build.OutDir = DefaultOutDir
	}
	if m.Check.Mode == "" {
		m.Check.Mode = "structural"
	}
	if m.Check.MaxDiagnostics == 0 {
		m.Check.MaxDiagnostics = 100
	}
	if m.Cache.Dir == "" {
		m.Cache.Dir = DefaultCacheDir
	}
}

// Optimize reports whether the optimizer is enabled.
func (m *Manifest) Optimize() bool {
	return m.Build.Opt == nil || *m.Build.Opt
}

// Validate checks value ranges. All problems are joined into one error.
func (m *Manifest) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Package.Name) == "" && m.Path != "" {
		errs = append(errs, ErrPackageNameMissing)
	}
	if filepath.Ext(m.Package.Main) != ".ks" {
		errs = append(errs, fmt.Errorf("[package].main must be a .ks file, got %q", m.Package.Main))
	}
	if m.Build.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("[build].max_iterations must be positive, got %d", m.Build.MaxIterations))
	}
	if m.Build.Jobs < 0 {
		errs = append(errs, fmt.Errorf("[build].jobs must not be negative, got %d", m.Build.Jobs))
	}
	switch m.Check.Mode {
	case "structural", "constraint":
	default:
		errs = append(errs, fmt.Errorf("[check].mode must be structural or constraint, got %q", m.Check.Mode))
	}
	for name, v := range map[string]int{
		"stack_size":  m.VM.StackSize,
		"max_locals":  m.VM.MaxLocals,
		"max_globals": m.VM.MaxGlobals,
		"max_frames":  m.VM.MaxFrames,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("[vm].%s must not be negative, got %d", name, v))
		}
	}
	return errors.Join(errs...)
}

// MainPath returns the entry file resolved against Root.
func (m *Manifest) MainPath() string {
	return m.resolve(m.Package.Main)
}

// OutPath returns the build directory resolved against Root.
func (m *Manifest) OutPath() string {
	return m.resolve(m.Build.OutDir)
}

// CachePath returns the cache directory resolved against Root.
func (m *Manifest) CachePath() string {
	return m.resolve(m.Cache.Dir)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.Root == "" {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// Load decodes a manifest by extension (.toml, .yaml or .yml), applies
// defaults and validates it.
func Load(path string) (*Manifest, error) {
	// #nosec G304 -- path comes from FindManifest or the --config flag
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m *Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = decodeYAML(data)
	default:
		m, err = decodeTOML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	m.Path = abs
	m.Root = filepath.Dir(abs)
	m.Defaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Discover finds the nearest manifest above startDir and loads it. Without
// one it returns Default() rooted at startDir and ok=false.
func Discover(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		m = Default()
		if root, absErr := filepath.Abs(startDir); absErr == nil {
			m.Root = root
		}
		return m, false, nil
	}
	m, err = Load(path)
	return m, true, err
}

func decodeTOML(data []byte) (*Manifest, error) {
	var m Manifest
	meta, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if !meta.IsDefined("package") {
		return nil, ErrPackageSectionMissing
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return &m, nil
}

func decodeYAML(data []byte) (*Manifest, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if _, ok := raw["package"]; !ok {
		return nil, ErrPackageSectionMissing
	}
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &m, nil
}
