package domain

import (
	"sort"
	"strings"
	"time"
)

// Environment variables read by the tool.
const (
	EnvConfigPath       = "RSCRIPT_CONFIG"
	EnvCacheDir         = "RSCRIPT_CACHE_DIR"
	EnvTemplateDir      = "RSCRIPT_TEMPLATE_DIR"
	EnvArtifactStrategy = "RSCRIPT_ARTIFACT_STRATEGY"
	EnvCargoHome        = "CARGO_HOME"
	EnvCargo            = "CARGO"
	EnvRustc            = "RUSTC"
)

// Environment variables passed to builds and to the launched program.
const (
	EnvBasePath   = "RSCRIPT_BASE_PATH"
	EnvPkgName    = "RSCRIPT_PKG_NAME"
	EnvSafeName   = "RSCRIPT_SAFE_NAME"
	EnvScriptPath = "RSCRIPT_SCRIPT_PATH"
)

// DefaultQuietThreshold is how long build output is held back before it is shown.
const DefaultQuietThreshold = 2 * time.Second

// BuildEnv returns the variables describing a unit to its build and its program,
// as sorted KEY=VALUE pairs.
func BuildEnv(u CompilationUnit, strategy ArtifactStrategy) []string {
	// The script path is always set so an inherited value never leaks
	// into expression and filter programs.
	var scriptPath string
	if u.Kind == KindFile {
		scriptPath = u.OriginPath
	}
	vars := map[string]string{
		EnvBasePath:         u.BaseDir,
		EnvPkgName:          u.PackageName,
		EnvSafeName:         u.SafeName(),
		EnvScriptPath:       scriptPath,
		EnvArtifactStrategy: string(strategy),
	}

	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// Settings is the resolved configuration of the tool.
type Settings struct {
	// ConfigPath is the configuration file that was read, if any.
	ConfigPath       string
	CargoHome        string
	CacheDir         string
	TemplateDir      string
	QuietThreshold   time.Duration
	ArtifactStrategy ArtifactStrategy
	Cargo            string
	Rustc            string
}

// CacheLayout returns the cache directories described by the settings.
func (s *Settings) CacheLayout() CacheLayout {
	layout := NewCacheLayout(s.CargoHome)
	if s.CacheDir != "" {
		layout.Root = s.CacheDir
	}
	return layout
}

// MergeEnv layers KEY=VALUE overrides on top of a base environment.
// Later entries win. The result is sorted by key.
func MergeEnv(base []string, overrides ...[]string) []string {
	envMap := make(map[string]string, len(base))
	for _, layer := range append([][]string{base}, overrides...) {
		for _, entry := range layer {
			if k, v, ok := strings.Cut(entry, "="); ok && k != "" {
				envMap[k] = v
			}
		}
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}
