// Package config resolves the tool settings from the optional configuration
// file, the environment, and built-in defaults.
package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	defaultCargo = "cargo"
	defaultRustc = "rustc"
)

// Environment abstracts the process environment for testability.
type Environment struct {
	Getenv        func(key string) string
	UserConfigDir func() (string, error)
	UserHomeDir   func() (string, error)
	GOOS          string
}

// OSEnvironment returns the environment of the running process.
func OSEnvironment() Environment {
	return Environment{
		Getenv:        os.Getenv,
		UserConfigDir: os.UserConfigDir,
		UserHomeDir:   os.UserHomeDir,
		GOOS:          runtime.GOOS,
	}
}

// fileConfig represents the structure of the config.yaml file.
type fileConfig struct {
	CacheDir         string `yaml:"cache_dir"`
	TemplateDir      string `yaml:"template_dir"`
	QuietThreshold   string `yaml:"quiet_threshold"`
	ArtifactStrategy string `yaml:"artifact_strategy"`
	Cargo            string `yaml:"cargo"`
	Rustc            string `yaml:"rustc"`
}

// Loader implements ports.ConfigLoader.
type Loader struct {
	fs  afero.Fs
	env Environment
}

// NewLoader creates a new configuration loader.
func NewLoader(fsys afero.Fs, env Environment) *Loader {
	return &Loader{fs: fsys, env: env}
}

// Load reads the configuration file if present and layers the environment
// over it. Environment variables always win over file values.
func (l *Loader) Load() (*domain.Settings, error) {
	userCfgDir, _ := l.userConfigDir()

	path := l.getenv(domain.EnvConfigPath)
	if path == "" && userCfgDir != "" {
		path = domain.DefaultConfigPath(userCfgDir)
	}

	cfg, found, err := l.readFile(path)
	if err != nil {
		return nil, err
	}

	settings := &domain.Settings{
		CacheDir:    cfg.CacheDir,
		TemplateDir: cfg.TemplateDir,
		Cargo:       cfg.Cargo,
		Rustc:       cfg.Rustc,
	}
	if found {
		settings.ConfigPath = path
	}

	home, err := l.cargoHome()
	if err != nil {
		return nil, err
	}
	settings.CargoHome = home

	if v := l.getenv(domain.EnvCacheDir); v != "" {
		settings.CacheDir = v
	}
	if v := l.getenv(domain.EnvTemplateDir); v != "" {
		settings.TemplateDir = v
	}
	if v := l.getenv(domain.EnvCargo); v != "" {
		settings.Cargo = v
	}
	if v := l.getenv(domain.EnvRustc); v != "" {
		settings.Rustc = v
	}

	strategy := cfg.ArtifactStrategy
	if v := l.getenv(domain.EnvArtifactStrategy); v != "" {
		strategy = v
	}
	settings.ArtifactStrategy, err = domain.ParseArtifactStrategy(strategy, l.env.GOOS)
	if err != nil {
		return nil, err
	}

	settings.QuietThreshold = domain.DefaultQuietThreshold
	if cfg.QuietThreshold != "" {
		d, perr := time.ParseDuration(cfg.QuietThreshold)
		if perr != nil || d < 0 {
			return nil, zerr.With(
				zerr.Wrap(domain.ErrConfigParse, "invalid quiet_threshold"),
				"value", cfg.QuietThreshold,
			)
		}
		settings.QuietThreshold = d
	}

	if settings.TemplateDir == "" && userCfgDir != "" {
		settings.TemplateDir = domain.DefaultTemplateDir(userCfgDir)
	}
	if settings.Cargo == "" {
		settings.Cargo = defaultCargo
	}
	if settings.Rustc == "" {
		settings.Rustc = defaultRustc
	}

	settings.CacheDir = l.expandHome(settings.CacheDir)
	settings.TemplateDir = l.expandHome(settings.TemplateDir)

	return settings, nil
}

func (l *Loader) readFile(path string) (fileConfig, bool, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, false, nil
	}

	f, err := l.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, false, nil
		}
		return cfg, false, zerr.With(zerr.With(
			zerr.Wrap(domain.ErrConfigRead, "failed to open configuration file"),
			"path", path), "cause", err.Error())
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, false, zerr.With(zerr.With(
			zerr.Wrap(domain.ErrConfigParse, "invalid configuration file"),
			"path", path), "cause", err.Error())
	}
	return cfg, true, nil
}

func (l *Loader) cargoHome() (string, error) {
	if v := l.getenv(domain.EnvCargoHome); v != "" {
		return l.expandHome(v), nil
	}
	if l.env.UserHomeDir != nil {
		if home, err := l.env.UserHomeDir(); err == nil && home != "" {
			return filepath.Join(home, ".cargo"), nil
		}
	}
	return "", domain.ErrHomeDirUnknown
}

func (l *Loader) expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	if l.env.UserHomeDir == nil {
		return p
	}
	home, err := l.env.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func (l *Loader) userConfigDir() (string, error) {
	if l.env.UserConfigDir == nil {
		return "", nil
	}
	return l.env.UserConfigDir()
}

func (l *Loader) getenv(key string) string {
	if l.env.Getenv == nil {
		return ""
	}
	return strings.TrimSpace(l.env.Getenv(key))
}
