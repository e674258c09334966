package domain

import "path/filepath"

const (
	// AppDirName is the name of the application directory inside the user config directory.
	AppDirName = "rscript"

	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "config.yaml"

	// TemplatesDirName is the name of the user template directory.
	TemplatesDirName = "templates"

	// TemplateExt is the file extension of user templates.
	TemplateExt = ".rs"

	// ScriptExt is the extension probed when a script path has none.
	ScriptExt = ".rs"

	// ScriptCacheDirName is the name of the package cache directory below the cargo home.
	ScriptCacheDirName = "script-cache"

	// BinaryCacheDirName is the name of the layout 1 compiled artifact directory.
	BinaryCacheDirName = "binary-cache"

	// LegacyHomeDirName is the directory below CARGO_HOME where very old releases kept their caches.
	LegacyHomeDirName = ".cargo"

	// LayoutMarkerFile records the layout version of the cache root.
	LayoutMarkerFile = "LAYOUT"

	// CurrentLayoutVersion is the layout produced by this release.
	CurrentLayoutVersion = 2

	// ManifestFileName is the name of the generated package manifest.
	ManifestFileName = "Cargo.toml"

	// SourceFileName is the name of the generated package source.
	SourceFileName = "main.rs"

	// MetadataFileName is the name of the per-entry metadata record.
	MetadataFileName = "entry.json"

	// TargetDirName is the build output directory inside an entry.
	TargetDirName = "target"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// CacheLayout locates the cache directories.
// Home is the cargo home; Root is the package cache, normally Home/script-cache.
type CacheLayout struct {
	Home string
	Root string
}

// NewCacheLayout returns the default layout below the given cargo home.
func NewCacheLayout(home string) CacheLayout {
	return CacheLayout{
		Home: home,
		Root: filepath.Join(home, ScriptCacheDirName),
	}
}

// EntryDir returns the package directory of a fingerprint.
func (l CacheLayout) EntryDir(fp Fingerprint) string {
	return filepath.Join(l.Root, fp.String())
}

// TargetDir returns the build output directory of a fingerprint.
func (l CacheLayout) TargetDir(fp Fingerprint) string {
	return filepath.Join(l.EntryDir(fp), TargetDirName)
}

// BinaryCache returns the layout 1 artifact directory.
func (l CacheLayout) BinaryCache() string {
	return filepath.Join(l.Home, BinaryCacheDirName)
}

// LegacyHome returns the directory very old releases used as their base.
func (l CacheLayout) LegacyHome() string {
	return filepath.Join(l.Home, LegacyHomeDirName)
}

// MarkerPath returns the path of the layout marker file.
func (l CacheLayout) MarkerPath() string {
	return filepath.Join(l.Root, LayoutMarkerFile)
}

// DefaultConfigPath returns the configuration file path below the given user config directory.
func DefaultConfigPath(userConfigDir string) string {
	return filepath.Join(userConfigDir, AppDirName, ConfigFileName)
}

// DefaultTemplateDir returns the template directory below the given user config directory.
func DefaultTemplateDir(userConfigDir string) string {
	return filepath.Join(userConfigDir, AppDirName, TemplatesDirName)
}
