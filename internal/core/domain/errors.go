package domain

import "go.trai.ch/zerr"

var (
	// ErrManifestParse is returned when an embedded manifest cannot be parsed.
	ErrManifestParse = zerr.New("failed to parse embedded manifest")

	// ErrTemplateMalformed is returned when a template is missing a required
	// placeholder, repeats one, or references an unknown placeholder.
	ErrTemplateMalformed = zerr.New("malformed template")

	// ErrTemplateNotFound is returned when no user or builtin template has the requested name.
	ErrTemplateNotFound = zerr.New("template not found")

	// ErrManifestConflict is returned when a single precedence tier declares
	// the same dependency with different specifications.
	ErrManifestConflict = zerr.New("conflicting dependency specifications")

	// ErrInvalidDependency is returned when a dependency name or version requirement is invalid.
	ErrInvalidDependency = zerr.New("invalid dependency")

	// ErrScriptNotFound is returned when the script path does not resolve to a file.
	ErrScriptNotFound = zerr.New("script not found")

	// ErrInvalidInvocation is returned for an illegal combination of invocation options.
	ErrInvalidInvocation = zerr.New("invalid invocation")

	// ErrInvalidBuildMode is returned when a build mode name is not recognized.
	ErrInvalidBuildMode = zerr.New("invalid build mode")

	// ErrInvalidArtifactStrategy is returned when an artifact strategy name is not recognized.
	ErrInvalidArtifactStrategy = zerr.New("invalid artifact strategy")

	// ErrCacheIO is returned when the cache store fails to read or write its entries.
	ErrCacheIO = zerr.New("cache I/O failure")

	// ErrMigrationFailed is returned when at least one migration step failed.
	ErrMigrationFailed = zerr.New("cache migration failed")

	// ErrBuildFailed is returned when the external build tool reports a failure.
	ErrBuildFailed = zerr.New("build failed")

	// ErrArtifactNotFound is returned when a successful build produced no locatable executable.
	ErrArtifactNotFound = zerr.New("build artifact not found")

	// ErrToolchainProbe is returned when the compiler version cannot be determined.
	ErrToolchainProbe = zerr.New("failed to probe toolchain")

	// ErrLaunchFailed is returned when the compiled artifact cannot be started.
	ErrLaunchFailed = zerr.New("failed to launch artifact")

	// ErrConfigRead is returned when the configuration file exists but cannot be read.
	ErrConfigRead = zerr.New("failed to read configuration file")

	// ErrConfigParse is returned when the configuration file is not valid.
	ErrConfigParse = zerr.New("failed to parse configuration file")

	// ErrHomeDirUnknown is returned when neither CARGO_HOME nor the user home directory is available.
	ErrHomeDirUnknown = zerr.New("cannot determine cargo home directory")
)
