package domain

import "time"

// LookupState is the result of checking the cache for a fingerprint.
type LookupState int

const (
	// Absent means the unit must be built.
	Absent LookupState = iota
	// Ready means a usable artifact exists.
	Ready
)

func (s LookupState) String() string {
	if s == Ready {
		return "ready"
	}
	return "absent"
}

// CacheEntry is the metadata record persisted next to a cached package.
type CacheEntry struct {
	Fingerprint  Fingerprint `json:"fingerprint"`
	PackageName  string      `json:"package_name"`
	PackageDir   string      `json:"package_dir"`
	ArtifactPath string      `json:"artifact_path"`
	Mode         BuildMode   `json:"mode"`
	Toolchain    string      `json:"toolchain"`
	Manifest     string      `json:"manifest"`
	OriginPath   string      `json:"origin_path,omitempty"`
	BuiltAt      time.Time   `json:"built_at"`
}

// LookupOptions adjusts a cache lookup.
type LookupOptions struct {
	// Force treats every entry as absent.
	Force bool
	// SourceModTime, when set, invalidates artifacts older than the source file.
	SourceModTime time.Time
}

// Lookup is the answer of the cache store for a fingerprint.
type Lookup struct {
	State LookupState
	Entry *CacheEntry
	// Reason explains an Absent state for verbose output.
	Reason string
}

// BuildOutcome reports the end of a build to the cache store.
type BuildOutcome struct {
	Success bool
	Entry   CacheEntry
}

// CleanOptions selects which cache entries to remove.
type CleanOptions struct {
	// OlderThan removes only entries built before now minus the duration. Zero removes all.
	OlderThan time.Duration
}

// CleanReport lists what a clean removed.
type CleanReport struct {
	Removed []Fingerprint
}
