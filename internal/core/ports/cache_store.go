package ports

import "go.trai.ch/rscript/internal/core/domain"

// CacheStore defines the interface for the on-disk package and artifact cache.
//
//go:generate mockgen -source=cache_store.go -destination=mocks/mock_cache_store.go -package=mocks
type CacheStore interface {
	// Layout returns the directories the store manages.
	Layout() domain.CacheLayout

	// Lookup reports whether a usable artifact exists for the fingerprint.
	Lookup(fp domain.Fingerprint, opts domain.LookupOptions) (domain.Lookup, error)

	// Materialize writes the package files for the fingerprint and returns its directory.
	// The entry reads as Absent until RecordResult reports a successful build.
	Materialize(fp domain.Fingerprint, manifest domain.MergedManifest, source string) (string, error)

	// RecordResult marks the entry Ready on success and Absent on failure.
	RecordResult(fp domain.Fingerprint, outcome domain.BuildOutcome) error

	// Migrate plans or applies the upgrade of older cache layouts.
	Migrate(kind domain.MigrationKind) (domain.MigrationReport, error)

	// List returns the Ready entries of the cache.
	List() ([]domain.CacheEntry, error)

	// Clean removes cache entries.
	Clean(opts domain.CleanOptions) (domain.CleanReport, error)
}
