// Package cas implements the on-disk cache of generated packages and their build artifacts.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Store implements ports.CacheStore with one directory per fingerprint:
//
//	<root>/<fingerprint>/Cargo.toml
//	<root>/<fingerprint>/main.rs
//	<root>/<fingerprint>/entry.json
//	<root>/<fingerprint>/target/
//
// An entry is Ready only while entry.json exists and points at an artifact.
type Store struct {
	fs     afero.Fs
	layout domain.CacheLayout
	now    func() time.Time
	group  singleflight.Group
}

// NewStore creates a new Store managing the directories of layout.
func NewStore(fsys afero.Fs, layout domain.CacheLayout) *Store {
	return &Store{
		fs:     fsys,
		layout: layout,
		now:    time.Now,
	}
}

// Layout returns the directories the store manages.
func (s *Store) Layout() domain.CacheLayout {
	return s.layout
}

// Lookup reports whether a usable artifact exists for fp.
func (s *Store) Lookup(fp domain.Fingerprint, opts domain.LookupOptions) (domain.Lookup, error) {
	entry, err := s.readEntry(fp)
	if err != nil {
		return domain.Lookup{}, err
	}
	if entry == nil {
		return domain.Lookup{State: domain.Absent, Reason: "no cache entry"}, nil
	}
	if opts.Force {
		return domain.Lookup{State: domain.Absent, Entry: entry, Reason: "rebuild forced"}, nil
	}

	info, err := s.fs.Stat(entry.ArtifactPath)
	if err != nil {
		return domain.Lookup{State: domain.Absent, Entry: entry, Reason: "artifact missing"}, nil
	}
	if !opts.SourceModTime.IsZero() && opts.SourceModTime.After(info.ModTime()) {
		return domain.Lookup{State: domain.Absent, Entry: entry, Reason: "script modified after build"}, nil
	}

	return domain.Lookup{State: domain.Ready, Entry: entry}, nil
}

// Materialize writes the package files for fp and returns the package directory.
// Concurrent calls for one fingerprint share a single write.
func (s *Store) Materialize(fp domain.Fingerprint, manifest domain.MergedManifest, source string) (string, error) {
	v, err, _ := s.group.Do(fp.String(), func() (any, error) {
		return s.materialize(fp, manifest, source)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Store) materialize(fp domain.Fingerprint, manifest domain.MergedManifest, source string) (string, error) {
	dir := s.layout.EntryDir(fp)
	if err := s.fs.MkdirAll(dir, domain.DirPerm); err != nil {
		return "", ioError(err, "failed to create cache entry", dir)
	}

	// The entry must read as Absent while its files are replaced.
	if err := s.removeMetadata(fp); err != nil {
		return "", err
	}

	doc, err := manifest.TOML()
	if err != nil {
		return "", err
	}
	if err := s.writeAtomic(filepath.Join(dir, domain.ManifestFileName), doc); err != nil {
		return "", err
	}
	if err := s.writeAtomic(filepath.Join(dir, domain.SourceFileName), []byte(source)); err != nil {
		return "", err
	}
	return dir, nil
}

// RecordResult marks fp Ready on success and Absent on failure.
func (s *Store) RecordResult(fp domain.Fingerprint, outcome domain.BuildOutcome) error {
	if !outcome.Success {
		return s.removeMetadata(fp)
	}

	entry := outcome.Entry
	entry.Fingerprint = fp
	entry.PackageDir = s.layout.EntryDir(fp)
	if entry.BuiltAt.IsZero() {
		entry.BuiltAt = s.now().UTC()
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to encode cache entry")
	}
	return s.writeAtomic(s.metadataPath(fp), data)
}

// List returns the Ready entries, most recently built first.
func (s *Store) List() ([]domain.CacheEntry, error) {
	fps, err := s.fingerprints()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.CacheEntry, 0, len(fps))
	for _, fp := range fps {
		entry, err := s.readEntry(fp)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].BuiltAt.After(entries[j].BuiltAt)
	})
	return entries, nil
}

// Clean removes every entry, or only those built before now minus opts.OlderThan.
// Directories that are not named like a fingerprint are left alone.
func (s *Store) Clean(opts domain.CleanOptions) (domain.CleanReport, error) {
	fps, err := s.fingerprints()
	if err != nil {
		return domain.CleanReport{}, err
	}

	var report domain.CleanReport
	var errs error
	cutoff := s.now().Add(-opts.OlderThan)
	for _, fp := range fps {
		if opts.OlderThan > 0 && !s.builtBefore(fp, cutoff) {
			continue
		}
		dir := s.layout.EntryDir(fp)
		if err := s.fs.RemoveAll(dir); err != nil {
			errs = errors.Join(errs, ioError(err, "failed to remove cache entry", dir))
			continue
		}
		report.Removed = append(report.Removed, fp)
	}
	return report, errs
}

func (s *Store) builtBefore(fp domain.Fingerprint, cutoff time.Time) bool {
	if entry, err := s.readEntry(fp); err == nil && entry != nil {
		return entry.BuiltAt.Before(cutoff)
	}
	info, err := s.fs.Stat(s.layout.EntryDir(fp))
	if err != nil {
		return false
	}
	return info.ModTime().Before(cutoff)
}

// fingerprints returns the fingerprint named directories below the root.
func (s *Store) fingerprints() ([]domain.Fingerprint, error) {
	infos, err := afero.ReadDir(s.fs, s.layout.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ioError(err, "failed to read cache directory", s.layout.Root)
	}

	var fps []domain.Fingerprint
	for _, info := range infos {
		fp := domain.Fingerprint(info.Name())
		if info.IsDir() && fp.IsValid() {
			fps = append(fps, fp)
		}
	}
	return fps, nil
}

func (s *Store) metadataPath(fp domain.Fingerprint) string {
	return filepath.Join(s.layout.EntryDir(fp), domain.MetadataFileName)
}

// readEntry returns nil when fp has no usable metadata.
func (s *Store) readEntry(fp domain.Fingerprint) (*domain.CacheEntry, error) {
	path := s.metadataPath(fp)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ioError(err, "failed to read cache entry", path)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.ArtifactPath == "" {
		return nil, nil
	}
	return &entry, nil
}

func (s *Store) removeMetadata(fp domain.Fingerprint) error {
	path := s.metadataPath(fp)
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioError(err, "failed to invalidate cache entry", path)
	}
	return nil
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it into place, so readers never observe a partial file.
func (s *Store) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, domain.DirPerm); err != nil {
		return ioError(err, "failed to create directory", dir)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return ioError(err, "failed to create temp file", dir)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = s.fs.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return ioError(err, "failed to write temp file", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return ioError(err, "failed to close temp file", tmpName)
	}
	if err := s.fs.Chmod(tmpName, domain.FilePerm); err != nil {
		return ioError(err, "failed to set file permissions", tmpName)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		return ioError(err, "failed to move file into place", path)
	}
	return nil
}

func ioError(err error, msg, path string) error {
	wrapped := zerr.With(zerr.Wrap(domain.ErrCacheIO, msg), "path", path)
	return zerr.With(wrapped, "cause", err.Error())
}
