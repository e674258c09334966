package cas_test

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rscript/internal/adapters/cas"
	"go.trai.ch/rscript/internal/core/domain"
)

var (
	fpA = domain.Fingerprint(strings.Repeat("a", domain.FingerprintLen))
	fpB = domain.Fingerprint(strings.Repeat("b", domain.FingerprintLen))
)

func testManifest() domain.MergedManifest {
	return domain.MergedManifest{
		PackageName: "demo",
		BinName:     "demo",
		Document: map[string]any{
			"package":      map[string]any{"name": "demo", "version": "0.1.0"},
			"dependencies": map[string]any{"time": "^0.1.25"},
		},
	}
}

func newStore(t *testing.T) (*cas.Store, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	return cas.NewStore(fsys, domain.NewCacheLayout("/home/cargo")), fsys
}

// buildEntry materializes fp, fakes the artifact the build would produce and records success.
func buildEntry(t *testing.T, s *cas.Store, fsys afero.Fs, fp domain.Fingerprint) string {
	t.Helper()
	dir, err := s.Materialize(fp, testManifest(), "fn main() {}\n")
	require.NoError(t, err)

	artifact := filepath.Join(dir, domain.TargetDirName, "release", "demo")
	require.NoError(t, afero.WriteFile(fsys, artifact, []byte("binary"), 0o755))
	require.NoError(t, s.RecordResult(fp, domain.BuildOutcome{
		Success: true,
		Entry:   domain.CacheEntry{PackageName: "demo", ArtifactPath: artifact, Mode: domain.ModeRelease},
	}))
	return artifact
}

func TestStore_LookupAbsent(t *testing.T) {
	s, _ := newStore(t)

	got, err := s.Lookup(fpA, domain.LookupOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.Absent, got.State)
	assert.Nil(t, got.Entry)
}

func TestStore_MaterializeWritesPackage(t *testing.T) {
	s, fsys := newStore(t)

	dir, err := s.Materialize(fpA, testManifest(), "fn main() {}\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/cargo/script-cache", fpA.String()), dir)

	src, err := afero.ReadFile(fsys, filepath.Join(dir, domain.SourceFileName))
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}\n", string(src))

	manifest, err := afero.ReadFile(fsys, filepath.Join(dir, domain.ManifestFileName))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), `time = "^0.1.25"`)

	infos, err := afero.ReadDir(fsys, dir)
	require.NoError(t, err)
	for _, info := range infos {
		assert.False(t, strings.HasSuffix(info.Name(), ".tmp"), "temp file left behind: %s", info.Name())
	}

	got, err := s.Lookup(fpA, domain.LookupOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.Absent, got.State, "entry must not be ready before a build succeeded")
}

func TestStore_ReadyAfterSuccess(t *testing.T) {
	s, fsys := newStore(t)
	artifact := buildEntry(t, s, fsys, fpA)

	got, err := s.Lookup(fpA, domain.LookupOptions{})
	require.NoError(t, err)
	require.Equal(t, domain.Ready, got.State)
	assert.Equal(t, artifact, got.Entry.ArtifactPath)
	assert.Equal(t, fpA, got.Entry.Fingerprint)
	assert.False(t, got.Entry.BuiltAt.IsZero())
}

func TestStore_LookupInvalidation(t *testing.T) {
	t.Run("force", func(t *testing.T) {
		s, fsys := newStore(t)
		buildEntry(t, s, fsys, fpA)

		got, err := s.Lookup(fpA, domain.LookupOptions{Force: true})
		require.NoError(t, err)
		assert.Equal(t, domain.Absent, got.State)
	})

	t.Run("artifact removed", func(t *testing.T) {
		s, fsys := newStore(t)
		artifact := buildEntry(t, s, fsys, fpA)
		require.NoError(t, fsys.Remove(artifact))

		got, err := s.Lookup(fpA, domain.LookupOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.Absent, got.State)
	})

	t.Run("source newer than artifact", func(t *testing.T) {
		s, fsys := newStore(t)
		artifact := buildEntry(t, s, fsys, fpA)
		built := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, fsys.Chtimes(artifact, built, built))

		got, err := s.Lookup(fpA, domain.LookupOptions{SourceModTime: built.Add(time.Minute)})
		require.NoError(t, err)
		assert.Equal(t, domain.Absent, got.State)

		got, err = s.Lookup(fpA, domain.LookupOptions{SourceModTime: built.Add(-time.Minute)})
		require.NoError(t, err)
		assert.Equal(t, domain.Ready, got.State)
	})

	t.Run("corrupt metadata", func(t *testing.T) {
		s, fsys := newStore(t)
		buildEntry(t, s, fsys, fpA)
		path := filepath.Join(s.Layout().EntryDir(fpA), domain.MetadataFileName)
		require.NoError(t, afero.WriteFile(fsys, path, []byte("{not json"), domain.FilePerm))

		got, err := s.Lookup(fpA, domain.LookupOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.Absent, got.State)
	})
}

func TestStore_RebuildCycle(t *testing.T) {
	s, fsys := newStore(t)
	buildEntry(t, s, fsys, fpA)

	dir, err := s.Materialize(fpA, testManifest(), "fn main() { println!(\"v2\"); }\n")
	require.NoError(t, err)

	got, err := s.Lookup(fpA, domain.LookupOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.Absent, got.State, "materialize must invalidate the previous result")

	exists, err := afero.Exists(fsys, filepath.Join(dir, domain.TargetDirName, "release", "demo"))
	require.NoError(t, err)
	assert.True(t, exists, "build output is kept for incremental rebuilds")

	require.NoError(t, s.RecordResult(fpA, domain.BuildOutcome{Success: false}))
	got, err = s.Lookup(fpA, domain.LookupOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.Absent, got.State)
}

func TestStore_ConcurrentMaterialize(t *testing.T) {
	s, fsys := newStore(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Materialize(fpA, testManifest(), "fn main() {}\n")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	src, err := afero.ReadFile(fsys, filepath.Join(s.Layout().EntryDir(fpA), domain.SourceFileName))
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}\n", string(src))
}

func TestStore_ListAndClean(t *testing.T) {
	s, fsys := newStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.SetNow(func() time.Time { return now.Add(-48 * time.Hour) })
	buildEntry(t, s, fsys, fpA)
	s.SetNow(func() time.Time { return now })
	buildEntry(t, s, fsys, fpB)
	require.NoError(t, fsys.MkdirAll(filepath.Join(s.Layout().Root, "not-an-entry"), domain.DirPerm))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, fpB, entries[0].Fingerprint)
	assert.Equal(t, fpA, entries[1].Fingerprint)

	report, err := s.Clean(domain.CleanOptions{OlderThan: 24 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, []domain.Fingerprint{fpA}, report.Removed)

	report, err = s.Clean(domain.CleanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []domain.Fingerprint{fpB}, report.Removed)

	exists, err := afero.DirExists(fsys, filepath.Join(s.Layout().Root, "not-an-entry"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_ListEmptyRoot(t *testing.T) {
	s, _ := newStore(t)

	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_WriteFailureIsCacheIO(t *testing.T) {
	s := cas.NewStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), domain.NewCacheLayout("/home/cargo"))

	_, err := s.Materialize(fpA, testManifest(), "fn main() {}\n")
	require.ErrorIs(t, err, domain.ErrCacheIO)
}
