package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rscript/internal/core/domain"
)

func TestMergedManifest_CanonicalIsOrderIndependent(t *testing.T) {
	a := domain.MergedManifest{Document: map[string]any{
		"package":      map[string]any{"name": "demo", "version": "0.1.0"},
		"dependencies": map[string]any{"time": "^0.1.25", "regex": "*"},
	}}
	b := domain.MergedManifest{Document: map[string]any{
		"dependencies": map[string]any{"regex": "*", "time": "^0.1.25"},
		"package":      map[string]any{"version": "0.1.0", "name": "demo"},
	}}

	ca, err := a.Canonical()
	require.NoError(t, err)
	cb, err := b.Canonical()
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
}

func TestMergedManifest_TOML(t *testing.T) {
	m := domain.MergedManifest{Document: map[string]any{
		"package":      map[string]any{"name": "demo"},
		"dependencies": map[string]any{"time": "^0.1.25"},
	}}

	data, err := m.TOML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "[package]")
	assert.Contains(t, string(data), `name = "demo"`)
	assert.Contains(t, string(data), `time = "^0.1.25"`)
}

func TestDependencySpec_Equal(t *testing.T) {
	assert.True(t, domain.VersionSpec("^1").Equal(domain.VersionSpec("^1")))
	assert.False(t, domain.VersionSpec("^1").Equal(domain.VersionSpec("^2")))

	path := domain.DependencySpec{Table: map[string]any{"path": "/x"}}
	assert.False(t, path.Equal(domain.VersionSpec("^1")))
	assert.True(t, path.Equal(domain.DependencySpec{Table: map[string]any{"path": "/x"}}))
	assert.Equal(t, `{"path":"/x"}`, path.String())
}

func TestFingerprint_IsValid(t *testing.T) {
	valid := domain.Fingerprint("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	assert.True(t, valid.IsValid())
	assert.Equal(t, "0123456789ab", valid.Short())
	assert.False(t, domain.Fingerprint("LAYOUT").IsValid())
	assert.False(t, domain.Fingerprint("zz23456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef").IsValid())
}

func TestCacheLayout(t *testing.T) {
	l := domain.NewCacheLayout("/home/u/.cargo")
	assert.Equal(t, "/home/u/.cargo/script-cache", l.Root)
	assert.Equal(t, "/home/u/.cargo/binary-cache", l.BinaryCache())
	assert.Equal(t, "/home/u/.cargo/.cargo", l.LegacyHome())
	assert.Equal(t, "/home/u/.cargo/script-cache/LAYOUT", l.MarkerPath())
	assert.Equal(t, "/home/u/.cargo/script-cache/abc/target", l.TargetDir("abc"))

	s := &domain.Settings{CargoHome: "/h", CacheDir: "/elsewhere"}
	assert.Equal(t, "/elsewhere", s.CacheLayout().Root)
	assert.Equal(t, "/h/binary-cache", s.CacheLayout().BinaryCache())
}
