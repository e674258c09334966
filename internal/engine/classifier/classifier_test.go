package classifier_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/engine/classifier"
)

const workDir = "/work"

func newClassifier(t *testing.T, files map[string]string) *classifier.Classifier {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(workDir, name), []byte(content), domain.FilePerm))
	}
	return classifier.New(fsys)
}

func TestClassify_File(t *testing.T) {
	c := newClassifier(t, map[string]string{"hello-world.rs": "#!/usr/bin/env rscript\nfn main() {}\n"})

	u, err := c.Classify(domain.Invocation{Script: "hello-world.rs", WorkDir: workDir})
	require.NoError(t, err)

	assert.Equal(t, domain.KindFile, u.Kind)
	assert.Equal(t, "#!/usr/bin/env rscript\nfn main() {}\n", u.Source)
	assert.Equal(t, filepath.Join(workDir, "hello-world.rs"), u.OriginPath)
	assert.Equal(t, workDir, u.BaseDir)
	assert.Equal(t, "hello-world", u.PackageName)
	assert.Equal(t, "hello_world", u.SafeName())
	assert.Equal(t, domain.ModeRelease, u.Mode)
	assert.False(t, u.SourceModTime.IsZero())
}

func TestClassify_FileExtensionProbe(t *testing.T) {
	c := newClassifier(t, map[string]string{"tool.rs": "fn main() {}\n"})

	u, err := c.Classify(domain.Invocation{Script: "tool", WorkDir: workDir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "tool.rs"), u.OriginPath)
}

func TestClassify_FileNotFound(t *testing.T) {
	c := newClassifier(t, nil)

	_, err := c.Classify(domain.Invocation{Script: "missing.rs", WorkDir: workDir})
	require.ErrorIs(t, err, domain.ErrScriptNotFound)

	_, err = c.Classify(domain.Invocation{Script: "missing", WorkDir: workDir})
	require.ErrorIs(t, err, domain.ErrScriptNotFound)
}

func TestClassify_Expression(t *testing.T) {
	c := newClassifier(t, nil)

	u, err := c.Classify(domain.Invocation{
		HasExpr:    true,
		Expr:       "1 + 2",
		Deps:       []string{"time=0.1.25"},
		DepExterns: []string{"lazy_static"},
		Externs:    []string{"regex=re"},
		Features:   []string{"a,b", "c"},
		WorkDir:    workDir,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.KindExpression, u.Kind)
	assert.Equal(t, "1 + 2", u.Source)
	assert.Equal(t, classifier.ExpressionPackageName, u.PackageName)
	assert.Equal(t, workDir, u.BaseDir)
	assert.Equal(t, []domain.Dependency{
		{Name: "time", Spec: domain.VersionSpec("0.1.25")},
		{Name: "lazy_static", Spec: domain.VersionSpec("*")},
	}, u.CLIDeps)
	assert.Equal(t, []domain.Extern{{Name: "lazy_static"}, {Name: "regex", Alias: "re"}}, u.Externs)
	assert.Equal(t, []string{"a", "b", "c"}, u.Features)
	assert.Equal(t, domain.TemplateExpr, u.TemplateName())
}

func TestClassify_Filter(t *testing.T) {
	c := newClassifier(t, nil)

	u, err := c.Classify(domain.Invocation{HasLoop: true, Loop: "|l| l.len()", Count: true, WorkDir: workDir})
	require.NoError(t, err)

	assert.Equal(t, domain.KindFilter, u.Kind)
	assert.Equal(t, classifier.FilterPackageName, u.PackageName)
	assert.Equal(t, domain.TemplateLoopCount, u.TemplateName())
}

func TestClassify_InvalidInvocation(t *testing.T) {
	tests := []struct {
		name string
		inv  domain.Invocation
	}{
		{"nothing given", domain.Invocation{}},
		{"script and expression", domain.Invocation{Script: "a.rs", HasExpr: true}},
		{"expression and filter", domain.Invocation{HasExpr: true, HasLoop: true}},
		{"count without loop", domain.Invocation{HasExpr: true, Count: true}},
		{"test with expression", domain.Invocation{HasExpr: true, Mode: domain.ModeTest}},
		{"bench with filter", domain.Invocation{HasLoop: true, Mode: domain.ModeBench}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifier(t, nil)
			_, err := c.Classify(tt.inv)
			require.ErrorIs(t, err, domain.ErrInvalidInvocation)
		})
	}
}

func TestClassify_InvalidDependency(t *testing.T) {
	c := newClassifier(t, nil)

	_, err := c.Classify(domain.Invocation{HasExpr: true, Expr: "1", Deps: []string{"bad name"}})
	require.ErrorIs(t, err, domain.ErrInvalidDependency)
}

func TestPackageName(t *testing.T) {
	tests := map[string]string{
		"/a/hello.rs":          "hello",
		"/a/Hello World.rs":    "hello_world",
		"/a/2fast.rs":          "script_2fast",
		"/a/with.dots.more.rs": "with_dots_more",
		"/a/ünicode.rs":        "_nicode",
		"/a/.rs":               "script",
	}
	for path, want := range tests {
		assert.Equal(t, want, classifier.PackageName(path), path)
	}
}
