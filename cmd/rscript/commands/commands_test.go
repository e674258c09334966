package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rscript/cmd/rscript/commands"
	"go.trai.ch/rscript/internal/app"
	"go.trai.ch/rscript/internal/build"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type mockApp struct {
	runFunc     func(ctx context.Context, inv domain.Invocation, opts app.RunOptions) (int, error)
	templates   []domain.Template
	dumpText    string
	templateDir string
	migrateDry  *bool
	cleanOpts   *domain.CleanOptions
	entries     []domain.CacheEntry
}

func (m *mockApp) Run(ctx context.Context, inv domain.Invocation, opts app.RunOptions) (int, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, inv, opts)
	}
	return 0, nil
}

func (m *mockApp) ListTemplates(context.Context) ([]domain.Template, error) {
	return m.templates, nil
}

func (m *mockApp) DumpTemplate(_ context.Context, name string) (string, error) {
	if name != "expr" {
		return "", domain.ErrTemplateNotFound
	}
	return m.dumpText, nil
}

func (m *mockApp) TemplatePath() (string, error) {
	return m.templateDir, nil
}

func (m *mockApp) Migrate(_ context.Context, dryRun bool) (domain.MigrationReport, error) {
	m.migrateDry = &dryRun
	return domain.MigrationReport{}, nil
}

func (m *mockApp) Clean(_ context.Context, opts domain.CleanOptions) (domain.CleanReport, error) {
	m.cleanOpts = &opts
	return domain.CleanReport{}, nil
}

func (m *mockApp) ListCache(context.Context) ([]domain.CacheEntry, error) {
	return m.entries, nil
}

func newCLI(t *testing.T, a commands.Application) (*commands.CLI, *bytes.Buffer) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().SetVerbose(gomock.Any()).AnyTimes()
	log.EXPECT().SetJSON(gomock.Any()).AnyTimes()

	cli := commands.New(a, log)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	return cli, buf
}

func captureRun(inv *domain.Invocation, opts *app.RunOptions, code int) *mockApp {
	return &mockApp{
		runFunc: func(_ context.Context, got domain.Invocation, gotOpts app.RunOptions) (int, error) {
			*inv = got
			*opts = gotOpts
			return code, nil
		},
	}
}

func TestCommands_Script(t *testing.T) {
	t.Run("script arguments pass through", func(t *testing.T) {
		var inv domain.Invocation
		var opts app.RunOptions
		cli, _ := newCLI(t, captureRun(&inv, &opts, 0))
		cli.SetArgs([]string{"hello.rs", "--flag", "-v", "run"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "hello.rs", inv.Script)
		assert.Equal(t, []string{"--flag", "-v", "run"}, inv.Args)
		assert.NotEmpty(t, inv.WorkDir)
		assert.Equal(t, domain.ModeRelease, inv.Mode)
		assert.False(t, opts.Color)
	})

	t.Run("wires flags correctly", func(t *testing.T) {
		var inv domain.Invocation
		var opts app.RunOptions
		cli, _ := newCLI(t, captureRun(&inv, &opts, 0))
		cli.SetArgs([]string{
			"-d", "time=0.1.25", "-D", "regex", "-x", "log=logging", "-t", "custom",
			"--debug", "--features", "a,b", "-f", "--build-only", "--color", "always",
			"hello.rs",
		})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, []string{"time=0.1.25"}, inv.Deps)
		assert.Equal(t, []string{"regex"}, inv.DepExterns)
		assert.Equal(t, []string{"log=logging"}, inv.Externs)
		assert.Equal(t, "custom", inv.Template)
		assert.Equal(t, domain.ModeDebug, inv.Mode)
		assert.Equal(t, []string{"a", "b"}, inv.Features)
		assert.Empty(t, inv.Args)
		assert.True(t, opts.Force)
		assert.True(t, opts.BuildOnly)
		assert.False(t, opts.GenPkgOnly)
		assert.True(t, opts.Color)
	})

	t.Run("propagates the exit code", func(t *testing.T) {
		var inv domain.Invocation
		var opts app.RunOptions
		cli, _ := newCLI(t, captureRun(&inv, &opts, 42))
		cli.SetArgs([]string{"hello.rs"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, 42, cli.ExitCode())
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		cli, _ := newCLI(t, &mockApp{
			runFunc: func(context.Context, domain.Invocation, app.RunOptions) (int, error) {
				return 1, errors.New("simulated error")
			},
		})
		cli.SetArgs([]string{"hello.rs"})

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("shows usage when nothing to run", func(t *testing.T) {
		cli, buf := newCLI(t, &mockApp{
			runFunc: func(context.Context, domain.Invocation, app.RunOptions) (int, error) {
				panic("should not be called")
			},
		})
		cli.SetArgs([]string{})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Contains(t, buf.String(), "Usage:")
	})

	t.Run("rejects an unknown color mode", func(t *testing.T) {
		cli, _ := newCLI(t, &mockApp{})
		cli.SetArgs([]string{"--color", "sometimes", "hello.rs"})

		err := cli.Execute(context.Background())
		require.ErrorIs(t, err, domain.ErrInvalidInvocation)
	})
}

func TestCommands_Expression(t *testing.T) {
	var inv domain.Invocation
	var opts app.RunOptions
	cli, _ := newCLI(t, captureRun(&inv, &opts, 0))
	cli.SetArgs([]string{"-e", "1 + 2", "extra"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, inv.HasExpr)
	assert.Equal(t, "1 + 2", inv.Expr)
	assert.Empty(t, inv.Script)
	assert.Equal(t, []string{"extra"}, inv.Args)
}

func TestCommands_Loop(t *testing.T) {
	var inv domain.Invocation
	var opts app.RunOptions
	cli, _ := newCLI(t, captureRun(&inv, &opts, 0))
	cli.SetArgs([]string{"run", "-l", "|l, n| n", "--count", "--gen-pkg-only"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, inv.HasLoop)
	assert.True(t, inv.Count)
	assert.Equal(t, "|l, n| n", inv.Loop)
	assert.True(t, opts.GenPkgOnly)
}

func TestCommands_Templates(t *testing.T) {
	builtin, _ := domain.BuiltinTemplate(domain.TemplateExpr)
	mock := &mockApp{
		templates: []domain.Template{
			builtin,
			{Name: "mine", Path: "/tpl/mine.rs"},
		},
		dumpText:    "#{prelude}#{script}",
		templateDir: "/tpl",
	}

	t.Run("list", func(t *testing.T) {
		cli, buf := newCLI(t, mock)
		cli.SetArgs([]string{"templates", "list", "--color", "never"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "expr (builtin)\nmine (/tpl/mine.rs)\n", buf.String())
	})

	t.Run("dump", func(t *testing.T) {
		cli, buf := newCLI(t, mock)
		cli.SetArgs([]string{"templates", "dump", "expr"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "#{prelude}#{script}\n", buf.String())
	})

	t.Run("dump unknown", func(t *testing.T) {
		cli, _ := newCLI(t, mock)
		cli.SetArgs([]string{"templates", "dump", "nope"})

		require.ErrorIs(t, cli.Execute(context.Background()), domain.ErrTemplateNotFound)
	})

	t.Run("path", func(t *testing.T) {
		cli, buf := newCLI(t, mock)
		cli.SetArgs([]string{"templates", "path"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "/tpl\n", buf.String())
	})
}

func TestCommands_Cache(t *testing.T) {
	t.Run("migrate dry run", func(t *testing.T) {
		mock := &mockApp{}
		cli, _ := newCLI(t, mock)
		cli.SetArgs([]string{"cache", "migrate", "--dry-run"})

		require.NoError(t, cli.Execute(context.Background()))
		require.NotNil(t, mock.migrateDry)
		assert.True(t, *mock.migrateDry)
	})

	t.Run("clean older than", func(t *testing.T) {
		mock := &mockApp{}
		cli, _ := newCLI(t, mock)
		cli.SetArgs([]string{"cache", "clean", "--older-than", "48h"})

		require.NoError(t, cli.Execute(context.Background()))
		require.NotNil(t, mock.cleanOpts)
		assert.Equal(t, 48*time.Hour, mock.cleanOpts.OlderThan)
	})

	t.Run("list", func(t *testing.T) {
		mock := &mockApp{entries: []domain.CacheEntry{{
			Fingerprint: domain.Fingerprint("0123456789abcdef0123456789abcdef"),
			PackageName: "hello",
			Mode:        domain.ModeRelease,
			BuiltAt:     time.Date(2024, 7, 21, 10, 0, 0, 0, time.UTC),
		}}}
		cli, buf := newCLI(t, mock)
		cli.SetArgs([]string{"cache", "list", "--color", "never"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Contains(t, buf.String(), "1 cached artifacts")
		assert.Contains(t, buf.String(), "hello")
		assert.Contains(t, buf.String(), "2024-07-21T10:00:00Z")
	})

	t.Run("list empty", func(t *testing.T) {
		cli, buf := newCLI(t, &mockApp{})
		cli.SetArgs([]string{"cache", "list"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Contains(t, buf.String(), "cache is empty")
	})
}

func TestCommands_Version(t *testing.T) {
	cli, buf := newCLI(t, &mockApp{})
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), build.Version)
}
