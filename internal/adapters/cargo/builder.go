// Package cargo provides the builder adapter that compiles generated packages with cargo.
package cargo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/core/ports"
	"go.trai.ch/zerr"
)

// envTargetDir points cargo at the per-entry build directory.
const envTargetDir = "CARGO_TARGET_DIR"

// Builder implements ports.Builder by invoking cargo and rustc.
type Builder struct {
	cargo  string
	rustc  string
	logger ports.Logger

	mu        sync.Mutex
	toolchain string
}

// NewBuilder creates a new Builder using the given cargo and rustc executables.
func NewBuilder(cargo, rustc string, logger ports.Logger) *Builder {
	return &Builder{
		cargo:  cargo,
		rustc:  rustc,
		logger: logger,
	}
}

// Toolchain returns the verbose version of rustc. The result is cached for
// the lifetime of the builder.
func (b *Builder) Toolchain(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.toolchain != "" {
		return b.toolchain, nil
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.rustc, "-vV") //nolint:gosec // configured compiler
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", zerr.With(zerr.With(zerr.With(
			zerr.Wrap(domain.ErrToolchainProbe, "rustc -vV failed"),
			"rustc", b.rustc), "cause", err.Error()), "stderr", strings.TrimSpace(stderr.String()))
	}

	version := strings.TrimSpace(stdout.String())
	if version == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrToolchainProbe, "rustc printed no version"), "rustc", b.rustc)
	}

	b.toolchain = version
	return version, nil
}

// Build compiles the package in req.PackageDir.
//
// With the accurate strategy the executable is taken from cargo's JSON
// messages and compiler diagnostics are rendered to req.Output. With the
// heuristic strategy cargo output is streamed as is and the executable is
// located in the target directory afterwards.
func (b *Builder) Build(ctx context.Context, req domain.BuildRequest) (domain.BuildResult, error) {
	out := req.Output
	if out == nil {
		out = os.Stderr
	}

	args := buildArgs(req)
	b.logger.Debug("running " + b.cargo + " " + strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, b.cargo, args...) //nolint:gosec // configured build tool
	cmd.Dir = req.PackageDir
	cmd.Env = domain.MergeEnv(os.Environ(), req.Env, []string{
		envTargetDir + "=" + filepath.Join(req.PackageDir, domain.TargetDirName),
	})

	var msgs *messageReader
	if req.Strategy == domain.StrategyAccurate {
		msgs = newMessageReader(out, req.BinName)
		cmd.Stdout = msgs
	} else {
		cmd.Stdout = out
	}

	if err := run(cmd, out, req.Color); err != nil {
		return domain.BuildResult{}, buildError(err, req)
	}

	if msgs != nil {
		msgs.Flush()
		if msgs.executable == "" {
			return domain.BuildResult{}, zerr.With(zerr.Wrap(
				domain.ErrArtifactNotFound, "cargo reported no executable"),
				"package", req.PackageName)
		}
		return domain.BuildResult{ArtifactPath: msgs.executable}, nil
	}

	path, err := LocateArtifact(req.PackageDir, req.BinName, req.Mode)
	if err != nil {
		return domain.BuildResult{}, err
	}
	return domain.BuildResult{ArtifactPath: path}, nil
}

// buildArgs returns the cargo command line for a request.
func buildArgs(req domain.BuildRequest) []string {
	var args []string
	switch req.Mode {
	case domain.ModeDebug:
		args = []string{"build"}
	case domain.ModeTest:
		args = []string{"test", "--no-run"}
	case domain.ModeBench:
		args = []string{"bench", "--no-run"}
	default:
		args = []string{"build", "--release"}
	}

	args = append(args, "--manifest-path", filepath.Join(req.PackageDir, domain.ManifestFileName))

	if len(req.Features) > 0 {
		args = append(args, "--features", strings.Join(req.Features, ","))
	}

	if req.Strategy == domain.StrategyAccurate {
		format := "json"
		if req.Color {
			format = "json-diagnostic-rendered-ansi"
		}
		args = append(args, "--message-format="+format)
	}

	if req.Color {
		args = append(args, "--color=always")
	}

	return args
}

// run starts cmd with stderr attached to out, through a pseudo terminal when color is requested.
func run(cmd *exec.Cmd, out io.Writer, color bool) error {
	if color {
		if ran, err := runWithPTY(cmd, out); ran {
			return err
		}
	}
	cmd.Stderr = out
	return cmd.Run()
}

func buildError(err error, req domain.BuildRequest) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return zerr.With(zerr.With(
			zerr.Wrap(domain.ErrBuildFailed, "cargo reported a failure"),
			"package", req.PackageName), "exit_code", exitErr.ExitCode())
	}
	return zerr.With(zerr.With(
		zerr.Wrap(domain.ErrBuildFailed, "failed to run cargo"),
		"package", req.PackageName), "cause", err.Error())
}

// LocateArtifact finds the executable cargo produced for a package by
// probing the target directory layout.
//
// Binaries live at target/<profile>/<name>. Test and bench harnesses live
// at target/<profile>/deps/<crate>-<hash>; the newest one is returned.
func LocateArtifact(packageDir, name string, mode domain.BuildMode) (string, error) {
	profileDir := filepath.Join(packageDir, domain.TargetDirName, mode.Profile())

	if !mode.IsHarness() {
		path := filepath.Join(profileDir, name+exeSuffix())
		if isExecutable(path) {
			return path, nil
		}
		return "", zerr.With(zerr.Wrap(domain.ErrArtifactNotFound, "no executable in target directory"), "path", path)
	}

	depsDir := filepath.Join(profileDir, "deps")
	entries, err := os.ReadDir(depsDir)
	if err != nil {
		return "", zerr.With(zerr.With(
			zerr.Wrap(domain.ErrArtifactNotFound, "cannot read deps directory"),
			"path", depsDir), "cause", err.Error())
	}

	prefix := strings.ReplaceAll(name, "-", "_") + "-"
	var best string
	var bestMod int64
	for _, entry := range entries {
		fileName := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(fileName, prefix) {
			continue
		}
		if ext := filepath.Ext(fileName); ext != exeSuffix() && ext != "" {
			continue
		}
		path := filepath.Join(depsDir, fileName)
		info, err := entry.Info()
		if err != nil || !isExecutable(path) {
			continue
		}
		if mod := info.ModTime().UnixNano(); best == "" || mod > bestMod {
			best, bestMod = path, mod
		}
	}

	if best == "" {
		return "", zerr.With(zerr.With(
			zerr.Wrap(domain.ErrArtifactNotFound, "no harness executable in deps directory"),
			"path", depsDir), "crate", prefix)
	}
	return best, nil
}

// messageReader decodes cargo's JSON message stream line by line.
type messageReader struct {
	out        io.Writer
	binName    string
	buf        []byte
	executable string
}

func newMessageReader(out io.Writer, binName string) *messageReader {
	return &messageReader{out: out, binName: binName}
}

// cargoMessage is the subset of a cargo JSON message that is inspected.
type cargoMessage struct {
	Reason  string `json:"reason"`
	Message *struct {
		Rendered string `json:"rendered"`
	} `json:"message"`
	Target *struct {
		Name string   `json:"name"`
		Kind []string `json:"kind"`
	} `json:"target"`
	Executable *string `json:"executable"`
}

func (r *messageReader) Write(p []byte) (int, error) {
	r.buf = append(r.buf, p...)
	for {
		i := bytes.IndexByte(r.buf, '\n')
		if i < 0 {
			break
		}
		r.handleLine(r.buf[:i])
		r.buf = r.buf[i+1:]
	}
	return len(p), nil
}

// Flush handles a trailing line without a newline.
func (r *messageReader) Flush() {
	if len(r.buf) > 0 {
		r.handleLine(r.buf)
		r.buf = nil
	}
}

func (r *messageReader) handleLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var msg cargoMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		// Not a message; build scripts may print to stdout.
		_, _ = r.out.Write(append(line, '\n'))
		return
	}

	switch msg.Reason {
	case "compiler-message":
		if msg.Message != nil && msg.Message.Rendered != "" {
			_, _ = io.WriteString(r.out, msg.Message.Rendered)
		}
	case "compiler-artifact":
		if msg.Executable == nil || *msg.Executable == "" {
			return
		}
		if r.binName != "" && msg.Target != nil && msg.Target.Name != r.binName {
			return
		}
		r.executable = *msg.Executable
	}
}
