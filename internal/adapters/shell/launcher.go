// Package shell provides the adapter that runs compiled artifacts.
package shell

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/core/ports"
	"go.trai.ch/zerr"
)

// interruptGrace is how long a cancelled program may run after it was interrupted.
const interruptGrace = 5 * time.Second

// Launcher implements ports.Launcher using os/exec.
type Launcher struct {
	logger ports.Logger
}

// NewLauncher creates a new Launcher.
func NewLauncher(logger ports.Logger) *Launcher {
	return &Launcher{
		logger: logger,
	}
}

// Launch runs the artifact with the given arguments and returns its exit code.
// A non-zero exit is not an error; failing to start the program is.
//
// The environment is os.Environ() overlaid with req.Env. Unset standard
// streams are inherited from the current process.
func (l *Launcher) Launch(ctx context.Context, req domain.LaunchRequest) (int, error) {
	cmd := exec.CommandContext(ctx, req.Path, req.Args...) //nolint:gosec // artifact built from user script
	cmd.Dir = req.Dir
	cmd.Env = domain.MergeEnv(os.Environ(), req.Env)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if req.Stdin != nil {
		cmd.Stdin = req.Stdin
	}
	if req.Stdout != nil {
		cmd.Stdout = req.Stdout
	}
	if req.Stderr != nil {
		cmd.Stderr = req.Stderr
	}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = interruptGrace

	l.logger.Debug("launching " + strings.Join(append([]string{req.Path}, req.Args...), " "))

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Terminated by a signal.
			code = 1
		}
		return code, nil
	}

	return -1, zerr.With(zerr.With(
		zerr.Wrap(domain.ErrLaunchFailed, "failed to start program"),
		"path", req.Path), "cause", err.Error())
}
