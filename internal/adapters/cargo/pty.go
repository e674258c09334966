package cargo

import (
	"io"
	"os/exec"

	"github.com/creack/pty"
)

// runWithPTY runs cmd with its stderr attached to a pseudo terminal so cargo
// keeps its colored progress output, and copies the terminal to out.
// It reports ran=false when no terminal could be opened, leaving cmd untouched.
func runWithPTY(cmd *exec.Cmd, out io.Writer) (ran bool, err error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return false, nil
	}
	defer func() { _ = ptmx.Close() }()

	cmd.Stderr = tty
	if err := cmd.Start(); err != nil {
		_ = tty.Close()
		return true, err
	}
	// The child holds its own copy; reads on ptmx end once it exits.
	_ = tty.Close()

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		_, _ = io.Copy(out, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	return true, err
}
