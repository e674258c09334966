package resolver

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// quietWriter holds build output back until the build has run for longer
// than a threshold. After that, buffered and new output go straight to out.
type quietWriter struct {
	mu    sync.Mutex
	out   io.Writer
	buf   bytes.Buffer
	live  bool
	done  bool
	timer *time.Timer
}

// newQuietWriter returns a writer that starts streaming once threshold has
// elapsed. A non-positive threshold streams from the start.
func newQuietWriter(out io.Writer, threshold time.Duration) *quietWriter {
	w := &quietWriter{out: out}
	if threshold <= 0 {
		w.live = true
		return w
	}
	w.timer = time.AfterFunc(threshold, w.goLive)
	return w
}

func (w *quietWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.done:
		return len(p), nil
	case w.live:
		return w.out.Write(p)
	default:
		return w.buf.Write(p)
	}
}

func (w *quietWriter) goLive() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done || w.live {
		return
	}
	w.live = true
	_, _ = w.out.Write(w.buf.Bytes())
	w.buf.Reset()
}

// Flush writes everything held back and closes the writer.
func (w *quietWriter) Flush() {
	w.stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return
	}
	w.done = true
	if w.buf.Len() > 0 {
		_, _ = w.out.Write(w.buf.Bytes())
		w.buf.Reset()
	}
}

// Discard drops everything held back and closes the writer.
func (w *quietWriter) Discard() {
	w.stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.done = true
	w.buf.Reset()
}

// Live reports whether output is being streamed.
func (w *quietWriter) Live() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.live
}

func (w *quietWriter) stop() {
	if w.timer != nil {
		w.timer.Stop()
	}
}
