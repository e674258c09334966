package resolver

import (
	"io"
	"time"
)

// QuietWriter exposes the output suppression policy for testing.
type QuietWriter = quietWriter

// NewQuietWriter exposes newQuietWriter for testing.
func NewQuietWriter(out io.Writer, threshold time.Duration) *QuietWriter {
	return newQuietWriter(out, threshold)
}
