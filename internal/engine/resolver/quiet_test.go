package resolver_test

import (
	"bytes"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/rscript/internal/engine/resolver"
)

func TestQuietWriter_FastSuccessDiscards(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var out bytes.Buffer
		w := resolver.NewQuietWriter(&out, 2*time.Second)

		_, _ = w.Write([]byte("   Compiling demo v0.1.0\n"))
		time.Sleep(time.Second)
		w.Discard()

		assert.False(t, w.Live())
		assert.Empty(t, out.String())
	})
}

func TestQuietWriter_SlowBuildStreams(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var out bytes.Buffer
		w := resolver.NewQuietWriter(&out, 2*time.Second)

		_, _ = w.Write([]byte("first\n"))
		time.Sleep(3 * time.Second)

		assert.True(t, w.Live())
		assert.Equal(t, "first\n", out.String())

		_, _ = w.Write([]byte("second\n"))
		assert.Equal(t, "first\nsecond\n", out.String())

		w.Discard()
		_, _ = w.Write([]byte("dropped\n"))
		assert.Equal(t, "first\nsecond\n", out.String())
	})
}

func TestQuietWriter_FailureFlushes(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var out bytes.Buffer
		w := resolver.NewQuietWriter(&out, 2*time.Second)

		_, _ = w.Write([]byte("error[E0425]: cannot find value `x`\n"))
		time.Sleep(500 * time.Millisecond)
		w.Flush()

		assert.Equal(t, "error[E0425]: cannot find value `x`\n", out.String())

		// The threshold passing later changes nothing.
		time.Sleep(5 * time.Second)
		assert.False(t, w.Live())
		assert.Equal(t, "error[E0425]: cannot find value `x`\n", out.String())
	})
}

func TestQuietWriter_ZeroThresholdStreams(t *testing.T) {
	var out bytes.Buffer
	w := resolver.NewQuietWriter(&out, 0)

	_, _ = w.Write([]byte("live\n"))
	assert.True(t, w.Live())
	assert.Equal(t, "live\n", out.String())
}
