package detector_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/rscript/internal/adapters/detector"
)

func TestIsCI(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"false", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("CI="+tt.value, func(t *testing.T) {
			t.Setenv("CI", tt.value)
			assert.Equal(t, tt.want, detector.IsCI())
		})
	}
}

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, detector.IsTerminal(&bytes.Buffer{}))
}

func TestDetectColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.False(t, detector.DetectColor(&bytes.Buffer{}), "buffers are never terminals")

	t.Setenv("NO_COLOR", "1")
	assert.False(t, detector.DetectColor(&bytes.Buffer{}))
}

func TestResolveColor(t *testing.T) {
	tests := []struct {
		name         string
		autoDetected bool
		flag         string
		want         bool
	}{
		{"always overrides off", false, "always", true},
		{"never overrides on", true, "never", false},
		{"auto keeps detection on", true, "auto", true},
		{"auto keeps detection off", false, "auto", false},
		{"empty keeps detection", true, "", true},
		{"unknown keeps detection", false, "sometimes", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.ResolveColor(tt.autoDetected, tt.flag))
		})
	}
}
