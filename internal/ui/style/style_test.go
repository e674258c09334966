package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/rscript/internal/ui/style"
)

func TestStylesKeepText(t *testing.T) {
	for _, s := range []string{
		style.Header.Render("templates"),
		style.Muted.Render("templates"),
		style.Success.Render("templates"),
	} {
		assert.Contains(t, s, "templates")
	}
}
