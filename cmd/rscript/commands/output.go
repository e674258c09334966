package commands

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/rscript/internal/adapters/detector"
	"go.trai.ch/rscript/internal/ui/output"
)

// renderer returns a lipgloss renderer for w that honors --color.
func (c *CLI) renderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch detector.ColorMode(c.color) {
	case detector.ColorAlways:
		r.SetColorProfile(output.ColorProfileANSI())
	case detector.ColorNever:
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}
