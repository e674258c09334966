package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/rscript/internal/ui/output"
	"go.trai.ch/rscript/internal/ui/style"
)

// levelMark is the icon and color used for records at or above min.
type levelMark struct {
	min   slog.Level
	icon  string
	color lipgloss.Color
}

// levelMarks is ordered from most to least severe.
var levelMarks = []levelMark{
	{min: slog.LevelError, icon: style.Cross, color: style.Red},
	{min: slog.LevelWarn, icon: style.Warning, color: style.Yellow},
	{min: slog.LevelInfo, color: style.Slate},
}

var debugMark = levelMark{icon: style.Dot, color: style.Iris}

func markFor(level slog.Level) levelMark {
	for _, m := range levelMarks {
		if level >= m.min {
			return m
		}
	}
	return debugMark
}

// PrettyHandler renders records as a single colored line:
// an optional level icon, the message, then key=value pairs.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	mu    *sync.Mutex
	// bound holds attributes from WithAttrs, already rendered.
	bound string
	// prefix is the open group path, each name followed by a dot.
	prefix string
}

// NewPrettyHandler creates a PrettyHandler writing to w, or stderr when w is nil.
// The level is read on every record, so a *slog.LevelVar can change it later.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w),
		level: level,
		mu:    &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes one line for the record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	mark := markFor(r.Level)

	var line strings.Builder
	if mark.icon != "" {
		line.WriteString(mark.icon)
		line.WriteByte(' ')
	}
	line.WriteString(r.Message)
	line.WriteString(h.bound)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&line, h.prefix, a)
		return true
	})

	styled := h.out.String(line.String()).Foreground(termenv.RGBColor(string(mark.color)))

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs returns a handler that renders attrs on every record.
// The attrs keep the group path that is open at this point.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	var bound strings.Builder
	bound.WriteString(h.bound)
	for _, a := range attrs {
		writeAttr(&bound, h.prefix, a)
	}

	next := *h
	next.bound = bound.String()
	return &next
}

// WithGroup returns a handler that qualifies later keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix += name + "."
	return &next
}

// writeAttr appends " key=value". Group values are flattened into dotted keys
// and empty attributes are dropped.
func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, member := range a.Value.Group() {
			writeAttr(b, prefix, member)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}
