package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// PrettyHandlerOptions は開発用ハンドラの設定
type PrettyHandlerOptions struct {
	SlogOpts slog.HandlerOptions
	Color    bool
}

// PrettyHandler は1行1レコードで色付きのログを出力するハンドラ
//
//	12:34:56.789 DEBUG Defined method name=fib params=1
type PrettyHandler struct {
	opts   PrettyHandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	groups []string

	levelColors map[slog.Level]*color.Color
	timeColor   *color.Color
	keyColor    *color.Color
}

// NewPrettyHandler は新しいPrettyHandlerを作成
func NewPrettyHandler(w io.Writer, opts PrettyHandlerOptions) *PrettyHandler {
	h := &PrettyHandler{
		opts: opts,
		mu:   &sync.Mutex{},
		w:    w,
		levelColors: map[slog.Level]*color.Color{
			slog.LevelDebug: color.New(color.FgMagenta),
			slog.LevelInfo:  color.New(color.FgBlue),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelError: color.New(color.FgRed, color.Bold),
		},
		timeColor: color.New(color.FgHiBlack),
		keyColor:  color.New(color.FgCyan),
	}

	for _, c := range h.colors() {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return h
}

func (h *PrettyHandler) colors() []*color.Color {
	out := []*color.Color{h.timeColor, h.keyColor}
	for _, c := range h.levelColors {
		out = append(out, c)
	}
	return out
}

// Enabled implements slog.Handler.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.SlogOpts.Level != nil {
		minLevel = h.opts.SlogOpts.Level.Level()
	}
	return level >= minLevel
}

// Handle implements slog.Handler.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	if !r.Time.IsZero() {
		buf.WriteString(h.timeColor.Sprint(r.Time.Format("15:04:05.000")))
		buf.WriteByte(' ')
	}
	buf.WriteString(h.levelColor(r.Level).Sprintf("%-5s", r.Level.String()))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(&buf, "", a)
	}
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func (h *PrettyHandler) levelColor(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return h.levelColors[slog.LevelError]
	case level >= slog.LevelWarn:
		return h.levelColors[slog.LevelWarn]
	case level >= slog.LevelInfo:
		return h.levelColors[slog.LevelInfo]
	default:
		return h.levelColors[slog.LevelDebug]
	}
}

func (h *PrettyHandler) writeAttr(buf *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, key, ga)
		}
		return
	}

	buf.WriteByte(' ')
	buf.WriteString(h.keyColor.Sprint(key))
	buf.WriteByte('=')
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\n\"") {
		val = fmt.Sprintf("%q", val)
	}
	buf.WriteString(val)
}

// WithAttrs implements slog.Handler.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	// attrs keep the groups open at the time they were added
	if len(h.groups) > 0 {
		attrs = []slog.Attr{{Key: strings.Join(h.groups, "."), Value: slog.GroupValue(attrs...)}}
	}
	h2 := *h
	h2.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &h2
}

// WithGroup implements slog.Handler.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string{}, h.groups...), name)
	return &h2
}
