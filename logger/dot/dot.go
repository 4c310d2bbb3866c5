package dot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/k1LoW/errors"
	"github.com/mattn/go-colorable"
)

var (
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

var glyphs = map[string]func(a ...any) string{
	"displayed image":       yellow,
	"skipped duplicate":     gray,
	"skipped missing image": gray,
	"rescanned playlist":    green,
}

var marks = map[string]string{
	"displayed image":       ".",
	"skipped duplicate":     "=",
	"skipped missing image": "-",
	"rescanned playlist":    "+",
}

var _ slog.Handler = (*dotHandler)(nil)

type dotHandler struct {
	handler slog.Handler
	spinner *spinner.Spinner
	stdout  io.Writer
	prefix  *[]byte
}

// New returns a handler that prints slideshow progress as glyphs on stdout.
func New(h slog.Handler) (_ *dotHandler, err error) {
	return newHandler(h, colorable.NewColorableStdout())
}

func newHandler(h slog.Handler, stdout io.Writer) (_ *dotHandler, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(stdout))
	if err := s.Color("yellow"); err != nil {
		return nil, err
	}
	s.Start()
	s.Disable()
	return &dotHandler{
		handler: h,
		spinner: s,
		stdout:  stdout,
		prefix:  new([]byte),
	}, nil
}

func (h *dotHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *dotHandler) Handle(ctx context.Context, r slog.Record) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()

	if strings.HasPrefix(r.Message, "retrying") {
		if !h.spinner.Enabled() {
			h.spinner.Enable()
		}
		return nil
	}
	if h.spinner.Enabled() {
		h.spinner.Disable()
		_, _ = h.stdout.Write(*h.prefix)
	}
	if mark, ok := marks[r.Message]; ok {
		return h.write([]byte(glyphs[r.Message](mark)))
	}
	if strings.Contains(r.Message, "failed to") {
		return h.write([]byte(red("!")))
	}
	if r.Message == "interrupted" || r.Message == "no images found" {
		_, _ = h.stdout.Write([]byte("\n"))
		*h.prefix = (*h.prefix)[:0]
		return nil
	}
	return nil
}

func (h *dotHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dotHandler{handler: h.handler.WithAttrs(attrs), spinner: h.spinner, stdout: h.stdout, prefix: h.prefix}
}

func (h *dotHandler) WithGroup(name string) slog.Handler {
	return &dotHandler{handler: h.handler.WithGroup(name), spinner: h.spinner, stdout: h.stdout, prefix: h.prefix}
}

func (h *dotHandler) write(s []byte) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()

	_, err = h.stdout.Write(s)
	if err != nil {
		return err
	}
	*h.prefix = append(*h.prefix, s...)
	return nil
}
