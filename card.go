package inkcard

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"

	kerrors "github.com/k1LoW/errors"
	"github.com/k1LoW/inkcard/fit"
	"github.com/k1LoW/inkcard/typeface"
)

const (
	DefaultPadding     = 20
	DefaultOutput      = "output.jpg"
	defaultStrokeWidth = 2
)

// Card overlays auto-sized text on a grayscale canvas.
type Card struct {
	width       int
	height      int
	padding     int
	fontPath    string
	pixelWrap   bool
	strokeWidth int
	logger      *slog.Logger
	loader      *Loader
}

type Option func(*Card) error

func WithCanvas(width, height int) Option {
	return func(c *Card) error {
		if width <= 0 || height <= 0 {
			return fmt.Errorf("invalid canvas size: %dx%d", width, height)
		}
		c.width = width
		c.height = height
		return nil
	}
}

func WithPadding(padding int) Option {
	return func(c *Card) error {
		if padding < 0 {
			return fmt.Errorf("invalid padding: %d", padding)
		}
		c.padding = padding
		return nil
	}
}

// WithFontPath sets the TrueType font to fit with. An unavailable font falls
// back to the embedded default.
func WithFontPath(path string) Option {
	return func(c *Card) error {
		c.fontPath = path
		return nil
	}
}

// WithPixelWrap wraps lines by measured width instead of the character budget.
func WithPixelWrap(enable bool) Option {
	return func(c *Card) error {
		c.pixelWrap = enable
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Card) error {
		c.logger = logger
		return nil
	}
}

// New creates a Card for the 800x400 canvas with the default padding.
func New(opts ...Option) (_ *Card, err error) {
	defer func() {
		err = kerrors.WithStack(err)
	}()
	c := &Card{
		width:       CanvasWidth,
		height:      CanvasHeight,
		padding:     DefaultPadding,
		fontPath:    typeface.DefaultPath,
		strokeWidth: defaultStrokeWidth,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	c.loader = NewLoader(c.logger)
	if r := c.Region(); r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("padding %d leaves no room on a %dx%d canvas", c.padding, c.width, c.height)
	}
	return c, nil
}

// Region is the canvas minus padding.
func (c *Card) Region() fit.Region {
	return fit.Inset(c.width, c.height, c.padding)
}

// Fit lays out text with the configured font. When the font cannot be
// opened, or stops producing faces, the whole search is repeated with the
// embedded default font.
func (c *Card) Fit(text string) (*fit.Result, error) {
	opts := []fit.Option{fit.WithLogger(c.logger)}
	if c.pixelWrap {
		opts = append(opts, fit.WithPixelWrap())
	}
	fnt := typeface.OpenOrDefault(c.fontPath, c.logger)
	res, err := fit.Fit(text, c.Region(), fnt, fit.FaceMeasurer{}, opts...)
	if errors.Is(err, typeface.ErrUnavailable) && fnt != typeface.Default() {
		c.logger.Warn("font is unusable, using default font", slog.String("path", c.fontPath))
		return fit.Fit(text, c.Region(), typeface.Default(), fit.FaceMeasurer{}, opts...)
	}
	return res, err
}

// Render loads src, converts it to the grayscale canvas and draws text
// centered on it, black with a white outline.
func (c *Card) Render(ctx context.Context, src, text string) (_ *image.Gray, _ *fit.Result, err error) {
	defer func() {
		err = kerrors.WithStack(err)
	}()
	img, err := c.loader.Load(ctx, src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open source image: %w", err)
	}
	canvas := Grayscale(img.Image(), c.width, c.height)
	res, err := c.Fit(text)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fit text: %w", err)
	}
	c.logger.Info("fit text", slog.Int("size", res.Size), slog.Int("lines", len(res.Lines)), slog.Bool("fallback", res.Fallback))

	s := NewSurface(canvas)
	y := floorDiv(c.height-fit.Height(res.Lines, res.Face, s), 2)
	for _, line := range res.Lines {
		w, h := s.Measure(line, res.Face)
		x := floorDiv(c.width-w, 2)
		s.DrawText(image.Pt(x, y), line, res.Face, c.strokeWidth, color.Black, color.White)
		y += h
	}
	return s.Gray(), res, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
