// Package fit chooses a font size and a wrapped layout so that text fits a rectangular region.
package fit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/k1LoW/inkcard/typeface"
	"golang.org/x/image/font"
)

const (
	// InitialRatio is the share of the region height tried as the first font size.
	InitialRatio = 0.69
	// Step is the amount the candidate size shrinks on every attempt.
	Step = 2
	// MinSize is the floor; sizes at or below it are never tried.
	MinSize = 10
)

// ErrInvalidRegion is returned when the region has no area.
var ErrInvalidRegion = errors.New("region width and height must be positive")

// Font hands out faces for a scalable font resource.
type Font interface {
	Face(size int) (font.Face, error)
}

// Measurer reports the rendered width and height of a line.
type Measurer interface {
	Measure(line string, face font.Face) (width, height int)
}

// MeasurerFunc adapts a function into a Measurer.
type MeasurerFunc func(line string, face font.Face) (width, height int)

func (f MeasurerFunc) Measure(line string, face font.Face) (int, int) {
	return f(line, face)
}

// Region is the pixel area available for text.
type Region struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Inset returns the region left inside a width x height canvas after padding on every side.
func Inset(width, height, padding int) Region {
	return Region{
		Width:  width - padding*2,
		Height: height - padding*2,
	}
}

func (r Region) valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Result is the chosen face and the lines laid out with it.
type Result struct {
	Size  int       `json:"size"`
	Face  font.Face `json:"-"`
	Lines []string  `json:"lines"`
	// Fallback is set when no size fit and the bitmap face was used instead.
	// The lines are not guaranteed to fit in that case.
	Fallback bool `json:"fallback"`
}

type fitter struct {
	wrapWidth    int
	pixelWrap    bool
	step         int
	minSize      int
	fallback     font.Face
	fallbackSize int
	logger       *slog.Logger
}

type Option func(*fitter)

// WithWrapWidth changes the character budget per line.
func WithWrapWidth(n int) Option {
	return func(f *fitter) {
		f.wrapWidth = n
	}
}

// WithPixelWrap wraps by measured width instead of the character budget.
func WithPixelWrap() Option {
	return func(f *fitter) {
		f.pixelWrap = true
	}
}

func WithStep(n int) Option {
	return func(f *fitter) {
		f.step = n
	}
}

func WithMinSize(n int) Option {
	return func(f *fitter) {
		f.minSize = n
	}
}

// WithFallback replaces the face used when nothing fits.
func WithFallback(face font.Face, size int) Option {
	return func(f *fitter) {
		f.fallback = face
		f.fallbackSize = size
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *fitter) {
		f.logger = logger
	}
}

// Fit searches downward from InitialRatio of the region height for the
// largest size at which every wrapped line fits the region width and the
// stacked lines fit the region height.
func Fit(text string, region Region, fnt Font, m Measurer, opts ...Option) (*Result, error) {
	f := &fitter{
		wrapWidth:    WrapWidth,
		step:         Step,
		minSize:      MinSize,
		fallback:     typeface.Fallback(),
		fallbackSize: typeface.FallbackSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if !region.valid() {
		return nil, fmt.Errorf("invalid region %dx%d: %w", region.Width, region.Height, ErrInvalidRegion)
	}
	if f.step <= 0 {
		return nil, fmt.Errorf("invalid step: %d", f.step)
	}
	if fnt == nil || m == nil {
		return nil, errors.New("font and measurer are required")
	}

	start := int(float64(region.Height) * InitialRatio)
	// snap to the step grid so that every region searches the same sizes
	start -= start % f.step
	for size := start; size > f.minSize; size -= f.step {
		face, err := fnt.Face(size)
		if err != nil {
			return nil, fmt.Errorf("failed to create face at size %d: %w", size, err)
		}
		lines := f.wrap(text, face, region, m)
		if fits(lines, face, region, m) {
			f.logger.Debug("fit text", slog.Int("size", size), slog.Int("lines", len(lines)))
			return &Result{Size: size, Face: face, Lines: lines}, nil
		}
	}

	f.logger.Info("no size fits, using fallback face", slog.Int("size", f.fallbackSize))
	return &Result{
		Size:     f.fallbackSize,
		Face:     f.fallback,
		Lines:    f.wrap(text, f.fallback, region, m),
		Fallback: true,
	}, nil
}

func (f *fitter) wrap(text string, face font.Face, region Region, m Measurer) []string {
	if !f.pixelWrap {
		return Wrap(text, f.wrapWidth)
	}
	return wrapBy(text, func(line string) bool {
		w, _ := m.Measure(line, face)
		return w <= region.Width
	}, func(word, used string) int {
		runes := []rune(word)
		n := 0
		for n < len(runes) {
			if w, _ := m.Measure(used+string(runes[:n+1]), face); w > region.Width {
				break
			}
			n++
		}
		return n
	})
}

func fits(lines []string, face font.Face, region Region, m Measurer) bool {
	total := 0
	for _, line := range lines {
		w, h := m.Measure(line, face)
		if w > region.Width {
			return false
		}
		total += h
		if total > region.Height {
			return false
		}
	}
	return true
}
