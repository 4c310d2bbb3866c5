package typeface

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultPath is the conventional location of DejaVu Sans on Debian based systems.
const DefaultPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"

// FallbackSize is the intrinsic pixel size of the face returned by Fallback.
const FallbackSize = 13

// ErrUnavailable is returned when a font resource cannot be opened or parsed.
var ErrUnavailable = errors.New("font resource is unavailable")

var (
	defaultOnce sync.Once
	defaultFace *Typeface
)

// Typeface is a scalable font resource that hands out faces per pixel size.
type Typeface struct {
	name string
	path string
	f    *truetype.Font

	mu    sync.Mutex
	faces map[int]font.Face
}

// Open loads a TrueType font from path.
func Open(path string) (*Typeface, error) {
	if path == "" {
		return nil, fmt.Errorf("failed to open font: empty path: %w", ErrUnavailable)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file %s: %w: %w", path, ErrUnavailable, err)
	}
	f, err := truetype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font file %s: %w: %w", path, ErrUnavailable, err)
	}
	return newTypeface(f, f.Name(truetype.NameIDFontFullName), path), nil
}

// Default returns the embedded Go Regular font. It never fails.
func Default() *Typeface {
	defaultOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			panic(fmt.Sprintf("failed to parse embedded font: %v", err))
		}
		defaultFace = newTypeface(f, "Go Regular", "")
	})
	return defaultFace
}

// OpenOrDefault tries path first and falls back to Default when the font is unavailable.
func OpenOrDefault(path string, logger *slog.Logger) *Typeface {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if path == "" {
		return Default()
	}
	t, err := Open(path)
	if err != nil {
		logger.Warn("font file not found, using default font", slog.String("path", path), slog.String("error", err.Error()))
		return Default()
	}
	return t
}

// Fallback returns the fixed size bitmap face used when no scalable size fits.
func Fallback() font.Face {
	return basicfont.Face7x13
}

func newTypeface(f *truetype.Font, name, path string) *Typeface {
	return &Typeface{
		name:  name,
		path:  path,
		f:     f,
		faces: map[int]font.Face{},
	}
}

// Face returns a face rendering at size pixels.
func (t *Typeface) Face(size int) (font.Face, error) {
	if t == nil || t.f == nil {
		return nil, fmt.Errorf("failed to create face: %w", ErrUnavailable)
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size: %d", size)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if face, ok := t.faces[size]; ok {
		return face, nil
	}
	face := truetype.NewFace(t.f, &truetype.Options{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	t.faces[size] = face
	return face, nil
}

func (t *Typeface) Name() string {
	return t.name
}

// Path is empty for the embedded default.
func (t *Typeface) Path() string {
	return t.path
}
