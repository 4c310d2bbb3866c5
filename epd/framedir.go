package epd

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/k1LoW/errors"
)

// FrameDir is a Display that writes every frame as a PNG file into a directory.
// It stands in for real hardware during development and in tests.
type FrameDir struct {
	dir   string
	panel Panel

	mu          sync.Mutex
	initialized bool
	count       int
	closed      bool
}

func NewFrameDir(dir string, panel Panel) *FrameDir {
	return &FrameDir{dir: dir, panel: panel}
}

func (d *FrameDir) Init(ctx context.Context) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create frame directory %s: %w", d.dir, err)
	}
	d.mu.Lock()
	d.initialized = true
	d.mu.Unlock()
	return nil
}

func (d *FrameDir) Clear(ctx context.Context) error {
	f := NewBlankFrame(d.panel.Width, d.panel.Height)
	return d.write(ctx, "clear.png", f)
}

func (d *FrameDir) Display(ctx context.Context, f *Frame) error {
	if err := checkFrame(d, f); err != nil {
		return err
	}
	if err := d.ready(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	d.count++
	n := d.count
	d.mu.Unlock()
	return d.write(ctx, fmt.Sprintf("frame-%06d.png", n), f)
}

func (d *FrameDir) Sleep(ctx context.Context) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if err := d.ready(ctx); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(d.dir, "sleep"), nil, 0o644); err != nil {
		return fmt.Errorf("failed to write sleep marker: %w", err)
	}
	d.mu.Lock()
	d.initialized = false
	d.mu.Unlock()
	return nil
}

func (d *FrameDir) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	d.closed = true
	return nil
}

func (d *FrameDir) Bounds() image.Rectangle {
	return d.panel.Bounds()
}

// Count returns the number of frames displayed so far.
func (d *FrameDir) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func (d *FrameDir) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *FrameDir) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	return nil
}

func (d *FrameDir) write(ctx context.Context, name string, f *Frame) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if err := d.ready(ctx); err != nil {
		return err
	}
	p := filepath.Join(d.dir, name)
	file, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", p, err)
	}
	defer file.Close()
	if err := png.Encode(file, f.Image()); err != nil {
		return fmt.Errorf("failed to encode %s: %w", p, err)
	}
	return nil
}
