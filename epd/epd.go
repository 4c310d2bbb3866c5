// Package epd describes e-paper panels as opaque sinks for packed 1-bit frames.
package epd

import (
	"context"
	"errors"
	"fmt"
	"image"
)

var ErrNotInitialized = errors.New("display is not initialized")

// Display is the capability set a panel driver provides.
type Display interface {
	Init(ctx context.Context) error
	Clear(ctx context.Context) error
	Display(ctx context.Context, f *Frame) error
	// Sleep puts the panel into deep sleep; Init wakes it again.
	Sleep(ctx context.Context) error
	// Close releases the driver, like the vendor module exit.
	Close() error
	Bounds() image.Rectangle
}

// Panel is a named panel geometry.
type Panel struct {
	Name   string
	Width  int
	Height int
}

// Waveshare7in5V2 is the 7.5 inch V2 black and white panel.
var Waveshare7in5V2 = Panel{Name: "waveshare-7in5-v2", Width: 800, Height: 480}

var panels = map[string]Panel{
	Waveshare7in5V2.Name: Waveshare7in5V2,
}

// LookupPanel returns a known panel by name.
func LookupPanel(name string) (Panel, error) {
	p, ok := panels[name]
	if !ok {
		return Panel{}, fmt.Errorf("unknown panel: %s", name)
	}
	return p, nil
}

func (p Panel) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

func checkFrame(d Display, f *Frame) error {
	if f == nil {
		return errors.New("frame is nil")
	}
	b := d.Bounds()
	if f.Width != b.Dx() || f.Height != b.Dy() {
		return fmt.Errorf("frame is %dx%d, panel is %dx%d", f.Width, f.Height, b.Dx(), b.Dy())
	}
	return nil
}
