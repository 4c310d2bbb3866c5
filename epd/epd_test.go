package epd

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFrameSet(t *testing.T) {
	f := NewBlankFrame(10, 2)
	if f.Stride != 2 {
		t.Fatalf("Stride = %d, want 2", f.Stride)
	}
	f.Set(0, 0, true)
	f.Set(7, 0, true)
	f.Set(8, 0, true)
	f.Set(9, 1, true)
	f.Set(10, 1, true) // out of range, ignored
	want := []byte{0x81, 0x80, 0x00, 0x40}
	if diff := cmp.Diff(want, f.Data); diff != "" {
		t.Errorf("Data mismatch (-want +got):\n%s", diff)
	}
	f.Set(7, 0, false)
	if f.Black(7, 0) {
		t.Error("Black(7, 0) = true after clearing")
	}
	if !f.Black(9, 1) {
		t.Error("Black(9, 1) = false")
	}
}

func TestNewFrame(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			if x < 16 {
				src.SetGray(x, y, color.Gray{Y: 0})
			} else {
				src.SetGray(x, y, color.Gray{Y: 0xff})
			}
		}
	}
	for _, dither := range []bool{false, true} {
		f := NewFrame(src, 16, 8, dither)
		if f.Width != 16 || f.Height != 8 {
			t.Fatalf("frame is %dx%d, want 16x8", f.Width, f.Height)
		}
		if !f.Black(1, 4) {
			t.Errorf("dither=%v: left half should be black", dither)
		}
		if f.Black(14, 4) {
			t.Errorf("dither=%v: right half should be white", dither)
		}
		img := f.Image()
		if img.GrayAt(1, 4).Y != 0 || img.GrayAt(14, 4).Y != 0xff {
			t.Errorf("dither=%v: Image() does not match the packed bits", dither)
		}
	}
}

func TestLookupPanel(t *testing.T) {
	p, err := LookupPanel("waveshare-7in5-v2")
	if err != nil {
		t.Fatal(err)
	}
	if p.Width != 800 || p.Height != 480 {
		t.Errorf("panel is %dx%d, want 800x480", p.Width, p.Height)
	}
	if _, err := LookupPanel("unknown"); err == nil {
		t.Error("LookupPanel(unknown) should fail")
	}
}

func TestFrameDir(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "frames")
	panel := Panel{Width: 16, Height: 8}
	d := NewFrameDir(dir, panel)

	if err := d.Display(ctx, NewBlankFrame(16, 8)); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Display() before Init error = %v, want ErrNotInitialized", err)
	}
	if err := d.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := d.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if err := d.Display(ctx, NewBlankFrame(16, 8)); err != nil {
		t.Fatal(err)
	}
	if err := d.Display(ctx, NewBlankFrame(8, 8)); err == nil {
		t.Error("Display() with a wrong sized frame should fail")
	}
	if err := d.Sleep(ctx); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"clear.png", "frame-000001.png", "sleep"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if d.Count() != 1 {
		t.Errorf("Count() = %d, want 1", d.Count())
	}
	if !d.Closed() {
		t.Error("Closed() = false")
	}
}

func TestCommand(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	t.Setenv("INKCARD_TEST_OUT", out)
	panel := Panel{Width: 16, Height: 2}
	c := NewCommand(`cat > {{env.INKCARD_TEST_OUT}}/{{op}}-{{width}}x{{height}}.bin`, panel)

	f := NewBlankFrame(16, 2)
	f.Set(0, 0, true)
	f.Set(15, 1, true)
	if err := c.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Display(ctx, f); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(out, "display-16x2.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0x80, 0x00, 0x00, 0x01}, got); diff != "" {
		t.Errorf("stdin mismatch (-want +got):\n%s", diff)
	}
	for _, op := range []string{"init", "exit"} {
		if _, err := os.Stat(filepath.Join(out, op+"-16x2.bin")); err != nil {
			t.Errorf("%s was not run: %v", op, err)
		}
	}
}

func TestCommandFailure(t *testing.T) {
	c := NewCommand("echo broken >&2; exit 3", Panel{Width: 8, Height: 1})
	if err := c.Init(context.Background()); err == nil {
		t.Error("Init() should fail when the command exits non-zero")
	}
	if err := NewCommand("", Panel{}).Init(context.Background()); err == nil {
		t.Error("Init() should fail without a command")
	}
}
