package slideshow

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/k1LoW/inkcard/epd"
)

var testPanel = epd.Panel{Name: "test", Width: 16, Height: 8}

func writeImage(t *testing.T, dir, name string, img image.Image) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// halves is black on one side and white on the other.
func halves(vertical bool) image.Image {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := x
			if vertical {
				v = y
			}
			if v >= 16 {
				img.SetGray(x, y, color.Gray{Y: 0xff})
			}
		}
	}
	return img
}

func runUntil(t *testing.T, p *Player, done func() bool) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() {
		for !done() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
		}
		cancel()
	}()
	err := p.Run(ctx)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatal("player did not reach the expected state in time")
	}
	return err
}

func TestPlayerNoImages(t *testing.T) {
	dir := t.TempDir()
	frames := filepath.Join(t.TempDir(), "frames")
	d := epd.NewFrameDir(frames, testPanel)
	p, err := New(dir, d)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background()); !errors.Is(err, ErrNoImages) {
		t.Fatalf("Run() error = %v, want ErrNoImages", err)
	}
	for _, name := range []string{"clear.png", "sleep"} {
		if _, err := os.Stat(filepath.Join(frames, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if d.Count() != 0 {
		t.Errorf("Count() = %d, want 0", d.Count())
	}
}

func TestPlayerLoops(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "1.png", halves(false))
	writeImage(t, dir, "2.png", halves(true))
	frames := filepath.Join(t.TempDir(), "frames")
	d := epd.NewFrameDir(frames, testPanel)
	p, err := New(dir, d, WithInterval(time.Millisecond), WithDedupe(false))
	if err != nil {
		t.Fatal(err)
	}
	if err := runUntil(t, p, func() bool { return d.Count() >= 4 }); err != nil {
		t.Fatal(err)
	}
	if !d.Closed() {
		t.Error("display should be closed after interruption")
	}

	f, err := os.Open(filepath.Join(frames, "frame-000003.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	// the third frame wraps around to 1.png, black on the left
	if r, _, _, _ := img.At(1, 4).RGBA(); r != 0 {
		t.Error("frame 3 should show the first image again")
	}
	if r, _, _, _ := img.At(14, 4).RGBA(); r == 0 {
		t.Error("frame 3 should be white on the right")
	}
}

func TestPlayerDedupe(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "1.png", halves(false))
	writeImage(t, dir, "2.png", halves(false))
	d := epd.NewFrameDir(filepath.Join(t.TempDir(), "frames"), testPanel)
	p, err := New(dir, d, WithInterval(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := runUntil(t, p, func() bool { return time.Since(start) > 100*time.Millisecond }); err != nil {
		t.Fatal(err)
	}
	if d.Count() != 1 {
		t.Errorf("Count() = %d, want 1", d.Count())
	}
}

type flakyDisplay struct {
	*epd.FrameDir
	failures atomic.Int32
}

func (f *flakyDisplay) Init(ctx context.Context) error {
	if f.failures.Add(-1) >= 0 {
		return errors.New("device busy")
	}
	return f.FrameDir.Init(ctx)
}

func TestPlayerInitRetry(t *testing.T) {
	tests := []struct {
		name     string
		failures int32
		wantErr  bool
	}{
		{"recovers", 2, false},
		{"gives up", 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeImage(t, dir, "1.png", halves(false))
			d := &flakyDisplay{FrameDir: epd.NewFrameDir(filepath.Join(t.TempDir(), "frames"), testPanel)}
			d.failures.Store(tt.failures)
			p, err := New(dir, d, WithInterval(time.Millisecond), WithInitRetry(time.Millisecond, 3))
			if err != nil {
				t.Fatal(err)
			}
			err = runUntil(t, p, func() bool { return d.Count() >= 1 })
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlayerLoadFailure(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "broken.png")
	d := epd.NewFrameDir(filepath.Join(t.TempDir(), "frames"), testPanel)
	p, err := New(dir, d, WithInterval(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background()); err == nil {
		t.Error("undecodable image should end the run")
	}
}

func TestPlayerWatch(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "1.png", halves(false))
	d := epd.NewFrameDir(filepath.Join(t.TempDir(), "frames"), testPanel)
	p, err := New(dir, d, WithInterval(time.Millisecond), WithWatch(true), WithDedupe(false))
	if err != nil {
		t.Fatal(err)
	}
	tmp := filepath.Join(t.TempDir(), "2.png")
	writeImage(t, filepath.Dir(tmp), "2.png", halves(true))
	added := false
	err = runUntil(t, p, func() bool {
		if !added && d.Count() >= 1 {
			_ = os.Rename(tmp, filepath.Join(dir, "2.png"))
			added = true
		}
		return len(p.Playlist()) == 2
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestNewPlayer(t *testing.T) {
	d := epd.NewFrameDir(t.TempDir(), testPanel)
	if _, err := New("", nil); err == nil {
		t.Error("nil display should fail")
	}
	if _, err := New("", d, WithInterval(0)); err == nil {
		t.Error("zero interval should fail")
	}
	p, err := New("", d)
	if err != nil {
		t.Fatal(err)
	}
	if p.dir != DefaultDir || p.interval != DefaultInterval || !p.dedupe {
		t.Errorf("unexpected defaults: dir=%s interval=%s dedupe=%v", p.dir, p.interval, p.dedupe)
	}
}

type hookDisplay struct {
	*epd.FrameDir
	once      sync.Once
	onDisplay func()
}

func (h *hookDisplay) Display(ctx context.Context, f *epd.Frame) error {
	h.once.Do(h.onDisplay)
	return h.FrameDir.Display(ctx, f)
}

func TestPlayerWatchPicksUpImageAddedRightAfterStart(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "1.png", halves(false))
	staged := t.TempDir()
	writeImage(t, staged, "2.png", halves(true))
	d := &hookDisplay{
		FrameDir: epd.NewFrameDir(filepath.Join(t.TempDir(), "frames"), testPanel),
		onDisplay: func() {
			_ = os.Rename(filepath.Join(staged, "2.png"), filepath.Join(dir, "2.png"))
		},
	}
	p, err := New(dir, d, WithInterval(time.Millisecond), WithWatch(true), WithDedupe(false))
	if err != nil {
		t.Fatal(err)
	}
	err = runUntil(t, p, func() bool {
		return len(p.Playlist()) == 2 && d.Count() >= 3
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestPlayerInterruptedDuringInit(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "1.png", halves(false))
	d := &flakyDisplay{FrameDir: epd.NewFrameDir(filepath.Join(t.TempDir(), "frames"), testPanel)}
	d.failures.Store(1000)
	p, err := New(dir, d, WithInitRetry(time.Hour, 3))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, want nil on interruption", err)
	}
	if !d.Closed() {
		t.Error("display should be closed after interruption")
	}
}
