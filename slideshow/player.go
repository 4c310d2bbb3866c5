package slideshow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/fsnotify/fsnotify"
	"github.com/k1LoW/inkcard"
	"github.com/k1LoW/inkcard/epd"
	"github.com/lestrrat-go/backoff/v2"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDir      = "./pics"
	DefaultInterval = 10 * time.Second

	defaultInitInterval = time.Second
	defaultInitRetries  = 3
)

var ErrNoImages = errors.New("no images found")

// Player cycles through the images of a directory on a display.
type Player struct {
	dir          string
	display      epd.Display
	interval     time.Duration
	filter       string
	watch        bool
	dedupe       bool
	dither       bool
	initInterval time.Duration
	initRetries  int
	logger       *slog.Logger
	loader       *inkcard.Loader

	mu       sync.Mutex
	playlist []string
}

type Option func(*Player)

func WithInterval(d time.Duration) Option {
	return func(p *Player) {
		p.interval = d
	}
}

// WithFilter sets a CEL expression that selects images by name, ext, size and modTime.
func WithFilter(expr string) Option {
	return func(p *Player) {
		p.filter = expr
	}
}

// WithWatch rescans the playlist whenever the directory changes.
func WithWatch(enable bool) Option {
	return func(p *Player) {
		p.watch = enable
	}
}

// WithDedupe skips frames that look the same as the one on the panel.
func WithDedupe(enable bool) Option {
	return func(p *Player) {
		p.dedupe = enable
	}
}

func WithDither(enable bool) Option {
	return func(p *Player) {
		p.dither = enable
	}
}

// WithInitRetry sets how often and how many times a failing display init is retried.
func WithInitRetry(interval time.Duration, retries int) Option {
	return func(p *Player) {
		p.initInterval = interval
		p.initRetries = retries
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

func New(dir string, display epd.Display, opts ...Option) (*Player, error) {
	if display == nil {
		return nil, errors.New("display is required")
	}
	if dir == "" {
		dir = DefaultDir
	}
	p := &Player{
		dir:          dir,
		display:      display,
		interval:     DefaultInterval,
		dedupe:       true,
		initInterval: defaultInitInterval,
		initRetries:  defaultInitRetries,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.interval <= 0 {
		return nil, fmt.Errorf("invalid interval: %s", p.interval)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	p.loader = inkcard.NewLoader(p.logger)
	return p, nil
}

func (p *Player) Playlist() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.playlist...)
}

// Rescan reads the directory again and replaces the playlist.
func (p *Player) Rescan() error {
	list, err := Scan(p.dir, p.filter)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.playlist = list
	p.mu.Unlock()
	return nil
}

// Run initializes and clears the display, then shows each image for the
// interval, looping until ctx is done. An empty directory puts the panel to
// sleep and returns ErrNoImages. Cancellation closes the display and returns nil.
func (p *Player) Run(ctx context.Context) error {
	if err := p.init(ctx); err != nil {
		if ctx.Err() != nil {
			return p.interrupt()
		}
		return err
	}
	if err := p.display.Clear(ctx); err != nil {
		p.logger.Error("failed to clear display", slog.String("error", err.Error()))
		return fmt.Errorf("failed to clear display: %w", err)
	}
	// watch before the first scan so that no change slips in between
	var w *fsnotify.Watcher
	if p.watch {
		var err error
		w, err = p.newWatcher()
		if err != nil {
			return err
		}
	}
	if err := p.Rescan(); err != nil {
		closeWatcher(w)
		return err
	}
	if len(p.Playlist()) == 0 {
		closeWatcher(w)
		p.logger.Info("no images found", slog.String("dir", p.dir))
		if err := p.display.Sleep(ctx); err != nil {
			return fmt.Errorf("failed to put display to sleep: %w", err)
		}
		return ErrNoImages
	}
	if w == nil {
		return p.play(ctx)
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return p.watchDir(egCtx, w)
	})
	eg.Go(func() error {
		return p.play(egCtx)
	})
	return eg.Wait()
}

func (p *Player) init(ctx context.Context) error {
	policy := backoff.Constant(
		backoff.WithInterval(p.initInterval),
		backoff.WithMaxRetries(p.initRetries),
	)
	b := policy.Start(ctx)
	var err error
	for backoff.Continue(b) {
		if err = p.display.Init(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		p.logger.Warn("retrying display init", slog.String("error", err.Error()))
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	p.logger.Error("failed to initialize display", slog.String("error", err.Error()))
	return fmt.Errorf("failed to initialize display: %w", err)
}

func (p *Player) play(ctx context.Context) error {
	b := p.display.Bounds()
	var shown *goimagehash.ImageHash
	for i := 0; ; i++ {
		if ctx.Err() != nil {
			return p.interrupt()
		}
		list := p.Playlist()
		if len(list) == 0 {
			if !p.wait(ctx) {
				return p.interrupt()
			}
			continue
		}
		path := list[i%len(list)]
		if p.watch {
			if _, err := os.Stat(path); err != nil {
				p.logger.Info("skipped missing image", slog.String("path", path))
				if err := p.Rescan(); err != nil {
					return err
				}
				continue
			}
		}
		img, err := p.loader.Load(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return p.interrupt()
			}
			p.logger.Error("failed to load image", slog.String("path", path), slog.String("error", err.Error()))
			return err
		}
		frame := epd.NewFrame(img.Image(), b.Dx(), b.Dy(), p.dither)
		skip := false
		if p.dedupe {
			hash, err := goimagehash.PerceptionHash(frame.Image())
			if err == nil {
				skip = inkcard.Similar(shown, hash)
				if !skip {
					shown = hash
				}
			}
		}
		if skip {
			p.logger.Info("skipped duplicate", slog.String("path", path))
		} else {
			if err := p.display.Display(ctx, frame); err != nil {
				if ctx.Err() != nil {
					return p.interrupt()
				}
				p.logger.Error("failed to display image", slog.String("path", path), slog.String("error", err.Error()))
				return fmt.Errorf("failed to display %s: %w", path, err)
			}
			p.logger.Info("displayed image", slog.String("path", path), slog.Int("index", i%len(list)))
		}
		if !p.wait(ctx) {
			return p.interrupt()
		}
	}
}

func (p *Player) wait(ctx context.Context) bool {
	t := time.NewTimer(p.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (p *Player) interrupt() error {
	p.logger.Info("interrupted")
	if err := p.display.Close(); err != nil {
		return fmt.Errorf("failed to close display: %w", err)
	}
	return nil
}

func (p *Player) newWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(p.dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", p.dir, err)
	}
	return w, nil
}

func closeWatcher(w *fsnotify.Watcher) {
	if w != nil {
		_ = w.Close()
	}
}

func (p *Player) watchDir(ctx context.Context, w *fsnotify.Watcher) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !isSupported(ev.Name) {
				continue
			}
			if err := p.Rescan(); err != nil {
				p.logger.Error("failed to rescan playlist", slog.String("error", err.Error()))
				continue
			}
			p.logger.Info("rescanned playlist", slog.Int("images", len(p.Playlist())))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("failed to watch directory", slog.String("error", err.Error()))
		}
	}
}
