package inkcard

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/k1LoW/errors"
	"github.com/k1LoW/inkcard/version"
	_ "golang.org/x/image/bmp"
)

const (
	maxImageBodySize   = 32 << 20
	similarityDistance = 5
)

var userAgent = "inkcard/" + version.Version + " (+https://github.com/k1LoW/inkcard)"

// Image is a decoded source image together with its raw bytes.
type Image struct {
	i        image.Image
	b        []byte
	format   string
	src      string
	modTime  time.Time
	checksum uint32
	pHash    *goimagehash.ImageHash

	mu sync.Mutex
}

// Loader reads images from local paths or http(s) URLs.
type Loader struct {
	client *http.Client
	logger *slog.Logger
}

// NewLoader creates a Loader. Remote images are fetched with retries.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.HTTPClient.Timeout = 30 * time.Second
	retryClient.Logger = newHTTPLogger(logger)
	return &Loader{
		client: retryClient.StandardClient(),
		logger: logger,
	}
}

// Load reads and decodes pathOrURL. Local files are cached until their
// modification time changes.
func (l *Loader) Load(ctx context.Context, pathOrURL string) (_ *Image, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if isRemote(pathOrURL) {
		return l.fetch(ctx, pathOrURL)
	}
	fi, err := os.Stat(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image file %s: %w", pathOrURL, err)
	}
	if i, ok := LoadImageCache(pathOrURL); ok && i.modTime.Equal(fi.ModTime()) {
		return i, nil
	}
	f, err := os.Open(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", pathOrURL, err)
	}
	defer f.Close()
	i, err := newImageFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", pathOrURL, err)
	}
	i.src = pathOrURL
	i.modTime = fi.ModTime()
	StoreImageCache(pathOrURL, i)
	return i, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (*Image, error) {
	if i, ok := LoadImageCache(rawURL); ok {
		return i, nil
	}
	if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	res, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL %s: %w", rawURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image from URL %s: status code %d", rawURL, res.StatusCode)
	}
	i, err := newImageFromReader(io.LimitReader(res.Body, maxImageBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", rawURL, err)
	}
	i.src = rawURL
	l.logger.Debug("fetched image", slog.String("url", rawURL), slog.Int("bytes", len(i.b)))
	StoreImageCache(rawURL, i)
	return i, nil
}

func newImageFromReader(r io.Reader) (*Image, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Image{
		i:      img,
		b:      b,
		format: format,
	}, nil
}

func (i *Image) Image() image.Image {
	return i.i
}

// Format is the name of the codec that decoded the image, e.g. "png".
func (i *Image) Format() string {
	return i.format
}

func (i *Image) Source() string {
	return i.src
}

func (i *Image) Bytes() []byte {
	if i == nil {
		return nil
	}
	return i.b
}

func (i *Image) Checksum() uint32 {
	if i == nil {
		return 0
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.checksum == 0 {
		i.checksum = crc32.ChecksumIEEE(i.b)
	}
	return i.checksum
}

func (i *Image) PHash() (_ *goimagehash.ImageHash, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if i == nil {
		return nil, fmt.Errorf("image is nil")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.pHash == nil {
		pHash, err := goimagehash.PerceptionHash(i.i)
		if err != nil {
			return nil, fmt.Errorf("failed to compute perceptual hash: %w", err)
		}
		i.pHash = pHash
	}
	return i.pHash, nil
}

// Equivalent reports whether both images are byte identical or perceptually close.
func (i *Image) Equivalent(ii *Image) bool {
	if i == nil || ii == nil {
		return false
	}
	if i.Checksum() == ii.Checksum() {
		return true
	}
	aHash, err := i.PHash()
	if err != nil {
		return false
	}
	bHash, err := ii.PHash()
	if err != nil {
		return false
	}
	return Similar(aHash, bHash)
}

// Similar reports whether two perceptual hashes are within the similarity threshold.
func Similar(a, b *goimagehash.ImageHash) bool {
	if a == nil || b == nil {
		return false
	}
	distance, err := a.Distance(b)
	if err != nil {
		return false
	}
	return distance < similarityDistance
}

func isRemote(pathOrURL string) bool {
	return strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://")
}

var _ retryablehttp.LeveledLogger = (*httpLogger)(nil)

type httpLogger struct {
	l *slog.Logger
}

func (l *httpLogger) Error(msg string, keysAndValues ...any) {
	l.l.Error(msg, keysAndValues...)
}

func (l *httpLogger) Info(msg string, keysAndValues ...any) {
	l.l.Info(msg, keysAndValues...)
}

func (l *httpLogger) Debug(msg string, keysAndValues ...any) {
	if strings.HasPrefix(msg, "retrying") {
		// surfaced as info so that the progress handler can show a spinner
		l.l.Info(msg, keysAndValues...)
		return
	}
	l.l.Debug(msg, keysAndValues...)
}

func (l *httpLogger) Warn(msg string, keysAndValues ...any) {
	l.l.Warn(msg, keysAndValues...)
}

func newHTTPLogger(l *slog.Logger) retryablehttp.LeveledLogger {
	return &httpLogger{
		l: l.WithGroup("http"),
	}
}
