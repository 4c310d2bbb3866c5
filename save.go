package inkcard

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/k1LoW/errors"
)

const jpegQuality = 95

// Save writes img to path, encoding by the file extension.
func Save(path string, img image.Image) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = gg.SavePNG(path, img)
	case ".jpg", ".jpeg":
		err = gg.SaveJPG(path, img, jpegQuality)
	default:
		return fmt.Errorf("unsupported output format: %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to save image to %s: %w", path, err)
	}
	return nil
}
