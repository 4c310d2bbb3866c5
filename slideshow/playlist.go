package slideshow

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/k1LoW/errors"
	"github.com/k1LoW/inkcard/template"
)

var supportedExts = []string{".png", ".jpg", ".jpeg", ".bmp"}

// Scan lists the images in dir, sorted by name. filter is an optional CEL
// expression evaluated per file with name, ext, size and modTime (unix seconds).
func Scan(dir, filter string) (_ []string, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !slices.Contains(supportedExts, ext) {
			continue
		}
		if filter != "" {
			info, err := e.Info()
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", e.Name(), err)
			}
			ok, err := template.EvalBool(filter, map[string]any{
				"name":    e.Name(),
				"ext":     ext,
				"size":    info.Size(),
				"modTime": info.ModTime().Unix(),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to evaluate filter for %s: %w", e.Name(), err)
			}
			if !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

func isSupported(path string) bool {
	return slices.Contains(supportedExts, strings.ToLower(filepath.Ext(path)))
}
