package inkcard

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
)

const (
	CanvasWidth  = 800
	CanvasHeight = 400
)

// Grayscale stretches img to exactly width x height and converts it to 8-bit gray.
func Grayscale(img image.Image, width, height int) *image.Gray {
	scaled := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	gray := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(gray, gray.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	return gray
}
