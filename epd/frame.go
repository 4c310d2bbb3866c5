package epd

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
)

var monochrome = color.Palette{color.Black, color.White}

// Frame is a 1-bit packed panel buffer. Rows are Stride bytes long, the most
// significant bit is the leftmost pixel and a set bit is black.
type Frame struct {
	Width  int
	Height int
	Stride int
	Data   []byte
}

func NewBlankFrame(width, height int) *Frame {
	stride := (width + 7) / 8
	return &Frame{
		Width:  width,
		Height: height,
		Stride: stride,
		Data:   make([]byte, stride*height),
	}
}

// NewFrame scales img to exactly width x height and reduces it to black and
// white, with Floyd-Steinberg error diffusion when dither is set and a plain
// threshold at mid gray otherwise.
func NewFrame(img image.Image, width, height int, dither bool) *Frame {
	scaled := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	b := scaled.Bounds()
	f := NewBlankFrame(width, height)
	if dither {
		p := image.NewPaletted(image.Rect(0, 0, width, height), monochrome)
		draw.FloydSteinberg.Draw(p, p.Bounds(), scaled, b.Min)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				f.Set(x, y, p.ColorIndexAt(x, y) == 0)
			}
		}
		return f
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(scaled.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			f.Set(x, y, g.Y < 128)
		}
	}
	return f
}

func (f *Frame) Set(x, y int, black bool) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	i := y*f.Stride + x/8
	mask := byte(0x80) >> (x % 8)
	if black {
		f.Data[i] |= mask
	} else {
		f.Data[i] &^= mask
	}
}

func (f *Frame) Black(x, y int) bool {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return false
	}
	return f.Data[y*f.Stride+x/8]&(byte(0x80)>>(x%8)) != 0
}

// Image unpacks the frame for previews.
func (f *Frame) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if f.Black(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 0xff})
			}
		}
	}
	return img
}
