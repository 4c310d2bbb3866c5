package inkcard

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	"github.com/k1LoW/inkcard/fit"
	"golang.org/x/image/font"
)

// Surface draws outlined text on top of an image.
type Surface struct {
	dc *gg.Context
	m  fit.Measurer
}

func NewSurface(img image.Image) *Surface {
	return &Surface{
		dc: gg.NewContextForImage(img),
		m:  fit.FaceMeasurer{},
	}
}

func (s *Surface) Measure(line string, face font.Face) (width, height int) {
	return s.m.Measure(line, face)
}

// DrawText draws line with its top-left corner at pt, the top being the face
// ascender. The stroke is painted first as a disc of strokeWidth around every
// glyph, then the fill on top.
func (s *Surface) DrawText(pt image.Point, line string, face font.Face, strokeWidth int, fill, stroke color.Color) {
	s.dc.SetFontFace(face)
	x := float64(pt.X)
	baseline := float64(pt.Y + face.Metrics().Ascent.Ceil())
	if strokeWidth > 0 {
		s.dc.SetColor(stroke)
		for dy := -strokeWidth; dy <= strokeWidth; dy++ {
			for dx := -strokeWidth; dx <= strokeWidth; dx++ {
				if dx == 0 && dy == 0 || dx*dx+dy*dy > strokeWidth*strokeWidth {
					continue
				}
				s.dc.DrawString(line, x+float64(dx), baseline+float64(dy))
			}
		}
	}
	s.dc.SetColor(fill)
	s.dc.DrawString(line, x, baseline)
}

func (s *Surface) Gray() *image.Gray {
	src := s.dc.Image()
	gray := image.NewGray(src.Bounds())
	draw.Draw(gray, gray.Bounds(), src, src.Bounds().Min, draw.Src)
	return gray
}
