package fit

import (
	"golang.org/x/image/font"
)

// FaceMeasurer measures a line as drawn with its top at the face ascender.
// The width is the farther of the ink right edge and the advance; the height
// is the ink bottom below that top.
type FaceMeasurer struct{}

func (FaceMeasurer) Measure(line string, face font.Face) (width, height int) {
	bounds, advance := font.BoundString(face, line)
	right := max(bounds.Max.X, advance)
	bottom := face.Metrics().Ascent + max(bounds.Max.Y, 0)
	return right.Ceil(), bottom.Ceil()
}

// Height sums the heights of lines.
func Height(lines []string, face font.Face, m Measurer) int {
	total := 0
	for _, line := range lines {
		_, h := m.Measure(line, face)
		total += h
	}
	return total
}
