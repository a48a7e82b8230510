package render

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// TextMeasurer reports the advance width of text at a font size in pixels.
type TextMeasurer interface {
	MeasureText(text string, size float64) float64
}

// BasicMeasurer measures with the 7x13 bitmap face, scaled linearly from its
// native 13px height to the requested size.
type BasicMeasurer struct{}

func (BasicMeasurer) MeasureText(text string, size float64) float64 {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text)
	native := float64(width) / 64
	if size <= 0 {
		return native
	}
	return native * size / float64(face.Height)
}
