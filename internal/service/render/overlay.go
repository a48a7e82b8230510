package render

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"detectview/internal/models"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// Overlay draws smoothed stream detections, given in source video pixels,
// onto a transparent canvas of the display size.
func Overlay(detections []models.Detection, source, display Size) []Command {
	cmds := []Command{{
		Kind: KindClear,
		Rect: Rect{Width: float64(display.Width), Height: float64(display.Height)},
	}}
	if source.Width <= 0 || source.Height <= 0 {
		return cmds
	}

	scaleX := float64(display.Width) / float64(source.Width)
	scaleY := float64(display.Height) / float64(source.Height)
	scale := math.Min(scaleX, scaleY)
	lineWidth := math.Max(2, scale*2)
	fontSize := math.Max(16, scale*24)

	for _, d := range detections {
		clr := LabelColor(d.Label)
		x := d.Box.X * scaleX
		y := d.Box.Y * scaleY

		cmds = append(cmds,
			Command{
				Kind:      KindStrokeRect,
				Rect:      Rect{X: x, Y: y, Width: d.Box.Width * scaleX, Height: d.Box.Height * scaleY},
				Color:     clr,
				LineWidth: lineWidth,
			},
			Command{
				Kind:     KindText,
				Rect:     Rect{X: x, Y: y - 5},
				Color:    clr,
				Text:     d.Label,
				FontSize: fontSize,
			},
		)
	}
	return cmds
}

// LabelColor derives a stable color from a label: a 32-bit string hash picks
// hue, saturation and lightness.
func LabelColor(label string) color.NRGBA {
	var hash int32
	for _, r := range label {
		hash = int32(r) + ((hash << 5) - hash)
	}

	h := float64(hash % 360)
	if h < 0 {
		h += 360
	}
	s := float64(75+abs32(hash%25)) / 100
	l := float64(50+abs32(hash%20)) / 100

	c := colorful.Hsl(h, math.Min(s, 1), math.Min(l, 1)).Clamped()
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
