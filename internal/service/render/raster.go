package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Rasterize executes cmds on a new RGBA canvas of the given size.
// Text is drawn with the 7x13 bitmap face regardless of FontSize.
func Rasterize(cmds []Command, width, height int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	for _, c := range cmds {
		switch c.Kind {
		case KindClear:
			draw.Draw(canvas, canvas.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case KindImage:
			if c.Image != nil {
				draw.Draw(canvas, c.Rect.bounds(), c.Image, c.Image.Bounds().Min, draw.Src)
			}
		case KindFillRect:
			draw.Draw(canvas, c.Rect.bounds(), image.NewUniform(c.Color), image.Point{}, draw.Over)
		case KindStrokeRect:
			strokeRect(canvas, c.Rect, c.LineWidth, c.Color)
		case KindText:
			d := &font.Drawer{
				Dst:  canvas,
				Src:  image.NewUniform(c.Color),
				Face: basicfont.Face7x13,
				Dot:  fixed.P(int(math.Round(c.Rect.X)), int(math.Round(c.Rect.Y))),
			}
			d.DrawString(c.Text)
		}
	}
	return canvas
}

// EncodePNG rasterizes and writes cmds as PNG.
func EncodePNG(w io.Writer, cmds []Command, width, height int) error {
	return png.Encode(w, Rasterize(cmds, width, height))
}

// PNG is EncodePNG into a byte slice.
func PNG(cmds []Command, width, height int) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, cmds, width, height); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// strokeRect draws a centered stroke of lineWidth around r, like a canvas strokeRect.
func strokeRect(dst draw.Image, r Rect, lineWidth float64, clr color.Color) {
	half := lineWidth / 2
	src := image.NewUniform(clr)
	edges := []Rect{
		{X: r.X - half, Y: r.Y - half, Width: r.Width + lineWidth, Height: lineWidth},
		{X: r.X - half, Y: r.Y + r.Height - half, Width: r.Width + lineWidth, Height: lineWidth},
		{X: r.X - half, Y: r.Y + half, Width: lineWidth, Height: r.Height - lineWidth},
		{X: r.X + r.Width - half, Y: r.Y + half, Width: lineWidth, Height: r.Height - lineWidth},
	}
	for _, e := range edges {
		draw.Draw(dst, e.bounds(), src, image.Point{}, draw.Over)
	}
}

func (r Rect) bounds() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)),
	)
}
