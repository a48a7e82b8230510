package render

import (
	"image"

	"detectview/internal/models"
)

const (
	annotationLineWidth = 2
	annotationFontSize  = 14
	tagOffset           = 25 // tag background top, above the box
	tagHeight           = 20
	tagPadding          = 10 // added to the measured text width
	textInset           = 5
	textBaseline        = 10 // text baseline, above the box
)

// Scene is everything the annotation canvas is drawn from.
type Scene struct {
	Image    image.Image
	Width    int
	Height   int
	Boxes    []models.Detection
	Selected int // -1 when nothing is selected
}

// Annotation draws the image at full resolution, then every box with its
// label tag. Tags sit above the box even when that places them off canvas.
// A scene without an image produces no commands.
func Annotation(scene Scene, measurer TextMeasurer) []Command {
	if scene.Image == nil {
		return nil
	}

	cmds := make([]Command, 0, 1+3*len(scene.Boxes))
	cmds = append(cmds, Command{
		Kind:  KindImage,
		Rect:  Rect{Width: float64(scene.Width), Height: float64(scene.Height)},
		Image: scene.Image,
	})

	for i, box := range scene.Boxes {
		stroke := DefaultStroke
		if i == scene.Selected {
			stroke = SelectedStroke
		}
		b := box.Box

		cmds = append(cmds,
			Command{
				Kind:      KindStrokeRect,
				Rect:      Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height},
				Color:     stroke,
				LineWidth: annotationLineWidth,
			},
			Command{
				Kind: KindFillRect,
				Rect: Rect{
					X:      b.X,
					Y:      b.Y - tagOffset,
					Width:  measurer.MeasureText(box.Label, annotationFontSize) + tagPadding,
					Height: tagHeight,
				},
				Color: TagBackground,
			},
			Command{
				Kind:     KindText,
				Rect:     Rect{X: b.X + textInset, Y: b.Y - textBaseline},
				Color:    TagText,
				Text:     box.Label,
				FontSize: annotationFontSize,
			},
		)
	}
	return cmds
}
