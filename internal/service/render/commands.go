// Package render turns editor and stream state into draw commands, and
// rasterizes those commands into images.
package render

import (
	"image"
	"image/color"
)

// Kind is the type of a draw command.
type Kind string

const (
	KindClear      Kind = "clear"
	KindImage      Kind = "image"
	KindStrokeRect Kind = "strokeRect"
	KindFillRect   Kind = "fillRect"
	KindText       Kind = "text"
)

// Rect is a floating point rectangle in canvas pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Command is one canvas draw call. Only the fields relevant to Kind are set.
type Command struct {
	Kind      Kind        `json:"kind"`
	Rect      Rect        `json:"rect"`
	Color     color.NRGBA `json:"color"`
	LineWidth float64     `json:"lineWidth,omitempty"`
	Text      string      `json:"text,omitempty"`
	FontSize  float64     `json:"fontSize,omitempty"`
	Image     image.Image `json:"-"`
}

var (
	// SelectedStroke outlines the box under edit.
	SelectedStroke = color.NRGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
	// DefaultStroke outlines every other box.
	DefaultStroke = color.NRGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	// TagBackground is the label tag fill, black at 70% opacity.
	TagBackground = color.NRGBA{R: 0, G: 0, B: 0, A: 178}
	// TagText is the label text color.
	TagText = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)
