// Package editor implements the interactive annotation editor: one image, an
// index-addressed list of boxes, and mouse-driven drag editing.
package editor

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"detectview/internal/models"
	"detectview/internal/service/render"
)

var (
	ErrIndexOutOfRange = errors.New("box index out of range")
	ErrNoImage         = errors.New("no image loaded")
)

// Point is a pointer position in canvas pixels.
type Point struct {
	X float64
	Y float64
}

// RedrawFunc receives the full command list after every state change.
type RedrawFunc func(cmds []render.Command)

// Session is the editor state. Methods are safe for concurrent use; HTTP
// handlers for the same session may race.
type Session struct {
	ID string

	mu       sync.Mutex
	image    image.Image
	width    int
	height   int
	boxes    []models.Detection
	selected int
	dragging bool
	last     Point

	measurer render.TextMeasurer
	onRedraw RedrawFunc
}

// NewSession creates an empty session. A nil measurer uses render.BasicMeasurer.
func NewSession(id string, measurer render.TextMeasurer, onRedraw RedrawFunc) *Session {
	if measurer == nil {
		measurer = render.BasicMeasurer{}
	}
	return &Session{
		ID:       id,
		selected: -1,
		boxes:    []models.Detection{},
		measurer: measurer,
		onRedraw: onRedraw,
	}
}

// LoadImage sets the displayed image and resizes the canvas to it.
func (s *Session) LoadImage(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.image = img
	s.width, s.height = 0, 0
	if img != nil {
		s.width = img.Bounds().Dx()
		s.height = img.Bounds().Dy()
	}
	s.redraw()
}

// SetDetections replaces all boxes.
func (s *Session) SetDetections(list []models.Detection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.boxes = models.CloneDetections(list)
	if s.selected >= len(s.boxes) {
		s.selected = -1
		s.dragging = false
	}
	s.redraw()
}

// HitTest returns the box containing the point. Overlaps resolve to the later box.
func (s *Session) HitTest(x, y float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hitTest(x, y)
}

func (s *Session) hitTest(x, y float64) (int, bool) {
	hit := -1
	for i, b := range s.boxes {
		if b.Box.Contains(x, y) {
			hit = i
		}
	}
	return hit, hit >= 0
}

// BeginDrag selects box index and starts dragging from p.
func (s *Session) BeginDrag(index int, p Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.boxes) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	s.selected = index
	s.dragging = true
	s.last = p
	s.redraw()
	return nil
}

// UpdateDrag moves the selected box by the delta since the previous pointer event.
// Positions outside the canvas are not clamped.
func (s *Session) UpdateDrag(p Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dragging || s.selected < 0 {
		return false
	}

	dx, dy := p.X-s.last.X, p.Y-s.last.Y
	s.boxes[s.selected].Box = s.boxes[s.selected].Box.Translate(dx, dy)
	s.last = p
	s.redraw()
	return true
}

// EndDrag stops dragging. The selection is kept.
func (s *Session) EndDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragging = false
}

// PointerDown hit tests p and starts dragging the hit box. A miss changes nothing.
func (s *Session) PointerDown(p Point) (int, bool) {
	s.mu.Lock()
	index, ok := s.hitTest(p.X, p.Y)
	s.mu.Unlock()

	if !ok {
		return -1, false
	}
	if err := s.BeginDrag(index, p); err != nil {
		return -1, false
	}
	return index, true
}

// PointerMove forwards to UpdateDrag.
func (s *Session) PointerMove(p Point) bool {
	return s.UpdateDrag(p)
}

// PointerUp ends the drag. Leaving the canvas is handled the same way.
func (s *Session) PointerUp() {
	s.EndDrag()
}

// RenameLabel overwrites the label of box index. Geometry and score are untouched.
func (s *Session) RenameLabel(index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.boxes) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	s.boxes[index].Label = text
	s.redraw()
	return nil
}

// Render returns the draw commands for the current state.
func (s *Session) Render() []render.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return render.Annotation(s.scene(), s.measurer)
}

// RenderPNG rasterizes the current state.
func (s *Session) RenderPNG() ([]byte, error) {
	s.mu.Lock()
	cmds := render.Annotation(s.scene(), s.measurer)
	w, h := s.width, s.height
	s.mu.Unlock()

	if len(cmds) == 0 {
		return nil, ErrNoImage
	}
	return render.PNG(cmds, w, h)
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	ID         string
	Width      int
	Height     int
	Selected   int
	Dragging   bool
	Detections []models.Detection
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:         s.ID,
		Width:      s.width,
		Height:     s.height,
		Selected:   s.selected,
		Dragging:   s.dragging,
		Detections: models.CloneDetections(s.boxes),
	}
}

func (s *Session) scene() render.Scene {
	return render.Scene{
		Image:    s.image,
		Width:    s.width,
		Height:   s.height,
		Boxes:    s.boxes,
		Selected: s.selected,
	}
}

// redraw is a no-op until an image is loaded.
func (s *Session) redraw() {
	if s.onRedraw == nil || s.image == nil {
		return
	}
	s.onRedraw(render.Annotation(s.scene(), s.measurer))
}
