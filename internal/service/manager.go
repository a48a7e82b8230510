package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"detectview/internal/config"
	"detectview/internal/dto"
	"detectview/internal/logger"
	"detectview/internal/models"
	"detectview/internal/service/analysis"
	"detectview/internal/service/editor"
	"detectview/internal/service/loop"
	"detectview/internal/service/render"
	"detectview/internal/service/smoother"
	"detectview/internal/service/storage"
	"detectview/internal/service/websocket"
)

// ErrUnsupportedImage is returned for uploads that cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

// DefaultMaxImagePixels caps uploads when the configuration sets no budget.
const DefaultMaxImagePixels = 40_000_000

// StreamRunner produces detection batches until ctx is cancelled.
type StreamRunner interface {
	Run(ctx context.Context) error
}

// SizeFunc reports the size of the streamed video in pixels.
type SizeFunc func() (width, height int)

// Manager owns the event loop and ties the detection pipelines to the
// viewers, the editor sessions and the analysis history.
type Manager struct {
	loop     *loop.Loop
	clock    *loop.FrameClock
	smoother *smoother.Smoother

	websocketService *websocket.HubService
	bufferService    *storage.BufferService
	editorStore      *editor.Store
	analyzer         analysis.Analyzer
	logger           *logger.Logger

	stream     StreamRunner
	sourceSize SizeFunc
	display    render.Size
	maxPixels  int

	frameMu   sync.RWMutex
	lastFrame models.SmoothedFrame
}

func NewManager(cfg *config.Config, logger *logger.Logger, hub *websocket.HubService, buffer *storage.BufferService,
	editors *editor.Store, analyzer analysis.Analyzer) *Manager {
	l := loop.New(64)
	clock := loop.NewFrameClock(l, cfg.FrameRate)

	m := &Manager{
		loop:             l,
		clock:            clock,
		websocketService: hub,
		bufferService:    buffer,
		editorStore:      editors,
		analyzer:         analyzer,
		logger:           logger,
		display:          render.Size{Width: cfg.DisplayWidth, Height: cfg.DisplayHeight},
		sourceSize:       func() (int, int) { return 0, 0 },
		maxPixels:        cfg.MaxImagePixels,
	}
	if m.maxPixels <= 0 {
		m.maxPixels = DefaultMaxImagePixels
	}
	m.smoother = smoother.New(clock,
		smoother.WithDuration(cfg.SmoothingDuration),
		smoother.WithFrameHandler(m.handleFrame),
	)
	return m
}

// SetStream attaches the batch producer and the size of the video it watches.
// It must be called before Run.
func (m *Manager) SetStream(runner StreamRunner, size SizeFunc) {
	m.stream = runner
	if size != nil {
		m.sourceSize = size
	}
}

// Run drives the event loop, the frame clock and the stream until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		m.loop.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		m.clock.Run(ctx)
	}()

	if m.stream != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.stream.Run(ctx); err != nil {
				m.logger.Error("Detection stream stopped: %v", err)
			}
		}()
	}

	m.logger.Info("Manager started")
	wg.Wait()
	m.logger.Info("Manager stopped")
}

// HandleBatch hands a batch to the smoother on the loop goroutine. It is the
// sink for both stream runners.
func (m *Manager) HandleBatch(batch models.DetectionBatch) {
	if err := m.loop.Post(func() { m.smoother.OnBatch(batch) }); err != nil {
		m.logger.Warning("Dropping detection batch %d: %v", batch.Seq, err)
	}
}

// handleFrame runs on the loop goroutine for every smoothed frame.
func (m *Manager) handleFrame(frame models.SmoothedFrame) {
	m.frameMu.Lock()
	m.lastFrame = models.SmoothedFrame{
		Seq:        frame.Seq,
		Progress:   frame.Progress,
		Detections: models.CloneDetections(frame.Detections),
	}
	m.frameMu.Unlock()

	width, height := m.sourceSize()
	msg, err := json.Marshal(dto.NewFrameMessage(frame, width, height))
	if err != nil {
		m.logger.Error("Error encoding frame %d: %v", frame.Seq, err)
		return
	}
	m.websocketService.Broadcast(msg)
}

// LastFrame returns a copy of the most recent smoothed frame.
func (m *Manager) LastFrame() models.SmoothedFrame {
	m.frameMu.RLock()
	defer m.frameMu.RUnlock()
	return models.SmoothedFrame{
		Seq:        m.lastFrame.Seq,
		Progress:   m.lastFrame.Progress,
		Detections: models.CloneDetections(m.lastFrame.Detections),
	}
}

// OverlayPNG renders the last smoothed frame onto a transparent canvas of the display size.
func (m *Manager) OverlayPNG() ([]byte, error) {
	frame := m.LastFrame()
	width, height := m.sourceSize()
	cmds := render.Overlay(frame.Detections, render.Size{Width: width, Height: height}, m.display)
	return render.PNG(cmds, m.display.Width, m.display.Height)
}

// Analyze runs static analysis on an upload, queues it for the history and
// opens an editor session over the result.
func (m *Manager) Analyze(ctx context.Context, filename string, data []byte) (*editor.Session, error) {
	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if header.Width <= 0 || header.Height <= 0 || int64(header.Width)*int64(header.Height) > int64(m.maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, header.Width, header.Height, m.maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	start := time.Now()
	result, err := m.analyzer.Analyze(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("analysis of %s failed: %w", filename, err)
	}
	m.logger.Info("Analyzed %s (%s): %d detections in %v", filename, result.Source, len(result.Detections), time.Since(start))

	if m.bufferService != nil {
		m.bufferService.Add(data, dto.BufferedAnalysis{
			Timestamp:  start,
			Filename:   filename,
			Source:     result.Source,
			Width:      img.Bounds().Dx(),
			Height:     img.Bounds().Dy(),
			Detections: result.Detections,
		})
	}

	session := m.editorStore.Create()
	session.LoadImage(img)
	session.SetDetections(result.Detections)
	return session, nil
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

func (m *Manager) GetBufferService() *storage.BufferService {
	return m.bufferService
}

func (m *Manager) GetEditorStore() *editor.Store {
	return m.editorStore
}
