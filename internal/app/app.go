package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"detectview/internal/config"
	"detectview/internal/logger"
	"detectview/internal/middleware"
	"detectview/internal/repository/sqlite"
	"detectview/internal/route"
	"detectview/internal/service"
	"detectview/internal/service/ai"
	"detectview/internal/service/analysis"
	"detectview/internal/service/capture"
	"detectview/internal/service/editor"
	"detectview/internal/service/render"
	"detectview/internal/service/storage"
	"detectview/internal/service/stream"
	"detectview/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config          *config.Config
	logger          *logger.Logger
	db              *sqlite.DB
	imageRepo       *sqlite.ImageRepository
	detectionRepo   *sqlite.DetectionRepository
	detectorService *ai.DetectorService
	camera          *capture.Camera
	bufferService   *storage.BufferService
	hubService      *websocket.HubService
	manager         *service.Manager
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open analysis history: %w", err)
	}
	imageRepo := sqlite.NewImageRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)

	a := &App{
		config:        cfg,
		logger:        log,
		db:            db,
		imageRepo:     imageRepo,
		detectionRepo: detectionRepo,
		bufferService: storage.NewBufferService(cfg, log.Named("storage"), imageRepo, detectionRepo),
		hubService:    websocket.NewHubService(log.Named("hub")),
	}

	var analyzer analysis.Analyzer
	if cfg.AnalyzeURL != "" {
		analyzer = analysis.NewClient(cfg.AnalyzeURL, 30*time.Second)
		log.Info("Static analysis via %s", cfg.AnalyzeURL)
	} else {
		analyzer = analysis.NewLocalAnalyzer(a.detector())
		log.Info("Static analysis via local inference")
	}

	editors := editor.NewStore(cfg.SessionTTL, render.BasicMeasurer{})
	a.manager = service.NewManager(cfg, log.Named("manager"), a.hubService, a.bufferService, editors, analyzer)
	a.setupStream()

	return a, nil
}

// detector lazily creates the single in-process inference service.
func (a *App) detector() *ai.DetectorService {
	if a.detectorService == nil {
		a.detectorService = ai.NewDetectorService(a.config, a.logger.Named("ai"))
	}
	return a.detectorService
}

// setupStream attaches the configured batch producer to the manager. A camera
// that cannot be opened disables streaming.
func (a *App) setupStream() {
	mode := a.config.StreamMode
	if mode != "remote" && mode != "local" {
		a.logger.Info("Streaming detection disabled")
		return
	}

	camera, err := capture.OpenCamera(a.config.CameraDevice, a.logger.Named("camera"))
	if err != nil {
		a.logger.Error("Streaming detection disabled: %v", err)
		return
	}
	a.camera = camera

	var runner service.StreamRunner
	if mode == "remote" {
		runner = stream.NewClient(stream.ClientOptions{
			URL:                 a.config.StreamURL,
			Source:              camera,
			Sink:                a.manager.HandleBatch,
			Interval:            a.config.FrameInterval,
			ReconnectMaxElapsed: a.config.StreamReconnectMaxElapsed,
			Logger:              a.logger.Named("stream"),
		})
	} else {
		runner = stream.NewLocalRunner(camera, a.detector(), a.manager.HandleBatch,
			a.config.FrameInterval, a.logger.Named("stream"))
	}
	a.manager.SetStream(runner, camera.Size)
	a.logger.Info("Streaming detection mode: %s", mode)
}

// Run serves HTTP until ctx is cancelled, then shuts every service down.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		a.bufferService.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		a.hubService.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		a.manager.Run(ctx)
	}()

	router := route.SetupRoutes(a.manager, a.config, a.logger, middleware.NewLoginStore(a.config.LoginTTL), a.imageRepo, a.detectionRepo)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	a.logger.Info("detectview server on http://localhost:%d", a.config.Port)
	a.logger.Info("Images: %s, database: %s", a.config.ImageDirectory, a.config.DatabasePath)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		a.logger.Error("Server shutdown: %v", shutdownErr)
	}

	cancel()
	wg.Wait()
	return err
}

func (a *App) close() {
	if a.camera != nil {
		a.camera.Close()
	}
	if a.detectorService != nil {
		a.detectorService.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database: %v", err)
	}
	a.logger.Info("Server stopped")
	a.logger.Close()
}
