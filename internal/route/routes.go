package route

import (
	"net/http"
	"os"
	"path/filepath"

	"detectview/internal/config"
	"detectview/internal/handler"
	"detectview/internal/logger"
	"detectview/internal/middleware"
	"detectview/internal/repository"
	"detectview/internal/service"
)

// StaticDirectory holds the browser pages and assets.
var StaticDirectory = "static"

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join(StaticDirectory, filepath.Clean(path)+".html")
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers static files, the API and log endpoints, and wraps the
// mux with the authentication middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, log *logger.Logger, logins *middleware.LoginStore,
	imageRepo repository.ImageRepository, detectionRepo repository.DetectionRepository) http.Handler {
	mux := http.NewServeMux()
	editors := manager.GetEditorStore()

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(StaticDirectory))))

	// Static analysis and annotation editor
	mux.HandleFunc("/api/analyze", handler.AnalyzeHandler(manager, log))
	mux.HandleFunc("/api/editor", handler.EditorStateHandler(editors, log))
	mux.HandleFunc("/api/editor/pointer", handler.EditorPointerHandler(editors, log))
	mux.HandleFunc("/api/editor/label", handler.EditorLabelHandler(editors, log))
	mux.HandleFunc("/api/editor/detections", handler.EditorDetectionsHandler(editors, log))
	mux.HandleFunc("/api/editor/render", handler.EditorRenderHandler(editors, log))

	// Streaming detection
	mux.HandleFunc("/api/stream/view", handler.StreamViewHandler(manager, log))
	mux.HandleFunc("/api/stream/overlay", handler.StreamOverlayHandler(manager, log))

	// Analysis history
	mux.HandleFunc("/api/analyses", handler.GetAnalysesHandler(log, imageRepo, detectionRepo))
	mux.HandleFunc("/api/analyses/labels", handler.GetLabelsHandler(log, detectionRepo))
	mux.HandleFunc("/api/analyses/view", handler.ViewAnalysisImageHandler(cfg))
	mux.HandleFunc("/api/analyses/delete", handler.DeleteAnalysisHandler(log, imageRepo))
	mux.HandleFunc("/api/analyses/clear", handler.ClearAnalysesHandler(cfg, log, imageRepo))

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowLogsHandler(cfg, logger.InfoFile))
	mux.HandleFunc("/logs/warning", handler.ShowLogsHandler(cfg, logger.WarningFile))
	mux.HandleFunc("/logs/error", handler.ShowLogsHandler(cfg, logger.ErrorFile))

	mux.HandleFunc("/logs/info/clear", handler.ClearLogsHandler(log, logger.InfoFile))
	mux.HandleFunc("/logs/warning/clear", handler.ClearLogsHandler(log, logger.WarningFile))
	mux.HandleFunc("/logs/error/clear", handler.ClearLogsHandler(log, logger.ErrorFile))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, log, logins))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler(logins))

	// /settings -> static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	return middleware.AuthMiddleware(logins)(mux)
}
