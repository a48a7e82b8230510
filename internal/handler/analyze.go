package handler

import (
	"errors"
	"io"
	"net/http"

	"detectview/internal/logger"
	"detectview/internal/service"
	"detectview/internal/service/analysis"
)

// MaxUploadSize caps the size of an uploaded image.
const MaxUploadSize = 32 << 20

// AnalyzeHandler handles POST /api/analyze with a multipart "image" field. It
// runs static analysis and answers with the new editor session.
func AnalyzeHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
		file, header, err := r.FormFile("image")
		if err != nil {
			http.Error(w, "Image file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "Error reading image", http.StatusBadRequest)
			return
		}

		session, err := manager.Analyze(r.Context(), header.Filename, data)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrUnsupportedImage):
			http.Error(w, "Unsupported image", http.StatusBadRequest)
			return
		case errors.Is(err, analysis.ErrUpstream), errors.Is(err, analysis.ErrBadResponse):
			logger.Error("Analysis endpoint failed: %v", err)
			http.Error(w, "Analysis service error", http.StatusBadGateway)
			return
		default:
			logger.Error("Analysis failed: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, http.StatusOK, editorState(session.Snapshot()))
	}
}
