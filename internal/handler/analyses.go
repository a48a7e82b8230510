package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"detectview/internal/config"
	"detectview/internal/dto"
	"detectview/internal/logger"
	"detectview/internal/models"
	"detectview/internal/repository"
)

// GetAnalysesHandler returns the filtered, paginated analysis history.
func GetAnalysesHandler(logger *logger.Logger, imageRepo repository.ImageRepository,
	detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &models.ImageFilter{
			Source: q.Get("source"),
			Label:  q.Get("label"),
			After:  parseDate(q.Get("dateAfter")),
			Before: parseDate(q.Get("dateBefore")),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}
		if !filter.Before.IsZero() {
			filter.Before = filter.Before.AddDate(0, 0, 1).Add(-1)
		}

		images, err := imageRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying analyses from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := imageRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting analyses: %v", err)
			totalCount = len(images)
		}

		analyses := make([]dto.AnalysisInfo, 0, len(images))
		for _, img := range images {
			labels, err := detectionRepo.GetLabelsByImageID(img.ID)
			if err != nil {
				logger.Error("Error getting labels for image %d: %v", img.ID, err)
				labels = []string{}
			}
			analyses = append(analyses, dto.AnalysisInfo{
				ID:        img.ID,
				Name:      img.Filename,
				Source:    img.Source,
				Timestamp: img.Timestamp,
				Labels:    labels,
			})
		}

		writeJSON(w, logger, http.StatusOK, dto.AnalysesData{
			Analyses:    analyses,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// ViewAnalysisImageHandler serves a stored image named by the "image" query parameter.
func ViewAnalysisImageHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("image")
		if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.ImageDirectory, name))
	}
}

// DeleteAnalysisHandler removes one analysis from disk and database.
func DeleteAnalysisHandler(logger *logger.Logger, imageRepo repository.ImageRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost, http.MethodDelete) {
			return
		}

		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Valid id required", http.StatusBadRequest)
			return
		}

		img, err := imageRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading analysis %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if img == nil {
			http.Error(w, "Analysis not found", http.StatusNotFound)
			return
		}

		if err := os.Remove(img.FilePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete file %s: %v", img.FilePath, err)
		}
		if err := imageRepo.Delete(id); err != nil {
			logger.Error("Failed to delete analysis %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted analysis: %s", img.Filename)
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "deleted", "filename": img.Filename})
	}
}

// ClearAnalysesHandler deletes every stored image and clears the history.
func ClearAnalysesHandler(cfg *config.Config, logger *logger.Logger, imageRepo repository.ImageRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost, http.MethodDelete) {
			return
		}

		files, err := os.ReadDir(cfg.ImageDirectory)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading image directory: %v", err)
			http.Error(w, "Unable to read image directory", http.StatusInternalServerError)
			return
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if err := os.Remove(filepath.Join(cfg.ImageDirectory, file.Name())); err != nil {
				logger.Error("Error deleting file %s: %v", file.Name(), err)
			}
		}

		if err := imageRepo.DeleteAll(); err != nil {
			logger.Error("Error clearing database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Analysis history cleared: %s", cfg.ImageDirectory)
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetLabelsHandler lists every label in the history, for the gallery filter.
func GetLabelsHandler(logger *logger.Logger, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labels, err := detectionRepo.GetAllLabels()
		if err != nil {
			logger.Error("Error querying labels: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, labels)
	}
}
