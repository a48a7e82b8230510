package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"detectview/internal/dto"
	"detectview/internal/logger"
	"detectview/internal/models"
	"detectview/internal/service/editor"
)

func editorState(s editor.Snapshot) dto.EditorState {
	state := dto.EditorState{
		ID:         s.ID,
		Width:      s.Width,
		Height:     s.Height,
		Dragging:   s.Dragging,
		Detections: s.Detections,
	}
	if s.Selected >= 0 {
		selected := s.Selected
		state.Selected = &selected
	}
	return state
}

// lookupSession resolves the "id" query parameter, answering 404 when it is unknown.
func lookupSession(w http.ResponseWriter, r *http.Request, store *editor.Store) (*editor.Session, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Session id is required", http.StatusBadRequest)
		return nil, false
	}
	session, err := store.Get(id)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// EditorStateHandler handles GET /api/editor.
func EditorStateHandler(store *editor.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		session, ok := lookupSession(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, logger, http.StatusOK, editorState(session.Snapshot()))
	}
}

// EditorPointerHandler handles POST /api/editor/pointer with a mouse event.
func EditorPointerHandler(store *editor.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		session, ok := lookupSession(w, r, store)
		if !ok {
			return
		}

		var ev dto.PointerEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, "Invalid pointer event", http.StatusBadRequest)
			return
		}

		p := editor.Point{X: ev.X, Y: ev.Y}
		switch ev.Type {
		case "down":
			session.PointerDown(p)
		case "move":
			session.PointerMove(p)
		case "up", "leave":
			session.PointerUp()
		default:
			http.Error(w, "Unknown pointer event type", http.StatusBadRequest)
			return
		}

		writeJSON(w, logger, http.StatusOK, editorState(session.Snapshot()))
	}
}

// EditorLabelHandler handles POST /api/editor/label.
func EditorLabelHandler(store *editor.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		session, ok := lookupSession(w, r, store)
		if !ok {
			return
		}

		var req dto.RenameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid rename request", http.StatusBadRequest)
			return
		}

		if err := session.RenameLabel(req.Index, req.Text); err != nil {
			if errors.Is(err, editor.ErrIndexOutOfRange) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			logger.Error("Rename failed: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, http.StatusOK, editorState(session.Snapshot()))
	}
}

// EditorDetectionsHandler handles PUT /api/editor/detections, replacing every box.
func EditorDetectionsHandler(store *editor.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPut) {
			return
		}
		session, ok := lookupSession(w, r, store)
		if !ok {
			return
		}

		var list []models.Detection
		if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
			http.Error(w, "Invalid detection list", http.StatusBadRequest)
			return
		}

		session.SetDetections(list)
		writeJSON(w, logger, http.StatusOK, editorState(session.Snapshot()))
	}
}

// EditorRenderHandler handles GET /api/editor/render and returns the canvas as PNG.
func EditorRenderHandler(store *editor.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		session, ok := lookupSession(w, r, store)
		if !ok {
			return
		}

		data, err := session.RenderPNG()
		if err != nil {
			if errors.Is(err, editor.ErrNoImage) {
				http.Error(w, "No image loaded", http.StatusConflict)
				return
			}
			logger.Error("Error rendering session %s: %v", session.ID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writePNG(w, data)
	}
}
