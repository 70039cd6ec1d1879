package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"palette-agent/internal/config"
	"palette-agent/internal/kmeans"
	"palette-agent/internal/model"
	"palette-agent/internal/service"
	"palette-agent/internal/storage"
	"palette-agent/internal/ws"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Handler struct {
	cfg        config.Config
	store      *storage.Store
	hub        *ws.Hub
	paletteSvc *service.PaletteService
	upgrader   websocket.Upgrader
}

type apiError struct {
	Error string `json:"error"`
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, errors.New("websocket requires GET"))
		return
	}
	if !websocket.IsWebSocketUpgrade(r) {
		writeErr(w, http.StatusBadRequest, errors.New("websocket upgrade required"))
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: remote=%s host=%s uri=%s err=%v", r.RemoteAddr, r.Host, r.RequestURI, err)
		return
	}
	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

// ExtractPalette accepts a multipart image upload plus optional k, attempts
// and iterations fields, runs the clustering pipeline and returns the
// resulting palette.
func (h *Handler) ExtractPalette(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSizeBytes); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	var params service.ExtractParams
	var err error
	if params.K, err = positiveFormInt(r, "k"); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if params.Attempts, err = positiveFormInt(r, "attempts"); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if params.Iterations, err = positiveFormInt(r, "iterations"); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	file, fileHeader, err := r.FormFile("image")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	if err := validateImageUpload(fileHeader); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	b, err := io.ReadAll(file)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.paletteSvc.Extract(r.Context(), fileHeader.Filename, b, params)
	if err != nil {
		switch {
		case errors.Is(err, kmeans.ErrInvalidParameter), errors.Is(err, service.ErrBadImage):
			writeErr(w, http.StatusBadRequest, err)
		default:
			writeErr(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) GetLatestPalette(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	p := h.store.GetLatestPalette()
	if p == nil {
		writeErr(w, http.StatusNotFound, errors.New("no palette extracted yet"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) ExportPalette(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	p := h.store.GetLatestPalette()
	if p == nil {
		writeErr(w, http.StatusNotFound, errors.New("no palette extracted yet"))
		return
	}
	writeJSON(w, http.StatusOK, service.BuildExport(*p, time.Now()))
}

// SavedPalettes handles the saved-palette collection: list, save the latest
// (or a posted palette), or clear everything.
func (h *Handler) SavedPalettes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.store.ListSavedPalettes())
	case http.MethodPost:
		h.savePalette(w, r)
	case http.MethodDelete:
		if err := h.store.ClearSavedPalettes(); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		h.hub.BroadcastEvent(model.Event{Type: "palette.cleared", CreatedAt: time.Now().UnixMilli()})
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) savePalette(w http.ResponseWriter, r *http.Request) {
	// Chunked uploads carry no Content-Length, so always try to decode and
	// treat an immediate EOF as an absent body.
	var p model.Palette
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if len(p.Colors) == 0 {
		latest := h.store.GetLatestPalette()
		if latest == nil {
			writeErr(w, http.StatusBadRequest, errors.New("no palette to save"))
			return
		}
		p = *latest
	}
	p.ID = uuid.NewString()
	if err := h.store.SavePalette(p); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	h.hub.BroadcastEvent(model.Event{Type: "palette.saved", Payload: p, CreatedAt: time.Now().UnixMilli()})
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) SavedPaletteByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/palettes/")
	if id == "" || strings.Contains(id, "/") {
		writeErr(w, http.StatusBadRequest, errors.New("palette id required"))
		return
	}
	if err := h.store.DeleteSavedPalette(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	h.hub.BroadcastEvent(model.Event{Type: "palette.deleted", Payload: map[string]string{"id": id}, CreatedAt: time.Now().UnixMilli()})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func validateImageUpload(header *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return nil
	default:
		return errors.New("unsupported image format")
	}
}

// positiveFormInt returns 0 when the field is absent, an error when it is
// present but not a positive integer.
func positiveFormInt(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, apiError{Error: err.Error()})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeErr(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}
