package api

import (
	"net/http"

	"palette-agent/internal/config"
	"palette-agent/internal/service"
	"palette-agent/internal/storage"
	"palette-agent/internal/ws"

	"github.com/gorilla/websocket"
)

func NewRouter(
	cfg config.Config,
	store *storage.Store,
	hub *ws.Hub,
	paletteSvc *service.PaletteService,
) http.Handler {
	h := &Handler{
		cfg:        cfg,
		store:      store,
		hub:        hub,
		paletteSvc: paletteSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.Healthz)
	mux.HandleFunc("/v1/ws", h.WebSocket)
	mux.HandleFunc("/v1/palette/extract", h.ExtractPalette)
	mux.HandleFunc("/v1/palette/latest", h.GetLatestPalette)
	mux.HandleFunc("/v1/palette/export", h.ExportPalette)
	mux.HandleFunc("/v1/palettes", h.SavedPalettes)
	mux.HandleFunc("/v1/palettes/", h.SavedPaletteByID)

	return limitBody(cfg.MaxUploadSizeBytes, mux)
}

func limitBody(maxSize int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
		next.ServeHTTP(w, r)
	})
}
