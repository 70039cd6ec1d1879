package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"palette-agent/internal/config"
	"palette-agent/internal/model"
	"palette-agent/internal/service"
	"palette-agent/internal/storage"
	"palette-agent/internal/ws"
)

func newTestServer(t *testing.T) (http.Handler, *storage.Store) {
	t.Helper()
	cfg := config.Config{
		DataPath:           filepath.Join(t.TempDir(), "state.json"),
		SampleWidth:        16,
		SampleHeight:       16,
		ClusterCount:       3,
		ClusterAttempts:    3,
		ClusterIterations:  20,
		MaxUploadSizeBytes: 1 << 20,
	}
	store, err := storage.NewStore(cfg.DataPath)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	hub := ws.NewHub()
	go hub.Run()
	namer, err := service.NewNamerService("")
	if err != nil {
		t.Fatalf("namer: %v", err)
	}
	svc := service.NewPaletteService(cfg, store, hub, namer)
	return NewRouter(cfg, store, hub, svc), store
}

func uploadRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "test.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if err := png.Encode(fw, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/palette/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestExtractEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, map[string]string{"k": "4"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var p model.Palette
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(p.Colors) != 4 {
		t.Fatalf("expected 4 colors, got %d", len(p.Colors))
	}
	for _, c := range p.Colors {
		if len(c.Hex) != 7 || c.Hex[0] != '#' {
			t.Errorf("bad hex %q", c.Hex)
		}
		if c.Percentage != 25 {
			t.Errorf("percentage = %d, want 25", c.Percentage)
		}
	}
	if store.GetLatestPalette() == nil {
		t.Error("latest palette not stored")
	}
}

func TestExtractEndpointBadParams(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, map[string]string{"k": "0"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, map[string]string{"k": "99999"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for k > sample size, want 400", rec.Code)
	}
}

func TestLatestAndExportEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/palette/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("latest before extract: status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("extract: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/palette/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status = %d", rec.Code)
	}
	var doc model.PaletteExport
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(doc.Colors) == 0 || doc.ExportedAt == "" {
		t.Fatalf("incomplete export document: %+v", doc)
	}
}

func TestSavedPaletteLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("extract: status = %d", rec.Code)
	}

	// Save the latest palette.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/palettes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("save: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var saved model.Palette
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode saved: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("saved palette has no id")
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/palettes", nil))
	var list []model.Palette
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 saved palette, got %d", len(list))
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/palettes/"+saved.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/palettes/"+saved.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing: status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/palettes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear: status = %d", rec.Code)
	}
}

func TestSavePostedPaletteChunked(t *testing.T) {
	srv, _ := newTestServer(t)

	body, err := json.Marshal(model.Palette{
		Source: "posted.png",
		Colors: []model.PaletteColor{{Hex: "#123456", Name: "navy", Percentage: 100}},
		K:      1,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// Wrap the reader so the request carries no Content-Length, like a
	// chunked upload. The posted palette must be saved even then; there is
	// no latest palette to fall back to.
	req := httptest.NewRequest(http.MethodPost, "/v1/palettes", io.MultiReader(bytes.NewReader(body)))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var saved model.Palette
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("saved palette has no id")
	}
	if saved.Source != "posted.png" || len(saved.Colors) != 1 || saved.Colors[0].Hex != "#123456" {
		t.Fatalf("posted palette not saved: %+v", saved)
	}
}

func TestSaveWithoutPalette(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/palettes", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
