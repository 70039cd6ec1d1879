package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"palette-agent/internal/config"
	"palette-agent/internal/kmeans"
	"palette-agent/internal/model"
	"palette-agent/internal/storage"
	"palette-agent/internal/ws"
)

// ExtractParams overrides the configured clustering defaults for one request.
// Zero values keep the defaults.
type ExtractParams struct {
	K          int
	Attempts   int
	Iterations int
}

type PaletteService struct {
	cfg   config.Config
	store *storage.Store
	hub   *ws.Hub
	namer *NamerService
}

func NewPaletteService(cfg config.Config, store *storage.Store, hub *ws.Hub, namer *NamerService) *PaletteService {
	return &PaletteService{cfg: cfg, store: store, hub: hub, namer: namer}
}

// Extract runs the full pipeline: sample the uploaded image, cluster the
// points, describe the winning centroids, persist the result as the latest
// palette and broadcast it.
func (s *PaletteService) Extract(ctx context.Context, source string, imageBytes []byte, params ExtractParams) (model.Palette, error) {
	k := params.K
	if k <= 0 {
		k = s.cfg.ClusterCount
	}
	attempts := params.Attempts
	if attempts <= 0 {
		attempts = s.cfg.ClusterAttempts
	}
	iterations := params.Iterations
	if iterations <= 0 {
		iterations = s.cfg.ClusterIterations
	}

	points, err := SamplePoints(imageBytes, s.cfg.SampleWidth, s.cfg.SampleHeight)
	if err != nil {
		return model.Palette{}, fmt.Errorf("sample image: %w", err)
	}

	res, err := kmeans.Cluster(ctx, points, k, kmeans.Options{
		Attempts:   attempts,
		Iterations: iterations,
		Workers:    s.cfg.ClusterWorkers,
	})
	if err != nil {
		return model.Palette{}, err
	}

	p := model.Palette{
		Source:     source,
		Colors:     s.describe(res),
		K:          k,
		Attempts:   attempts,
		Iterations: iterations,
		Inertia:    res.Inertia,
		SampleSize: len(points),
		CreatedAt:  time.Now().UnixMilli(),
	}
	if err := s.store.SetLatestPalette(p); err != nil {
		return model.Palette{}, err
	}
	s.hub.BroadcastEvent(model.Event{Type: "palette.extracted", Payload: p, CreatedAt: time.Now().UnixMilli()})
	return p, nil
}

// describe converts centroids to reportable palette entries. The percentage
// is the flat round(100/k) the original UI showed; the real per-cluster
// population rides along separately.
func (s *PaletteService) describe(res kmeans.Result) []model.PaletteColor {
	k := len(res.Centroids)
	percentage := int(math.Round(100.0 / float64(k)))
	colors := make([]model.PaletteColor, 0, k)
	for i, c := range res.Centroids {
		rgb := centroidToRGB(c)
		colors = append(colors, model.PaletteColor{
			Hex:        hexString(rgb),
			Name:       s.namer.Name(rgb),
			RGB:        rgb,
			Percentage: percentage,
			Population: res.Counts[i],
		})
	}
	return colors
}

// centroidToRGB rounds each [0,1] channel to the nearest of 256 levels.
func centroidToRGB(c kmeans.Point) model.RGB {
	return model.RGB{
		R: channelByte(c[0]),
		G: channelByte(c[1]),
		B: channelByte(c[2]),
	}
}

func channelByte(v float64) uint8 {
	n := int(math.Round(v * 255))
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	return uint8(n)
}

func hexString(c model.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
