package service

import (
	"time"

	"palette-agent/internal/model"
)

// BuildExport shapes a palette into the document the UI copies to the
// clipboard or downloads: colors plus an RFC 3339 timestamp.
func BuildExport(p model.Palette, now time.Time) model.PaletteExport {
	colors := make([]model.ExportColor, 0, len(p.Colors))
	for _, c := range p.Colors {
		colors = append(colors, model.ExportColor{
			Hex:        c.Hex,
			Name:       c.Name,
			Percentage: c.Percentage,
		})
	}
	return model.PaletteExport{
		Colors:     colors,
		ExportedAt: now.UTC().Format(time.RFC3339),
	}
}
