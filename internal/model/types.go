package model

import "time"

type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// PaletteColor is one reported cluster: its representative color plus the
// display metadata the UI renders next to the swatch.
type PaletteColor struct {
	Hex        string `json:"hex"`
	Name       string `json:"name"`
	RGB        RGB    `json:"rgb"`
	Percentage int    `json:"percentage"`
	Population int    `json:"population"`
}

type Palette struct {
	ID         string         `json:"id,omitempty"`
	Source     string         `json:"source"`
	Colors     []PaletteColor `json:"colors"`
	K          int            `json:"k"`
	Attempts   int            `json:"attempts"`
	Iterations int            `json:"iterations"`
	Inertia    float64        `json:"inertia"`
	SampleSize int            `json:"sample_size"`
	CreatedAt  int64          `json:"created_at_unix_ms"`
}

// ExportColor is the shape consumed by the export/clipboard document.
type ExportColor struct {
	Hex        string `json:"hex"`
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
}

type PaletteExport struct {
	Colors     []ExportColor `json:"colors"`
	ExportedAt string        `json:"exportedAt"`
}

type StoredState struct {
	LatestPalette     *Palette  `json:"latest_palette,omitempty"`
	SavedPalettes     []Palette `json:"saved_palettes"`
	LastUpdatedUnixMS int64     `json:"last_updated_unix_ms"`
	CreatedAt         time.Time `json:"created_at"`
}

type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	CreatedAt int64       `json:"created_at_unix_ms"`
}
