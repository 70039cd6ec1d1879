package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"palette-agent/internal/model"
)

type namedColor struct {
	name string
	rgb  model.RGB
}

// NamerService resolves a display name for an arbitrary color by nearest
// match against a fixed name table.
type NamerService struct {
	entries []namedColor
}

// NewNamerService loads a name table from path. Lines are "name:#rrggbb";
// blank lines and "#" comments are skipped. An empty path falls back to a
// small built-in table.
func NewNamerService(path string) (*NamerService, error) {
	if path == "" {
		return &NamerService{entries: builtinNames()}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := parseNames(f)
	if err != nil {
		return nil, err
	}
	return &NamerService{entries: entries}, nil
}

func parseNames(r io.Reader) ([]namedColor, error) {
	entries := make([]namedColor, 0, 64)
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		rgb, err := parseHex(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("name table entry %q: %w", line, err)
		}
		entries = append(entries, namedColor{name: strings.TrimSpace(parts[0]), rgb: rgb})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("name table has no entries")
	}
	return entries, nil
}

// Name returns the table entry closest to c by squared RGB distance. Ties go
// to the earlier entry.
func (n *NamerService) Name(c model.RGB) string {
	best := n.entries[0]
	bestDist := rgbSqDist(c, best.rgb)
	for _, e := range n.entries[1:] {
		if d := rgbSqDist(c, e.rgb); d < bestDist {
			bestDist = d
			best = e
		}
	}
	return best.name
}

func rgbSqDist(a, b model.RGB) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

func parseHex(s string) (model.RGB, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return model.RGB{}, fmt.Errorf("hex color must be 6 digits, got %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.ToLower(s), "%02x%02x%02x", &r, &g, &b); err != nil {
		return model.RGB{}, err
	}
	return model.RGB{R: r, G: g, B: b}, nil
}

func builtinNames() []namedColor {
	return []namedColor{
		{"black", model.RGB{R: 0x00, G: 0x00, B: 0x00}},
		{"white", model.RGB{R: 0xff, G: 0xff, B: 0xff}},
		{"gray", model.RGB{R: 0x80, G: 0x80, B: 0x80}},
		{"silver", model.RGB{R: 0xc0, G: 0xc0, B: 0xc0}},
		{"red", model.RGB{R: 0xff, G: 0x00, B: 0x00}},
		{"maroon", model.RGB{R: 0x80, G: 0x00, B: 0x00}},
		{"orange", model.RGB{R: 0xff, G: 0xa5, B: 0x00}},
		{"yellow", model.RGB{R: 0xff, G: 0xff, B: 0x00}},
		{"olive", model.RGB{R: 0x80, G: 0x80, B: 0x00}},
		{"lime", model.RGB{R: 0x00, G: 0xff, B: 0x00}},
		{"green", model.RGB{R: 0x00, G: 0x80, B: 0x00}},
		{"teal", model.RGB{R: 0x00, G: 0x80, B: 0x80}},
		{"cyan", model.RGB{R: 0x00, G: 0xff, B: 0xff}},
		{"blue", model.RGB{R: 0x00, G: 0x00, B: 0xff}},
		{"navy", model.RGB{R: 0x00, G: 0x00, B: 0x80}},
		{"purple", model.RGB{R: 0x80, G: 0x00, B: 0x80}},
		{"magenta", model.RGB{R: 0xff, G: 0x00, B: 0xff}},
		{"brown", model.RGB{R: 0x8b, G: 0x45, B: 0x13}},
		{"pink", model.RGB{R: 0xff, G: 0xc0, B: 0xcb}},
		{"beige", model.RGB{R: 0xf5, G: 0xf5, B: 0xdc}},
	}
}
