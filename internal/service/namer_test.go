package service

import (
	"strings"
	"testing"

	"palette-agent/internal/model"
)

func TestParseNames(t *testing.T) {
	input := `# comment
crimson:#dc143c

slate:#708090
line without a separator
`
	entries, err := parseNames(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].name != "crimson" || entries[0].rgb != (model.RGB{R: 0xdc, G: 0x14, B: 0x3c}) {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
}

func TestParseNamesRejectsBadHex(t *testing.T) {
	if _, err := parseNames(strings.NewReader("oops:#zzz")); err == nil {
		t.Fatal("expected error for bad hex")
	}
}

func TestParseNamesRejectsEmptyTable(t *testing.T) {
	if _, err := parseNames(strings.NewReader("# only comments\n")); err == nil {
		t.Fatal("expected error for empty table")
	}
}

func TestNamerNearestMatch(t *testing.T) {
	n, err := NewNamerService("")
	if err != nil {
		t.Fatalf("namer: %v", err)
	}

	cases := []struct {
		in   model.RGB
		want string
	}{
		{model.RGB{R: 0, G: 0, B: 0}, "black"},
		{model.RGB{R: 250, G: 250, B: 250}, "white"},
		{model.RGB{R: 240, G: 10, B: 10}, "red"},
		{model.RGB{R: 10, G: 10, B: 200}, "blue"},
	}
	for _, tc := range cases {
		if got := n.Name(tc.in); got != tc.want {
			t.Errorf("Name(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
