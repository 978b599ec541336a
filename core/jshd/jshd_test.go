package jshd

import (
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	g := NewGrid("precip", "mm", "EPSG:4326", -9999, 3, 2, 4)
	g.Cells[1][2][1] = 12.5

	path := filepath.Join(t.TempDir(), "grid.jshd")
	if err := Write(path, g); err != nil {
		t.Fatal(err)
	}

	loaded, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	v, err := loaded.At(1, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if v != 12.5 {
		t.Fatalf("expected 12.5, got %v", v)
	}
}

func TestAtRejectsOutOfBounds(t *testing.T) {
	g := NewGrid("precip", "mm", "EPSG:4326", 0, 2, 2, 1)
	if _, err := g.At(0, 5, 0); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}
