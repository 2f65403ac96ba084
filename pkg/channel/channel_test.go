package channel

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

// createTestImage creates a grayscale test image with the specified dimensions and pattern
func createTestImage(width, height int, pattern func(x, y int) uint16) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: pattern(x, y)})
		}
	}
	return img
}

func TestLoadTIFF16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set_DAPI.tif")
	img := createTestImage(7, 5, func(x, y int) uint16 { return uint16(1000*y + x) })

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatalf("Failed to encode TIFF: %v", err)
	}
	f.Close()

	grid, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if grid.Width != 7 || grid.Height != 5 {
		t.Fatalf("Unexpected size %dx%d", grid.Width, grid.Height)
	}
	if got := grid.At(6, 4); got != 4006 {
		t.Errorf("Expected raw value 4006, got %f", got)
	}
}

func TestLoadPNG8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set_GFP.png")
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(2, 1, color.Gray{Y: 200})

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	grid, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if grid.At(2, 1) != 200 || grid.At(0, 0) != 0 {
		t.Errorf("Unexpected values %v", grid.Data)
	}
}

func TestFromImageOffsetBounds(t *testing.T) {
	img := image.NewGray16(image.Rect(10, 20, 14, 22))
	img.SetGray16(13, 21, color.Gray16{Y: 9})

	grid := FromImage(img)
	if grid.Width != 4 || grid.Height != 2 || grid.At(3, 1) != 9 {
		t.Errorf("Expected bounds to be rebased to the origin, got %dx%d %v", grid.Width, grid.Height, grid.Data)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.tif")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.tif")
	if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Expected decode error")
	}
}

func TestHasExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a_DAPI.tif", true},
		{"a_DAPI.TIFF", true},
		{"a_DAPI.png", false},
		{"a_mask.msk", false},
	}
	for _, tt := range tests {
		if got := HasExtension(tt.name, DefaultExtensions); got != tt.want {
			t.Errorf("HasExtension(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
