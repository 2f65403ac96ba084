package visualization

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"implantprofile/pkg/profile"
)

func TestPlotProfiles(t *testing.T) {
	edges := []float64{10, 20, 30, 40, 50}
	profiles := []profile.Profile{
		{Channel: "DAPI", Fine: []float64{math.NaN(), 5, 4, 3, 3}},
		{Channel: "GFP", Fine: []float64{1, 1, 1, 1, 1}},
	}

	data, err := PlotProfiles("set1 intensity plot", edges, profiles)
	if err != nil {
		t.Fatalf("PlotProfiles failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Plot is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != PlotWidth || img.Bounds().Dy() != PlotHeight {
		t.Errorf("Unexpected plot size %v", img.Bounds())
	}
}

func TestPlotProfilesNothingToDraw(t *testing.T) {
	profiles := []profile.Profile{{Channel: "empty", Fine: []float64{math.NaN(), 2, math.NaN()}}}
	if _, err := PlotProfiles("x", []float64{1, 2, 3}, profiles); err == nil {
		t.Error("Expected error when no series has two points")
	}
}

func TestSaveProfilePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "set1"+PlotSuffix)
	profiles := []profile.Profile{{Channel: "c", Fine: []float64{0, 0, 0}}}

	if err := SaveProfilePlot(path, "set1", []float64{1, 2, 3}, profiles); err != nil {
		t.Fatalf("SaveProfilePlot failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("Expected plot file to be written, stat error %v", err)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.png")
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.SetNRGBA(1, 2, color.NRGBA{R: 255, A: 255})

	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode preview: %v", err)
	}
	r, _, _, a := decoded.At(1, 2).RGBA()
	if r != 0xFFFF || a != 0xFFFF {
		t.Errorf("Expected opaque red pixel, got r=%d a=%d", r, a)
	}
	if _, _, _, a := decoded.At(0, 0).RGBA(); a != 0 {
		t.Errorf("Expected transparent pixel, got alpha %d", a)
	}
}
