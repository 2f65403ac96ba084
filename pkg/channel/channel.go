// Package channel loads single-channel microscopy images into float grids.
package channel

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"

	"implantprofile/internal/models"
)

// DefaultExtensions are the file extensions searched for channel images
var DefaultExtensions = []string{".tif", ".tiff"}

// Load decodes an image file into a grid of raw sample values. 8- and
// 16-bit grayscale images keep their stored values; other colour models
// are converted to 16-bit luminance.
func Load(path string) (*models.FloatGrid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	return FromImage(img), nil
}

// FromImage converts a decoded image into a float grid
func FromImage(img image.Image) *models.FloatGrid {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	grid := models.NewFloatGrid(width, height)

	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				grid.Set(x, y, float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
	case *image.Gray:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				grid.Set(x, y, float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
				grid.Set(x, y, float64(g.Y))
			}
		}
	}

	return grid
}

// HasExtension reports whether name ends in one of exts, ignoring case
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
