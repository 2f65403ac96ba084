// Package mask builds, stores and previews the two binary rasters that
// describe an image set: the implant hole (landmark) and the union of all
// exclusion regions.
package mask

import (
	"fmt"
	"image"
	"image/color"

	"implantprofile/internal/models"
	"implantprofile/pkg/raster"
)

// File name suffixes written next to the channel images of an image set
const (
	MaskSuffix    = "_mask.msk"
	PreviewSuffix = "_preview.png"
	OutlineSuffix = "_outline.yaml"
)

// Dataset names inside the mask container
const (
	HoleDataset       = "hole"
	ExclusionsDataset = "exclusions"
)

// Preview colours
var (
	HoleColor      = color.NRGBA{R: 0xFF, A: 0xFF}
	ExclusionColor = color.NRGBA{R: 0xFF, G: 0xFF, A: 0xFF}
)

// Mask holds the landmark raster and the exclusion union for one image set
type Mask struct {
	Landmark   *models.BoolGrid
	Exclusions *models.BoolGrid
}

// Build rasterizes the landmark polygon (nil when no hole was drawn) and
// the union of the exclusion polygons onto an nx by ny grid.
func Build(landmark models.Polygon, exclusions []models.Polygon, nx, ny int) (*Mask, error) {
	var hole *models.BoolGrid
	if landmark != nil {
		grid, err := raster.Rasterize(landmark, nx, ny)
		if err != nil {
			return nil, fmt.Errorf("hole: %w", err)
		}
		hole = grid
	} else {
		if nx <= 0 || ny <= 0 {
			return nil, fmt.Errorf("%w: grid size %dx%d", raster.ErrInvalidGeometry, nx, ny)
		}
		hole = models.NewBoolGrid(nx, ny)
	}

	excl, err := raster.Union(exclusions, nx, ny)
	if err != nil {
		return nil, fmt.Errorf("exclusions: %w", err)
	}

	return &Mask{Landmark: hole, Exclusions: excl}, nil
}

// Width returns the mask width in pixels
func (m *Mask) Width() int { return m.Landmark.Width }

// Height returns the mask height in pixels
func (m *Mask) Height() int { return m.Landmark.Height }

// RenderPreview draws the landmark in HoleColor and exclusions in
// ExclusionColor on a transparent canvas. Exclusions are drawn last.
func RenderPreview(m *Mask) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, m.Width(), m.Height()))
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			switch {
			case m.Exclusions.At(x, y):
				img.SetNRGBA(x, y, ExclusionColor)
			case m.Landmark.At(x, y):
				img.SetNRGBA(x, y, HoleColor)
			}
		}
	}
	return img
}
