// Package raster converts hand-drawn polygons into pixel masks.
//
// A pixel (x, y) is sampled at its integer coordinate, which is the pixel
// centre in the coordinate system the drawing tool reports vertices in.
// Containment follows the even-odd rule with a half-open edge test, so
// for every polygon the left and top boundaries count as inside and the
// right and bottom boundaries as outside.
package raster

import (
	"errors"
	"fmt"
	"math"

	"implantprofile/internal/models"
)

// ErrInvalidGeometry is returned for polygons with fewer than three
// vertices or for empty target grids.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Rasterize returns an nx by ny grid where a pixel is true iff its centre
// lies inside poly.
func Rasterize(poly models.Polygon, nx, ny int) (*models.BoolGrid, error) {
	if len(poly) < 3 {
		return nil, fmt.Errorf("%w: polygon has %d vertices, need at least 3", ErrInvalidGeometry, len(poly))
	}
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: grid size %dx%d", ErrInvalidGeometry, nx, ny)
	}

	grid := models.NewBoolGrid(nx, ny)

	// Only pixels inside the bounding box can be inside the polygon
	minX, minY, maxX, maxY := bounds(poly)
	x0 := clamp(int(math.Floor(minX)), 0, nx-1)
	x1 := clamp(int(math.Ceil(maxX)), 0, nx-1)
	y0 := clamp(int(math.Floor(minY)), 0, ny-1)
	y1 := clamp(int(math.Ceil(maxY)), 0, ny-1)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if Contains(poly, float64(x), float64(y)) {
				grid.Set(x, y, true)
			}
		}
	}

	return grid, nil
}

// Union rasterizes every polygon and ORs the results together. An empty
// list yields an all-false grid.
func Union(polys []models.Polygon, nx, ny int) (*models.BoolGrid, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: grid size %dx%d", ErrInvalidGeometry, nx, ny)
	}

	grid := models.NewBoolGrid(nx, ny)
	for i, poly := range polys {
		part, err := Rasterize(poly, nx, ny)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		if err := grid.Or(part); err != nil {
			return nil, err
		}
	}
	return grid, nil
}

// Contains tests whether (px, py) is inside poly using ray casting.
func Contains(poly models.Polygon, px, py float64) bool {
	if len(poly) < 3 {
		return false
	}

	inside := false
	n := len(poly)
	for i := 0; i < n; i++ {
		pi, pj := poly[i], poly[(i+1)%n]

		// Ray from p going right crosses edge pi-pj
		if (pi.Y > py) != (pj.Y > py) &&
			px < (pj.X-pi.X)*(py-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

func bounds(poly models.Polygon) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range poly {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
