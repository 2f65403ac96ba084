package raster

import (
	"errors"
	"math"
	"testing"

	"implantprofile/internal/models"
)

func square(x0, y0, x1, y1 float64) models.Polygon {
	return models.Polygon{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}}
}

func TestRasterizeRectangle(t *testing.T) {
	grid, err := Rasterize(square(10, 10, 50, 50), 100, 100)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			strictlyInside := x > 10 && x < 50 && y > 10 && y < 50
			outside := x < 10 || x > 50 || y < 10 || y > 50
			if strictlyInside && !grid.At(x, y) {
				t.Fatalf("Pixel (%d,%d) inside the rectangle is false", x, y)
			}
			if outside && grid.At(x, y) {
				t.Fatalf("Pixel (%d,%d) outside the rectangle is true", x, y)
			}
		}
	}

	area := grid.Count()
	if math.Abs(float64(area)-1600) > 80 {
		t.Errorf("Expected area near 1600, got %d", area)
	}
}

func TestRasterizeBoundaryRule(t *testing.T) {
	grid, err := Rasterize(square(10, 10, 50, 50), 100, 100)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}

	// Left and top edges are inside, right and bottom edges outside
	if !grid.At(10, 30) || !grid.At(30, 10) {
		t.Error("Expected left/top boundary pixels to be inside")
	}
	if grid.At(50, 30) || grid.At(30, 50) {
		t.Error("Expected right/bottom boundary pixels to be outside")
	}
	if grid.Count() != 1600 {
		t.Errorf("Expected exactly 1600 pixels, got %d", grid.Count())
	}

	// Same rule regardless of vertex winding
	reversed := models.Polygon{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 50}, {X: 10, Y: 50}}
	other, err := Rasterize(reversed, 100, 100)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if !grid.Equal(other) {
		t.Error("Expected winding order not to change the raster")
	}
}

func TestRasterizeNonSquareGrid(t *testing.T) {
	tri := models.Polygon{{X: 0, Y: 0}, {X: 60, Y: 0}, {X: 0, Y: 20}}
	grid, err := Rasterize(tri, 61, 21)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if grid.Width != 61 || grid.Height != 21 {
		t.Fatalf("Unexpected grid size %dx%d", grid.Width, grid.Height)
	}
	if !grid.At(5, 5) {
		t.Error("Expected (5,5) inside the triangle")
	}
	if grid.At(50, 15) {
		t.Error("Expected (50,15) outside the triangle")
	}
	if math.Abs(float64(grid.Count())-600) > 60 {
		t.Errorf("Expected area near 600, got %d", grid.Count())
	}
}

func TestRasterizeInvalid(t *testing.T) {
	_, err := Rasterize(models.Polygon{{X: 0, Y: 0}, {X: 5, Y: 5}}, 10, 10)
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("Expected ErrInvalidGeometry, got %v", err)
	}

	_, err = Rasterize(square(0, 0, 5, 5), 0, 10)
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("Expected ErrInvalidGeometry for empty grid, got %v", err)
	}
}

func TestRasterizeSelfIntersecting(t *testing.T) {
	// Bow-tie: even-odd rule fills both lobes
	bowtie := models.Polygon{{X: 0, Y: 0}, {X: 20, Y: 20}, {X: 20, Y: 0}, {X: 0, Y: 20}}
	grid, err := Rasterize(bowtie, 21, 21)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if !grid.At(3, 10) || !grid.At(17, 10) {
		t.Error("Expected side lobes to be filled")
	}
	if grid.At(10, 3) || grid.At(10, 17) {
		t.Error("Expected top and bottom wedges to be empty")
	}
}

func TestRasterizeOutsideGrid(t *testing.T) {
	grid, err := Rasterize(square(-30, -30, -10, -10), 20, 20)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if grid.Count() != 0 {
		t.Errorf("Expected empty raster, got %d pixels", grid.Count())
	}
}

func TestUnionMatchesPixelwiseOr(t *testing.T) {
	tests := []struct {
		name  string
		polys []models.Polygon
	}{
		{"none", nil},
		{"single", []models.Polygon{square(2, 2, 8, 8)}},
		{"disjoint", []models.Polygon{square(2, 2, 8, 8), square(20, 20, 28, 26)}},
		{"overlapping", []models.Polygon{square(2, 2, 15, 15), square(10, 10, 25, 25),
			{{X: 0, Y: 29}, {X: 29, Y: 29}, {X: 15, Y: 12}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			union, err := Union(tt.polys, 30, 30)
			if err != nil {
				t.Fatalf("Union failed: %v", err)
			}

			want := models.NewBoolGrid(30, 30)
			for _, p := range tt.polys {
				part, err := Rasterize(p, 30, 30)
				if err != nil {
					t.Fatalf("Rasterize failed: %v", err)
				}
				for i, v := range part.Data {
					want.Data[i] = want.Data[i] || v
				}
			}

			if !union.Equal(want) {
				t.Error("Union differs from pixel-wise OR of the individual rasters")
			}
		})
	}
}

func TestUnionPropagatesInvalidPolygon(t *testing.T) {
	_, err := Union([]models.Polygon{square(0, 0, 4, 4), {{X: 1, Y: 1}}}, 10, 10)
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("Expected ErrInvalidGeometry, got %v", err)
	}
}
