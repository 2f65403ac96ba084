package models

import (
	"fmt"
)

// Point is a polygon vertex in image pixel space.
// X is the column and Y is the row.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Polygon is an ordered list of vertices. The last vertex connects
// back to the first.
type Polygon []Point

// BoolGrid is a binary raster with the same pixel dimensions as the
// source image
type BoolGrid struct {
	// Data is the raster in row-major order
	Data []bool

	// Width is the number of columns
	Width int

	// Height is the number of rows
	Height int
}

// NewBoolGrid allocates an all-false grid
func NewBoolGrid(width, height int) *BoolGrid {
	return &BoolGrid{
		Data:   make([]bool, width*height),
		Width:  width,
		Height: height,
	}
}

// At returns the value at column x, row y
func (g *BoolGrid) At(x, y int) bool {
	return g.Data[y*g.Width+x]
}

// Set stores v at column x, row y
func (g *BoolGrid) Set(x, y int, v bool) {
	g.Data[y*g.Width+x] = v
}

// Count returns the number of true pixels
func (g *BoolGrid) Count() int {
	n := 0
	for _, v := range g.Data {
		if v {
			n++
		}
	}
	return n
}

// SameSize reports whether the grid is width x height
func (g *BoolGrid) SameSize(width, height int) bool {
	return g.Width == width && g.Height == height
}

// Or merges other into g pixel by pixel
func (g *BoolGrid) Or(other *BoolGrid) error {
	if !g.SameSize(other.Width, other.Height) {
		return fmt.Errorf("grid size %dx%d does not match %dx%d",
			other.Width, other.Height, g.Width, g.Height)
	}
	for i, v := range other.Data {
		if v {
			g.Data[i] = true
		}
	}
	return nil
}

// Equal reports whether both grids have the same size and pixels
func (g *BoolGrid) Equal(other *BoolGrid) bool {
	if other == nil || !g.SameSize(other.Width, other.Height) {
		return false
	}
	for i, v := range g.Data {
		if other.Data[i] != v {
			return false
		}
	}
	return true
}

// FloatGrid holds per-pixel values such as distances or channel
// intensities, row-major
type FloatGrid struct {
	Data   []float64
	Width  int
	Height int
}

// NewFloatGrid allocates a zeroed grid
func NewFloatGrid(width, height int) *FloatGrid {
	return &FloatGrid{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
	}
}

// At returns the value at column x, row y
func (g *FloatGrid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

// Set stores v at column x, row y
func (g *FloatGrid) Set(x, y int, v float64) {
	g.Data[y*g.Width+x] = v
}
