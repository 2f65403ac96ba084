package distance

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"implantprofile/internal/models"
)

// Pixel is a raster position stored in the KD-tree
type Pixel struct {
	X, Y float64
}

// Compare implements the kdtree.Comparable interface
func (p Pixel) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Pixel)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p Pixel) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two pixels
func (p Pixel) Distance(c kdtree.Comparable) float64 {
	q := c.(Pixel)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Pixels is a collection of Pixel that satisfies kdtree.Interface
type Pixels []Pixel

func (p Pixels) Index(i int) kdtree.Comparable         { return p[i] }
func (p Pixels) Len() int                              { return len(p) }
func (p Pixels) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p Pixels) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pixelPlane{Pixels: p, Dim: d}, kdtree.MedianOfRandoms(pixelPlane{Pixels: p, Dim: d}, 100))
}

// pixelPlane implements sort.Interface and kdtree.SortSlicer for Pixels
type pixelPlane struct {
	Pixels
	kdtree.Dim
}

func (p pixelPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Pixels[i].X < p.Pixels[j].X
	case 1:
		return p.Pixels[i].Y < p.Pixels[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p pixelPlane) Slice(start, end int) kdtree.SortSlicer {
	return pixelPlane{Pixels: p.Pixels[start:end], Dim: p.Dim}
}

func (p pixelPlane) Swap(i, j int) {
	p.Pixels[i], p.Pixels[j] = p.Pixels[j], p.Pixels[i]
}

// Boundary returns the landmark pixels that have at least one 4-connected
// neighbour outside the landmark. The nearest landmark pixel to any pixel
// outside the region is always one of these.
func Boundary(landmark *models.BoolGrid) Pixels {
	w, h := landmark.Width, landmark.Height
	inside := func(x, y int) bool {
		return x >= 0 && x < w && y >= 0 && y < h && landmark.At(x, y)
	}

	var edge Pixels
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !landmark.At(x, y) {
				continue
			}
			if !inside(x-1, y) || !inside(x+1, y) || !inside(x, y-1) || !inside(x, y+1) {
				edge = append(edge, Pixel{X: float64(x), Y: float64(y)})
			}
		}
	}
	return edge
}

// TreeField computes the same field as Field by querying a KD-tree of
// landmark boundary pixels. It is exact and fast when the landmark
// outline is short relative to the image.
func TreeField(landmark *models.BoolGrid) (*models.FloatGrid, error) {
	edge := Boundary(landmark)
	if len(edge) == 0 {
		return nil, ErrEmptyLandmark
	}

	tree := kdtree.New(edge, false)
	field := models.NewFloatGrid(landmark.Width, landmark.Height)
	for y := 0; y < landmark.Height; y++ {
		for x := 0; x < landmark.Width; x++ {
			if landmark.At(x, y) {
				continue
			}
			_, d2 := tree.Nearest(Pixel{X: float64(x), Y: float64(y)})
			field.Set(x, y, math.Sqrt(d2))
		}
	}
	return field, nil
}
