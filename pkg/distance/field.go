// Package distance computes Euclidean distance fields from a landmark
// raster: every pixel receives its distance, in pixels, to the closest
// landmark pixel. Landmark pixels have distance 0.
package distance

import (
	"errors"
	"fmt"
	"math"

	"implantprofile/internal/models"
)

// Distance backends selectable by name
const (
	MethodEDT    = "edt"
	MethodKDTree = "kdtree"
	MethodOpenCV = "opencv"
)

var (
	// ErrEmptyLandmark is returned when the landmark raster has no true pixel,
	// in which case the field is undefined.
	ErrEmptyLandmark = errors.New("landmark region is empty")

	// ErrUnknownMethod is returned by Compute for an unrecognised backend name
	ErrUnknownMethod = errors.New("unknown distance method")

	// ErrBackendUnavailable is returned when a backend was not compiled in
	ErrBackendUnavailable = errors.New("distance backend not available in this build")
)

// inf stands in for infinity in the lower-envelope computation
const inf = 1e20

// Compute dispatches to the backend named by method. An empty method
// selects MethodEDT.
func Compute(method string, landmark *models.BoolGrid) (*models.FloatGrid, error) {
	switch method {
	case "", MethodEDT:
		return Field(landmark)
	case MethodKDTree:
		return TreeField(landmark)
	case MethodOpenCV:
		return FieldOpenCV(landmark)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// Field computes the exact Euclidean distance transform with the separable
// lower-envelope algorithm of Felzenszwalb and Huttenlocher: a 1-D squared
// distance transform down every column, then along every row.
func Field(landmark *models.BoolGrid) (*models.FloatGrid, error) {
	if landmark.Count() == 0 {
		return nil, ErrEmptyLandmark
	}

	w, h := landmark.Width, landmark.Height
	sq := make([]float64, w*h)
	for i, v := range landmark.Data {
		if !v {
			sq[i] = inf
		}
	}

	n := max(w, h)
	f := make([]float64, n)
	d := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	// Columns
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			f[y] = sq[y*w+x]
		}
		transform1D(f[:h], d[:h], v, z)
		for y := 0; y < h; y++ {
			sq[y*w+x] = d[y]
		}
	}

	// Rows
	for y := 0; y < h; y++ {
		row := sq[y*w : (y+1)*w]
		copy(f, row)
		transform1D(f[:w], d[:w], v, z)
		copy(row, d[:w])
	}

	field := models.NewFloatGrid(w, h)
	for i, s := range sq {
		field.Data[i] = math.Sqrt(s)
	}
	return field, nil
}

// transform1D writes the squared distance transform of sampled function f
// into d. v and z are scratch buffers of at least len(f) and len(f)+1.
func transform1D(f, d []float64, v []int, z []float64) {
	n := len(f)
	k := 0
	v[0] = 0
	z[0] = -inf
	z[1] = inf

	for q := 1; q < n; q++ {
		s := intersect(f, q, v[k])
		for s <= z[k] {
			k--
			s = intersect(f, q, v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = inf
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}

// intersect returns the abscissa where the parabolas rooted at q and p meet
func intersect(f []float64, q, p int) float64 {
	fq, fp := float64(q), float64(p)
	return ((f[q] + fq*fq) - (f[p] + fp*fp)) / (2*fq - 2*fp)
}
