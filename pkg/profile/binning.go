package profile

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"implantprofile/internal/models"
)

// TissueMask marks pixels that are neither landmark nor exclusion
func TissueMask(landmark, exclusions *models.BoolGrid) (*models.BoolGrid, error) {
	if !landmark.SameSize(exclusions.Width, exclusions.Height) {
		return nil, fmt.Errorf("%w: hole %dx%d, exclusions %dx%d", ErrDimensionMismatch,
			landmark.Width, landmark.Height, exclusions.Width, exclusions.Height)
	}

	tissue := models.NewBoolGrid(landmark.Width, landmark.Height)
	for i := range tissue.Data {
		tissue.Data[i] = !landmark.Data[i] && !exclusions.Data[i]
	}
	return tissue, nil
}

// Distances returns the field values at tissue pixels, scaled by
// umPerPixel, in row-major order
func Distances(field *models.FloatGrid, tissue *models.BoolGrid, umPerPixel float64) ([]float64, error) {
	if !tissue.SameSize(field.Width, field.Height) {
		return nil, fmt.Errorf("%w: distance field %dx%d, mask %dx%d", ErrDimensionMismatch,
			field.Width, field.Height, tissue.Width, tissue.Height)
	}

	out := make([]float64, 0, tissue.Count())
	for i, keep := range tissue.Data {
		if keep {
			out = append(out, field.Data[i]*umPerPixel)
		}
	}
	return out, nil
}

// Intensities returns the channel values at tissue pixels in the same
// order as Distances
func Intensities(channel *models.FloatGrid, tissue *models.BoolGrid) ([]float64, error) {
	if !tissue.SameSize(channel.Width, channel.Height) {
		return nil, fmt.Errorf("%w: channel image %dx%d, mask %dx%d", ErrDimensionMismatch,
			channel.Width, channel.Height, tissue.Width, tissue.Height)
	}

	out := make([]float64, 0, tissue.Count())
	for i, keep := range tissue.Data {
		if keep {
			out = append(out, channel.Data[i])
		}
	}
	return out, nil
}

// BinMeans partitions [0, UpperLimit] into StepSize-wide bins and returns
// the mean of the values whose distance falls in each bin. Bins are
// half-open except the last, which also holds distances equal to
// UpperLimit. Samples beyond UpperLimit are ignored. Empty bins are NaN.
func (p Params) BinMeans(dist, values []float64) ([]float64, error) {
	if len(dist) != len(values) {
		return nil, fmt.Errorf("%w: %d distances, %d values", ErrDimensionMismatch, len(dist), len(values))
	}

	n := p.FineBins()
	step := float64(p.StepSize)
	upper := float64(p.UpperLimit)

	bins := make([][]float64, n)
	for i, d := range dist {
		if d < 0 || d > upper || math.IsNaN(d) {
			continue
		}
		idx := int(d / step)
		if idx >= n {
			idx = n - 1
		}
		bins[idx] = append(bins[idx], values[i])
	}

	means := make([]float64, n)
	for i, b := range bins {
		if len(b) == 0 {
			means[i] = math.NaN()
			continue
		}
		means[i] = stat.Mean(b, nil)
	}
	return means, nil
}

// Coarsen sums consecutive groups of factor fine bins, so coarse values
// scale with factor. A NaN fine bin makes its coarse bin NaN.
func Coarsen(fine []float64, factor int) ([]float64, error) {
	if factor <= 0 || len(fine)%factor != 0 {
		return nil, fmt.Errorf("%w: %d fine bins cannot be grouped by %d", ErrParameterMismatch, len(fine), factor)
	}

	coarse := make([]float64, len(fine)/factor)
	for i := range coarse {
		coarse[i] = floats.Sum(fine[i*factor : (i+1)*factor])
	}
	return coarse, nil
}

// Normalize divides every coarse value by the last one, subtracts
// (1 - offset) and clamps negatives to zero. NaN entries stay NaN.
//
// Offset is conventionally 0 or 1: 1 keeps the plain ratio, 0 expresses
// each bin as its excess over the farthest bin.
func Normalize(coarse []float64, offset int) ([]float64, error) {
	if len(coarse) == 0 {
		return nil, fmt.Errorf("%w: empty profile", ErrNormalizationDegenerate)
	}

	last := coarse[len(coarse)-1]
	if last == 0 || math.IsNaN(last) {
		return nil, fmt.Errorf("%w: farthest bin is %v", ErrNormalizationDegenerate, last)
	}

	shift := float64(1 - offset)
	out := make([]float64, len(coarse))
	for i, v := range coarse {
		// math.Max keeps NaN
		out[i] = math.Max(0, v/last-shift)
	}
	return out, nil
}
