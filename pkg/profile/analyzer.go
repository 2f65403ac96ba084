package profile

import (
	"fmt"

	"implantprofile/internal/models"
)

// Channel is one intensity image of an image set together with the
// normalization offset requested for it
type Channel struct {
	Name      string
	Offset    int
	Intensity *models.FloatGrid
}

// Profile is the radial profile of one channel at every stage
type Profile struct {
	Channel string

	// Fine holds the binned means, NaN for empty bins
	Fine []float64

	// Coarse holds the summed coarse bins
	Coarse []float64

	// Normalized is Coarse after normalization; this is what gets reported
	Normalized []float64
}

// Analyzer computes radial profiles for one image set at a time. It keeps
// no state between calls, so one Analyzer may serve concurrent callers.
type Analyzer struct {
	params Params
}

// NewAnalyzer creates an analyzer for the given binning parameters
func NewAnalyzer(params Params) *Analyzer {
	return &Analyzer{params: params}
}

// Run profiles every channel of an image set. field is the distance field
// in pixels; landmark and exclusions are the mask rasters.
func (a *Analyzer) Run(field *models.FloatGrid, landmark, exclusions *models.BoolGrid, channels []Channel) ([]Profile, error) {
	if err := a.params.Validate(); err != nil {
		return nil, err
	}

	tissue, err := TissueMask(landmark, exclusions)
	if err != nil {
		return nil, err
	}

	dist, err := Distances(field, tissue, a.params.ConversionFactor)
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(channels))
	for _, ch := range channels {
		values, err := Intensities(ch.Intensity, tissue)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch.Name, err)
		}

		fine, err := a.params.BinMeans(dist, values)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch.Name, err)
		}

		coarse, err := Coarsen(fine, a.params.Factor())
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch.Name, err)
		}

		normalized, err := Normalize(coarse, ch.Offset)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch.Name, err)
		}

		profiles = append(profiles, Profile{
			Channel:    ch.Name,
			Fine:       fine,
			Coarse:     coarse,
			Normalized: normalized,
		})
	}

	return profiles, nil
}
