// Package batch runs the radial intensity analysis over a directory tree
// of image sets and assembles the per-channel report.
//
// Every image set is processed independently. A failure in one set (a
// missing channel image, a broken mask file, an empty hole, a profile that
// cannot be normalized) drops that set and the batch carries on; only bad
// parameters or an empty tree stop a run.
package batch

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"implantprofile/pkg/distance"
	"implantprofile/pkg/mask"
	"implantprofile/pkg/profile"
	"implantprofile/pkg/report"
)

var (
	// ErrNoCandidatesFound stops a run that found no usable image set
	ErrNoCandidatesFound = errors.New("no images/masks found")

	// ErrChannelFileMissing drops an image set lacking a readable channel image
	ErrChannelFileMissing = errors.New("channel file missing")

	// ErrZeroLandmark drops an image set whose mask has an empty hole
	ErrZeroLandmark = errors.New("mask has no hole region")

	// ErrUnreadablePath records a subtree skipped during discovery
	ErrUnreadablePath = errors.New("path cannot be read")
)

// ProgressCallback is called after each image set completes, successfully
// or not. It is observational only.
type ProgressCallback func(completed, total int, imageID string)

// Params holds the batch run parameters
type Params struct {
	// Root is the directory searched for mask files
	Root string

	// Channels are the identifiers matched against image file names
	Channels []string

	// Offsets holds one normalization offset per channel
	Offsets []int

	// Profile holds the binning parameters
	Profile profile.Params

	// Extensions are the accepted channel image extensions
	Extensions []string

	// Workers bounds how many image sets are processed at once
	Workers int

	// DistanceMethod selects the distance backend, see package distance
	DistanceMethod string

	// Plots writes an intensity plot next to every processed mask
	Plots bool

	// OutputDir receives the report; empty means Root
	OutputDir string

	// Progress is optional
	Progress ProgressCallback

	// Logger is optional; nil disables logging
	Logger *zerolog.Logger

	// Now stamps the report file name; nil means time.Now
	Now func() time.Time
}

// ImageResult holds the profiles of one processed image set, one per
// channel in channel order
type ImageResult struct {
	ImageID  string
	MaskPath string
	Profiles []profile.Profile
}

// Drop records an image set excluded from the report and why
type Drop struct {
	ImageID  string
	MaskPath string
	Reason   error
}

// Kind classifies the drop reason
func (d Drop) Kind() string {
	switch {
	case errors.Is(d.Reason, ErrUnreadablePath):
		return "unreadable"
	case errors.Is(d.Reason, ErrChannelFileMissing):
		return "channel_missing"
	case errors.Is(d.Reason, mask.ErrCorruptMask):
		return "corrupt_mask"
	case errors.Is(d.Reason, ErrZeroLandmark), errors.Is(d.Reason, distance.ErrEmptyLandmark):
		return "zero_landmark"
	case errors.Is(d.Reason, profile.ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(d.Reason, profile.ErrNormalizationDegenerate):
		return "normalization_degenerate"
	default:
		return "error"
	}
}

// Result is the outcome of a batch run
type Result struct {
	// RunID identifies the run in logs
	RunID string

	// Images are the processed image sets sorted by id
	Images []ImageResult

	// Drops are the excluded image sets sorted by id
	Drops []Drop

	// Tables are the per-channel report tables
	Tables []report.Table

	// ReportPath is where the spreadsheet was written
	ReportPath string
}

// DroppedIDs lists the ids of every excluded image set
func (r *Result) DroppedIDs() []string {
	ids := make([]string, len(r.Drops))
	for i, d := range r.Drops {
		ids[i] = d.ImageID
	}
	return ids
}
