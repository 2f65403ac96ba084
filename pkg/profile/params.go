// Package profile turns a distance field and channel intensities into
// radial intensity profiles: fine-grained binned means, coarse bins built
// by summation, and a per-channel normalization against the farthest bin.
//
// A profile whose farthest coarse bin is zero, or empty because no tissue
// pixel reaches the upper limit, cannot be normalized: Normalize returns
// ErrNormalizationDegenerate and the batch drops that image set from the
// report rather than emitting a row of blanks.
package profile

import (
	"errors"
	"fmt"
)

// MaxBinWidth is the largest accepted coarse bin width in microns
const MaxBinWidth = 700

var (
	// ErrParameterMismatch reports an inconsistent parameter set. It is
	// raised before any image is processed.
	ErrParameterMismatch = errors.New("parameter mismatch")

	// ErrDimensionMismatch reports a raster whose size differs from the mask
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNormalizationDegenerate reports a profile whose farthest coarse bin
	// is zero or empty, so it cannot serve as the reference value.
	ErrNormalizationDegenerate = errors.New("normalization degenerate")
)

// Params holds the binning parameters of one analysis run
type Params struct {
	// ConversionFactor is the pixel size in microns
	ConversionFactor float64

	// UpperLimit is the largest modelled distance in microns
	UpperLimit int

	// StepSize is the fine bin width in microns
	StepSize int

	// BinWidth is the coarse bin width in microns; a multiple of StepSize
	BinWidth int
}

// Validate checks the parameters for consistency
func (p Params) Validate() error {
	switch {
	case !(p.ConversionFactor > 0):
		return fmt.Errorf("%w: conversion factor must be positive, got %g", ErrParameterMismatch, p.ConversionFactor)
	case p.StepSize <= 0:
		return fmt.Errorf("%w: step size must be positive, got %d", ErrParameterMismatch, p.StepSize)
	case p.UpperLimit <= 0:
		return fmt.Errorf("%w: upper limit must be positive, got %d", ErrParameterMismatch, p.UpperLimit)
	case p.BinWidth <= 0 || p.BinWidth > MaxBinWidth:
		return fmt.Errorf("%w: bin width must be within 1..%d, got %d", ErrParameterMismatch, MaxBinWidth, p.BinWidth)
	case p.BinWidth%p.StepSize != 0:
		return fmt.Errorf("%w: bin width %d is not a multiple of step size %d", ErrParameterMismatch, p.BinWidth, p.StepSize)
	case p.UpperLimit%p.BinWidth != 0:
		return fmt.Errorf("%w: upper limit %d is not a multiple of bin width %d", ErrParameterMismatch, p.UpperLimit, p.BinWidth)
	}
	return nil
}

// FineBins returns the number of fine bins
func (p Params) FineBins() int { return p.UpperLimit / p.StepSize }

// CoarseBins returns the number of coarse bins
func (p Params) CoarseBins() int { return p.UpperLimit / p.BinWidth }

// Factor returns how many fine bins make up one coarse bin
func (p Params) Factor() int { return p.BinWidth / p.StepSize }

// Edges returns the upper edge of every fine bin in microns
func (p Params) Edges() []float64 {
	edges := make([]float64, p.FineBins())
	for i := range edges {
		edges[i] = float64((i + 1) * p.StepSize)
	}
	return edges
}

// Labels names the coarse bins "{lo}-{hi}" in microns
func (p Params) Labels() []string {
	labels := make([]string, p.CoarseBins())
	for i := range labels {
		lo := i * p.BinWidth
		labels[i] = fmt.Sprintf("%d-%d", lo, lo+p.BinWidth)
	}
	return labels
}
