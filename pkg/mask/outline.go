package mask

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"implantprofile/internal/models"
)

// ErrNoHole is returned when an outline is turned into a mask file without
// an implant hole.
var ErrNoHole = errors.New("implant hole is not defined")

// Exclusion is a labelled exclusion polygon as drawn by the user
type Exclusion struct {
	Label  string         `yaml:"label"`
	Points models.Polygon `yaml:"points"`
}

// Outline is the editable record of drawn polygons for one image set. The
// drawing tool restores its state from it; analysis never reads it.
type Outline struct {
	Hole       models.Polygon `yaml:"hole,omitempty"`
	Exclusions []Exclusion    `yaml:"exclusions"`
}

// AddExclusion appends a polygon labelled "Exclusion N"
func (o *Outline) AddExclusion(points models.Polygon) {
	o.Exclusions = append(o.Exclusions, Exclusion{
		Label:  fmt.Sprintf("Exclusion %d", len(o.Exclusions)+1),
		Points: points,
	})
}

// SetHole replaces the hole polygon
func (o *Outline) SetHole(points models.Polygon) {
	o.Hole = points
}

// Clear drops every drawn polygon
func (o *Outline) Clear() {
	o.Hole = nil
	o.Exclusions = nil
}

// Mask rasterizes the outline onto an nx by ny grid
func (o *Outline) Mask(nx, ny int) (*Mask, error) {
	polys := make([]models.Polygon, 0, len(o.Exclusions))
	for _, e := range o.Exclusions {
		polys = append(polys, e.Points)
	}
	return Build(o.Hole, polys, nx, ny)
}

// LoadOutline reads an outline record from a YAML file
func LoadOutline(path string) (*Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading outline file: %w", err)
	}

	var o Outline
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("error parsing outline file: %w", err)
	}
	return &o, nil
}

// SaveOutline writes an outline record as YAML
func SaveOutline(o *Outline, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating outline directory: %w", err)
	}

	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("error marshaling outline: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing outline file: %w", err)
	}
	return nil
}
