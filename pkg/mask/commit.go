package mask

import (
	"fmt"
	"path/filepath"
)

// Files lists what Commit wrote for one image set
type Files struct {
	Mask    string
	Outline string
	Preview string
}

// Commit rasterizes the outline onto an nx by ny grid and writes the mask
// container and the outline record into dir, named after imageID. A preview
// PNG is rendered by the preview func when it is non-nil. Outlines without
// a hole are refused with ErrNoHole and nothing is written.
func Commit(dir, imageID string, o *Outline, nx, ny int, preview func(path string, m *Mask) error) (*Files, error) {
	if len(o.Hole) == 0 {
		return nil, ErrNoHole
	}

	m, err := o.Mask(nx, ny)
	if err != nil {
		return nil, err
	}
	if m.Landmark.Count() == 0 {
		return nil, fmt.Errorf("%w: hole covers no pixel", ErrNoHole)
	}

	files := &Files{
		Mask:    filepath.Join(dir, imageID+MaskSuffix),
		Outline: filepath.Join(dir, imageID+OutlineSuffix),
	}
	if err := Save(files.Mask, m); err != nil {
		return nil, err
	}
	if err := SaveOutline(o, files.Outline); err != nil {
		return nil, err
	}

	if preview != nil {
		files.Preview = filepath.Join(dir, imageID+PreviewSuffix)
		if err := preview(files.Preview, m); err != nil {
			return nil, fmt.Errorf("failed to write preview: %w", err)
		}
	}
	return files, nil
}
