//go:build !opencv

package distance

import "implantprofile/internal/models"

// FieldOpenCV is only available when built with the opencv tag
func FieldOpenCV(landmark *models.BoolGrid) (*models.FloatGrid, error) {
	return nil, ErrBackendUnavailable
}
