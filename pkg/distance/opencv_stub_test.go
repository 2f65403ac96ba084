//go:build !opencv

package distance

import (
	"errors"
	"testing"

	"implantprofile/internal/models"
)

func TestComputeOpenCVUnavailable(t *testing.T) {
	landmark := models.NewBoolGrid(3, 3)
	landmark.Set(1, 1, true)
	if _, err := Compute(MethodOpenCV, landmark); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable, got %v", err)
	}
}
