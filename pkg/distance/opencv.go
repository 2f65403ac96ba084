//go:build opencv

package distance

import (
	"gocv.io/x/gocv"

	"implantprofile/internal/models"
)

// FieldOpenCV computes the field with OpenCV's precise L2 distance
// transform. Results are single precision.
func FieldOpenCV(landmark *models.BoolGrid) (*models.FloatGrid, error) {
	if landmark.Count() == 0 {
		return nil, ErrEmptyLandmark
	}

	w, h := landmark.Width, landmark.Height

	// OpenCV measures the distance to the nearest zero pixel
	src := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	defer src.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if landmark.At(x, y) {
				src.SetUCharAt(y, x, 0)
			} else {
				src.SetUCharAt(y, x, 255)
			}
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()
	labels := gocv.NewMat()
	defer labels.Close()

	gocv.DistanceTransform(src, &dst, &labels, gocv.DistL2, gocv.DistanceMaskPrecise, gocv.DistanceLabelCComp)

	field := models.NewFloatGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			field.Set(x, y, float64(dst.GetFloatAt(y, x)))
		}
	}
	return field, nil
}
