package distance

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"implantprofile/internal/models"
)

// bruteForce computes the field by checking every landmark pixel
func bruteForce(landmark *models.BoolGrid) *models.FloatGrid {
	field := models.NewFloatGrid(landmark.Width, landmark.Height)
	for y := 0; y < landmark.Height; y++ {
		for x := 0; x < landmark.Width; x++ {
			best := math.Inf(1)
			for ly := 0; ly < landmark.Height; ly++ {
				for lx := 0; lx < landmark.Width; lx++ {
					if landmark.At(lx, ly) {
						best = math.Min(best, math.Hypot(float64(x-lx), float64(y-ly)))
					}
				}
			}
			field.Set(x, y, best)
		}
	}
	return field
}

func assertFieldsEqual(t *testing.T, got, want *models.FloatGrid, tol float64) {
	t.Helper()
	if got.Width != want.Width || got.Height != want.Height {
		t.Fatalf("Field size %dx%d, want %dx%d", got.Width, got.Height, want.Width, want.Height)
	}
	for i := range want.Data {
		if math.Abs(got.Data[i]-want.Data[i]) > tol {
			t.Fatalf("Pixel (%d,%d): got %f, want %f",
				i%want.Width, i/want.Width, got.Data[i], want.Data[i])
		}
	}
}

var backends = map[string]func(*models.BoolGrid) (*models.FloatGrid, error){
	MethodEDT:    Field,
	MethodKDTree: TreeField,
}

func TestFieldAllLandmark(t *testing.T) {
	landmark := models.NewBoolGrid(9, 4)
	for i := range landmark.Data {
		landmark.Data[i] = true
	}

	for name, fn := range backends {
		t.Run(name, func(t *testing.T) {
			field, err := fn(landmark)
			if err != nil {
				t.Fatalf("%s failed: %v", name, err)
			}
			for i, d := range field.Data {
				if d != 0 {
					t.Fatalf("Expected zero distance at index %d, got %f", i, d)
				}
			}
		})
	}
}

func TestFieldCornerPixel(t *testing.T) {
	w, h := 37, 23
	landmark := models.NewBoolGrid(w, h)
	landmark.Set(0, 0, true)
	want := math.Hypot(float64(w-1), float64(h-1))

	for name, fn := range backends {
		t.Run(name, func(t *testing.T) {
			field, err := fn(landmark)
			if err != nil {
				t.Fatalf("%s failed: %v", name, err)
			}
			if got := field.At(w-1, h-1); math.Abs(got-want) > 1e-9 {
				t.Errorf("Opposite corner distance %f, want %f", got, want)
			}
			if field.At(0, 0) != 0 {
				t.Errorf("Landmark pixel distance %f, want 0", field.At(0, 0))
			}
			if got := field.At(3, 4); math.Abs(got-5) > 1e-9 {
				t.Errorf("Distance at (3,4) = %f, want 5", got)
			}
		})
	}
}

func TestFieldMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	sizes := [][2]int{{1, 1}, {1, 17}, {19, 1}, {31, 13}, {24, 40}}
	for _, size := range sizes {
		w, h := size[0], size[1]
		landmark := models.NewBoolGrid(w, h)
		for i := range landmark.Data {
			landmark.Data[i] = rng.Float64() < 0.03
		}
		landmark.Set(rng.Intn(w), rng.Intn(h), true)

		want := bruteForce(landmark)
		for name, fn := range backends {
			field, err := fn(landmark)
			if err != nil {
				t.Fatalf("%s failed on %dx%d: %v", name, w, h, err)
			}
			assertFieldsEqual(t, field, want, 1e-9)
		}
	}
}

func TestFieldBlobLandmark(t *testing.T) {
	landmark := models.NewBoolGrid(50, 30)
	for y := 10; y < 18; y++ {
		for x := 20; x < 33; x++ {
			landmark.Set(x, y, true)
		}
	}
	want := bruteForce(landmark)

	for name, fn := range backends {
		t.Run(name, func(t *testing.T) {
			field, err := fn(landmark)
			if err != nil {
				t.Fatalf("%s failed: %v", name, err)
			}
			assertFieldsEqual(t, field, want, 1e-9)
		})
	}
}

func TestFieldEmptyLandmark(t *testing.T) {
	landmark := models.NewBoolGrid(5, 5)
	for name, fn := range backends {
		if _, err := fn(landmark); !errors.Is(err, ErrEmptyLandmark) {
			t.Errorf("%s: expected ErrEmptyLandmark, got %v", name, err)
		}
	}
}

func TestCompute(t *testing.T) {
	landmark := models.NewBoolGrid(6, 6)
	landmark.Set(2, 3, true)

	for _, method := range []string{"", MethodEDT, MethodKDTree} {
		field, err := Compute(method, landmark)
		if err != nil {
			t.Fatalf("Compute(%q) failed: %v", method, err)
		}
		if got := field.At(5, 3); got != 3 {
			t.Errorf("Compute(%q): distance %f, want 3", method, got)
		}
	}

	if _, err := Compute("manhattan", landmark); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("Expected ErrUnknownMethod, got %v", err)
	}
}

func TestBoundary(t *testing.T) {
	landmark := models.NewBoolGrid(7, 7)
	for y := 1; y < 6; y++ {
		for x := 1; x < 6; x++ {
			landmark.Set(x, y, true)
		}
	}
	// 5x5 block has 16 boundary pixels and 9 interior ones
	if n := len(Boundary(landmark)); n != 16 {
		t.Errorf("Expected 16 boundary pixels, got %d", n)
	}
}
