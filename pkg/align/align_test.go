package align

import (
	"errors"
	"math"
	"testing"

	"peakstack/internal/models"
	"peakstack/pkg/peakfind"
)

// blobFrame puts a Gaussian spot at (cx, cy) in a w-by-h frame.
func blobFrame(w, h int, cx, cy float64) *models.Frame {
	f := models.NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			f.Pix[y*w+x] = math.Exp(-(dx*dx + dy*dy) / 4.5)
		}
	}
	return f
}

func mustStack(t *testing.T, frames []*models.Frame, navShape []int) *models.Stack {
	t.Helper()
	stack, err := models.NewStack(frames, navShape)
	if err != nil {
		t.Fatalf("failed to build stack: %v", err)
	}
	return stack
}

func TestEstimateShift(t *testing.T) {
	ref := blobFrame(16, 16, 8, 8)
	img := blobFrame(16, 16, 10, 9)

	dx, dy, _, err := EstimateShift(ref, img, Options{})
	if err != nil {
		t.Fatalf("EstimateShift failed: %v", err)
	}
	if dx != -2 || dy != -1 {
		t.Errorf("correction = (%g, %g), want (-2, -1)", dx, dy)
	}
}

func TestEstimateShiftNormalized(t *testing.T) {
	ref := blobFrame(16, 16, 8, 8)

	// Circular shift keeps the translation exact, wrap-around included.
	img := models.NewFrame(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Pix[y*16+x] = ref.Pix[((y-1+16)%16)*16+(x-2+16)%16]
		}
	}

	dx, dy, _, err := EstimateShift(ref, img, Options{Normalize: true})
	if err != nil {
		t.Fatalf("EstimateShift failed: %v", err)
	}
	if dx != -2 || dy != -1 {
		t.Errorf("correction = (%g, %g), want (-2, -1)", dx, dy)
	}
}

func TestEstimateShiftSizeMismatch(t *testing.T) {
	_, _, _, err := EstimateShift(models.NewFrame(8, 8), models.NewFrame(8, 9), Options{})
	if err == nil {
		t.Fatal("expected error for mismatched frame sizes")
	}
}

func TestEstimateStackShifts(t *testing.T) {
	t.Run("Current", func(t *testing.T) {
		stack := mustStack(t, []*models.Frame{
			blobFrame(16, 16, 8, 8),
			blobFrame(16, 16, 9, 8),
			blobFrame(16, 16, 10, 8),
		}, nil)
		shifts, err := EstimateStackShifts(stack, Current, Options{})
		if err != nil {
			t.Fatalf("EstimateStackShifts failed: %v", err)
		}
		want := [][2]float64{{0, 0}, {-1, 0}, {-2, 0}}
		for i := range want {
			if shifts[i] != want[i] {
				t.Errorf("shift %d = %v, want %v", i, shifts[i], want[i])
			}
		}
	})

	t.Run("Cascade", func(t *testing.T) {
		stack := mustStack(t, []*models.Frame{
			blobFrame(16, 16, 8, 8),
			blobFrame(16, 16, 9, 8),
			blobFrame(16, 16, 10, 8),
		}, nil)
		shifts, err := EstimateStackShifts(stack, Cascade, Options{})
		if err != nil {
			t.Fatalf("EstimateStackShifts failed: %v", err)
		}
		if shifts[2] != [2]float64{-2, 0} {
			t.Errorf("accumulated shift = %v, want [-2 0]", shifts[2])
		}
	})

	t.Run("UnsupportedRank", func(t *testing.T) {
		frames := make([]*models.Frame, 8)
		for i := range frames {
			frames[i] = models.NewFrame(4, 4)
		}
		stack := mustStack(t, frames, []int{2, 2, 2})
		_, err := EstimateStackShifts(stack, Current, Options{})
		if !errors.Is(err, peakfind.ErrUnsupportedRank) {
			t.Errorf("got %v, want ErrUnsupportedRank", err)
		}
	})
}

func TestApply(t *testing.T) {
	ref := blobFrame(16, 16, 8, 8)
	img := blobFrame(16, 16, 10, 9)
	stack := mustStack(t, []*models.Frame{img}, nil)

	aligned, err := Apply(stack, [][2]float64{{-2, -1}}, 0.5)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	out := aligned.Frame(0)

	// Where the source stays in bounds the corrected frame matches the
	// reference exactly.
	for y := 0; y < 15; y++ {
		for x := 0; x < 14; x++ {
			if got, want := out.At(x, y), ref.At(x, y); math.Abs(got-want) > 1e-12 {
				t.Fatalf("corrected frame differs at (%d, %d): %g vs %g", x, y, got, want)
			}
		}
	}
	// Vacated samples carry the fill value.
	if got := out.At(15, 0); got != 0.5 {
		t.Errorf("vacated sample = %g, want fill 0.5", got)
	}

	if _, err := Apply(stack, nil, 0); err == nil {
		t.Error("expected error for shift count mismatch")
	}
}

func TestHanning(t *testing.T) {
	w := hanning(5)
	if w[0] != 0 || w[4] != 0 {
		t.Errorf("window endpoints = %g, %g, want 0, 0", w[0], w[4])
	}
	if math.Abs(w[2]-1) > 1e-12 {
		t.Errorf("window center = %g, want 1", w[2])
	}
	if single := hanning(1); single[0] != 1 {
		t.Errorf("length-1 window = %g, want 1", single[0])
	}
}
