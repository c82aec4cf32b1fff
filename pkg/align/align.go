// Package align estimates translational shifts between the frames of a
// stack by phase correlation and applies the resulting corrections. It
// complements peak characterization: registering a drifting series before
// detection keeps target matching radii small.
package align

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"

	"peakstack/internal/models"
	"peakstack/pkg/peakfind"
)

// Reference selects how stack shifts are estimated.
type Reference int

const (
	// Current registers every frame against the first frame.
	Current Reference = iota

	// Cascade registers every frame against its predecessor and
	// accumulates the shifts.
	Cascade
)

// Options controls the correlation preprocessing.
type Options struct {
	// Hanning applies a 2-D Hanning window to suppress wrap-around edges.
	Hanning bool

	// MedfiltRadius smooths both frames with a median filter of this
	// radius before correlation; 0 disables it.
	MedfiltRadius int

	// Sobel replaces both frames with their gradient magnitude, so
	// registration locks onto edges rather than intensity.
	Sobel bool

	// Normalize uses phase correlation (unit-magnitude cross spectrum)
	// instead of plain cross correlation.
	Normalize bool
}

// EstimateShift estimates the integer translation that registers img onto
// ref, via the maximum of their FFT cross correlation. The returned
// (dx, dy) is the correction: applying it to img aligns it with ref.
// Also returns the correlation maximum as a match confidence.
func EstimateShift(ref, img *models.Frame, opts Options) (dx, dy float64, maxVal float64, err error) {
	if ref.W != img.W || ref.H != img.H {
		return 0, 0, 0, errors.Errorf("frame sizes differ: %dx%d vs %dx%d", ref.W, ref.H, img.W, img.H)
	}
	w, h := ref.W, ref.H

	a := preprocess(ref, opts)
	b := preprocess(img, opts)

	fa := fft2D(a.Pix, w, h)
	fb := fft2D(b.Pix, w, h)
	cross := make([]complex128, len(fa))
	for i := range cross {
		p := fa[i] * cmplx.Conj(fb[i])
		if opts.Normalize {
			if m := cmplx.Abs(p); m > 0 {
				p /= complex(m, 0)
			}
		}
		cross[i] = p
	}
	corr := ifft2DReal(cross, w, h)

	argmax := 0
	maxVal = corr[0]
	for i, v := range corr {
		if v > maxVal {
			maxVal = v
			argmax = i
		}
	}
	ax := argmax % w
	ay := argmax / w

	// Correlation peaks wrap circularly; fold the upper half back to
	// negative shifts.
	dx = float64(ax)
	if ax > w/2 {
		dx = float64(ax - w)
	}
	dy = float64(ay)
	if ay > h/2 {
		dy = float64(ay - h)
	}
	return dx, dy, maxVal, nil
}

// EstimateStackShifts estimates one correction shift per stack member.
// Rank must be 2 to 4; single-frame stacks get a zero shift.
func EstimateStackShifts(stack *models.Stack, reference Reference, opts Options) ([][2]float64, error) {
	rank := stack.Rank()
	if rank < 2 || rank > 4 {
		return nil, errors.Wrapf(peakfind.ErrUnsupportedRank, "got rank %d", rank)
	}
	n := stack.FrameCount()
	shifts := make([][2]float64, n)
	if n == 1 {
		return shifts, nil
	}

	switch reference {
	case Cascade:
		var accX, accY float64
		for i := 1; i < n; i++ {
			dx, dy, _, err := EstimateShift(stack.Frame(i-1), stack.Frame(i), opts)
			if err != nil {
				return nil, errors.Wrapf(err, "registering frame %d", i)
			}
			accX += dx
			accY += dy
			shifts[i] = [2]float64{accX, accY}
		}
	default:
		ref := stack.Frame(0)
		for i := 1; i < n; i++ {
			dx, dy, _, err := EstimateShift(ref, stack.Frame(i), opts)
			if err != nil {
				return nil, errors.Wrapf(err, "registering frame %d", i)
			}
			shifts[i] = [2]float64{dx, dy}
		}
	}
	return shifts, nil
}

// Apply translates every frame by its shift (rounded to whole pixels) and
// returns a new stack. Vacated pixels are set to fill.
func Apply(stack *models.Stack, shifts [][2]float64, fill float64) (*models.Stack, error) {
	if len(shifts) != stack.FrameCount() {
		return nil, errors.Errorf("got %d shifts for %d frames", len(shifts), stack.FrameCount())
	}
	frames := make([]*models.Frame, stack.FrameCount())
	for i := 0; i < stack.FrameCount(); i++ {
		frames[i] = translate(stack.Frame(i), shifts[i][0], shifts[i][1], fill)
	}
	return models.NewStack(frames, stack.NavShape())
}

// translate shifts a frame by whole pixels, filling vacated samples.
func translate(f *models.Frame, dx, dy, fill float64) *models.Frame {
	ix := int(math.Round(dx))
	iy := int(math.Round(dy))
	out := models.NewFrame(f.W, f.H)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			sx, sy := x-ix, y-iy
			if sx < 0 || sx >= f.W || sy < 0 || sy >= f.H {
				out.Pix[y*f.W+x] = fill
			} else {
				out.Pix[y*f.W+x] = f.Pix[sy*f.W+sx]
			}
		}
	}
	return out
}

// preprocess applies the configured filters to a copy of the frame.
func preprocess(f *models.Frame, opts Options) *models.Frame {
	out := f
	if opts.MedfiltRadius > 0 {
		out = peakfind.MedianFilter(out, opts.MedfiltRadius)
	} else {
		out = out.Clone()
	}
	if opts.Sobel {
		out = sobel(out)
	}
	if opts.Hanning {
		applyHanning(out)
	}
	return out
}

// sobel returns the gradient magnitude of the frame.
func sobel(f *models.Frame) *models.Frame {
	out := models.NewFrame(f.W, f.H)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			gx := f.At(x+1, y-1) + 2*f.At(x+1, y) + f.At(x+1, y+1) -
				f.At(x-1, y-1) - 2*f.At(x-1, y) - f.At(x-1, y+1)
			gy := f.At(x-1, y+1) + 2*f.At(x, y+1) + f.At(x+1, y+1) -
				f.At(x-1, y-1) - 2*f.At(x, y-1) - f.At(x+1, y-1)
			out.Pix[y*f.W+x] = math.Hypot(gx, gy)
		}
	}
	return out
}

// applyHanning multiplies the frame in place by a separable Hanning window.
func applyHanning(f *models.Frame) {
	wx := hanning(f.W)
	wy := hanning(f.H)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			f.Pix[y*f.W+x] *= wx[x] * wy[y]
		}
	}
}

func hanning(n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = 1
		return out
	}
	for i := range out {
		out[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return out
}
