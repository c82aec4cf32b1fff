// Package peakfind locates positive intensity peaks in 2-D frames and in
// 3-D/4-D stacks of frames. Detection is a strict local-maximum search over
// a square window, optionally preceded by median-filter smoothing and
// optionally refined to subpixel precision by a center-of-mass step.
package peakfind

import (
	"math"
	"sort"

	"peakstack/internal/models"
)

// DefaultMaxPeaks is the preallocation bound for stack-wide detection
// buffers: the maximum number of peak slots reserved per frame.
const DefaultMaxPeaks = 30000

// Options controls a peak detection pass.
type Options struct {
	// PeakWidth is the expected peak width in pixels. It bounds both the
	// coarse maximum search window and the center-of-mass refinement box.
	// Too big and neighboring peaks bleed into each other's windows.
	PeakWidth int

	// Subpixel refines each coarse integer maximum with the center of
	// gravity of a PeakWidth-sided box around it.
	Subpixel bool

	// MedfiltRadius smooths the frame with a median filter of this radius
	// before detection. 0 disables smoothing.
	MedfiltRadius int

	// Threshold is the minimum sample value for a coarse maximum to count
	// as a peak. Leave at 0 for frames with a zero background.
	Threshold float64
}

// Peak is a single detected peak position, in the frame's own pixel
// coordinates. X runs along columns, Y along rows.
type Peak struct {
	X, Y float64
}

// Find locates the positive peaks in a single 2-D frame.
//
// A pixel is a coarse peak when it exceeds Threshold and is strictly
// greater than every other pixel inside the PeakWidth-sided window centered
// on it; flat regions therefore produce no peaks. With Subpixel enabled the
// coarse position is replaced by the intensity center of mass of the same
// window.
func Find(frame *models.Frame, opts Options) []Peak {
	width := opts.PeakWidth
	if width < 3 {
		width = 3
	}
	if opts.MedfiltRadius > 0 {
		frame = MedianFilter(frame, opts.MedfiltRadius)
	}

	half := width / 2
	var peaks []Peak
	for y := 0; y < frame.H; y++ {
		for x := 0; x < frame.W; x++ {
			v := frame.Pix[y*frame.W+x]
			if v <= opts.Threshold {
				continue
			}
			if !isWindowMax(frame, x, y, half, v) {
				continue
			}
			px, py := float64(x), float64(y)
			if opts.Subpixel {
				px, py = centerOfMass(frame, x, y, half)
			}
			peaks = append(peaks, Peak{X: px, Y: py})
		}
	}
	return peaks
}

// isWindowMax reports whether v at (x, y) is strictly greater than every
// other sample in the (2*half+1)-sided window around it.
func isWindowMax(frame *models.Frame, x, y, half int, v float64) bool {
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= frame.W || ny < 0 || ny >= frame.H {
				continue
			}
			if frame.Pix[ny*frame.W+nx] >= v {
				return false
			}
		}
	}
	return true
}

// centerOfMass returns the intensity centroid of the window around (x, y).
// Samples are offset by the window minimum so a constant background does
// not drag the centroid toward the window center.
func centerOfMass(frame *models.Frame, x, y, half int) (float64, float64) {
	x0, x1 := clamp(x-half, 0, frame.W-1), clamp(x+half, 0, frame.W-1)
	y0, y1 := clamp(y-half, 0, frame.H-1), clamp(y+half, 0, frame.H-1)

	floor := math.Inf(1)
	for wy := y0; wy <= y1; wy++ {
		for wx := x0; wx <= x1; wx++ {
			if v := frame.Pix[wy*frame.W+wx]; v < floor {
				floor = v
			}
		}
	}

	var m00, mx, my float64
	for wy := y0; wy <= y1; wy++ {
		for wx := x0; wx <= x1; wx++ {
			w := frame.Pix[wy*frame.W+wx] - floor
			m00 += w
			mx += w * float64(wx)
			my += w * float64(wy)
		}
	}
	if m00 == 0 {
		return float64(x), float64(y)
	}
	return mx / m00, my / m00
}

// MedianFilter returns a copy of the frame smoothed with a square median
// filter of the given radius (window side 2*radius+1). Window samples
// falling outside the frame are dropped rather than padded.
func MedianFilter(frame *models.Frame, radius int) *models.Frame {
	if radius <= 0 {
		return frame
	}
	out := models.NewFrame(frame.W, frame.H)
	window := make([]float64, 0, (2*radius+1)*(2*radius+1))
	for y := 0; y < frame.H; y++ {
		for x := 0; x < frame.W; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= frame.W || ny < 0 || ny >= frame.H {
						continue
					}
					window = append(window, frame.Pix[ny*frame.W+nx])
				}
			}
			out.Pix[y*frame.W+x] = median(window)
		}
	}
	return out
}

// median computes the median of values in place (values gets reordered).
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sort.Float64s(values)
	if n%2 == 0 {
		return (values[n/2-1] + values[n/2]) / 2
	}
	return values[n/2]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
