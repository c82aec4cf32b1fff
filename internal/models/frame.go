// Package models holds the core data containers shared by the peak
// characterization pipeline: single 2-D frames and ordered stacks of frames.
package models

// Frame is a single 2-D image held as float64 samples in row-major order.
type Frame struct {
	// W and H are the frame dimensions in pixels
	W, H int

	// Pix holds the samples, Pix[y*W+x]
	Pix []float64
}

// NewFrame allocates a zero-filled frame of the given dimensions.
func NewFrame(w, h int) *Frame {
	return &Frame{
		W:   w,
		H:   h,
		Pix: make([]float64, w*h),
	}
}

// At returns the sample at (x, y). Coordinates outside the frame return 0.
func (f *Frame) At(x, y int) float64 {
	if x < 0 || x >= f.W || y < 0 || y >= f.H {
		return 0
	}
	return f.Pix[y*f.W+x]
}

// Set writes the sample at (x, y). Coordinates outside the frame are ignored.
func (f *Frame) Set(x, y int, v float64) {
	if x < 0 || x >= f.W || y < 0 || y >= f.H {
		return
	}
	f.Pix[y*f.W+x] = v
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := NewFrame(f.W, f.H)
	copy(out.Pix, f.Pix)
	return out
}

// Flatten returns a copy of the samples as a feature vector.
func (f *Frame) Flatten() []float64 {
	out := make([]float64, len(f.Pix))
	copy(out, f.Pix)
	return out
}
