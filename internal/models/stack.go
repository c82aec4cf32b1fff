package models

import (
	"github.com/pkg/errors"
)

// Stack is an ordered sequence of same-shape frames. The navigation shape
// describes how the frames are arranged beyond the two signal dimensions:
// an empty shape with a single frame is a plain 2-D image (rank 2), a shape
// of [N] is a 3-D stack (rank 3) and [N, M] is a 4-D array of images
// (rank 4). Frames are stored row-major over the navigation indices.
type Stack struct {
	frames   []*Frame
	navShape []int
}

// NewStack builds a stack from frames that all share the same dimensions.
// If navShape is empty it is inferred: one frame gives a rank-2 stack,
// several frames a rank-3 stack. The product of navShape must equal the
// number of frames.
func NewStack(frames []*Frame, navShape []int) (*Stack, error) {
	if len(frames) == 0 {
		return nil, errors.New("stack requires at least one frame")
	}
	w, h := frames[0].W, frames[0].H
	for i, f := range frames {
		if f.W != w || f.H != h {
			return nil, errors.Errorf("frame %d is %dx%d, want %dx%d", i, f.W, f.H, w, h)
		}
	}
	if len(navShape) == 0 {
		if len(frames) > 1 {
			navShape = []int{len(frames)}
		}
	} else {
		n := 1
		for _, d := range navShape {
			if d <= 0 {
				return nil, errors.Errorf("navigation dimension must be positive, got %d", d)
			}
			n *= d
		}
		if n != len(frames) {
			return nil, errors.Errorf("navigation shape holds %d frames, got %d", n, len(frames))
		}
	}
	shape := make([]int, len(navShape))
	copy(shape, navShape)
	return &Stack{frames: frames, navShape: shape}, nil
}

// Rank returns the logical dimensionality of the stack: 2 for a single
// frame, 3 for a linear stack, 4 for a 2-D arrangement of frames.
func (s *Stack) Rank() int {
	return 2 + len(s.navShape)
}

// NavShape returns a copy of the navigation shape.
func (s *Stack) NavShape() []int {
	out := make([]int, len(s.navShape))
	copy(out, s.navShape)
	return out
}

// FrameCount returns the number of frames in the stack.
func (s *Stack) FrameCount() int {
	return len(s.frames)
}

// Frame returns the i-th frame in navigation order.
func (s *Stack) Frame(i int) *Frame {
	return s.frames[i]
}

// FrameSize returns the shared frame dimensions.
func (s *Stack) FrameSize() (w, h int) {
	return s.frames[0].W, s.frames[0].H
}

// AverageFrame computes the elementwise mean over every frame in the stack.
func (s *Stack) AverageFrame() *Frame {
	w, h := s.FrameSize()
	avg := NewFrame(w, h)
	for _, f := range s.frames {
		for i, v := range f.Pix {
			avg.Pix[i] += v
		}
	}
	n := float64(len(s.frames))
	for i := range avg.Pix {
		avg.Pix[i] /= n
	}
	return avg
}
