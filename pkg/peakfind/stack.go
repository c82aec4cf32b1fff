package peakfind

import (
	"sync"

	"github.com/pkg/errors"

	"peakstack/internal/models"
)

// ErrUnsupportedRank reports a stack whose dimensionality is outside the
// supported range: peak detection handles single frames (rank 2), linear
// stacks (rank 3) and 2-D arrangements of frames (rank 4).
var ErrUnsupportedRank = errors.New("peak detection requires a 2-, 3- or 4-dimensional array of samples")

// StackPeaks holds per-frame peak coordinates for a whole stack in a
// preallocated buffer. Slots are assigned in discovery order per frame; no
// cross-frame slot correspondence is implied. Each frame carries an
// explicit count of valid peaks, and Trim shrinks the shared capacity to
// the maximum count observed. Validity is never inferred from coordinate
// values, so a genuine peak at the frame origin (0, 0) is preserved.
type StackPeaks struct {
	// coords[i] holds frame i's slots as x,y pairs, 2*capacity long
	coords [][]float64

	counts   []int
	capacity int
	navShape []int
}

// Capacity returns the number of peak slots per frame after trimming.
func (s *StackPeaks) Capacity() int { return s.capacity }

// FrameCount returns the number of frames covered by the buffer.
func (s *StackPeaks) FrameCount() int { return len(s.coords) }

// NavShape returns a copy of the originating stack's navigation shape.
func (s *StackPeaks) NavShape() []int {
	out := make([]int, len(s.navShape))
	copy(out, s.navShape)
	return out
}

// Count returns the number of valid peaks found in frame i.
func (s *StackPeaks) Count(i int) int { return s.counts[i] }

// At returns the coordinates stored in the given slot of frame i. Slots at
// or beyond Count(i) are zero-filled.
func (s *StackPeaks) At(i, slot int) (x, y float64) {
	return s.coords[i][2*slot], s.coords[i][2*slot+1]
}

// FramePeaks returns the valid peaks of frame i.
func (s *StackPeaks) FramePeaks(i int) []Peak {
	peaks := make([]Peak, s.counts[i])
	for p := range peaks {
		peaks[p].X, peaks[p].Y = s.At(i, p)
	}
	return peaks
}

// FindStack runs peak detection over every frame of a stack.
//
// A rank-2 stack is a single detection call, a rank-3 stack one call per
// image index, a rank-4 stack one call per navigation pair. Any other rank
// fails with ErrUnsupportedRank. maxPeaks bounds the slots preallocated per
// frame; values at or below zero use DefaultMaxPeaks.
//
// Frames are processed by independent workers, each writing into its own
// disjoint slice of the buffer. The trim to the final capacity happens only
// after every worker has finished.
func FindStack(stack *models.Stack, opts Options, maxPeaks int) (*StackPeaks, error) {
	rank := stack.Rank()
	if rank < 2 || rank > 4 {
		return nil, errors.Wrapf(ErrUnsupportedRank, "got rank %d", rank)
	}
	if maxPeaks <= 0 {
		maxPeaks = DefaultMaxPeaks
	}

	n := stack.FrameCount()
	result := &StackPeaks{
		coords:   make([][]float64, n),
		counts:   make([]int, n),
		capacity: maxPeaks,
		navShape: stack.NavShape(),
	}
	for i := range result.coords {
		result.coords[i] = make([]float64, 2*maxPeaks)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			peaks := Find(stack.Frame(idx), opts)
			if len(peaks) > maxPeaks {
				peaks = peaks[:maxPeaks]
			}
			buf := result.coords[idx]
			for p, pk := range peaks {
				buf[2*p] = pk.X
				buf[2*p+1] = pk.Y
			}
			result.counts[idx] = len(peaks)
		}(i)
	}
	wg.Wait()

	result.trim()
	return result, nil
}

// trim shrinks the slot capacity to the maximum valid-peak count across all
// frames. A stack with no peaks anywhere trims to zero slots.
func (s *StackPeaks) trim() {
	max := 0
	for _, c := range s.counts {
		if c > max {
			max = c
		}
	}
	s.capacity = max
	for i := range s.coords {
		s.coords[i] = s.coords[i][:2*max]
	}
}
