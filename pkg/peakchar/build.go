package peakchar

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"peakstack/internal/models"
	"peakstack/pkg/peakfind"
)

// DefaultTargetNeighborhood is the default matching radius in pixels.
const DefaultTargetNeighborhood = 20.0

// BuildOptions configures a characterization pass over a stack.
type BuildOptions struct {
	// PeakWidth is the expected peak width in pixels; it bounds the
	// detection window and the window characteristics are measured over.
	PeakWidth int

	// Subpixel enables center-of-mass refinement of peak positions.
	Subpixel bool

	// MedfiltRadius smooths each frame before detection; 0 disables it.
	MedfiltRadius int

	// Threshold is the minimum sample value for detection.
	Threshold float64

	// TargetLocations is the ordered reference coordinate set peaks are
	// associated with. When nil, targets are derived by detecting peaks on
	// the stack's average frame.
	TargetLocations [][2]float64

	// PeakLocations supplies per-image peak coordinates directly, one slice
	// per stack member, skipping detection. Peaks farther than
	// TargetNeighborhood from every target are excluded as outliers.
	PeakLocations [][]peakfind.Peak

	// Origins, when supplied, carries the crop origin of each stack member
	// and is appended as two trailing provenance rows per image.
	Origins [][2]float64

	// TargetNeighborhood is the matching radius in pixels: only peaks
	// within this distance of a target can be associated with it. Values at
	// or below zero use DefaultTargetNeighborhood.
	TargetNeighborhood float64

	// MaxPeaks bounds the detection buffer; 0 uses the package default.
	MaxPeaks int
}

// Build characterizes the peaks in a stack of images.
//
// Each stack member contributes one column; each target peak contributes a
// 7-row block (see the Char constants). Per image, the detected (or
// supplied) peak nearest to each target within TargetNeighborhood is
// measured; targets with no peak inside the radius stay zero for that
// image. A failed pass yields no table.
func Build(stack *models.Stack, opts BuildOptions) (*Table, error) {
	if stack == nil || stack.FrameCount() == 0 {
		return nil, errors.New("characterization requires a non-empty stack")
	}
	neighborhood := opts.TargetNeighborhood
	if neighborhood <= 0 {
		neighborhood = DefaultTargetNeighborhood
	}

	targets := opts.TargetLocations
	if targets == nil {
		targets = SeedTargets(stack, opts)
	}
	if len(targets) == 0 {
		return nil, errors.New("no target locations: none supplied and none detectable on the average frame")
	}

	perImage := opts.PeakLocations
	if perImage == nil {
		found, err := peakfind.FindStack(stack, peakfind.Options{
			PeakWidth:     opts.PeakWidth,
			Subpixel:      opts.Subpixel,
			MedfiltRadius: opts.MedfiltRadius,
			Threshold:     opts.Threshold,
		}, opts.MaxPeaks)
		if err != nil {
			return nil, errors.Wrap(err, "peak detection failed")
		}
		perImage = make([][]peakfind.Peak, found.FrameCount())
		for i := range perImage {
			perImage[i] = found.FramePeaks(i)
		}
	} else if len(perImage) != stack.FrameCount() {
		return nil, errors.Errorf("peak locations cover %d images, stack has %d", len(perImage), stack.FrameCount())
	}

	if opts.Origins != nil && len(opts.Origins) != stack.FrameCount() {
		return nil, errors.Errorf("origins cover %d images, stack has %d", len(opts.Origins), stack.FrameCount())
	}

	rows := len(targets) * NumCharacteristics
	if opts.Origins != nil {
		rows += 2
	}
	nImages := stack.FrameCount()
	data := mat.NewDense(rows, nImages, nil)

	for img := 0; img < nImages; img++ {
		frame := stack.Frame(img)
		for ti, target := range targets {
			pk, ok := nearestPeak(perImage[img], target, neighborhood)
			if !ok {
				continue
			}
			attrs := measurePeak(frame, pk, opts.PeakWidth)
			base := ti * NumCharacteristics
			data.Set(base+CharX, img, pk.X)
			data.Set(base+CharY, img, pk.Y)
			data.Set(base+CharDXTarget, img, pk.X-target[0])
			data.Set(base+CharDYTarget, img, pk.Y-target[1])
			data.Set(base+CharHeight, img, attrs.height)
			data.Set(base+CharOrientation, img, attrs.orientation)
			data.Set(base+CharEccentricity, img, attrs.eccentricity)
		}
		if opts.Origins != nil {
			data.Set(rows-2, img, opts.Origins[img][0])
			data.Set(rows-1, img, opts.Origins[img][1])
		}
	}

	tgt := make([][2]float64, len(targets))
	copy(tgt, targets)
	return &Table{
		data:       data,
		targets:    tgt,
		navShape:   stack.NavShape(),
		hasOrigins: opts.Origins != nil,
	}, nil
}

// SeedTargets derives a target-location set by running peak detection on
// the stack's average frame. The result can be passed back through
// BuildOptions.TargetLocations to keep peak identities fixed across
// repeated characterization passes.
func SeedTargets(stack *models.Stack, opts BuildOptions) [][2]float64 {
	avg := stack.AverageFrame()
	peaks := peakfind.Find(avg, peakfind.Options{
		PeakWidth:     opts.PeakWidth,
		Subpixel:      opts.Subpixel,
		MedfiltRadius: opts.MedfiltRadius,
		Threshold:     opts.Threshold,
	})
	targets := make([][2]float64, len(peaks))
	for i, p := range peaks {
		targets[i] = [2]float64{p.X, p.Y}
	}
	return targets
}

// nearestPeak returns the peak closest to target, provided it lies within
// the given radius.
func nearestPeak(peaks []peakfind.Peak, target [2]float64, radius float64) (peakfind.Peak, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, p := range peaks {
		d := math.Hypot(p.X-target[0], p.Y-target[1])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 || bestDist > radius {
		return peakfind.Peak{}, false
	}
	return peaks[best], true
}
