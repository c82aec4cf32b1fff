// Package mva adapts multivariate decomposition results (PCA or ICA
// factors and scores) for peak-wise consumption. Decompositions computed
// over peak characteristic tables carry one 7-row block per target peak in
// each factor vector; the adapter slices shifts and characteristics out of
// those blocks by peak id.
package mva

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"peakstack/pkg/peakchar"
)

// ErrComponentIndex reports a component id outside the factor matrix's
// column range.
var ErrComponentIndex = errors.New("component id out of range")

// Decomposition is an externally computed factor/score pair, treated as
// opaque. Factors holds one component per column; Scores holds one
// component per column with one row per stack member. OnPeaks marks a
// decomposition computed over peak characteristic rows rather than raw
// pixels.
type Decomposition struct {
	Factors *mat.Dense
	Scores  *mat.Dense
	OnPeaks bool
}

// Components returns the number of components in the decomposition.
func (d *Decomposition) Components() int {
	if d.Factors == nil {
		return 0
	}
	_, c := d.Factors.Dims()
	return c
}

func (d *Decomposition) checkComponent(id int) error {
	if id < 0 || id >= d.Components() {
		return errors.Wrapf(ErrComponentIndex, "component %d, decomposition has %d", id, d.Components())
	}
	return nil
}

// Select returns the factor vector and score vector of one component.
// The score vector is nil when the decomposition carries no scores.
func Select(d *Decomposition, componentID int) (factor, score mat.Vector, err error) {
	if err := d.checkComponent(componentID); err != nil {
		return nil, nil, err
	}
	factor = d.Factors.ColView(componentID)
	if d.Scores != nil {
		score = d.Scores.ColView(componentID)
	}
	return factor, score, nil
}

// PeakShift returns the (dx, dy) target-deviation pair of one peak within
// one component's factor vector. Only valid for on-peaks decompositions.
func PeakShift(d *Decomposition, componentID, peakID int) (dx, dy float64, err error) {
	if err := d.checkComponent(componentID); err != nil {
		return 0, 0, err
	}
	if !d.OnPeaks {
		return 0, 0, errors.New("peak shifts require a decomposition computed on peak characteristics")
	}
	base, err := peakRow(d, peakID)
	if err != nil {
		return 0, 0, err
	}
	return d.Factors.At(base+peakchar.CharDXTarget, componentID),
		d.Factors.At(base+peakchar.CharDYTarget, componentID), nil
}

// PeakCharacteristic returns one scalar characteristic (height, orientation
// or eccentricity) of one peak within one component's factor vector.
func PeakCharacteristic(d *Decomposition, componentID, peakID, which int) (float64, error) {
	if err := d.checkComponent(componentID); err != nil {
		return 0, err
	}
	if !d.OnPeaks {
		return 0, errors.New("peak characteristics require a decomposition computed on peak characteristics")
	}
	if which < peakchar.CharHeight || which > peakchar.CharEccentricity {
		return 0, errors.Errorf("characteristic %d not selectable, want height (%d), orientation (%d) or eccentricity (%d)",
			which, peakchar.CharHeight, peakchar.CharOrientation, peakchar.CharEccentricity)
	}
	base, err := peakRow(d, peakID)
	if err != nil {
		return 0, err
	}
	return d.Factors.At(base+which, componentID), nil
}

func peakRow(d *Decomposition, peakID int) (int, error) {
	rows, _ := d.Factors.Dims()
	base := peakID * peakchar.NumCharacteristics
	if peakID < 0 || base+peakchar.NumCharacteristics > rows {
		return 0, errors.Errorf("peak %d out of range, factor vector holds %d peak blocks",
			peakID, rows/peakchar.NumCharacteristics)
	}
	return base, nil
}
