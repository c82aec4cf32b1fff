// Package peakchar builds and exposes peak characteristic tables: for every
// target peak and every image in a stack it records the peak position, its
// deviation from the target location, its height, orientation and
// eccentricity.
package peakchar

import (
	"gonum.org/v1/gonum/mat"
)

// Characteristic indices of the 7 scalar fields recorded per peak.
const (
	CharX            = 0 // x coordinate within the image's own frame
	CharY            = 1 // y coordinate within the image's own frame
	CharDXTarget     = 2 // signed x deviation from the matched target
	CharDYTarget     = 3 // signed y deviation from the matched target
	CharHeight       = 4 // peak height above the local background
	CharOrientation  = 5 // orientation of the intensity distribution, radians
	CharEccentricity = 6 // eccentricity of the intensity distribution

	// NumCharacteristics is the row block size per target peak.
	NumCharacteristics = 7
)

// Table is a peak characteristic table for a stack: one column per image,
// NumCharacteristics rows per target peak, and optionally two trailing rows
// carrying the crop origin of each image. The origin rows sit outside the
// per-peak blocks and are excluded from the characteristic accessors so
// they never leak into downstream decompositions.
//
// Unmatched targets leave their block zero-filled for that image.
type Table struct {
	data       *mat.Dense
	targets    [][2]float64
	navShape   []int
	hasOrigins bool
}

// NumPeaks returns the number of target peaks the table records.
func (t *Table) NumPeaks() int { return len(t.targets) }

// NumImages returns the number of stack members (table columns).
func (t *Table) NumImages() int {
	_, c := t.data.Dims()
	return c
}

// NavShape returns a copy of the originating stack's navigation shape;
// columns are ordered row-major over these indices.
func (t *Table) NavShape() []int {
	out := make([]int, len(t.navShape))
	copy(out, t.navShape)
	return out
}

// Targets returns the target locations the table's peaks were matched to.
func (t *Table) Targets() [][2]float64 {
	out := make([][2]float64, len(t.targets))
	copy(out, t.targets)
	return out
}

// HasOrigins reports whether crop provenance rows are present.
func (t *Table) HasOrigins() bool { return t.hasOrigins }

// Characteristic returns the given characteristic of one target peak across
// every image, as a view into the table.
func (t *Table) Characteristic(peak, char int) mat.Vector {
	return t.data.RowView(peak*NumCharacteristics + char)
}

// PeakBlock returns the full 7-row block of one target peak across every
// image, as a view into the table.
func (t *Table) PeakBlock(peak int) mat.Matrix {
	row := peak * NumCharacteristics
	_, c := t.data.Dims()
	return t.data.Slice(row, row+NumCharacteristics, 0, c)
}

// ImageColumn returns every recorded value for one image, including origin
// rows when present, as a view into the table.
func (t *Table) ImageColumn(img int) mat.Vector {
	return t.data.ColView(img)
}

// Origin returns the crop origin recorded for one image. ok is false when
// the table carries no provenance rows.
func (t *Table) Origin(img int) (x, y float64, ok bool) {
	if !t.hasOrigins {
		return 0, 0, false
	}
	r, _ := t.data.Dims()
	return t.data.At(r-2, img), t.data.At(r-1, img), true
}

// Dense returns the underlying matrix. Rows are peak blocks in target
// order, optionally followed by the two origin rows; columns are images.
func (t *Table) Dense() *mat.Dense { return t.data }

// CharacteristicRows returns the number of rows that belong to peak blocks,
// excluding any origin rows. This is the row count decompositions should
// operate on.
func (t *Table) CharacteristicRows() int {
	return len(t.targets) * NumCharacteristics
}
