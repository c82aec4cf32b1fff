// Package coordmap relates cropped sub-images back to the parent images
// they were taken from. Each stack member has one catalogue entry naming
// its parent image and the crop's top-left offset in the parent's
// coordinate frame; filtering by parent name and adding the stored offset
// expresses crop-local peak coordinates in the parent frame.
package coordmap

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"peakstack/pkg/peakchar"
)

// ErrNoProvenance reports a coordinate mapping request for a table whose
// crops were not tracked: no origin catalogue is available, or it does not
// cover every stack member. Callers should fall back to within-crop
// coordinates.
var ErrNoProvenance = errors.New("no crop provenance: origin catalogue missing or incomplete")

// Origin is one catalogue entry: the parent image a crop was taken from and
// the crop's top-left offset in the parent's coordinate frame.
type Origin struct {
	Filename string
	Position [2]float64
}

// Catalogue is an ordered origin record set, one entry per stack member.
// Filenames partition members into disjoint groups, one per parent image.
type Catalogue struct {
	entries []Origin
}

// NewCatalogue wraps origin entries in catalogue (stack) order.
func NewCatalogue(entries []Origin) *Catalogue {
	out := make([]Origin, len(entries))
	copy(out, entries)
	return &Catalogue{entries: out}
}

// Len returns the number of catalogue entries.
func (c *Catalogue) Len() int { return len(c.entries) }

// Entry returns the i-th catalogue entry.
func (c *Catalogue) Entry(i int) Origin { return c.entries[i] }

// Position returns the crop origin of member i, when catalogued. Members
// beyond the catalogue are tolerated and report ok false.
func (c *Catalogue) Position(i int) (pos [2]float64, ok bool) {
	if c == nil || i < 0 || i >= len(c.entries) {
		return [2]float64{}, false
	}
	return c.entries[i].Position, true
}

// Parents returns the distinct parent filenames in first-seen order.
func (c *Catalogue) Parents() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range c.entries {
		if !seen[e.Filename] {
			seen[e.Filename] = true
			out = append(out, e.Filename)
		}
	}
	return out
}

// ParentRecord is one stack member's view in its parent image's frame.
type ParentRecord struct {
	// Member is the stack index of the crop
	Member int

	// Origin is the crop's offset in the parent frame
	Origin [2]float64

	// PeakCoords holds, per target peak, the member's peak coordinate
	// translated into the parent frame (origin plus the crop-local
	// coordinate). Unmatched targets translate to the origin itself.
	PeakCoords [][2]float64

	// Characteristics is the member's full table column (a view)
	Characteristics mat.Vector
}

// MapToParent selects every stack member cropped from the named parent
// image and expresses its peak coordinates in the parent's frame. Records
// come back in catalogue order. An unknown parent yields an empty
// selection, not an error; a missing or incomplete catalogue fails with
// ErrNoProvenance.
func MapToParent(table *peakchar.Table, catalogue *Catalogue, parentKey string) ([]ParentRecord, error) {
	if catalogue == nil || catalogue.Len() == 0 {
		return nil, errors.Wrap(ErrNoProvenance, "no catalogue for table")
	}
	if catalogue.Len() != table.NumImages() {
		return nil, errors.Wrapf(ErrNoProvenance, "catalogue covers %d members, table has %d",
			catalogue.Len(), table.NumImages())
	}

	var records []ParentRecord
	for i := 0; i < catalogue.Len(); i++ {
		entry := catalogue.Entry(i)
		if entry.Filename != parentKey {
			continue
		}
		coords := make([][2]float64, table.NumPeaks())
		for p := range coords {
			coords[p] = [2]float64{
				entry.Position[0] + table.Characteristic(p, peakchar.CharX).AtVec(i),
				entry.Position[1] + table.Characteristic(p, peakchar.CharY).AtVec(i),
			}
		}
		records = append(records, ParentRecord{
			Member:          i,
			Origin:          entry.Position,
			PeakCoords:      coords,
			Characteristics: table.ImageColumn(i),
		})
	}
	return records, nil
}
