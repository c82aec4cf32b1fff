package coordmap

import (
	"errors"
	"testing"

	"peakstack/internal/models"
	"peakstack/pkg/peakchar"
)

func buildTable(t *testing.T, n int) *peakchar.Table {
	t.Helper()
	frames := make([]*models.Frame, n)
	for i := range frames {
		f := models.NewFrame(4, 4)
		f.Set(1, 1, 1)
		frames[i] = f
	}
	stack, err := models.NewStack(frames, nil)
	if err != nil {
		t.Fatalf("failed to build stack: %v", err)
	}
	table, err := peakchar.Build(stack, peakchar.BuildOptions{
		PeakWidth:          3,
		TargetLocations:    [][2]float64{{1, 1}},
		TargetNeighborhood: 2,
	})
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	return table
}

func TestMapToParent(t *testing.T) {
	table := buildTable(t, 3)
	catalogue := NewCatalogue([]Origin{
		{Filename: "a.png", Position: [2]float64{100, 200}},
		{Filename: "b.png", Position: [2]float64{10, 20}},
		{Filename: "a.png", Position: [2]float64{300, 400}},
	})

	records, err := MapToParent(table, catalogue, "a.png")
	if err != nil {
		t.Fatalf("MapToParent failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Member != 0 || records[1].Member != 2 {
		t.Errorf("members = %d, %d, want 0, 2", records[0].Member, records[1].Member)
	}

	// Parent coordinates are the crop origin plus the crop-local peak.
	if got := records[0].PeakCoords[0]; got != [2]float64{101, 201} {
		t.Errorf("record 0 peak = %v, want [101 201]", got)
	}
	if got := records[1].PeakCoords[0]; got != [2]float64{301, 401} {
		t.Errorf("record 1 peak = %v, want [301 401]", got)
	}

	// Subtracting the origin recovers the table's own coordinates.
	for _, rec := range records {
		localX := rec.PeakCoords[0][0] - rec.Origin[0]
		localY := rec.PeakCoords[0][1] - rec.Origin[1]
		wantX := table.Characteristic(0, peakchar.CharX).AtVec(rec.Member)
		wantY := table.Characteristic(0, peakchar.CharY).AtVec(rec.Member)
		if localX != wantX || localY != wantY {
			t.Errorf("member %d round trip = (%g, %g), want (%g, %g)",
				rec.Member, localX, localY, wantX, wantY)
		}
	}

	if got := records[0].Characteristics.Len(); got != peakchar.NumCharacteristics {
		t.Errorf("characteristics length = %d, want %d", got, peakchar.NumCharacteristics)
	}
}

func TestMapToParentUnknownParent(t *testing.T) {
	table := buildTable(t, 2)
	catalogue := NewCatalogue([]Origin{
		{Filename: "a.png", Position: [2]float64{0, 0}},
		{Filename: "a.png", Position: [2]float64{5, 5}},
	})
	records, err := MapToParent(table, catalogue, "missing.png")
	if err != nil {
		t.Fatalf("unknown parent must not fail: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records for unknown parent, want 0", len(records))
	}
}

func TestMapToParentNoProvenance(t *testing.T) {
	table := buildTable(t, 3)

	t.Run("NilCatalogue", func(t *testing.T) {
		_, err := MapToParent(table, nil, "a.png")
		if !errors.Is(err, ErrNoProvenance) {
			t.Errorf("got %v, want ErrNoProvenance", err)
		}
	})

	t.Run("IncompleteCatalogue", func(t *testing.T) {
		catalogue := NewCatalogue([]Origin{
			{Filename: "a.png"},
			{Filename: "a.png"},
		})
		_, err := MapToParent(table, catalogue, "a.png")
		if !errors.Is(err, ErrNoProvenance) {
			t.Errorf("got %v, want ErrNoProvenance", err)
		}
	})
}

func TestCatalogue(t *testing.T) {
	catalogue := NewCatalogue([]Origin{
		{Filename: "a.png", Position: [2]float64{1, 2}},
		{Filename: "b.png", Position: [2]float64{3, 4}},
		{Filename: "a.png", Position: [2]float64{5, 6}},
	})

	parents := catalogue.Parents()
	if len(parents) != 2 || parents[0] != "a.png" || parents[1] != "b.png" {
		t.Errorf("parents = %v, want [a.png b.png]", parents)
	}

	if pos, ok := catalogue.Position(1); !ok || pos != [2]float64{3, 4} {
		t.Errorf("Position(1) = %v, %v, want [3 4], true", pos, ok)
	}
	if _, ok := catalogue.Position(5); ok {
		t.Error("Position beyond the catalogue reported ok")
	}

	var missing *Catalogue
	if _, ok := missing.Position(0); ok {
		t.Error("nil catalogue reported a position")
	}
}
