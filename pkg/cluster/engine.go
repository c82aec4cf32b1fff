package cluster

import (
	"github.com/pkg/errors"

	"peakstack/internal/models"
	"peakstack/pkg/coordmap"
)

// Result holds one clustering pass over a stack. Everything here is derived
// from the assignment and recomputed on each invocation; nothing is
// persisted.
type Result struct {
	// Assignments maps stack index to cluster id in [0, k)
	Assignments []int

	// Members lists, per cluster, the stack indices assigned to it in
	// original stack order
	Members [][]int

	// Averages holds the elementwise mean frame per cluster. A cluster
	// with no members gets an all-zero frame.
	Averages []*models.Frame

	// Counts holds the member count per cluster
	Counts []int

	// Positions holds, per cluster, the crop origins of members that have
	// a catalogue entry. Members without one are omitted, so a cluster's
	// position list can be shorter than its member list.
	Positions [][][2]float64

	// EmptyClusters lists cluster ids that received no members. Reported,
	// not an error.
	EmptyClusters []int
}

// Engine runs the clustering bookkeeping around a grouping primitive.
type Engine struct {
	clusterer Clusterer
}

// NewEngine wraps a grouping primitive. A nil clusterer uses the built-in
// k-means.
func NewEngine(c Clusterer) *Engine {
	if c == nil {
		c = &KMeans{}
	}
	return &Engine{clusterer: c}
}

// Cluster groups the stack's members into k clusters and rebuilds the
// per-cluster aggregates. The catalogue is optional; when present, member
// crop origins are collected per cluster.
func (e *Engine) Cluster(stack *models.Stack, k int, catalogue *coordmap.Catalogue) (*Result, error) {
	if stack == nil || stack.FrameCount() == 0 {
		return nil, errors.New("clustering requires a non-empty stack")
	}

	features := make([][]float64, stack.FrameCount())
	for i := range features {
		features[i] = stack.Frame(i).Flatten()
	}
	assignments, err := e.clusterer.Cluster(features, k)
	if err != nil {
		return nil, errors.Wrap(err, "grouping failed")
	}
	if len(assignments) != stack.FrameCount() {
		return nil, errors.Errorf("grouping returned %d assignments for %d members",
			len(assignments), stack.FrameCount())
	}

	w, h := stack.FrameSize()
	result := &Result{
		Assignments: assignments,
		Members:     make([][]int, k),
		Averages:    make([]*models.Frame, k),
		Counts:      make([]int, k),
		Positions:   make([][][2]float64, k),
	}
	for c := 0; c < k; c++ {
		result.Averages[c] = models.NewFrame(w, h)
	}

	for i, c := range assignments {
		if c < 0 || c >= k {
			return nil, errors.Errorf("member %d assigned to cluster %d, want [0, %d)", i, c, k)
		}
		result.Members[c] = append(result.Members[c], i)
		result.Counts[c]++
		frame := stack.Frame(i)
		for p, v := range frame.Pix {
			result.Averages[c].Pix[p] += v
		}
		if pos, ok := catalogue.Position(i); ok {
			result.Positions[c] = append(result.Positions[c], pos)
		}
	}

	for c := 0; c < k; c++ {
		if result.Counts[c] == 0 {
			result.EmptyClusters = append(result.EmptyClusters, c)
			continue
		}
		n := float64(result.Counts[c])
		for p := range result.Averages[c].Pix {
			result.Averages[c].Pix[p] /= n
		}
	}
	return result, nil
}
