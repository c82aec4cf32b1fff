// Package cluster regroups the members of a stack by unsupervised
// clustering and recomputes the aggregate bookkeeping around the grouping:
// order-preserving member partitions, per-cluster average frames, member
// counts and member positions.
package cluster

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Clusterer is the grouping primitive: given one feature vector per stack
// member it assigns each member a cluster id in [0, k). The surrounding
// bookkeeping does not depend on how the grouping is decided, so external
// primitives can be substituted.
type Clusterer interface {
	Cluster(features [][]float64, k int) ([]int, error)
}

// KMeans is the default grouping primitive: Lloyd iterations seeded by
// deterministic farthest-first traversal. Convergence is not guaranteed
// beyond the iteration cap.
type KMeans struct {
	// MaxIterations caps the Lloyd iterations; 0 uses a default of 100.
	MaxIterations int
}

// Cluster assigns each feature vector to one of k clusters.
func (km *KMeans) Cluster(features [][]float64, k int) ([]int, error) {
	n := len(features)
	if k <= 0 {
		return nil, errors.Errorf("cluster count must be positive, got %d", k)
	}
	if k > n {
		return nil, errors.Errorf("cannot form %d clusters from %d members", k, n)
	}
	maxIter := km.MaxIterations
	if maxIter <= 0 {
		maxIter = 100
	}
	dim := len(features[0])
	for i, f := range features {
		if len(f) != dim {
			return nil, errors.Errorf("feature vector %d has %d values, want %d", i, len(f), dim)
		}
	}

	centers := seedCenters(features, k)
	assignments := make([]int, n)
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, f := range features {
			best := nearestCenter(centers, f)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		// Recompute each center as the mean of its members. Centers that
		// lose every member keep their previous position.
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, f := range features {
			c := assignments[i]
			counts[c]++
			floats.Add(sums[c], f)
		}
		for c := range centers {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centers[c] = sums[c]
		}
	}
	return assignments, nil
}

// seedCenters picks k initial centers by farthest-first traversal starting
// from the first member. Deterministic for a given input order.
func seedCenters(features [][]float64, k int) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, features[0])
	for len(centers) < k {
		bestIdx := 0
		bestDist := -1.0
		for i, f := range features {
			d := floats.Distance(f, centers[0], 2)
			for _, c := range centers[1:] {
				if cd := floats.Distance(f, c, 2); cd < d {
					d = cd
				}
			}
			if d > bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		centers = append(centers, features[bestIdx])
	}
	return centers
}

func nearestCenter(centers [][]float64, f []float64) int {
	best := 0
	bestDist := floats.Distance(f, centers[0], 2)
	for c := 1; c < len(centers); c++ {
		if d := floats.Distance(f, centers[c], 2); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
