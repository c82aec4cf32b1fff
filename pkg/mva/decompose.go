package mva

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"peakstack/internal/models"
	"peakstack/pkg/peakchar"
)

// DecomposeStack runs a principal component analysis over the raw frames of
// a stack, one observation per stack member, one variable per pixel. The
// returned factor matrix holds the component loadings per pixel; the score
// matrix holds the per-member coefficients.
func DecomposeStack(stack *models.Stack) (*Decomposition, error) {
	if stack == nil || stack.FrameCount() < 2 {
		return nil, errors.New("decomposition requires at least two stack members")
	}
	w, h := stack.FrameSize()
	obs := mat.NewDense(stack.FrameCount(), w*h, nil)
	for i := 0; i < stack.FrameCount(); i++ {
		obs.SetRow(i, stack.Frame(i).Flatten())
	}
	factors, scores, err := principalComponents(obs)
	if err != nil {
		return nil, err
	}
	return &Decomposition{Factors: factors, Scores: scores}, nil
}

// DecomposeTable runs a principal component analysis over a peak
// characteristic table, one observation per image, one variable per
// characteristic row. Origin provenance rows are excluded. Factor vectors
// of the result keep the table's 7-row-per-peak layout, so PeakShift and
// PeakCharacteristic can slice them by peak id.
func DecomposeTable(table *peakchar.Table) (*Decomposition, error) {
	if table.NumImages() < 2 {
		return nil, errors.New("decomposition requires at least two stack members")
	}
	rows := table.CharacteristicRows()
	obs := mat.NewDense(table.NumImages(), rows, nil)
	data := table.Dense()
	for img := 0; img < table.NumImages(); img++ {
		for r := 0; r < rows; r++ {
			obs.Set(img, r, data.At(r, img))
		}
	}
	factors, scores, err := principalComponents(obs)
	if err != nil {
		return nil, err
	}
	return &Decomposition{Factors: factors, Scores: scores, OnPeaks: true}, nil
}

// principalComponents computes PCA factors and projected scores for an
// n-observation by d-variable matrix.
func principalComponents(obs *mat.Dense) (factors, scores *mat.Dense, err error) {
	var pc stat.PC
	if ok := pc.PrincipalComponents(obs, nil); !ok {
		return nil, nil, errors.New("principal component analysis failed to converge")
	}
	var vec mat.Dense
	pc.VectorsTo(&vec)

	// Scores are the mean-centered observations projected onto the
	// component directions.
	n, d := obs.Dims()
	centered := mat.NewDense(n, d, nil)
	for j := 0; j < d; j++ {
		mean := 0.0
		for i := 0; i < n; i++ {
			mean += obs.At(i, j)
		}
		mean /= float64(n)
		for i := 0; i < n; i++ {
			centered.Set(i, j, obs.At(i, j)-mean)
		}
	}
	var proj mat.Dense
	proj.Mul(centered, &vec)
	return &vec, &proj, nil
}
