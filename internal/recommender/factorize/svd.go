// Package factorize provides the low-rank linear decomposition of the
// interaction matrix. The model is fit once offline and is stateless
// with respect to later matrix mutations: projection is a pure function
// of the learned components and the input row.
package factorize

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"basket-recs/internal/domain/entity"
	"basket-recs/internal/recommender/matrix"
)

// DefaultRank is the latent dimensionality of the factorization.
const DefaultRank = 50

// TruncatedSVD projects interaction rows from product space into a
// fixed-rank latent embedding space using the top right singular vectors
// of the training matrix. Fields are exported for snapshot serialization
// only.
type TruncatedSVD struct {
	// Rank is the embedding dimensionality. After Fit it holds the
	// effective rank, which may be lower than requested when the
	// training matrix is smaller than the requested rank.
	Rank int `json:"rank"`

	// Components holds the learned right singular vectors, one row per
	// latent factor, each of width NumFeatures.
	Components [][]float64 `json:"components"`

	// NumFeatures is the product vocabulary width the model was fit on.
	NumFeatures int `json:"features"`
}

// NewTruncatedSVD creates an unfitted model with the given rank.
func NewTruncatedSVD(rank int) *TruncatedSVD {
	return &TruncatedSVD{Rank: rank}
}

// Fit learns the decomposition from the interaction matrix. Offline
// only; it is never invoked on the request path. The factorization is
// deterministic for a given input matrix.
func (t *TruncatedSVD) Fit(m *matrix.CSR) error {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("fit svd: empty matrix %dx%d", rows, cols)
	}

	dense := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		rowCols, rowVals, err := m.Row(i)
		if err != nil {
			return fmt.Errorf("fit svd: %w", err)
		}
		for j, c := range rowCols {
			dense.Set(i, c, rowVals[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(dense, mat.SVDThin); !ok {
		return fmt.Errorf("fit svd: factorization did not converge")
	}

	var v mat.Dense
	svd.VTo(&v)
	vRows, vCols := v.Dims() // cols × min(rows, cols)
	_ = vRows

	k := t.Rank
	if k > vCols {
		k = vCols
	}

	components := make([][]float64, k)
	for f := 0; f < k; f++ {
		comp := make([]float64, cols)
		for j := 0; j < cols; j++ {
			comp[j] = v.At(j, f)
		}
		components[f] = comp
	}

	t.Rank = k
	t.Components = components
	t.NumFeatures = cols
	return nil
}

// Project maps a dense row vector in product space to its latent
// embedding. Pure and deterministic; the only failure mode is a width
// mismatch.
func (t *TruncatedSVD) Project(row []float64) ([]float64, error) {
	if len(row) != t.NumFeatures {
		return nil, &entity.ShapeError{Op: "svd project", Want: t.NumFeatures, Got: len(row)}
	}
	emb := make([]float64, t.Rank)
	for f, comp := range t.Components {
		emb[f] = floats.Dot(row, comp)
	}
	return emb, nil
}

// ProjectSparse is Project for a row given in sparse (cols, vals) form.
func (t *TruncatedSVD) ProjectSparse(cols []int, vals []float64) ([]float64, error) {
	emb := make([]float64, t.Rank)
	for f, comp := range t.Components {
		var sum float64
		for j, c := range cols {
			if c >= t.NumFeatures {
				return nil, &entity.ShapeError{Op: "svd project", Want: t.NumFeatures, Got: c + 1}
			}
			sum += vals[j] * comp[c]
		}
		emb[f] = sum
	}
	return emb, nil
}

// ProjectAll maps every row of the matrix into the embedding space.
func (t *TruncatedSVD) ProjectAll(m *matrix.CSR) ([][]float64, error) {
	rows, cols := m.Dims()
	if cols != t.NumFeatures {
		return nil, &entity.ShapeError{Op: "svd project all", Want: t.NumFeatures, Got: cols}
	}
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		rowCols, rowVals, err := m.Row(i)
		if err != nil {
			return nil, err
		}
		emb, err := t.ProjectSparse(rowCols, rowVals)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

// Fitted reports whether the model carries learned components.
func (t *TruncatedSVD) Fitted() bool {
	return len(t.Components) > 0 && t.NumFeatures > 0
}
