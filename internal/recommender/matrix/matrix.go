// Package matrix implements the sparse user×product interaction matrix
// in two physical layouts: CSR for row slicing and whole-matrix reads,
// and LIL for cell mutation and row growth. The layouts have conflicting
// access characteristics, so mutation is a scoped sequence: convert to
// LIL, apply all cell sets, convert back to CSR. Readers only ever see a
// fully-converted CSR.
package matrix

import (
	"sort"

	"basket-recs/internal/domain/entity"
)

// CSR is a read-optimized compressed sparse row matrix. A nonzero entry
// (u, i) means user u purchased product i at least once; values carry
// raw incidence counts but every read path collapses them to presence.
// Fields are exported for snapshot serialization only.
type CSR struct {
	NumRows int       `json:"rows"`
	NumCols int       `json:"cols"`
	RowPtr  []int     `json:"row_ptr"`
	ColIdx  []int     `json:"col_idx"`
	Values  []float64 `json:"values"`
}

// NewCSR returns an all-zero rows×cols matrix in CSR layout.
func NewCSR(rows, cols int) *CSR {
	return &CSR{
		NumRows: rows,
		NumCols: cols,
		RowPtr:  make([]int, rows+1),
	}
}

// Dims returns the matrix dimensions (rows, cols).
func (m *CSR) Dims() (int, int) {
	return m.NumRows, m.NumCols
}

// NNZ returns the number of stored (nonzero) entries.
func (m *CSR) NNZ() int {
	return len(m.ColIdx)
}

// Row returns the sparse form of row i: parallel slices of column
// indices and values. The slices alias internal storage and must not be
// modified by the caller.
func (m *CSR) Row(i int) ([]int, []float64, error) {
	if i < 0 || i >= m.NumRows {
		return nil, nil, &entity.ShapeError{Op: "csr row", Want: m.NumRows, Got: i}
	}
	start, end := m.RowPtr[i], m.RowPtr[i+1]
	return m.ColIdx[start:end], m.Values[start:end], nil
}

// DenseRow materializes row i as a dense vector over the product space.
func (m *CSR) DenseRow(i int) ([]float64, error) {
	cols, vals, err := m.Row(i)
	if err != nil {
		return nil, err
	}
	out := make([]float64, m.NumCols)
	for j, c := range cols {
		out[c] = vals[j]
	}
	return out, nil
}

// ColSums returns the per-column sum of raw counts across all rows.
// Used by the offline build to rank products by purchase volume.
func (m *CSR) ColSums() []float64 {
	sums := make([]float64, m.NumCols)
	for j, c := range m.ColIdx {
		sums[c] += m.Values[j]
	}
	return sums
}

// ToLIL converts the matrix to the mutation-optimized layout.
func (m *CSR) ToLIL() *LIL {
	l := NewLIL(m.NumRows, m.NumCols)
	for i := 0; i < m.NumRows; i++ {
		for j := m.RowPtr[i]; j < m.RowPtr[i+1]; j++ {
			l.cells[i][m.ColIdx[j]] = m.Values[j]
		}
	}
	return l
}

// LIL is a mutation-optimized list-of-lists matrix supporting O(1) cell
// writes and cheap row growth. Convert to CSR before exposing to readers.
type LIL struct {
	rows  int
	cols  int
	cells []map[int]float64
}

// NewLIL returns an all-zero rows×cols matrix in LIL layout.
func NewLIL(rows, cols int) *LIL {
	cells := make([]map[int]float64, rows)
	for i := range cells {
		cells[i] = make(map[int]float64)
	}
	return &LIL{rows: rows, cols: cols, cells: cells}
}

// Dims returns the matrix dimensions (rows, cols).
func (l *LIL) Dims() (int, int) {
	return l.rows, l.cols
}

// Get returns the value at (row, col), zero when the cell is unset.
func (l *LIL) Get(row, col int) (float64, error) {
	if err := l.check(row, col); err != nil {
		return 0, err
	}
	return l.cells[row][col], nil
}

// Set writes v at (row, col). Setting an already-present cell overwrites
// it, so marking the same purchase twice is a no-op on the matrix state.
func (l *LIL) Set(row, col int, v float64) error {
	if err := l.check(row, col); err != nil {
		return err
	}
	l.cells[row][col] = v
	return nil
}

// Add accumulates v into (row, col). Used by the offline bulk fill where
// values are raw counts rather than presence flags.
func (l *LIL) Add(row, col int, v float64) error {
	if err := l.check(row, col); err != nil {
		return err
	}
	l.cells[row][col] += v
	return nil
}

// GrowRows extends the matrix with all-zero rows up to newRows. The
// matrix never shrinks; a smaller target is a shape error.
func (l *LIL) GrowRows(newRows int) error {
	if newRows < l.rows {
		return &entity.ShapeError{Op: "lil grow", Want: l.rows, Got: newRows}
	}
	for i := l.rows; i < newRows; i++ {
		l.cells = append(l.cells, make(map[int]float64))
	}
	l.rows = newRows
	return nil
}

// ToCSR converts the matrix back to the read-optimized layout. Column
// indices within each row come out sorted ascending, which keeps every
// downstream iteration order deterministic.
func (l *LIL) ToCSR() *CSR {
	m := NewCSR(l.rows, l.cols)
	for i, row := range l.cells {
		cols := make([]int, 0, len(row))
		for c, v := range row {
			if v != 0 {
				cols = append(cols, c)
			}
		}
		sort.Ints(cols)
		for _, c := range cols {
			m.ColIdx = append(m.ColIdx, c)
			m.Values = append(m.Values, row[c])
		}
		m.RowPtr[i+1] = len(m.ColIdx)
	}
	return m
}

func (l *LIL) check(row, col int) error {
	if row < 0 || row >= l.rows {
		return &entity.ShapeError{Op: "lil row", Want: l.rows, Got: row}
	}
	if col < 0 || col >= l.cols {
		return &entity.ShapeError{Op: "lil col", Want: l.cols, Got: col}
	}
	return nil
}
