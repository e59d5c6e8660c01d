/*
Package grid implements the plate buffers used by the Jacobi solver.

A Matrix is a rows x cols block of float64 stored row-major in one slice.
A Plate holds two same-shaped matrices and a role index that says which one
is "current" (read during a cycle) and which one is "next" (written during a
cycle). Swapping the roles never moves data.

*/
package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

////////////////////////////////////////////////////////////////////////////////////////////
// <ERROR DEFINITIONS>

// These type definitions allow the caller to explicitly check for the kind
// of error that occurred. Each constructor below lists the errors that it is
// allowed to raise.

// InvalidShape contains the rejected rows and cols
type InvalidShape [2]int

func (e InvalidShape) Error() string {
	return fmt.Sprintf("Grid: Invalid shape [%dx%d], need at least 3x3", e[0], e[1])
}

// ShapeMismatch contains the shapes of the two matrices involved
type ShapeMismatch [4]int

func (e ShapeMismatch) Error() string {
	return fmt.Sprintf("Grid: Shape mismatch [%dx%d] vs [%dx%d]", e[0], e[1], e[2], e[3])
}

// OutofBounds contains the row and column that was out of bounds
type OutofBounds [2]int

func (e OutofBounds) Error() string {
	return fmt.Sprintf("Grid: Out of bounds cell [%d,%d]", e[0], e[1])
}

// </ERROR DEFINITIONS>
////////////////////////////////////////////////////////////////////////////////////////////

// MinSize is the smallest number of rows or columns that still leaves one
// interior cell.
const MinSize = 3

// Boundary holds the fixed temperature of each edge of the plate. The top and
// bottom rows take precedence over the side columns at the corners.
type Boundary struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Matrix is a rows x cols block of values in row-major order
type Matrix struct {
	Rows, Cols int
	data       []float64
}

// NewMatrix allocates a zeroed rows x cols matrix
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{
		Rows: rows,
		Cols: cols,
		data: make([]float64, rows*cols),
	}
}

// At returns the value at row i, column j
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.Cols+j]
}

// Set stores v at row i, column j
func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.Cols+j] = v
}

// Get is the bounds checked form of At.
// Can return the following errors:
// - OutofBounds
func (m *Matrix) Get(i, j int) (float64, error) {
	if i < 0 || i >= m.Rows || j < 0 || j >= m.Cols {
		return 0, OutofBounds{i, j}
	}
	return m.At(i, j), nil
}

// Row returns a view of row i. Writes through the view change the matrix.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.Cols : (i+1)*m.Cols]
}

// Data returns the backing slice in row-major order
func (m *Matrix) Data() []float64 {
	return m.data
}

// Clone returns a deep copy of the matrix
func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.Rows, m.Cols)
	copy(c.data, m.data)
	return c
}

func (m *Matrix) sameShape(o *Matrix) error {
	if m.Rows != o.Rows || m.Cols != o.Cols {
		return ShapeMismatch{m.Rows, m.Cols, o.Rows, o.Cols}
	}
	return nil
}

// MaxDiff returns the largest absolute cell-wise difference between m and o,
// for callers comparing two results.
// Can return the following errors:
// - ShapeMismatch
func (m *Matrix) MaxDiff(o *Matrix) (float64, error) {
	if err := m.sameShape(o); err != nil {
		return 0, err
	}
	return floats.Distance(m.data, o.data, math.Inf(1)), nil
}

// EqualApprox reports whether every cell of m matches o within tol, either
// absolutely or relative to the larger magnitude
func (m *Matrix) EqualApprox(o *Matrix, tol float64) bool {
	if m.sameShape(o) != nil {
		return false
	}
	return floats.EqualApprox(m.data, o.data, tol)
}

// IsBoundary reports whether (i, j) is on the outer edge of the matrix
func (m *Matrix) IsBoundary(i, j int) bool {
	return i == 0 || j == 0 || i == m.Rows-1 || j == m.Cols-1
}

// BoundaryEqual reports whether every boundary cell of m equals the one in o
func (m *Matrix) BoundaryEqual(o *Matrix) bool {
	if m.sameShape(o) != nil {
		return false
	}
	last := m.Rows - 1
	if !floats.Equal(m.Row(0), o.Row(0)) || !floats.Equal(m.Row(last), o.Row(last)) {
		return false
	}
	for i := 1; i < last; i++ {
		if m.At(i, 0) != o.At(i, 0) || m.At(i, m.Cols-1) != o.At(i, m.Cols-1) {
			return false
		}
	}
	return true
}

// Fill sets the boundary cells from b and every interior cell to initial.
func (m *Matrix) Fill(b Boundary, initial float64) {
	for i := 0; i < m.Rows; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] = initial
		}
		row[0] = b.Left
		row[m.Cols-1] = b.Right
	}
	top, bottom := m.Row(0), m.Row(m.Rows-1)
	for j := 0; j < m.Cols; j++ {
		top[j] = b.Top
		bottom[j] = b.Bottom
	}
}

// Plate holds the two buffers of the iteration and the index of the buffer
// currently playing the "current" role.
type Plate struct {
	bufs [2]*Matrix
	cur  int
}

// NewPlate allocates both buffers and seeds them with the boundary values and
// the initial interior value.
// Can return the following errors:
// - InvalidShape
func NewPlate(rows, cols int, b Boundary, initial float64) (*Plate, error) {
	if rows < MinSize || cols < MinSize {
		return nil, InvalidShape{rows, cols}
	}
	p := new(Plate)
	for k := range p.bufs {
		p.bufs[k] = NewMatrix(rows, cols)
		p.bufs[k].Fill(b, initial)
	}
	return p, nil
}

// NewPlateFrom builds a plate whose two buffers are copies of a caller seeded
// matrix. The caller keeps ownership of seed.
// Can return the following errors:
// - InvalidShape
func NewPlateFrom(seed *Matrix) (*Plate, error) {
	if seed == nil {
		return nil, InvalidShape{0, 0}
	}
	if seed.Rows < MinSize || seed.Cols < MinSize {
		return nil, InvalidShape{seed.Rows, seed.Cols}
	}
	p := new(Plate)
	p.bufs[0] = seed.Clone()
	p.bufs[1] = seed.Clone()
	return p, nil
}

// Rows returns the number of rows of both buffers
func (p *Plate) Rows() int { return p.bufs[0].Rows }

// Cols returns the number of columns of both buffers
func (p *Plate) Cols() int { return p.bufs[0].Cols }

// Current returns the buffer read during this cycle
func (p *Plate) Current() *Matrix {
	return p.bufs[p.cur]
}

// Next returns the buffer written during this cycle
func (p *Plate) Next() *Matrix {
	return p.bufs[1-p.cur]
}

// Swap exchanges the roles of the two buffers
func (p *Plate) Swap() {
	p.cur = 1 - p.cur
}

// BoundaryIntact reports whether both buffers still carry the boundary of ref
func (p *Plate) BoundaryIntact(ref *Matrix) bool {
	return p.bufs[0].BoundaryEqual(ref) && p.bufs[1].BoundaryEqual(ref)
}
