// Package matrix adapts the sparse LU solver to the conductance system
// G·v = I built by nodal stamping.
package matrix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edp1096/sparse"
)

// ErrSingular classifies a non-invertible conductance matrix. Typical
// causes are a floating sub-circuit, redundant or conflicting voltage
// sources, or a loop made only of current sources.
var ErrSingular = errors.New("singular conductance system")

// CircuitMatrix holds the N×N conductance matrix and the injected-current
// vector for the non-ground nodes of a circuit. External indices are
// 0-based; the sparse library underneath is 1-based.
type CircuitMatrix struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64
	solution []float64
	config   *sparse.Configuration
}

func NewMatrix(size int) (*CircuitMatrix, error) {
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	m := &CircuitMatrix{
		Size:   size,
		matrix: mat,
		rhs:    make([]float64, size+1), // 1-based
		config: config,
	}
	m.setupElements()
	return m, nil
}

// setupElements materializes every element so rows can later be
// overwritten in place by PinRow.
func (m *CircuitMatrix) setupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if i < 0 || j < 0 || i >= m.Size || j >= m.Size {
		return
	}
	m.matrix.GetElement(int64(i+1), int64(j+1)).Real += value
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if i < 0 || i >= m.Size {
		return
	}
	m.rhs[i+1] += value
}

// PinRow replaces row i with the constraint v[i] = value: the row is
// zeroed, the diagonal set to 1 and the RHS entry to value. This is how a
// grounded voltage source fixes its non-ground node.
func (m *CircuitMatrix) PinRow(i int, value float64) {
	if i < 0 || i >= m.Size {
		return
	}
	for j := 1; j <= m.Size; j++ {
		m.matrix.GetElement(int64(i+1), int64(j)).Real = 0
	}
	m.matrix.GetElement(int64(i+1), int64(i+1)).Real = 1
	m.rhs[i+1] = value
}

// Solve factors and solves the system. A singular matrix is reported as
// ErrSingular; anything else from the library is a plain numeric fault.
func (m *CircuitMatrix) Solve() error {
	if err := m.matrix.Factor(); err != nil {
		return m.classify(err)
	}
	solution, err := m.matrix.Solve(m.rhs)
	if err != nil {
		return m.classify(err)
	}
	m.solution = solution
	return nil
}

func (m *CircuitMatrix) classify(err error) error {
	if strings.Contains(err.Error(), "singular") {
		return fmt.Errorf("%w: check for floating sub-circuits, redundant or conflicting voltage sources, or a current-source-only loop (%v)", ErrSingular, err)
	}
	return fmt.Errorf("matrix solve failed: %v", err)
}

// Solution returns the solved node potentials as a 0-based vector.
func (m *CircuitMatrix) Solution() []float64 {
	if m.solution == nil {
		return nil
	}
	out := make([]float64, m.Size)
	for i := range out {
		out[i] = m.solution[i+1]
	}
	return out
}

func (m *CircuitMatrix) RHS() []float64 {
	out := make([]float64, m.Size)
	for i := range out {
		out[i] = m.rhs[i+1]
	}
	return out
}

func (m *CircuitMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
