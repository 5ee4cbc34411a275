package device

import (
	"fmt"

	"electrosolve/pkg/matrix"
)

type Resistor struct {
	BaseDevice
}

func NewResistor(name string, nodeNames []string, value float64) (*Resistor, error) {
	base, err := newBase(name, value, nodeNames)
	if err != nil {
		return nil, err
	}
	if value <= 0 {
		return nil, fmt.Errorf("resistor %s: value must be positive, got %g", name, value)
	}
	return &Resistor{BaseDevice: base}, nil
}

func (r *Resistor) GetType() string { return "R" }

// Stamp adds the symmetric conductance pattern: +g on both diagonals,
// -g on the off-diagonals when neither terminal is ground.
func (r *Resistor) Stamp(m matrix.DeviceMatrix) error {
	n1, n2 := r.Nodes[0], r.Nodes[1]
	g := 1.0 / r.Value

	if n1 != GroundIndex {
		m.AddElement(n1, n1, g)
		if n2 != GroundIndex {
			m.AddElement(n1, n2, -g)
		}
	}
	if n2 != GroundIndex {
		m.AddElement(n2, n2, g)
		if n1 != GroundIndex {
			m.AddElement(n2, n1, -g)
		}
	}
	return nil
}
