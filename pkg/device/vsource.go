package device

import (
	"errors"
	"fmt"

	"electrosolve/pkg/matrix"
)

// ErrFloatingSource reports a voltage source with neither terminal on the
// reference node. Solving those needs branch-current unknowns, which this
// restricted nodal formulation does not carry.
var ErrFloatingSource = errors.New("floating voltage source is not supported")

// VoltageSource is an ideal DC source asserting
// V(terminal 0) - V(terminal 1) = Value, terminal 0 positive.
type VoltageSource struct {
	BaseDevice
}

func NewDCVoltageSource(name string, nodeNames []string, value float64) (*VoltageSource, error) {
	base, err := newBase(name, value, nodeNames)
	if err != nil {
		return nil, err
	}
	return &VoltageSource{BaseDevice: base}, nil
}

func (v *VoltageSource) GetType() string { return "V" }

// Stamp contributes nothing to the conductance pattern; the constraint is
// applied afterwards by pinning the row of the non-ground terminal. It
// does reject floating sources so the failure happens during stamping,
// before any solve.
func (v *VoltageSource) Stamp(m matrix.DeviceMatrix) error {
	if v.Nodes[0] != GroundIndex && v.Nodes[1] != GroundIndex {
		return fmt.Errorf("voltage source %s (%s-%s): %w",
			v.Name, v.NodeNames[0], v.NodeNames[1], ErrFloatingSource)
	}
	return nil
}

// Pin reports the node index whose potential this source fixes and the
// signed value to assign: +Value when the non-ground terminal is the
// positive one, -Value otherwise. ok is false when both terminals sit on
// ground and there is nothing to pin.
func (v *VoltageSource) Pin() (node int, value float64, ok bool) {
	switch {
	case v.Nodes[0] != GroundIndex && v.Nodes[1] == GroundIndex:
		return v.Nodes[0], v.Value, true
	case v.Nodes[0] == GroundIndex && v.Nodes[1] != GroundIndex:
		return v.Nodes[1], -v.Value, true
	}
	return GroundIndex, 0, false
}
