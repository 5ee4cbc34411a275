package device

import (
	"electrosolve/pkg/matrix"
)

// CurrentSource is an ideal DC source driving Value amperes from
// terminal 0 to terminal 1 through itself: the surrounding network sees
// that current drawn out of terminal 0's node and injected into
// terminal 1's node.
type CurrentSource struct {
	BaseDevice
}

func NewDCCurrentSource(name string, nodeNames []string, value float64) (*CurrentSource, error) {
	base, err := newBase(name, value, nodeNames)
	if err != nil {
		return nil, err
	}
	return &CurrentSource{BaseDevice: base}, nil
}

func (c *CurrentSource) GetType() string { return "I" }

func (c *CurrentSource) Stamp(m matrix.DeviceMatrix) error {
	n1, n2 := c.Nodes[0], c.Nodes[1]
	if n1 != GroundIndex {
		m.AddRHS(n1, -c.Value)
	}
	if n2 != GroundIndex {
		m.AddRHS(n2, c.Value)
	}
	return nil
}
