// Package device holds the two-terminal component kinds a circuit is
// built from: resistors and ideal DC voltage/current sources. Each kind
// knows how to stamp itself into the conductance system.
package device

import (
	"fmt"

	"electrosolve/pkg/matrix"
)

// GroundIndex marks a terminal connected to the reference node.
const GroundIndex = -1

type Device interface {
	GetName() string
	GetType() string
	GetValue() float64
	GetNodeNames() []string
	GetNodes() []int
	SetNodes(nodes []int)
	Stamp(m matrix.DeviceMatrix) error
}

type BaseDevice struct {
	Name      string
	Value     float64
	NodeNames []string
	Nodes     []int
}

func newBase(name string, value float64, nodeNames []string) (BaseDevice, error) {
	if name == "" {
		return BaseDevice{}, fmt.Errorf("component must have a non-empty id")
	}
	if len(nodeNames) != 2 {
		return BaseDevice{}, fmt.Errorf("component %s: must connect to exactly two nodes, got %v", name, nodeNames)
	}
	// Terminal indices are unknown until the circuit builds its node map.
	return BaseDevice{
		Name:      name,
		Value:     value,
		NodeNames: []string{nodeNames[0], nodeNames[1]},
		Nodes:     []int{GroundIndex, GroundIndex},
	}, nil
}

func (d *BaseDevice) GetName() string        { return d.Name }
func (d *BaseDevice) GetValue() float64      { return d.Value }
func (d *BaseDevice) GetNodeNames() []string { return d.NodeNames }
func (d *BaseDevice) GetNodes() []int        { return d.Nodes }
func (d *BaseDevice) SetNodes(nodes []int)   { d.Nodes = nodes }
