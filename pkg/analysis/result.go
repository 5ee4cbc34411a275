package analysis

import (
	"math"

	"electrosolve/internal/consts"
	"electrosolve/pkg/circuit"
	"electrosolve/pkg/device"
	"electrosolve/pkg/diag"
)

// ComponentResult carries the derived quantities for one component.
// Voltage is always V(terminal 0) - V(terminal 1). Current stays unknown
// for voltage sources (nodal analysis does not solve their branch
// current) and for zero-ohm elements.
type ComponentResult struct {
	Voltage      float64
	Current      float64
	VoltageKnown bool
	CurrentKnown bool
}

// Result is the immutable outcome of one numeric solve.
type Result struct {
	Solution     []float64          // dense potentials indexed per the node map
	NodeVoltages map[string]float64 // every node by name, ground at exactly 0.0
	Components   map[string]ComponentResult
}

func evaluate(ckt *circuit.Circuit, solution []float64, rec *diag.Recorder) *Result {
	ground, _ := ckt.Ground()

	res := &Result{
		Solution:     solution,
		NodeVoltages: map[string]float64{ground: 0.0},
		Components:   make(map[string]ComponentResult, len(ckt.Components())),
	}
	for name, idx := range ckt.NodeMap() {
		res.NodeVoltages[name] = solution[idx]
	}

	for _, dev := range ckt.Components() {
		nodeNames := dev.GetNodeNames()
		v1, ok1 := res.NodeVoltages[nodeNames[0]]
		v2, ok2 := res.NodeVoltages[nodeNames[1]]
		if !ok1 || !ok2 {
			rec.Warn("component references a node with no solved voltage",
				"component", dev.GetName(), "nodes", nodeNames)
			res.Components[dev.GetName()] = ComponentResult{}
			continue
		}

		cr := ComponentResult{Voltage: v1 - v2, VoltageKnown: true}
		switch d := dev.(type) {
		case *device.Resistor:
			if d.GetValue() == 0 {
				// Ideal wire: V/R is undefined, current stays unknown.
				if math.Abs(cr.Voltage) > consts.ZeroVoltageTol {
					rec.Warn("non-zero voltage across zero-ohm resistor",
						"component", d.GetName(), "voltage", cr.Voltage)
				}
			} else {
				cr.Current = cr.Voltage / d.GetValue()
				cr.CurrentKnown = true
			}
		case *device.CurrentSource:
			cr.Current = d.GetValue()
			cr.CurrentKnown = true
		case *device.VoltageSource:
			// current not determinable by nodal analysis
		}
		res.Components[dev.GetName()] = cr
	}

	return res
}

// solveGroundOnly handles the degenerate network with no non-ground
// nodes: no system is built, every component sits at 0 V relative to
// ground. Sources that cannot consistently sit across ground are
// diagnosed, not failed.
func solveGroundOnly(ckt *circuit.Circuit, rec *diag.Recorder) *Result {
	ground, _ := ckt.Ground()
	res := &Result{
		Solution:     []float64{},
		NodeVoltages: map[string]float64{ground: 0.0},
		Components:   make(map[string]ComponentResult, len(ckt.Components())),
	}

	for _, dev := range ckt.Components() {
		nodeNames := dev.GetNodeNames()
		if nodeNames[0] != ground || nodeNames[1] != ground {
			rec.Warn("component connects to a non-ground node but the circuit has no unknowns",
				"component", dev.GetName(), "nodes", nodeNames)
			res.Components[dev.GetName()] = ComponentResult{}
			continue
		}

		cr := ComponentResult{Voltage: 0.0, VoltageKnown: true}
		switch d := dev.(type) {
		case *device.Resistor:
			if d.GetValue() != 0 {
				cr.Current = 0.0
				cr.CurrentKnown = true
			}
		case *device.CurrentSource:
			cr.Current = d.GetValue()
			cr.CurrentKnown = true
			if d.GetValue() != 0 {
				rec.Warn("current source short-circuited across ground",
					"component", d.GetName(), "value", d.GetValue())
			}
		case *device.VoltageSource:
			if math.Abs(d.GetValue()) > consts.ZeroVoltageTol {
				rec.Warn("non-zero voltage source connected across ground",
					"component", d.GetName(), "value", d.GetValue())
			}
		}
		res.Components[dev.GetName()] = cr
	}

	return res
}
