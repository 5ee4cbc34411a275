// Package analysis runs the numeric DC solve: stamp the conductance
// system, pin the nodes fixed by grounded voltage sources, solve, then
// derive per-node and per-component results.
package analysis

import (
	"fmt"

	"electrosolve/pkg/circuit"
	"electrosolve/pkg/device"
	"electrosolve/pkg/diag"
	"electrosolve/pkg/matrix"
)

type Options struct {
	// StrictPins turns two voltage sources pinning the same node into
	// circuit.ErrPinConflict instead of last-writer-wins.
	StrictPins bool
}

// SolveDC computes all non-ground node potentials for a resistive DC
// network. The circuit must have its ground set and node map built; the
// circuit itself is never modified and repeated calls return fresh,
// independent results.
func SolveDC(ckt *circuit.Circuit, opt Options, rec *diag.Recorder) (*Result, error) {
	if _, ok := ckt.Ground(); !ok {
		return nil, circuit.ErrGroundUnset
	}
	if !ckt.NodeMapBuilt() {
		return nil, circuit.ErrNodeMapStale
	}

	n := ckt.NumNodes()
	if n == 0 {
		return solveGroundOnly(ckt, rec), nil
	}

	m, err := matrix.NewMatrix(n)
	if err != nil {
		return nil, err
	}
	defer m.Destroy()

	for _, dev := range ckt.Components() {
		if err := dev.Stamp(m); err != nil {
			return nil, err
		}
	}

	if err := pinVoltageSources(ckt, m, opt, rec); err != nil {
		return nil, err
	}

	if err := m.Solve(); err != nil {
		return nil, err
	}

	return evaluate(ckt, m.Solution(), rec), nil
}

// pinVoltageSources overwrites one matrix row per grounded voltage
// source. When several sources pin the same node the one added last wins,
// matching insertion order, and the overwrite is diagnosed.
func pinVoltageSources(ckt *circuit.Circuit, m *matrix.CircuitMatrix, opt Options, rec *diag.Recorder) error {
	nodeName := make(map[int]string, ckt.NumNodes())
	for name, idx := range ckt.NodeMap() {
		nodeName[idx] = name
	}

	pinnedBy := make(map[int]string)
	for _, dev := range ckt.Components() {
		vs, ok := dev.(*device.VoltageSource)
		if !ok {
			continue
		}
		node, value, ok := vs.Pin()
		if !ok {
			continue
		}
		if prev, dup := pinnedBy[node]; dup {
			if opt.StrictPins {
				return fmt.Errorf("%w: %s and %s both pin node %s",
					circuit.ErrPinConflict, prev, vs.GetName(), nodeName[node])
			}
			rec.Warn("node pinned by multiple voltage sources, later source wins",
				"node", nodeName[node], "kept", vs.GetName(), "overwritten", prev)
		}
		pinnedBy[node] = vs.GetName()
		m.PinRow(node, value)
	}
	return nil
}
