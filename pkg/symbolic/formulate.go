// Package symbolic mirrors the numeric stamping engine algebraically:
// node voltages and component values become named symbols, grounded
// voltage sources become explicit definitions and every remaining
// non-ground node gets a Kirchhoff current-law equation. Substituting
// numeric values and solving the residue reproduces the numeric result.
package symbolic

import (
	"fmt"
	"regexp"
	"sort"

	"electrosolve/pkg/circuit"
	"electrosolve/pkg/device"
	"electrosolve/pkg/diag"

	sym "github.com/njchilds90/gosymbol"
)

type Options struct {
	// StrictPins mirrors the numeric option: error out instead of
	// last-writer-wins when two sources pin the same node.
	StrictPins bool
}

// Formulation is the algebraic description of a circuit.
type Formulation struct {
	NodeSymbols      map[string]string // node name -> voltage symbol name (V_...)
	ComponentSymbols map[string]string // component id -> value symbol name (R_/V_/I_...)
	ExplicitDefs     map[string]sym.Expr
	KCL              map[string]sym.Expr // sum of currents leaving the node, == 0
}

const nodeSymbolPrefix = "V_"

var symbolSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sanitize(name string) string {
	return symbolSanitizer.ReplaceAllString(name, "_")
}

// NodeSymbolName is the naming convention for node-voltage unknowns.
func NodeSymbolName(node string) string {
	return nodeSymbolPrefix + sanitize(node)
}

func componentSymbolName(d device.Device) string {
	prefix := "Val"
	switch d.(type) {
	case *device.Resistor:
		prefix = "R"
	case *device.VoltageSource:
		prefix = "V"
	case *device.CurrentSource:
		prefix = "I"
	}
	return prefix + "_" + sanitize(d.GetName())
}

// Formulate builds the symbol tables and equations for a circuit with
// ground set and node map built. Floating voltage sources fail the same
// way they do during numeric stamping.
func Formulate(ckt *circuit.Circuit, opt Options, rec *diag.Recorder) (*Formulation, error) {
	if _, ok := ckt.Ground(); !ok {
		return nil, circuit.ErrGroundUnset
	}
	if !ckt.NodeMapBuilt() {
		return nil, circuit.ErrNodeMapStale
	}

	f := &Formulation{
		NodeSymbols:      make(map[string]string, ckt.NumNodes()),
		ComponentSymbols: make(map[string]string, len(ckt.Components())),
		ExplicitDefs:     make(map[string]sym.Expr),
		KCL:              make(map[string]sym.Expr),
	}

	nodes := make([]string, 0, ckt.NumNodes())
	for node := range ckt.NodeMap() {
		nodes = append(nodes, node)
		f.NodeSymbols[node] = NodeSymbolName(node)
	}
	sort.Strings(nodes)

	for _, dev := range ckt.Components() {
		name := componentSymbolName(dev)
		f.ComponentSymbols[dev.GetName()] = name
		for _, node := range nodes {
			if f.NodeSymbols[node] == name {
				rec.Warn("node voltage symbol collides with component value symbol",
					"symbol", name, "node", node, "component", dev.GetName())
			}
		}
	}

	if err := buildExplicitDefs(ckt, f, opt, rec); err != nil {
		return nil, err
	}

	ground, _ := ckt.Ground()
	// Effective potential of a node: ground is 0, pinned nodes use their
	// definition, everything else its own symbol.
	veff := func(node string) sym.Expr {
		if node == ground {
			return sym.N(0)
		}
		if def, pinned := f.ExplicitDefs[node]; pinned {
			return def
		}
		return sym.S(f.NodeSymbols[node])
	}

	for _, node := range nodes {
		if _, pinned := f.ExplicitDefs[node]; pinned {
			continue
		}
		f.KCL[node] = kclAt(ckt, f, node, veff)
	}

	return f, nil
}

func buildExplicitDefs(ckt *circuit.Circuit, f *Formulation, opt Options, rec *diag.Recorder) error {
	ground, _ := ckt.Ground()

	pinnedBy := make(map[string]string)
	for _, dev := range ckt.Components() {
		vs, ok := dev.(*device.VoltageSource)
		if !ok {
			continue
		}
		nodeNames := vs.GetNodeNames()
		atGround0 := nodeNames[0] == ground
		atGround1 := nodeNames[1] == ground
		if !atGround0 && !atGround1 {
			return fmt.Errorf("voltage source %s (%s-%s): %w",
				vs.GetName(), nodeNames[0], nodeNames[1], device.ErrFloatingSource)
		}
		if atGround0 && atGround1 {
			continue
		}

		node := nodeNames[0]
		def := sym.Expr(sym.S(f.ComponentSymbols[vs.GetName()]))
		if atGround0 {
			node = nodeNames[1]
			def = sym.MulOf(sym.N(-1), def)
		}

		if prev, dup := pinnedBy[node]; dup {
			if opt.StrictPins {
				return fmt.Errorf("%w: %s and %s both pin node %s",
					circuit.ErrPinConflict, prev, vs.GetName(), node)
			}
			rec.Warn("node pinned by multiple voltage sources, later definition wins",
				"node", node, "kept", vs.GetName(), "overwritten", prev)
		}
		pinnedBy[node] = vs.GetName()
		f.ExplicitDefs[node] = def
	}
	return nil
}

// kclAt sums the currents leaving a node: Ohm's-law terms for resistors
// and signed value symbols for current sources. Voltage sources
// contribute nothing once their pinning is folded into the effective map.
func kclAt(ckt *circuit.Circuit, f *Formulation, node string, veff func(string) sym.Expr) sym.Expr {
	var terms []sym.Expr
	for _, dev := range ckt.Components() {
		nodeNames := dev.GetNodeNames()
		switch d := dev.(type) {
		case *device.Resistor:
			var other string
			switch node {
			case nodeNames[0]:
				other = nodeNames[1]
			case nodeNames[1]:
				other = nodeNames[0]
			default:
				continue
			}
			drop := sym.AddOf(veff(node), sym.MulOf(sym.N(-1), veff(other)))
			conductanceInv := sym.PowOf(sym.S(f.ComponentSymbols[d.GetName()]), sym.N(-1))
			terms = append(terms, sym.MulOf(drop, conductanceInv))
		case *device.CurrentSource:
			value := sym.Expr(sym.S(f.ComponentSymbols[d.GetName()]))
			if nodeNames[0] == node {
				terms = append(terms, value)
			}
			if nodeNames[1] == node {
				terms = append(terms, sym.MulOf(sym.N(-1), value))
			}
		}
	}
	return sym.AddOf(terms...)
}
