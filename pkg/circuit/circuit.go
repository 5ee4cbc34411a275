// Package circuit is the network model: an ordered component list, the
// node name set, the reference node and the dense index map the solvers
// work against. It does bookkeeping and invariant enforcement only; the
// analysis packages own the actual solving.
package circuit

import (
	"fmt"
	"sort"

	"electrosolve/pkg/device"
)

type Circuit struct {
	name      string
	devices   []device.Device
	nodes     map[string]struct{}
	ground    string
	groundSet bool
	nodeMap   map[string]int
	mapBuilt  bool
}

func New(name string) *Circuit {
	return &Circuit{
		name:  name,
		nodes: make(map[string]struct{}),
	}
}

func (c *Circuit) Name() string { return c.name }

// AddComponent appends a component, registers its terminal names and
// invalidates the node map. Insertion order is preserved; the pinning
// passes rely on it for last-writer-wins tie-breaking.
func (c *Circuit) AddComponent(d device.Device) {
	c.devices = append(c.devices, d)
	for _, n := range d.GetNodeNames() {
		c.nodes[n] = struct{}{}
	}
	c.mapBuilt = false
}

// SetGround fixes the reference node. Setting it again to the same name
// is a no-op; a different name is an error.
func (c *Circuit) SetGround(name string) error {
	if c.groundSet {
		if c.ground != name {
			return fmt.Errorf("%w to %q, cannot re-assign to %q", ErrGroundConflict, c.ground, name)
		}
		return nil
	}
	c.nodes[name] = struct{}{}
	c.ground = name
	c.groundSet = true
	c.mapBuilt = false
	return nil
}

func (c *Circuit) Ground() (string, bool) { return c.ground, c.groundSet }

// BuildNodeMap assigns dense indices 0..N-1 to the non-ground nodes in
// lexicographic order and distributes terminal indices to every component
// (ground terminals get device.GroundIndex). Must be re-run after any
// AddComponent.
func (c *Circuit) BuildNodeMap() error {
	if !c.groundSet {
		return ErrGroundUnset
	}

	names := make([]string, 0, len(c.nodes))
	for n := range c.nodes {
		if n != c.ground {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	c.nodeMap = make(map[string]int, len(names))
	for i, n := range names {
		c.nodeMap[n] = i
	}

	for _, d := range c.devices {
		nodeNames := d.GetNodeNames()
		indices := make([]int, len(nodeNames))
		for i, n := range nodeNames {
			if n == c.ground {
				indices[i] = device.GroundIndex
				continue
			}
			indices[i] = c.nodeMap[n]
		}
		d.SetNodes(indices)
	}

	c.mapBuilt = true
	return nil
}

func (c *Circuit) NodeMapBuilt() bool { return c.mapBuilt }

// NodeMap returns the live name-to-index map; callers must not mutate it.
func (c *Circuit) NodeMap() map[string]int { return c.nodeMap }

func (c *Circuit) NodeIndex(name string) (int, bool) {
	idx, ok := c.nodeMap[name]
	return idx, ok
}

// NumNodes is the count of non-ground nodes, the dimension of the
// conductance system.
func (c *Circuit) NumNodes() int { return len(c.nodeMap) }

func (c *Circuit) Components() []device.Device { return c.devices }

// Component looks a component up by exact id. Returns nil when absent so
// presentation layers can handle "not found" without an error path.
func (c *Circuit) Component(id string) device.Device {
	for _, d := range c.devices {
		if d.GetName() == id {
			return d
		}
	}
	return nil
}

// NodeNames returns every known node name sorted, ground included.
func (c *Circuit) NodeNames() []string {
	names := make([]string, 0, len(c.nodes))
	for n := range c.nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
