package circuit

import "errors"

var (
	// ErrGroundUnset: analysis needs a reference node before anything else.
	ErrGroundUnset = errors.New("ground node is not set")

	// ErrGroundConflict: the reference node is fixed once per circuit.
	ErrGroundConflict = errors.New("ground node already set")

	// ErrNodeMapStale: components were added after the last BuildNodeMap.
	ErrNodeMapStale = errors.New("node map not built for current topology")

	// ErrPinConflict is returned by the analysis passes in strict mode when
	// two voltage sources pin the same node. Outside strict mode the later
	// source wins and a diagnostic is recorded.
	ErrPinConflict = errors.New("conflicting voltage-source pins")
)
