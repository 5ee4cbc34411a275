package matrix

// DeviceMatrix is what a component sees while stamping. Indices are
// 0-based non-ground node indices; stamps for ground terminals are the
// component's responsibility to skip.
type DeviceMatrix interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
}
