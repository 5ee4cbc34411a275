package consts

const (
	ZeroVoltageTol = 1e-9  // voltages below this count as zero across an ideal wire
	AgreementTol   = 1e-9  // numeric vs symbolic node-voltage agreement
	CurrentFloor   = 1e-12 // currents below this display as zero
)
