package util

import (
	"fmt"
	"math"
)

// FormatValueFactor scales a value into an engineering-friendly range and
// appends the magnitude prefix plus unit, e.g. 0.003 A -> "3.000 mA".
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case value == 0:
		return fmt.Sprintf("0.000 %s", unit)
	case absValue >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// FormatVoltage prints plain volts; node potentials read better unscaled.
func FormatVoltage(value float64) string {
	return fmt.Sprintf("%.4f V", value)
}
