package symbolic

import (
	"errors"
	"math"
	"testing"

	"electrosolve/pkg/circuit"
	"electrosolve/pkg/device"
	"electrosolve/pkg/diag"

	sym "github.com/njchilds90/gosymbol"
)

func buildDivider(t *testing.T) *circuit.Circuit {
	t.Helper()
	ckt := circuit.New("divider")
	vs, err := device.NewDCVoltageSource("Vs1", []string{"N1", "GND"}, 9)
	if err != nil {
		t.Fatal(err)
	}
	r1, err := device.NewResistor("R1", []string{"N1", "N2"}, 1000)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := device.NewResistor("R2", []string{"N2", "GND"}, 2000)
	if err != nil {
		t.Fatal(err)
	}
	ckt.AddComponent(vs)
	ckt.AddComponent(r1)
	ckt.AddComponent(r2)
	if err := ckt.SetGround("GND"); err != nil {
		t.Fatal(err)
	}
	if err := ckt.BuildNodeMap(); err != nil {
		t.Fatal(err)
	}
	return ckt
}

// evalWith substitutes the given symbol values and evaluates.
func evalWith(t *testing.T, e sym.Expr, values map[string]float64) float64 {
	t.Helper()
	for name, v := range values {
		e = e.Sub(name, sym.NFloat(v))
	}
	num, ok := e.Simplify().Eval()
	if !ok {
		t.Fatalf("expression did not evaluate: %s", e.String())
	}
	return num.Float64()
}

func TestFormulateDivider(t *testing.T) {
	ckt := buildDivider(t)
	rec := diag.NewRecorder(nil)

	f, err := Formulate(ckt, Options{}, rec)
	if err != nil {
		t.Fatal(err)
	}

	if got := f.NodeSymbols["N1"]; got != "V_N1" {
		t.Errorf("N1 symbol = %q, want V_N1", got)
	}
	if got := f.ComponentSymbols["R1"]; got != "R_R1" {
		t.Errorf("R1 symbol = %q, want R_R1", got)
	}
	if got := f.ComponentSymbols["Vs1"]; got != "V_Vs1" {
		t.Errorf("Vs1 symbol = %q, want V_Vs1", got)
	}

	// N1 is pinned by Vs1, so it must have a definition and no KCL row.
	def, ok := f.ExplicitDefs["N1"]
	if !ok {
		t.Fatal("N1 has no explicit definition")
	}
	if _, ok := f.KCL["N1"]; ok {
		t.Error("pinned node N1 must not carry a KCL equation")
	}
	if got := evalWith(t, def, map[string]float64{"V_Vs1": 9}); got != 9 {
		t.Errorf("N1 definition evaluates to %g, want 9", got)
	}

	// N2 is the only unknown: its KCL balances the two resistor currents.
	kcl, ok := f.KCL["N2"]
	if !ok {
		t.Fatal("N2 has no KCL equation")
	}
	if len(f.KCL) != 1 {
		t.Errorf("KCL equations = %d, want 1", len(f.KCL))
	}
	residual := evalWith(t, kcl, map[string]float64{
		"V_Vs1": 9, "R_R1": 1000, "R_R2": 2000, "V_N2": 6,
	})
	if math.Abs(residual) > 1e-12 {
		t.Errorf("KCL at N2 with the exact solution = %g, want 0", residual)
	}
}

func TestFormulateReversedSourceNegatesDefinition(t *testing.T) {
	ckt := circuit.New("reversed")
	vs, err := device.NewDCVoltageSource("Vs1", []string{"GND", "N1"}, 9)
	if err != nil {
		t.Fatal(err)
	}
	r1, err := device.NewResistor("R1", []string{"N1", "GND"}, 1000)
	if err != nil {
		t.Fatal(err)
	}
	ckt.AddComponent(vs)
	ckt.AddComponent(r1)
	if err := ckt.SetGround("GND"); err != nil {
		t.Fatal(err)
	}
	if err := ckt.BuildNodeMap(); err != nil {
		t.Fatal(err)
	}

	f, err := Formulate(ckt, Options{}, diag.NewRecorder(nil))
	if err != nil {
		t.Fatal(err)
	}
	def, ok := f.ExplicitDefs["N1"]
	if !ok {
		t.Fatal("N1 has no explicit definition")
	}
	if got := evalWith(t, def, map[string]float64{"V_Vs1": 9}); got != -9 {
		t.Errorf("reversed definition evaluates to %g, want -9", got)
	}
}

func TestFormulateFloatingSource(t *testing.T) {
	ckt := circuit.New("floating")
	vs, err := device.NewDCVoltageSource("Vs1", []string{"A", "B"}, 5)
	if err != nil {
		t.Fatal(err)
	}
	ckt.AddComponent(vs)
	if err := ckt.SetGround("GND"); err != nil {
		t.Fatal(err)
	}
	if err := ckt.BuildNodeMap(); err != nil {
		t.Fatal(err)
	}

	_, err = Formulate(ckt, Options{}, diag.NewRecorder(nil))
	if !errors.Is(err, device.ErrFloatingSource) {
		t.Errorf("error = %v, want ErrFloatingSource", err)
	}
}

func TestFormulatePinConflict(t *testing.T) {
	build := func(t *testing.T) *circuit.Circuit {
		ckt := circuit.New("conflict")
		vs1, err := device.NewDCVoltageSource("Vs1", []string{"N1", "GND"}, 9)
		if err != nil {
			t.Fatal(err)
		}
		vs2, err := device.NewDCVoltageSource("Vs2", []string{"N1", "GND"}, 5)
		if err != nil {
			t.Fatal(err)
		}
		ckt.AddComponent(vs1)
		ckt.AddComponent(vs2)
		if err := ckt.SetGround("GND"); err != nil {
			t.Fatal(err)
		}
		if err := ckt.BuildNodeMap(); err != nil {
			t.Fatal(err)
		}
		return ckt
	}

	t.Run("last writer wins", func(t *testing.T) {
		rec := diag.NewRecorder(nil)
		f, err := Formulate(build(t), Options{}, rec)
		if err != nil {
			t.Fatal(err)
		}
		def := f.ExplicitDefs["N1"]
		if got := evalWith(t, def, map[string]float64{"V_Vs2": 5, "V_Vs1": 9}); got != 5 {
			t.Errorf("conflicted definition evaluates to %g, want 5 (last source)", got)
		}
		if len(rec.Warnings()) == 0 {
			t.Error("pin conflict produced no diagnostic")
		}
	})

	t.Run("strict", func(t *testing.T) {
		_, err := Formulate(build(t), Options{StrictPins: true}, diag.NewRecorder(nil))
		if !errors.Is(err, circuit.ErrPinConflict) {
			t.Errorf("error = %v, want ErrPinConflict", err)
		}
	})
}

func TestFormulateRequiresGroundAndMap(t *testing.T) {
	ckt := circuit.New("bare")
	r1, err := device.NewResistor("R1", []string{"A", "B"}, 100)
	if err != nil {
		t.Fatal(err)
	}
	ckt.AddComponent(r1)

	if _, err := Formulate(ckt, Options{}, diag.NewRecorder(nil)); !errors.Is(err, circuit.ErrGroundUnset) {
		t.Errorf("error = %v, want ErrGroundUnset", err)
	}
	if err := ckt.SetGround("A"); err != nil {
		t.Fatal(err)
	}
	if _, err := Formulate(ckt, Options{}, diag.NewRecorder(nil)); !errors.Is(err, circuit.ErrNodeMapStale) {
		t.Errorf("error = %v, want ErrNodeMapStale", err)
	}
}

func TestNodeSymbolNameSanitizes(t *testing.T) {
	if got := NodeSymbolName("out+"); got != "V_out_" {
		t.Errorf("NodeSymbolName(out+) = %q, want V_out_", got)
	}
}
