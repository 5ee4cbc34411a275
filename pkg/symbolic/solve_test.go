package symbolic

import (
	"errors"
	"math"
	"testing"

	"electrosolve/internal/consts"
	"electrosolve/pkg/analysis"
	"electrosolve/pkg/circuit"
	"electrosolve/pkg/device"
	"electrosolve/pkg/diag"
	"electrosolve/pkg/matrix"
)

func solvePipeline(t *testing.T, ckt *circuit.Circuit) *Solution {
	t.Helper()
	rec := diag.NewRecorder(nil)
	f, err := Formulate(ckt, Options{}, rec)
	if err != nil {
		t.Fatal(err)
	}
	sol, err := Solve(ckt, f, rec)
	if err != nil {
		t.Fatal(err)
	}
	return sol
}

// checkAgreement solves the circuit both ways and requires every node
// voltage to match.
func checkAgreement(t *testing.T, ckt *circuit.Circuit) {
	t.Helper()
	numeric, err := analysis.SolveDC(ckt, analysis.Options{}, diag.NewRecorder(nil))
	if err != nil {
		t.Fatal(err)
	}
	sol := solvePipeline(t, ckt)
	if !sol.Complete {
		t.Fatalf("symbolic solve incomplete, missing %v", sol.Missing)
	}
	for node := range ckt.NodeMap() {
		want := numeric.NodeVoltages[node]
		got, ok := sol.Voltage(node)
		if !ok {
			t.Fatalf("symbolic solve has no value for %s", node)
		}
		if math.Abs(got-want) > consts.AgreementTol {
			t.Errorf("V(%s): symbolic %g, numeric %g", node, got, want)
		}
	}
}

func TestSolveDividerMatchesNumeric(t *testing.T) {
	ckt := buildDivider(t)
	checkAgreement(t, ckt)

	sol := solvePipeline(t, ckt)
	if v, ok := sol.Voltage("N1"); !ok || math.Abs(v-9) > consts.AgreementTol {
		t.Errorf("V(N1) = %g, want 9", v)
	}
	if v, ok := sol.Voltage("N2"); !ok || math.Abs(v-6) > consts.AgreementTol {
		t.Errorf("V(N2) = %g, want 6", v)
	}
}

func TestSolveCurrentSourceMatchesNumeric(t *testing.T) {
	ckt := circuit.New("isource")
	is, err := device.NewDCCurrentSource("Is1", []string{"N1", "GND"}, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	r1, err := device.NewResistor("R1", []string{"N1", "GND"}, 500)
	if err != nil {
		t.Fatal(err)
	}
	ckt.AddComponent(is)
	ckt.AddComponent(r1)
	if err := ckt.SetGround("GND"); err != nil {
		t.Fatal(err)
	}
	if err := ckt.BuildNodeMap(); err != nil {
		t.Fatal(err)
	}

	checkAgreement(t, ckt)

	sol := solvePipeline(t, ckt)
	if v, _ := sol.Voltage("N1"); math.Abs(v-(-5)) > consts.AgreementTol {
		t.Errorf("V(N1) = %g, want -5", v)
	}
}

func TestSolveLadderMatchesNumeric(t *testing.T) {
	ckt := circuit.New("ladder")
	add := func(dev device.Device, err error) {
		if err != nil {
			t.Fatal(err)
		}
		ckt.AddComponent(dev)
	}
	add(device.NewDCVoltageSource("Vs1", []string{"N1", "GND"}, 12))
	add(device.NewResistor("R1", []string{"N1", "N2"}, 1000))
	add(device.NewResistor("R2", []string{"N2", "N3"}, 2200))
	add(device.NewResistor("R3", []string{"N3", "GND"}, 4700))
	add(device.NewResistor("R4", []string{"N2", "GND"}, 3300))
	add(device.NewDCCurrentSource("Is1", []string{"N3", "GND"}, 0.001))
	if err := ckt.SetGround("GND"); err != nil {
		t.Fatal(err)
	}
	if err := ckt.BuildNodeMap(); err != nil {
		t.Fatal(err)
	}

	checkAgreement(t, ckt)
}

func TestSolveConflictingPinsLastWriterWins(t *testing.T) {
	ckt := circuit.New("conflict")
	add := func(dev device.Device, err error) {
		if err != nil {
			t.Fatal(err)
		}
		ckt.AddComponent(dev)
	}
	add(device.NewDCVoltageSource("Vs1", []string{"N1", "GND"}, 9))
	add(device.NewDCVoltageSource("Vs2", []string{"N1", "GND"}, 5))
	if err := ckt.SetGround("GND"); err != nil {
		t.Fatal(err)
	}
	if err := ckt.BuildNodeMap(); err != nil {
		t.Fatal(err)
	}

	sol := solvePipeline(t, ckt)
	if v, ok := sol.Voltage("N1"); !ok || math.Abs(v-5) > consts.AgreementTol {
		t.Errorf("V(N1) = %g, want 5 (last source wins)", v)
	}
}

func TestSolveSingularReducedSystem(t *testing.T) {
	// Same island as the numeric path: both pipelines fail with the same
	// error class.
	ckt := circuit.New("island")
	r1, err := device.NewResistor("R1", []string{"A", "B"}, 100)
	if err != nil {
		t.Fatal(err)
	}
	ckt.AddComponent(r1)
	if err := ckt.SetGround("C"); err != nil {
		t.Fatal(err)
	}
	if err := ckt.BuildNodeMap(); err != nil {
		t.Fatal(err)
	}

	rec := diag.NewRecorder(nil)
	f, err := Formulate(ckt, Options{}, rec)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Solve(ckt, f, rec)
	if !errors.Is(err, matrix.ErrSingular) {
		t.Errorf("error = %v, want ErrSingular", err)
	}
}

func TestSolveEmptyCircuit(t *testing.T) {
	ckt := circuit.New("blank")
	if err := ckt.SetGround("GND"); err != nil {
		t.Fatal(err)
	}
	if err := ckt.BuildNodeMap(); err != nil {
		t.Fatal(err)
	}

	sol := solvePipeline(t, ckt)
	if !sol.Complete {
		t.Errorf("empty circuit incomplete, missing %v", sol.Missing)
	}
	if len(sol.Values) != 0 {
		t.Errorf("values = %v, want none", sol.Values)
	}
}

func TestSolveSubstitutedEquationsAreNumeric(t *testing.T) {
	ckt := buildDivider(t)
	sol := solvePipeline(t, ckt)

	def, ok := sol.SubstitutedDefs["N1"]
	if !ok {
		t.Fatal("no substituted definition for N1")
	}
	num, ok := def.Eval()
	if !ok {
		t.Fatalf("substituted definition not numeric: %s", def.String())
	}
	if math.Abs(num.Float64()-9) > consts.AgreementTol {
		t.Errorf("substituted N1 definition = %g, want 9", num.Float64())
	}

	if _, ok := sol.SubstitutedKCL["N2"]; !ok {
		t.Error("no substituted KCL equation for N2")
	}
}
