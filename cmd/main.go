package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"

	"electrosolve/internal/consts"
	"electrosolve/pkg/analysis"
	"electrosolve/pkg/circuit"
	"electrosolve/pkg/config"
	"electrosolve/pkg/diag"
	"electrosolve/pkg/netlist"
	"electrosolve/pkg/symbolic"
	"electrosolve/pkg/util"

	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("electrosolve", pflag.ExitOnError)
	flags.Bool("no-numeric", false, "skip the numeric solve")
	flags.Bool("no-symbolic", false, "skip symbolic formulation and solve")
	flags.Bool("strict-pins", false, "error when multiple voltage sources pin one node")
	flags.Bool("json", false, "emit numeric results as JSON")
	flags.CountP("verbose", "v", "increase log verbosity")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: electrosolve [flags] <circuit.json>\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	switch {
	case cfg.Verbose >= 2:
		level = slog.LevelDebug
	case cfg.Verbose == 1:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	rec := diag.NewRecorder(logger)

	ckt, err := netlist.Load(flags.Arg(0))
	if err != nil {
		logger.Error("loading circuit", "error", err)
		os.Exit(1)
	}
	logger.Info("circuit loaded",
		"title", ckt.Name(),
		"components", len(ckt.Components()),
		"nodes", len(ckt.NodeNames()),
		"unknowns", ckt.NumNodes())

	exit := 0
	if !cfg.NoSymbolic {
		if err := runSymbolic(ckt, cfg, rec); err != nil {
			logger.Error("symbolic analysis failed", "error", err)
			exit = 1
		}
	}
	if !cfg.NoNumeric {
		if err := runNumeric(ckt, cfg, rec); err != nil {
			logger.Error("numeric analysis failed", "error", err)
			exit = 1
		}
	}
	os.Exit(exit)
}

func runSymbolic(ckt *circuit.Circuit, cfg *config.Config, rec *diag.Recorder) error {
	f, err := symbolic.Formulate(ckt, symbolic.Options{StrictPins: cfg.StrictPins}, rec)
	if err != nil {
		return err
	}

	fmt.Println("\n--- Symbolic Formulation ---")

	if len(f.ComponentSymbols) > 0 {
		fmt.Println("\nComponent value symbols:")
		for _, id := range sortedKeys(f.ComponentSymbols) {
			fmt.Printf("  %s: %s\n", id, f.ComponentSymbols[id])
		}
	}
	if len(f.NodeSymbols) > 0 {
		fmt.Println("\nNode voltage symbols:")
		for _, node := range sortedKeys(f.NodeSymbols) {
			fmt.Printf("  %s: %s\n", node, f.NodeSymbols[node])
		}
	}
	if len(f.ExplicitDefs) > 0 {
		fmt.Println("\nExplicit definitions (grounded voltage sources):")
		for _, node := range sortedKeys(f.ExplicitDefs) {
			fmt.Printf("  %s = %s\n", f.NodeSymbols[node], f.ExplicitDefs[node].String())
		}
	}
	if len(f.KCL) > 0 {
		fmt.Println("\nKCL equations (sum of currents leaving = 0):")
		for _, node := range sortedKeys(f.KCL) {
			fmt.Printf("  at %s: %s = 0\n", node, f.KCL[node].String())
		}
	}

	sol, err := symbolic.Solve(ckt, f, rec)
	if err != nil {
		return err
	}

	fmt.Println("\nResolved node voltages (symbolic path):")
	for _, name := range sortedKeys(sol.Values) {
		fmt.Printf("  %s = %s\n", name, util.FormatVoltage(sol.Values[name]))
	}
	if !sol.Complete {
		fmt.Printf("\nSymbolic solve incomplete; unresolved: %v\n", sol.Missing)
	}
	return nil
}

func runNumeric(ckt *circuit.Circuit, cfg *config.Config, rec *diag.Recorder) error {
	res, err := analysis.SolveDC(ckt, analysis.Options{StrictPins: cfg.StrictPins}, rec)
	if err != nil {
		return err
	}
	if cfg.JSON {
		return json.NewEncoder(os.Stdout).Encode(struct {
			NodeVoltages map[string]float64                  `json:"node_voltages"`
			Components   map[string]analysis.ComponentResult `json:"components"`
		}{res.NodeVoltages, res.Components})
	}
	printNumeric(ckt, res)
	return nil
}

func printNumeric(ckt *circuit.Circuit, res *analysis.Result) {
	ground, _ := ckt.Ground()

	fmt.Println("\n--- Numeric DC Solution ---")
	fmt.Println("\nNode voltages:")
	names := make([]string, 0, len(res.NodeVoltages))
	for name := range res.NodeVoltages {
		names = append(names, name)
	}
	// Ground first, then lexicographic.
	sort.Slice(names, func(i, j int) bool {
		if (names[i] == ground) != (names[j] == ground) {
			return names[i] == ground
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		fmt.Printf("  V(%s) = %s\n", name, util.FormatVoltage(res.NodeVoltages[name]))
	}

	fmt.Println("\nComponents:")
	for _, dev := range ckt.Components() {
		cr := res.Components[dev.GetName()]
		nodes := dev.GetNodeNames()

		voltage := "N/A"
		if cr.VoltageKnown {
			voltage = util.FormatVoltage(cr.Voltage)
		}
		current := "N/A"
		if cr.CurrentKnown {
			v := cr.Current
			if math.Abs(v) < consts.CurrentFloor {
				v = 0
			}
			current = util.FormatValueFactor(v, "A")
		}

		fmt.Printf("  %s (%s) value=%g nodes=[%s %s]\n",
			dev.GetName(), kindLabel(dev.GetType()), dev.GetValue(), nodes[0], nodes[1])
		fmt.Printf("    voltage drop (%s to %s): %s\n", nodes[0], nodes[1], voltage)
		fmt.Printf("    current: %s\n", current)
	}
}

func kindLabel(devType string) string {
	switch devType {
	case "R":
		return "Resistor"
	case "V":
		return "VoltageSourceDC"
	case "I":
		return "CurrentSourceDC"
	}
	return devType
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
