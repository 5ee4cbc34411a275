// Package netlist loads a circuit from its JSON description:
//
//	{
//	  "title": "optional",
//	  "components": [
//	    {"id": "R1", "type": "resistor", "value": 1000, "nodes": ["N1", "GND"]}
//	  ],
//	  "ground_node": "GND"
//	}
//
// Component values are JSON numbers or strings with a magnitude suffix
// ("4.7k", "10meg"). The returned circuit has its ground set and node map
// built.
package netlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"electrosolve/pkg/circuit"
	"electrosolve/pkg/device"
)

type componentJSON struct {
	ID    string          `json:"id"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
	Nodes []string        `json:"nodes"`
}

type circuitJSON struct {
	Title      string          `json:"title"`
	Components []componentJSON `json:"components"`
	GroundNode string          `json:"ground_node"`
}

var unitMap = map[string]float64{
	"T":   1e12,
	"G":   1e9,
	"meg": 1e6,
	"K":   1e3,
	"k":   1e3,
	"m":   1e-3,
	"u":   1e-6,
	"n":   1e-9,
	"p":   1e-12,
	"f":   1e-15,
}

func Load(path string) (*circuit.Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading circuit file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*circuit.Circuit, error) {
	var doc circuitJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid circuit JSON: %w", err)
	}
	if doc.Components == nil {
		return nil, errors.New("circuit definition must contain a components list")
	}
	if doc.GroundNode == "" {
		return nil, errors.New("circuit definition must specify a ground_node")
	}

	ckt := circuit.New(doc.Title)
	seen := make(map[string]struct{}, len(doc.Components))
	for _, cj := range doc.Components {
		if cj.ID == "" {
			return nil, errors.New("component is missing an id")
		}
		if _, dup := seen[cj.ID]; dup {
			return nil, fmt.Errorf("duplicate component id %q, ids must be unique", cj.ID)
		}
		seen[cj.ID] = struct{}{}

		if len(cj.Nodes) != 2 {
			return nil, fmt.Errorf("component %q: nodes must list exactly two node names, got %v", cj.ID, cj.Nodes)
		}
		value, err := parseValue(cj.Value)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", cj.ID, err)
		}

		var dev device.Device
		switch strings.ToLower(cj.Type) {
		case "resistor":
			dev, err = device.NewResistor(cj.ID, cj.Nodes, value)
		case "voltagesourcedc", "voltagesource":
			dev, err = device.NewDCVoltageSource(cj.ID, cj.Nodes, value)
		case "currentsourcedc", "currentsource":
			dev, err = device.NewDCCurrentSource(cj.ID, cj.Nodes, value)
		default:
			return nil, fmt.Errorf("component %q: unknown type %q", cj.ID, cj.Type)
		}
		if err != nil {
			return nil, err
		}
		ckt.AddComponent(dev)
	}

	if err := ckt.SetGround(doc.GroundNode); err != nil {
		return nil, err
	}
	if err := ckt.BuildNodeMap(); err != nil {
		return nil, err
	}
	return ckt, nil
}

func parseValue(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, errors.New("missing value field")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.New("value must be a number or a magnitude string")
	}
	return parseMagnitude(s)
}

// parseMagnitude reads "4.7k" style values. "meg" is matched before the
// single-letter suffixes so it does not read as milli.
func parseMagnitude(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	if base, ok := strings.CutSuffix(s, "meg"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(base), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid value %q", s)
		}
		return v * unitMap["meg"], nil
	}
	for suffix, factor := range unitMap {
		if suffix == "meg" {
			continue
		}
		base, ok := strings.CutSuffix(s, suffix)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(base), 64)
		if err != nil {
			continue
		}
		return v * factor, nil
	}
	return 0, fmt.Errorf("invalid value %q", s)
}
