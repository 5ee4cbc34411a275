package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds the CLI options.
type Config struct {
	NoNumeric  bool `koanf:"no-numeric"`
	NoSymbolic bool `koanf:"no-symbolic"`
	StrictPins bool `koanf:"strict-pins"`
	JSON       bool `koanf:"json"`
	Verbose    int  `koanf:"verbose"`
}

// Load layers configuration sources. Priority: flags > env > config file
// > defaults. Env vars use the ELECTROSOLVE_ prefix with underscores for
// dashes (ELECTROSOLVE_STRICT_PINS=true).
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"no-numeric":  false,
		"no-symbolic": false,
		"strict-pins": false,
		"json":        false,
		"verbose":     0,
	}
	if err := k.Load(mapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Optional config file next to the invocation.
	_ = k.Load(file.Provider("electrosolve.toml"), toml.Parser())

	if err := k.Load(env.Provider("ELECTROSOLVE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "ELECTROSOLVE_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

type staticProvider struct {
	m map[string]interface{}
}

func mapProvider(m map[string]interface{}) *staticProvider {
	return &staticProvider{m: m}
}

func (p *staticProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *staticProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
