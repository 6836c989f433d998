// Package config loads the system wiring from a YAML file: backend
// instances plus the three aggregator kinds (temperature/switch
// meta-inputs, relay meta-outputs) and the tick period, grounded on
// octoreflex's internal/config/config.go (yaml.v3-tagged structs,
// Load/Defaults split, absolute validation up front rather than
// defensive checks scattered through the wiring code).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"rwchcd-core/meta"
)

// System is the root configuration document.
type System struct {
	Tick          TickConfig               `yaml:"tick"`
	Backends      []BackendConfig          `yaml:"backends"`
	Temperatures  []TemperatureInputConfig `yaml:"temperature_inputs"`
	Switches      []SwitchInputConfig      `yaml:"switch_inputs"`
	RelayOutputs  []RelayOutputConfig      `yaml:"relay_outputs"`
}

type TickConfig struct {
	Period time.Duration `yaml:"period"`
}

// BackendConfig names one backend instance and its driver-specific
// parameters, handed verbatim to that backend's constructor.
type BackendConfig struct {
	Name   string         `yaml:"name"`
	Driver string         `yaml:"driver"`
	Params map[string]any `yaml:"params,omitempty"`
}

// ChanRef names a backend instance and one of its channels; config
// wiring resolves Backend to a BackendID via backend.Registry.IDOf
// once every backend has been registered.
type ChanRef struct {
	Backend string `yaml:"backend"`
	Chan    int    `yaml:"chan"`
}

type TemperatureInputConfig struct {
	Name         string    `yaml:"name"`
	Sources      []ChanRef `yaml:"sources"`
	Op           string    `yaml:"op"`      // first | min | max
	Missing      string    `yaml:"missing"` // fail | ignore | ignore_default
	DefaultValue float64   `yaml:"default_value"`
	Period       time.Duration `yaml:"period"`
}

type SwitchInputConfig struct {
	Name         string        `yaml:"name"`
	Sources      []ChanRef     `yaml:"sources"`
	Op           string        `yaml:"op"`      // first | and | or
	Missing      string        `yaml:"missing"` // fail | ignore | ignore_default
	DefaultValue bool          `yaml:"default_value"`
	Period       time.Duration `yaml:"period"`
}

type RelayOutputConfig struct {
	Name    string    `yaml:"name"`
	Targets []ChanRef `yaml:"targets"`
	Op      string    `yaml:"op"`      // first | all
	Missing string    `yaml:"missing"` // fail | ignore
}

const defaultTickPeriod = time.Second

// Defaults returns a System with just the tick period filled in; the
// caller is expected to populate backends and aggregators themselves
// or via Load.
func Defaults() System {
	return System{Tick: TickConfig{Period: defaultTickPeriod}}
}

// Load reads and validates a YAML configuration file. On success every
// aggregator's Op/Missing string has already been checked against the
// vocabulary ParseOperation/ParseMissingPolicy accept, so wiring code
// downstream never has to handle an unknown-enum-string error.
func Load(path string) (*System, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	sys := Defaults()
	if err := yaml.Unmarshal(b, &sys); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if sys.Tick.Period <= 0 {
		sys.Tick.Period = defaultTickPeriod
	}
	if err := sys.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &sys, nil
}

// Validate checks structural well-formedness: unique backend names,
// recognised op/missing vocabulary, and non-empty source/target lists.
// It does not resolve ChanRef.Backend names against a live registry;
// that happens once during wiring, where a missing backend is an
// ENOTFOUND at Register/IDOf time, not a config-parse error.
func (s *System) Validate() error {
	seen := map[string]bool{}
	for _, b := range s.Backends {
		if b.Name == "" {
			return fmt.Errorf("backend with empty name")
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate backend name %q", b.Name)
		}
		seen[b.Name] = true
	}
	for _, ti := range s.Temperatures {
		if len(ti.Sources) == 0 {
			return fmt.Errorf("temperature input %q has no sources", ti.Name)
		}
		if _, err := ParseOperation(ti.Op); err != nil {
			return fmt.Errorf("temperature input %q: %w", ti.Name, err)
		}
		if _, err := ParseMissingPolicy(ti.Missing); err != nil {
			return fmt.Errorf("temperature input %q: %w", ti.Name, err)
		}
	}
	for _, si := range s.Switches {
		if len(si.Sources) == 0 {
			return fmt.Errorf("switch input %q has no sources", si.Name)
		}
		if _, err := ParseSwitchOperation(si.Op); err != nil {
			return fmt.Errorf("switch input %q: %w", si.Name, err)
		}
		if _, err := ParseMissingPolicy(si.Missing); err != nil {
			return fmt.Errorf("switch input %q: %w", si.Name, err)
		}
	}
	for _, ro := range s.RelayOutputs {
		if len(ro.Targets) == 0 {
			return fmt.Errorf("relay output %q has no targets", ro.Name)
		}
		if _, err := ParseRelayOperation(ro.Op); err != nil {
			return fmt.Errorf("relay output %q: %w", ro.Name, err)
		}
		if _, err := ParseMissingPolicy(ro.Missing); err != nil {
			return fmt.Errorf("relay output %q: %w", ro.Name, err)
		}
	}
	return nil
}

func ParseOperation(s string) (meta.Operation, error) {
	switch s {
	case "", "first":
		return meta.OpFirst, nil
	case "min":
		return meta.OpMin, nil
	case "max":
		return meta.OpMax, nil
	default:
		return 0, fmt.Errorf("unknown temperature op %q", s)
	}
}

func ParseSwitchOperation(s string) (meta.SwitchOperation, error) {
	switch s {
	case "", "first":
		return meta.SwitchFirst, nil
	case "and":
		return meta.SwitchAnd, nil
	case "or":
		return meta.SwitchOr, nil
	default:
		return 0, fmt.Errorf("unknown switch op %q", s)
	}
}

func ParseRelayOperation(s string) (meta.RelayOperation, error) {
	switch s {
	case "", "first":
		return meta.RelayFirst, nil
	case "all":
		return meta.RelayAll, nil
	default:
		return 0, fmt.Errorf("unknown relay op %q", s)
	}
}

func ParseMissingPolicy(s string) (meta.MissingPolicy, error) {
	switch s {
	case "", "fail":
		return meta.MissingFail, nil
	case "ignore":
		return meta.MissingIgnore, nil
	case "ignore_default":
		return meta.MissingIgnoreDefault, nil
	default:
		return 0, fmt.Errorf("unknown missing-source policy %q", s)
	}
}
