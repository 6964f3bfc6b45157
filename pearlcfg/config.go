// Package pearlcfg loads a small YAML configuration: transport addresses,
// the reserved active-message tag override (per SPEC_FULL.md §9's design
// note), and the fixture glob patterns a demo run replays. cmd/pearl-replay
// reads it at startup for its fixture globs; cmd/pearl-amping takes its
// settings from flags and does not read it, and neither driver applies
// Transport.Tag, so both use am/grpc's DefaultTag.
package pearlcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultAmTag is am/grpc's reserved tag (170275) when a config omits its
// own override.
const DefaultAmTag = 170275

// Config is the top-level shape of a pearlcfg YAML file.
type Config struct {
	// Location is this process's human-readable location name.
	Location string `yaml:"location"`

	// Rank is this process's dense rank within its communicator.
	Rank uint32 `yaml:"rank"`

	// Transport configures the am/grpc binding.
	Transport TransportConfig `yaml:"transport"`

	// Fixtures lists glob patterns resolved by the fixture package: DefsGlob
	// for definition files, TraceGlobs for trace files.
	Fixtures FixtureConfig `yaml:"fixtures"`
}

// TransportConfig addresses the am/grpc server this process dials or
// listens on, and the reserved tag active messages are exchanged under.
type TransportConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	DialAddr   string `yaml:"dialAddr"`
	Tag        uint32 `yaml:"tag"`
}

// FixtureConfig names the glob patterns a demo run loads its defs/trace
// data from.
type FixtureConfig struct {
	DefsGlob   string   `yaml:"defsGlob"`
	TraceGlobs []string `yaml:"traceGlobs"`
}

// Load reads and parses the YAML configuration at path, filling in
// DefaultAmTag when the config leaves transport.tag zero.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pearlcfg: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("pearlcfg: parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Transport.Tag == 0 {
		c.Transport.Tag = DefaultAmTag
	}
}
