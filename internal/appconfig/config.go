package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Devices       DevicesConfig `mapstructure:"devices" yaml:"devices"`
	Haptics       HapticsConfig `mapstructure:"haptics" yaml:"haptics"`
	Lexicon       LexiconConfig `mapstructure:"lexicon" yaml:"lexicon"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// Device backends.
const (
	BackendSim  = "sim"
	BackendGRPC = "grpc"
)

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr       string `mapstructure:"addr" yaml:"addr"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	BasePath   string `mapstructure:"base_path" yaml:"base_path"`
	HubHistory int    `mapstructure:"hub_history" yaml:"hub_history"`
}

// DevicesConfig selects where haptic devices come from.
type DevicesConfig struct {
	Backend          string `mapstructure:"backend" yaml:"backend"`
	Count            int    `mapstructure:"count" yaml:"count"`
	BridgeAddr       string `mapstructure:"bridge_addr" yaml:"bridge_addr"`
	CommandTimeoutMS int    `mapstructure:"command_timeout_ms" yaml:"command_timeout_ms"`
	SimLatencyMS     int    `mapstructure:"sim_latency_ms" yaml:"sim_latency_ms"`
}

// HapticsConfig controls the actuation sequence.
type HapticsConfig struct {
	DwellMS int `mapstructure:"dwell_ms" yaml:"dwell_ms"`
}

// LexiconConfig points at the emotion lexicon and thesaurus. Empty paths use
// the embedded data.
type LexiconConfig struct {
	Path            string `mapstructure:"path" yaml:"path"`
	ThesaurusPath   string `mapstructure:"thesaurus_path" yaml:"thesaurus_path"`
	Watch           bool   `mapstructure:"watch" yaml:"watch"`
	LookupTimeoutMS int    `mapstructure:"lookup_timeout_ms" yaml:"lookup_timeout_ms"`
	Parallelism     int    `mapstructure:"parallelism" yaml:"parallelism"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		HTTP: HTTPConfig{
			Addr:       ":27490",
			BaseURL:    "",
			BasePath:   "",
			HubHistory: 256,
		},
		Devices: DevicesConfig{
			Backend:          BackendSim,
			Count:            4,
			BridgeAddr:       "unix://" + filepath.Join(home, ".hapticnote", "bridge.sock"),
			CommandTimeoutMS: 2000,
			SimLatencyMS:     0,
		},
		Haptics: HapticsConfig{
			DwellMS: 1500,
		},
		Lexicon: LexiconConfig{
			Path:            "",
			ThesaurusPath:   "",
			Watch:           false,
			LookupTimeoutMS: 250,
			Parallelism:     8,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hapticnote", "config.yaml"), nil
}
