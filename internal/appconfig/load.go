package appconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. HAPTICNOTE_HTTP_ADDR.
const EnvPrefix = "HAPTICNOTE"

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.base_url", cfg.HTTP.BaseURL)
	v.SetDefault("http.base_path", cfg.HTTP.BasePath)
	v.SetDefault("http.hub_history", cfg.HTTP.HubHistory)
	v.SetDefault("devices.backend", cfg.Devices.Backend)
	v.SetDefault("devices.count", cfg.Devices.Count)
	v.SetDefault("devices.bridge_addr", cfg.Devices.BridgeAddr)
	v.SetDefault("devices.command_timeout_ms", cfg.Devices.CommandTimeoutMS)
	v.SetDefault("devices.sim_latency_ms", cfg.Devices.SimLatencyMS)
	v.SetDefault("haptics.dwell_ms", cfg.Haptics.DwellMS)
	v.SetDefault("lexicon.path", cfg.Lexicon.Path)
	v.SetDefault("lexicon.thesaurus_path", cfg.Lexicon.ThesaurusPath)
	v.SetDefault("lexicon.watch", cfg.Lexicon.Watch)
	v.SetDefault("lexicon.lookup_timeout_ms", cfg.Lexicon.LookupTimeoutMS)
	v.SetDefault("lexicon.parallelism", cfg.Lexicon.Parallelism)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validateHTTPConfig(cfg.HTTP); err != nil {
		return Config{}, err
	}
	if err := validateDevicesConfig(cfg.Devices); err != nil {
		return Config{}, err
	}
	if err := validateTimings(cfg); err != nil {
		return Config{}, err
	}
	if err := validateLexiconConfig(cfg.Lexicon); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateHTTPConfig(cfg HTTPConfig) error {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("http.base_url must include scheme and host (e.g. https://example.com)")
		}
	}
	basePath := strings.TrimSpace(cfg.BasePath)
	if basePath != "" {
		if strings.Contains(basePath, "://") {
			return fmt.Errorf("http.base_path must be a path prefix, not a URL")
		}
		if strings.ContainsAny(basePath, "?#") {
			return fmt.Errorf("http.base_path must not include query or fragment")
		}
	}
	return nil
}

func validateDevicesConfig(cfg DevicesConfig) error {
	switch cfg.Backend {
	case BackendSim:
	case BackendGRPC:
		if strings.TrimSpace(cfg.BridgeAddr) == "" {
			return fmt.Errorf("devices.bridge_addr is required for the %s backend", BackendGRPC)
		}
	default:
		return fmt.Errorf("unsupported devices.backend %q", cfg.Backend)
	}
	if cfg.Count <= 0 {
		return fmt.Errorf("devices.count must be positive")
	}
	return nil
}

func validateTimings(cfg Config) error {
	if cfg.Haptics.DwellMS <= 0 {
		return fmt.Errorf("haptics.dwell_ms must be positive")
	}
	if cfg.Devices.CommandTimeoutMS <= 0 {
		return fmt.Errorf("devices.command_timeout_ms must be positive")
	}
	if cfg.Devices.SimLatencyMS < 0 {
		return fmt.Errorf("devices.sim_latency_ms must not be negative")
	}
	if cfg.Lexicon.LookupTimeoutMS <= 0 {
		return fmt.Errorf("lexicon.lookup_timeout_ms must be positive")
	}
	if cfg.Lexicon.Parallelism <= 0 {
		return fmt.Errorf("lexicon.parallelism must be positive")
	}
	return nil
}

func validateLexiconConfig(cfg LexiconConfig) error {
	if cfg.Watch && strings.TrimSpace(cfg.Path) == "" && strings.TrimSpace(cfg.ThesaurusPath) == "" {
		return fmt.Errorf("lexicon.watch requires lexicon.path or lexicon.thesaurus_path; the embedded lexicon cannot be watched")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Devices.BridgeAddr = expandEnv(cfg.Devices.BridgeAddr)
	cfg.Lexicon.Path = expandEnv(cfg.Lexicon.Path)
	cfg.Lexicon.ThesaurusPath = expandEnv(cfg.Lexicon.ThesaurusPath)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
