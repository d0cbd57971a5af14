package catcheck

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the analyzer options read from a .catcheck.yml file.
type Config struct {
	// Markers are the decorator paths treated as the Cat marker.
	Markers []string `yaml:"markers"`
	// Cache is the path of the incremental cache file; empty disables
	// caching.
	Cache string `yaml:"cache"`
	// Exclude lists directory names skipped during discovery, on top of
	// the built-in skip set.
	Exclude []string `yaml:"exclude"`
}

// DefaultConfigFile is the conventional config location, relative to the
// analyzed root.
const DefaultConfigFile = ".catcheck.yml"

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{Markers: append([]string(nil), DefaultMarkers...)}
}

// LoadConfig reads a YAML config file. A missing file yields the defaults;
// fields left empty in the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if len(cfg.Markers) == 0 {
		cfg.Markers = append([]string(nil), DefaultMarkers...)
	}
	return cfg, nil
}
