// Package tsconfig loads optional YAML configuration for the Builder,
// letting an embedding application check in a config file instead of
// constructing a Builder by hand in code. Grounded on cuemby/warren's use of
// YAML (gopkg.in/yaml.v3) for its own node/cluster config files.
package tsconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/talna/internal/tsdberr"
)

// BuilderConfig mirrors the knobs exposed on talna.Builder.
type BuilderConfig struct {
	CacheSizeMiB uint64 `yaml:"cache_size_mib"`
	HyperMode    bool   `yaml:"hyper_mode"`
}

// Load reads and parses a BuilderConfig from a YAML file at path.
func Load(path string) (BuilderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BuilderConfig{}, fmt.Errorf("%w: reading config %q: %v", tsdberr.ErrIO, path, err)
	}
	var cfg BuilderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BuilderConfig{}, fmt.Errorf("%w: parsing config %q: %v", tsdberr.ErrStorage, path, err)
	}
	return cfg, nil
}
