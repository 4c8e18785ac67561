package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the descriptor at the given path (e.g.
// "berth.yaml"). The returned Config is fully validated: every depends_on
// reference exists, the dependency graph is acyclic, host ports are unique,
// and every referenced file is present on disk.
func Load(filename string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filename)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("descriptor %s not found", filename)
		}
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}

	// Viper hands services back as a map, so declaration order is gone by
	// the time we have a Config. Re-read the document with yaml.v3 to
	// recover it; independent services start in declaration order.
	order, err := serviceOrder(filename)
	if err != nil {
		return nil, err
	}
	cfg.ServiceOrder = order

	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("resolve descriptor path: %w", err)
	}
	cfg.Dir = filepath.Dir(abs)

	if cfg.Name == "" {
		// Fall back to the descriptor's directory name, like the engine
		// derives a project name from the working directory.
		cfg.Name = filepath.Base(cfg.Dir)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// serviceOrder extracts service names in document order from the raw YAML.
func serviceOrder(filename string) ([]string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil
	}

	root := doc.Content[0]
	// Mapping node content alternates key, value, key, value...
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "services" {
			continue
		}
		services := root.Content[i+1]
		if services.Kind != yaml.MappingNode {
			return nil, nil
		}
		names := make([]string, 0, len(services.Content)/2)
		for j := 0; j+1 < len(services.Content); j += 2 {
			// Viper lowercases config keys, so the map in Config.Services
			// is keyed by lowercase names. Match that here.
			names = append(names, strings.ToLower(services.Content[j].Value))
		}
		return names, nil
	}
	return nil, nil
}
