package section

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Config is the YAML document shape for overriding the built-in section
// layout: custom definitions, extra tag mappings, and extra keyword sets.
type Config struct {
	Sections []Definition        `yaml:"sections"`
	Tags     map[string]string   `yaml:"tags"`
	Keywords map[string][]string `yaml:"keywords"`
}

// LoadConfig parses a YAML section configuration.
func LoadConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("section: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("section: decode config: %w", err)
	}
	return cfg, nil
}

// WithConfig applies a parsed configuration as grouper options.
func WithConfig(cfg Config) Option {
	return func(g *Grouper) {
		if len(cfg.Sections) > 0 {
			WithDefinitions(cfg.Sections)(g)
		}
		if len(cfg.Tags) > 0 {
			WithTags(cfg.Tags)(g)
		}
		if len(cfg.Keywords) > 0 {
			WithKeywords(cfg.Keywords)(g)
		}
	}
}
