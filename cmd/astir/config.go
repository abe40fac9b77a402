package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// batchConfig describes one batch run. Values come from a YAML file,
// flags, or both; explicit flags win over the file.
type batchConfig struct {
	Root     string   `yaml:"root"`
	Include  []string `yaml:"include"`
	Exclude  []string `yaml:"exclude"`
	Language string   `yaml:"language"`
	MaxDepth int      `yaml:"max_depth"`
	MaxFiles int      `yaml:"max_files"`
	DB       string   `yaml:"db"`
}

func loadBatchConfig(path string) (batchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return batchConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg batchConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return batchConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// merge overlays flag values onto the file config. Only flags the user
// actually set override the file.
func (c batchConfig) merge(flags *pflag.FlagSet, overrides batchConfig) batchConfig {
	merged := c
	if flags.Changed("root") {
		merged.Root = overrides.Root
	}
	if flags.Changed("include") {
		merged.Include = overrides.Include
	}
	if flags.Changed("exclude") {
		merged.Exclude = overrides.Exclude
	}
	if flags.Changed("lang") {
		merged.Language = overrides.Language
	}
	if flags.Changed("max-depth") {
		merged.MaxDepth = overrides.MaxDepth
	}
	if flags.Changed("max-files") {
		merged.MaxFiles = overrides.MaxFiles
	}
	if flags.Changed("db") {
		merged.DB = overrides.DB
	}
	return merged
}
