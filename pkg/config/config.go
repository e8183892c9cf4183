// Package config loads the run configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hed1ad/affguard/pkg/detectors"
	"github.com/hed1ad/affguard/pkg/pipeline"
)

// Config is the complete run configuration.
type Config struct {
	Forest      ForestConfig      `yaml:"forest"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Scoring     ScoringConfig     `yaml:"scoring"`
}

// ForestConfig parameterises the per-country isolation forest.
type ForestConfig struct {
	Trees         int           `yaml:"trees"`
	MaxSamples    int           `yaml:"max_samples"`
	Contamination Contamination `yaml:"contamination"`
	Seed          int64         `yaml:"seed"`
}

// AggregationConfig controls the group filters.
type AggregationConfig struct {
	// MinPlayers is the player count a row must exceed to be scored.
	MinPlayers int `yaml:"min_players"`
}

// ScoringConfig controls per-country scoring.
type ScoringConfig struct {
	Workers int `yaml:"workers"`
}

// Contamination is either "auto" (zero) or a proportion in (0, 0.5].
type Contamination float64

// UnmarshalYAML accepts the string "auto" or a number.
func (c *Contamination) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("contamination: expected scalar, got %v", value.Tag)
	}
	s := strings.TrimSpace(value.Value)
	if strings.EqualFold(s, "auto") || s == "" {
		*c = detectors.ContaminationAuto
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("contamination: %q is neither auto nor a number", s)
	}
	*c = Contamination(f)
	return nil
}

// MarshalYAML writes "auto" for the zero value.
func (c Contamination) MarshalYAML() (any, error) {
	if c == detectors.ContaminationAuto {
		return "auto", nil
	}
	return float64(c), nil
}

// Default returns the configuration the tool runs with when no file is given.
func Default() Config {
	d := detectors.DefaultConfig()
	return Config{
		Forest: ForestConfig{
			Trees:         d.Trees,
			MaxSamples:    d.MaxSamples,
			Contamination: Contamination(d.Contamination),
			Seed:          d.RandomSeed,
		},
		Aggregation: AggregationConfig{MinPlayers: pipeline.DefaultMinPlayers},
		Scoring:     ScoringConfig{Workers: 1},
	}
}

// Load reads a YAML file over the defaults and validates the result.
// Keys missing from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Forest.Trees < 1 {
		errs = append(errs, errors.New("forest.trees must be at least 1"))
	}
	if c.Forest.MaxSamples < 1 {
		errs = append(errs, errors.New("forest.max_samples must be at least 1"))
	}
	if c.Forest.Contamination < 0 || c.Forest.Contamination > 0.5 {
		errs = append(errs, fmt.Errorf("forest.contamination must be auto or in (0, 0.5], got %v", float64(c.Forest.Contamination)))
	}
	if c.Aggregation.MinPlayers < 0 {
		errs = append(errs, errors.New("aggregation.min_players must not be negative"))
	}
	if c.Scoring.Workers < 1 {
		errs = append(errs, errors.New("scoring.workers must be at least 1"))
	}
	return errors.Join(errs...)
}

// Detector returns the detector configuration.
func (c Config) Detector() detectors.Config {
	return detectors.Config{
		Trees:         c.Forest.Trees,
		MaxSamples:    c.Forest.MaxSamples,
		Contamination: float64(c.Forest.Contamination),
		RandomSeed:    c.Forest.Seed,
	}
}

// PipelineOptions translates the configuration into pipeline options.
func (c Config) PipelineOptions() []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithForest(c.Detector()),
		pipeline.WithMinPlayers(c.Aggregation.MinPlayers),
		pipeline.WithWorkers(c.Scoring.Workers),
	}
}
