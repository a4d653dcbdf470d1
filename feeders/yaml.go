package feeders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YamlFeeder reads a YAML file into a config structure.
type YamlFeeder struct {
	Path string
}

// NewYamlFeeder creates a feeder reading from the given YAML file.
func NewYamlFeeder(path string) YamlFeeder {
	return YamlFeeder{Path: path}
}

// Feed unmarshals the whole file into structure.
func (y YamlFeeder) Feed(structure any) error {
	data, err := os.ReadFile(y.Path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file %s: %w", y.Path, err)
	}
	if err := yaml.Unmarshal(data, structure); err != nil {
		return fmt.Errorf("failed to unmarshal YAML file %s: %w", y.Path, err)
	}
	return nil
}

// FeedKey extracts a single top-level key into target. A missing key leaves
// the target untouched.
func (y YamlFeeder) FeedKey(key string, target any) error {
	var all map[string]any
	if err := y.Feed(&all); err != nil {
		return err
	}

	value, exists := all[key]
	if !exists {
		return nil
	}

	// Remarshal the subtree to handle type conversions.
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal key %q: %w", key, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal key %q: %w", key, err)
	}
	return nil
}
