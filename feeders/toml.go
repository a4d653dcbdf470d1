package feeders

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// TomlFeeder reads a TOML file into a config structure.
type TomlFeeder struct {
	Path string
}

// NewTomlFeeder creates a feeder reading from the given TOML file.
func NewTomlFeeder(path string) TomlFeeder {
	return TomlFeeder{Path: path}
}

// Feed decodes the whole file into structure.
func (t TomlFeeder) Feed(structure any) error {
	if _, err := toml.DecodeFile(t.Path, structure); err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", t.Path, err)
	}
	return nil
}

// FeedKey extracts a single top-level table into target. A missing key
// leaves the target untouched.
func (t TomlFeeder) FeedKey(key string, target any) error {
	var all map[string]toml.Primitive
	meta, err := toml.DecodeFile(t.Path, &all)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", t.Path, err)
	}

	primitive, exists := all[key]
	if !exists {
		return nil
	}
	if err := meta.PrimitiveDecode(primitive, target); err != nil {
		return fmt.Errorf("failed to decode key %q: %w", key, err)
	}
	return nil
}
