package chassis

import (
	"fmt"
)

// ConfigProvider supplies a configuration object for the application or one
// of its sections. The returned value is usually a pointer to a struct that
// feeders populate in place.
type ConfigProvider interface {
	GetConfig() any
}

// StdConfigProvider wraps a plain config value.
type StdConfigProvider struct {
	cfg any
}

// NewStdConfigProvider creates a provider around cfg.
func NewStdConfigProvider(cfg any) *StdConfigProvider {
	return &StdConfigProvider{cfg: cfg}
}

// GetConfig returns the wrapped config value.
func (s *StdConfigProvider) GetConfig() any {
	return s.cfg
}

// Feeder populates a configuration structure from some source: a YAML or
// TOML file, environment variables, and so on. Implementations live in the
// feeders package.
type Feeder interface {
	Feed(structure any) error
}

// LoadAppConfig runs every feeder over the application's main config and
// each registered config section, in registration order. Feeder errors abort
// the load.
func LoadAppConfig(app Application, configFeeders ...Feeder) error {
	if app.ConfigProvider() == nil {
		return ErrConfigProviderNil
	}

	targets := []any{app.ConfigProvider().GetConfig()}
	for section, provider := range app.ConfigSections() {
		if provider == nil {
			return fmt.Errorf("%w: section %q", ErrConfigProviderNil, section)
		}
		targets = append(targets, provider.GetConfig())
	}

	for _, target := range targets {
		if target == nil {
			continue
		}
		for _, feeder := range configFeeders {
			if err := feeder.Feed(target); err != nil {
				return fmt.Errorf("%w: %w", ErrConfigFeederError, err)
			}
		}
	}
	return nil
}
