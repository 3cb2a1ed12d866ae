package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts *LoggingConfig from *Config.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Soundings.System.Logging
}

// NewIndexConfigProvider extracts *IndexConfig from *Config.
func NewIndexConfigProvider(cfg *Config) *IndexConfig {
	return &cfg.Soundings.Index
}

// NewObservabilityConfigProvider extracts *ObservabilityConfig from *Config.
func NewObservabilityConfigProvider(cfg *Config) *ObservabilityConfig {
	return &cfg.Soundings.Observability
}

// Module provides the configuration and its sections to Fx.
var Module = fx.Options(
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(NewIndexConfigProvider),
	fx.Provide(NewObservabilityConfigProvider),
)
