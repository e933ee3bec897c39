// Package config loads and validates the engine's configuration surface,
// the same defaults-then-override-from-YAML-file shape config.LoadConfig
// uses, scaled down to this system's configuration surface (spec §6).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/engine"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// Config is the top-level configuration document.
type Config struct {
	PollingInterval time.Duration      `yaml:"pollingInterval"`
	TimeWindows     []WindowConfig     `yaml:"timeWindows"`
	SpikeDetection  SpikeDetectionConfig `yaml:"spikeDetection"`
	StorageRetention time.Duration     `yaml:"storageRetention"`
	AlertThreshold  string             `yaml:"alertThreshold"`

	Provider ProviderConfig `yaml:"provider"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig mirrors model.TimeWindow's YAML shape.
type WindowConfig struct {
	Name       string        `yaml:"name"`
	Duration   time.Duration `yaml:"duration"`
	MinSamples int           `yaml:"minSamples"`
}

// SpikeDetectionConfig groups the spike/trend tunables (spec §6).
type SpikeDetectionConfig struct {
	ThresholdMultiplier   float64       `yaml:"thresholdMultiplier"`
	MinimumSpikeDuration  time.Duration `yaml:"minimumSpikeDuration"`
	CongestionWindow      time.Duration `yaml:"congestionWindow"`
	TrendNormalization    float64       `yaml:"trendNormalization"`
}

// ProviderConfig selects and configures the inbound fee-data provider.
type ProviderConfig struct {
	Kind     string `yaml:"kind"` // "jsonrpc" or "replay"
	Endpoint string `yaml:"endpoint"`
	AuthToken string `yaml:"authToken"`
	ReplayFile string `yaml:"replayFile"`
	ReplayBatchSize int `yaml:"replayBatchSize"`
}

// DatabaseConfig configures the alert store's Postgres connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ServerConfig configures the HTTP query surface.
type ServerConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns a Config with the spec-named defaults (spec §6:
// threshold_multiplier default 2.0, minimum_spike_duration default 60s,
// congestion_window default 1h).
func Default() Config {
	return Config{
		PollingInterval: 15 * time.Second,
		TimeWindows: []WindowConfig{
			{Name: "1m", Duration: time.Minute, MinSamples: 3},
			{Name: "5m", Duration: 5 * time.Minute, MinSamples: 5},
			{Name: "1h", Duration: time.Hour, MinSamples: 10},
		},
		SpikeDetection: SpikeDetectionConfig{
			ThresholdMultiplier:  2.0,
			MinimumSpikeDuration: 60 * time.Second,
			CongestionWindow:     time.Hour,
			TrendNormalization:   10.0,
		},
		StorageRetention: 24 * time.Hour,
		AlertThreshold:   string(model.SeverityMajor),
		Provider:         ProviderConfig{Kind: "jsonrpc", ReplayBatchSize: 50},
		Server:           ServerConfig{ListenAddr: ":8080"},
		Logging:          LoggingConfig{Level: "info"},
	}
}

// Load builds a Config starting from Default() and overriding it with the
// contents of path, mirroring loadConfigFromFile's read-then-unmarshal-
// over-defaults shape. An empty path returns the defaults unmodified.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate enforces the configuration-surface invariants named in spec §6
// for the fields this package owns, beyond what engine.Config.Validate
// covers for the derived engine configuration.
func (c Config) Validate() error {
	if c.Provider.Kind != "jsonrpc" && c.Provider.Kind != "replay" {
		return fmt.Errorf("provider.kind must be 'jsonrpc' or 'replay', got %q", c.Provider.Kind)
	}
	if c.Provider.Kind == "jsonrpc" && c.Provider.Endpoint == "" {
		return fmt.Errorf("provider.endpoint is required when provider.kind is 'jsonrpc'")
	}
	if c.Provider.Kind == "replay" && c.Provider.ReplayFile == "" {
		return fmt.Errorf("provider.replayFile is required when provider.kind is 'replay'")
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listenAddr must not be empty")
	}
	return nil
}

// ToEngineConfig translates the YAML-facing shape into engine.Config,
// running engine.Config's own Validate as part of the conversion so a
// configuration error is always fatal before Running is entered (spec
// §7's ConfigurationError).
func (c Config) ToEngineConfig() (engine.Config, error) {
	windows := make([]model.TimeWindow, len(c.TimeWindows))
	for i, w := range c.TimeWindows {
		windows[i] = model.TimeWindow{Name: w.Name, Duration: w.Duration, MinSamples: w.MinSamples}
	}

	ec := engine.Config{
		PollingInterval:            c.PollingInterval,
		TimeWindows:                windows,
		SampleSpacing:              c.PollingInterval,
		ExtremesPeriodLength:       c.StorageRetention,
		ExtremesHistorySize:        24,
		SpikeThresholdMultiplier:   c.SpikeDetection.ThresholdMultiplier,
		SpikeMinimumDuration:       c.SpikeDetection.MinimumSpikeDuration,
		SpikeHistoryCapacity:       512,
		CongestionWindow:           c.SpikeDetection.CongestionWindow,
		TrendNormalizationConstant: c.SpikeDetection.TrendNormalization,
		AlertThreshold:              model.Severity(c.AlertThreshold),
		ConsecutiveFailureThreshold: 3,
		StorageRetention:            c.StorageRetention,
	}

	if err := ec.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("configuration error: %w", err)
	}
	return ec, nil
}
