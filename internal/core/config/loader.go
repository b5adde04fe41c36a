package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/itinerary/internal/recovery/coordinator"
	"github.com/vietddude/itinerary/internal/recovery/retry"
)

// EnvPrefix prefixes every environment override, e.g. ITINERARY_REMOTE_BASE_URL.
const EnvPrefix = "ITINERARY"

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	p := coordinator.DefaultPolicy()
	r := retry.DefaultOptions()
	return &AppConfig{
		Environment: "development",
		Server:      ServerConfig{Port: 8080},
		Logging:     LoggingConfig{Level: "info", Format: "text"},
		Remote: RemoteConfig{
			Timeout: 30 * time.Second,
			Enabled: true,
		},
		Recovery: RecoveryConfig{
			EagerNetworkAfter:  p.EagerNetworkAfter,
			EagerAnyAfter:      p.EagerAnyAfter,
			EagerOnCritical:    p.EagerOnCritical,
			BaseRetriesNetwork: p.BaseRetriesNetwork,
			BaseRetriesOther:   p.BaseRetriesOther,
			ResetOnSuccess:     p.ResetOnSuccess,
			BaseDelay:          r.BaseDelay,
			MaxDelay:           r.MaxDelay,
			BackoffFactor:      r.BackoffFactor,
			Jitter:             r.Jitter,
			HistorySize:        100,
		},
		Output: OutputConfig{Dir: "."},
	}
}

// Load reads configuration from a YAML file on top of Default, then applies
// ITINERARY_* environment overrides. An empty path skips the file.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Remote.Timeout <= 0 {
		cfg.Remote.Timeout = 30 * time.Second
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	return cfg, nil
}
