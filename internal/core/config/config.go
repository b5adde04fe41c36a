package config

import (
	"time"

	redisclient "github.com/vietddude/itinerary/internal/infra/redis"
	"github.com/vietddude/itinerary/internal/infra/pdf/remote"
	"github.com/vietddude/itinerary/internal/infra/storage/postgres"
	"github.com/vietddude/itinerary/internal/recovery/coordinator"
	"github.com/vietddude/itinerary/internal/recovery/retry"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Environment string             `yaml:"environment" envconfig:"ENVIRONMENT"`
	Server      ServerConfig       `yaml:"server"      envconfig:"SERVER"`
	Logging     LoggingConfig      `yaml:"logging"     envconfig:"LOGGING"`
	Remote      RemoteConfig       `yaml:"remote"      envconfig:"REMOTE"`
	Recovery    RecoveryConfig     `yaml:"recovery"    envconfig:"RECOVERY"`
	Redis       redisclient.Config `yaml:"redis"       envconfig:"REDIS"`
	Database    postgres.Config    `yaml:"database"    envconfig:"DATABASE"`
	Output      OutputConfig       `yaml:"output"      envconfig:"OUTPUT"`
}

// ServerConfig holds the document service listeners.
type ServerConfig struct {
	Port     int `yaml:"port"      envconfig:"PORT"`
	GRPCPort int `yaml:"grpc_port" envconfig:"GRPC_PORT"` // 0 disables the gRPC health server
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"  envconfig:"LEVEL"`  // debug, info, warn, error
	Format string `yaml:"format" envconfig:"FORMAT"` // json, text
}

// RemoteConfig points at the remote document service.
type RemoteConfig struct {
	BaseURL        string        `yaml:"base_url"         envconfig:"BASE_URL"`
	Timeout        time.Duration `yaml:"timeout"          envconfig:"TIMEOUT"`
	ClientID       string        `yaml:"client_id"        envconfig:"CLIENT_ID"`
	Enabled        bool          `yaml:"enabled"          envconfig:"ENABLED"`
	GRPCHealthAddr string        `yaml:"grpc_health_addr" envconfig:"GRPC_HEALTH_ADDR"`
}

// RecoveryConfig holds the escalation policy and retry timings.
type RecoveryConfig struct {
	EagerNetworkAfter  int           `yaml:"eager_network_after"  envconfig:"EAGER_NETWORK_AFTER"`
	EagerAnyAfter      int           `yaml:"eager_any_after"      envconfig:"EAGER_ANY_AFTER"`
	EagerOnCritical    bool          `yaml:"eager_on_critical"    envconfig:"EAGER_ON_CRITICAL"`
	BaseRetriesNetwork int           `yaml:"base_retries_network" envconfig:"BASE_RETRIES_NETWORK"`
	BaseRetriesOther   int           `yaml:"base_retries_other"   envconfig:"BASE_RETRIES_OTHER"`
	ResetOnSuccess     bool          `yaml:"reset_on_success"     envconfig:"RESET_ON_SUCCESS"`
	BaseDelay          time.Duration `yaml:"base_delay"           envconfig:"BASE_DELAY"`
	MaxDelay           time.Duration `yaml:"max_delay"            envconfig:"MAX_DELAY"`
	BackoffFactor      float64       `yaml:"backoff_factor"       envconfig:"BACKOFF_FACTOR"`
	Jitter             bool          `yaml:"jitter"               envconfig:"JITTER"`
	HistorySize        int           `yaml:"history_size"         envconfig:"HISTORY_SIZE"`
}

// OutputConfig controls where generated documents are written.
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR"`
}

// Production reports whether the deployment is production.
func (c *AppConfig) Production() bool {
	return c.Environment == "production"
}

// RemoteClient converts the remote section for remote.NewClient.
func (c *AppConfig) RemoteClient() remote.Config {
	return remote.Config{
		BaseURL:        c.Remote.BaseURL,
		Timeout:        c.Remote.Timeout,
		ClientID:       c.Remote.ClientID,
		Enabled:        c.Remote.Enabled,
		Production:     c.Production(),
		GRPCHealthAddr: c.Remote.GRPCHealthAddr,
	}
}

// Policy returns the coordinator escalation policy.
func (c *AppConfig) Policy() coordinator.Policy {
	return coordinator.Policy{
		EagerNetworkAfter:  c.Recovery.EagerNetworkAfter,
		EagerAnyAfter:      c.Recovery.EagerAnyAfter,
		EagerOnCritical:    c.Recovery.EagerOnCritical,
		BaseRetriesNetwork: c.Recovery.BaseRetriesNetwork,
		BaseRetriesOther:   c.Recovery.BaseRetriesOther,
		ResetOnSuccess:     c.Recovery.ResetOnSuccess,
	}
}

// RetryOptions returns the retry timings. MaxRetries is set per call by the coordinator.
func (c *AppConfig) RetryOptions() retry.Options {
	opts := retry.DefaultOptions()
	opts.BaseDelay = c.Recovery.BaseDelay
	opts.MaxDelay = c.Recovery.MaxDelay
	opts.BackoffFactor = c.Recovery.BackoffFactor
	opts.Jitter = c.Recovery.Jitter
	return opts
}
