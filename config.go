package observe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ygrebnov/observe/logging"
	"github.com/ygrebnov/observe/tracing"
)

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes environment overrides, e.g. OBSERVE_INTERVAL=1s or
// OBSERVE_TRACING_ENDPOINT=collector:4317.
const EnvPrefix = "OBSERVE"

// Config configures the pipeline and its ambient services.
type Config struct {
	// Interval between two sampling ticks.
	Interval time.Duration `mapstructure:"interval"`
	// ChannelCapacity is the buffer size of the sampler to aggregator mailbox.
	ChannelCapacity int `mapstructure:"channel_capacity"`
	// WindowSize is the number of batches the aggregator keeps.
	WindowSize int `mapstructure:"window_size"`

	Logger  logging.Config `mapstructure:"logger"`
	Tracing tracing.Config `mapstructure:"tracing"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
}

// MetricsConfig configures the Prometheus endpoint served by the command.
// An empty Addr disables it.
type MetricsConfig struct {
	Addr      string `mapstructure:"addr"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Interval:        5 * time.Second,
		ChannelCapacity: 2,
		WindowSize:      DefaultWindowSize,
		Logger:          logging.DefaultConfig(),
		Tracing:         tracing.DefaultConfig(),
		Metrics: MetricsConfig{
			Addr: ":9000",
			Path: "/metrics",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be greater than 0, got %v", ErrInvalidConfig, c.Interval)
	}
	if c.ChannelCapacity <= 0 {
		return fmt.Errorf("%w: channel capacity must be greater than 0, got %d", ErrInvalidConfig, c.ChannelCapacity)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: window size must be greater than 0, got %d", ErrInvalidConfig, c.WindowSize)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("%w: logger: %w", ErrInvalidConfig, err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("%w: tracing: %w", ErrInvalidConfig, err)
	}
	if c.Metrics.Addr != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("%w: metrics path must start with /, got %q", ErrInvalidConfig, c.Metrics.Path)
	}
	return nil
}

// LoadConfig reads the configuration file at path (any format viper supports) on top
// of DefaultConfig and applies OBSERVE_* environment overrides. An empty path loads
// defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key, which also makes it visible to AutomaticEnv.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("interval", c.Interval)
	v.SetDefault("channel_capacity", c.ChannelCapacity)
	v.SetDefault("window_size", c.WindowSize)

	v.SetDefault("logger.level", c.Logger.Level)
	v.SetDefault("logger.format", c.Logger.Format)
	v.SetDefault("logger.output", c.Logger.Output)
	v.SetDefault("logger.file.path", c.Logger.File.Path)
	v.SetDefault("logger.file.max_size_mb", c.Logger.File.MaxSizeMB)
	v.SetDefault("logger.file.max_backups", c.Logger.File.MaxBackups)
	v.SetDefault("logger.file.max_age_days", c.Logger.File.MaxAgeDays)
	v.SetDefault("logger.file.compress", c.Logger.File.Compress)

	v.SetDefault("tracing.enabled", c.Tracing.Enabled)
	v.SetDefault("tracing.endpoint", c.Tracing.Endpoint)
	v.SetDefault("tracing.insecure", c.Tracing.Insecure)
	v.SetDefault("tracing.service_name", c.Tracing.ServiceName)
	v.SetDefault("tracing.version", c.Tracing.Version)
	v.SetDefault("tracing.environment", c.Tracing.Environment)
	v.SetDefault("tracing.sampling_rate", c.Tracing.SamplingRate)
	v.SetDefault("tracing.batch_timeout", c.Tracing.BatchTimeout)
	v.SetDefault("tracing.export_timeout", c.Tracing.ExportTimeout)
	v.SetDefault("tracing.max_export_batch_size", c.Tracing.MaxExportBatchSize)
	v.SetDefault("tracing.shutdown_timeout", c.Tracing.ShutdownTimeout)

	v.SetDefault("metrics.addr", c.Metrics.Addr)
	v.SetDefault("metrics.path", c.Metrics.Path)
	v.SetDefault("metrics.namespace", c.Metrics.Namespace)
}
