// Package config loads service configuration from defaults, an optional
// YAML file and EXOTRANSIT_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. EXOTRANSIT_SERVER_ADDR.
const EnvPrefix = "EXOTRANSIT"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Stream    StreamConfig    `mapstructure:"stream"`
	MarketCap MarketCapConfig `mapstructure:"marketcap"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Transit   TransitConfig   `mapstructure:"transit"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	TrustProxy      bool          `mapstructure:"trust_proxy"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token" validate:"required_if=Enabled true"`
}

type StreamConfig struct {
	MaxConcurrentPerIP int           `mapstructure:"max_concurrent_per_ip" validate:"gte=1"`
	BandwidthLimit     int           `mapstructure:"bandwidth_limit" validate:"gte=1024"`
	KeepaliveInterval  time.Duration `mapstructure:"keepalive_interval" validate:"gte=1s"`
	FrameInterval      time.Duration `mapstructure:"frame_interval" validate:"gte=1ms"`
}

type MarketCapConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	SourceURL         string        `mapstructure:"source_url" validate:"required_if=Enabled true"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval" validate:"gte=1m"`
	HistoryDays       int           `mapstructure:"history_days" validate:"gte=1,lte=3650"`
	Workers           int           `mapstructure:"workers" validate:"gte=1,lte=64"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Tickers           []string      `mapstructure:"tickers" validate:"dive,required"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter" validate:"oneof=stdout otlp"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
	ServiceName string  `mapstructure:"service_name" validate:"required"`
}

type TransitConfig struct {
	DefaultSamples int `mapstructure:"default_samples" validate:"gte=2,ltefield=MaxSamples"`
	MaxSamples     int `mapstructure:"max_samples" validate:"gte=2,lte=10000"`
}

// Window returns the market-cap look-back period.
func (c MarketCapConfig) Window() time.Duration {
	return time.Duration(c.HistoryDays) * 24 * time.Hour
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 0) // streams set their own deadlines
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token", "")

	v.SetDefault("stream.max_concurrent_per_ip", 10)
	v.SetDefault("stream.bandwidth_limit", 1048576)
	v.SetDefault("stream.keepalive_interval", 30*time.Second)
	v.SetDefault("stream.frame_interval", 50*time.Millisecond)

	v.SetDefault("marketcap.enabled", false)
	v.SetDefault("marketcap.source_url", "")
	v.SetDefault("marketcap.refresh_interval", time.Hour)
	v.SetDefault("marketcap.history_days", 3*365)
	v.SetDefault("marketcap.workers", min(runtime.NumCPU(), 8))
	v.SetDefault("marketcap.requests_per_second", 2.0)
	v.SetDefault("marketcap.tickers", []string{"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN", "META", "TSM", "LLY", "JPM", "XOM"})

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.service_name", "exotransit")

	v.SetDefault("transit.default_samples", 200)
	v.SetDefault("transit.max_samples", 10000)
}

// Load reads configuration. path may be empty; a named file that cannot
// be read is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling configuration: %w", err)
	}
	cfg.MarketCap.Tickers = normalizeTickers(cfg.MarketCap.Tickers)

	if err := validator.New().Struct(&cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, fmt.Errorf("configuration validation failed: %s", describe(verrs))
		}
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// normalizeTickers upper-cases, trims and de-duplicates ticker symbols.
func normalizeTickers(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		for _, part := range strings.Split(t, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
