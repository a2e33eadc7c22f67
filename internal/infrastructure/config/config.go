package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "DIALER_"

// DefaultPath is read when no explicit config file is given
const DefaultPath = "configs/config.yaml"

type Config struct {
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`

	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Voice      VoiceConfig      `koanf:"voice"`
	Executor   ExecutorConfig   `koanf:"executor"`
	Plans      PlansConfig      `koanf:"plans"`
	Compliance ComplianceConfig `koanf:"compliance"`
	Audit      AuditConfig      `koanf:"audit"`
	Security   SecurityConfig   `koanf:"security"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// RateLimitPerMinute caps API requests per organization. Zero disables it.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute" validate:"gte=0"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL      string        `koanf:"url"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	DNCTTL   time.Duration `koanf:"dnc_ttl"`
}

// Enabled reports whether a redis server is configured
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

type VoiceConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"omitempty,url"`
	APIKey            string        `koanf:"api_key"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int           `koanf:"burst" validate:"min=1"`
	BreakerFailures   int           `koanf:"breaker_failures" validate:"min=1"`
	BreakerCooldown   time.Duration `koanf:"breaker_cooldown"`
}

type ExecutorConfig struct {
	CallInterval time.Duration `koanf:"call_interval"`
	LeaseTTL     time.Duration `koanf:"lease_ttl"`
	InstanceID   string        `koanf:"instance_id"`
}

type PlansConfig struct {
	DefaultPlan string         `koanf:"default_plan"`
	Minutes     map[string]int `koanf:"minutes"`
}

type ComplianceConfig struct {
	// StateWindows overrides the default calling window per state code
	StateWindows map[string]WindowConfig `koanf:"state_windows"`
}

type WindowConfig struct {
	Start string `koanf:"start"`
	End   string `koanf:"end"`
}

type AuditConfig struct {
	QueueSize    int           `koanf:"queue_size" validate:"min=1"`
	BatchSize    int           `koanf:"batch_size" validate:"min=1"`
	BatchTimeout time.Duration `koanf:"batch_timeout"`
}

type SecurityConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"gte=0,lte=1"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "dialer"
	}

	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:               8080,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    30 * time.Second,
			RateLimitPerMinute: 600,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: time.Minute,
		},
		Redis: RedisConfig{
			DNCTTL: 5 * time.Minute,
		},
		Voice: VoiceConfig{
			Timeout:           15 * time.Second,
			RequestsPerSecond: 5,
			Burst:             1,
			BreakerFailures:   5,
			BreakerCooldown:   30 * time.Second,
		},
		Executor: ExecutorConfig{
			CallInterval: 4 * time.Second,
			LeaseTTL:     30 * time.Second,
			InstanceID:   hostname,
		},
		Plans: PlansConfig{
			DefaultPlan: "free",
			Minutes: map[string]int{
				"free":       100,
				"starter":    1000,
				"pro":        5000,
				"enterprise": -1,
			},
		},
		Audit: AuditConfig{
			QueueSize:    1000,
			BatchSize:    20,
			BatchTimeout: 200 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// Load reads defaults, then the YAML file, then DIALER_ environment
// overrides. An empty path reads DefaultPath when it exists; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// envKey maps DIALER_DATABASE__MAX_OPEN_CONNS to database.max_open_conns
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks field constraints and the state window overrides
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Compliance.Windows(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Executor.LeaseTTL <= c.Executor.CallInterval+c.Voice.Timeout {
		return fmt.Errorf("invalid config: executor.lease_ttl (%s) must exceed executor.call_interval plus voice.timeout (%s)",
			c.Executor.LeaseTTL, c.Executor.CallInterval+c.Voice.Timeout)
	}
	return nil
}

// Windows parses the state window overrides, keyed by upper-case state code
func (c ComplianceConfig) Windows() (map[string]values.DailyWindow, error) {
	out := make(map[string]values.DailyWindow, len(c.StateWindows))
	for state, w := range c.StateWindows {
		dw, err := values.ParseDailyWindow(w.Start, w.End)
		if err != nil {
			return nil, fmt.Errorf("compliance.state_windows.%s: %w", state, err)
		}
		out[strings.ToUpper(state)] = dw
	}
	return out, nil
}
