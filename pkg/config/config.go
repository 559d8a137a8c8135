package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var valid = validator.New()

// Config aggregates every section of the agent configuration.
type Config struct {
	Publisher  PublisherConfig  `yaml:"publisher" mapstructure:"publisher"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch" mapstructure:"cloudwatch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        ZapLogConfig     `yaml:"log" mapstructure:"log"`
}

// PublisherConfig controls the metrics publishing loop.
type PublisherConfig struct {
	Interval       time.Duration `yaml:"interval" mapstructure:"interval" env:"PUBLISHER_INTERVAL" validate:"required,gt=0"`
	Namespace      string        `yaml:"namespace" mapstructure:"namespace" env:"PUBLISHER_NAMESPACE" validate:"required"`
	Dimensions     []string      `yaml:"dimensions" mapstructure:"dimensions" env:"PUBLISHER_DIMENSIONS"`
	LeaderElection bool          `yaml:"leader_election" mapstructure:"leader_election" env:"PUBLISHER_LEADER_ELECTION"`
	LeaderLockKey  string        `yaml:"leader_lock_key" mapstructure:"leader_lock_key" env:"PUBLISHER_LEADER_LOCK_KEY"`
	LeaderLockTTL  time.Duration `yaml:"leader_lock_ttl" mapstructure:"leader_lock_ttl" env:"PUBLISHER_LEADER_LOCK_TTL"`
}

// RedisConfig locates the job cluster's Redis registry.
type RedisConfig struct {
	Addr               string `yaml:"addr" mapstructure:"addr" env:"REDIS_ADDR" validate:"required,hostname_port"`
	DB                 int    `yaml:"db" mapstructure:"db" env:"REDIS_DB" validate:"gte=0"`
	Password           string `yaml:"password" mapstructure:"password" env:"REDIS_PASSWORD"`
	EnableTLS          bool   `yaml:"enable_tls" mapstructure:"enable_tls" env:"REDIS_ENABLE_TLS"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify" env:"REDIS_INSECURE_SKIP_VERIFY"`
	Namespace          string `yaml:"namespace" mapstructure:"namespace" env:"REDIS_NAMESPACE"`
}

// CloudWatchConfig configures the metrics sink. All fields are optional:
// empty values fall back to the default AWS credential/region chain.
type CloudWatchConfig struct {
	Region    string `yaml:"region" mapstructure:"region" env:"CLOUDWATCH_REGION"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint" env:"CLOUDWATCH_ENDPOINT"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key" env:"CLOUDWATCH_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key" env:"CLOUDWATCH_SECRET_KEY"`
}

// ServerConfig configures the embedded debug HTTP server (/metrics, /health).
type ServerConfig struct {
	Enable       bool          `yaml:"enable" mapstructure:"enable" env:"SERVER_ENABLE"`
	Addr         string        `yaml:"addr" mapstructure:"addr" env:"SERVER_ADDR" validate:"required,hostname_port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" env:"SERVER_READ_TIMEOUT" validate:"required,gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" env:"SERVER_WRITE_TIMEOUT" validate:"required,gt=0"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" validate:"required,gt=0"`
}

// ZapLogConfig configures logging output and rotation.
type ZapLogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" env:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	Format    string `yaml:"format" mapstructure:"format" env:"LOG_FORMAT" validate:"required,oneof=json console"`
	Path      string `yaml:"path" mapstructure:"path" env:"LOG_PATH" validate:"required"`
	MaxAge    int    `yaml:"max_age" mapstructure:"max_age" env:"LOG_MAX_AGE" validate:"gte=0"`
	MaxSizeMB int    `yaml:"max_size" mapstructure:"max_size" env:"LOG_MAX_SIZE" validate:"gt=0"`
}

// NewDefaultConfig returns a configuration with every field populated, so
// flag defaults and partial yaml files always land on a valid base.
func NewDefaultConfig() *Config {
	return &Config{
		Publisher: PublisherConfig{
			Interval:       60 * time.Second,
			Namespace:      "Sidekiq",
			Dimensions:     []string{},
			LeaderElection: false,
			LeaderLockKey:  "metrics-agent:leader",
			LeaderLockTTL:  30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			DB:        0,
			Namespace: "",
		},
		CloudWatch: CloudWatchConfig{},
		Server: ServerConfig{
			Enable:       true,
			Addr:         "0.0.0.0:8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Log: ZapLogConfig{
			Level:     "info",
			Format:    "json",
			Path:      "./logs",
			MaxAge:    7,
			MaxSizeMB: 100,
		},
	}
}

// LoadConfigWithCli merges flags, the yaml file named by --config, and
// environment variables, in that priority order.
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	cfg := NewDefaultConfig()
	v := viper.New()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// REDIS_ADDR -> redis.addr
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("_", "."))

	decoderConfig := &mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate runs struct-tag validation plus the per-section business checks.
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	if err := c.Publisher.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
