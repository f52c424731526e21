package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "HOUSEMATCH"

type Config struct {
	ServerAddr     string
	DatabaseDSN    string
	AutoMigrate    bool
	SigningKey     []byte
	AllowedOrigins []string
	RequestTimeout time.Duration
	Swipe          SwipeConfig
	Log            LogConfig
}

type SwipeConfig struct {
	VelocityThreshold float64 `mapstructure:"velocity_threshold"`
	ScreenWidth       float64 `mapstructure:"screen_width"`
	MaxRotation       float64 `mapstructure:"max_rotation"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// rawConfig mirrors the keys accepted from files and the environment.
type rawConfig struct {
	Server struct {
		Addr           string        `mapstructure:"addr"`
		SigningKey     string        `mapstructure:"signing_key"`
		AllowedOrigins []string      `mapstructure:"allowed_origins"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
	} `mapstructure:"server"`
	Database struct {
		DSN         string `mapstructure:"dsn"`
		AutoMigrate bool   `mapstructure:"auto_migrate"`
	} `mapstructure:"database"`
	Swipe SwipeConfig `mapstructure:"swipe"`
	Log   LogConfig   `mapstructure:"log"`
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, errors.New("empty secret")
	}
	return base64.StdEncoding.DecodeString(base64Secret)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "localhost:8000")
	v.SetDefault("server.signing_key", "")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:8000"})
	v.SetDefault("server.request_timeout", 10*time.Second)

	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("swipe.velocity_threshold", 800)
	v.SetDefault("swipe.screen_width", 400)
	v.SetDefault("swipe.max_rotation", 60)

	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 30)
	v.SetDefault("log.max_age", 90)
	v.SetDefault("log.compress", true)
}

// Load reads configuration from defaults, an optional config file and
// HOUSEMATCH_* environment variables, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg, err := NewConfig(raw.Server.Addr, raw.Database.DSN, raw.Server.SigningKey, splitOrigins(raw.Server.AllowedOrigins))
	if err != nil {
		return nil, err
	}

	if raw.Server.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive")
	}
	if raw.Swipe.VelocityThreshold <= 0 {
		return nil, fmt.Errorf("swipe velocity threshold must be positive")
	}

	cfg.AutoMigrate = raw.Database.AutoMigrate
	cfg.RequestTimeout = raw.Server.RequestTimeout
	cfg.Swipe = raw.Swipe
	cfg.Log = raw.Log

	return cfg, nil
}

// splitOrigins accepts both list values and comma-separated strings, the
// latter being how lists arrive from the environment.
func splitOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		ServerAddr:     serverAddr,
		DatabaseDSN:    databaseDSN,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
		RequestTimeout: 10 * time.Second,
		Swipe: SwipeConfig{
			VelocityThreshold: 800,
			ScreenWidth:       400,
			MaxRotation:       60,
		},
	}, nil
}
