package config

import (
	"fmt"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	Mode              string        `mapstructure:"mode" yaml:"mode"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMin   int           `mapstructure:"rate_limit_per_min" yaml:"rate_limit_per_min"`

	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogFile       string `mapstructure:"log_file" yaml:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb" yaml:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups" yaml:"log_max_backups"`

	// DatabasePath enables the minutes archive when non-empty.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	SessionTTL  time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`

	Timezone            string `mapstructure:"timezone" yaml:"timezone"`
	DefaultMembers      string `mapstructure:"default_members" yaml:"default_members"`
	RejectRoomOverwrite bool   `mapstructure:"reject_room_overwrite" yaml:"reject_room_overwrite"`
	Footer              string `mapstructure:"footer" yaml:"footer"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		Mode:              "release",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		MaxMessageBytes:   1 << 16,
		RateLimitPerMin:   120,
		LogLevel:          "info",
		LogMaxSizeMB:      50,
		LogMaxBackups:     3,
		JWTIssuer:         "toolboxtalk",
		JWTAudience:       "toolboxtalk",
		SessionTTL:        12 * time.Hour,
		Timezone:          "Asia/Seoul",
		DefaultMembers:    "김작업,박엔지,이안전",
		Footer:            "App. support by HealSE Co., Ltd.",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.Mode != "" {
		c.Mode = other.Mode
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMin != 0 {
		c.RateLimitPerMin = other.RateLimitPerMin
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.SessionTTL != 0 {
		c.SessionTTL = other.SessionTTL
	}
	if other.Timezone != "" {
		c.Timezone = other.Timezone
	}
}

// LoadLocation resolves the configured timezone. An empty timezone is UTC.
func (c *Config) LoadLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, _ := c.LoadLocation()
	return loc
}
