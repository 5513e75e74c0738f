// Package config loads server configuration from environment variables
// (FILEPI_* prefix) and an optional YAML config file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all server configuration.
type Config struct {
	// RootDir confines every filesystem operation. Required.
	RootDir string `mapstructure:"root_dir"`

	// Server
	ListenAddr  string `mapstructure:"listen_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogDir    string `mapstructure:"log_dir"`

	// Uploads
	MaxUploadSize int64 `mapstructure:"max_upload_size"`

	// Recursive traversal (videos, search)
	MaxWalkDepth int `mapstructure:"max_walk_depth"`

	// Thumbnails
	ThumbCacheMaxBytes int64         `mapstructure:"thumb_cache_max_bytes"`
	ThumbNegativeTTL   time.Duration `mapstructure:"thumb_negative_ttl"`
	FFmpegPath         string        `mapstructure:"ffmpeg_path"`
}

// Load reads configuration from the environment and, if path is non-empty or
// a config.yaml is found in the usual locations, from a config file.
// Environment variables win over file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("root_dir", "")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_dir", "")
	v.SetDefault("max_upload_size", int64(10)<<30) // 10 GiB
	v.SetDefault("max_walk_depth", 32)
	v.SetDefault("thumb_cache_max_bytes", int64(64)<<20) // 64 MiB
	v.SetDefault("thumb_negative_ttl", 30*time.Second)
	v.SetDefault("ffmpeg_path", "ffmpeg")

	v.SetEnvPrefix("FILEPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and that the root directory is usable.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("FILEPI_ROOT_DIR is required")
	}
	info, err := os.Stat(c.RootDir)
	if err != nil {
		return fmt.Errorf("root dir %s: %w", c.RootDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root dir %s is not a directory", c.RootDir)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	if c.MaxWalkDepth <= 0 {
		return fmt.Errorf("max_walk_depth must be positive")
	}
	return nil
}
