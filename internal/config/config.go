package config

import "time"

// Config holds server configuration values.
type Config struct {
	ListenAddr      string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	AdminAddr       string        `mapstructure:"admin_addr" yaml:"admin_addr"`
	DatabasePath    string        `mapstructure:"database_path" yaml:"database_path"`
	FileInboxDir    string        `mapstructure:"file_inbox_dir" yaml:"file_inbox_dir"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	MaxFileBytes    int64         `mapstructure:"max_file_bytes" yaml:"max_file_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ListenAddr:      "127.0.0.1:5000",
		AdminAddr:       "127.0.0.1:9090",
		DatabasePath:    "relaychat.db",
		FileInboxDir:    "files",
		LogLevel:        "info",
		MaxFileBytes:    32 << 20,
		ShutdownTimeout: 5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ListenAddr != "" {
		c.ListenAddr = other.ListenAddr
	}
	if other.AdminAddr != "" {
		c.AdminAddr = other.AdminAddr
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.FileInboxDir != "" {
		c.FileInboxDir = other.FileInboxDir
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxFileBytes != 0 {
		c.MaxFileBytes = other.MaxFileBytes
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}
