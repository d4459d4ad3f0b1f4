package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"-"`
	Port        int    `toml:"port"`
	// logging
	LogLevel    string `toml:"log_level"`
	LogsPath    string `toml:"logs_path"`
	LogToStdout bool   `toml:"log_to_stdout"`
	// input store
	DBPath string `toml:"db_path"`
	// analysis
	RetrainIntervalDays int `toml:"retrain_interval_days"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Environment:         "development",
		Port:                8080,
		LogLevel:            "debug",
		LogToStdout:         true,
		DBPath:              "trainpulse.db",
		RetrainIntervalDays: 7,
	}
}

// Load reads the TOML config file and returns the section for env,
// filling unset fields from the defaults.
func Load(env, path string) (*Config, error) {
	var tomlCfg Toml
	if _, err := toml.DecodeFile(path, &tomlCfg); err != nil {
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}

	cfg, err := tomlCfg.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config file has no section for env %q", env)
	}

	cfg.Environment = env
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	defaults := Default()
	if cfg.Port == 0 {
		cfg.Port = defaults.Port
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaults.DBPath
	}
	if cfg.RetrainIntervalDays == 0 {
		cfg.RetrainIntervalDays = defaults.RetrainIntervalDays
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RetrainIntervalDays < 0 {
		return fmt.Errorf("invalid retrain interval: %d days", c.RetrainIntervalDays)
	}
	return nil
}
