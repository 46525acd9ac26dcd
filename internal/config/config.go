// Package config loads the server configuration from YAML with environment
// variable placeholder support.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Notifications struct {
		// LeadMinutes lists how many minutes before an event's start each
		// reminder fires. The summary always fires at the event's end.
		LeadMinutes         []int `yaml:"lead_minutes"`
		PollIntervalSeconds int   `yaml:"poll_interval_seconds"`
		PushRatePerSecond   int   `yaml:"push_rate_per_second"`
		PushBurst           int   `yaml:"push_burst"`

		Mail struct {
			From     string `yaml:"from"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
		} `yaml:"mail"`
	} `yaml:"notifications"`

	Calendar struct {
		Enabled  bool   `yaml:"enabled"`
		BaseURL  string `yaml:"base_url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"calendar"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/roomly.db"
	}
	if cfg.Backup.Schedule == "" {
		cfg.Backup.Schedule = "0 3 * * *"
	}
	if cfg.Backup.Path == "" {
		cfg.Backup.Path = "data/backups"
	}
	if len(cfg.Notifications.LeadMinutes) == 0 {
		cfg.Notifications.LeadMinutes = []int{60, 10}
	}
	if cfg.Notifications.PollIntervalSeconds <= 0 {
		cfg.Notifications.PollIntervalSeconds = 5
	}
	if cfg.Notifications.PushRatePerSecond <= 0 {
		cfg.Notifications.PushRatePerSecond = 20
	}
	if cfg.Notifications.PushBurst <= 0 {
		cfg.Notifications.PushBurst = 30
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// PollInterval is how often the dispatcher checks for due tasks.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Notifications.PollIntervalSeconds) * time.Second
}
