package app

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BackendURL          string `yaml:"backend_url"`
	DraftAPIURL         string `yaml:"draft_api_url"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	DefaultProfile      string `yaml:"default_profile"`
	MaxJobs             int    `yaml:"max_jobs"`
	LogPath             string `yaml:"log_path"`
}

func DefaultConfig() Config {
	return Config{
		BackendURL:          "http://127.0.0.1:5001",
		DraftAPIURL:         "http://127.0.0.1:8001",
		PollIntervalSeconds: 5,
		MaxJobs:             15,
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = "http://127.0.0.1:5001"
	}
	if cfg.DraftAPIURL == "" {
		cfg.DraftAPIURL = "http://127.0.0.1:8001"
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 5
	}
	if cfg.PollIntervalSeconds > 300 {
		cfg.PollIntervalSeconds = 300
	}
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 15
	}
	if cfg.MaxJobs > 100 {
		cfg.MaxJobs = 100
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "hunt", "config.yml")
}
