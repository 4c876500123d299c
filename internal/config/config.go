package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const FileName = "config.yaml"

const (
	TargetRAM  = "ram"
	TargetCard = "card"
)

type Config struct {
	// BaseProjectsFolder is where new projects are created when no parent is given.
	BaseProjectsFolder string       `yaml:"base_projects_folder,omitempty"`
	LastProject        string       `yaml:"last_project,omitempty"`
	Camera             CameraConfig `yaml:"camera,omitempty"`
	Log                LogConfig    `yaml:"log,omitempty"`

	// DataDir is the directory the config was loaded from. Not persisted.
	DataDir string `yaml:"-"`
}

type CameraConfig struct {
	Binary              string `yaml:"binary,omitempty"`
	Port                string `yaml:"port,omitempty"`
	Target              string `yaml:"target,omitempty"`
	DeleteAfterDownload bool   `yaml:"delete_after_download,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validFormats = map[string]bool{"console": true, "json": true}

func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			cfg.applyDefaults(dataDir)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults(dataDir)
	return &cfg, nil
}

func Save(dataDir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	path := filepath.Join(dataDir, FileName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyDefaults(dataDir string) {
	c.DataDir = dataDir
	if c.BaseProjectsFolder == "" {
		c.BaseProjectsFolder = filepath.Join(dataDir, "projects")
	}
	if c.Camera.Binary == "" {
		c.Camera.Binary = "gphoto2"
	}
	if c.Camera.Target == "" {
		c.Camera.Target = TargetRAM
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// ApplyEnv overrides fields from COPISTA_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("COPISTA_BASE_PROJECTS_FOLDER"); v != "" {
		c.BaseProjectsFolder = v
	}
	if v := os.Getenv("COPISTA_CAMERA_PORT"); v != "" {
		c.Camera.Port = v
	}
	if v := os.Getenv("COPISTA_CAMERA_TARGET"); v != "" {
		c.Camera.Target = v
	}
	if v := os.Getenv("COPISTA_GPHOTO2"); v != "" {
		c.Camera.Binary = v
	}
	if v := os.Getenv("COPISTA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Camera.Target != TargetRAM && c.Camera.Target != TargetCard {
		return fmt.Errorf("camera target must be %q or %q, got %q", TargetRAM, TargetCard, c.Camera.Target)
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}

// UseCameraRAM reports whether captures stay in camera RAM instead of the card.
func (c *Config) UseCameraRAM() bool {
	return c.Camera.Target != TargetCard
}
