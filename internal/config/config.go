package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/envutil"
)

// FilterConfig is the per-project photo filter. Only visits by users
// holding the given role are scanned when UserRoleID is set.
type FilterConfig struct {
	UserRoleID *int `yaml:"user_role_id"`
}

// ProjectConfig describes one field project: where its photos live and
// which capture tables it uses.
type ProjectConfig struct {
	Key        string            `yaml:"key"`
	Name       string            `yaml:"name"`
	SourceDSN  string            `yaml:"source_dsn"`
	ImageRoot  string            `yaml:"image_root"`
	PhotoTypes []types.PhotoType `yaml:"photo_types"`
	Filters    FilterConfig      `yaml:"filters"`
}

type Config struct {
	Projects []ProjectConfig `yaml:"projects"`

	// ScanDays is the hash scanner's lookback window.
	ScanDays int `yaml:"scan_days"`
	// PhotoListDays is the photo list cache's lookback window.
	PhotoListDays int `yaml:"photo_list_days"`
}

const (
	DefaultScanDays      = 30
	DefaultPhotoListDays = 7
)

func Load(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFromEnv loads the registry from PHOTOVERIFY_CONFIG
// (default configs/projects.yaml).
func LoadFromEnv() (Config, error) {
	return Load(envutil.String("PHOTOVERIFY_CONFIG", "configs/projects.yaml"))
}

func (c *Config) applyDefaults() {
	if c.ScanDays <= 0 {
		c.ScanDays = DefaultScanDays
	}
	if c.PhotoListDays <= 0 {
		c.PhotoListDays = DefaultPhotoListDays
	}
}

func (c *Config) validate() error {
	if len(c.Projects) == 0 {
		return fmt.Errorf("no projects configured")
	}
	seen := make(map[string]bool, len(c.Projects))
	for i, p := range c.Projects {
		if p.Key == "" {
			return fmt.Errorf("project %d: missing key", i)
		}
		if seen[p.Key] {
			return fmt.Errorf("project %q: duplicate key", p.Key)
		}
		seen[p.Key] = true
		if p.SourceDSN == "" {
			return fmt.Errorf("project %q: missing source_dsn", p.Key)
		}
		if p.ImageRoot == "" {
			return fmt.Errorf("project %q: missing image_root", p.Key)
		}
		if len(p.PhotoTypes) == 0 {
			return fmt.Errorf("project %q: no photo_types", p.Key)
		}
		for _, t := range p.PhotoTypes {
			if !t.Valid() {
				return fmt.Errorf("project %q: unknown photo type %q", p.Key, t)
			}
		}
	}
	return nil
}

// Project returns the config for one project key.
func (c *Config) Project(key string) (ProjectConfig, bool) {
	for _, p := range c.Projects {
		if p.Key == key {
			return p, true
		}
	}
	return ProjectConfig{}, false
}
