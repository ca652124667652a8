// Package config handles the citedash global configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "citedash"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// SnapshotFile is the default snapshot database name inside ConfigDir.
	SnapshotFile = "snapshots.db"

	// DefaultListen is the default HTTP listen address.
	DefaultListen = ":8080"
	// DefaultStartYear and DefaultEndYear bound the yearly series.
	DefaultStartYear = 2011
	DefaultEndYear   = 2025

	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "CITEDASH_CONFIG"
	// EnvGitHubToken supplies the GitHub token; it beats the file.
	EnvGitHubToken = "GITHUB_TOKEN"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the file at ~/.config/citedash/config.yml.
type Config struct {
	DataDir          string      `yaml:"data_dir,omitempty" json:"data_dir,omitempty"`
	SnapshotDB       string      `yaml:"snapshot_db,omitempty" json:"snapshot_db,omitempty"`
	Listen           string      `yaml:"listen,omitempty" json:"listen,omitempty"`
	GitHubToken      string      `yaml:"github_token,omitempty" json:"github_token,omitempty"`
	DefaultDashboard string      `yaml:"default_dashboard,omitempty" json:"default_dashboard,omitempty"`
	Dashboards       []Dashboard `yaml:"dashboards,omitempty" json:"dashboards,omitempty"`
}

// Dashboard defines one citation dashboard.
type Dashboard struct {
	Name      string `yaml:"name" json:"name"`
	Title     string `yaml:"title,omitempty" json:"title,omitempty"`
	Data      string `yaml:"data" json:"data"`                         // Dataset path; relative paths resolve against data_dir
	GitHub    string `yaml:"github,omitempty" json:"github,omitempty"` // owner/repo of the model's repository
	ModelName string `yaml:"model,omitempty" json:"model,omitempty"`   // Flags original papers by title
	StartYear int    `yaml:"start_year,omitempty" json:"start_year,omitempty"`
	EndYear   int    `yaml:"end_year,omitempty" json:"end_year,omitempty"`
}

// cache holds the config loaded from the default path.
var cache *Config

// Path returns the config file path. CITEDASH_CONFIG wins; otherwise it
// respects XDG_CONFIG_HOME and defaults to ~/.config/citedash/config.yml.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandTilde(p)
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config at Path, caching the result.
func Load() (*Config, error) {
	if cache != nil {
		return cache, nil
	}
	cfg, err := LoadFile(Path())
	if err != nil {
		return nil, err
	}
	cache = cfg
	return cfg, nil
}

// ResetCache clears the cached config. Useful for testing.
func ResetCache() {
	cache = nil
}

// LoadFile reads, defaults and validates the config at path. A missing file
// yields the defaults, not an error.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyDefaults(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults(path string) {
	c.DataDir = ExpandTilde(c.DataDir)
	c.SnapshotDB = ExpandTilde(c.SnapshotDB)
	if c.SnapshotDB == "" && path != "" {
		c.SnapshotDB = filepath.Join(filepath.Dir(path), SnapshotFile)
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if tok := os.Getenv(EnvGitHubToken); tok != "" {
		c.GitHubToken = tok
	}
	for i := range c.Dashboards {
		d := &c.Dashboards[i]
		d.Data = c.ResolveDataPath(d.Data)
		if d.Title == "" {
			d.Title = d.Name
		}
		if d.StartYear == 0 {
			d.StartYear = DefaultStartYear
		}
		if d.EndYear == 0 {
			d.EndYear = DefaultEndYear
		}
	}
	if c.DefaultDashboard == "" && len(c.Dashboards) > 0 {
		c.DefaultDashboard = c.Dashboards[0].Name
	}
}

// ResolveDataPath expands ~ and resolves relative paths against DataDir.
func (c *Config) ResolveDataPath(p string) string {
	p = ExpandTilde(p)
	if p == "" || filepath.IsAbs(p) || c.DataDir == "" {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

var (
	dashboardName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	repoSlug      = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
)

// Validate checks dashboard definitions.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Dashboards))
	for i, d := range c.Dashboards {
		if !dashboardName.MatchString(d.Name) {
			return fmt.Errorf("%w: dashboards[%d]: name %q must be lowercase letters, digits, '-' or '_'", ErrInvalidConfig, i, d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate dashboard %q", ErrInvalidConfig, d.Name)
		}
		seen[d.Name] = true
		if d.Data == "" {
			return fmt.Errorf("%w: dashboard %q has no data file", ErrInvalidConfig, d.Name)
		}
		if d.StartYear > d.EndYear {
			return fmt.Errorf("%w: dashboard %q: start_year %d after end_year %d", ErrInvalidConfig, d.Name, d.StartYear, d.EndYear)
		}
		if d.GitHub != "" && !repoSlug.MatchString(d.GitHub) {
			return fmt.Errorf("%w: dashboard %q: github %q is not owner/repo", ErrInvalidConfig, d.Name, d.GitHub)
		}
	}
	if c.DefaultDashboard != "" && len(c.Dashboards) > 0 && !seen[c.DefaultDashboard] {
		return fmt.Errorf("%w: default_dashboard %q is not defined", ErrInvalidConfig, c.DefaultDashboard)
	}
	return nil
}

// Dashboard returns the named dashboard definition.
func (c *Config) Dashboard(name string) (Dashboard, bool) {
	for _, d := range c.Dashboards {
		if d.Name == name {
			return d, true
		}
	}
	return Dashboard{}, false
}

// AdHocDashboard defines a dashboard for a data file given on the command
// line, named after the file.
func AdHocDashboard(dataPath string) Dashboard {
	name := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
	return Dashboard{
		Name:      strings.ToLower(name),
		Title:     name,
		Data:      ExpandTilde(dataPath),
		StartYear: DefaultStartYear,
		EndYear:   DefaultEndYear,
	}
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// HelpfulConfigMessage explains how to define a dashboard.
func HelpfulConfigMessage() string {
	path := Path()
	return fmt.Sprintf(`No dashboard configured.

Pass a data file with --data, or create %s:
  dashboards:
    - name: rapid
      data: ~/data/rapid_citations.json
      github: c-h-david/rapid`, path)
}
