package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := Path(), "/custom/config/citedash/config.yml"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	t.Setenv(EnvConfigPath, "/etc/citedash.yml")
	if got := Path(); got != "/etc/citedash.yml" {
		t.Errorf("Path() with %s = %q", EnvConfigPath, got)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Setenv(EnvGitHubToken, "")
	dir := t.TempDir()

	cfg, err := LoadFile(filepath.Join(dir, "config.yml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Listen, DefaultListen)
	}
	if cfg.SnapshotDB != filepath.Join(dir, SnapshotFile) {
		t.Errorf("SnapshotDB = %q", cfg.SnapshotDB)
	}
	if len(cfg.Dashboards) != 0 {
		t.Errorf("Dashboards = %+v, want none", cfg.Dashboards)
	}
}

func TestLoadFile_Valid(t *testing.T) {
	t.Setenv(EnvGitHubToken, "")
	path := writeConfig(t, `
data_dir: /srv/citations
listen: 127.0.0.1:9000
github_token: file-token
dashboards:
  - name: rapid
    title: RAPID
    data: rapid.json
    github: c-h-david/rapid
    model: RAPID
  - name: grfr
    data: /abs/grfr.csv
    start_year: 2019
    end_year: 2024
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Listen != "127.0.0.1:9000" || cfg.GitHubToken != "file-token" {
		t.Errorf("Listen/GitHubToken = %q/%q", cfg.Listen, cfg.GitHubToken)
	}
	if cfg.DefaultDashboard != "rapid" {
		t.Errorf("DefaultDashboard = %q, want rapid", cfg.DefaultDashboard)
	}

	rapid, ok := cfg.Dashboard("rapid")
	if !ok {
		t.Fatal("Dashboard(rapid) not found")
	}
	if rapid.Data != "/srv/citations/rapid.json" {
		t.Errorf("rapid.Data = %q", rapid.Data)
	}
	if rapid.StartYear != DefaultStartYear || rapid.EndYear != DefaultEndYear {
		t.Errorf("rapid years = %d-%d", rapid.StartYear, rapid.EndYear)
	}
	if rapid.ModelName != "RAPID" {
		t.Errorf("rapid.ModelName = %q", rapid.ModelName)
	}

	grfr, _ := cfg.Dashboard("grfr")
	if grfr.Data != "/abs/grfr.csv" || grfr.Title != "grfr" || grfr.StartYear != 2019 {
		t.Errorf("grfr = %+v", grfr)
	}

	if _, ok := cfg.Dashboard("missing"); ok {
		t.Error("Dashboard(missing) found")
	}
}

func TestLoadFile_EnvTokenWins(t *testing.T) {
	t.Setenv(EnvGitHubToken, "env-token")
	cfg, err := LoadFile(writeConfig(t, "github_token: file-token\n"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.GitHubToken != "env-token" {
		t.Errorf("GitHubToken = %q, want env-token", cfg.GitHubToken)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"duplicate", "dashboards:\n  - {name: a, data: x.json}\n  - {name: a, data: y.json}\n"},
		{"bad name", "dashboards:\n  - {name: 'A B', data: x.json}\n"},
		{"no data", "dashboards:\n  - {name: a}\n"},
		{"year order", "dashboards:\n  - {name: a, data: x.json, start_year: 2025, end_year: 2020}\n"},
		{"bad github", "dashboards:\n  - {name: a, data: x.json, github: 'https://github.com/a/b'}\n"},
		{"unknown default", "default_dashboard: b\ndashboards:\n  - {name: a, data: x.json}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadFile() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadFile_MalformedYAML(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "dashboards: [unclosed\n"))
	if err == nil || errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadFile() error = %v, want parse error", err)
	}
}

func TestLoad_Caches(t *testing.T) {
	ResetCache()
	defer ResetCache()

	path := writeConfig(t, "listen: ':1'\n")
	t.Setenv(EnvConfigPath, path)

	first, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("listen: ':2'\n"), 0644); err != nil {
		t.Fatal(err)
	}
	second, _ := Load()
	if first != second || second.Listen != ":1" {
		t.Errorf("Load() not cached: %q", second.Listen)
	}

	ResetCache()
	third, _ := Load()
	if third.Listen != ":2" {
		t.Errorf("after ResetCache Listen = %q, want :2", third.Listen)
	}
}

func TestAdHocDashboard(t *testing.T) {
	d := AdHocDashboard("/tmp/RAPID_citations.json")
	if d.Name != "rapid_citations" || d.Title != "RAPID_citations" || d.Data != "/tmp/RAPID_citations.json" {
		t.Errorf("AdHocDashboard() = %+v", d)
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandTilde("~/data"); got != filepath.Join(home, "data") {
		t.Errorf("ExpandTilde(~/data) = %q", got)
	}
	if got := ExpandTilde("/abs/~x"); got != "/abs/~x" {
		t.Errorf("ExpandTilde(/abs/~x) = %q", got)
	}
}
