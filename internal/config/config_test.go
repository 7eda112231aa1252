package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cineforge/internal/config"
)

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("CINEFORGE_BACKEND_URL", "https://proj.example.co/")
	t.Setenv("CINEFORGE_ANON_KEY", "anon-key")

	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("missing file should report exists=false")
	}
	if resolved != path {
		t.Fatalf("resolved path %q", resolved)
	}
	if cfg.Backend.URL != "https://proj.example.co" {
		t.Fatalf("env url not applied (trailing slash should be trimmed): %q", cfg.Backend.URL)
	}
	if cfg.Backend.AnonKey != "anon-key" {
		t.Fatalf("env anon key not applied: %q", cfg.Backend.AnonKey)
	}
	if cfg.Backend.RequestTimeout != 30 || cfg.Backend.RowLimit != 200 {
		t.Fatalf("backend defaults missing: %+v", cfg.Backend)
	}
	if cfg.Watch.HeartbeatInterval != 25 || cfg.Watch.RefreshInterval != 60 {
		t.Fatalf("watch defaults missing: %+v", cfg.Watch)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults missing: %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) || !filepath.IsAbs(cfg.Paths.LogDir) {
		t.Fatalf("paths should be absolute: %+v", cfg.Paths)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[backend]
url = "https://proj.example.co"
anon_key = "anon-key"
row_limit = 50

[watch]
heartbeat_interval = 10

[notifications]
ntfy_topic = "https://ntfy.sh/cineforge-test"

[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("file should report exists=true")
	}
	if cfg.Backend.RowLimit != 50 {
		t.Fatalf("row_limit override missing: %d", cfg.Backend.RowLimit)
	}
	if cfg.Backend.RequestTimeout != 30 {
		t.Fatalf("unset fields should keep defaults: %d", cfg.Backend.RequestTimeout)
	}
	if cfg.Watch.HeartbeatInterval != 10 {
		t.Fatalf("heartbeat override missing: %d", cfg.Watch.HeartbeatInterval)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/cineforge-test" {
		t.Fatalf("ntfy topic missing: %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging overrides missing: %+v", cfg.Logging)
	}
	if cfg.Paths.DataDir != filepath.Join(dir, "data") {
		t.Fatalf("data dir not applied: %q", cfg.Paths.DataDir)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	t.Setenv("CINEFORGE_BACKEND_URL", "")
	t.Setenv("CINEFORGE_ANON_KEY", "")

	cases := []struct {
		name    string
		content string
		wantSub string
	}{
		{
			"missing url",
			"[backend]\nanon_key = \"anon-key\"\n",
			"backend.url is required",
		},
		{
			"bad scheme",
			"[backend]\nurl = \"ftp://proj.example.co\"\nanon_key = \"anon-key\"\n",
			"http or https",
		},
		{
			"missing anon key",
			"[backend]\nurl = \"https://proj.example.co\"\n",
			"backend.anon_key is required",
		},
		{
			"bad log format",
			"[backend]\nurl = \"https://proj.example.co\"\nanon_key = \"k\"\n[logging]\nformat = \"yaml\"\n",
			"logging.format",
		},
		{
			"bad log level",
			"[backend]\nurl = \"https://proj.example.co\"\nanon_key = \"k\"\n[logging]\nlevel = \"trace\"\n",
			"logging.level",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("CINEFORGE_BACKEND_URL", "https://proj.example.co")
	t.Setenv("CINEFORGE_ANON_KEY", "anon-key")

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample should exist")
	}
	if cfg.Backend.URL != "https://proj.example.co" {
		t.Fatalf("sample empty url should defer to env, got %q", cfg.Backend.URL)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "data", "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	for _, p := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q missing: %v", p, err)
		}
	}
}
