package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  host: "0.0.0.0"
  port: 8080
ai:
  api_key: "test-key-123"
  text_model: "gemini-2.5-pro"
  timeout_seconds: 30
journal:
  path: "data/journal.db"
catalog:
  path: "catalog.yaml"
students:
  - "André Brito"
  - "Liliane Torres"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that a well-formed YAML config loads with all fields populated.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.AI.APIKey != "test-key-123" {
		t.Errorf("ai.api_key = %q, want %q", cfg.AI.APIKey, "test-key-123")
	}
	if cfg.AI.TextModel != "gemini-2.5-pro" {
		t.Errorf("ai.text_model = %q, want %q", cfg.AI.TextModel, "gemini-2.5-pro")
	}
	if cfg.AI.Timeout() != 30*time.Second {
		t.Errorf("ai timeout = %v, want 30s", cfg.AI.Timeout())
	}
	if cfg.Journal.Path != "data/journal.db" {
		t.Errorf("journal.path = %q, want %q", cfg.Journal.Path, "data/journal.db")
	}
	if cfg.Catalog.Path != "catalog.yaml" {
		t.Errorf("catalog.path = %q, want %q", cfg.Catalog.Path, "catalog.yaml")
	}
	if len(cfg.Students) != 2 || cfg.Students[1] != "Liliane Torres" {
		t.Errorf("students = %v", cfg.Students)
	}
}

// TestDefaults verifies unset AI settings fall back to the Gemini defaults.
func TestDefaults(t *testing.T) {
	yaml := `
server:
  port: 8080
ai:
  api_key: "key"
journal:
  path: "journal.db"
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AI.BaseURL != DefaultBaseURL {
		t.Errorf("ai.base_url = %q, want %q", cfg.AI.BaseURL, DefaultBaseURL)
	}
	if cfg.AI.TextModel != DefaultTextModel {
		t.Errorf("ai.text_model = %q, want %q", cfg.AI.TextModel, DefaultTextModel)
	}
	if cfg.AI.ImageModel != DefaultImageModel {
		t.Errorf("ai.image_model = %q, want %q", cfg.AI.ImageModel, DefaultImageModel)
	}
	if cfg.AI.Timeout() != time.Minute {
		t.Errorf("ai timeout = %v, want 1m", cfg.AI.Timeout())
	}
	if cfg.AI.SettleDelay() != 500*time.Millisecond {
		t.Errorf("settle delay = %v, want 500ms", cfg.AI.SettleDelay())
	}
	if cfg.Tailscale.Hostname != "fichatreino" {
		t.Errorf("tailscale.hostname = %q, want %q", cfg.Tailscale.Hostname, "fichatreino")
	}
}

// TestSettleDelayZero verifies an explicit zero is kept instead of replaced
// by the default.
func TestSettleDelayZero(t *testing.T) {
	yaml := `
server:
  port: 8080
ai:
  api_key: "key"
  settle_delay_ms: 0
journal:
  path: "journal.db"
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AI.SettleDelay() != 0 {
		t.Errorf("settle delay = %v, want 0", cfg.AI.SettleDelay())
	}

	t.Setenv("FICHATREINO_AI_SETTLE_DELAY_MS", "250")
	cfg, err = Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AI.SettleDelay() != 250*time.Millisecond {
		t.Errorf("settle delay = %v, want 250ms", cfg.AI.SettleDelay())
	}
}

// TestEnvOverride verifies that FICHATREINO_ env vars take precedence over YAML values.
func TestEnvOverride(t *testing.T) {
	t.Setenv("FICHATREINO_SERVER_PORT", "9999")
	t.Setenv("FICHATREINO_AI_API_KEY", "env-key")
	t.Setenv("FICHATREINO_AI_IMAGE_MODEL", "imagen-3.0-generate-002")
	t.Setenv("FICHATREINO_JOURNAL_PATH", "/var/lib/fichatreino/journal.db")
	t.Setenv("FICHATREINO_TAILSCALE_ENABLED", "true")

	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.AI.APIKey != "env-key" {
		t.Errorf("ai.api_key = %q, want %q", cfg.AI.APIKey, "env-key")
	}
	if cfg.AI.ImageModel != "imagen-3.0-generate-002" {
		t.Errorf("ai.image_model = %q, want %q", cfg.AI.ImageModel, "imagen-3.0-generate-002")
	}
	if cfg.Journal.Path != "/var/lib/fichatreino/journal.db" {
		t.Errorf("journal.path = %q", cfg.Journal.Path)
	}
	if !cfg.Tailscale.Enabled {
		t.Error("tailscale.enabled = false, want true")
	}
	// Unchanged fields should keep YAML values
	if cfg.AI.TextModel != "gemini-2.5-pro" {
		t.Errorf("ai.text_model = %q, want %q", cfg.AI.TextModel, "gemini-2.5-pro")
	}
}

// TestValidation verifies that missing required fields produce a clear error.
func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing port",
			yaml: "ai:\n  api_key: k\njournal:\n  path: j.db\n",
			want: "server.port",
		},
		{
			name: "missing api key",
			yaml: "server:\n  port: 8080\njournal:\n  path: j.db\n",
			want: "ai.api_key",
		},
		{
			name: "missing journal",
			yaml: "server:\n  port: 8080\nai:\n  api_key: k\n",
			want: "journal.path",
		},
		{
			name: "negative settle delay",
			yaml: "server:\n  port: 8080\nai:\n  api_key: k\n  settle_delay_ms: -1\njournal:\n  path: j.db\n",
			want: "ai.settle_delay_ms",
		},
		{
			name: "blank student",
			yaml: "server:\n  port: 8080\nai:\n  api_key: k\njournal:\n  path: j.db\nstudents: [\"Ana\", \" \"]\n",
			want: "students[1]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
