package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Web.Addr != ":8080" {
		t.Errorf("Web.Addr = %q, want :8080", cfg.Web.Addr)
	}
	if cfg.Server.Command != "bakeryd" {
		t.Errorf("Server.Command = %q, want bakeryd", cfg.Server.Command)
	}
	if cfg.Server.ConnectTimeout != 15*time.Second {
		t.Errorf("ConnectTimeout = %v, want 15s", cfg.Server.ConnectTimeout)
	}
	if cfg.Ollama.Model == "" {
		t.Error("Ollama.Model must have a default")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	def := Default()
	if cfg.Web != def.Web || cfg.Ollama != def.Ollama || cfg.Server.Command != def.Server.Command {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load of a missing file must not fail: %v", err)
	}
	if cfg.Web.Addr != ":8080" {
		t.Errorf("Web.Addr = %q, want default", cfg.Web.Addr)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
web:
  addr: ":9999"
server:
  command: /usr/local/bin/bakeryd
  args: ["--config", "/etc/bakery.yaml"]
  connect_timeout: 3s
ollama:
  model: llama3.2:3b
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Web.Addr != ":9999" {
		t.Errorf("Web.Addr = %q, want :9999", cfg.Web.Addr)
	}
	if cfg.Server.Command != "/usr/local/bin/bakeryd" {
		t.Errorf("Server.Command = %q", cfg.Server.Command)
	}
	if len(cfg.Server.Args) != 2 {
		t.Errorf("Server.Args = %v, want two entries", cfg.Server.Args)
	}
	if cfg.Server.ConnectTimeout != 3*time.Second {
		t.Errorf("ConnectTimeout = %v, want 3s", cfg.Server.ConnectTimeout)
	}
	if cfg.Ollama.Model != "llama3.2:3b" {
		t.Errorf("Ollama.Model = %q", cfg.Ollama.Model)
	}
	// Fields the file omits keep their defaults.
	if cfg.Server.CallTimeout != 15*time.Second {
		t.Errorf("CallTimeout = %v, want default 15s", cfg.Server.CallTimeout)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("web: [not a mapping"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unparseable yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BAKERY_WEB_ADDR", ":7070")
	t.Setenv("BAKERY_SERVER_CMD", "/opt/bakeryd")
	t.Setenv("OLLAMA_MODEL", "envmodel")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Web.Addr != ":7070" {
		t.Errorf("Web.Addr = %q, want env value", cfg.Web.Addr)
	}
	if cfg.Server.Command != "/opt/bakeryd" {
		t.Errorf("Server.Command = %q, want env value", cfg.Server.Command)
	}
	if cfg.Ollama.Model != "envmodel" {
		t.Errorf("Ollama.Model = %q, want env value", cfg.Ollama.Model)
	}
}
