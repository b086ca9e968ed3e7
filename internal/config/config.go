// Package config loads the bakery configuration: a YAML file overlaid with
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweetdelights/bakery-mcp/internal/llm"
)

// Config is the full application configuration shared by both binaries.
type Config struct {
	Web    WebConfig    `yaml:"web"`
	Server ServerConfig `yaml:"server"`
	Ollama llm.Config   `yaml:"ollama"`
}

// WebConfig configures the shop UI binary.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// ServerConfig configures how the web binary launches and talks to the
// catalog server subprocess.
type ServerConfig struct {
	Command         string        `yaml:"command"`
	Args            []string      `yaml:"args"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
	SettleDelay     time.Duration `yaml:"settle_delay"`
	GracefulTimeout time.Duration `yaml:"graceful_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Web: WebConfig{Addr: ":8080"},
		Server: ServerConfig{
			Command:         "bakeryd",
			ConnectTimeout:  15 * time.Second,
			CallTimeout:     15 * time.Second,
			SettleDelay:     500 * time.Millisecond,
			GracefulTimeout: 5 * time.Second,
		},
		Ollama: llm.Config{
			URL:     "http://localhost:11434/api/generate",
			Model:   "llama3.2:1b",
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads the config file at path (if it exists) over the defaults, then
// applies environment overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file is fine; defaults plus env apply.
		case err != nil:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BAKERY_WEB_ADDR"); v != "" {
		cfg.Web.Addr = v
	}
	if v := os.Getenv("BAKERY_SERVER_CMD"); v != "" {
		cfg.Server.Command = v
	}
	if v := os.Getenv("OLLAMA_API_URL"); v != "" {
		cfg.Ollama.URL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
}
