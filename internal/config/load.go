package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds config with precedence: defaults → YAML file → dotenv files →
// environment. Explicit environment variables always beat dotenv values
// because godotenv.Load never overwrites existing keys.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("malformed YAML in %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// absent config file is fine; defaults apply
		default:
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	for _, dotenvPath := range []string{".env.local", ".env"} {
		if _, err := os.Stat(dotenvPath); err != nil {
			continue
		}
		if err := godotenv.Load(dotenvPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("XAI_API_KEY")); v != "" {
		cfg.XAIAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("XAI_BASE_URL")); v != "" {
		cfg.XAIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GROKMCP_VISION_MODEL")); v != "" {
		cfg.VisionModel = v
	}
	if v := strings.TrimSpace(os.Getenv("GROKMCP_TEXT_MODEL")); v != "" {
		cfg.TextModel = v
	}
	if v := strings.TrimSpace(os.Getenv("GROKMCP_LISTEN")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("GROKMCP_STATE_DIR")); v != "" {
		cfg.StateDir = v
	}
	if v := strings.TrimSpace(os.Getenv("GROKMCP_AUTH_TOKEN")); v != "" {
		cfg.AuthToken = v
	}
}

// Validate rejects configs the server cannot start with. The missing API key
// check is the fail-fast guard: nothing should bind or speak the protocol
// without an upstream credential.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(cfg.XAIAPIKey) == "" {
		return errors.New("XAI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.MCPPath) == "" || !strings.HasPrefix(cfg.MCPPath, "/") {
		return fmt.Errorf("mcp_path must start with /: %q", cfg.MCPPath)
	}
	if strings.TrimSpace(cfg.ListenAddr) != "" {
		if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
			return fmt.Errorf("listen_addr must be host:port: %w", err)
		}
	}
	if cfg.RateLimitRPS < 0 || cfg.RateLimitBurst < 0 {
		return errors.New("rate limits must be >= 0")
	}
	if strings.TrimSpace(cfg.VisionModel) == "" || strings.TrimSpace(cfg.TextModel) == "" {
		return errors.New("vision_model and text_model must not be empty")
	}
	return nil
}
