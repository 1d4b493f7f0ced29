package config

import (
	"grokmcp/internal/protocol"
	"grokmcp/internal/xai"
)

const DefaultProtocolVersion = "2024-11-05"

type Config struct {
	ListenAddr      string `yaml:"listen_addr"`
	MCPPath         string `yaml:"mcp_path"`
	ProtocolVersion string `yaml:"protocol_version"`
	Public          bool   `yaml:"public"`
	// RateLimitRPS and RateLimitBurst define per-IP token bucket limits
	// applied by the HTTP transport when bound publicly.
	RateLimitRPS   int `yaml:"rate_limit_rps"`
	RateLimitBurst int `yaml:"rate_limit_burst"`
	// StateDir enables the sqlite call journal when non-empty.
	StateDir string `yaml:"state_dir"`

	XAIBaseURL  string `yaml:"xai_base_url"`
	VisionModel string `yaml:"vision_model"`
	TextModel   string `yaml:"text_model"`

	// XAIAPIKey and AuthToken are runtime-only values sourced from the
	// environment; they are never read from or written to the config file.
	XAIAPIKey string `yaml:"-"`
	AuthToken string `yaml:"-"`
}

func Default() Config {
	return Config{
		ListenAddr:      protocol.DefaultListenAddr,
		MCPPath:         protocol.DefaultMCPPath,
		ProtocolVersion: DefaultProtocolVersion,
		Public:          false,
		RateLimitRPS:    60,
		RateLimitBurst:  20,
		StateDir:        "",
		XAIBaseURL:      xai.DefaultBaseURL,
		VisionModel:     xai.DefaultVisionModel,
		TextModel:       xai.DefaultTextModel,
	}
}
