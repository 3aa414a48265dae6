package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for the document orchestrator.
// Precedence: environment variables > config file > defaults.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Transport TransportConfig `toml:"transport"`
	Log       LogConfig       `toml:"log"`
	Admission AdmissionConfig `toml:"admission"`
	Executor  ExecutorConfig  `toml:"executor"`
	Redis     RedisConfig     `toml:"redis"`
}

// ServerConfig holds process metadata.
type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// TransportConfig holds HTTP/WebSocket transport settings.
type TransportConfig struct {
	// Port is the HTTP listen port (default: 8420).
	Port string `toml:"port"`
	// Host is the HTTP listen address (default: "0.0.0.0").
	Host string `toml:"host"`
	// CORSOrigins is a comma-separated list of allowed CORS origins (default: "*").
	CORSOrigins string `toml:"cors_origins"`
	// ChannelBackend selects how the streaming plan endpoint carries
	// events/decisions: "in-process" (default; the Executor talks to the
	// websocket directly) or "redis" (the Executor talks to a redis pub/sub
	// adapter that the same process relays to and from the websocket).
	ChannelBackend string `toml:"channel_backend"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// AdmissionConfig holds the enforcement defaults applied when a request
// does not specify its own mode/override.
type AdmissionConfig struct {
	Mode                      string `toml:"mode"`                          // STRICT | GUIDED | PERMISSIVE
	AllowOverride             bool   `toml:"allow_override"`
	MinPrerequisiteContentLen int    `toml:"min_prerequisite_content_length"`
}

// ExecutorConfig holds the Plan Executor's policy knobs.
type ExecutorConfig struct {
	OnDocFailure       string        `toml:"on_doc_failure"` // abort-step | continue-step
	GateAfterFinalStep bool          `toml:"gate_after_final_step"`
	DecisionTimeout    time.Duration `toml:"decision_timeout"` // 0 means indefinite wait
}

// RedisConfig holds connection settings for the redis-backed channel
// adapter. Only consulted when Transport.ChannelBackend is "redis".
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Load creates a Config by reading from a TOML config file and environment
// variables. Precedence: environment variables > config file > defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter
//  2. DOCORCH_CONFIG environment variable
//  3. ./docorch.toml (current directory)
//  4. ~/.config/docorch/docorch.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Name:    "docorch",
			Version: "0.1.0",
		},
		Transport: TransportConfig{
			Port:           "8420",
			Host:           "0.0.0.0",
			CORSOrigins:    "*",
			ChannelBackend: "in-process",
		},
		Log: LogConfig{
			Level: "info",
		},
		Admission: AdmissionConfig{
			Mode:                      "GUIDED",
			AllowOverride:             true,
			MinPrerequisiteContentLen: 100,
		},
		Executor: ExecutorConfig{
			OnDocFailure:       "abort-step",
			GateAfterFinalStep: false,
			DecisionTimeout:    0,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile finds and parses the TOML config file. If no file is found,
// this is a no-op (config file is optional).
func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil // no config file found; rely on defaults + env
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return nil
}

// resolveConfigPath determines which config file to use. Returns empty string
// if no config file is found (config file is optional).
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit // caller wants this file; let DecodeFile report if missing
	}

	if p := os.Getenv("DOCORCH_CONFIG"); p != "" {
		return p
	}

	if _, err := os.Stat("docorch.toml"); err == nil {
		return "docorch.toml"
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/docorch/docorch.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is non-empty.
func (c *Config) applyEnv() {
	envOverride("DOCORCH_TRANSPORT_PORT", &c.Transport.Port)
	envOverride("DOCORCH_TRANSPORT_HOST", &c.Transport.Host)
	envOverride("DOCORCH_CORS_ORIGINS", &c.Transport.CORSOrigins)
	envOverride("DOCORCH_CHANNEL_BACKEND", &c.Transport.ChannelBackend)

	envOverride("DOCORCH_LOG_LEVEL", &c.Log.Level)

	envOverride("DOCORCH_ADMISSION_MODE", &c.Admission.Mode)
	if v := os.Getenv("DOCORCH_ADMISSION_ALLOW_OVERRIDE"); v != "" {
		c.Admission.AllowOverride = (v == "true" || v == "1")
	}
	if v := os.Getenv("DOCORCH_ADMISSION_MIN_PREREQ_LEN"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n >= 0 {
			c.Admission.MinPrerequisiteContentLen = n
		}
	}

	envOverride("DOCORCH_EXECUTOR_ON_DOC_FAILURE", &c.Executor.OnDocFailure)
	if v := os.Getenv("DOCORCH_EXECUTOR_GATE_AFTER_FINAL_STEP"); v != "" {
		c.Executor.GateAfterFinalStep = (v == "true" || v == "1")
	}
	if v := os.Getenv("DOCORCH_EXECUTOR_DECISION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Executor.DecisionTimeout = d
		}
	}

	envOverride("DOCORCH_REDIS_ADDR", &c.Redis.Addr)
	envOverride("DOCORCH_REDIS_PASSWORD", &c.Redis.Password)
}

// Validate checks that the configuration describes a coherent run mode.
func (c *Config) Validate() error {
	switch c.Admission.Mode {
	case "STRICT", "GUIDED", "PERMISSIVE":
	default:
		return fmt.Errorf("invalid admission mode: %q (must be STRICT, GUIDED, or PERMISSIVE)", c.Admission.Mode)
	}

	switch c.Executor.OnDocFailure {
	case "abort-step", "continue-step":
	default:
		return fmt.Errorf("invalid executor on_doc_failure: %q (must be abort-step or continue-step)", c.Executor.OnDocFailure)
	}

	switch c.Transport.ChannelBackend {
	case "in-process", "redis":
	default:
		return fmt.Errorf("invalid channel backend: %q (must be in-process or redis)", c.Transport.ChannelBackend)
	}

	return nil
}

// envOverride sets *dst to the value of the named env var, if it is non-empty.
func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
