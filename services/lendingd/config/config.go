package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime settings for lendingd.
type Config struct {
	Listen             string `yaml:"listen"`
	Env                string `yaml:"env"`
	DataDir            string `yaml:"data_dir"`
	RateLimitPerMin    int    `yaml:"rate_per_min"`
	SharedSecretHeader string `yaml:"shared_secret_header"`
	SharedSecretValue  string `yaml:"shared_secret"`
	PausedModules      string `yaml:"paused_modules"`
}

const (
	envListen             = "LENDINGD_LISTEN"
	envEnv                = "LENDINGD_ENV"
	envDataDir            = "LENDINGD_DATA_DIR"
	envRateLimitPerMin    = "LENDINGD_RATE_PER_MIN"
	envSharedSecretHeader = "LENDINGD_SHARED_SECRET_HEADER"
	envSharedSecret       = "LENDINGD_SHARED_SECRET"
	envPausedModules      = "LENDINGD_PAUSED_MODULES"

	defaultListen             = "0.0.0.0:9445"
	defaultRateLimitPerMin    = 120
	defaultSharedSecretHeader = "X-Lendex-Shared-Secret"
)

// Load builds the configuration from an optional YAML file layered under
// environment variables and defaults.
func Load(path string) (Config, error) {
	cfg := Config{
		Listen:             defaultListen,
		RateLimitPerMin:    defaultRateLimitPerMin,
		SharedSecretHeader: defaultSharedSecretHeader,
	}
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.Listen = stringFromEnv(envListen, cfg.Listen)
	cfg.Env = stringFromEnv(envEnv, cfg.Env)
	cfg.DataDir = stringFromEnv(envDataDir, cfg.DataDir)
	cfg.RateLimitPerMin = intFromEnv(envRateLimitPerMin, cfg.RateLimitPerMin)
	cfg.SharedSecretHeader = stringFromEnv(envSharedSecretHeader, cfg.SharedSecretHeader)
	cfg.SharedSecretValue = stringFromEnv(envSharedSecret, cfg.SharedSecretValue)
	cfg.PausedModules = stringFromEnv(envPausedModules, cfg.PausedModules)
	return cfg, nil
}

// Sanitized returns a copy with secrets masked for logging.
func (cfg Config) Sanitized() Config {
	clone := cfg
	if clone.SharedSecretValue != "" {
		clone.SharedSecretValue = maskSecret(clone.SharedSecretValue)
	}
	return clone
}

// Validate ensures the configuration is internally consistent.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Listen) == "" {
		return fmt.Errorf("config: listen address required")
	}
	if cfg.RateLimitPerMin < 0 {
		return fmt.Errorf("config: rate limit must not be negative")
	}
	return nil
}

// Paused returns the parsed list of paused module names.
func (cfg Config) Paused() []string {
	return splitAndTrim(cfg.PausedModules)
}

func stringFromEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func maskSecret(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
