package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9445" {
		t.Fatalf("unexpected listen default %q", cfg.Listen)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("unexpected rate default %d", cfg.RateLimitPerMin)
	}
	if cfg.SharedSecretHeader != "X-Lendex-Shared-Secret" {
		t.Fatalf("unexpected header default %q", cfg.SharedSecretHeader)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFileAndEnvLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "listen: \"127.0.0.1:7000\"\nrate_per_min: 10\npaused_modules: \"lending, swap\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LENDINGD_LISTEN", "127.0.0.1:7100")
	t.Setenv("LENDINGD_SHARED_SECRET", "topsecretvalue")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:7100" {
		t.Fatalf("environment should win over file, got %q", cfg.Listen)
	}
	if cfg.RateLimitPerMin != 10 {
		t.Fatalf("file value lost, got %d", cfg.RateLimitPerMin)
	}

	paused := cfg.Paused()
	if len(paused) != 2 || paused[0] != "lending" || paused[1] != "swap" {
		t.Fatalf("unexpected paused modules %v", paused)
	}

	masked := cfg.Sanitized().SharedSecretValue
	if masked == cfg.SharedSecretValue {
		t.Fatalf("sanitized config leaked the secret")
	}
	if masked == "" {
		t.Fatalf("sanitized secret should stay non-empty")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	if err := (Config{Listen: " "}).Validate(); err == nil {
		t.Fatalf("expected error for empty listen address")
	}
	if err := (Config{Listen: ":9445", RateLimitPerMin: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative rate limit")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
