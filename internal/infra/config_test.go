package infra

import (
	"testing"
	"time"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SYNTHESIS_PROVIDER", "REMOTE_SYNTHESIS_URL", "GEMINI_API_KEY", "DATABASE_URL",
		"PORT", "MAX_BODY_BYTES", "CORS_ALLOWED_ORIGINS", "TRYON_ENFORCE_BOUNDS",
		"SYNTHESIS_CONCURRENCY", "WORKER_CONCURRENCY", "REDIS_HOST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "5000" {
		t.Fatalf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.SynthesisProvider != "blend" {
		t.Fatalf("SynthesisProvider = %q, want blend", cfg.SynthesisProvider)
	}
	if cfg.MaxBodyBytes != 16<<20 {
		t.Fatalf("MaxBodyBytes = %d, want 16MiB", cfg.MaxBodyBytes)
	}
	if cfg.SynthesisConcurrency != 1 {
		t.Fatalf("SynthesisConcurrency = %d, want 1", cfg.SynthesisConcurrency)
	}
	if cfg.EnforceBounds {
		t.Fatalf("EnforceBounds should default to false")
	}
	if cfg.RedisEnabled() {
		t.Fatalf("redis should be disabled without REDIS_HOST")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %#v", cfg.CORSOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SYNTHESIS_PROVIDER", "Remote")
	t.Setenv("REMOTE_SYNTHESIS_URL", "http://gpu:7860")
	t.Setenv("TRYON_ENFORCE_BOUNDS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	t.Setenv("RESULT_TTL_SECONDS", "60")
	t.Setenv("REDIS_HOST", "localhost")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.SynthesisProvider != "remote" {
		t.Fatalf("SynthesisProvider = %q, want remote", cfg.SynthesisProvider)
	}
	if !cfg.EnforceBounds {
		t.Fatalf("EnforceBounds should be true")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("CORSOrigins = %#v", cfg.CORSOrigins)
	}
	if cfg.ResultTTL != time.Minute {
		t.Fatalf("ResultTTL = %v, want 1m", cfg.ResultTTL)
	}
	if !cfg.RedisEnabled() {
		t.Fatalf("redis should be enabled")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown provider", env: map[string]string{"SYNTHESIS_PROVIDER": "kolors"}},
		{name: "remote without url", env: map[string]string{"SYNTHESIS_PROVIDER": "remote"}},
		{name: "gemini without key", env: map[string]string{"SYNTHESIS_PROVIDER": "gemini"}},
		{name: "zero concurrency", env: map[string]string{"SYNTHESIS_CONCURRENCY": "0"}},
		{name: "zero workers", env: map[string]string{"WORKER_CONCURRENCY": "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearProviderEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfigGeminiKeyFromStore(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SYNTHESIS_PROVIDER", "gemini")
	t.Setenv("DATABASE_URL", "postgres://example")

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
}
