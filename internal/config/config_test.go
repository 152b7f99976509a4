package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRIPCHAT_LLM_PROVIDER", "none")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":10000" || cfg.Store.Backend != StoreMemory || cfg.Store.TTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Locale != "ko" || cfg.Location().String() != "Asia/Seoul" {
		t.Fatalf("locale = %s, zone = %s", cfg.Locale, cfg.Location())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRIPCHAT_LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TRIPCHAT_OPENAI_ENDPOINT", "http://llm-gateway.local/v1/chat/completions")
	t.Setenv("TRIPCHAT_STORE_BACKEND", "redis")
	t.Setenv("TRIPCHAT_STORE_CAPACITY", "50")
	t.Setenv("TRIPCHAT_PROVIDER_TIMEOUT", "3s")
	t.Setenv("TRIPCHAT_USAGE_ENABLED", "true")
	t.Setenv("TRIPCHAT_STORE_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != ProviderOpenAI || cfg.LLM.OpenAIKey != "sk-test" ||
		cfg.LLM.OpenAIEndpoint != "http://llm-gateway.local/v1/chat/completions" {
		t.Fatalf("llm = %+v", cfg.LLM)
	}
	if cfg.Store.Backend != StoreRedis || cfg.Store.Capacity != 50 || cfg.Store.TTL != 24*time.Hour {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.Providers.Timeout != 3*time.Second || !cfg.LLM.UsageEnabled {
		t.Fatalf("providers = %+v, usage = %v", cfg.Providers, cfg.LLM.UsageEnabled)
	}
}

func TestLoadRequiresSecretForProvider(t *testing.T) {
	cases := []struct {
		provider string
		env      string
	}{
		{ProviderGemini, "GEMINI_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
	}
	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			t.Setenv("TRIPCHAT_LLM_PROVIDER", tc.provider)
			t.Setenv("GEMINI_API_KEY", "")
			t.Setenv("OPENAI_API_KEY", "")
			_, err := Load()
			if !errors.Is(err, ErrMissingSecret) {
				t.Fatalf("err = %v, want ErrMissingSecret", err)
			}
		})
	}
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	t.Setenv("TRIPCHAT_LLM_PROVIDER", "none")
	t.Setenv("TRIPCHAT_STORE_BACKEND", "etcd")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRejectsLockShorterThanTurn(t *testing.T) {
	t.Setenv("TRIPCHAT_LLM_PROVIDER", "none")
	t.Setenv("TRIPCHAT_STORE_BACKEND", "redis")
	t.Setenv("TRIPCHAT_TURN_TIMEOUT", "60s")
	t.Setenv("TRIPCHAT_STORE_LOCK_TTL", "60s")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for lock ttl <= turn timeout")
	}

	t.Setenv("TRIPCHAT_STORE_LOCK_TTL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.LockTTL <= cfg.HTTP.TurnTimeout {
		t.Fatalf("default lock ttl %s <= turn timeout %s", cfg.Store.LockTTL, cfg.HTTP.TurnTimeout)
	}
}
