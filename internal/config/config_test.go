package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PURSUIT_INTERVAL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.PursuitInterval != 5*time.Minute {
		t.Fatalf("expected default pursuit interval, got %s", cfg.PursuitInterval)
	}
	if cfg.FlashOfferMinGapMinutes != 60 {
		t.Fatalf("expected default min gap 60, got %d", cfg.FlashOfferMinGapMinutes)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("RENEWAL_INTERVAL", "45m")
	t.Setenv("FLASH_OFFER_DISCOUNT_PCT", "35")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.cl, https://b.cl,,")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if !cfg.UseMemoryQueue {
		t.Fatalf("expected memory queue enabled")
	}
	if cfg.RenewalInterval != 45*time.Minute {
		t.Fatalf("expected renewal interval override, got %s", cfg.RenewalInterval)
	}
	if cfg.FlashOfferDiscountPct != 35 {
		t.Fatalf("expected discount override, got %d", cfg.FlashOfferDiscountPct)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.cl" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("FLASH_OFFER_MIN_GAP_MINUTES", "abc")
	t.Setenv("REDIS_TLS", "maybe")
	t.Setenv("PURSUIT_INTERVAL", "soon")
	cfg := Load()
	if cfg.FlashOfferMinGapMinutes != 60 {
		t.Fatalf("expected fallback min gap, got %d", cfg.FlashOfferMinGapMinutes)
	}
	if cfg.RedisTLS {
		t.Fatalf("expected redis tls fallback false")
	}
	if cfg.PursuitInterval != 5*time.Minute {
		t.Fatalf("expected fallback interval, got %s", cfg.PursuitInterval)
	}
}
