package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadFallbacks(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "not-a-number")
	t.Setenv("DASHBOARD_TTL_SECONDS", "-3")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("port fallback %q", cfg.Port)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("token ttl fallback %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.DashboardTTLSeconds != 15 {
		t.Fatalf("dashboard ttl fallback %d", cfg.DashboardTTLSeconds)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("address %q", cfg.Address())
	}
}
