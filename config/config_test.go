package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("CLERK_SECRET_KEY", "sk_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8400" {
		t.Fatalf("unexpected port: %q", cfg.Port)
	}
	if cfg.UserCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected cache ttl: %v", cfg.UserCacheTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STORE", "mongo")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("CLERK_SECRET_KEY", "sk_test")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:8081, https://wya.app")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("INACTIVITY_LEASE_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MongoURI != "mongodb://db:27017" {
		t.Fatalf("unexpected mongo uri: %q", cfg.MongoURI)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("unexpected redis db: %d", cfg.RedisDB)
	}
	if cfg.InactivityLease != 90*time.Second {
		t.Fatalf("unexpected lease: %v", cfg.InactivityLease)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://wya.app" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestValidateRejectsMissingSecrets(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "mongo without uri", cfg: Config{Store: StoreMongo, ClerkSecretKey: "k", UserCacheTTL: time.Minute, InactivityLease: time.Minute}},
		{name: "missing clerk key", cfg: Config{Store: StoreMemory, UserCacheTTL: time.Minute, InactivityLease: time.Minute}},
		{name: "unknown store", cfg: Config{Store: "sqlite", ClerkSecretKey: "k", UserCacheTTL: time.Minute, InactivityLease: time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
