package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsMemory(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8081" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.JWTSecret != devJWTSecret {
		t.Errorf("expected development secret fallback, got %q", cfg.JWTSecret)
	}
	if cfg.AccessTTL() != 5*time.Minute || cfg.RefreshTTL() != 24*time.Hour {
		t.Errorf("ttl defaults: access=%v refresh=%v", cfg.AccessTTL(), cfg.RefreshTTL())
	}
	if cfg.UpstreamTimeout() != 10*time.Second {
		t.Errorf("UpstreamTimeout = %v", cfg.UpstreamTimeout())
	}
	if !cfg.DBAutoMigrate {
		t.Errorf("DB_AUTO_MIGRATE should default to true")
	}
	if got := cfg.CORSOriginList(); len(got) != 2 {
		t.Errorf("CORSOriginList = %v", got)
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DB_DSN")
	}
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for production without JWT_SECRET")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_ACCESS_TTL", "2m")
	t.Setenv("JWT_REFRESH_TTL", "48h")
	t.Setenv("STOCK_API_BASE_URL", "http://upstream.local/")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessTTL() != 2*time.Minute || cfg.RefreshTTL() != 48*time.Hour {
		t.Errorf("ttl overrides: access=%v refresh=%v", cfg.AccessTTL(), cfg.RefreshTTL())
	}
	if cfg.StockAPIBaseURL != "http://upstream.local" {
		t.Errorf("trailing slash should be trimmed, got %q", cfg.StockAPIBaseURL)
	}
	if cfg.DBAutoMigrate {
		t.Errorf("DB_AUTO_MIGRATE=false ignored")
	}
	if cfg.BcryptCost != 4 {
		t.Errorf("BcryptCost = %d", cfg.BcryptCost)
	}
}

func TestLoadRejectsInvertedTTLs(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_ACCESS_TTL", "48h")
	t.Setenv("JWT_REFRESH_TTL", "1h")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when access ttl >= refresh ttl")
	}
}
