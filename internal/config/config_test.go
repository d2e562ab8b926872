package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SQLiteDBPath != "./data/shoplist.db" {
		t.Fatalf("unexpected default db path: %s", cfg.SQLiteDBPath)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SQLITE_DB_PATH", "/tmp/list.db")

	cfg := Load()
	if cfg.Port != "9090" || cfg.SQLiteDBPath != "/tmp/list.db" {
		t.Fatalf("env not honored: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Port: "8080", SQLiteDBPath: filepath.Join(t.TempDir(), "list.db")}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg = &Config{Port: "notaport", SQLiteDBPath: "list.db"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "invalid port") {
		t.Fatalf("expected port error, got %v", err)
	}

	cfg = &Config{Port: "70000", SQLiteDBPath: "list.db"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected out-of-range port error")
	}

	cfg = &Config{Port: "8080", SQLiteDBPath: ""}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected empty db path error")
	}
}
