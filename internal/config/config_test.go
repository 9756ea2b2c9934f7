package config

import (
	"testing"
	"time"
)

// TestLoad_Defaults 環境変数なしでもデフォルト値で動く
func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_PORT", "SERVER_PORT", "ENV",
		"ALLOWED_ORIGINS", "UPLOAD_DIR", "WS_PING_INTERVAL_SEC", "WS_PONG_WAIT_SEC"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.DBHost != "localhost" || cfg.DBPort != "3306" {
		t.Errorf("Unexpected DB defaults: %s:%s", cfg.DBHost, cfg.DBPort)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.ServerPort)
	}
	if cfg.Env != "development" {
		t.Errorf("Expected default env development, got %s", cfg.Env)
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("Expected default upload dir 'uploads', got %s", cfg.UploadDir)
	}
	if cfg.PingInterval != 30*time.Second {
		t.Errorf("Expected default ping interval 30s, got %v", cfg.PingInterval)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("Expected 2 default origins, got %v", cfg.AllowedOrigins)
	}
}

// TestLoad_TrimsOrigins カンマ区切りオリジンの空白が除去されることを確認
func TestLoad_TrimsOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " http://a.example , http://b.example ")

	cfg := Load()

	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("Expected 2 origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.AllowedOrigins[0] != "http://a.example" || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("Origins not trimmed: %v", cfg.AllowedOrigins)
	}
}

// TestLoad_KeepAlive 不正な値はデフォルトに落ち、pong猶予はping間隔より長く補正される
func TestLoad_KeepAlive(t *testing.T) {
	t.Setenv("WS_PING_INTERVAL_SEC", "40")
	t.Setenv("WS_PONG_WAIT_SEC", "10")

	cfg := Load()

	if cfg.PingInterval != 40*time.Second {
		t.Errorf("Expected ping interval 40s, got %v", cfg.PingInterval)
	}
	if cfg.PongWait <= cfg.PingInterval {
		t.Errorf("Pong wait must exceed ping interval, got %v <= %v", cfg.PongWait, cfg.PingInterval)
	}

	t.Setenv("WS_PING_INTERVAL_SEC", "bogus")
	cfg = Load()
	if cfg.PingInterval != 30*time.Second {
		t.Errorf("Expected fallback ping interval 30s, got %v", cfg.PingInterval)
	}
}
