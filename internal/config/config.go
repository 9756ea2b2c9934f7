package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	// MariaDB接続設定
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// サーバー設定
	ServerPort string
	Env        string

	// CORS設定
	AllowedOrigins []string

	// アップロード先ディレクトリ（音声・ファイル共通のルート）
	UploadDir string

	// WebSocketキープアライブ設定
	// PingIntervalごとにpingを送り、PongWaitの間に応答がなければ切断扱い
	PingInterval time.Duration
	PongWait     time.Duration
}

// Load loads configuration from environment variables
func Load() Config {
	cfg := Config{
		DBHost:       getenv("DB_HOST", "localhost"),
		DBPort:       getenv("DB_PORT", "3306"),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       os.Getenv("DB_NAME"),
		ServerPort:   getenv("SERVER_PORT", "8080"),
		Env:          getenv("ENV", "development"),
		UploadDir:    getenv("UPLOAD_DIR", "uploads"),
		PingInterval: getenvSeconds("WS_PING_INTERVAL_SEC", 30*time.Second),
		PongWait:     getenvSeconds("WS_PONG_WAIT_SEC", 75*time.Second),
	}

	allowedOrigins := getenv("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	cfg.AllowedOrigins = strings.Split(allowedOrigins, ",")
	for i := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(cfg.AllowedOrigins[i])
	}

	// pongの猶予はping間隔より長くないと即切断になってしまう
	if cfg.PongWait <= cfg.PingInterval {
		cfg.PongWait = cfg.PingInterval * 2
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec <= 0 {
		return fallback
	}
	return time.Duration(sec) * time.Second
}
