package config

import (
	"flag"
	"path/filepath"
	"regexp"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`

	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	ServerURL   string `env:"-"`

	// Каталог для зашифрованных блобов на диске
	StorageDir string `env:"STORAGE_DIR"`

	BlobMaxSizeMB int `env:"BLOB_MAX_MB"`
	TokenTTLHours int `env:"TOKEN_TTL_HOURS"`
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the ByteGuard server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS scheme for ServerURL")
	flag.StringVar(&cfg.StorageDir, "storage-dir", cfg.StorageDir, "каталог для зашифрованных блобов")
	flag.IntVar(&cfg.BlobMaxSizeMB, "blob-max-mb", cfg.BlobMaxSizeMB, "максимальный размер блоба, МБ")
	flag.IntVar(&cfg.TokenTTLHours, "token-ttl-hours", cfg.TokenTTLHours, "время жизни токена, часов")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = filepath.Join("data", "byteguard.db")
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "storage"
	}
	if cfg.BlobMaxSizeMB <= 0 {
		cfg.BlobMaxSizeMB = 100
	}
	if cfg.TokenTTLHours <= 0 {
		cfg.TokenTTLHours = 24
	}

	// validate BaseURL: должен быть "address:port" (без схемы и пути), иначе дефолт
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	return cfg
}
