package config

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port      int    `envconfig:"PORT" default:"8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Version   string `envconfig:"VERSION" default:"dev"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	AuthURL       string `envconfig:"AUTH_URL" required:"true"`
	AuthPublicKey string `envconfig:"AUTH_PUBLIC_KEY" required:"true"`
	AccessCookie  string `envconfig:"ACCESS_COOKIE" default:"sb-access-token"`
	RefreshCookie string `envconfig:"REFRESH_COOKIE" default:"sb-refresh-token"`
	CookieSecure  bool   `envconfig:"COOKIE_SECURE" default:"true"`
	LoginPath     string `envconfig:"LOGIN_PATH" default:"/login"`
	FallbackPath  string `envconfig:"FALLBACK_PATH" default:"/dashboard"`

	StorageEndpoint  string `envconfig:"STORAGE_ENDPOINT" required:"true"`
	StorageAccessKey string `envconfig:"STORAGE_ACCESS_KEY" default:""`
	StorageSecretKey string `envconfig:"STORAGE_SECRET_KEY" default:""`
	StorageUseSSL    bool   `envconfig:"STORAGE_USE_SSL" default:"true"`
	StoragePublicURL string `envconfig:"STORAGE_PUBLIC_URL" required:"true"`
	BooksBucket      string `envconfig:"BOOKS_BUCKET" default:"books"`
	PastPapersBucket string `envconfig:"PAST_PAPERS_BUCKET" default:"past-papers"`

	MaxUploadBytes  int64  `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`
	ReplaceStrategy string `envconfig:"REPLACE_STRATEGY" default:"delete-first"`
	AuditInterval   int    `envconfig:"AUDIT_INTERVAL" default:"0"`
}

// Load reads an optional .env file and then the environment into a Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "reason", err.Error())
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
