package config

import (
	"flag"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	ServerURL   string `env:"-"`

	// CORS для веб-клиента, через запятую
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	// Медиа
	PublicURL      string        `env:"PUBLIC_URL"`
	MediaMaxSizeMB int           `env:"MEDIA_MAX_MB"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT"`
	TempMaxAge     time.Duration `env:"TEMP_MAX_AGE"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL"`

	// Расчёт пищевой ценности
	NutritionAPIURL   string        `env:"NUTRITION_API_URL"`
	NutritionAppID    string        `env:"NUTRITION_APP_ID"`
	NutritionAppKey   string        `env:"NUTRITION_APP_KEY"`
	NutritionTimeout  time.Duration `env:"NUTRITION_TIMEOUT"`
	NutritionRPS      float64       `env:"NUTRITION_RPS"`
	NutritionCacheTTL time.Duration `env:"NUTRITION_CACHE_TTL"`
	RedisURL          string        `env:"REDIS_URL"`
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres DSN или file:... для sqlite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет проверки JWT")
	flag.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "адрес сервера host:port")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "внешние ссылки через https")
	flag.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "внешний адрес для ссылок на медиа")
	flag.IntVar(&cfg.MediaMaxSizeMB, "media-max-mb", cfg.MediaMaxSizeMB, "максимальный размер файла медиа, МБ")
	flag.StringVar(&cfg.NutritionAPIURL, "nutrition-url", cfg.NutritionAPIURL, "адрес API пищевой ценности")
	flag.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "redis для кэша пищевой ценности (пусто — без кэша)")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	// BaseURL только в виде "address:port" (без схемы и пути), иначе значение по умолчанию
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = cfg.ServerURL
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "file:cookbook.db"
	}
	if cfg.MediaMaxSizeMB <= 0 {
		cfg.MediaMaxSizeMB = 10
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = 10 * time.Second
	}
	if cfg.TempMaxAge <= 0 {
		cfg.TempMaxAge = 24 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.NutritionAPIURL == "" {
		cfg.NutritionAPIURL = "https://api.edamam.com"
	}
	if cfg.NutritionTimeout <= 0 {
		cfg.NutritionTimeout = 10 * time.Second
	}
	if cfg.NutritionRPS < 0 {
		cfg.NutritionRPS = 0
	}
	if cfg.NutritionCacheTTL <= 0 {
		cfg.NutritionCacheTTL = 24 * time.Hour
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}

	return cfg
}

// MediaMaxBytes — лимит размера одного файла медиа.
func (c *Config) MediaMaxBytes() int64 {
	return int64(c.MediaMaxSizeMB) << 20
}
