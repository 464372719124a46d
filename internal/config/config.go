package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
	JWKSRefresh       time.Duration
	MongoDBURI        string
	MongoDBPassword   string
	MongoDBDatabase   string
	Environment       string
	LogLevel          string
	CORSOrigins       []string

	// blob storage
	BlobBackend           string
	CloudinaryCloudName   string
	CloudinaryAPIKey      string
	CloudinaryAPISecret   string
	SupabaseStorageBucket string

	// enrichment
	InsightsBaseURL   string
	OpenWeatherAPIKey string
	InsightsTimeout   time.Duration
	InsightsCacheTTL  time.Duration
	RedisAddr         string
	RedisPassword     string
	RedisDB           int

	TelegramBotToken    string
	TelegramAdminChatID int64

	MetricsNamespace         string
	ProofCompensateOnFailure bool
	CatalogDefaultLimit      int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8080"),
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:   os.Getenv("SUPABASE_URL_ANON_KEY"),
		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
		MongoDBURI:        os.Getenv("MONGODB_URI"),
		MongoDBPassword:   os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase:   getEnvWithDefault("MONGODB_DATABASE", "luwas"),
		Environment:       getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		CORSOrigins:       splitList(getEnvWithDefault("CORS_ORIGINS", "http://localhost:8081")),

		BlobBackend:           strings.ToLower(getEnvWithDefault("BLOB_BACKEND", "cloudinary")),
		CloudinaryCloudName:   os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:      os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:   os.Getenv("CLOUDINARY_API_SECRET"),
		SupabaseStorageBucket: getEnvWithDefault("SUPABASE_STORAGE_BUCKET", "uploads"),

		InsightsBaseURL:   getEnvWithDefault("INSIGHTS_BASE_URL", "https://luwas-travel-app.vercel.app"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		MetricsNamespace: getEnvWithDefault("METRICS_NAMESPACE", "luwas"),
	}

	var err error
	if cfg.InsightsTimeout, err = getDuration("INSIGHTS_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.JWKSRefresh, err = getDuration("JWKS_REFRESH_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.InsightsCacheTTL, err = getDuration("INSIGHTS_CACHE_TTL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.CatalogDefaultLimit, err = getInt("CATALOG_DEFAULT_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.ProofCompensateOnFailure, err = getBool("PROOF_COMPENSATE_ON_FAILURE", false); err != nil {
		return nil, err
	}
	if raw := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); raw != "" {
		if cfg.TelegramAdminChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID must be an integer: %w", err)
		}
	}

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	switch cfg.BlobBackend {
	case "cloudinary":
		if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
			return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for the cloudinary blob backend")
		}
	case "supabase":
		if cfg.SupabaseStorageBucket == "" {
			return nil, fmt.Errorf("SUPABASE_STORAGE_BUCKET is required for the supabase blob backend")
		}
	default:
		return nil, fmt.Errorf("unsupported BLOB_BACKEND %q (expected cloudinary or supabase)", cfg.BlobBackend)
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramAdminChatID != 0
}
