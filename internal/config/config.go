package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Worker    WorkerConfig
	Sources   SourcesConfig
	DB        DatabaseConfig
	Logging   LoggingConfig
	Session   SessionConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Feed      FeedConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type SourcesConfig struct {
	TMREnabled      bool
	TMRURL          string
	TMRAPIKey       string
	TMRPollInterval time.Duration
	ESQEnabled      bool
	ESQURL          string
	ESQPollInterval time.Duration
	HTTPTimeout     time.Duration
	// StaleAfter is how many poll intervals an unseen record survives.
	StaleAfter int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type SessionConfig struct {
	Secret string
	Secure bool
	MaxAge time.Duration
}

// StorageConfig is optional; uploads are disabled without a bucket.
type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UploadExpiry    time.Duration
}

// RedisConfig is optional; an in-process cache is used without an address.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type FeedConfig struct {
	AdStride int
}

type RateLimitConfig struct {
	RPS   int
	Burst int
}

const devSessionSecret = "dev-session-secret-change-me-0000"

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "localhost"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 100),
		},
		Sources: SourcesConfig{
			TMREnabled:      getEnvBool("TMR_ENABLED", true),
			TMRURL:          getEnv("TMR_URL", "https://api.qldtraffic.qld.gov.au/v2/events"),
			TMRAPIKey:       getEnv("TMR_API_KEY", ""),
			TMRPollInterval: getEnvDuration("TMR_POLL_INTERVAL", 5*time.Minute),
			ESQEnabled:      getEnvBool("ESQ_ENABLED", true),
			ESQURL: getEnv("ESQ_URL", "https://services1.arcgis.com/vkTwD8kHw2woKBqV/arcgis/rest/services/"+
				"ESCAD_Current_Incidents_Public/FeatureServer/0/query?where=1%3D1&outFields=*&f=geojson"),
			ESQPollInterval: getEnvDuration("ESQ_POLL_INTERVAL", 5*time.Minute),
			HTTPTimeout:     getEnvDuration("SOURCE_HTTP_TIMEOUT", 15*time.Second),
			StaleAfter:      getEnvInt("SOURCE_STALE_AFTER", 3),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/safety-feed.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", devSessionSecret),
			Secure: getEnvBool("SESSION_SECURE", false),
			MaxAge: getEnvDuration("SESSION_MAX_AGE", 7*24*time.Hour),
		},
		Storage: StorageConfig{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("AWS_REGION", "ap-southeast-2"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
			UploadExpiry:    getEnvDuration("S3_UPLOAD_EXPIRY", 15*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("CACHE_TTL", time.Hour),
		},
		Feed: FeedConfig{
			AdStride: getEnvInt("FEED_AD_STRIDE", 6),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvInt("RATE_LIMIT_RPS", 10),
			Burst: getEnvInt("RATE_LIMIT_BURST", 20),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}

	if c.Sources.TMREnabled && c.Sources.TMRPollInterval < time.Minute {
		return fmt.Errorf("TMR poll interval must be at least 1 minute")
	}
	if c.Sources.ESQEnabled && c.Sources.ESQPollInterval < time.Minute {
		return fmt.Errorf("ESQ poll interval must be at least 1 minute")
	}
	if c.Sources.StaleAfter < 1 {
		return fmt.Errorf("stale-after must be at least 1 poll interval")
	}

	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("session secret must be at least 32 bytes")
	}
	if c.Session.Secure && c.Session.Secret == devSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be set when SESSION_SECURE is on")
	}

	if c.Feed.AdStride < 1 {
		return fmt.Errorf("feed ad stride must be at least 1")
	}
	if c.RateLimit.RPS < 1 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit must allow at least 1 request")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
