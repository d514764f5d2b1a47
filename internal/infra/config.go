package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	MaxBodyBytes     int64
	RateLimitPerMin  int
	CORSOrigins      []string

	SynthesisProvider    string
	SynthesisConcurrency int
	RemoteSynthesisURL   string
	RemoteSynthesisKey   string
	RemoteTimeout        time.Duration
	GeminiAPIKey         string
	GeminiModel          string
	MockDelay            time.Duration
	EnforceBounds        bool
	Enhance              bool

	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool
	QueueName     string
	ResultTTL     time.Duration
	WorkerCount   int
	WorkerPoll    time.Duration

	DatabaseURL string
	StoragePath string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "5000"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_BYTES", 16<<20)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		SynthesisProvider:    strings.ToLower(getEnv("SYNTHESIS_PROVIDER", "blend")),
		SynthesisConcurrency: getEnvInt("SYNTHESIS_CONCURRENCY", 1),
		RemoteSynthesisURL:   os.Getenv("REMOTE_SYNTHESIS_URL"),
		RemoteSynthesisKey:   os.Getenv("REMOTE_SYNTHESIS_API_KEY"),
		RemoteTimeout:        time.Second * time.Duration(getEnvInt("REMOTE_SYNTHESIS_TIMEOUT_SECONDS", 300)),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		MockDelay:            time.Millisecond * time.Duration(getEnvInt("MOCK_DELAY_MS", 1000)),
		EnforceBounds:        getEnvBool("TRYON_ENFORCE_BOUNDS", false),
		Enhance:              getEnvBool("TRYON_ENHANCE", false),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisUseTLS:   getEnvBool("REDIS_USE_TLS", false),
		QueueName:     getEnv("QUEUE_NAME", "tryon:jobs"),
		ResultTTL:     time.Second * time.Duration(getEnvInt("RESULT_TTL_SECONDS", 3600)),
		WorkerCount:   getEnvInt("WORKER_CONCURRENCY", 1),
		WorkerPoll:    time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 5)),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoragePath: os.Getenv("STORAGE_PATH"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.SynthesisProvider {
	case "blend", "overlay", "mock":
	case "remote":
		if strings.TrimSpace(c.RemoteSynthesisURL) == "" {
			return fmt.Errorf("REMOTE_SYNTHESIS_URL is required for the remote provider")
		}
	case "gemini":
		// The key may also come from the credentials table.
		if strings.TrimSpace(c.GeminiAPIKey) == "" && c.DatabaseURL == "" {
			return fmt.Errorf("GEMINI_API_KEY or DATABASE_URL is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unknown SYNTHESIS_PROVIDER %q", c.SynthesisProvider)
	}
	if c.SynthesisConcurrency < 1 {
		return fmt.Errorf("SYNTHESIS_CONCURRENCY must be at least 1")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// RedisEnabled reports whether a queue backend is configured.
func (c *Config) RedisEnabled() bool { return strings.TrimSpace(c.RedisHost) != "" }

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
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
