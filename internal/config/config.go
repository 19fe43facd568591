package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSearchKey   = errors.New("G_API is required")
	ErrMissingSearchID    = errors.New("S_ID is required")
	ErrMissingLLMKey      = errors.New("llm api key is required")
	ErrInvalidLLMProvider = errors.New("invalid llm provider")
	ErrMissingRedisHost   = errors.New("REDIS_HOST is required")
	ErrMissingDB          = errors.New("DATABASE_URL is required")
	ErrInvalidCacheType   = errors.New("invalid cache type")
)

// DefaultCacheTTL - 15 дней, как PSETEX 1296000000 мс
const DefaultCacheTTL = 1296000000 * time.Millisecond

type Config struct {
	Server    ServerConfig
	Search    SearchConfig
	LLM       LLMConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Pipeline  PipelineConfig
	Timeouts  TimeoutConfig
	Log       LogConfig
	Telegram  TelegramConfig
	AuthToken string // A_T, пока нигде не используется
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type SearchConfig struct {
	APIKey     string
	EngineID   string
	BaseURL    string
	NumResults int
	ImageCount int
}

type LLMConfig struct {
	Provider   string
	// таймаут одного вызова модели; 0 - только бюджет суммаризации ссылки
	Timeout    time.Duration
	OpenAI     OpenAIConfig
	OpenRouter OpenRouterConfig
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type CacheConfig struct {
	Type string
	TTL  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

type DatabaseConfig struct {
	URL string
}

type PipelineConfig struct {
	ChunkSize        int
	LinkConcurrency  int
	ImageConcurrency int
}

type TimeoutConfig struct {
	Links   time.Duration
	Summary time.Duration
	Request time.Duration
	Fetch   time.Duration
}

type LogConfig struct {
	Level string
}

type TelegramConfig struct {
	Token string
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvOrDefault("PORT", "8000"),
			CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
		},
		Search: SearchConfig{
			APIKey:     os.Getenv("G_API"),
			EngineID:   os.Getenv("S_ID"),
			BaseURL:    getEnvOrDefault("SEARCH_BASE_URL", "https://www.googleapis.com/customsearch/v1"),
			NumResults: getEnvIntOrDefault("SEARCH_NUM_RESULTS", 3),
			ImageCount: getEnvIntOrDefault("IMAGE_COUNT", 3),
		},
		LLM: LLMConfig{
			Provider: getEnvOrDefault("LLM_PROVIDER", "openai"),
			Timeout:  time.Duration(getEnvIntOrDefault("LLM_TIMEOUT_SEC", 0)) * time.Second,
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OAK"),
				Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
				BaseURL: os.Getenv("OPENAI_BASE_URL"),
			},
			OpenRouter: OpenRouterConfig{
				APIKey:  os.Getenv("OPENROUTER_API_KEY"),
				Model:   getEnvOrDefault("OPENROUTER_MODEL", "deepseek/deepseek-chat"),
				BaseURL: getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			},
		},
		Cache: CacheConfig{
			Type: getEnvOrDefault("CACHE_TYPE", "redis"),
			TTL:  time.Duration(getEnvIntOrDefault("CACHE_TTL_MS", int(DefaultCacheTTL/time.Millisecond))) * time.Millisecond,
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvIntOrDefault("REDIS_PORT", 6379),
			Username: os.Getenv("REDIS_USERNAME"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvIntOrDefault("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Pipeline: PipelineConfig{
			ChunkSize:        getEnvIntOrDefault("CHUNK_SIZE", 1024),
			LinkConcurrency:  getEnvIntOrDefault("LINK_CONCURRENCY", 1),
			ImageConcurrency: getEnvIntOrDefault("IMAGE_CONCURRENCY", 1),
		},
		Timeouts: TimeoutConfig{
			Links:   time.Duration(getEnvIntOrDefault("LINK_TIMEOUT_SEC", 30)) * time.Second,
			Summary: time.Duration(getEnvIntOrDefault("SUMMARY_TIMEOUT_SEC", 120)) * time.Second,
			Request: time.Duration(getEnvIntOrDefault("REQUEST_TIMEOUT_SEC", 300)) * time.Second,
			Fetch:   time.Duration(getEnvIntOrDefault("FETCH_TIMEOUT_SEC", 20)) * time.Second,
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
			Debug: getEnvBoolOrDefault("TELEGRAM_DEBUG", false),
		},
		AuthToken: os.Getenv("A_T"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Search.APIKey == "" {
		return ErrMissingSearchKey
	}
	if c.Search.EngineID == "" {
		return ErrMissingSearchID
	}

	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return ErrMissingLLMKey
		}
	case "openrouter":
		if c.LLM.OpenRouter.APIKey == "" {
			return ErrMissingLLMKey
		}
	case "mock":
	default:
		return ErrInvalidLLMProvider
	}

	switch c.Cache.Type {
	case "redis":
		if c.Redis.Host == "" {
			return ErrMissingRedisHost
		}
	case "postgres":
		if c.Database.URL == "" {
			return ErrMissingDB
		}
	case "memory":
	default:
		return ErrInvalidCacheType
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
