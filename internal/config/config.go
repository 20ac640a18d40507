package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/portfolio-web-go/internal/constants"
	"github.com/kapu/portfolio-web-go/internal/domain"
	"github.com/kapu/portfolio-web-go/internal/store"
	"gopkg.in/yaml.v3"
)

// DefaultSheetID is the published portfolio spreadsheet.
const DefaultSheetID = "1qiuzgl5kc7Qew5nLC3hT-aWzq7p5m8GDMNPs1rd16Ok"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Sheet   SheetConfig   `yaml:"sheet"`
	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	Web     WebConfig     `yaml:"web"`
	Logging LoggingConfig `yaml:"logging"`
	AI      AIConfig      `yaml:"ai"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type SheetConfig struct {
	// Enabled=false leaves the remote source unconfigured.
	Enabled         bool          `yaml:"enabled"`
	ID              string        `yaml:"id"`
	BaseURL         string        `yaml:"baseURL"`
	FetchTimeout    time.Duration `yaml:"fetchTimeout"`
	APIKey          string        `yaml:"apiKey"`
	CredentialsFile string        `yaml:"credentialsFile"`
	StartupWait     time.Duration `yaml:"startupWait"`
}

// UseSheetsAPI reports whether the authenticated Sheets API should be used.
func (s SheetConfig) UseSheetsAPI() bool {
	return s.APIKey != "" || s.CredentialsFile != ""
}

// EffectiveID returns the sheet id, or "" when the remote source is disabled.
func (s SheetConfig) EffectiveID() string {
	if !s.Enabled {
		return ""
	}
	return strings.TrimSpace(s.ID)
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslMode"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type WebConfig struct {
	DefaultLocale string        `yaml:"defaultLocale"`
	DefaultTheme  string        `yaml:"defaultTheme"`
	RateLimit     float64       `yaml:"rateLimit"` // API 요청/초, 0이면 비활성
	RateBurst     int           `yaml:"rateBurst"`
	SecureCookies bool          `yaml:"secureCookies"`
	ImagesDir     string        `yaml:"imagesDir"` // /images/ 로 서빙, 비어 있으면 비활성
	PageWait      time.Duration `yaml:"pageWait"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// AIConfig is only read by the offline translation tool.
type AIConfig struct {
	GeminiAPIKey string `yaml:"geminiAPIKey"`
	GeminiModel  string `yaml:"geminiModel"`
	OpenAIAPIKey string `yaml:"openaiAPIKey"`
	OpenAIModel  string `yaml:"openaiModel"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Sheet: SheetConfig{
			Enabled:     true,
			ID:          DefaultSheetID,
			BaseURL:     constants.SheetConfig.BaseURL,
			StartupWait: constants.SheetConfig.StartupWait,
		},
		Store: StoreConfig{
			Backend: store.BackendMemory,
			Redis: RedisConfig{
				Host:   "localhost",
				Port:   6379,
				Prefix: "portfolio:",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "portfolio",
				Database: "portfolio",
				SSLMode:  "disable",
			},
		},
		Cache: CacheConfig{
			TTL: constants.CacheTTL.Content,
		},
		Web: WebConfig{
			DefaultLocale: constants.Preferences.DefaultLocale,
			DefaultTheme:  constants.Preferences.DefaultTheme,
			RateLimit:     5,
			RateBurst:     10,
			ImagesDir:     "public/images",
			PageWait:      3 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		AI: AIConfig{
			GeminiModel: "gemini-2.5-flash",
			OpenAIModel: "gpt-4o-mini",
		},
	}
}

// Load reads .env, the optional YAML file named by PORTFOLIO_CONFIG, then
// environment overrides, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("PORTFOLIO_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Sheet.Enabled = getEnvBool("SHEET_ENABLED", c.Sheet.Enabled)
	c.Sheet.ID = getEnv("SHEET_ID", c.Sheet.ID)
	c.Sheet.BaseURL = getEnv("SHEET_BASE_URL", c.Sheet.BaseURL)
	c.Sheet.FetchTimeout = getEnvDuration("SHEET_FETCH_TIMEOUT", c.Sheet.FetchTimeout)
	c.Sheet.APIKey = getEnv("SHEETS_API_KEY", c.Sheet.APIKey)
	c.Sheet.CredentialsFile = getEnv("SHEETS_CREDENTIALS_FILE", c.Sheet.CredentialsFile)
	c.Sheet.StartupWait = getEnvDuration("SHEET_STARTUP_WAIT", c.Sheet.StartupWait)

	c.Store.Backend = strings.ToLower(getEnv("STORE_BACKEND", c.Store.Backend))
	c.Store.Redis.Host = getEnv("REDIS_HOST", c.Store.Redis.Host)
	c.Store.Redis.Port = getEnvInt("REDIS_PORT", c.Store.Redis.Port)
	c.Store.Redis.Password = getEnv("REDIS_PASSWORD", c.Store.Redis.Password)
	c.Store.Redis.DB = getEnvInt("REDIS_DB", c.Store.Redis.DB)
	c.Store.Redis.Prefix = getEnv("REDIS_PREFIX", c.Store.Redis.Prefix)
	c.Store.Postgres.Host = getEnv("POSTGRES_HOST", c.Store.Postgres.Host)
	c.Store.Postgres.Port = getEnvInt("POSTGRES_PORT", c.Store.Postgres.Port)
	c.Store.Postgres.User = getEnv("POSTGRES_USER", c.Store.Postgres.User)
	c.Store.Postgres.Password = getEnv("POSTGRES_PASSWORD", c.Store.Postgres.Password)
	c.Store.Postgres.Database = getEnv("POSTGRES_DB", c.Store.Postgres.Database)
	c.Store.Postgres.SSLMode = getEnv("POSTGRES_SSLMODE", c.Store.Postgres.SSLMode)

	c.Cache.TTL = getEnvDuration("CACHE_TTL", c.Cache.TTL)

	c.Web.DefaultLocale = getEnv("DEFAULT_LOCALE", c.Web.DefaultLocale)
	c.Web.DefaultTheme = getEnv("DEFAULT_THEME", c.Web.DefaultTheme)
	c.Web.RateLimit = getEnvFloat("API_RATE_LIMIT", c.Web.RateLimit)
	c.Web.RateBurst = getEnvInt("API_RATE_BURST", c.Web.RateBurst)
	c.Web.SecureCookies = getEnvBool("SECURE_COOKIES", c.Web.SecureCookies)
	c.Web.ImagesDir = getEnv("IMAGES_DIR", c.Web.ImagesDir)
	c.Web.PageWait = getEnvDuration("PAGE_WAIT", c.Web.PageWait)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("LOG_FILE", c.Logging.File)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	c.AI.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.AI.GeminiAPIKey)
	c.AI.GeminiModel = getEnv("GEMINI_MODEL", c.AI.GeminiModel)
	c.AI.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.AI.OpenAIAPIKey)
	c.AI.OpenAIModel = getEnv("OPENAI_MODEL", c.AI.OpenAIModel)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Store.Backend {
	case store.BackendMemory, store.BackendRedis, store.BackendPostgres:
	default:
		return fmt.Errorf("STORE_BACKEND must be memory, redis or postgres, got %q", c.Store.Backend)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not supported", c.Logging.Level)
	}
	if !domain.IsSupportedLocale(c.Web.DefaultLocale) {
		return fmt.Errorf("DEFAULT_LOCALE must be one of %v, got %q", domain.Locales, c.Web.DefaultLocale)
	}
	if _, ok := domain.LookupTheme(c.Web.DefaultTheme); !ok {
		return fmt.Errorf("DEFAULT_THEME %q is not a known theme", c.Web.DefaultTheme)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Sheet.FetchTimeout < 0 {
		return fmt.Errorf("SHEET_FETCH_TIMEOUT must not be negative")
	}
	if c.Web.RateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
