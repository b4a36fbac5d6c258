package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	LLM     LLMConfig     `yaml:"llm"`
	Places  PlacesConfig  `yaml:"places"`
	Planner PlannerConfig `yaml:"planner"`
	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// LLMConfig contains OpenAI-compatible API settings.
type LLMConfig struct {
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseUrl"`
	Model       string  `yaml:"model"`
	AssistantID string  `yaml:"assistantId"`
	Temperature float32 `yaml:"temperature"`
}

// PlacesConfig contains places search API settings.
type PlacesConfig struct {
	APIKey        string        `yaml:"apiKey"`
	BaseURL       string        `yaml:"baseUrl"`
	RadiusMeters  int           `yaml:"radiusMeters"`
	MaxPerQuery   int           `yaml:"maxPerQuery"`
	DetailsFields []string      `yaml:"detailsFields"`
	Timeout       time.Duration `yaml:"timeout"`
}

// PlannerConfig controls the itinerary pipeline and the conversational builder.
type PlannerConfig struct {
	GenerationDeadline time.Duration `yaml:"generationDeadline"`
	ChatRunDeadline    time.Duration `yaml:"chatRunDeadline"`
	ChatPollInterval   time.Duration `yaml:"chatPollInterval"`
	CacheTTL           time.Duration `yaml:"cacheTtl"`
	ContextTokenBudget int           `yaml:"contextTokenBudget"`
	MaxInterests       int           `yaml:"maxInterests"`
}

// StoreConfig covers the policy/profile records store and the response cache.
type StoreConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// AuthConfig holds the HMAC secret used to read identity off bearer tokens.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_ASSISTANT_ID"); v != "" {
		cfg.LLM.AssistantID = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("PLACES_API_KEY"); v != "" {
		cfg.Places.APIKey = v
	}
	if v := os.Getenv("PLACES_BASE_URL"); v != "" {
		cfg.Places.BaseURL = v
	}
	if v := os.Getenv("PLACES_RADIUS_METERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Places.RadiusMeters = parsed
		}
	}
	if v := os.Getenv("PLACES_MAX_PER_QUERY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Places.MaxPerQuery = parsed
		}
	}
	if v := os.Getenv("PLANNER_GENERATION_DEADLINE"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Planner.GenerationDeadline = parsed
		}
	}
	if v := os.Getenv("PLANNER_CHAT_RUN_DEADLINE"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Planner.ChatRunDeadline = parsed
		}
	}
	if v := os.Getenv("PLANNER_CHAT_POLL_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Planner.ChatPollInterval = parsed
		}
	}
	if v := os.Getenv("PLANNER_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Planner.CacheTTL = parsed
		}
	}
	if v := os.Getenv("PLANNER_CONTEXT_TOKEN_BUDGET"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Planner.ContextTokenBudget = parsed
		}
	}
	if v := os.Getenv("STORE_POSTGRES_DSN"); v != "" {
		cfg.Store.Postgres.DSN = v
	}
	if v := os.Getenv("STORE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("STORE_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("STORE_VALKEY_ENABLED"); v != "" {
		cfg.Store.Valkey.Enabled = isTruthy(v)
	}
	if v := os.Getenv("STORE_VALKEY_ADDR"); v != "" {
		cfg.Store.Valkey.Addr = v
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if clean := strings.TrimSpace(part); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 5 * time.Minute,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             10,
			},
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Places: PlacesConfig{
			BaseURL:      "https://maps.googleapis.com/maps/api/place",
			RadiusMeters: 20000,
			MaxPerQuery:  6,
			Timeout:      10 * time.Second,
		},
		Planner: PlannerConfig{
			GenerationDeadline: 5 * time.Minute,
			ChatRunDeadline:    3 * time.Minute,
			ChatPollInterval:   time.Second,
			CacheTTL:           30 * time.Minute,
			ContextTokenBudget: 1500,
			MaxInterests:       8,
		},
		Store: StoreConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.Places.BaseURL == "" {
		return errors.New("places.baseUrl cannot be empty")
	}
	if c.Places.RadiusMeters <= 0 {
		return errors.New("places.radiusMeters must be positive")
	}
	if c.Places.MaxPerQuery <= 0 {
		return errors.New("places.maxPerQuery must be positive")
	}
	if c.Planner.GenerationDeadline <= 0 {
		return errors.New("planner.generationDeadline must be positive")
	}
	if c.Planner.ChatRunDeadline <= 0 {
		return errors.New("planner.chatRunDeadline must be positive")
	}
	if c.Planner.ChatPollInterval <= 0 {
		return errors.New("planner.chatPollInterval must be positive")
	}
	if c.Planner.CacheTTL < 0 {
		return errors.New("planner.cacheTtl cannot be negative")
	}
	if c.Planner.ContextTokenBudget <= 0 {
		return errors.New("planner.contextTokenBudget must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.Store.Valkey.Enabled && strings.TrimSpace(c.Store.Valkey.Addr) == "" {
		return errors.New("store.valkey.addr cannot be empty when valkey cache is enabled")
	}
	return nil
}
