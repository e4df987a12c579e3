package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment
// variables. Provider base URLs are overridable so tests and staging can
// point the adapters at local fakes.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   string `env:"PORT" envDefault:"8080"`

	RedisURL string `env:"REDIS_URL"`

	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	GoogleBaseURL string `env:"GOOGLE_BASE_URL"`
	RunwayBaseURL string `env:"RUNWAY_BASE_URL"`
	KlingBaseURL  string `env:"KLING_BASE_URL"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
	RunwayAPIKey string `env:"RUNWAY_API_KEY"`
	KlingAPIKey  string `env:"KLING_API_KEY"`

	EnhanceModel   string        `env:"ENHANCE_MODEL" envDefault:"gpt-4o-mini"`
	EnhanceTimeout time.Duration `env:"ENHANCE_TIMEOUT" envDefault:"15s"`

	PollInitialDelay time.Duration `env:"POLL_INITIAL_DELAY" envDefault:"3s"`
	PollInterval     time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	PollMaxAttempts  int           `env:"POLL_MAX_ATTEMPTS" envDefault:"120"`
	StoryboardDelay  time.Duration `env:"STORYBOARD_DELAY" envDefault:"1s"`

	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"11m"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	RateLimitPerMin int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	CORSOrigins     []string `env:"CORS_ORIGINS" envSeparator:","`

	MaxReferenceImages int `env:"MAX_REFERENCE_IMAGES" envDefault:"5"`
}

// LoadConfig reads .env files when present and parses the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("POLL_MAX_ATTEMPTS must be positive")
	}
	return cfg, nil
}
