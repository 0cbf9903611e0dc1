package config

// Config holds all service configuration loaded from environment
// variables via github.com/caarlos0/env struct tags.
type Config struct {
	// Server configuration
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8000"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"idle-season-service"`

	// Redis configuration
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Game tuning file, see pkg/gameconfig
	GameConfigPath string `env:"GAME_CONFIG_PATH" envDefault:"config/game.yaml"`

	// Session timers
	AutosaveSeconds    int `env:"SESSION_AUTOSAVE_SECONDS" envDefault:"30"`
	SeasonCheckSeconds int `env:"SESSION_SEASON_CHECK_SECONDS" envDefault:"10"`
	BoostSweepSeconds  int `env:"SESSION_BOOST_SWEEP_SECONDS" envDefault:"1"`
	SessionIdleMinutes int `env:"SESSION_IDLE_MINUTES" envDefault:"15"`

	// Per-player request rate limiting
	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"25"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"50"`

	// Telemetry configuration
	OtelEnabled    bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ZipkinEndpoint string `env:"ZIPKIN_ENDPOINT" envDefault:"http://localhost:9411/api/v2/spans"`
}
