package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	LogLevel               string
	AllowOrigins           string
	DatabaseDriver         string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	NATSSubject            string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	AttachmentMaxMB        int
	ProgressCacheTTL       time.Duration
	TaskViewTTL            time.Duration
	Timezone               *time.Location
	RulesFile              string
	SeedEnabled            bool
	SeedToken              string
	AIModel                string
	OpenAIAPIKey           string
	RateLimitMax           int
	RateLimitWindow        time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("OLYMP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Olympiad Progress API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("nats.subject", "progress.events")
	v.SetDefault("cloudinary.folder", "olympiad/answers")
	v.SetDefault("attachments.max_mb", 10)
	v.SetDefault("progress.cache_ttl", "2m")
	v.SetDefault("progress.task_view_ttl", "6h")
	v.SetDefault("progress.timezone", "UTC")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("rate_limit.max", 20)
	v.SetDefault("rate_limit.window", "1m")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cacheTTL, err := parseDuration(v, "progress.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	viewTTL, err := parseDuration(v, "progress.task_view_ttl")
	if err != nil {
		return Config{}, err
	}
	window, err := parseDuration(v, "rate_limit.window")
	if err != nil {
		return Config{}, err
	}

	location, err := time.LoadLocation(v.GetString("progress.timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress timezone: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		AllowOrigins:           v.GetString("cors.allow_origins"),
		DatabaseDriver:         strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubject:            v.GetString("nats.subject"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		AttachmentMaxMB:        v.GetInt("attachments.max_mb"),
		ProgressCacheTTL:       cacheTTL,
		TaskViewTTL:            viewTTL,
		Timezone:               location,
		RulesFile:              v.GetString("rules.file"),
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
		AIModel:                v.GetString("ai.model"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		RateLimitMax:           v.GetInt("rate_limit.max"),
		RateLimitWindow:        window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if cfg.SeedEnabled && strings.TrimSpace(cfg.SeedToken) == "" {
		return Config{}, fmt.Errorf("seed token must be provided when seeding is enabled")
	}
	if cfg.AttachmentMaxMB <= 0 {
		cfg.AttachmentMaxMB = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return value, nil
}
