package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port    string `envconfig:"PORT" default:"8000" validate:"required,numeric"`
	GinMode string `envconfig:"GIN_MODE" default:"release" validate:"oneof=debug release test"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DataPath    string `envconfig:"DATA_PATH" default:"shifts.db"`

	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true" validate:"min=16"`
	TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"1h" validate:"gt=0"`
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"10" validate:"min=4,max=31"`

	AdminName     string `envconfig:"ADMIN_NAME" default:"admin"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL" validate:"omitempty,email"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" validate:"required_with=AdminEmail"`
	AdminTimezone string `envconfig:"ADMIN_TIMEZONE" default:"UTC"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0" validate:"min=0"`
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"10s" validate:"gt=0"`
}

var validate = validator.New()

// envFiles are tried in order; the first one that exists is loaded.
// Variables already set in the environment win over the file.
var envFiles = []string{".env", "../.env", "../../.env"}

// Load reads an optional .env file and then the environment into Config.
func Load() (Config, error) {
	for _, p := range envFiles {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", p, err)
			}
			break
		}
	}
	return FromEnv()
}

// FromEnv decodes and validates the process environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := Validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the struct tags on cfg.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
