package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for propmerge
type Config struct {
	Merge struct {
		RootDir       string `env:"ROOT_DIR" envDefault:"." validate:"required"`
		ResourcesPath string `env:"RESOURCES_PATH" envDefault:"cartridge/templates/resources" validate:"required"`
		Extension     string `env:"PROPERTIES_EXT" envDefault:".properties" validate:"required,startswith=."`
		PruneSources  bool   `env:"PRUNE_SOURCES" envDefault:"true"`
		FlushWorkers  int    `env:"FLUSH_WORKERS" envDefault:"4" validate:"min=1,max=64"`
	}

	Output struct {
		MergedDir      string `env:"MERGED_DIR" envDefault:"merged_properties" validate:"required"`
		SummaryReport  string `env:"SUMMARY_REPORT" envDefault:"summary_report.csv"`
		ConflictReport string `env:"CONFLICT_REPORT" envDefault:"conflict_details_report.csv" validate:"required"`
		JournalFile    string `env:"RESOLUTION_JOURNAL" envDefault:"merged_properties/.resolutions.yaml"`
	}

	Server struct {
		Port         int           `env:"PORT" envDefault:"5000" validate:"min=1,max=65535"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`
		BodyLimit    int           `env:"BODY_LIMIT" envDefault:"65536" validate:"min=1"`
	}

	Security struct {
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," validate:"cors_origins"`
		EnableHTTPS bool     `env:"ENABLE_HTTPS" envDefault:"false"`
	}

	RateLimit struct {
		RPS   int `env:"RATE_LIMIT_RPS" envDefault:"20" validate:"min=0"`
		Burst int `env:"RATE_LIMIT_BURST" envDefault:"40" validate:"min=0"`
	}

	Session struct {
		IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
		MaxSessions int           `env:"MAX_SESSIONS" envDefault:"256" validate:"min=1"`
	}

	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
		Format string `env:"LOG_FORMAT" envDefault:"auto" validate:"oneof=json text auto"`
	}
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration using struct tags
func Validate(cfg *Config) error {
	validator := validator.New()

	if err := validator.RegisterValidation("cors_origins", validateCORSOrigins); err != nil {
		return fmt.Errorf("failed to register cors_origins validation: %w", err)
	}

	if err := validator.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCORSOrigins validates CORS origins format
func validateCORSOrigins(fl validator.FieldLevel) bool {
	origins := fl.Field().Interface().([]string)
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return false
		}
	}
	return true
}

// validateCustomRules performs additional validation beyond struct tags
func validateCustomRules(cfg *Config) error {
	if cfg.Server.ReadTimeout < time.Millisecond {
		return fmt.Errorf("read timeout must be at least 1ms")
	}
	if cfg.Server.WriteTimeout < time.Millisecond {
		return fmt.Errorf("write timeout must be at least 1ms")
	}
	if cfg.Session.IdleTimeout < time.Minute {
		return fmt.Errorf("session idle timeout must be at least 1 minute")
	}
	if cfg.RateLimit.RPS > 0 && cfg.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1 when rate limiting is enabled")
	}
	return nil
}

// EnsureDirectories creates the merged output directory
func (cfg *Config) EnsureDirectories() error {
	if err := os.MkdirAll(cfg.Output.MergedDir, 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", cfg.Output.MergedDir, err)
	}
	return nil
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
			case "min":
				messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
			case "oneof":
				messages = append(messages, fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param()))
			case "startswith":
				messages = append(messages, fmt.Sprintf("%s must start with %q", e.Field(), e.Param()))
			case "cors_origins":
				messages = append(messages, fmt.Sprintf("%s contains invalid origin format", e.Field()))
			default:
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", e.Field(), e.Tag()))
			}
		}
		return fmt.Errorf("validation errors: %s", strings.Join(messages, "; "))
	}
	return err
}
