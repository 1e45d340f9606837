package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// Config holds all configuration for the relay.
type Config struct {
	HTTPPort    int    `yaml:"http_port" validate:"gte=0"`
	MetricsPort int    `yaml:"metrics_port" validate:"gte=0"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`

	AllowedOrigins []string `yaml:"allowed_origins"`

	Auth struct {
		ClientID     string   `yaml:"client_id" validate:"required"`
		ClientSecret string   `yaml:"client_secret" validate:"required"`
		RedirectURI  string   `yaml:"redirect_uri" validate:"required,url"`
		Scopes       []string `yaml:"scopes" validate:"min=1"`
		SessionTTL   Duration `yaml:"session_ttl"`
	} `yaml:"auth"`

	Picker struct {
		HardTimeout    Duration `yaml:"hard_timeout"`
		BaseRetryDelay Duration `yaml:"base_retry_delay"`
		MaxAttempts    int      `yaml:"max_attempts" validate:"min=1"`
	} `yaml:"picker"`

	// Provider endpoints default to Google; overridable for tests and
	// self-hosted stand-ins.
	Provider struct {
		AuthURL         string `yaml:"auth_url" validate:"required,url"`
		TokenURL        string `yaml:"token_url" validate:"required,url"`
		PeopleBaseURL   string `yaml:"people_base_url" validate:"required,url"`
		DriveBaseURL    string `yaml:"drive_base_url" validate:"required,url"`
		CalendarBaseURL string `yaml:"calendar_base_url" validate:"required,url"`
		PhotosBaseURL   string `yaml:"photos_base_url" validate:"required,url"`
		PickerBaseURL   string `yaml:"picker_base_url" validate:"required,url"`
	} `yaml:"provider"`
}

// Duration is a wrapper around time.Duration that unmarshals from YAML
// strings like "10m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (d *Duration) UnmarshalYAML(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	if s == "" {
		d.Duration = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.BytesMarshaler.
func (d Duration) MarshalYAML() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a Config with Google endpoints and demo-friendly timings.
func Default() *Config {
	cfg := &Config{
		HTTPPort:    8080,
		MetricsPort: 9090,
		LogLevel:    "info",
	}
	cfg.Auth.SessionTTL = Duration{10 * time.Minute}
	cfg.Auth.Scopes = []string{
		"https://www.googleapis.com/auth/userinfo.profile",
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/drive.readonly",
		"https://www.googleapis.com/auth/calendar.readonly",
		"https://www.googleapis.com/auth/photospicker.mediaitems.readonly",
	}
	cfg.Picker.HardTimeout = Duration{30 * time.Second}
	cfg.Picker.BaseRetryDelay = Duration{2 * time.Second}
	cfg.Picker.MaxAttempts = 3
	cfg.Provider.AuthURL = "https://accounts.google.com/o/oauth2/v2/auth"
	cfg.Provider.TokenURL = "https://oauth2.googleapis.com/token"
	cfg.Provider.PeopleBaseURL = "https://people.googleapis.com/v1"
	cfg.Provider.DriveBaseURL = "https://www.googleapis.com/drive/v3"
	cfg.Provider.CalendarBaseURL = "https://www.googleapis.com/calendar/v3"
	cfg.Provider.PhotosBaseURL = "https://photoslibrary.googleapis.com/v1"
	cfg.Provider.PickerBaseURL = "https://photospicker.googleapis.com/v1"
	return cfg
}

// Load reads configuration from a YAML file, applies environment overrides,
// and validates the result. An empty path skips the file and uses defaults
// plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides overrides config fields with environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("AUTH_CLIENT_ID"); v != "" {
		c.Auth.ClientID = v
	}
	if v := os.Getenv("AUTH_CLIENT_SECRET"); v != "" {
		c.Auth.ClientSecret = v
	}
	if v := os.Getenv("AUTH_REDIRECT_URI"); v != "" {
		c.Auth.RedirectURI = v
	}

	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing HTTP_PORT: %w", err)
		}
		c.HTTPPort = port
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing METRICS_PORT: %w", err)
		}
		c.MetricsPort = port
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = strings.Split(v, ",")
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing SESSION_TTL: %w", err)
		}
		c.Auth.SessionTTL = Duration{d}
	}

	return nil
}

// validate checks the configuration for errors.
func (c *Config) validate() error {
	validate := validator.New()

	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if duration, ok := field.Interface().(Duration); ok {
			return duration.Duration
		}
		return nil
	}, Duration{})

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}
