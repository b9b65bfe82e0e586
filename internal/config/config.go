// Package config resolves process configuration once at startup.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file named by CONFIG_FILE, and environment variables (a .env file in
// the working directory is loaded first when present). The resulting Config
// is immutable by convention and passed explicitly to the components that
// need it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"

	"paydesk/internal/mode"
)

// ProviderCredentials addresses the payment provider for one runtime mode.
type ProviderCredentials struct {
	BaseURL string `yaml:"baseUrl" validate:"required,url"`
	APIKey  string `yaml:"apiKey" validate:"required"`
}

// Config is the resolved process configuration.
type Config struct {
	DatabaseURL        string              `yaml:"databaseUrl" validate:"required"`
	SandboxDatabaseURL string              `yaml:"sandboxDatabaseUrl"`
	Live               ProviderCredentials `yaml:"live"`
	Sandbox            ProviderCredentials `yaml:"sandbox"`
	PublicAPIBaseURL   string              `yaml:"publicApiBaseUrl" validate:"required,url"`
	WebhookSecret      string              `yaml:"webhookSecret" validate:"required"`

	Port            string        `yaml:"port" validate:"required,numeric"`
	RedisURL        string        `yaml:"redisUrl"`
	RateRPS         float64       `yaml:"rateRps" validate:"gte=0"`
	RateBurst       int           `yaml:"rateBurst" validate:"gte=0"`
	ProviderTimeout time.Duration `yaml:"providerTimeout" validate:"gt=0"`
	LogLevel        string        `yaml:"logLevel" validate:"oneof=debug info warn error"`
	Migrate         bool          `yaml:"migrate"`
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// envNames maps validated fields to the variable that sets them, so errors
// name what the operator has to fix.
var envNames = map[string]string{
	"Config.DatabaseURL":      "DATABASE_URL",
	"Config.Live.BaseURL":     "PROVIDER_LIVE_BASE_URL",
	"Config.Live.APIKey":      "PROVIDER_LIVE_API_KEY",
	"Config.Sandbox.BaseURL":  "PROVIDER_SANDBOX_BASE_URL",
	"Config.Sandbox.APIKey":   "PROVIDER_SANDBOX_API_KEY",
	"Config.PublicAPIBaseURL": "PUBLIC_API_BASE_URL",
	"Config.WebhookSecret":    "WEBHOOK_SECRET",
	"Config.Port":             "PORT",
	"Config.RateRPS":          "RATE_RPS",
	"Config.RateBurst":        "RATE_BURST",
	"Config.ProviderTimeout":  "PROVIDER_TIMEOUT",
	"Config.LogLevel":         "LOG_LEVEL",
}

var validate = validator.New()

// Defaults returns the configuration used before any file or variable applies.
func Defaults() Config {
	return Config{
		Port:            "8080",
		ProviderTimeout: 15 * time.Second,
		LogLevel:        "info",
		Migrate:         true,
	}
}

// Load reads the given dotenv files (".env" when none are named) into the
// process environment, then resolves the configuration from it.
// Missing dotenv files are ignored.
func Load(dotenv ...string) (Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv resolves the configuration using lookup for environment access.
func FromEnv(lookup LookupFunc) (Config, error) {
	cfg := Defaults()
	if path, ok := lookup("CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("SANDBOX_DATABASE_URL", &cfg.SandboxDatabaseURL)
	str("PROVIDER_LIVE_BASE_URL", &cfg.Live.BaseURL)
	str("PROVIDER_LIVE_API_KEY", &cfg.Live.APIKey)
	str("PROVIDER_SANDBOX_BASE_URL", &cfg.Sandbox.BaseURL)
	str("PROVIDER_SANDBOX_API_KEY", &cfg.Sandbox.APIKey)
	str("PUBLIC_API_BASE_URL", &cfg.PublicAPIBaseURL)
	str("WEBHOOK_SECRET", &cfg.WebhookSecret)
	str("PORT", &cfg.Port)
	str("REDIS_URL", &cfg.RedisURL)
	str("LOG_LEVEL", &cfg.LogLevel)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if v, ok := lookup("RATE_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_RPS: %w", err)
		}
		cfg.RateRPS = f
	}
	if v, ok := lookup("RATE_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_BURST: %w", err)
		}
		cfg.RateBurst = n
	}
	if v, ok := lookup("PROVIDER_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PROVIDER_TIMEOUT: %w", err)
		}
		cfg.ProviderTimeout = d
	}
	if v, ok := lookup("DB_MIGRATE"); ok && v != "" {
		cfg.Migrate = v != "false"
	}
	return nil
}

// Validate reports every missing or malformed value in a single error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := envNames[fe.Namespace()]
		if name == "" {
			name = fe.Namespace()
		}
		problems = append(problems, fmt.Sprintf("%s (%s)", name, fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
}

// ProviderFor returns the provider credentials of m.
func (c Config) ProviderFor(m mode.Mode) ProviderCredentials {
	if m == mode.Sandbox {
		return c.Sandbox
	}
	return c.Live
}

// Addr is the HTTP listen address.
func (c Config) Addr() string { return ":" + c.Port }
