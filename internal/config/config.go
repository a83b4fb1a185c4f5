// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/erazemk/keramika/internal/db"
)

// Config holds everything the server reads from the environment. Process
// concerns such as the listen address and log file are flags instead.
type Config struct {
	DBDriver db.Dialect `env:"KERAMIKA_DB_DRIVER" envDefault:"sqlite"`
	// DBDSN is a MySQL DSN. For SQLite the -db flag names the file.
	DBDSN string `env:"KERAMIKA_DB_DSN"`

	AdminPassword     string `env:"KERAMIKA_ADMIN_PASSWORD"`
	LegacyAdminPass   string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string `env:"KERAMIKA_ADMIN_PASSWORD_HASH"`
	SessionSecret     string `env:"KERAMIKA_SESSION_SECRET"`
	CookieSecure      bool   `env:"KERAMIKA_COOKIE_SECURE" envDefault:"false"`

	BaseURL       string `env:"KERAMIKA_BASE_URL"`
	LegacyBaseURL string `env:"NEXT_PUBLIC_BASE_URL"`

	EmailHost string `env:"EMAIL_HOST"`
	EmailPort int    `env:"EMAIL_PORT" envDefault:"587"`
	EmailUser string `env:"EMAIL_USER"`
	EmailPass string `env:"EMAIL_PASS"`
	EmailFrom string `env:"EMAIL_FROM"`
	EmailTo   string `env:"EMAIL_TO"`

	TranslateURL   string `env:"KERAMIKA_TRANSLATE_URL" envDefault:"https://api.mymemory.translated.net"`
	TranslateEmail string `env:"KERAMIKA_TRANSLATE_EMAIL"`
	TranslateAsync bool   `env:"KERAMIKA_TRANSLATE_ASYNC" envDefault:"true"`

	JobWorkers int `env:"KERAMIKA_JOB_WORKERS" envDefault:"2"`
	JobQueue   int `env:"KERAMIKA_JOB_QUEUE" envDefault:"64"`

	SettingsTTL time.Duration `env:"KERAMIKA_SETTINGS_TTL" envDefault:"5m"`
	CORSOrigins []string      `env:"KERAMIKA_CORS_ORIGINS" envSeparator:","`
	// TrustProxy takes client addresses from X-Forwarded-For and X-Real-IP.
	// Enable only behind a reverse proxy that sets them.
	TrustProxy bool `env:"KERAMIKA_TRUST_PROXY"`

	CloudinaryURL    string `env:"CLOUDINARY_URL"`
	CloudinaryFolder string `env:"KERAMIKA_CLOUDINARY_FOLDER" envDefault:"keramika"`

	OTelEndpoint string `env:"KERAMIKA_OTEL_ENDPOINT"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.finish()
}

// LoadFrom reads the configuration from vars instead of the process
// environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.finish()
}

// finish applies legacy fallbacks and validates the result.
func (c Config) finish() (Config, error) {
	if c.AdminPassword == "" {
		c.AdminPassword = c.LegacyAdminPass
	}
	c.LegacyAdminPass = ""
	if c.BaseURL == "" {
		c.BaseURL = c.LegacyBaseURL
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if c.EmailFrom == "" && c.EmailUser != "" {
		c.EmailFrom = fmt.Sprintf("%q <%s>", "Pottery Studio Website", c.EmailUser)
	}

	switch c.DBDriver {
	case db.SQLite:
	case db.MySQL:
		if c.DBDSN == "" {
			return Config{}, fmt.Errorf("KERAMIKA_DB_DSN is required for the mysql driver")
		}
	default:
		return Config{}, fmt.Errorf("unsupported KERAMIKA_DB_DRIVER %q", c.DBDriver)
	}
	if c.SettingsTTL <= 0 {
		return Config{}, fmt.Errorf("KERAMIKA_SETTINGS_TTL must be positive")
	}
	return c, nil
}

// SMTPAddr returns the host:port of the mail relay, or "" when mail is off.
func (c Config) SMTPAddr() string {
	if c.EmailHost == "" {
		return ""
	}
	return net.JoinHostPort(c.EmailHost, strconv.Itoa(c.EmailPort))
}
