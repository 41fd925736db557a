package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	LogLevel    string

	// Remote libSQL database; DBPath is used when the URL is empty
	TursoDatabaseURL string
	TursoAuthToken   string

	// Email (Resend). In test mode messages are logged, not sent.
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool

	ReminderSchedule string // cron expression of the deadline reminder job
	Timezone         string

	// Account created on first start when no super admin exists
	SuperAdminEmail    string
	SuperAdminPassword string
	SuperAdminName     string

	AllowedOrigins []string
	AppURL         string
}

// Load reads the configuration from the environment, after loading .env when present
func Load() *Config {
	_ = godotenv.Load()
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the configuration through lookup
func LoadFrom(lookup func(key string) (string, bool)) *Config {
	env := environment(lookup)
	return &Config{
		ServerPort:  env.str("SERVER_PORT", "8080"),
		DBPath:      env.str("DB_PATH", "db/app.db"),
		Environment: env.str("ENVIRONMENT", "development"),
		LogLevel:    env.str("LOG_LEVEL", "info"),

		TursoDatabaseURL: env.str("TURSO_DATABASE_URL", ""),
		TursoAuthToken:   env.str("TURSO_AUTH_TOKEN", ""),

		ResendAPIKey:  env.str("RESEND_API_KEY", ""),
		EmailFrom:     env.str("EMAIL_FROM", "noreply@police-cases.local"),
		EmailFromName: env.str("EMAIL_FROM_NAME", "Case Management"),
		EmailTestMode: env.flag("EMAIL_TEST_MODE", true),

		ReminderSchedule: env.str("REMINDER_SCHEDULE", "0 7 * * *"),
		Timezone:         env.str("TIMEZONE", "UTC"),

		SuperAdminEmail:    env.str("SUPERADMIN_EMAIL", ""),
		SuperAdminPassword: env.str("SUPERADMIN_PASSWORD", ""),
		SuperAdminName:     env.str("SUPERADMIN_NAME", ""),

		AllowedOrigins: env.list("ALLOWED_ORIGINS", "*"),
		AppURL:         env.str("APP_URL", "http://localhost:8080"),
	}
}

// IsProduction checks if the app runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate reports settings that cannot work together
func (c *Config) Validate() error {
	var errs []error
	if !c.EmailTestMode && c.ResendAPIKey == "" {
		errs = append(errs, errors.New("RESEND_API_KEY is required when EMAIL_TEST_MODE is off"))
	}
	if c.TursoDatabaseURL != "" && c.TursoAuthToken == "" && c.IsProduction() {
		errs = append(errs, errors.New("TURSO_AUTH_TOKEN is required for a remote database in production"))
	}
	if (c.SuperAdminEmail == "") != (c.SuperAdminPassword == "") {
		errs = append(errs, errors.New("SUPERADMIN_EMAIL and SUPERADMIN_PASSWORD must be set together"))
	}
	if c.IsProduction() && containsWildcard(c.AllowedOrigins) {
		errs = append(errs, errors.New("ALLOWED_ORIGINS must list explicit origins in production"))
	}
	return errors.Join(errs...)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

type environment func(key string) (string, bool)

func (env environment) str(key, fallback string) string {
	if value, ok := env(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func (env environment) flag(key string, fallback bool) bool {
	switch strings.ToLower(env.str(key, "")) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return fallback
}

func (env environment) list(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(env.str(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
