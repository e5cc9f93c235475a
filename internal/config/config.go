// Package config loads and validates application configuration from
// environment variables, optionally layered over a TOML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFile, when set, receives a rotated copy of every log line.
	LogFile string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// AppURL is the dashboard origin OAuth redirects are resolved against.
	AppURL string

	// UserIDHeader carries the caller's user id, set by the auth gateway.
	UserIDHeader string

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	StravaClientID     string
	StravaClientSecret string
	// StravaRedirectURI defaults to AppURL + "/api/strava/callback".
	StravaRedirectURI string
	StravaVerifyToken string
	WebhookSecret     string

	// CookieSecure sets the Secure flag on OAuth cookies. Defaults to true.
	CookieSecure bool

	// RedisAddr enables webhook rate limiting when set.
	RedisAddr         string
	WebhookRatePerMin int

	DraftCacheBytes int
	DraftTTL        time.Duration

	// MigrateOnStart applies pending goose migrations before serving.
	MigrateOnStart bool
}

// file mirrors the environment variables for the optional CONFIG_FILE.
// Environment variables win over file values.
type file struct {
	Port               string `toml:"port"`
	DatabaseURL        string `toml:"database_url"`
	LogLevel           string `toml:"log_level"`
	LogFile            string `toml:"log_file"`
	CORSOrigins        string `toml:"cors_origins"`
	AppURL             string `toml:"app_url"`
	UserIDHeader       string `toml:"user_id_header"`
	MaxBodyBytes       string `toml:"max_body_bytes"`
	StravaClientID     string `toml:"strava_client_id"`
	StravaClientSecret string `toml:"strava_client_secret"`
	StravaRedirectURI  string `toml:"strava_redirect_uri"`
	StravaVerifyToken  string `toml:"strava_verify_token"`
	WebhookSecret      string `toml:"webhook_secret"`
	CookieSecure       string `toml:"cookie_secure"`
	RedisAddr          string `toml:"redis_addr"`
	WebhookRatePerMin  string `toml:"webhook_rate_per_min"`
	DraftCacheBytes    string `toml:"draft_cache_bytes"`
	DraftTTL           string `toml:"draft_ttl"`
	MigrateOnStart     string `toml:"migrate_on_start"`
}

func (f file) values() map[string]string {
	return map[string]string{
		"PORT":                 f.Port,
		"DATABASE_URL":         f.DatabaseURL,
		"LOG_LEVEL":            f.LogLevel,
		"LOG_FILE":             f.LogFile,
		"CORS_ORIGINS":         f.CORSOrigins,
		"APP_URL":              f.AppURL,
		"USER_ID_HEADER":       f.UserIDHeader,
		"MAX_BODY_BYTES":       f.MaxBodyBytes,
		"STRAVA_CLIENT_ID":     f.StravaClientID,
		"STRAVA_CLIENT_SECRET": f.StravaClientSecret,
		"STRAVA_REDIRECT_URI":  f.StravaRedirectURI,
		"STRAVA_VERIFY_TOKEN":  f.StravaVerifyToken,
		"WEBHOOK_SECRET":       f.WebhookSecret,
		"COOKIE_SECURE":        f.CookieSecure,
		"REDIS_ADDR":           f.RedisAddr,
		"WEBHOOK_RATE_PER_MIN": f.WebhookRatePerMin,
		"DRAFT_CACHE_BYTES":    f.DraftCacheBytes,
		"DRAFT_TTL":            f.DraftTTL,
		"MIGRATE_ON_START":     f.MigrateOnStart,
	}
}

// Load reads configuration from environment variables and returns a Config.
// When CONFIG_FILE names a TOML file its values are used for any variable
// that is unset. Returns one error naming every missing required variable
// and every malformed value.
func Load() (Config, error) {
	src := env{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var f file
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return Config{}, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
		src.file = f.values()
	}

	appURL := strings.TrimRight(src.get("APP_URL", "http://localhost:3000"), "/")
	cfg := Config{
		Port:              src.get("PORT", "8080"),
		LogLevel:          src.get("LOG_LEVEL", "info"),
		LogFile:           src.get("LOG_FILE", ""),
		CORSOrigins:       splitCSV(src.get("CORS_ORIGINS", "http://localhost:3000")),
		AppURL:            appURL,
		UserIDHeader:      src.get("USER_ID_HEADER", "X-User-ID"),
		StravaRedirectURI: src.get("STRAVA_REDIRECT_URI", appURL+"/api/strava/callback"),
		RedisAddr:         src.get("REDIS_ADDR", ""),
	}

	var missing []string
	required := func(key string) string {
		v := src.get(key, "")
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	cfg.DatabaseURL = required("DATABASE_URL")
	cfg.StravaClientID = required("STRAVA_CLIENT_ID")
	cfg.StravaClientSecret = required("STRAVA_CLIENT_SECRET")
	cfg.StravaVerifyToken = required("STRAVA_VERIFY_TOKEN")
	cfg.WebhookSecret = required("WEBHOOK_SECRET")

	var err error
	if len(missing) > 0 {
		err = fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var perr error
	cfg.MaxBodyBytes, perr = parsePositive(src, "MAX_BODY_BYTES", 1<<20)
	err = multierr.Append(err, perr)
	var rate, cacheBytes int64
	rate, perr = parsePositive(src, "WEBHOOK_RATE_PER_MIN", 600)
	err = multierr.Append(err, perr)
	cfg.WebhookRatePerMin = int(rate)
	cacheBytes, perr = parsePositive(src, "DRAFT_CACHE_BYTES", 16<<20)
	err = multierr.Append(err, perr)
	cfg.DraftCacheBytes = int(cacheBytes)
	cfg.DraftTTL, perr = parseDuration(src, "DRAFT_TTL", 30*time.Minute)
	err = multierr.Append(err, perr)
	cfg.CookieSecure, perr = parseBool(src, "COOKIE_SECURE", true)
	err = multierr.Append(err, perr)
	cfg.MigrateOnStart, perr = parseBool(src, "MIGRATE_ON_START", false)
	err = multierr.Append(err, perr)

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("LOG_LEVEL: unknown level %q", cfg.LogLevel))
	}

	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// env resolves a key from the process environment, then the config file.
type env struct {
	file map[string]string
}

// get returns the value of the environment variable named by key, the
// config file value, or fallback if neither is set or both are empty.
func (e env) get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := e.file[key]; v != "" {
		return v
	}
	return fallback
}

func parsePositive(e env, key string, fallback int64) (int64, error) {
	raw := e.get(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: want a positive integer, got %q", key, raw)
	}
	return n, nil
}

func parseDuration(e env, key string, fallback time.Duration) (time.Duration, error) {
	raw := e.get(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: want a positive duration such as 30m, got %q", key, raw)
	}
	return d, nil
}

func parseBool(e env, key string, fallback bool) (bool, error) {
	raw := e.get(key, "")
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: want true or false, got %q", key, raw)
	}
	return b, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
