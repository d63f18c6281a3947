package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

var ErrInvalidConfig = errors.New("invalid config")

// SourceType selects where the tables are read from.
type SourceType string

const (
	SourceFiles    SourceType = "files"
	SourceDatabase SourceType = "db"
)

// Config holds everything the map service needs at startup.
type Config struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Table source: "files" (URLs or paths below) or "db" (Postgres, written
	// by cmd/import).
	Source      SourceType `yaml:"source"`
	DatabaseURL string     `yaml:"database_url"`

	// States limits the db source to these postal codes. Empty loads all.
	States []string `yaml:"states"`

	BoundaryLookupURL string `yaml:"boundary_lookup_url"`
	ResultsURL        string `yaml:"results_url"`
	StateSummaryURL   string `yaml:"state_summary_url"`

	// Optional chamber GeoJSON for coordinate lookups.
	LowerGeoJSONURL   string `yaml:"lower_geojson_url"`
	UpperGeoJSONURL   string `yaml:"upper_geojson_url"`
	FeatureIDProperty string `yaml:"feature_id_property"`

	StrictUnique bool `yaml:"strict_unique"`

	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	FetchRetries int           `yaml:"fetch_retries"`
	FetchBackoff time.Duration `yaml:"fetch_backoff"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	PopupCacheTTL time.Duration `yaml:"popup_cache_ttl"`

	// bcrypt hash of the key accepted by POST /admin/reload. Empty disables
	// the admin routes.
	AdminKeyHash string `yaml:"admin_key_hash"`
}

// Defaults point at the published static files next to the map page.
func Defaults() Config {
	return Config{
		Port: "5050",
		AllowedOrigins: []string{
			"http://localhost:5173",
			"https://empoweredvote.github.io",
		},
		Source:            SourceFiles,
		BoundaryLookupURL: "data/boundary_lookup.json",
		ResultsURL:        "data/results.json",
		StateSummaryURL:   "data/state_summary.csv",
		FetchTimeout:      30 * time.Second,
		FetchRetries:      3,
		FetchBackoff:      500 * time.Millisecond,
		RateLimitRPS:      20,
		RateLimitBurst:    40,
		PopupCacheTTL:     10 * time.Minute,
	}
}

// LoadFromEnv builds the config in three layers: Defaults, then the YAML
// file named by MAP_CONFIG (if set), then individual environment variables.
//
// Environment variables:
//   - PORT, ALLOWED_ORIGINS (comma separated)
//   - MAP_SOURCE: "files" or "db"; DATABASE_URL; STATES (comma separated)
//   - BOUNDARY_LOOKUP_URL, RESULTS_URL, STATE_SUMMARY_URL
//   - LOWER_GEOJSON_URL, UPPER_GEOJSON_URL, FEATURE_ID_PROPERTY
//   - STRICT_UNIQUE
//   - FETCH_TIMEOUT, FETCH_RETRIES, FETCH_BACKOFF
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, POPUP_CACHE_TTL
//   - ADMIN_KEY_HASH
func LoadFromEnv() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("MAP_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	var errs []error
	setString(&cfg.Port, "PORT")
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("MAP_SOURCE"))); v != "" {
		cfg.Source = SourceType(v)
	}
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	if v := strings.TrimSpace(os.Getenv("STATES")); v != "" {
		cfg.States = splitList(v)
	}
	setString(&cfg.BoundaryLookupURL, "BOUNDARY_LOOKUP_URL")
	setString(&cfg.ResultsURL, "RESULTS_URL")
	setString(&cfg.StateSummaryURL, "STATE_SUMMARY_URL")
	setString(&cfg.LowerGeoJSONURL, "LOWER_GEOJSON_URL")
	setString(&cfg.UpperGeoJSONURL, "UPPER_GEOJSON_URL")
	setString(&cfg.FeatureIDProperty, "FEATURE_ID_PROPERTY")
	errs = append(errs, setBool(&cfg.StrictUnique, "STRICT_UNIQUE"))
	errs = append(errs, setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT"))
	errs = append(errs, setInt(&cfg.FetchRetries, "FETCH_RETRIES"))
	errs = append(errs, setDuration(&cfg.FetchBackoff, "FETCH_BACKOFF"))
	errs = append(errs, setFloat(&cfg.RateLimitRPS, "RATE_LIMIT_RPS"))
	errs = append(errs, setInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST"))
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	errs = append(errs, setInt(&cfg.RedisDB, "REDIS_DB"))
	errs = append(errs, setDuration(&cfg.PopupCacheTTL, "POPUP_CACHE_TTL"))
	setString(&cfg.AdminKeyHash, "ADMIN_KEY_HASH")

	return cfg, errors.Join(errs...)
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// Validate checks that the selected source has what it needs.
func (c Config) Validate() error {
	switch c.Source {
	case SourceFiles:
		if c.BoundaryLookupURL == "" || c.ResultsURL == "" || c.StateSummaryURL == "" {
			return fmt.Errorf("%w: files source needs boundary, results and summary locations", ErrInvalidConfig)
		}
	case SourceDatabase:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: db source needs DATABASE_URL", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source)
	}
	if c.Port == "" {
		return fmt.Errorf("%w: empty port", ErrInvalidConfig)
	}
	if c.FetchRetries < 0 {
		return fmt.Errorf("%w: fetch_retries must be >= 0", ErrInvalidConfig)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("%w: rate limit must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// CacheEnabled reports whether popups should be cached in redis.
func (c Config) CacheEnabled() bool { return c.RedisAddr != "" && c.PopupCacheTTL > 0 }

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
	}
	*dst = d
	return nil
}
