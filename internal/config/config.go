package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Supported store backends.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Config captures all runtime configuration derived from environment variables
// and, optionally, the YAML file named by CONFIG_FILE.
type Config struct {
	Port          string
	AuthJWTSecret string
	StoreBackend  string

	DBURL             string
	DBAutoMigrate     bool
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int

	MongoURI         string
	MongoDatabase    string
	MongoTimeoutSecs int

	CatalogURL         string
	CatalogAPIKey      string
	CatalogTimeoutSecs int

	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int

	RateLimitRequests   int
	RateLimitWindowSecs int
	CORSAllowedOrigins  []string

	UpdateMaxRetries int

	LogLevel  string
	LogFormat string
	LogFile   string
}

var defaults = map[string]interface{}{
	"PORT":                        "8080",
	"STORE_BACKEND":               BackendPostgres,
	"DB_AUTO_MIGRATE":             "true",
	"DB_MAX_CONNS":                20,
	"DB_MIN_CONNS":                2,
	"DB_MAX_CONN_IDLE_SECS":       300,
	"DB_MAX_CONN_LIFETIME_SECS":   3600,
	"DB_CONN_TIMEOUT_SECS":        10,
	"DB_STATEMENT_CACHE_CAPACITY": 256,
	"MONGO_DATABASE":              "learnhub",
	"MONGO_TIMEOUT_SECS":          10,
	"CATALOG_TIMEOUT_SECS":        5,
	"SERVER_READ_TIMEOUT":         15,
	"SERVER_WRITE_TIMEOUT":        15,
	"SERVER_IDLE_TIMEOUT":         60,
	"RATE_LIMIT_REQUESTS":         100,
	"RATE_LIMIT_WINDOW_SECS":      60,
	"UPDATE_MAX_RETRIES":          5,
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "json",
}

// Load reads configuration, applying defaults and validation.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("CONFIG_FILE %s: %w", file, err)
		}
	}

	r := reader{v: v}
	cfg := Config{
		Port:          r.str("PORT"),
		AuthJWTSecret: r.str("AUTH_JWT_SECRET"),
		StoreBackend:  strings.ToLower(r.str("STORE_BACKEND")),

		DBURL:             r.str("DB_URL"),
		DBAutoMigrate:     r.boolean("DB_AUTO_MIGRATE"),
		DBMaxConns:        r.integer("DB_MAX_CONNS"),
		DBMinConns:        r.integer("DB_MIN_CONNS"),
		DBMaxIdleSecs:     r.integer("DB_MAX_CONN_IDLE_SECS"),
		DBMaxLifeSecs:     r.integer("DB_MAX_CONN_LIFETIME_SECS"),
		DBConnTimeoutSecs: r.integer("DB_CONN_TIMEOUT_SECS"),
		DBStatementCache:  r.integer("DB_STATEMENT_CACHE_CAPACITY"),

		MongoURI:         r.str("MONGO_URI"),
		MongoDatabase:    r.str("MONGO_DATABASE"),
		MongoTimeoutSecs: r.integer("MONGO_TIMEOUT_SECS"),

		CatalogURL:         r.str("CATALOG_URL"),
		CatalogAPIKey:      r.str("CATALOG_API_KEY"),
		CatalogTimeoutSecs: r.integer("CATALOG_TIMEOUT_SECS"),

		ReadTimeoutSecs:  r.integer("SERVER_READ_TIMEOUT"),
		WriteTimeoutSecs: r.integer("SERVER_WRITE_TIMEOUT"),
		IdleTimeoutSecs:  r.integer("SERVER_IDLE_TIMEOUT"),

		RateLimitRequests:   r.integer("RATE_LIMIT_REQUESTS"),
		RateLimitWindowSecs: r.integer("RATE_LIMIT_WINDOW_SECS"),
		CORSAllowedOrigins:  splitList(r.str("CORS_ALLOWED_ORIGINS")),

		UpdateMaxRetries: r.integer("UPDATE_MAX_RETRIES"),

		LogLevel:  strings.ToLower(r.str("LOG_LEVEL")),
		LogFormat: strings.ToLower(r.str("LOG_FORMAT")),
		LogFile:   r.str("LOG_FILE"),
	}
	if r.err != nil {
		return Config{}, r.err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.AuthJWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.DBURL == "" {
			return fmt.Errorf("DB_URL is required")
		}
	case BackendMongo:
		if cfg.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
		if cfg.MongoDatabase == "" {
			return fmt.Errorf("MONGO_DATABASE is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of %s, %s, %s", BackendPostgres, BackendMongo, BackendMemory)
	}
	if cfg.CatalogTimeoutSecs <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT_SECS must be positive")
	}
	if cfg.MongoTimeoutSecs <= 0 {
		return fmt.Errorf("MONGO_TIMEOUT_SECS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.RateLimitRequests > 0 && cfg.RateLimitWindowSecs <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECS must be positive when rate limiting is enabled")
	}
	if cfg.UpdateMaxRetries < 0 {
		return fmt.Errorf("UPDATE_MAX_RETRIES must be non-negative")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// reader keeps the first conversion error so Load can report the offending key.
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) str(key string) string {
	return strings.TrimSpace(r.v.GetString(key))
}

func (r *reader) integer(key string) int {
	raw := r.str(key)
	n, err := strconv.Atoi(raw)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n
}

func (r *reader) boolean(key string) bool {
	raw := r.str(key)
	b, err := strconv.ParseBool(raw)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return b
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
