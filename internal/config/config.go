package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Catalog source kinds accepted in CATALOG_SOURCE.
const (
	CatalogEmbedded = "embedded"
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
	CatalogS3       = "s3"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	CatalogSource       string
	CatalogPath         string
	CatalogS3           S3Config
	CatalogLoadAttempts int

	PricingRulesFile string
	BulkBuyStrategy  string

	QuoteCacheTTL      time.Duration
	RateLimitCheckout  string
	MaxBodyBytes       int64
	HTTPRequestTimeout time.Duration
	ShutdownTimeout    time.Duration

	LogFormat          string
	LogLevel           string
	MetricsNamespace   string
	MetricsEnabled     bool
	MetricsBucketsMS   string
	TracingEnabled     bool
	TracingEndpoint    string
	TracingSampleRatio float64
}

// S3Config locates a catalog document in an S3-compatible bucket.
type S3Config struct {
	Bucket         string
	Key            string
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

// Load reads configuration from the process environment, after merging an
// optional .env file into it.
func Load() (*Config, error) {
	k, err := environment()
	if err != nil {
		return nil, err
	}
	return build(source{k})
}

// LoadForTests is Load with overrides applied on top of the environment. An
// empty value removes the key. The process environment is left untouched.
func LoadForTests(overrides map[string]string) (*Config, error) {
	k, err := environment()
	if err != nil {
		return nil, err
	}
	for key, value := range overrides {
		if value == "" {
			k.Delete(key)
			continue
		}
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
	}
	return build(source{k})
}

func environment() (*koanf.Koanf, error) {
	_ = godotenv.Load()
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return k, nil
}

func build(src source) (*Config, error) {
	cfg := &Config{
		AppEnv:             src.str("APP_ENV", "development"),
		Port:               src.str("PORT", "8080"),
		DatabaseURL:        src.str("DATABASE_URL", ""),
		RedisURL:           src.str("REDIS_URL", ""),
		CORSAllowedOrigins: src.list("CORS_ALLOWED_ORIGINS"),

		CatalogSource:       strings.ToLower(src.str("CATALOG_SOURCE", CatalogEmbedded)),
		CatalogPath:         src.str("CATALOG_PATH", ""),
		CatalogLoadAttempts: int(src.int64("CATALOG_LOAD_ATTEMPTS", 3)),
		CatalogS3: S3Config{
			Bucket:         src.str("CATALOG_S3_BUCKET", ""),
			Key:            src.str("CATALOG_S3_KEY", "products.json"),
			Region:         src.str("CATALOG_S3_REGION", "us-east-1"),
			Endpoint:       src.str("CATALOG_S3_ENDPOINT", ""),
			AccessKey:      src.raw("CATALOG_S3_ACCESS_KEY"),
			SecretKey:      src.raw("CATALOG_S3_SECRET_KEY"),
			ForcePathStyle: src.bool("CATALOG_S3_FORCE_PATH_STYLE", false),
		},

		PricingRulesFile: src.str("PRICING_RULES_FILE", ""),
		BulkBuyStrategy:  src.str("BULK_BUY_STRATEGY", ""),

		QuoteCacheTTL:      src.duration("QUOTE_CACHE_TTL", 10*time.Minute),
		RateLimitCheckout:  src.str("RATE_LIMIT_CHECKOUT", "120-M"),
		MaxBodyBytes:       src.int64("MAX_BODY_BYTES", 64<<10),
		HTTPRequestTimeout: src.duration("HTTP_REQUEST_TIMEOUT", 5*time.Second),
		ShutdownTimeout:    src.duration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogFormat:          src.str("OBS_LOG_FORMAT", "json"),
		LogLevel:           src.str("OBS_LOG_LEVEL", "info"),
		MetricsNamespace:   src.str("OBS_METRICS_NAMESPACE", "toko_checkout"),
		MetricsEnabled:     src.bool("OBS_ENABLE_PROMETHEUS", true),
		MetricsBucketsMS:   src.raw("OBS_METRICS_BUCKETS_MS"),
		TracingEnabled:     src.bool("OBS_ENABLE_TRACING", false),
		TracingEndpoint:    src.str("OBS_OTLP_ENDPOINT", ""),
		TracingSampleRatio: src.float("OBS_TRACING_SAMPLING_RATIO", 1.0),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CatalogSource {
	case CatalogEmbedded:
	case CatalogFile:
		if c.CatalogPath == "" {
			return errors.New("CATALOG_PATH is required for file catalog")
		}
	case CatalogPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres catalog")
		}
	case CatalogS3:
		if c.CatalogS3.Bucket == "" {
			return errors.New("CATALOG_S3_BUCKET is required for s3 catalog")
		}
	default:
		return fmt.Errorf("unsupported CATALOG_SOURCE %q", c.CatalogSource)
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// HTTPAddr is the listen address derived from PORT.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	switch {
	case port == "":
		return ":8080"
	case strings.HasPrefix(port, ":"):
		return port
	default:
		return ":" + port
	}
}

// source reads typed values out of the flat env keyspace. Malformed values
// fall back to the default rather than failing the load.
type source struct{ k *koanf.Koanf }

func (s source) raw(key string) string { return s.k.String(key) }

func (s source) str(key, def string) string {
	if v := strings.TrimSpace(s.k.String(key)); v != "" {
		return v
	}
	return def
}

func (s source) list(key string) []string {
	var out []string
	for part := range strings.SplitSeq(s.k.String(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s source) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s.str(key, "")); err == nil {
		return d
	}
	return def
}

func (s source) bool(key string, def bool) bool {
	switch strings.ToLower(s.str(key, "")) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	}
	return def
}

func (s source) int64(key string, def int64) int64 {
	if n, err := strconv.ParseInt(s.str(key, ""), 10, 64); err == nil {
		return n
	}
	return def
}

func (s source) float(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(s.str(key, ""), 64); err == nil {
		return f
	}
	return def
}
