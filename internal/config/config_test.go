package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/pricing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"CATALOG_SOURCE":  "",
		"PORT":            "",
		"QUOTE_CACHE_TTL": "",
		"MAX_BODY_BYTES":  "",

		"CATALOG_LOAD_ATTEMPTS": "",
	})
	require.NoError(t, err)
	require.Equal(t, CatalogEmbedded, cfg.CatalogSource)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 10*time.Minute, cfg.QuoteCacheTTL)
	require.EqualValues(t, 64<<10, cfg.MaxBodyBytes)
	require.Equal(t, 3, cfg.CatalogLoadAttempts)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                 ":9090",
		"CATALOG_SOURCE":       "file",
		"CATALOG_PATH":         "/tmp/products.json",
		"CORS_ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"QUOTE_CACHE_TTL":      "bogus",
		"OBS_ENABLE_TRACING":   "yes",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, CatalogFile, cfg.CatalogSource)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 10*time.Minute, cfg.QuoteCacheTTL)
	require.True(t, cfg.TracingEnabled)
}

func TestLoadRequiresSourceSettings(t *testing.T) {
	_, err := LoadForTests(map[string]string{"CATALOG_SOURCE": "postgres", "DATABASE_URL": ""})
	require.Error(t, err)

	_, err = LoadForTests(map[string]string{"CATALOG_SOURCE": "s3", "CATALOG_S3_BUCKET": ""})
	require.Error(t, err)

	_, err = LoadForTests(map[string]string{"CATALOG_SOURCE": "ftp"})
	require.Error(t, err)
}

func TestLoadRulesDefaults(t *testing.T) {
	rules, err := LoadRules("", "")
	require.NoError(t, err)
	require.Equal(t, pricing.DefaultRules().BulkBuyPrefix, rules.BulkBuyPrefix)
	require.Equal(t, pricing.BulkGrouped, rules.BulkStrategy)

	rules, err = LoadRules("", "ranked")
	require.NoError(t, err)
	require.Equal(t, pricing.BulkRanked, rules.BulkStrategy)
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	content := `
bulk_strategy = "ranked"

[package]
prefix = "BUNDLE_"
discount = "35.50"

[threshold]
amount = 1000
percent = 7.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rules, err := LoadRules(path, "")
	require.NoError(t, err)
	require.Equal(t, pricing.BulkRanked, rules.BulkStrategy)
	require.Equal(t, "BUNDLE_", rules.PackagePrefix)
	require.Equal(t, "35.5", rules.PackageDiscount.String())
	require.Equal(t, "1000", rules.Threshold.String())
	require.Equal(t, "7.5", rules.ThresholdPercent.String())
	require.Equal(t, "DIS_10", rules.Percent10.Prefix)
}

func TestLoadRulesRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("tax = 3\n"), 0o600))
	_, err := LoadRules(unknown, "")
	require.Error(t, err)

	overlap := filepath.Join(dir, "overlap.toml")
	require.NoError(t, os.WriteFile(overlap, []byte("[package]\nprefix = \"DIS_\"\n"), 0o600))
	_, err = LoadRules(overlap, "")
	require.ErrorIs(t, err, pricing.ErrInvalidRules)
}

func TestLoadForTestsLeavesEnvironmentAlone(t *testing.T) {
	t.Setenv("OBS_LOG_LEVEL", "warn")

	cfg, err := LoadForTests(map[string]string{"OBS_LOG_LEVEL": "debug", "MAX_BODY_BYTES": "bogus"})
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.EqualValues(t, 64<<10, cfg.MaxBodyBytes)
	require.Equal(t, "warn", os.Getenv("OBS_LOG_LEVEL"))

	cfg, err = LoadForTests(map[string]string{"OBS_LOG_LEVEL": ""})
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
}
