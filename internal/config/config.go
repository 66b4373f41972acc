// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hortiva/priceintel/internal/pricing"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Sources SourcesConfig `mapstructure:"sources"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Report  ReportConfig  `mapstructure:"report"`
	Debug   DebugConfig   `mapstructure:"debug"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ServerConfig controls the optional status/metrics listener.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the bounded retrieval client.
type HTTPConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryTimeouts  bool          `mapstructure:"retry_timeouts"`
	MaxBodyBytes   int           `mapstructure:"max_body_bytes"`
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	PerHostRPS     float64       `mapstructure:"per_host_rps"`
	PerHostBurst   int           `mapstructure:"per_host_burst"`
}

// CrawlConfig governs batch pacing and scope.
type CrawlConfig struct {
	ProductLimit       int           `mapstructure:"product_limit"`
	ProductDelay       time.Duration `mapstructure:"product_delay"`
	BatchDelay         time.Duration `mapstructure:"batch_delay"`
	ShopConcurrency    int           `mapstructure:"shop_concurrency"`
	SkipAfter          int           `mapstructure:"skip_after"`
	MaxShops           int           `mapstructure:"max_shops"`
	OnlyShop           string        `mapstructure:"only_shop"`
	MaxLinks           int           `mapstructure:"max_links"`
	VerifyProductPages bool          `mapstructure:"verify_product_pages"`
}

// SourcesConfig points at the shop-source registry.
type SourcesConfig struct {
	Path string `mapstructure:"path"`
}

// CatalogConfig selects and configures the product catalog provider.
type CatalogConfig struct {
	Provider string `mapstructure:"provider"`
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// ReportConfig sets the report output locations.
type ReportConfig struct {
	JSONPath string `mapstructure:"json_path"`
	CSVPath  string `mapstructure:"csv_path"`
}

// DebugConfig controls dumping of fruitless pages for offline inspection.
type DebugConfig struct {
	DumpPages bool   `mapstructure:"dump_pages"`
	Provider  string `mapstructure:"provider"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for run-completion notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRICEINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 9090)
	v.SetDefault("http.timeout", "12s")
	v.SetDefault("http.max_retries", 1)
	v.SetDefault("http.retry_timeouts", false)
	v.SetDefault("http.max_body_bytes", 2*1024*1024)
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("http.accept_language", "de-DE,de;q=0.9,en;q=0.6")
	v.SetDefault("http.per_host_rps", 1.0)
	v.SetDefault("http.per_host_burst", 2)
	v.SetDefault("crawl.product_limit", 25)
	v.SetDefault("crawl.product_delay", "2s")
	v.SetDefault("crawl.batch_delay", "1s")
	v.SetDefault("crawl.shop_concurrency", pricing.DefaultShopConcurrency)
	v.SetDefault("crawl.skip_after", pricing.DefaultSkipAfter)
	v.SetDefault("crawl.max_shops", 0)
	v.SetDefault("crawl.only_shop", "")
	v.SetDefault("crawl.max_links", pricing.DefaultMaxLinks)
	v.SetDefault("crawl.verify_product_pages", true)
	v.SetDefault("sources.path", "config/shops.yaml")
	v.SetDefault("catalog.provider", "file")
	v.SetDefault("catalog.path", "config/products.json")
	v.SetDefault("report.json_path", "data/price-report.json")
	v.SetDefault("report.csv_path", "data/price-report.csv")
	v.SetDefault("debug.dump_pages", false)
	v.SetDefault("debug.provider", "local")
	v.SetDefault("debug.base_dir", "data/debug-pages")
	v.SetDefault("debug.prefix", "pages")
}

// Validate enforces required values and reasonable limits. Configuration
// errors are the only fatal errors in the system; everything downstream is
// folded into the report.
func (c Config) Validate() error {
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be > 0")
	}
	if c.Crawl.ShopConcurrency <= 0 {
		return fmt.Errorf("crawl.shop_concurrency must be > 0")
	}
	if c.Crawl.SkipAfter <= 0 {
		return fmt.Errorf("crawl.skip_after must be > 0")
	}
	if c.Crawl.MaxLinks <= 0 {
		return fmt.Errorf("crawl.max_links must be > 0")
	}
	if c.Sources.Path == "" {
		return fmt.Errorf("sources.path must be set")
	}
	switch c.Catalog.Provider {
	case "file":
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path must be set for the file provider")
		}
	case "postgres":
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog.dsn must be set for the postgres provider")
		}
	default:
		return fmt.Errorf("unknown catalog provider: %s", c.Catalog.Provider)
	}
	if c.Report.JSONPath == "" && c.Report.CSVPath == "" {
		return fmt.Errorf("at least one of report.json_path or report.csv_path must be set")
	}
	if c.Debug.DumpPages {
		switch c.Debug.Provider {
		case "local":
			if c.Debug.BaseDir == "" {
				return fmt.Errorf("debug.base_dir must be set for the local provider")
			}
		case "gcs":
			if c.Debug.GCSBucket == "" {
				return fmt.Errorf("debug.gcs_bucket must be set for the gcs provider")
			}
		default:
			return fmt.Errorf("unknown debug storage provider: %s", c.Debug.Provider)
		}
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the status server is enabled")
	}
	return nil
}

// RunSettings echoes the effective run parameters for the report.
func (c Config) RunSettings() pricing.RunSettings {
	return pricing.RunSettings{
		ProductLimit:      c.Crawl.ProductLimit,
		RequestTimeout:    c.HTTP.Timeout,
		MaxRetries:        c.HTTP.MaxRetries,
		RetryOnTimeout:    c.HTTP.RetryTimeouts,
		ProductDelay:      c.Crawl.ProductDelay,
		BatchDelay:        c.Crawl.BatchDelay,
		ShopConcurrency:   c.Crawl.ShopConcurrency,
		SkipAfter:         c.Crawl.SkipAfter,
		MaxBodyBytes:      c.HTTP.MaxBodyBytes,
		MaxLinks:          c.Crawl.MaxLinks,
		VerifyProductPage: c.Crawl.VerifyProductPages,
	}
}
