package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mayaoy/fun-news-crawler/pkg/publishers"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Config is the full runtime configuration.
type Config struct {
	Site       SiteConfig       `mapstructure:"site"`
	Crawl      CrawlConfig      `mapstructure:"crawl"`
	Parser     ParserConfig     `mapstructure:"parser"`
	Store      StoreConfig      `mapstructure:"store"`
	Log        LogConfig        `mapstructure:"log"`
	Publishers PublishersConfig `mapstructure:"publishers"`
}

// SiteConfig describes the crawled site and its article link heuristic.
type SiteConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	UserAgent          string `mapstructure:"user_agent"`
	ArticlePathSegment string `mapstructure:"article_path_segment"`
	MinSlashes         int    `mapstructure:"min_slashes"`
}

// CrawlConfig controls scheduling and pacing.
type CrawlConfig struct {
	IntervalMinutes int           `mapstructure:"interval_minutes"`
	MinDelay        time.Duration `mapstructure:"min_delay"`
	MaxDelay        time.Duration `mapstructure:"max_delay"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// Interval returns the scheduler period.
func (c CrawlConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// ParserConfig holds the article parser defaults.
type ParserConfig struct {
	DefaultCategory     string `mapstructure:"default_category"`
	ReadabilityFallback bool   `mapstructure:"readability_fallback"`
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig selects log level and encoding.
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// PublishersConfig lists the sinks that receive article.saved events. Sinks may be
// declared inline, in a separate sinks file, or both.
type PublishersConfig struct {
	File  string            `mapstructure:"file"`
	Sinks []publishers.Sink `mapstructure:"sinks"`
}

// Load reads .env, the optional config file at path (or ./config.yaml when path is empty)
// and the environment, then sanitizes and validates the result.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("crawl.interval_minutes", "CRAWL_INTERVAL"); err != nil {
		return nil, fmt.Errorf("bind CRAWL_INTERVAL: %w", err)
	}

	path = strings.TrimSpace(path)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg = sanitize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://www.bbc.com")
	v.SetDefault("site.user_agent", defaultUserAgent)
	v.SetDefault("site.article_path_segment", "/news/")
	v.SetDefault("site.min_slashes", 3)

	v.SetDefault("crawl.interval_minutes", 10)
	v.SetDefault("crawl.min_delay", time.Second)
	v.SetDefault("crawl.max_delay", 3*time.Second)
	v.SetDefault("crawl.request_timeout", time.Duration(0))

	v.SetDefault("parser.default_category", "World")
	v.SetDefault("parser.readability_fallback", false)

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.path", "data/news.db")
	v.SetDefault("store.dsn", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")

	v.SetDefault("publishers.file", "")
}

// sanitize trims and normalizes the config fields.
func sanitize(cfg Config) Config {
	cfg.Site.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Site.BaseURL), "/")
	cfg.Site.UserAgent = strings.TrimSpace(cfg.Site.UserAgent)
	cfg.Site.ArticlePathSegment = strings.TrimSpace(cfg.Site.ArticlePathSegment)

	cfg.Parser.DefaultCategory = strings.TrimSpace(cfg.Parser.DefaultCategory)

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	cfg.Store.Path = strings.TrimSpace(cfg.Store.Path)
	cfg.Store.DSN = strings.TrimSpace(cfg.Store.DSN)

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Encoding = strings.ToLower(strings.TrimSpace(cfg.Log.Encoding))

	cfg.Publishers.File = strings.TrimSpace(cfg.Publishers.File)
	return cfg
}

// Validate checks that required fields are present and consistent.
func Validate(cfg Config) error {
	if cfg.Site.BaseURL == "" {
		return errors.New("site.base_url is required")
	}
	if !strings.HasPrefix(cfg.Site.BaseURL, "http://") && !strings.HasPrefix(cfg.Site.BaseURL, "https://") {
		return fmt.Errorf("site.base_url %q must be an absolute http(s) URL", cfg.Site.BaseURL)
	}
	if cfg.Site.ArticlePathSegment == "" {
		return errors.New("site.article_path_segment is required")
	}
	if cfg.Site.MinSlashes < 0 {
		return fmt.Errorf("site.min_slashes must not be negative, got %d", cfg.Site.MinSlashes)
	}
	if cfg.Crawl.IntervalMinutes <= 0 {
		return fmt.Errorf("crawl.interval_minutes must be positive, got %d", cfg.Crawl.IntervalMinutes)
	}
	if cfg.Crawl.MinDelay < 0 || cfg.Crawl.MaxDelay < 0 {
		return errors.New("crawl delays must not be negative")
	}
	if cfg.Crawl.MinDelay > cfg.Crawl.MaxDelay {
		return fmt.Errorf("crawl.min_delay %s exceeds crawl.max_delay %s", cfg.Crawl.MinDelay, cfg.Crawl.MaxDelay)
	}
	if cfg.Crawl.RequestTimeout < 0 {
		return errors.New("crawl.request_timeout must not be negative")
	}
	if cfg.Parser.DefaultCategory == "" {
		return errors.New("parser.default_category is required")
	}
	if _, err := publishers.Prepare(cfg.Publishers.Sinks); err != nil {
		return fmt.Errorf("publishers.sinks: %w", err)
	}

	switch cfg.Store.Driver {
	case DriverSQLite, DriverBolt:
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required for driver %q", cfg.Store.Driver)
		}
	case DriverPostgres:
		if cfg.Store.DSN == "" {
			return errors.New("store.dsn is required for driver \"postgres\"")
		}
	default:
		return fmt.Errorf("store.driver %q not supported", cfg.Store.Driver)
	}
	return nil
}
