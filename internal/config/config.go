// Package config loads evidence-cli settings from config.yaml, .env and the
// environment.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	News       NewsConfig       `yaml:"news" mapstructure:"news"`
	Trials     TrialsConfig     `yaml:"trials" mapstructure:"trials"`
	EDGAR      EDGARConfig      `yaml:"edgar" mapstructure:"edgar"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetchConfig configures raw content retrieval and the raw archive.
type FetchConfig struct {
	ArchiveDir     string  `yaml:"archive_dir" mapstructure:"archive_dir"`
	ArchiveBackend string  `yaml:"archive_backend" mapstructure:"archive_backend"`
	S3Bucket       string  `yaml:"s3_bucket" mapstructure:"s3_bucket"`
	S3Prefix       string  `yaml:"s3_prefix" mapstructure:"s3_prefix"`
	S3Region       string  `yaml:"s3_region" mapstructure:"s3_region"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffSecs    float64 `yaml:"backoff_secs" mapstructure:"backoff_secs"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// CacheConfig configures the news result cache.
type CacheConfig struct {
	Backend       string `yaml:"backend" mapstructure:"backend"`
	Dir           string `yaml:"dir" mapstructure:"dir"`
	TTLHours      int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	SQLitePath    string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
}

// NewsConfig configures the news provider chain.
type NewsConfig struct {
	SerpAPIKey     string   `yaml:"serpapi_key" mapstructure:"serpapi_key"`
	BingKey        string   `yaml:"bing_key" mapstructure:"bing_key"`
	SerpAPIBaseURL string   `yaml:"serpapi_base_url" mapstructure:"serpapi_base_url"`
	BingBaseURL    string   `yaml:"bing_base_url" mapstructure:"bing_base_url"`
	GDELTBaseURL   string   `yaml:"gdelt_base_url" mapstructure:"gdelt_base_url"`
	GNewsBaseURL   string   `yaml:"gnews_base_url" mapstructure:"gnews_base_url"`
	Tiers          []string `yaml:"tiers" mapstructure:"tiers"`
	MaxResults     int      `yaml:"max_results" mapstructure:"max_results"`
	MaxFallback    int      `yaml:"max_fallback" mapstructure:"max_fallback"`
	SerpAPISleepMs int      `yaml:"serpapi_sleep_ms" mapstructure:"serpapi_sleep_ms"`
}

// TrialsConfig configures the clinical trial registry client.
type TrialsConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	PageSize int    `yaml:"page_size" mapstructure:"page_size"`
}

// EDGARConfig configures the SEC filing registry client.
type EDGARConfig struct {
	UserAgent   string   `yaml:"user_agent" mapstructure:"user_agent"`
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	DataBaseURL string   `yaml:"data_base_url" mapstructure:"data_base_url"`
	Forms       []string `yaml:"forms" mapstructure:"forms"`
	Count       int      `yaml:"count" mapstructure:"count"`
}

// StoreConfig configures profile persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Dir         string `yaml:"dir" mapstructure:"dir"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentCompanies int `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// ResilienceConfig configures per-provider circuit breakers.
type ResilienceConfig struct {
	CircuitFailureThreshold int `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
	CircuitResetSecs        int `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// PipelineConfig is the resolved runtime view handed to constructors at
// startup. Nothing in the pipeline reads directories, TTLs or keys from
// package state.
type PipelineConfig struct {
	ArchiveDir     string
	CacheDir       string
	CacheTTL       time.Duration
	FetchRetries   int
	FetchBackoff   time.Duration
	FetchTimeout   time.Duration
	UserAgent      string
	SerpAPIKey     string
	BingKey        string
	NewsTiers      []string
	NewsMaxResults int
	MaxFallback    int
	SerpAPISleep   time.Duration
	TrialPageSize  int
	FilingForms    []string
	FilingCount    int
}

// Pipeline derives the runtime pipeline settings.
func (c *Config) Pipeline() PipelineConfig {
	return PipelineConfig{
		ArchiveDir:     c.Fetch.ArchiveDir,
		CacheDir:       c.Cache.Dir,
		CacheTTL:       HoursToDuration(c.Cache.TTLHours),
		FetchRetries:   c.Fetch.MaxRetries,
		FetchBackoff:   time.Duration(c.Fetch.BackoffSecs * float64(time.Second)),
		FetchTimeout:   time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		UserAgent:      c.Fetch.UserAgent,
		SerpAPIKey:     c.News.SerpAPIKey,
		BingKey:        c.News.BingKey,
		NewsTiers:      c.News.Tiers,
		NewsMaxResults: c.News.MaxResults,
		MaxFallback:    c.News.MaxFallback,
		SerpAPISleep:   time.Duration(c.News.SerpAPISleepMs) * time.Millisecond,
		TrialPageSize:  c.Trials.PageSize,
		FilingForms:    c.EDGAR.Forms,
		FilingCount:    c.EDGAR.Count,
	}
}

// HoursToDuration converts a whole number of hours.
func HoursToDuration(h int) time.Duration {
	return time.Duration(h) * time.Hour
}

// Load reads configuration from .env, config.yaml and EVIDENCE_* variables.
func Load() (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("EVIDENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys are also accepted under their conventional names.
	if err := v.BindEnv("news.serpapi_key", "EVIDENCE_NEWS_SERPAPI_KEY", "SERPAPI_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind serpapi key")
	}
	if err := v.BindEnv("news.bing_key", "EVIDENCE_NEWS_BING_KEY", "BING_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind bing key")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.archive_dir", "./archive")
	v.SetDefault("fetch.archive_backend", "file")
	v.SetDefault("fetch.s3_region", "us-east-1")
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_secs", 2)
	v.SetDefault("fetch.timeout_secs", 20)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0 Safari/537.36")
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "./news_cache")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cache.sqlite_path", "./news_cache.db")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("news.serpapi_base_url", "https://serpapi.com")
	v.SetDefault("news.bing_base_url", "https://api.bing.microsoft.com")
	v.SetDefault("news.gdelt_base_url", "https://api.gdeltproject.org")
	v.SetDefault("news.gnews_base_url", "https://news.google.com")
	v.SetDefault("news.tiers", []string{"serpapi", "bing", "gdelt"})
	v.SetDefault("news.max_results", 8)
	v.SetDefault("news.max_fallback", 3)
	v.SetDefault("news.serpapi_sleep_ms", 1000)
	v.SetDefault("trials.base_url", "https://clinicaltrials.gov/api/v2")
	v.SetDefault("trials.page_size", 5)
	v.SetDefault("edgar.user_agent", "evidence-cli/0.1 contact@example.com")
	v.SetDefault("edgar.base_url", "https://www.sec.gov")
	v.SetDefault("edgar.data_base_url", "https://data.sec.gov")
	v.SetDefault("edgar.forms", []string{"10-K", "10-Q"})
	v.SetDefault("edgar.count", 2)
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.dir", "profiles")
	v.SetDefault("store.sqlite_path", "./profiles.db")
	v.SetDefault("batch.max_concurrent_companies", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("resilience.circuit_failure_threshold", 5)
	v.SetDefault("resilience.circuit_reset_secs", 60)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
