package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// KnownNewsTiers lists the news providers that may appear in news.tiers.
var KnownNewsTiers = []string{"serpapi", "bing", "gdelt", "gnews"}

// Validate checks the settings a command needs. mode is one of "build",
// "serve" or "" for the common checks only.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "file":
		if c.Store.Dir == "" {
			errs = append(errs, "store.dir is required for the file driver")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, "store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of file, sqlite, postgres", c.Store.Driver))
	}

	switch c.Cache.Backend {
	case "file", "sqlite", "redis":
	default:
		errs = append(errs, fmt.Sprintf("cache.backend %q is not one of file, sqlite, redis", c.Cache.Backend))
	}
	if c.Cache.TTLHours <= 0 {
		errs = append(errs, "cache.ttl_hours must be positive")
	}

	switch c.Fetch.ArchiveBackend {
	case "file":
	case "s3":
		if c.Fetch.S3Bucket == "" {
			errs = append(errs, "fetch.s3_bucket is required for the s3 archive")
		}
	default:
		errs = append(errs, fmt.Sprintf("fetch.archive_backend %q is not one of file, s3", c.Fetch.ArchiveBackend))
	}

	for _, tier := range c.News.Tiers {
		if !slices.Contains(KnownNewsTiers, tier) {
			errs = append(errs, fmt.Sprintf("news.tiers: unknown provider %q", tier))
		}
	}
	if c.News.MaxResults <= 0 {
		errs = append(errs, "news.max_results must be positive")
	}

	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
