package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/config"
)

var cfg *config.Config

// Persistent overrides applied on top of config.yaml and EVIDENCE_* values.
var (
	flagLogLevel     string
	flagStoreDriver  string
	flagCacheBackend string
	flagNewsTiers    []string
)

var rootCmd = &cobra.Command{
	Use:          "evidence-cli",
	Short:        "Company evidence profiles from trials, filings and news",
	Long:         "Builds per-company evidence profiles from ClinicalTrials.gov studies, SEC EDGAR filings and tiered news search, with an archive of fetched pages and a news result cache.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		applyOverrides(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.L().Debug("config loaded",
			zap.String("command", cmd.CommandPath()),
			zap.String("store_driver", cfg.Store.Driver),
			zap.String("cache_backend", cfg.Cache.Backend),
			zap.Strings("news_tiers", cfg.News.Tiers),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flagStoreDriver, "store", "", "profile store driver (file, sqlite, postgres)")
	pf.StringVar(&flagCacheBackend, "cache-backend", "", "news cache backend (file, sqlite, redis)")
	pf.StringSliceVar(&flagNewsTiers, "tiers", nil, "news providers in fallback order")
}

// applyOverrides copies explicitly set persistent flags into c.
func applyOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level = flagLogLevel
	}
	if flags.Changed("store") {
		c.Store.Driver = flagStoreDriver
	}
	if flags.Changed("cache-backend") {
		c.Cache.Backend = flagCacheBackend
	}
	if flags.Changed("tiers") {
		c.News.Tiers = flagNewsTiers
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
