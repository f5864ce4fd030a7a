package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/identity"
	"github.com/sells-group/evidence-cli/internal/profile"
	"github.com/sells-group/evidence-cli/internal/store"
)

var (
	buildCSV       string
	buildLimit     int
	buildOutputDir string
	buildNoCache   bool
	buildWorkers   int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build evidence profiles for every company in a canonical CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if buildOutputDir != "" {
			cfg.Store.Driver = store.DriverFile
			cfg.Store.Dir = buildOutputDir
		}

		ids, err := identity.LoadCSV(ctx, buildCSV)
		if err != nil {
			return err
		}
		if buildLimit > 0 && buildLimit < len(ids) {
			ids = ids[:buildLimit]
		}
		if len(ids) == 0 {
			return eris.Errorf("no companies in %s", buildCSV)
		}

		env, err := initPipeline(ctx, envOptions{mode: "build", withStore: true, noCache: buildNoCache})
		if err != nil {
			return err
		}
		defer env.Close()

		workers := buildWorkers
		if workers <= 0 {
			workers = cfg.Batch.MaxConcurrentCompanies
		}
		res, err := profile.NewBatch(env.Builder, env.Store, workers).Run(ctx, ids)
		if res != nil {
			out := cmd.OutOrStdout()
			for _, r := range res.Reports {
				fmt.Fprintf(out, "%s  %s\n", r.ProfileID, r.Summary())
			}
			fmt.Fprintf(out, "run %s: %d saved, %d failed, %d degraded\n",
				res.RunID, res.Succeeded, res.Failed, res.Degraded)
		}
		if err != nil {
			return eris.Wrap(err, "build batch")
		}
		if res.Failed > 0 {
			zap.L().Warn("some profiles were not saved", zap.Int("failed", res.Failed))
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildCSV, "csv", "canonical_companies.csv", "canonical companies CSV")
	buildCmd.Flags().IntVar(&buildLimit, "limit", 0, "process at most N companies (0 = all)")
	buildCmd.Flags().StringVar(&buildOutputDir, "output-dir", "", "write profile JSON files here (forces the file store)")
	buildCmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "bypass the news cache")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "companies processed concurrently (default from config)")
	rootCmd.AddCommand(buildCmd)
}
