package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/news"
)

var (
	newsMax     int
	newsNoCache bool
	newsFormat  string
)

var newsCmd = &cobra.Command{
	Use:   "news <company>",
	Short: "Fetch recent news for a company through the tiered providers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		company := strings.Join(args, " ")

		env, err := initPipeline(ctx, envOptions{noCache: newsNoCache})
		if err != nil {
			return err
		}
		defer env.Close()

		limit := newsMax
		if limit <= 0 {
			limit = cfg.News.MaxResults
		}
		var opts []news.FetchOption
		if newsNoCache {
			opts = append(opts, news.WithoutCache())
		}
		res, err := env.Aggregator.Fetch(ctx, company, limit, opts...)
		if err != nil {
			return err
		}

		errOut := cmd.ErrOrStderr()
		if res.FromCache {
			fmt.Fprintln(errOut, "served from cache")
		}
		for _, t := range res.Tiers {
			status := fmt.Sprintf("%d of %d", t.Returned, t.Quota)
			switch {
			case t.Skipped:
				status = "skipped"
			case t.Err != nil:
				status = "failed: " + t.Err.Error()
			}
			fmt.Fprintf(errOut, "%-8s %s\n", t.Provider, status)
		}
		return writeOutput(cmd.OutOrStdout(), newsFormat, res.Items)
	},
}

func init() {
	newsCmd.Flags().IntVar(&newsMax, "max", 0, "maximum articles (default from config)")
	newsCmd.Flags().BoolVar(&newsNoCache, "no-cache", false, "bypass the news cache")
	newsCmd.Flags().StringVar(&newsFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(newsCmd)
}
