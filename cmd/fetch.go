package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/extract"
	"github.com/sells-group/evidence-cli/internal/fetcher"
)

var (
	fetchNoArchive bool
	fetchFormat    string
)

// fetchOutput is what the fetch command prints.
type fetchOutput struct {
	URL       string `json:"url" yaml:"url"`
	Location  string `json:"location,omitempty" yaml:"location,omitempty"`
	FromCache bool   `json:"from_cache" yaml:"from_cache"`
	Attempts  int    `json:"attempts" yaml:"attempts"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	Metadata  any    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a page through the archive and extract its metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initPipeline(ctx, envOptions{noCache: true})
		if err != nil {
			return err
		}
		defer env.Close()

		pc := cfg.Pipeline()
		res := env.Content.Fetch(ctx, args[0], fetcher.FetchOptions{
			UseCache:   !fetchNoArchive,
			MaxRetries: pc.FetchRetries,
			Backoff:    pc.FetchBackoff,
		})
		out := fetchOutput{URL: res.URL, Location: res.Location, FromCache: res.FromCache, Attempts: res.Attempts}
		if res.OK() {
			out.Metadata = extract.Metadata(res.Content, res.URL)
		} else {
			out.Error = res.Err.Error()
		}
		return writeOutput(cmd.OutOrStdout(), fetchFormat, out)
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchNoArchive, "no-archive", false, "skip the archived copy and fetch from the network")
	fetchCmd.Flags().StringVar(&fetchFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(fetchCmd)
}
