package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/model"
)

var (
	filingsTicker string
	filingsCIK    string
	filingsFormat string
)

var filingsCmd = &cobra.Command{
	Use:   "filings",
	Short: "List recent SEC filings for a ticker or CIK",
	RunE: func(cmd *cobra.Command, args []string) error {
		if filingsTicker == "" && filingsCIK == "" {
			return eris.New("one of --ticker or --cik is required")
		}
		ctx := cmd.Context()
		env, err := initPipeline(ctx, envOptions{noCache: true})
		if err != nil {
			return err
		}
		defer env.Close()

		name := filingsTicker
		if name == "" {
			name = filingsCIK
		}
		fin, err := env.Financial.Collect(ctx, model.Identity{ResolvedName: name, Ticker: filingsTicker, CIK: filingsCIK})
		if err != nil {
			cmd.PrintErrln("warning:", err)
		}
		return writeOutput(cmd.OutOrStdout(), filingsFormat, fin)
	},
}

func init() {
	filingsCmd.Flags().StringVar(&filingsTicker, "ticker", "", "stock ticker")
	filingsCmd.Flags().StringVar(&filingsCIK, "cik", "", "SEC central index key")
	filingsCmd.Flags().StringVar(&filingsFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(filingsCmd)
}
