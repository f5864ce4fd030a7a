package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/identity"
	"github.com/sells-group/evidence-cli/internal/model"
)

var trialsFormat string

var trialsCmd = &cobra.Command{
	Use:   "trials <name> [variant...]",
	Short: "Search ClinicalTrials.gov for a company and its name variants",
	Long:  "Searches each name given. With a single name, corporate suffix variants are added automatically.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initPipeline(ctx, envOptions{noCache: true})
		if err != nil {
			return err
		}
		defer env.Close()

		variants := args
		if len(args) == 1 {
			variants = identity.GenerateNameVariants(args[0])
		}
		id := model.Identity{InputName: args[0], ResolvedName: args[0], NameVariants: variants}

		p, err := env.Trials.Collect(ctx, id)
		if err != nil {
			cmd.PrintErrln("warning:", err)
		}
		return writeOutput(cmd.OutOrStdout(), trialsFormat, p)
	},
}

func init() {
	trialsCmd.Flags().StringVar(&trialsFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(trialsCmd)
}
