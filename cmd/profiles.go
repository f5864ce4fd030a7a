package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/store"
)

var (
	profilesName   string
	profilesRunID  string
	profilesLimit  int
	profilesFormat string
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect saved profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ps, err := st.ListProfiles(ctx, store.ProfileFilter{Name: profilesName, RunID: profilesRunID, Limit: profilesLimit})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCOMPANY\tRUN\tTRIALS\tFILINGS\tNEWS\tCREATED")
		for _, p := range ps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				p.ID, p.Canonical.Name(), p.RunID,
				p.Pipeline.Total(), len(p.Financial.Filings), len(p.News),
				p.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p, err := st.GetProfile(ctx, args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), profilesFormat, p)
	},
}

func init() {
	profilesListCmd.Flags().StringVar(&profilesName, "name", "", "filter by company name substring")
	profilesListCmd.Flags().StringVar(&profilesRunID, "run", "", "filter by run id")
	profilesListCmd.Flags().IntVar(&profilesLimit, "limit", 20, "maximum profiles")
	profilesShowCmd.Flags().StringVar(&profilesFormat, "format", "json", "output format: json or yaml")

	profilesCmd.AddCommand(profilesListCmd, profilesShowCmd)
	rootCmd.AddCommand(profilesCmd)
}
