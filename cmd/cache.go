package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/evidence-cli/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the news result cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove cache entries older than the TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		n, err := c.Purge(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries older than %s\n", n, c.TTL())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
