package cmd

import (
	"fmt"
	"time"

	"stockwatch/pkg/report"

	"github.com/spf13/cobra"
)

var (
	reportUsername string
	reportList     bool

	pruneOlderThan time.Duration
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize users and their watchlists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := report.Build(cmd.Context(), st, reportUsername)
		if err != nil {
			return err
		}
		report.Write(cmd.OutOrStdout(), rows, reportList)
		return nil
	},
}

var pruneTokensCmd = &cobra.Command{
	Use:   "prune-tokens",
	Short: "Delete refresh-token records that expired",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff := time.Now().Add(-pruneOlderThan)
		n, err := st.PruneRefreshTokens(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d refresh token records expired before %s\n", n, cutoff.UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportUsername, "username", "", "report a single user (default all users)")
	reportCmd.Flags().BoolVar(&reportList, "list", false, "list every watchlist with its tickers")

	pruneTokensCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "only delete records expired at least this long ago")
}
