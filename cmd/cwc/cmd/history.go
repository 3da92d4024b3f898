package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "history <collection> <name>",
		Short: "Show an item's stored price history",
		Long: "Show the stored price history for a tracked item, oldest\n" +
			"observation first.",
		Example: `  # Full stored history
  cwc history 730 "AK-47 | Redline (Field-Tested)"

  # Only observations after a point in time
  cwc history 730 "AK-47 | Redline (Field-Tested)" --since 2026-08-01T00:00:00Z`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			var sinceTime time.Time
			if since != "" {
				var err error
				sinceTime, err = time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("parsing --since: %w", err)
				}
			}

			c := newClient()
			resp, err := c.GetHistory(context.Background(), args[0], args[1], sinceTime)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Observations) == 0 {
				fmt.Println("No observations stored.")
				return nil
			}

			fmt.Printf("%s: %d observations\n\n",
				resp.Item.Key(), len(resp.Observations))
			return printHistoryTable(resp.Observations)
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only observations at or after this RFC 3339 time")

	return cmd
}
