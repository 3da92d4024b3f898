package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show collector state",
		Long: "Show a snapshot of the collector: pause and stop flags, queue\n" +
			"depth, worker states, stored totals, and budget consumption.",
		Example: `  cwc state`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			state, err := c.SystemState(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(state)
			}

			return printStateDetail(state)
		},
	}
}
