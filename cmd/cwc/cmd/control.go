package cmd

import (
	"context"

	"github.com/spf13/cobra"

	apiclient "github.com/catalogwatch/collector/internal/api/client"
)

func controlCmd() *cobra.Command {
	controlRoot := &cobra.Command{
		Use:   "control",
		Short: "Pause, resume, or stop collection",
		Long: "Control the running collector. Pause and resume toggle the manual\n" +
			"pause flag; stop halts collection permanently until the process is\n" +
			"restarted. The read API stays up in every case.",
	}

	controlRoot.AddCommand(
		controlActionCmd("pause", "Pause collection",
			func(ctx context.Context, c *apiclient.Client) (*apiclient.ControlResponse, error) {
				return c.Pause(ctx)
			}),
		controlActionCmd("resume", "Resume collection",
			func(ctx context.Context, c *apiclient.Client) (*apiclient.ControlResponse, error) {
				return c.Resume(ctx)
			}),
		controlActionCmd("stop", "Stop collection permanently",
			func(ctx context.Context, c *apiclient.Client) (*apiclient.ControlResponse, error) {
				return c.Stop(ctx)
			}),
		controlActionCmd("discover", "Trigger a discovery walk now",
			func(ctx context.Context, c *apiclient.Client) (*apiclient.ControlResponse, error) {
				return c.TriggerDiscovery(ctx)
			}),
	)

	return controlRoot
}

func controlActionCmd(
	use, short string,
	action func(context.Context, *apiclient.Client) (*apiclient.ControlResponse, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := action(context.Background(), newClient())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			return printControlResponse(resp)
		},
	}
}
