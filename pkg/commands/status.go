package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/lumen/pkg/commands/options"
	"tableflip.dev/lumen/pkg/runner/status"
)

func addStatus(topLevel *cobra.Command) {
	so := &options.StatusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show today's phase, the record, and sync state",
		Example: `
lumen status
lumen status --watch
lumen status --history 14
`,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, p, err := loadService()
			if err != nil {
				return err
			}
			s := status.Status{
				Service:     svc,
				Persistence: p,
				History:     so.History,
				Watch:       so.Watch,
			}
			err = s.Do(context.Background())
			return output.HandleError(err)
		},
	}

	options.AddStatusArgs(cmd, so)

	topLevel.AddCommand(cmd)
}
