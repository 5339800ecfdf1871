package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/lumen/pkg/commands/options"
	syncrun "tableflip.dev/lumen/pkg/runner/sync"
)

func addSync(topLevel *cobra.Command) {
	so := &options.SyncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push queued writes to the remote store now",
		Example: `
lumen sync
lumen sync --show
`,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, _, err := loadService()
			if err != nil {
				return err
			}
			s := syncrun.Sync{
				Service: svc,
				Show:    so.Show,
			}
			err = s.Do(context.Background())
			return output.HandleError(err)
		},
	}

	options.AddSyncArgs(cmd, so)

	topLevel.AddCommand(cmd)
}
