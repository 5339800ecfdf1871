package options

import (
	"github.com/spf13/cobra"
)

// SyncOptions
type SyncOptions struct {
	Show bool
}

func AddSyncArgs(cmd *cobra.Command, so *SyncOptions) {
	cmd.Flags().BoolVar(&so.Show, "show", false,
		"Report queue state without uploading.")
}
