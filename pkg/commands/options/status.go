package options

import (
	"github.com/spf13/cobra"
)

// StatusOptions
type StatusOptions struct {
	History int
	Watch   bool
}

func AddStatusArgs(cmd *cobra.Command, so *StatusOptions) {
	cmd.Flags().IntVar(&so.History, "history", 7,
		"Days of recent history to show. 0 hides history.")
	cmd.Flags().BoolVarP(&so.Watch, "watch", "w", false,
		"Keep the status open and reprint when the store changes.")
}
