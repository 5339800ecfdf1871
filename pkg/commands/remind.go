package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/lumen/pkg/runner/remind"
)

func addRemind(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "reminders",
		Aliases: []string{"remind"},
		Short:   "List the scheduled reminder instants",
		Example: `
lumen reminders
`,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, p, err := loadService()
			if err != nil {
				return err
			}
			s := remind.Remind{
				Persistence: p,
			}
			err = s.Do(context.Background())
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}
