package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/lumen/pkg/runner/confirm"
)

func addConfirm(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "confirm",
		Aliases: []string{"done", "yes"},
		Short:   "Confirm the lights went out on time",
		Example: `
lumen confirm
`,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, _, err := loadService()
			if err != nil {
				return err
			}
			s := confirm.Confirm{
				Service: svc,
			}
			err = s.Do(context.Background())
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addReject(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "reject",
		Aliases: []string{"no", "miss"},
		Short:   "Record that tonight did not work out",
		Example: `
lumen reject
`,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, _, err := loadService()
			if err != nil {
				return err
			}
			s := confirm.Confirm{
				Service: svc,
				Reject:  true,
			}
			err = s.Do(context.Background())
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}
