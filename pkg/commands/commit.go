package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/lumen/pkg/runner/commit"
)

func addCommit(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit to going to bed on time tonight",
		Example: `
lumen commit
`,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, _, err := loadService()
			if err != nil {
				return err
			}
			s := commit.Commit{
				Service: svc,
			}
			err = s.Do(context.Background())
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}
