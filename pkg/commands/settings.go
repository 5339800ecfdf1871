package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/lumen/pkg/commands/options"
	"tableflip.dev/lumen/pkg/runner/settings"
	"tableflip.dev/lumen/pkg/timeutil"
)

func addSettings(topLevel *cobra.Command) {
	so := &options.SettingsOptions{}

	cmd := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"config"},
		Short:   "Show or change reminder settings",
		Example: `
lumen settings
lumen settings --night-start 22:00 --night-end 00:30
lumen settings --interval 45m
lumen settings --disable
`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if so.Enable && so.Disable {
				return errors.New("--enable and --disable are mutually exclusive")
			}

			change := settings.Change{}
			if so.DayReminder != "" {
				change.DayReminder = &so.DayReminder
			}
			if so.NightStart != "" {
				change.NightStart = &so.NightStart
			}
			if so.NightEnd != "" {
				change.NightEnd = &so.NightEnd
			}
			if so.Interval != "" {
				minutes, err := timeutil.ParseInterval(so.Interval)
				if err != nil {
					return err
				}
				change.IntervalMinutes = &minutes
			}
			if so.Enable || so.Disable {
				on := so.Enable
				change.Enabled = &on
			}

			svc, _, err := loadService()
			if err != nil {
				return err
			}
			s := settings.Settings{
				Service: svc,
				Change:  change,
			}
			err = s.Do(context.Background())
			return output.HandleError(err)
		},
	}

	options.AddSettingsArgs(cmd, so)

	topLevel.AddCommand(cmd)
}
