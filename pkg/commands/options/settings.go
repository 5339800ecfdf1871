package options

import (
	"github.com/spf13/cobra"
)

// SettingsOptions
type SettingsOptions struct {
	DayReminder string
	NightStart  string
	NightEnd    string
	Interval    string
	Enable      bool
	Disable     bool
}

func AddSettingsArgs(cmd *cobra.Command, so *SettingsOptions) {
	cmd.Flags().StringVar(&so.DayReminder, "day-reminder", "",
		`Morning commitment reminder time, example: --day-reminder="09:00".`)
	cmd.Flags().StringVar(&so.NightStart, "night-start", "",
		`Night window start, example: --night-start="22:30".`)
	cmd.Flags().StringVar(&so.NightEnd, "night-end", "",
		`Night window end. May be past midnight, example: --night-end="00:30".`)
	cmd.Flags().StringVar(&so.Interval, "interval", "",
		`Night reminder interval, example: --interval="30m" or --interval="1h30m".`)
	cmd.Flags().BoolVar(&so.Enable, "enable", false,
		"Turn reminders on.")
	cmd.Flags().BoolVar(&so.Disable, "disable", false,
		"Turn reminders off.")
}
