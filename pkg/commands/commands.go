package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/lumen/pkg/app"
	"tableflip.dev/lumen/pkg/remote"
	"tableflip.dev/lumen/pkg/store"
	"tableflip.dev/lumen/pkg/syncer"
)

var (
	output = &base.OutputOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "lumen",
		Short: base.Wrap80("Track the nightly lights-out habit from the command line."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addStatus(topLevel)
	addCommit(topLevel)
	addConfirm(topLevel)
	addReject(topLevel)
	addSettings(topLevel)
	addSync(topLevel)
	addRemind(topLevel)
	addVersion(topLevel)
}

// loadService builds the application service from the local store and the
// configured remote.
func loadService() (*app.Service, store.Persistence, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	p, err := store.Load(cfg)
	if err != nil {
		return nil, nil, err
	}
	var rem syncer.Remote
	if c := remote.New(cfg.RemoteURL()); c != nil {
		rem = c
	}
	return app.New(p, rem, cfg.Timezone()), p, nil
}
