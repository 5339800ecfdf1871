package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"

	"tableflip.dev/lumen/pkg/app"
	"tableflip.dev/lumen/pkg/printers"
)

type Sync struct {
	Service *app.Service
	// Show only reports the queue state without replaying.
	Show bool
}

func (s *Sync) Do(ctx context.Context) error {
	if s.Service == nil {
		return errors.New("can not sync, no service")
	}

	pp := printers.PrettyPrint{}

	if s.Show {
		st, err := s.Service.SyncStatus(ctx)
		if err != nil {
			return err
		}
		pp.NewLine()
		pp.Sync(st)
		return nil
	}

	snap, err := s.Service.HandleTrigger(ctx, app.TriggerManual)
	if err != nil {
		return err
	}

	pp.NewLine()
	if len(snap.Pending) == 0 {
		f := color.New(color.Faint)
		_, _ = f.Println("everything is synced")
		return nil
	}

	y := color.New(color.FgHiYellow)
	_, _ = y.Printf("%d items still pending\n", len(snap.Pending))
	if snap.NextRetryAt != nil {
		f := color.New(color.Faint)
		_, _ = f.Println(fmt.Sprintf("next retry at %s", snap.NextRetryAt.Format("15:04:05")))
	}
	return nil
}
