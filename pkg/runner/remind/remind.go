package remind

import (
	"context"
	"errors"

	"tableflip.dev/lumen/pkg/printers"
	"tableflip.dev/lumen/pkg/store"
)

type Remind struct {
	Persistence store.Persistence
}

func (r *Remind) Do(ctx context.Context) error {
	if r.Persistence == nil {
		return errors.New("can not list reminders, no persistence")
	}

	pp := printers.PrettyPrint{}
	pp.NewLine()
	pp.Reminders(r.Persistence.ScheduledRequests(ctx))
	return nil
}
