package status

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tableflip.dev/lumen/pkg/app"
	"tableflip.dev/lumen/pkg/printers"
	"tableflip.dev/lumen/pkg/store"
)

type Status struct {
	Service     *app.Service
	Persistence store.Persistence

	History int
	// Watch keeps the view open and reprints on store changes.
	Watch bool
}

func (s *Status) Do(ctx context.Context) error {
	if s.Service == nil {
		return errors.New("can not show status, no service")
	}

	pp := printers.PrettyPrint{ShowHistory: s.History > 0}

	if err := s.print(ctx, &pp); err != nil {
		return err
	}
	if !s.Watch || s.Persistence == nil {
		return nil
	}

	// The watch keeps the process alive, so it also owns the day-rollover
	// timer for as long as it runs.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := s.Service.StartDayBoundaryTimer(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "status: day boundary timer: %v\n", err)
	}

	events, err := s.Persistence.Watch(ctx)
	if err != nil {
		return err
	}
	for range events {
		pp.NewLine()
		if err := s.print(ctx, &pp); err != nil {
			return err
		}
	}
	return nil
}

func (s *Status) print(ctx context.Context, pp *printers.PrettyPrint) error {
	st, err := s.Service.Status(ctx, s.History)
	if err != nil {
		return err
	}
	pp.Status(st)
	return nil
}
