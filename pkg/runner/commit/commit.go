package commit

import (
	"context"
	"errors"

	"tableflip.dev/lumen/pkg/app"
	"tableflip.dev/lumen/pkg/printers"
)

type Commit struct {
	Service *app.Service
}

func (c *Commit) Do(ctx context.Context) error {
	if c.Service == nil {
		return errors.New("can not commit, no service")
	}

	rec, err := c.Service.Commit(ctx)
	if err != nil {
		if errors.Is(err, app.ErrAlreadyConcluded) {
			return errors.New("today is already concluded")
		}
		return err
	}

	pp := printers.PrettyPrint{}
	pp.NewLine()
	pp.Today(rec)

	tl, err := c.Service.Timeline(ctx)
	if err != nil {
		return err
	}
	pp.Phase(tl)
	return nil
}
