package confirm

import (
	"context"
	"errors"

	"tableflip.dev/lumen/pkg/app"
	"tableflip.dev/lumen/pkg/printers"
)

type Confirm struct {
	Service *app.Service
	// Reject declines tonight's confirmation instead of accepting it.
	Reject bool
}

func (c *Confirm) Do(ctx context.Context) error {
	if c.Service == nil {
		return errors.New("can not confirm, no service")
	}

	do := c.Service.Confirm
	if c.Reject {
		do = c.Service.Reject
	}

	rec, err := do(ctx)
	if err != nil {
		return err
	}

	pp := printers.PrettyPrint{}
	pp.NewLine()
	pp.Today(rec)
	return nil
}
