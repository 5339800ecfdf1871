package ui

import (
	"context"
	"errors"

	"tableflip.dev/lumen/pkg/app"
	"tableflip.dev/lumen/pkg/tui"
)

type UI struct {
	Service *app.Service
}

func (u *UI) Do(_ context.Context) error {
	if u.Service == nil {
		return errors.New("can not open ui, no service")
	}
	return tui.Run(u.Service)
}
