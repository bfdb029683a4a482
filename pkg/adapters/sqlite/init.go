package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/nutripipe/pkg/adapter"
)

func init() {
	adapter.Register(adapter.Registration{
		Name:      "sqlite",
		FileBased: true,
		Factory:   func(logger *slog.Logger) adapter.Adapter { return New(logger) },
	})
}
