package clock

import (
	"fmt"
	"time"

	"github.com/smallbiznis/invoicegen/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("clock",
	fx.Provide(NewClock),
)

// NewClock returns the wall clock in the configured business timezone.
func NewClock(cfg config.Config) (Clock, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return SystemClock{Location: loc}, nil
}
