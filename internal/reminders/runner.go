package reminders

import (
	"context"
	"time"

	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

// Runner triggers dispatcher sweeps on a fixed cadence. The cadence must stay
// well under 30 minutes or bookings can slide through a reminder window
// between sweeps.
type Runner struct {
	dispatcher *Dispatcher
	logger     *logging.Logger
	interval   time.Duration
}

func NewRunner(dispatcher *Dispatcher, logger *logging.Logger) *Runner {
	if dispatcher == nil {
		panic("reminders: dispatcher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		dispatcher: dispatcher,
		logger:     logger.Component("reminder-runner"),
		interval:   5 * time.Minute,
	}
}

func (r *Runner) WithInterval(d time.Duration) *Runner {
	if d > 0 {
		r.interval = d
	}
	return r
}

// Run sweeps immediately and then on every tick until the context ends.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	if _, err := r.dispatcher.Sweep(ctx); err != nil {
		r.logger.Error("reminder sweep failed", "error", err)
	}
}
