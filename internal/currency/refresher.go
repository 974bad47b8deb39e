package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher re-fetches the converter's rate table on a cron schedule.
type Refresher struct {
	converter *Converter
	cron      *cron.Cron
	timeout   time.Duration
	log       *logrus.Logger
}

// NewRefresher schedules refreshes with a standard five field cron spec.
func NewRefresher(converter *Converter, spec string, log *logrus.Logger) (*Refresher, error) {
	r := &Refresher{
		converter: converter,
		cron:      cron.New(),
		timeout:   30 * time.Second,
		log:       log,
	}
	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return r, nil
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	t, err := r.converter.Refresh(ctx)
	if err != nil {
		r.log.Errorf("Scheduled rate refresh failed: %v", err)
		return
	}
	r.log.Infof("Refreshed %d exchange rates for %s", len(t.Rates), t.Base)
}

// Start runs the schedule in the background.
func (r *Refresher) Start() { r.cron.Start() }

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// Next returns the time of the next scheduled refresh.
func (r *Refresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now())
}
