package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/todo_service/internal/app/storage"
	"github.com/R3E-Network/todo_service/internal/logging"
)

// Janitor periodically removes expired sessions from stores that do not
// expire keys on their own.
type Janitor struct {
	cron   *cron.Cron
	purger storage.SessionPurger
	logger *logging.Logger
	now    func() time.Time

	onPurge func(removed int64)
}

// NewJanitor schedules purges of purger on a cron spec such as "@every 10m".
func NewJanitor(purger storage.SessionPurger, schedule string, logger *logging.Logger) (*Janitor, error) {
	j := &Janitor{
		cron:   cron.New(),
		purger: purger,
		logger: logger,
		now:    time.Now,
	}
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Name identifies the janitor to the lifecycle manager.
func (j *Janitor) Name() string {
	return "session-janitor"
}

// Start begins running scheduled purges in the background.
func (j *Janitor) Start(context.Context) error {
	j.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running purge to finish or ctx
// to end.
func (j *Janitor) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnPurge registers fn to receive the count of each scheduled purge.
func (j *Janitor) OnPurge(fn func(removed int64)) {
	j.onPurge = fn
}

// RunOnce purges expired sessions immediately.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	return j.purger.PurgeExpiredSessions(ctx, j.now())
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := j.RunOnce(ctx)
	if err != nil {
		j.logger.WithContext(ctx).WithError(err).Warn("session purge failed")
		return
	}
	if j.onPurge != nil {
		j.onPurge(removed)
	}
	if removed > 0 {
		j.logger.WithContext(ctx).WithField("removed", removed).Info("expired sessions purged")
	}
}
