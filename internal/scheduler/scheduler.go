package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chris/cetes/internal/logging"
)

// Scheduler runs the refresh on a cron expression.
type Scheduler struct {
	cron      *cron.Cron
	refresher *Refresher
	spec      string
	entry     cron.EntryID
}

func New(refresher *Refresher, spec string) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
		spec:      spec,
	}
}

// Start registers the job and starts the cron loop. An empty spec disables
// scheduled refreshes.
func (s *Scheduler) Start() error {
	log := logging.Logger()
	if s.spec == "" {
		log.Info("scheduler disabled: no refresh cron")
		return nil
	}
	id, err := s.cron.AddFunc(s.spec, s.run)
	if err != nil {
		return fmt.Errorf("invalid refresh cron %q: %w", s.spec, err)
	}
	s.entry = id
	s.cron.Start()
	log.Info("scheduler started", "cron", s.spec, "next", s.Next().Format(time.RFC1123))
	return nil
}

// Stop halts the cron loop and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next returns the next scheduled run, or the zero time when not started.
func (s *Scheduler) Next() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if _, err := s.refresher.Refresh(ctx); err != nil {
		logging.Logger().Error("scheduled refresh failed", "err", err)
	}
}
