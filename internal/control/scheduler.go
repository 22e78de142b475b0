package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vietddude/standings/internal/etl/health"
)

// Scheduler triggers a fresh run on every cron tick and serves health and
// metrics endpoints in between.
type Scheduler struct {
	app    *App
	cron   *cron.Cron
	entry  cron.EntryID
	server *health.Server
	log    *slog.Logger

	running sync.Mutex
}

// NewScheduler registers the run job under spec (standard 5-field cron).
func NewScheduler(app *App, spec string, port int) (*Scheduler, error) {
	s := &Scheduler{app: app, log: app.log}

	cronLog := cron.PrintfLogger(slog.NewLogLogger(app.log.Handler(), slog.LevelInfo))
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	))

	entry, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.entry = entry

	app.setMonitor(health.NewMonitor(s.Next))
	s.server = health.NewServer(app.monitor, port)
	return s, nil
}

// Next returns the time of the next scheduled run.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) tick() {
	if !s.running.TryLock() {
		s.log.Warn("Previous run still in progress, skipping tick")
		return
	}
	defer s.running.Unlock()

	r := s.app.RunOnce(context.Background())
	s.log.Info("Scheduled run finished",
		"run_id", r.RunID,
		"classification", r.Classification,
		"next", s.Next(),
	)
}

// Start runs the scheduler until ctx is done. When runNow is set a run is
// triggered immediately.
func (s *Scheduler) Start(ctx context.Context, runNow bool) error {
	go func() {
		if err := s.server.Start(); err != nil {
			s.log.Error("Health server failed", "error", err)
		}
	}()

	s.cron.Start()
	s.log.Info("Scheduler started", "next", s.Next())

	if runNow {
		go s.tick()
	}

	<-ctx.Done()

	s.log.Info("Stopping scheduler")
	stopCtx := s.cron.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Stop(shutdownCtx); err != nil {
		s.log.Warn("Health server shutdown failed", "error", err)
	}
	<-stopCtx.Done()
	return nil
}
