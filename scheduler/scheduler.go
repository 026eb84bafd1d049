// Package scheduler wires up the cron jobs that periodically run the full and
// incremental batch synchronizations.
package scheduler

import (
	"context"
	"fmt"

	"github.com/FlorianRuen/skillsync/config"
	"github.com/FlorianRuen/skillsync/logger"
	"github.com/FlorianRuen/skillsync/model"
	"github.com/FlorianRuen/skillsync/service"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

var schedulerLog = logger.Component("scheduler")

// Scheduler wraps robfig/cron and triggers SyncAll on both specs
type Scheduler struct {
	cron   *cron.Cron
	syncer service.SyncService
	config config.SchedulerConfig
}

func New(cfg config.SchedulerConfig, syncer service.SyncService) *Scheduler {
	cronLogger := cron.PrintfLogger(schedulerLog)

	return &Scheduler{
		// a batch still running when its next tick fires is not started twice
		cron:   cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.SkipIfStillRunning(cronLogger))),
		syncer: syncer,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron loop. Jobs run with ctx,
// cancelling it interrupts a running batch between two accounts
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		spec string
		mode model.BatchMode
	}{
		{s.config.FullSyncSpec, model.BatchFull},
		{s.config.IncrementalSyncSpec, model.BatchIncremental},
	}

	for _, job := range jobs {
		if job.spec == "" {
			continue
		}

		mode := job.mode
		if _, err := s.cron.AddFunc(job.spec, func() { s.run(ctx, mode) }); err != nil {
			return fmt.Errorf("cron.AddFunc(%q): %w", job.spec, err)
		}

		schedulerLog.WithFields(log.Fields{
			"mode": mode,
			"spec": job.spec,
		}).Info("batch synchronization scheduled")
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and returns a context done once running jobs have completed
func (s *Scheduler) Stop() context.Context {
	schedulerLog.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries is the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) run(ctx context.Context, mode model.BatchMode) {
	report, err := s.syncer.SyncAll(ctx, mode)
	if err != nil {
		schedulerLog.WithError(err).WithField("mode", mode).Error("batch synchronization interrupted")
		return
	}

	schedulerLog.WithFields(log.Fields{
		"mode":   mode,
		"synced": report.Synced,
		"failed": report.Failed,
	}).Debug("scheduled batch synchronization done")
}
