package scheduler

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"kitchen-backoffice/internal/config"
	"kitchen-backoffice/internal/service"
)

const monthlyTimeout = 10 * time.Minute

// MonthlySnapshotter is the part of the snapshot service the scheduler needs.
type MonthlySnapshotter interface {
	CreateMonthly(ctx context.Context, now time.Time) (service.MonthlyReport, error)
}

// Scheduler runs the periodic jobs.
type Scheduler struct {
	cron      *cron.Cron
	snapshots MonthlySnapshotter
	cfg       config.SchedulerConfig
	loc       *time.Location
	logger    *zap.Logger
}

// NewScheduler builds a scheduler in the configured timezone.
func NewScheduler(cfg config.SchedulerConfig, snapshots MonthlySnapshotter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		snapshots: snapshots,
		cfg:       cfg,
		loc:       loc,
		logger:    logger,
	}, nil
}

// Start registers the jobs and starts the cron loop. An empty snapshot
// expression leaves the monthly job out.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("timezone", s.loc.String()))

	if s.cfg.SnapshotCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.SnapshotCron, s.createMonthlySnapshots); err != nil {
			return fmt.Errorf("schedule monthly snapshots: %w", err)
		}
		s.logger.Info("monthly snapshots scheduled", zap.String("cron", s.cfg.SnapshotCron))
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) createMonthlySnapshots() {
	s.logger.Info("creating monthly snapshots")
	ctx, cancel := context.WithTimeout(context.Background(), monthlyTimeout)
	defer cancel()

	report, err := s.snapshots.CreateMonthly(ctx, time.Now().In(s.loc))
	if err != nil {
		s.logger.Error("monthly snapshots failed", zap.Error(err))
		return
	}
	if report.Failed > 0 {
		s.logger.Warn("monthly snapshots finished with failures", zap.Int("failed", report.Failed))
	}
}
