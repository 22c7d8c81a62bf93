package service

import (
	"context"
	"fmt"
	"time"

	"incrementum/config"
	"incrementum/pkg/logger"
	"incrementum/pkg/utils"

	"github.com/robfig/cron/v3"
)

// SchedulerService periodically refreshes the cached percent change so
// screens on day_percent_change see recent values.
type SchedulerService interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context) error
}

type schedulerService struct {
	cfg           *config.Config
	log           *logger.Logger
	now           utils.Clock
	cronParser    cron.Parser
	metricService MetricService
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	now utils.Clock,
	metricService MetricService,
) SchedulerService {
	return &schedulerService{
		cfg:           cfg,
		log:           log,
		now:           now,
		cronParser:    cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		metricService: metricService,
	}
}

// Start blocks until ctx is done, running RunOnce on every tick of
// scheduler.metric_refresh_cron. It returns at once when no cron is set.
func (s *schedulerService) Start(ctx context.Context) error {
	if s.cfg.Scheduler.MetricRefreshCron == "" {
		s.log.InfoContext(ctx, "Metric refresh scheduler disabled")
		return nil
	}
	schedule, err := s.cronParser.Parse(s.cfg.Scheduler.MetricRefreshCron)
	if err != nil {
		return fmt.Errorf("failed to parse cron expression %q: %w", s.cfg.Scheduler.MetricRefreshCron, err)
	}

	for {
		now := s.now()
		next := schedule.Next(now)
		s.log.DebugContext(ctx, "Next metric refresh", logger.Field("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.InfoContext(ctx, "Metric refresh scheduler stopped")
			return nil
		case <-timer.C:
		}

		if err := s.RunOnce(ctx); err != nil {
			s.log.ErrorContext(ctx, "Metric refresh failed", logger.ErrorField(err))
		}
	}
}

func (s *schedulerService) RunOnce(ctx context.Context) error {
	timeout := s.cfg.Scheduler.TimeoutDuration
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := s.metricService.RefreshAll(runCtx); err != nil {
		return fmt.Errorf("failed to refresh metrics: %w", err)
	}
	s.log.InfoContext(ctx, "Metric refresh completed", logger.DurationField("elapsed", time.Since(start)))
	return nil
}
