package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/service"
)

// CloseDayServicer is the service method the scheduler drives.
// Satisfied by *service.LedgerService.
type CloseDayServicer interface {
	CloseDay(ctx context.Context, dateLabel string) (database.DailySummary, error)
	DateLabel() string
}

// Publisher pushes topic snapshots after the scheduled close.
// Satisfied by *service.Feed.
type Publisher interface {
	Publish(ctx context.Context, topics ...string)
}

// Scheduler runs the optional automatic day-close.
type Scheduler struct {
	cron     *cron.Cron
	svc      CloseDayServicer
	feed     Publisher
	cronSpec string
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. cronSpec is a
// standard five-field cron expression; empty disables scheduling.
func NewScheduler(cronSpec string, svc CloseDayServicer, feed Publisher, loc *time.Location, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		svc:      svc,
		feed:     feed,
		cronSpec: cronSpec,
		logger:   logger,
	}
}

// Start starts the scheduler. A no-op when no cron spec is configured;
// the shop then closes its days manually from the admin view.
func (s *Scheduler) Start() {
	if s.cronSpec == "" {
		s.logger.Info("automatic day-close disabled")
		return
	}

	if _, err := s.cron.AddFunc(s.cronSpec, s.closeToday); err != nil {
		s.logger.Error("failed to schedule day-close",
			zap.String("spec", s.cronSpec), zap.Error(err))
		return
	}

	s.logger.Info("automatic day-close scheduled", zap.String("spec", s.cronSpec))
	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) closeToday() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dateLabel := s.svc.DateLabel()
	summary, err := s.svc.CloseDay(ctx, dateLabel)
	if err != nil {
		if errors.Is(err, service.ErrEmptyDay) {
			s.logger.Info("no orders to close", zap.String("date", dateLabel))
			return
		}
		s.logger.Error("scheduled day-close failed",
			zap.String("date", dateLabel), zap.Error(err))
		return
	}

	s.feed.Publish(ctx, service.HistoryTopic(dateLabel), service.TopicSummaries)
	s.logger.Info("day closed",
		zap.String("date", dateLabel),
		zap.String("total_sales", summary.TotalSales.StringFixed(2)),
		zap.Int32("total_orders", summary.TotalOrders))
}
