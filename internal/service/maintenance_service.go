package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-booking-api/pkg/config"
	"github.com/noah-isme/lesson-booking-api/pkg/jobs"
	"github.com/noah-isme/lesson-booking-api/pkg/lock"
)

type snapshotRebuilder interface {
	RebuildAll(ctx context.Context) error
	LastFullRebuild(ctx context.Context) (time.Time, bool)
}

// maintenanceLockName is shared by every instance so only one full rebuild
// runs at a time across the fleet.
const maintenanceLockName = "maintenance:rebuild"

// MaintenanceService owns the scheduled full cache rebuild. Runs are
// serialized through a single-worker queue; the cross-instance lease makes
// the loser skip, and a recent rebuild suppresses redundant runs.
type MaintenanceService struct {
	rebuilder snapshotRebuilder
	locker    lock.Locker
	queue     *jobs.Queue
	logger    *zap.Logger

	interval    time.Duration
	suppression time.Duration
	lockTimeout time.Duration
	now         func() time.Time

	mu      sync.Mutex
	stopped chan struct{}
}

// NewMaintenanceService constructs MaintenanceService from maintenance config.
func NewMaintenanceService(rebuilder snapshotRebuilder, locker lock.Locker, cfg config.MaintenanceConfig, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MaintenanceService{
		rebuilder:   rebuilder,
		locker:      locker,
		logger:      logger,
		interval:    cfg.Interval,
		suppression: cfg.Suppression,
		lockTimeout: cfg.LockTimeout,
		now:         time.Now,
	}
	s.queue = jobs.NewQueue("maintenance", s.handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// Start launches the worker and, when an interval is configured, the
// scheduled tick. Runs until the context is cancelled or Stop is called.
func (s *MaintenanceService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stopped != nil {
		s.mu.Unlock()
		return
	}
	s.stopped = make(chan struct{})
	stopped := s.stopped
	s.mu.Unlock()

	s.queue.Start(ctx)
	if s.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopped:
				return
			case <-ticker.C:
				if err := s.Trigger("scheduled"); err != nil {
					s.logger.Warn("failed to enqueue scheduled rebuild", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts the tick and drains the worker.
func (s *MaintenanceService) Stop() {
	s.mu.Lock()
	if s.stopped != nil {
		close(s.stopped)
		s.stopped = nil
	}
	s.mu.Unlock()
	s.queue.Stop()
}

// Trigger enqueues one rebuild run. Used by the scheduled tick and by the
// staff maintenance endpoint.
func (s *MaintenanceService) Trigger(reason string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "rebuild",
		Payload: reason,
	})
}

// LastRun reports when the last full rebuild completed anywhere.
func (s *MaintenanceService) LastRun(ctx context.Context) (time.Time, bool) {
	return s.rebuilder.LastFullRebuild(ctx)
}

func (s *MaintenanceService) handle(ctx context.Context, job jobs.Job) error {
	reason, _ := job.Payload.(string)
	return s.runRebuild(ctx, reason)
}

func (s *MaintenanceService) runRebuild(ctx context.Context, reason string) error {
	if last, ok := s.rebuilder.LastFullRebuild(ctx); ok && s.suppression > 0 {
		if age := s.now().Sub(last); age < s.suppression {
			s.logger.Info("rebuild suppressed, snapshot is fresh",
				zap.String("reason", reason), zap.Duration("age", age))
			return nil
		}
	}

	if s.locker != nil {
		handle, ok, err := s.locker.TryAcquire(ctx, maintenanceLockName, s.lockTimeout)
		if err != nil {
			return err
		}
		if !ok {
			// Another instance holds the lease; its run covers this one.
			s.logger.Info("rebuild skipped, lease held elsewhere", zap.String("reason", reason))
			return nil
		}
		defer func() {
			if err := handle.Release(context.Background()); err != nil {
				s.logger.Warn("failed to release maintenance lease", zap.Error(err))
			}
		}()
	}

	start := s.now()
	if err := s.rebuilder.RebuildAll(ctx); err != nil {
		s.logger.Error("full rebuild failed", zap.String("reason", reason), zap.Error(err))
		return err
	}
	s.logger.Info("full rebuild completed",
		zap.String("reason", reason),
		zap.Duration("took", s.now().Sub(start)))
	return nil
}
