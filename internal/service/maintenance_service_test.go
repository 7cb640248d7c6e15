package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-booking-api/pkg/config"
)

type rebuilderStub struct {
	rebuilds int
	err      error
	last     time.Time
	hasLast  bool
}

func (r *rebuilderStub) RebuildAll(ctx context.Context) error {
	if r.err != nil {
		return r.err
	}
	r.rebuilds++
	return nil
}

func (r *rebuilderStub) LastFullRebuild(ctx context.Context) (time.Time, bool) {
	return r.last, r.hasLast
}

func newMaintenance(rebuilder *rebuilderStub, locker *lockerStub) *MaintenanceService {
	s := NewMaintenanceService(rebuilder, locker, config.MaintenanceConfig{
		Interval:    time.Hour,
		Suppression: 5 * time.Minute,
		LockTimeout: time.Second,
	}, nil)
	s.now = func() time.Time {
		return time.Date(2025, 10, 15, 3, 0, 0, 0, time.UTC)
	}
	return s
}

func TestRunRebuildAcquiresLeaseAndRebuilds(t *testing.T) {
	rebuilder := &rebuilderStub{}
	locker := &lockerStub{}
	s := newMaintenance(rebuilder, locker)

	require.NoError(t, s.runRebuild(context.Background(), "manual"))
	assert.Equal(t, 1, rebuilder.rebuilds)
	assert.Equal(t, []string{maintenanceLockName}, locker.acquired)
	assert.Equal(t, 1, locker.released)
}

func TestRunRebuildLoserSkips(t *testing.T) {
	rebuilder := &rebuilderStub{}
	locker := &lockerStub{busy: true}
	s := newMaintenance(rebuilder, locker)

	require.NoError(t, s.runRebuild(context.Background(), "scheduled"))
	assert.Zero(t, rebuilder.rebuilds)
}

func TestRunRebuildSuppressedWhenFresh(t *testing.T) {
	rebuilder := &rebuilderStub{
		last:    time.Date(2025, 10, 15, 2, 58, 0, 0, time.UTC),
		hasLast: true,
	}
	locker := &lockerStub{}
	s := newMaintenance(rebuilder, locker)

	require.NoError(t, s.runRebuild(context.Background(), "scheduled"))
	assert.Zero(t, rebuilder.rebuilds)
	assert.Empty(t, locker.acquired)

	// Past the suppression window the run proceeds.
	rebuilder.last = time.Date(2025, 10, 15, 2, 0, 0, 0, time.UTC)
	require.NoError(t, s.runRebuild(context.Background(), "scheduled"))
	assert.Equal(t, 1, rebuilder.rebuilds)
}

func TestRunRebuildPropagatesFailure(t *testing.T) {
	rebuilder := &rebuilderStub{err: errors.New("store down")}
	s := newMaintenance(rebuilder, &lockerStub{})

	err := s.runRebuild(context.Background(), "manual")
	require.Error(t, err)
}

func TestTriggerRequiresStartedQueue(t *testing.T) {
	s := newMaintenance(&rebuilderStub{}, &lockerStub{})
	require.Error(t, s.Trigger("manual"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()
	require.NoError(t, s.Trigger("manual"))
}
