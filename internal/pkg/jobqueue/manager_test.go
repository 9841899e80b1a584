package jobqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocheck/ecocheck/internal/pkg/cache"
	"github.com/ecocheck/ecocheck/internal/pkg/workflow"
)

type countingSweeper struct {
	runs int32
}

func (s *countingSweeper) RunOnce(context.Context) (workflow.SweepSummary, error) {
	atomic.AddInt32(&s.runs, 1)
	return workflow.SweepSummary{Found: 1, Resolved: 1}, nil
}

func (s *countingSweeper) count() int {
	return int(atomic.LoadInt32(&s.runs))
}

func TestGetManager(t *testing.T) {
	globalManager = nil
	managerOnce = sync.Once{}
	t.Cleanup(func() {
		globalManager = nil
		managerOnce = sync.Once{}
	})

	manager1 := GetManager()
	manager2 := GetManager()

	assert.Same(t, manager1, manager2, "GetManager should return the same instance")
	assert.NotNil(t, manager1.GetQueue())
	assert.False(t, manager1.IsRunning())
	assert.NotEmpty(t, manager1.owner)
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager(NewQueueWithClient(offlineClient(), 1))
	assert.False(t, m.IsRunning())
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestManager_SetAutoResolveDefaults(t *testing.T) {
	m := NewManager(NewQueueWithClient(offlineClient(), 1))
	m.SetAutoResolve(&countingSweeper{}, AutoResolveSchedule{InitialDelay: -time.Second})

	assert.Equal(t, 6*time.Hour, m.schedule.Interval)
	assert.Equal(t, time.Duration(0), m.schedule.InitialDelay)
	assert.Equal(t, 6*time.Hour, m.schedule.LeaseTTL)
}

func TestManager_RunAutoResolveOnceRequiresSweeper(t *testing.T) {
	m := NewManager(NewQueueWithClient(offlineClient(), 1))
	_, err := m.RunAutoResolveOnce(context.Background())
	assert.Error(t, err)
}

func TestManager_LeaseBlocksSecondInstance(t *testing.T) {
	newIsolatedRedisClient(t)
	ctx := context.Background()

	s := &countingSweeper{}
	m := NewManager(NewQueueWithClient(cache.GetClient(), 1))
	m.SetAutoResolve(s, AutoResolveSchedule{Interval: time.Hour})

	held, err := cache.AcquireLock(ctx, AutoResolveLockKey, "other-instance", time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	_, err = m.RunAutoResolveOnce(ctx)
	assert.ErrorIs(t, err, ErrSweepLocked)
	assert.Equal(t, 0, s.count())

	require.NoError(t, cache.ReleaseLock(ctx, AutoResolveLockKey, "other-instance"))
	summary, err := m.RunAutoResolveOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Resolved)
	assert.Equal(t, 1, s.count())

	// The lease is released after the sweep.
	_, err = cache.Get(AutoResolveLockKey)
	assert.Error(t, err)
}

func TestManager_ScheduleRunsAfterInitialDelay(t *testing.T) {
	client := newIsolatedRedisClient(t)

	s := &countingSweeper{}
	m := NewManager(NewQueueWithClient(client, 1))
	m.SetAutoResolve(s, AutoResolveSchedule{InitialDelay: 10 * time.Millisecond, Interval: 50 * time.Millisecond})
	m.Start()
	assert.True(t, m.IsRunning())

	require.True(t, waitForCondition(func() bool { return s.count() >= 2 }, 3*time.Second))
	m.Stop()
	assert.False(t, m.IsRunning())

	after := s.count()
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, after, s.count(), "no sweeps after Stop")
}
