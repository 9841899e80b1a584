package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ecocheck/ecocheck/internal/pkg/cache"
	"github.com/ecocheck/ecocheck/internal/pkg/env"
	"github.com/ecocheck/ecocheck/internal/pkg/workflow"
)

// AutoResolveLockKey guards the sweep so only one instance runs it at a time.
const AutoResolveLockKey = "autoresolve:lock"

// ErrSweepLocked is returned when another instance holds the sweep lease.
var ErrSweepLocked = errors.New("auto-resolve sweep is running elsewhere")

// Sweeper is the part of workflow.Sweeper the manager drives.
type Sweeper interface {
	RunOnce(ctx context.Context) (workflow.SweepSummary, error)
}

// AutoResolveSchedule configures the periodic sweep.
type AutoResolveSchedule struct {
	InitialDelay time.Duration
	Interval     time.Duration
	// LeaseTTL bounds how long a crashed holder blocks other instances.
	LeaseTTL time.Duration
}

// Manager runs the job queue workers and the auto-resolve schedule.
type Manager struct {
	queue    *Queue
	sweeper  Sweeper
	schedule AutoResolveSchedule
	owner    string

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = NewManager(NewQueue(env.GetInt("JOBQUEUE_WORKERS", 5)))
	})
	return globalManager
}

// NewManager wraps queue. The auto-resolve schedule is off until
// SetAutoResolve is called.
func NewManager(queue *Queue) *Manager {
	host, _ := os.Hostname()
	return &Manager{
		queue:  queue,
		owner:  fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
		stopCh: make(chan struct{}),
	}
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// SetAutoResolve enables the periodic sweep.
func (m *Manager) SetAutoResolve(s Sweeper, schedule AutoResolveSchedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if schedule.Interval <= 0 {
		schedule.Interval = 6 * time.Hour
	}
	if schedule.InitialDelay < 0 {
		schedule.InitialDelay = 0
	}
	if schedule.LeaseTTL <= 0 {
		schedule.LeaseTTL = schedule.Interval
	}
	m.sweeper = s
	m.schedule = schedule
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	if m.sweeper != nil {
		m.wg.Add(1)
		go m.autoResolveWorker(m.stopCh, m.schedule)
	}

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")
	close(m.stopCh)
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// autoResolveWorker waits InitialDelay, sweeps, then sweeps every Interval.
func (m *Manager) autoResolveWorker(stopCh <-chan struct{}, schedule AutoResolveSchedule) {
	defer m.wg.Done()
	log.Infof("[AutoResolve] Scheduler started (first run in %s, then every %s)", schedule.InitialDelay, schedule.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stopCh
		cancel()
	}()

	timer := time.NewTimer(schedule.InitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			log.Info("[AutoResolve] Scheduler stopping")
			return
		case <-timer.C:
			if _, err := m.RunAutoResolveOnce(ctx); err != nil && !errors.Is(err, ErrSweepLocked) {
				log.Errorf("[AutoResolve] Sweep failed: %v", err)
			}
			timer.Reset(schedule.Interval)
		}
	}
}

// RunAutoResolveOnce runs a single sweep under the Redis lease. It returns
// ErrSweepLocked when another instance holds the lease.
func (m *Manager) RunAutoResolveOnce(ctx context.Context) (workflow.SweepSummary, error) {
	m.mu.Lock()
	sweeper, ttl := m.sweeper, m.schedule.LeaseTTL
	m.mu.Unlock()

	if sweeper == nil {
		return workflow.SweepSummary{}, errors.New("auto-resolve is not configured")
	}

	ok, err := cache.AcquireLock(ctx, AutoResolveLockKey, m.owner, ttl)
	if err != nil {
		// Without Redis a single instance still has to make progress.
		log.Warnf("[AutoResolve] Lease unavailable, sweeping without it: %v", err)
	} else if !ok {
		log.Infof("[AutoResolve] Another instance holds the sweep lease, skipping")
		return workflow.SweepSummary{}, ErrSweepLocked
	} else {
		defer func() {
			if err := cache.ReleaseLock(context.WithoutCancel(ctx), AutoResolveLockKey, m.owner); err != nil {
				log.Warnf("[AutoResolve] Could not release sweep lease: %v", err)
			}
		}()
	}

	return sweeper.RunOnce(ctx)
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
