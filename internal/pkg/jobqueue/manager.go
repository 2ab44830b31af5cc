package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/cache"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
)

// Manager owns the process-wide queue and its periodic stats log
type Manager struct {
	queue  *Queue
	every  time.Duration
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			queue: NewQueueWithOptions(nil, Options{
				Workers:    env.GetEnvInt("JOBQUEUE_WORKERS", 5),
				RetryDelay: env.GetEnvDuration("JOBQUEUE_RETRY_DELAY", time.Minute),
				StuckAfter: env.GetEnvDuration("JOBQUEUE_STUCK_AFTER", 10*time.Minute),
			}),
			every: env.GetEnvDuration("JOBQUEUE_STATS_INTERVAL", 5*time.Minute),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start binds the queue to the shared Redis client and starts it
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	if m.queue.client == nil {
		m.queue.client = cache.GetClient()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.queue.Start()
	go m.logStats(ctx, m.done)
	log.Info("[JobQueue Manager] Started")
}

// Stop stops the stats loop, then drains the workers
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	m.queue.Stop()
	log.Info("[JobQueue Manager] Stopped")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Manager) logStats(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.logStatsOnce(ctx)
		}
	}
}

func (m *Manager) logStatsOnce(ctx context.Context) {
	pending, err := m.queue.GetQueueSize(ctx)
	if err != nil {
		log.Errorf("[JobQueue Manager] Queue size error: %v", err)
		return
	}
	processing, _ := m.queue.GetProcessingSize(ctx)
	delayed, _ := m.queue.GetDelayedSize(ctx)
	stats, _ := m.queue.GetJobStats(ctx)
	log.Infof("[JobQueue Manager] pending=%d processing=%d retrying=%d completed=%d failed=%d",
		pending, processing, delayed, stats[JobStatusCompleted], stats[JobStatusFailed])
}
