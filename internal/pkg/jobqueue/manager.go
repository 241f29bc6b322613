package jobqueue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/bountyhive/BountyHive/internal/pkg/env"
)

const (
	// SweepBatchSize caps how many stranded records one sweep re-enqueues.
	SweepBatchSize = 100
	// SweepMinAge keeps records that are mid-dispatch out of the sweep.
	SweepMinAge = 5 * time.Minute
)

// Manager manages the global job queue and the reconciliation sweep
type Manager struct {
	queue        *Queue
	reconcileTkr *time.Ticker
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOB_QUEUE_WORKERS", "3")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// SetEngine wires the escrow engine into the managed queue
func (m *Manager) SetEngine(engine Engine) {
	m.queue.SetEngine(engine)
}

// Start starts the job queue and the reconciliation sweep
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and reconciliation sweep")

	m.queue.Start()

	sweepInterval := 2 * time.Minute
	if v, err := strconv.Atoi(env.GetEnv("SETTLEMENT_SWEEP_INTERVAL_MINUTES", "2")); err == nil && v > 0 {
		sweepInterval = time.Duration(v) * time.Minute
	}

	m.reconcileTkr = time.NewTicker(sweepInterval)
	m.wg.Add(1)
	go m.reconcileWorker(m.stopCh, sweepInterval)

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and the reconciliation sweep
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and reconciliation sweep...")

	if m.reconcileTkr != nil {
		m.reconcileTkr.Stop()
	}

	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	m.wg.Wait()
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// reconcileWorker periodically re-enqueues settlement jobs for claimed escrow
// records whose gateway dispatch never landed
func (m *Manager) reconcileWorker(stopCh chan struct{}, interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started reconciliation worker (interval: %s)", interval)

	for {
		select {
		case <-stopCh:
			log.Info("[JobQueue Manager] Reconciliation worker stopping")
			return
		case <-m.reconcileTkr.C:
			if err := m.sweepOutstandingSettlements(); err != nil {
				log.Errorf("[JobQueue Manager] Reconciliation sweep error: %v", err)
			}
		}
	}
}

func (m *Manager) sweepOutstandingSettlements() error {
	engine := m.queue.engine
	if engine == nil {
		return nil
	}

	ctx := context.Background()
	ids, err := engine.OutstandingSettlements(ctx, time.Now().Add(-SweepMinAge), SweepBatchSize)
	if err != nil {
		return err
	}

	for _, id := range ids {
		payload := EscrowSettlementJobPayload{EscrowID: id}
		if _, err := m.queue.EnqueueJob(JobTypeEscrowSettlement, payload.ToMap()); err != nil {
			log.Errorf("[JobQueue Manager] Failed to enqueue settlement for escrow %s: %v", id, err)
		}
	}
	if len(ids) > 0 {
		log.Infof("[JobQueue Manager] Re-enqueued %d outstanding settlements", len(ids))
	}

	return nil
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
