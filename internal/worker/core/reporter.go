package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// StatusReporter periodically publishes a worker's status.
// A nil client yields a reporter that only tracks status locally.
type StatusReporter struct {
	monitor  *Monitor
	status   Status
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
	stopped  bool
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewStatusReporter creates a new status reporter for a worker.
func NewStatusReporter(client rueidis.Client, workerType string, logger *zap.Logger) *StatusReporter {
	var monitor *Monitor
	if client != nil {
		monitor = NewMonitor(client, logger)
	}

	return &StatusReporter{
		monitor: monitor,
		status: Status{
			WorkerID:   uuid.New().String(),
			WorkerType: workerType,
			IsHealthy:  true,
		},
		interval: HeartbeatInterval,
		stopChan: make(chan struct{}),
		logger:   logger.Named("status_reporter"),
	}
}

// SetInterval overrides the heartbeat interval. It must be called before Start.
func (r *StatusReporter) SetInterval(interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.interval = interval
}

// Start begins periodic status reporting. It must be called at most once.
func (r *StatusReporter) Start(ctx context.Context) {
	r.mu.Lock()
	if r.stopped || r.monitor == nil || r.done != nil {
		r.mu.Unlock()
		return
	}
	interval := r.interval
	done := make(chan struct{})
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		r.report(ctx)

		for {
			select {
			case <-ticker.C:
				r.report(ctx)
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			}
		}
	}()
}

// Stop ends status reporting and removes the heartbeat.
func (r *StatusReporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}

	close(r.stopChan)
	r.stopped = true
	done := r.done
	r.mu.Unlock()

	// Wait for the last heartbeat before clearing it
	if done != nil {
		<-done
	}

	if r.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		status := r.Snapshot()
		if err := r.monitor.ClearStatus(ctx, status.WorkerType, status.WorkerID); err != nil {
			r.logger.Warn("Failed to clear status", zap.Error(err))
		}
	}
}

// UpdateStatus updates the current task and progress.
func (r *StatusReporter) UpdateStatus(task string, progress int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.CurrentTask = task
	r.status.Progress = progress
}

// SetHealthy updates the health status. An unhealthy status records the error.
func (r *StatusReporter) SetHealthy(healthy bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.IsHealthy = healthy
	r.status.LastError = ""
	if err != nil {
		r.status.LastError = err.Error()
	}
}

// Snapshot returns a copy of the current status.
func (r *StatusReporter) Snapshot() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

// GetWorkerID returns the unique worker ID.
func (r *StatusReporter) GetWorkerID() string {
	return r.status.WorkerID
}

func (r *StatusReporter) report(ctx context.Context) {
	if err := r.monitor.ReportStatus(ctx, r.Snapshot()); err != nil {
		r.logger.Error("Failed to report status", zap.Error(err))
	}
}
