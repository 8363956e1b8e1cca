// Package usage records completed orchestration runs asynchronously. The
// HTTP layer enqueues one event per run and moves on; a batch worker drains
// the queue into Postgres. Nothing here may block or fail a user request —
// failures are logged and, after retries, parked in the dead-letter queue.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ai_orchestrator/internal/queue"
	"ai_orchestrator/internal/storage"
	"ai_orchestrator/internal/utils"
)

// Event is one completed orchestration run.
type Event struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	TaskType     string    `json:"task_type"`
	ProviderType string    `json:"provider_type"`
	Success      bool      `json:"success"`
	ErrorCode    string    `json:"error_code"`
	Attempts     int       `json:"attempts"`
	DurationMS   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// Recorder is the write side the worker needs from storage.
type Recorder interface {
	InsertBatch(ctx context.Context, records []*storage.UsageRecord) error
}

// Worker processes usage events asynchronously.
type Worker struct {
	queue       queue.Queue
	dlq         queue.DeadLetterQueue
	recorder    Recorder
	config      *queue.Config
	logger      *utils.Logger
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewWorker creates a usage queue worker.
func NewWorker(q queue.Queue, dlq queue.DeadLetterQueue, recorder Recorder, config *queue.Config) *Worker {
	if config == nil {
		config = queue.DefaultConfig("ai_usage")
	}

	return &Worker{
		queue:       q,
		dlq:         dlq,
		recorder:    recorder,
		config:      config,
		logger:      utils.NewLogger("usage-worker"),
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start starts the worker goroutine
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *Worker) Stop() error {
	close(w.stopChan)
	<-w.stoppedChan
	return nil
}

// Enqueue adds a usage event to the queue. Fire-and-forget callers should
// log the returned error, never propagate it to the user.
func (w *Worker) Enqueue(ctx context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return w.queue.Enqueue(ctx, event)
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context) {
	defer close(w.stoppedChan)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Usage worker stopping")
			return
		case <-ctx.Done():
			w.logger.Info("Usage worker context cancelled")
			return
		default:
			w.processBatch(ctx)
		}
	}
}

// processBatch drains one batch of events and writes it in one transaction.
func (w *Worker) processBatch(ctx context.Context) {
	items, err := w.queue.DequeueWithTimeout(ctx, w.config.BatchSize, w.config.BatchTimeout)
	if err != nil {
		w.logger.Error("Failed to dequeue usage events", "error", err)
		time.Sleep(1 * time.Second) // Back off on error
		return
	}

	if len(items) == 0 {
		return
	}

	w.logger.Debug("Processing usage batch", "count", len(items))

	records := make([]*storage.UsageRecord, 0, len(items))
	var raw []interface{}
	for _, item := range items {
		event, err := decodeEvent(item)
		if err != nil {
			w.logger.Error("Failed to decode usage event", "error", err)
			continue
		}
		records = append(records, &storage.UsageRecord{
			TenantID:     event.TenantID,
			TaskType:     event.TaskType,
			ProviderType: event.ProviderType,
			Success:      event.Success,
			ErrorCode:    event.ErrorCode,
			Attempts:     event.Attempts,
			DurationMS:   event.DurationMS,
		})
		raw = append(raw, item)
	}
	if len(records) == 0 {
		return
	}

	if err := w.writeWithRetry(ctx, records); err != nil {
		w.logger.Error("Usage batch exhausted retries, moving to DLQ",
			"count", len(records), "error", err)
		for _, item := range raw {
			if dlqErr := w.dlq.Add(ctx, item, err); dlqErr != nil {
				w.logger.Error("Failed to add usage event to DLQ", "error", dlqErr)
			}
		}
	}
}

// writeWithRetry writes a batch with exponential backoff.
func (w *Worker) writeWithRetry(ctx context.Context, records []*storage.UsageRecord) error {
	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := w.config.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := w.recorder.InsertBatch(ctx, records); err != nil {
			lastErr = err
			w.logger.Warn("Usage batch write failed",
				"attempt", attempt+1, "error", err)
			continue
		}
		return nil
	}

	return fmt.Errorf("%w: %v", queue.ErrMaxRetriesExceeded, lastErr)
}

// decodeEvent handles both in-memory (*Event) and Redis
// (json.RawMessage) queue payloads.
func decodeEvent(item interface{}) (*Event, error) {
	switch v := item.(type) {
	case *Event:
		return v, nil
	case Event:
		return &v, nil
	case json.RawMessage:
		var event Event
		if err := json.Unmarshal(v, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal usage event: %w", err)
		}
		return &event, nil
	case []byte:
		var event Event
		if err := json.Unmarshal(v, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal usage event: %w", err)
		}
		return &event, nil
	default:
		return nil, fmt.Errorf("unexpected usage event type %T", item)
	}
}
