package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/farmhand/internal/worker/domain"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}

	w.logger.Info("Worker pool spawned",
		slog.Int("worker_count", w.concurrency),
	)
}

// workerLoop processes events until the worker stops
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)

	for {
		select {
		case <-w.stopChan:
			w.logger.Debug("Worker goroutine stopping", slog.String("worker_name", workerName))
			return

		case <-ctx.Done():
			w.logger.Debug("Worker goroutine stopping - context canceled", slog.String("worker_name", workerName))
			return

		case t := <-w.tasks:
			w.handle(ctx, workerName, t)
		}
	}
}

// handle processes one event and settles its delivery. Retryable failures
// are requeued at most maxRetries times per event.
func (w *Worker) handle(ctx context.Context, workerName string, t *task) {
	err := w.processEvent(ctx, t.event)
	if err == nil {
		w.forgetAttempts(t.event.EventID)
		if ackErr := t.delivery.Ack(false); ackErr != nil {
			w.logger.Error("Failed to ACK message",
				slog.String("worker_name", workerName),
				slog.String("event_id", t.event.EventID),
				slog.Any("error", ackErr),
			)
		}
		return
	}

	requeue := domain.IsRetryable(err)
	if requeue {
		attempt := w.recordAttempt(t.event.EventID)
		if attempt > w.maxRetries {
			w.logger.Warn("Event exceeded max retries",
				slog.String("worker_name", workerName),
				slog.String("event_id", t.event.EventID),
				slog.Int("retry_count", attempt-1),
				slog.Int("max_retries", w.maxRetries),
			)
			w.forgetAttempts(t.event.EventID)
			err = fmt.Errorf("%w: %v", domain.ErrMaxRetriesExceeded, err)
			requeue = false
		}
	} else {
		w.forgetAttempts(t.event.EventID)
	}

	w.logger.Error("Event processing failed",
		slog.String("worker_name", workerName),
		slog.String("event_id", t.event.EventID),
		slog.Int64("application_id", t.event.ApplicationID),
		slog.Bool("requeue", requeue),
		slog.Any("error", err),
	)

	if requeue {
		w.waitRetryDelay(ctx)
	}

	if nackErr := t.delivery.Nack(false, requeue); nackErr != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("worker_name", workerName),
			slog.String("event_id", t.event.EventID),
			slog.Any("error", nackErr),
		)
	}
}

// recordAttempt counts a failed attempt for eventID and returns the total
func (w *Worker) recordAttempt(eventID string) int {
	w.attemptsMu.Lock()
	defer w.attemptsMu.Unlock()
	w.attempts[eventID]++
	return w.attempts[eventID]
}

func (w *Worker) forgetAttempts(eventID string) {
	w.attemptsMu.Lock()
	delete(w.attempts, eventID)
	w.attemptsMu.Unlock()
}

// waitRetryDelay holds the delivery before requeue so a failing event does not
// spin. Shutdown cuts the wait short.
func (w *Worker) waitRetryDelay(ctx context.Context) {
	if w.retryDelay <= 0 {
		return
	}
	timer := time.NewTimer(w.retryDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-w.stopChan:
	}
}
