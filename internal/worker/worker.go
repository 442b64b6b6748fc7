package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	core "github.com/cuongbtq/farmhand/internal/domain"
	"github.com/cuongbtq/farmhand/internal/worker/domain"
)

// ErrDeliveriesClosed is returned by Start when the broker closes the delivery channel
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Store is the persistence the worker needs to turn decisions into contracts
type Store interface {
	GetDecidedApplication(ctx context.Context, applicationID int64) (*domain.DecidedApplication, error)
	IssueContract(ctx context.Context, contract core.Contract, eventID string) (bool, error)
}

// Source delivers decision events; *rabbitmq.Client satisfies it
type Source interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// DefaultMaxRetries caps requeues of one event when Config.MaxRetries is unset
const DefaultMaxRetries = 5

// Config holds worker configuration
type Config struct {
	Logger       *slog.Logger
	Store        Store
	Source       Source
	WorkerID     string
	Concurrency  int
	EventTimeout time.Duration
	// MaxRetries is how many times a retryable event is requeued before it
	// is dropped.
	MaxRetries int
	// RetryDelay is waited before a requeue
	RetryDelay time.Duration
}

// Worker consumes application decisions and issues contracts for accepted ones
type Worker struct {
	logger       *slog.Logger
	store        Store
	source       Source
	workerID     string
	concurrency  int
	eventTimeout time.Duration
	maxRetries   int
	retryDelay   time.Duration
	newID        func() string

	attemptsMu sync.Mutex
	attempts   map[string]int

	tasks    chan *task
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// task is a parsed event waiting for a pool goroutine
type task struct {
	event    core.DecisionEvent
	delivery amqp.Delivery
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = "worker-" + uuid.NewString()[:8]
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &Worker{
		logger:       cfg.Logger,
		store:        cfg.Store,
		source:       cfg.Source,
		workerID:     workerID,
		concurrency:  concurrency,
		eventTimeout: cfg.EventTimeout,
		maxRetries:   maxRetries,
		retryDelay:   cfg.RetryDelay,
		newID:        uuid.NewString,
		attempts:     make(map[string]int),
		tasks:        make(chan *task),
		stopChan:     make(chan struct{}),
	}
}

// Start subscribes to the queue, spawns the pool and dispatches deliveries
// until ctx is canceled or the broker closes the channel.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("event_timeout", w.eventTimeout),
		slog.Int("max_retries", w.maxRetries),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	return w.dispatch(ctx, deliveries)
}

// Stop signals the pool and waits for in-flight events to finish
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
