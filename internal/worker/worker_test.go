package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/cuongbtq/farmhand/internal/domain"
	"github.com/cuongbtq/farmhand/internal/worker/domain"
	"github.com/cuongbtq/farmhand/shared/logger"
)

const (
	eventA = "6f1c0f38-3a5e-4c43-9a53-0c7a1c5d2b11"
	eventB = "0b6e47d5-8d0e-4c3f-9a4b-2f1e5c7d9a20"
)

type fakeStore struct {
	mu        sync.Mutex
	apps      map[int64]domain.DecidedApplication
	contracts map[int64]core.Contract
	getErr    error
	issueErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		apps: map[int64]domain.DecidedApplication{
			7: {ApplicationID: 7, JobID: 1, JobTitle: "Pick", Pay: "$20/hr", StartDate: "2026-06-01", WorkerID: "W1", GrowerID: "G1", FarmName: core.Ptr("Sunny Acres"), Status: core.StatusAccepted},
			8: {ApplicationID: 8, JobID: 1, JobTitle: "Pick", Pay: "$20/hr", StartDate: "2026-06-01", WorkerID: "W2", GrowerID: "G1", Status: core.StatusRejected},
			9: {ApplicationID: 9, JobID: 1, JobTitle: "Pick", Pay: "$20/hr", StartDate: "2026-06-01", WorkerID: "W3", GrowerID: "G1", Status: core.StatusPending},
		},
		contracts: map[int64]core.Contract{},
	}
}

func (f *fakeStore) GetDecidedApplication(_ context.Context, id int64) (*domain.DecidedApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	app, ok := f.apps[id]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	return &app, nil
}

func (f *fakeStore) IssueContract(_ context.Context, c core.Contract, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.issueErr != nil {
		return false, f.issueErr
	}
	if _, ok := f.contracts[c.ApplicationID]; ok {
		return false, nil
	}
	f.contracts[c.ApplicationID] = c
	return true, nil
}

func (f *fakeStore) contract(id int64) (core.Contract, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	return c, ok
}

type settlement struct {
	tag     uint64
	ack     bool
	requeue bool
}

type fakeAcknowledger struct {
	settled chan settlement
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.settled <- settlement{tag: tag, ack: true}
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.settled <- settlement{tag: tag, requeue: requeue}
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeSource struct {
	deliveries chan amqp.Delivery
	err        error
	tag        string
}

func (s *fakeSource) Consume(consumerTag string) (<-chan amqp.Delivery, error) {
	s.tag = consumerTag
	return s.deliveries, s.err
}

func newTestWorker(store Store, source Source) *Worker {
	w := NewWorker(&Config{
		Logger:       logger.NewDiscard().Logger,
		Store:        store,
		Source:       source,
		WorkerID:     "test-worker",
		Concurrency:  2,
		EventTimeout: time.Second,
	})
	w.newID = func() string { return "c-1" }
	return w
}

func TestProcessEvent(t *testing.T) {
	tests := []struct {
		name          string
		event         core.DecisionEvent
		setup         func(*fakeStore)
		wantErr       error
		wantErrText   string
		wantRetryable bool
		wantContract  bool
	}{
		{
			name:         "accepted issues contract",
			event:        core.DecisionEvent{EventID: eventA, ApplicationID: 7, Status: core.StatusAccepted},
			wantContract: true,
		},
		{
			name:  "rejected is a no-op",
			event: core.DecisionEvent{EventID: eventA, ApplicationID: 8, Status: core.StatusRejected},
		},
		{
			name:    "pending is not a decision",
			event:   core.DecisionEvent{EventID: eventA, ApplicationID: 7, Status: core.StatusPending},
			wantErr: domain.ErrUnknownDecision,
		},
		{
			name:    "missing application",
			event:   core.DecisionEvent{EventID: eventA, ApplicationID: 99, Status: core.StatusAccepted},
			wantErr: domain.ErrApplicationNotFound,
		},
		{
			name:    "stored status disagrees",
			event:   core.DecisionEvent{EventID: eventA, ApplicationID: 8, Status: core.StatusAccepted},
			wantErr: domain.ErrNotAccepted,
		},
		{
			name:          "decision not yet committed",
			event:         core.DecisionEvent{EventID: eventA, ApplicationID: 9, Status: core.StatusAccepted},
			wantErr:       domain.ErrNotAccepted,
			wantRetryable: true,
		},
		{
			name:          "lookup failure is retryable",
			event:         core.DecisionEvent{EventID: eventA, ApplicationID: 7, Status: core.StatusAccepted},
			setup:         func(f *fakeStore) { f.getErr = errors.New("connection reset") },
			wantErrText:   "connection reset",
			wantRetryable: true,
		},
		{
			name:          "insert failure is retryable",
			event:         core.DecisionEvent{EventID: eventA, ApplicationID: 7, Status: core.StatusAccepted},
			setup:         func(f *fakeStore) { f.issueErr = errors.New("deadlock detected") },
			wantErrText:   "deadlock detected",
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			if tt.setup != nil {
				tt.setup(store)
			}
			w := newTestWorker(store, nil)

			err := w.processEvent(context.Background(), tt.event)

			if tt.wantErr != nil || tt.wantErrText != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				assert.ErrorContains(t, err, tt.wantErrText)
				assert.Equal(t, tt.wantRetryable, domain.IsRetryable(err))
				return
			}
			require.NoError(t, err)

			c, ok := store.contract(tt.event.ApplicationID)
			assert.Equal(t, tt.wantContract, ok)
			if tt.wantContract {
				assert.Equal(t, core.Contract{
					ID:            "c-1",
					ApplicationID: 7,
					JobID:         1,
					JobTitle:      "Pick",
					Pay:           "$20/hr",
					StartDate:     "2026-06-01",
					WorkerID:      "W1",
					GrowerID:      "G1",
					FarmName:      "Sunny Acres",
					Status:        core.ContractStatusIssued,
				}, c)
			}
		})
	}
}

func TestProcessEvent_DuplicateIsAcknowledged(t *testing.T) {
	store := newFakeStore()
	w := newTestWorker(store, nil)
	ev := core.DecisionEvent{EventID: eventA, ApplicationID: 7, Status: core.StatusAccepted}

	require.NoError(t, w.processEvent(context.Background(), ev))
	ev.EventID = eventB
	require.NoError(t, w.processEvent(context.Background(), ev))

	c, ok := store.contract(7)
	require.True(t, ok)
	assert.Equal(t, "c-1", c.ID)
}

func TestWorker_SettlesDeliveries(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{deliveries: make(chan amqp.Delivery)}
	ack := &fakeAcknowledger{settled: make(chan settlement, 8)}
	w := newTestWorker(store, source)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	send := func(tag uint64, body string) {
		select {
		case source.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: []byte(body)}:
		case <-time.After(2 * time.Second):
			t.Fatal("delivery not consumed")
		}
	}

	send(1, `{"event_id":"`+eventA+`","application_id":7,"status":"accepted"}`)
	send(2, `{"event_id":"`+eventB+`","application_id":8,"status":"rejected"}`)
	send(3, `not json`)
	send(4, `{"event_id":"evt-4","application_id":7,"status":"accepted"}`)
	send(5, `{"event_id":"`+eventB+`","application_id":9,"status":"accepted"}`)

	got := map[uint64]settlement{}
	for len(got) < 5 {
		select {
		case s := <-ack.settled:
			got[s.tag] = s
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d deliveries settled", len(got))
		}
	}

	assert.True(t, got[1].ack)
	assert.True(t, got[2].ack)
	assert.Equal(t, settlement{tag: 3}, got[3])
	assert.Equal(t, settlement{tag: 4}, got[4])
	assert.Equal(t, settlement{tag: 5, requeue: true}, got[5])
	assert.Equal(t, "test-worker", source.tag)

	_, issued := store.contract(7)
	assert.True(t, issued)

	cancel()
	require.NoError(t, <-done)
	w.Stop()
}

func TestHandle_DropsEventAfterMaxRetries(t *testing.T) {
	store := newFakeStore()
	w := newTestWorker(store, nil)
	w.maxRetries = 3
	ack := &fakeAcknowledger{settled: make(chan settlement, 8)}
	ev := core.DecisionEvent{EventID: eventB, ApplicationID: 9, Status: core.StatusAccepted}

	var got []settlement
	for tag := uint64(1); tag <= 4; tag++ {
		w.handle(context.Background(), "test-worker-0", &task{
			event:    ev,
			delivery: amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Redelivered: tag > 1},
		})
		got = append(got, <-ack.settled)
	}

	assert.Equal(t, []settlement{
		{tag: 1, requeue: true},
		{tag: 2, requeue: true},
		{tag: 3, requeue: true},
		{tag: 4, requeue: false},
	}, got)
	assert.Empty(t, w.attempts)

	_, issued := store.contract(9)
	assert.False(t, issued)
}

func TestHandle_SuccessAfterRetryClearsAttempts(t *testing.T) {
	store := newFakeStore()
	w := newTestWorker(store, nil)
	ack := &fakeAcknowledger{settled: make(chan settlement, 8)}
	ev := core.DecisionEvent{EventID: eventB, ApplicationID: 9, Status: core.StatusAccepted}

	w.handle(context.Background(), "test-worker-0", &task{event: ev, delivery: amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}})
	assert.Equal(t, settlement{tag: 1, requeue: true}, <-ack.settled)
	assert.Equal(t, 1, w.attempts[eventB])

	store.mu.Lock()
	app := store.apps[9]
	app.Status = core.StatusAccepted
	store.apps[9] = app
	store.mu.Unlock()

	w.handle(context.Background(), "test-worker-0", &task{event: ev, delivery: amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Redelivered: true}})
	assert.Equal(t, settlement{tag: 2, ack: true}, <-ack.settled)
	assert.Empty(t, w.attempts)

	_, issued := store.contract(9)
	assert.True(t, issued)
}

func TestWaitRetryDelay_StopsOnCancel(t *testing.T) {
	w := newTestWorker(newFakeStore(), nil)
	w.retryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		w.waitRetryDelay(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retry delay ignored canceled context")
	}
}

func TestWorker_StartReportsClosedChannel(t *testing.T) {
	source := &fakeSource{deliveries: make(chan amqp.Delivery)}
	close(source.deliveries)
	w := newTestWorker(newFakeStore(), source)

	err := w.Start(context.Background())
	assert.ErrorIs(t, err, ErrDeliveriesClosed)
	w.Stop()
	w.Stop()
}

func TestWorker_StartFailsWithoutConsumer(t *testing.T) {
	source := &fakeSource{err: errors.New("not connected")}
	w := newTestWorker(newFakeStore(), source)

	err := w.Start(context.Background())
	assert.ErrorContains(t, err, "failed to set up consumer")
}
