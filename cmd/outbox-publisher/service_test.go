package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/srejanashetty/efarm-backend/pkg/config"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/metrics"
	"github.com/srejanashetty/efarm-backend/pkg/outbox"
	"github.com/srejanashetty/efarm-backend/pkg/outbox/payloads"
	"github.com/srejanashetty/efarm-backend/pkg/outbox/registry"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDLQ struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQ) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakePubSub struct{}

func (fakePubSub) Ping(context.Context) error { return nil }

func (fakePubSub) Publisher(string) *gcppubsub.Publisher { return nil }

type result struct {
	err error
}

func (r result) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

// scriptedPublisher returns the queued errors in order, then successes.
type scriptedPublisher struct {
	errs   []error
	topics []string
	msgs   []*gcppubsub.Message
}

func (p *scriptedPublisher) forTopic(topic string) publisher {
	p.topics = append(p.topics, topic)
	return p
}

func (p *scriptedPublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.msgs = append(p.msgs, msg)
	if len(p.errs) == 0 {
		return result{}
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return result{err: err}
}

type harness struct {
	svc  *Service
	repo *fakeRepo
	dlq  *fakeDLQ
	pub  *scriptedPublisher
	reg  *prometheus.Registry
}

func newHarness(t *testing.T, maxAttempts int, events ...models.OutboxEvent) *harness {
	t.Helper()
	eventRegistry, err := registry.NewEventRegistry(config.PubSubConfig{
		OrdersTopic:  "orders",
		JobsTopic:    "jobs",
		CatalogTopic: "catalog",
	})
	require.NoError(t, err)

	h := &harness{
		repo: &fakeRepo{events: events},
		dlq:  &fakeDLQ{},
		pub:  &scriptedPublisher{},
		reg:  prometheus.NewRegistry(),
	}
	h.svc, err = NewService(ServiceParams{
		Config:     config.OutboxConfig{BatchSize: 10, MaxAttempts: maxAttempts},
		Logger:     logger.Nop(),
		DB:         fakeDB{},
		PubSub:     fakePubSub{},
		Repository: h.repo,
		DLQ:        h.dlq,
		Registry:   eventRegistry,
		Metrics:    metrics.NewOutboxMetrics(h.reg),
		Publishers: func(topic string) publisher { return h.pub.forTopic(topic) },
	})
	require.NoError(t, err)
	return h
}

func orderCreated(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	orderID := uuid.New()
	data, err := json.Marshal(payloads.OrderCreatedEvent{
		OrderID:     orderID,
		OrderNumber: "EF17000000000001",
		BuyerID:     uuid.New(),
		Total:       decimal.RequireFromString("35.00"),
	})
	require.NoError(t, err)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       envelope,
		AttemptCount:  attempts,
		CreatedAt:     time.Now().UTC(),
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if pair.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestDrainContinuesAfterTransientFailure(t *testing.T) {
	first, second := orderCreated(t, 0), orderCreated(t, 0)
	h := newHarness(t, 5, first, second)
	h.pub.errs = []error{errors.New("deadline exceeded")}

	claimed, err := h.svc.drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, claimed)
	assert.Equal(t, []uuid.UUID{first.ID}, h.repo.failed)
	assert.Equal(t, []uuid.UUID{second.ID}, h.repo.published)
	assert.Empty(t, h.dlq.entries)
	assert.Equal(t, []string{"orders", "orders"}, h.pub.topics)
	assert.Equal(t, second.AggregateID.String(), h.pub.msgs[1].Attributes["aggregate_id"])
	assert.Equal(t, 1.0, counterValue(t, h.reg, "efarm_outbox_published_total", string(enums.EventOrderCreated)))
	assert.Equal(t, 1.0, counterValue(t, h.reg, "efarm_outbox_publish_failures_total", string(enums.EventOrderCreated)))
}

func TestDrainDeadLettersPermanentStatus(t *testing.T) {
	event := orderCreated(t, 0)
	h := newHarness(t, 5, event)
	h.pub.errs = []error{status.Error(codes.NotFound, "topic missing")}

	_, err := h.svc.drain(context.Background())
	require.NoError(t, err)

	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, h.dlq.entries[0].ErrorReason)
	assert.Equal(t, []uuid.UUID{event.ID}, h.repo.terminal)
	assert.Empty(t, h.repo.failed)
	assert.Equal(t, 1.0, counterValue(t, h.reg, "efarm_outbox_dead_lettered_total", string(enums.OutboxDLQReasonNonRetryable)))
}

func TestDrainDeadLettersAfterMaxAttempts(t *testing.T) {
	event := orderCreated(t, 2)
	h := newHarness(t, 3, event)
	h.pub.errs = []error{status.Error(codes.Unavailable, "try again")}

	_, err := h.svc.drain(context.Background())
	require.NoError(t, err)

	require.Len(t, h.dlq.entries, 1)
	entry := h.dlq.entries[0]
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, entry.ErrorReason)
	assert.Equal(t, 3, entry.AttemptCount)
	require.NotNil(t, entry.ErrorMessage)
	assert.Contains(t, *entry.ErrorMessage, "max publish attempts reached")
}

func TestDrainDeadLettersUnknownEvents(t *testing.T) {
	event := orderCreated(t, 0)
	event.EventType = "order_teleported"
	h := newHarness(t, 5, event)

	_, err := h.svc.drain(context.Background())
	require.NoError(t, err)

	assert.Empty(t, h.pub.msgs)
	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, h.dlq.entries[0].ErrorReason)
}

func TestDrainEmptyBatch(t *testing.T) {
	h := newHarness(t, 5)

	claimed, err := h.svc.drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, claimed)
}

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{registry.NewNonRetryableError(errors.New("bad payload")), true},
		{status.Error(codes.PermissionDenied, "nope"), true},
		{status.Error(codes.InvalidArgument, "too big"), true},
		{status.Error(codes.Unavailable, "later"), false},
		{status.Error(codes.DeadlineExceeded, "slow"), false},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isPermanent(tc.err), tc.err.Error())
	}
}

func TestBackoffAndJitter(t *testing.T) {
	base := 500 * time.Millisecond
	assert.Equal(t, time.Second, nextBackoff(base, base, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(8*time.Second, base, maxBackoff))
	assert.Equal(t, time.Second, nextBackoff(0, base, maxBackoff))

	for range 20 {
		got := withJitter(base)
		assert.GreaterOrEqual(t, got, base)
		assert.Less(t, got, base+jitterWindow)
	}
	assert.Zero(t, withJitter(0))
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
