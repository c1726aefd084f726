package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aydindemir/driftops-backend/pkg/config"
	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	"github.com/aydindemir/driftops-backend/pkg/logger"
	"github.com/aydindemir/driftops-backend/pkg/outbox"
	"github.com/aydindemir/driftops-backend/pkg/outbox/payloads"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (r *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	if len(r.events) > limit {
		return r.events[:limit], nil
	}
	return r.events, nil
}

func (r *fakeRepo) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakeRegistry struct {
	resolved *outbox.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(models.OutboxEvent) (*outbox.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resolved, nil
}

type fakePublishResult struct {
	err error
}

func (r fakePublishResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "msg-id", nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	if len(p.results) == 0 {
		return fakePublishResult{}
	}
	result := p.results[0]
	p.results = p.results[1:]
	return result
}

type stubPubSub struct{}

func (stubPubSub) Ping(context.Context) error            { return nil }
func (stubPubSub) Publisher(string) *gcppubsub.Publisher { return nil }

func newTestService(t *testing.T, repo outboxRepository, pub publisher, reg registryResolver) *Service {
	t.Helper()

	cfg := &config.Config{}
	cfg.Outbox.BatchSize = 10
	cfg.Outbox.MaxAttempts = 5
	cfg.Outbox.PollIntervalMS = 10

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		PubSub:     stubPubSub{},
		Repository: repo,
		Registry:   reg,
		PublisherFactory: func(string) publisher {
			return pub
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func mustEnvelopePayload(t *testing.T, data any) json.RawMessage {
	t.Helper()

	inner, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       inner,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

func reversedEvent(t *testing.T) models.OutboxEvent {
	t.Helper()

	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventTransactionReversed,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.New(),
		Payload: mustEnvelopePayload(t, payloads.TransactionReversedEvent{
			TransactionID: uuid.New(),
			ReversalID:    uuid.New(),
			CustomerID:    uuid.New(),
			Amount:        decimal.NewFromInt(100),
		}),
	}
}

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{reversedEvent(t), reversedEvent(t)}}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	resolved := &outbox.ResolvedEvent{
		Descriptor: outbox.EventDescriptor{
			EventType:     enums.EventTransactionReversed,
			AggregateType: enums.AggregateTransaction,
			Topic:         "driftops-domain-events",
		},
		Envelope: outbox.PayloadEnvelope{EventID: uuid.NewString(), OccurredAt: time.Now()},
		Payload:  &payloads.TransactionReversedEvent{},
	}
	service := newTestService(t, repo, pub, &fakeRegistry{resolved: resolved})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestServiceProcessBatchEmpty(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakePublisher{}, &fakeRegistry{})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("empty batch should not report processed")
	}
}

func TestServiceResolveFailureMarksRowFailed(t *testing.T) {
	event := reversedEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	service := newTestService(t, repo, pub, &fakeRegistry{err: errors.New("unknown event")})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(pub.messages) != 0 {
		t.Fatalf("unresolvable event must not be published")
	}
	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("expected the row to be marked failed")
	}
}

func TestServicePublishWithRealRegistry(t *testing.T) {
	event := reversedEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}

	registry, err := outbox.NewEventRegistry(config.PubSubConfig{EventsTopic: "driftops-domain-events"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	service := newTestService(t, repo, pub, registry)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.published) != 1 {
		t.Fatalf("expected one published row, got %d", len(repo.published))
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one publish call, got %d", len(pub.messages))
	}

	msg := pub.messages[0]
	if msg.Attributes["event_type"] != string(enums.EventTransactionReversed) {
		t.Fatalf("unexpected event_type attribute %q", msg.Attributes["event_type"])
	}
	if msg.Attributes["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id attribute %q", msg.Attributes["aggregate_id"])
	}
}

func TestServiceRejectsMissingDependencies(t *testing.T) {
	cfg := &config.Config{}
	_, err := NewService(ServiceParams{Config: cfg})
	if err == nil {
		t.Fatalf("expected constructor to fail without dependencies")
	}
}
