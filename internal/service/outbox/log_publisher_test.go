package outbox

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestLogPublisher_Publish(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	publisher := NewLogPublisher(log.NewEntry(logger))

	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "msg-1",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "o1",
		EventType:     domain.EventOrderCreated,
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected log entry")
	}
	if entry.Data["event_type"] != domain.EventOrderCreated {
		t.Fatalf("unexpected event_type field: %v", entry.Data["event_type"])
	}
}

func TestLogPublisher_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewLogPublisher(nil).Publish(ctx, domain.OutboxMessage{ID: "msg-1"}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
