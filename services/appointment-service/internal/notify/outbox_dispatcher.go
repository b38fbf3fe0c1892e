package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/winsfit/visitdesk/libs/db"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/outbox"
)

// OutboxDispatcher records events in the transactional outbox; the outbox
// publisher relays them to Kafka. Each dispatch is its own short transaction,
// committed after the appointment row itself.
type OutboxDispatcher struct {
	pool *db.Pool
	repo *outbox.Repository
}

func NewOutboxDispatcher(pool *db.Pool, repo *outbox.Repository) *OutboxDispatcher {
	return &OutboxDispatcher{pool: pool, repo: repo}
}

func (d *OutboxDispatcher) BookingConfirmed(ctx context.Context, snap Snapshot) error {
	return d.insert(ctx, TopicBooked, snap)
}

func (d *OutboxDispatcher) Canceled(ctx context.Context, snap Snapshot) error {
	return d.insert(ctx, TopicCanceled, snap)
}

func (d *OutboxDispatcher) CheckedOut(ctx context.Context, snap Snapshot) error {
	return d.insert(ctx, TopicCheckedOut, snap)
}

func (d *OutboxDispatcher) Rescheduled(ctx context.Context, snap Snapshot) error {
	return d.insert(ctx, TopicRescheduled, snap)
}

func (d *OutboxDispatcher) Reminder(ctx context.Context, snap Snapshot) error {
	return d.insert(ctx, TopicReminderDue, snap)
}

func (d *OutboxDispatcher) insert(ctx context.Context, eventType string, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("notify: marshal %s: %w", eventType, err)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("notify: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	evt := outbox.Event{
		AggregateType: "appointment",
		AggregateID:   snap.AppointmentID,
		EventType:     eventType,
		Payload:       payload,
	}
	if err := d.repo.Insert(ctx, tx, evt); err != nil {
		return fmt.Errorf("notify: outbox insert %s: %w", eventType, err)
	}
	return tx.Commit(ctx)
}
