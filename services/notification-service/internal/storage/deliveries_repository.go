package storage

import (
	"context"

	"github.com/winsfit/visitdesk/libs/db"
)

// Delivery is one attempted message send, kept as an audit trail.
type Delivery struct {
	AppointmentID string
	InstitutionID string
	EventType     string
	Channel       string
	Recipient     string
	Subject       string
	Status        string
	FailureReason string
}

type DeliveryRepository struct {
	pool *db.Pool
}

func NewDeliveryRepository(pool *db.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

func (r *DeliveryRepository) Insert(ctx context.Context, d Delivery) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_deliveries (appointment_id, institution_id, event_type, channel, recipient, subject, status, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.AppointmentID, d.InstitutionID, d.EventType, d.Channel, d.Recipient, d.Subject, d.Status, d.FailureReason)
	return err
}
