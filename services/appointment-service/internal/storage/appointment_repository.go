package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/winsfit/visitdesk/libs/db"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/model"
)

const appointmentColumns = `
	id, passcode, visitor_id, staff_id, institution_id, department,
	date, slot_time, status, meeting_type, COALESCE(meeting_link, ''), COALESCE(notes, ''),
	check_in_at, check_out_at, canceled_at, COALESCE(cancel_reason, ''),
	created_at, updated_at`

// AppointmentRepository implements the lifecycle service's store over
// Postgres. Slot times are stored as HH:MM text; dates as date columns.
type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *AppointmentRepository) FindAll(ctx context.Context) ([]model.Appointment, error) {
	return r.query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY date, slot_time
	`)
}

// Save upserts the appointment row. The passcode column carries a unique
// index; a collision surfaces as a constraint violation.
func (r *AppointmentRepository) Save(ctx context.Context, appt *model.Appointment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments
			(id, passcode, visitor_id, staff_id, institution_id, department,
			 date, slot_time, status, meeting_type, meeting_link, notes,
			 check_in_at, check_out_at, canceled_at, cancel_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			passcode = EXCLUDED.passcode,
			date = EXCLUDED.date,
			slot_time = EXCLUDED.slot_time,
			status = EXCLUDED.status,
			meeting_link = EXCLUDED.meeting_link,
			notes = EXCLUDED.notes,
			check_in_at = EXCLUDED.check_in_at,
			check_out_at = EXCLUDED.check_out_at,
			canceled_at = EXCLUDED.canceled_at,
			cancel_reason = EXCLUDED.cancel_reason,
			updated_at = EXCLUDED.updated_at
	`, appt.ID, appt.Passcode, appt.VisitorID, appt.StaffID, appt.InstitutionID, appt.Department,
		appt.Date, string(appt.Time), string(appt.Status), string(appt.MeetingType), appt.MeetingLink, appt.Notes,
		appt.CheckInAt, appt.CheckOutAt, appt.CanceledAt, appt.CancelReason, appt.CreatedAt, appt.UpdatedAt)
	return err
}

func (r *AppointmentRepository) ExistsByPasscode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM appointments WHERE passcode = $1)
	`, code).Scan(&exists)
	return exists, err
}

func (r *AppointmentRepository) FindByVisitor(ctx context.Context, visitorID string) ([]model.Appointment, error) {
	return r.query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE visitor_id = $1
		ORDER BY date, slot_time
	`, visitorID)
}

func (r *AppointmentRepository) FindByDepartmentDateInstitution(ctx context.Context, department string, date time.Time, institutionID string) ([]model.Appointment, error) {
	return r.query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE department = $1 AND date = $2 AND institution_id = $3
		ORDER BY slot_time
	`, department, date, institutionID)
}

func (r *AppointmentRepository) FindByInstitution(ctx context.Context, institutionID string) ([]model.Appointment, error) {
	return r.query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE institution_id = $1
		ORDER BY date, slot_time
	`, institutionID)
}

func (r *AppointmentRepository) FindByStaff(ctx context.Context, staffID string) ([]model.Appointment, error) {
	return r.query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE staff_id = $1
		ORDER BY date, slot_time
	`, staffID)
}

func (r *AppointmentRepository) FindByInstitutionDateStatus(ctx context.Context, institutionID string, date time.Time, status model.Status) ([]model.Appointment, error) {
	return r.query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE institution_id = $1 AND date = $2 AND status = $3
		ORDER BY slot_time
	`, institutionID, date, string(status))
}

func (r *AppointmentRepository) FindStartingBetween(ctx context.Context, date time.Time, from, to model.ClockTime) ([]model.Appointment, error) {
	return r.query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1 AND slot_time >= $2 AND slot_time <= $3
		ORDER BY slot_time
	`, date, string(from), string(to))
}

func (r *AppointmentRepository) query(ctx context.Context, sql string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var slotTime, status, meetingType string
	err := row.Scan(
		&appt.ID,
		&appt.Passcode,
		&appt.VisitorID,
		&appt.StaffID,
		&appt.InstitutionID,
		&appt.Department,
		&appt.Date,
		&slotTime,
		&status,
		&meetingType,
		&appt.MeetingLink,
		&appt.Notes,
		&appt.CheckInAt,
		&appt.CheckOutAt,
		&appt.CanceledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Time = model.ClockTime(slotTime)
	appt.Status = model.Status(status)
	appt.MeetingType = model.MeetingType(meetingType)
	return appt, nil
}
