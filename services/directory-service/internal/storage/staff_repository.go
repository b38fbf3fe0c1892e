package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/winsfit/visitdesk/libs/db"
)

type Staff struct {
	ID            string
	InstitutionID string
	Name          string
	Email         string
	PasswordHash  string
	Role          string
}

type StaffRepository struct {
	pool *db.Pool
}

func NewStaffRepository(pool *db.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

func (r *StaffRepository) Create(ctx context.Context, s Staff) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff_users (id, institution_id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.InstitutionID, s.Name, s.Email, s.PasswordHash, s.Role)
	return err
}

func (r *StaffRepository) GetByID(ctx context.Context, id string) (Staff, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (Staff, error) {
	return r.get(ctx, `WHERE email = $1`, email)
}

func (r *StaffRepository) get(ctx context.Context, where string, arg any) (Staff, error) {
	var s Staff
	err := r.pool.QueryRow(ctx, `
		SELECT id, institution_id, name, email, password_hash, role
		FROM staff_users
		`+where, arg).Scan(&s.ID, &s.InstitutionID, &s.Name, &s.Email, &s.PasswordHash, &s.Role)
	if err != nil {
		return Staff{}, err
	}
	return s, nil
}

func (r *StaffRepository) Update(ctx context.Context, s Staff) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE staff_users
		SET name = $2, role = $3
		WHERE id = $1
	`, s.ID, s.Name, s.Role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *StaffRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff_users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *StaffRepository) ListByInstitution(ctx context.Context, institutionID string) ([]Staff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, institution_id, name, email, password_hash, role
		FROM staff_users
		WHERE institution_id = $1
		ORDER BY name
	`, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		var s Staff
		if err := rows.Scan(&s.ID, &s.InstitutionID, &s.Name, &s.Email, &s.PasswordHash, &s.Role); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
