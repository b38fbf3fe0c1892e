package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/winsfit/visitdesk/libs/db"
)

// Department is a named unit within an institution. Appointments reference
// departments by name, so renames are not supported; recreate instead.
type Department struct {
	ID            string
	InstitutionID string
	Name          string
}

type DepartmentRepository struct {
	pool *db.Pool
}

func NewDepartmentRepository(pool *db.Pool) *DepartmentRepository {
	return &DepartmentRepository{pool: pool}
}

func (r *DepartmentRepository) Create(ctx context.Context, d Department) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO departments (id, institution_id, name)
		VALUES ($1, $2, $3)
	`, d.ID, d.InstitutionID, d.Name)
	return err
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (Department, error) {
	var d Department
	err := r.pool.QueryRow(ctx, `
		SELECT id, institution_id, name
		FROM departments
		WHERE id = $1
	`, id).Scan(&d.ID, &d.InstitutionID, &d.Name)
	if err != nil {
		return Department{}, err
	}
	return d, nil
}

func (r *DepartmentRepository) ListByInstitution(ctx context.Context, institutionID string) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, institution_id, name
		FROM departments
		WHERE institution_id = $1
		ORDER BY name
	`, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.InstitutionID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
