package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/winsfit/visitdesk/libs/db"
)

type Institution struct {
	ID      string
	Name    string
	Address string
}

type InstitutionRepository struct {
	pool *db.Pool
}

func NewInstitutionRepository(pool *db.Pool) *InstitutionRepository {
	return &InstitutionRepository{pool: pool}
}

func (r *InstitutionRepository) Create(ctx context.Context, inst Institution) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO institutions (id, name, address)
		VALUES ($1, $2, $3)
	`, inst.ID, inst.Name, inst.Address)
	return err
}

func (r *InstitutionRepository) GetByID(ctx context.Context, id string) (Institution, error) {
	var inst Institution
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(address, '')
		FROM institutions
		WHERE id = $1
	`, id).Scan(&inst.ID, &inst.Name, &inst.Address)
	if err != nil {
		return Institution{}, err
	}
	return inst, nil
}

func (r *InstitutionRepository) Update(ctx context.Context, inst Institution) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE institutions
		SET name = $2, address = $3
		WHERE id = $1
	`, inst.ID, inst.Name, inst.Address)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *InstitutionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM institutions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *InstitutionRepository) List(ctx context.Context) ([]Institution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(address, '')
		FROM institutions
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Institution
	for rows.Next() {
		var inst Institution
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.Address); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
