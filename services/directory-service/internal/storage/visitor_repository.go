package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/winsfit/visitdesk/libs/db"
)

type Visitor struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

type VisitorRepository struct {
	pool *db.Pool
}

func NewVisitorRepository(pool *db.Pool) *VisitorRepository {
	return &VisitorRepository{pool: pool}
}

func (r *VisitorRepository) Create(ctx context.Context, v Visitor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO visitors (id, name, email, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5)
	`, v.ID, v.Name, v.Email, v.Phone, v.PasswordHash)
	return err
}

func (r *VisitorRepository) GetByID(ctx context.Context, id string) (Visitor, error) {
	var v Visitor
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), password_hash
		FROM visitors
		WHERE id = $1
	`, id).Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.PasswordHash)
	if err != nil {
		return Visitor{}, err
	}
	return v, nil
}

func (r *VisitorRepository) GetByEmail(ctx context.Context, email string) (Visitor, error) {
	var v Visitor
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), password_hash
		FROM visitors
		WHERE email = $1
	`, email).Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.PasswordHash)
	if err != nil {
		return Visitor{}, err
	}
	return v, nil
}

func (r *VisitorRepository) Update(ctx context.Context, v Visitor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE visitors
		SET name = $2, phone = $3
		WHERE id = $1
	`, v.ID, v.Name, v.Phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *VisitorRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM visitors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *VisitorRepository) List(ctx context.Context, limit int) ([]Visitor, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), password_hash
		FROM visitors
		ORDER BY name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Visitor
	for rows.Next() {
		var v Visitor
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.PasswordHash); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
