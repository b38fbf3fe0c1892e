package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/winsfit/visitdesk/libs/db"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/directory"
)

// DirectoryRepository resolves visitor, staff and institution references by
// reading the directory tables directly. The directory service owns the
// writes; this repository is read only.
type DirectoryRepository struct {
	pool *db.Pool
}

func NewDirectoryRepository(pool *db.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

func (r *DirectoryRepository) Visitor(ctx context.Context, id string) (*directory.Visitor, error) {
	var v directory.Visitor
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(phone, '')
		FROM visitors
		WHERE id = $1
	`, id).Scan(&v.ID, &v.Name, &v.Email, &v.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, directory.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *DirectoryRepository) Staff(ctx context.Context, id string) (*directory.Staff, error) {
	var s directory.Staff
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, role, institution_id
		FROM staff_users
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Email, &s.Role, &s.InstitutionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, directory.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *DirectoryRepository) Institution(ctx context.Context, id string) (*directory.Institution, error) {
	var inst directory.Institution
	err := r.pool.QueryRow(ctx, `
		SELECT id, name
		FROM institutions
		WHERE id = $1
	`, id).Scan(&inst.ID, &inst.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, directory.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}
