package directory

import (
	"context"
	"errors"
)

// ErrNotFound is returned for lookups of unknown directory entities.
var ErrNotFound = errors.New("directory: not found")

// RolePhysiotherapist is the staff role allowed to take appointments.
const RolePhysiotherapist = "physiotherapist"

type Visitor struct {
	ID    string
	Name  string
	Email string
	Phone string
}

type Staff struct {
	ID            string
	Name          string
	Email         string
	Role          string
	InstitutionID string
}

type Institution struct {
	ID   string
	Name string
}

// Provider resolves visitor, staff and institution references. Lookups only;
// the appointment service never mutates directory entities.
type Provider interface {
	Visitor(ctx context.Context, id string) (*Visitor, error)
	Staff(ctx context.Context, id string) (*Staff, error)
	Institution(ctx context.Context, id string) (*Institution, error)
}
