//go:build protogen

package directory

import (
	"context"
	"time"

	"github.com/winsfit/visitdesk/libs/grpcx"
	directoryv1 "github.com/winsfit/visitdesk/protos/gen/directory/v1"
)

type grpcProvider struct {
	client directoryv1.DirectoryServiceClient
}

// NewGRPCProvider dials the directory service. An empty address disables the
// provider; callers fall back to direct table reads.
func NewGRPCProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: directoryv1.NewDirectoryServiceClient(conn)}, nil
}

func (p *grpcProvider) Visitor(ctx context.Context, id string) (*Visitor, error) {
	resp, err := p.client.GetVisitor(ctx, &directoryv1.GetVisitorRequest{Id: id})
	if err != nil {
		return nil, err
	}
	if resp.GetVisitor() == nil {
		return nil, ErrNotFound
	}
	v := resp.GetVisitor()
	return &Visitor{
		ID:    v.GetId(),
		Name:  v.GetName(),
		Email: v.GetEmail(),
		Phone: v.GetPhone(),
	}, nil
}

func (p *grpcProvider) Staff(ctx context.Context, id string) (*Staff, error) {
	resp, err := p.client.GetStaff(ctx, &directoryv1.GetStaffRequest{Id: id})
	if err != nil {
		return nil, err
	}
	if resp.GetStaff() == nil {
		return nil, ErrNotFound
	}
	s := resp.GetStaff()
	return &Staff{
		ID:            s.GetId(),
		Name:          s.GetName(),
		Email:         s.GetEmail(),
		Role:          s.GetRole(),
		InstitutionID: s.GetInstitutionId(),
	}, nil
}

func (p *grpcProvider) Institution(ctx context.Context, id string) (*Institution, error) {
	resp, err := p.client.GetInstitution(ctx, &directoryv1.GetInstitutionRequest{Id: id})
	if err != nil {
		return nil, err
	}
	if resp.GetInstitution() == nil {
		return nil, ErrNotFound
	}
	inst := resp.GetInstitution()
	return &Institution{
		ID:   inst.GetId(),
		Name: inst.GetName(),
	}, nil
}
