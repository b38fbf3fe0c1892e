//go:build protogen

package grpcserver

import (
	"context"

	directoryv1 "github.com/winsfit/visitdesk/protos/gen/directory/v1"
	"github.com/winsfit/visitdesk/services/directory-service/internal/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server exposes directory lookups to sibling services over gRPC.
type Server struct {
	directoryv1.UnimplementedDirectoryServiceServer
	institutions *storage.InstitutionRepository
	staff        *storage.StaffRepository
	visitors     *storage.VisitorRepository
}

func New(institutions *storage.InstitutionRepository, staff *storage.StaffRepository, visitors *storage.VisitorRepository) *Server {
	return &Server{institutions: institutions, staff: staff, visitors: visitors}
}

func (s *Server) GetVisitor(ctx context.Context, req *directoryv1.GetVisitorRequest) (*directoryv1.GetVisitorResponse, error) {
	v, err := s.visitors.GetByID(ctx, req.GetId())
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, status.Error(codes.NotFound, "visitor not found")
		}
		return nil, status.Error(codes.Internal, "visitor lookup failed")
	}
	return &directoryv1.GetVisitorResponse{
		Visitor: &directoryv1.Visitor{
			Id:    v.ID,
			Name:  v.Name,
			Email: v.Email,
			Phone: v.Phone,
		},
	}, nil
}

func (s *Server) GetStaff(ctx context.Context, req *directoryv1.GetStaffRequest) (*directoryv1.GetStaffResponse, error) {
	st, err := s.staff.GetByID(ctx, req.GetId())
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, status.Error(codes.NotFound, "staff user not found")
		}
		return nil, status.Error(codes.Internal, "staff lookup failed")
	}
	return &directoryv1.GetStaffResponse{
		Staff: &directoryv1.Staff{
			Id:            st.ID,
			Name:          st.Name,
			Email:         st.Email,
			Role:          st.Role,
			InstitutionId: st.InstitutionID,
		},
	}, nil
}

func (s *Server) GetInstitution(ctx context.Context, req *directoryv1.GetInstitutionRequest) (*directoryv1.GetInstitutionResponse, error) {
	inst, err := s.institutions.GetByID(ctx, req.GetId())
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, status.Error(codes.NotFound, "institution not found")
		}
		return nil, status.Error(codes.Internal, "institution lookup failed")
	}
	return &directoryv1.GetInstitutionResponse{
		Institution: &directoryv1.Institution{
			Id:   inst.ID,
			Name: inst.Name,
		},
	}, nil
}
