//go:build !protogen

package main

import (
	"context"
	"log/slog"

	"github.com/winsfit/visitdesk/services/directory-service/internal/storage"
)

func startGRPC(_ context.Context, logger *slog.Logger, addr string, _ *storage.InstitutionRepository, _ *storage.StaffRepository, _ *storage.VisitorRepository) {
	if addr != "" {
		logger.Warn("grpc server requested but binary built without protogen bindings", "addr", addr)
	}
}
