//go:build protogen

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/winsfit/visitdesk/libs/grpcx"
	directoryv1 "github.com/winsfit/visitdesk/protos/gen/directory/v1"
	"github.com/winsfit/visitdesk/services/directory-service/internal/grpcserver"
	"github.com/winsfit/visitdesk/services/directory-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

func startGRPC(ctx context.Context, logger *slog.Logger, addr string, institutions *storage.InstitutionRepository, staff *storage.StaffRepository, visitors *storage.VisitorRepository) {
	if addr == "" {
		return
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("grpc listen failed", "addr", addr, "err", err)
		return
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerRequestIDInterceptor()),
	)
	directoryv1.RegisterDirectoryServiceServer(srv, grpcserver.New(institutions, staff, visitors))

	go func() {
		logger.Info("grpc server starting", "addr", addr)
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()
}
