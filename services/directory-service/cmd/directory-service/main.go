package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/winsfit/visitdesk/libs/config"
	"github.com/winsfit/visitdesk/libs/db"
	"github.com/winsfit/visitdesk/libs/httpx"
	otelx "github.com/winsfit/visitdesk/libs/otel"
	"github.com/winsfit/visitdesk/libs/runtime"
	"github.com/winsfit/visitdesk/services/directory-service/internal/handlers"
	"github.com/winsfit/visitdesk/services/directory-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func newSigner(logger *slog.Logger) handlers.TokenSigner {
	if path := config.String("JWT_RS256_KEY_FILE", ""); path != "" {
		pemBytes, err := os.ReadFile(path)
		if err == nil {
			signer, err := handlers.NewRS256Signer(pemBytes, config.String("JWT_KID", ""))
			if err == nil {
				return signer
			}
			logger.Error("rs256 signer init failed, falling back to hs256", "err", err)
		} else {
			logger.Error("jwt key file unreadable, falling back to hs256", "err", err)
		}
	}
	return handlers.NewHS256Signer(config.String("JWT_SECRET", "dev-secret"))
}

func main() {
	service := config.String("SERVICE_NAME", "directory-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	institutions := storage.NewInstitutionRepository(pool)
	departments := storage.NewDepartmentRepository(pool)
	staff := storage.NewStaffRepository(pool)
	visitors := storage.NewVisitorRepository(pool)

	signer := newSigner(logger)
	authHandler := handlers.NewAuthHandler(signer, staff, visitors,
		config.Duration("JWT_TTL_SECONDS", 1*time.Hour))
	dirHandler := handlers.NewDirectoryHandler(institutions, departments, staff, visitors)

	startGRPC(ctx, logger, config.String("GRPC_ADDR", ""), institutions, staff, visitors)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
	)
	mux.HandleFunc("/api/v1/auth/staff/login", authHandler.StaffLogin)
	mux.HandleFunc("/api/v1/auth/visitors/register", authHandler.VisitorRegister)
	mux.HandleFunc("/api/v1/auth/visitors/login", authHandler.VisitorLogin)
	mux.HandleFunc("/api/v1/auth/me", authHandler.Me)
	mux.HandleFunc("/.well-known/jwks.json", authHandler.JWKS)
	mux.HandleFunc("/api/v1/directory/institutions", dirHandler.Institutions)
	mux.HandleFunc("/api/v1/directory/departments", dirHandler.Departments)
	mux.HandleFunc("/api/v1/directory/staff", dirHandler.Staff)
	mux.HandleFunc("/api/v1/directory/visitors", dirHandler.Visitors)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "directory")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
