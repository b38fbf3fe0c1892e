package main

import (
	"context"
	"net/http"
	"time"

	"github.com/winsfit/visitdesk/libs/config"
	"github.com/winsfit/visitdesk/libs/db"
	"github.com/winsfit/visitdesk/libs/httpx"
	"github.com/winsfit/visitdesk/libs/kafkax"
	otelx "github.com/winsfit/visitdesk/libs/otel"
	"github.com/winsfit/visitdesk/libs/runtime"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/booking"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/directory"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/handlers"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/notify"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/outbox"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/passcode"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/reminder"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "appointment-service")
	port, err := config.Port("PORT", "8081")
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

	loc, err := time.LoadLocation(config.String("APPOINTMENT_TZ", "Local"))
	if err != nil {
		logger.Error("invalid APPOINTMENT_TZ, falling back to local", "err", err)
		loc = time.Local
	}

	repo := storage.NewAppointmentRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	var dir directory.Provider
	dir, err = directory.NewGRPCProvider(config.String("DIRECTORY_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("directory grpc provider init failed; using table reads", "err", err)
		dir = nil
	}
	if dir == nil {
		dir = storage.NewDirectoryRepository(pool)
	}

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	svc := booking.NewService(booking.Deps{
		Store:     repo,
		Directory: dir,
		Passcodes: passcode.NewGenerator(repo),
		Notifier:  notify.NewOutboxDispatcher(pool, outboxRepo),
		Location:  loc,
		LinkBase:  config.String("MEETING_LINK_BASE", "https://meet.jit.si"),
		Logger:    logger,
	})

	sweeper := reminder.NewSweeper(svc, logger, reminder.Config{
		Interval:  config.Duration("REMINDER_SWEEP_SECONDS", 60*time.Second),
		Lookahead: config.Duration("REMINDER_LOOKAHEAD_SECONDS", 30*time.Minute),
	})
	go sweeper.Run(ctx)

	apptHandler := handlers.NewAppointmentHandler(svc, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/public/slots", apptHandler.Slots)
	mux.HandleFunc("/api/v1/appointments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			apptHandler.Create(w, r)
			return
		}
		apptHandler.List(w, r)
	})
	mux.HandleFunc("/api/v1/appointments/get", apptHandler.Get)
	mux.HandleFunc("/api/v1/appointments/checkin", apptHandler.CheckIn)
	mux.HandleFunc("/api/v1/appointments/checkout", apptHandler.CheckOut)
	mux.HandleFunc("/api/v1/appointments/cancel", apptHandler.Cancel)
	mux.HandleFunc("/api/v1/appointments/reschedule", apptHandler.Reschedule)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "appointment")
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
