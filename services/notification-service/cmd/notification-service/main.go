package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/winsfit/visitdesk/libs/config"
	"github.com/winsfit/visitdesk/libs/db"
	"github.com/winsfit/visitdesk/libs/httpx"
	"github.com/winsfit/visitdesk/libs/kafkax"
	otelx "github.com/winsfit/visitdesk/libs/otel"
	"github.com/winsfit/visitdesk/libs/runtime"
	"github.com/winsfit/visitdesk/services/notification-service/internal/consumer"
	"github.com/winsfit/visitdesk/services/notification-service/internal/email"
	"github.com/winsfit/visitdesk/services/notification-service/internal/inbox"
	"github.com/winsfit/visitdesk/services/notification-service/internal/outbox"
	"github.com/winsfit/visitdesk/services/notification-service/internal/render"
	"github.com/winsfit/visitdesk/services/notification-service/internal/sms"
	"github.com/winsfit/visitdesk/services/notification-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var consumedTopics = []string{
	"appointment.booked.v1",
	"appointment.canceled.v1",
	"appointment.checked_out.v1",
	"appointment.rescheduled.v1",
	"appointment.reminder.due.v1",
}

func writeDeliveryEvent(ctx context.Context, pool *db.Pool, outboxRepo *outbox.Repository, ev render.Event, msg render.Message, providerID, failureReason string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventType := "notification.sent.v1"
	fields := map[string]any{
		"appointment_id": ev.AppointmentID,
		"institution_id": ev.InstitutionID,
		"channel":        msg.Channel,
		"recipient":      msg.Recipient,
	}
	if failureReason != "" {
		eventType = "notification.failed.v1"
		fields["error_reason"] = failureReason
		fields["failed_at"] = time.Now().UTC().Format(time.RFC3339)
	} else {
		if strings.TrimSpace(providerID) == "" {
			providerID = "unknown"
		}
		fields["provider_id"] = providerID
		fields["sent_at"] = time.Now().UTC().Format(time.RFC3339)
	}

	eventPayload, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   ev.AppointmentID,
		EventType:     eventType,
		Payload:       eventPayload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8084")
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

	inboxRepo := inbox.NewRepository(pool)
	deliveries := storage.NewDeliveryRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@visitdesk.local")
	emailSender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)
	emailProviderID := "smtp"

	smsProvider := strings.ToLower(config.String("SMS_PROVIDER", "noop"))
	smsWebhookURL := config.String("SMS_WEBHOOK_URL", "")
	smsWebhookToken := config.String("SMS_WEBHOOK_TOKEN", "")
	var smsSender sms.Sender
	switch smsProvider {
	case "webhook":
		smsSender = sms.NewWebhookSender(smsWebhookURL, smsWebhookToken)
	default:
		smsSender = sms.NewNoopSender()
	}

	failSuffix := config.String("NOTIFICATION_FAIL_SUFFIX", "")
	consumerCfg := consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topics:  consumedTopics,
	}
	eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
		var ev render.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			logger.Error("invalid appointment event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if ev.AppointmentID == "" {
			logger.Error("appointment event missing appointment_id", "topic", msg.Topic)
			return nil
		}

		eventType := kafkax.ExtractEventMeta(msg).EventType
		messages := render.Messages(eventType, ev)
		if len(messages) == 0 {
			logger.Info("no deliveries for event", "event_type", eventType, "appointment_id", ev.AppointmentID)
			return nil
		}

		for _, m := range messages {
			providerID := ""
			failureReason := ""
			if failSuffix != "" && strings.HasSuffix(m.Recipient, failSuffix) {
				failureReason = "simulated failure"
			}

			if failureReason == "" {
				switch m.Channel {
				case render.ChannelEmail:
					if err := emailSender.Send(m.Recipient, m.Subject, m.Body); err != nil {
						failureReason = err.Error()
						logger.Error("email send failed", "err", err, "recipient", m.Recipient)
					} else {
						providerID = emailProviderID
					}
				case render.ChannelSMS:
					if err := smsSender.Send(ctx, m.Recipient, m.Body); err != nil {
						failureReason = err.Error()
						logger.Error("sms send failed", "err", err, "recipient", m.Recipient)
					} else {
						providerID = smsSender.ProviderID()
					}
				}
			}

			status := "sent"
			if failureReason != "" {
				status = "failed"
			}
			if err := deliveries.Insert(ctx, storage.Delivery{
				AppointmentID: ev.AppointmentID,
				InstitutionID: ev.InstitutionID,
				EventType:     eventType,
				Channel:       m.Channel,
				Recipient:     m.Recipient,
				Subject:       m.Subject,
				Status:        status,
				FailureReason: failureReason,
			}); err != nil {
				logger.Error("failed to persist delivery", "err", err)
				return err
			}
			if err := writeDeliveryEvent(ctx, pool, outboxRepo, ev, m, providerID, failureReason); err != nil {
				logger.Error("failed to enqueue delivery event", "err", err)
				return err
			}
			logger.Info("delivery processed",
				"appointment_id", ev.AppointmentID,
				"event_type", eventType,
				"channel", m.Channel,
				"status", status,
			)
		}
		return nil
	})
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
