package main

import (
	"context"
	"net/http"
	"time"

	"github.com/agendafacil/agendafacil/libs/config"
	"github.com/agendafacil/agendafacil/libs/db"
	"github.com/agendafacil/agendafacil/libs/httpx"
	"github.com/agendafacil/agendafacil/libs/kafkax"
	otelx "github.com/agendafacil/agendafacil/libs/otel"
	"github.com/agendafacil/agendafacil/libs/runtime"
	"github.com/agendafacil/agendafacil/services/analytics/internal/consumer"
	"github.com/agendafacil/agendafacil/services/analytics/internal/inbox"
	"github.com/agendafacil/agendafacil/services/analytics/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "analytics")
	port, err := config.Port("PORT", "8083")
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
	metricsRepo := metrics.NewRepository(pool)

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "analytics")

	sentConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "reminder.sent.v1",
	}, func(ctx context.Context, meta kafkax.EventMeta, payload []byte) error {
		evt, err := metrics.ParseSent(payload)
		if err != nil {
			logger.Error("invalid reminder.sent payload", "event_id", meta.EventID)
			return nil
		}
		if err := metricsRepo.RecordSent(ctx, evt); err != nil {
			logger.Error("failed to write sent metric", "err", err)
			return err
		}
		logger.Info("reminder metric recorded", "appointment_id", evt.AppointmentID, "tenant_id", evt.TenantID, "lead_time_minutes", evt.LeadTimeMinutes)
		return nil
	})
	go sentConsumer.Run(ctx)

	failedConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "reminder.failed.v1",
	}, func(ctx context.Context, meta kafkax.EventMeta, payload []byte) error {
		evt, err := metrics.ParseFailed(payload)
		if err != nil {
			logger.Error("invalid reminder.failed payload", "event_id", meta.EventID)
			return nil
		}
		if err := metricsRepo.RecordFailed(ctx, evt); err != nil {
			logger.Error("failed to write failed metric", "err", err)
			return err
		}
		logger.Warn("reminder failure recorded", "appointment_id", evt.AppointmentID, "tenant_id", evt.TenantID, "reason", evt.ErrorReason)
		return nil
	})
	go failedConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "analytics")
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
