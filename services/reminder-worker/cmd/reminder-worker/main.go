package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/agendafacil/agendafacil/libs/config"
	"github.com/agendafacil/agendafacil/libs/db"
	"github.com/agendafacil/agendafacil/libs/httpx"
	"github.com/agendafacil/agendafacil/libs/kafkax"
	otelx "github.com/agendafacil/agendafacil/libs/otel"
	"github.com/agendafacil/agendafacil/libs/runtime"
	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/notify"
	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/outbox"
	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/storage"
	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/worker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "reminder-worker")
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

	outboxRepo := outbox.NewRepository()
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	interval, err := config.Duration("REMINDER_POLL_INTERVAL", 5*time.Minute)
	if err != nil {
		panic(err)
	}
	leadTimes, err := config.Durations("REMINDER_LEAD_TIMES", []time.Duration{24 * time.Hour, time.Hour})
	if err != nil {
		panic(err)
	}

	sender, err := buildSender(logger)
	if err != nil {
		logger.Error("notifier setup failed", "err", err)
		panic(err)
	}

	store := storage.NewReminderStore(pool, outboxRepo)
	reminderWorker := worker.New(store, sender, logger, worker.Config{
		Interval:  interval,
		LeadTimes: leadTimes,
	})
	go reminderWorker.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "reminder-worker")
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

func buildSender(logger *slog.Logger) (notify.Sender, error) {
	provider := config.String("NOTIFY_PROVIDER", "webhook")
	switch provider {
	case "webhook":
		url, err := config.RequiredString("NOTIFY_WEBHOOK_URL")
		if err != nil {
			return nil, err
		}
		return notify.NewWebhookSender(url, config.String("NOTIFY_WEBHOOK_TOKEN", "")), nil
	case "grpc":
		sender, err := notify.NewGRPCSender(config.String("NOTIFY_GRPC_ADDR", "localhost:9090"))
		if err != nil {
			return nil, err
		}
		if sender == nil {
			logger.Warn("grpc notifier not compiled in, falling back to noop")
			return notify.NewNoopSender(), nil
		}
		return sender, nil
	default:
		logger.Warn("unknown notify provider, using noop", "provider", provider)
		return notify.NewNoopSender(), nil
	}
}
