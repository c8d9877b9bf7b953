package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/agendafacil/agendafacil/libs/config"
	"github.com/agendafacil/agendafacil/libs/db"
	"github.com/agendafacil/agendafacil/libs/httpx"
	otelx "github.com/agendafacil/agendafacil/libs/otel"
	"github.com/agendafacil/agendafacil/libs/runtime"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/handlers"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/storage"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/tenant"
)

func main() {
	service := config.String("SERVICE_NAME", "agenda-api")
	port, err := config.Port("PORT", "8080")
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
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	tenants := storage.NewTenantRepository(pool)
	customers := storage.NewCustomerRepository(pool)
	services := storage.NewServiceRepository(pool)
	appointments := storage.NewAppointmentRepository(pool)

	tokenTTL, err := config.Duration("TOKEN_TTL", 12*time.Hour)
	if err != nil {
		panic(err)
	}
	h := handlers.New(tenants, customers, services, appointments, logger, jwtSecret, tokenTTL)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}

	var rdb *redis.Client
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		readyChecks = append(readyChecks, runtime.ReadyCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		})
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/tenants", h.CreateTenant)
	mux.HandleFunc("/api/v1/auth/token", h.Token)
	mux.Handle("/api/v1/tenants/me", tenant.Require(http.HandlerFunc(h.Me), jwtSecret))
	mux.Handle("/api/v1/customers", tenant.Require(http.HandlerFunc(h.Customers), jwtSecret))
	mux.Handle("/api/v1/services", tenant.Require(http.HandlerFunc(h.Services), jwtSecret))
	mux.Handle("/api/v1/appointments", tenant.Require(http.HandlerFunc(h.Appointments), jwtSecret))
	mux.Handle("/api/v1/appointments/status", tenant.Require(http.HandlerFunc(h.AppointmentStatus), jwtSecret))
	mux.Handle("/api/v1/dashboard/summary", tenant.Require(http.HandlerFunc(h.DashboardSummary), jwtSecret))

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: splitCSV(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         10 * time.Minute,
		}),
	}

	rateLimit := atoiDefault(config.String("RATE_LIMIT_PER_MINUTE", "120"), 120)
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, "agenda-api")
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		limiter := httpx.NewRateLimiter(rateLimit, time.Minute)
		middlewares = append(middlewares, limiter.Middleware())
	}

	handler := httpx.Chain(mux, middlewares...)
	handler = otelhttp.NewHandler(handler, "agenda-api")
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

func splitCSV(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func atoiDefault(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
