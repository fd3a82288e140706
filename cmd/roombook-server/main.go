package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"roombook/backend/internal/auth"
	"roombook/backend/internal/config"
	"roombook/backend/internal/export"
	"roombook/backend/internal/metrics"
	"roombook/backend/internal/ratelimit"
	"roombook/backend/internal/service/booking"
	"roombook/backend/internal/store"
	"roombook/backend/internal/store/memory"
	"roombook/backend/internal/store/postgres"
	grpcTransport "roombook/backend/internal/transport/grpc"
	httpTransport "roombook/backend/internal/transport/http"
)

type backend interface {
	store.RoomRepository
	store.ReservationRepository
	httpTransport.Pinger
}

type repositories struct {
	*postgres.RoomRepo
	*postgres.ReservationRepo
	pinger httpTransport.Pinger
}

func (r repositories) PingContext(ctx context.Context) error {
	return r.pinger.PingContext(ctx)
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "roombook-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "roombook-server"),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db backend
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		db = memory.New()
	default:
		log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pg, err := postgres.Open(openCtx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		cancel()
		if err != nil {
			args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
			log.Error("database connection failed", args...)
			os.Exit(1)
		}
		defer func() {
			if err := postgres.Close(pg); err != nil {
				log.Warn("database close failed", slog.Any("err", err))
			}
		}()
		db = repositories{
			RoomRepo:        postgres.NewRoomRepo(pg),
			ReservationRepo: postgres.NewReservationRepo(pg),
			pinger:          pg,
		}
	}

	tokens, err := auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		log.Error("auth setup failed", slog.Any("err", err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var exporter booking.Exporter
	if cfg.RabbitMQURL != "" {
		exporter = export.NewAMQPPublisher(export.AMQPConfig{
			URL:            cfg.RabbitMQURL,
			Queue:          cfg.ReportQueue,
			PublishTimeout: cfg.ReportTimeout,
		}, log)
	} else {
		log.Warn("rabbitmq not configured; window reports are only logged")
		exporter = export.NewLogExporter(log)
	}

	svc := booking.NewService(db, db,
		booking.WithExporter(exporter),
		booking.WithDefaultTarget(cfg.ReportTarget),
	)

	interceptors := []grpc.UnaryServerInterceptor{
		m.UnaryServerInterceptor(),
		grpcTransport.RequestTimeout(cfg.GRPCRequestTimeout),
		grpcTransport.Authenticate(tokens, log),
	}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("redis url invalid", slog.Any("err", err))
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
		limiter := ratelimit.New(rdb, ratelimit.Config{
			Capacity:       cfg.RateLimit.Capacity,
			RefillTokens:   cfg.RateLimit.RefillTokens,
			RefillInterval: cfg.RateLimit.RefillInterval,
			TTL:            cfg.RateLimit.TTL,
			Prefix:         cfg.RateLimit.Prefix,
		})
		interceptors = append(interceptors, grpcTransport.RateLimit(limiter, log))
	} else {
		log.Info("redis not configured; rate limiting disabled")
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	grpcTransport.RegisterRoomsServiceServer(grpcServer, grpcTransport.NewRoomsServer(svc, log))
	grpcTransport.RegisterReservationsServiceServer(grpcServer, grpcTransport.NewReservationsServer(svc, m, log))
	grpcTransport.RegisterReportsServiceServer(grpcServer, grpcTransport.NewReportsServer(svc, log))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		os.Exit(1)
	}

	ops := httpTransport.NewOpsServer(db, reg, log)

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- ops.Start(cfg.HTTPAddr)
	}()

	log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr))
	log.Info("ops server started", slog.String("http_addr", cfg.HTTPAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("server stopped with error", slog.Any("err", err))
			shutdown(log, grpcServer, healthServer, ops, cfg.ShutdownTimeout)
			os.Exit(1)
		}
	}
	shutdown(log, grpcServer, healthServer, ops, cfg.ShutdownTimeout)
}

func shutdown(log *slog.Logger, s *grpc.Server, hs *health.Server, ops *httpTransport.OpsServer, timeout time.Duration) {
	log.Info("shutting down", slog.Duration("timeout", timeout))
	hs.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := ops.Shutdown(ctx); err != nil {
		log.Warn("ops server shutdown failed", slog.Any("err", err))
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
