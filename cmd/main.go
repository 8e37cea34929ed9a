package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"gorm.io/gorm"

	"github.com/Leganyst/charter-scheduling/internal/config"
	"github.com/Leganyst/charter-scheduling/internal/db"
	"github.com/Leganyst/charter-scheduling/internal/logging"
	"github.com/Leganyst/charter-scheduling/internal/model"
	"github.com/Leganyst/charter-scheduling/internal/repository"
	"github.com/Leganyst/charter-scheduling/internal/sequence"
	"github.com/Leganyst/charter-scheduling/internal/service"
)

const serviceName = "charter-scheduling"

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	cfg, err := config.LoadAppConfig(envFile)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(os.Stdout, serviceName, cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	displayLoc, err := time.LoadLocation(cfg.DisplayTimeZone)
	if err != nil {
		return err
	}

	gormDB, err := db.Open(&cfg.DB)
	if err != nil {
		return err
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	store, closeStore, err := newCounterStore(cfg, gormDB)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("counter store ready", "backend", cfg.CounterBackend, "db_driver", cfg.DB.Driver)

	svc := service.NewSchedulingService(
		repository.NewGormBookingRepository(gormDB),
		repository.NewGormReservationRepository(gormDB),
		repository.NewGormMaintenanceRepository(gormDB),
		repository.NewGormDrivingLogRepository(gormDB),
		sequence.NewAllocator(store, cfg.BookingNumberPrefix),
		logger,
		displayLoc,
	)

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(service.UnaryLoggingInterceptor(logger)),
	)
	service.RegisterSchedulingServer(grpcServer, service.NewSchedulingGRPC(svc))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(service.SchedulingServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		serveErr <- grpcServer.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down grpc server")
	healthSrv.Shutdown()
	grpcServer.GracefulStop()
	return nil
}

func newCounterStore(cfg *config.AppConfig, gormDB *gorm.DB) (sequence.CounterStore, func(), error) {
	switch cfg.CounterBackend {
	case config.CounterBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return sequence.NewRedisCounterStore(rdb, cfg.Redis.KeyPrefix), func() { _ = rdb.Close() }, nil
	case config.CounterBackendMemory:
		return sequence.NewMemoryCounterStore(), func() {}, nil
	default:
		return repository.NewGormCounterRepository(gormDB), func() {}, nil
	}
}
