package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/order-backoffice/internal/adapter/handler"
	"github.com/rl1809/order-backoffice/internal/adapter/storage"
	"github.com/rl1809/order-backoffice/internal/config"
	"github.com/rl1809/order-backoffice/internal/core/service"
	"github.com/rl1809/order-backoffice/pkg/logger"
	"github.com/rl1809/order-backoffice/pkg/metrics"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize MySQL
	db, err := storage.OpenMySQL(ctx, storage.MySQLOptions{
		DSN:             cfg.MySQLDSN,
		MaxOpenConns:    cfg.MySQLMaxOpenConns,
		MaxIdleConns:    cfg.MySQLMaxIdleConns,
		ConnMaxLifetime: cfg.MySQLConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	zl.Info("connected to mysql")

	orderStore := storage.NewMySQLOrderStore(db)
	if err := orderStore.Migrate(ctx); err != nil {
		return err
	}

	// Initialize Redis
	rdb, err := storage.OpenRedis(ctx, storage.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()
	zl.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	cache := storage.NewRedisAdapter(rdb)
	refs := storage.NewCachedReferenceRepository(storage.NewMySQLReferenceStore(db), cache, cfg.CacheTTL, zl)
	if err := refs.Invalidate(ctx); err != nil {
		zl.Warn("could not clear reference cache", zap.Error(err))
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	transitions, err := cfg.Transitions()
	if err != nil {
		return err
	}

	reports := service.NewReportService(orderStore, refs, zl,
		service.WithLocation(loc),
		service.WithCache(cache, cfg.CacheTTL),
	)
	svc := handler.Services{
		Queries: service.NewOrderQueryService(orderStore, refs, zl,
			service.WithDefaultPageSize(cfg.DefaultPageSize),
			service.WithPushdown(cfg.QueryPushdown),
		),
		Statuses: service.NewStatusService(orderStore, refs, zl,
			service.WithTransitions(transitions),
			service.WithStatusInvalidator(reports),
		),
		Reports: reports,
		Orders: service.NewOrderService(orderStore, refs, cache, zl,
			service.WithOrderInvalidator(reports),
		),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize gRPC server
	grpcHandler := handler.NewGRPCHandler(svc, zl, metrics.NewServerMetrics(reg, "grpc"), handler.WithLocation(loc))
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcHandler.UnaryInterceptor))
	handler.RegisterOrderServiceServer(grpcServer, grpcHandler)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(svc, zl, metrics.NewServerMetrics(reg, "http"), handler.WithLocation(loc))
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Routes(metrics.Handler(reg)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		zl.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		zl.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		zl.Info("gRPC server stopped")
		return err
	})

	return g.Wait()
}
