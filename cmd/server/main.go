package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/inventory-service/internal/adapter/handler"
	"github.com/rl1809/inventory-service/internal/adapter/metrics"
	"github.com/rl1809/inventory-service/internal/adapter/storage"
	"github.com/rl1809/inventory-service/internal/config"
	"github.com/rl1809/inventory-service/internal/core/service"
	"github.com/rl1809/inventory-service/internal/logger"
	"github.com/rl1809/inventory-service/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultConfig().TimeFormat,
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	os.Exit(exitCode(l, run(cfg, l)))
}

// exitCode logs a failed run and flushes the logger before the process exits.
func exitCode(l *zap.Logger, err error) int {
	code := 0
	if err != nil {
		l.Error("server exited", zap.Error(err))
		code = 1
	}
	_ = l.Sync()
	return code
}

type backends struct {
	sequence port.SequenceRepository
	items    port.ItemRepository
	reports  port.ReportRepository
	closers  []func() error
}

func (b *backends) close(l *zap.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			l.Warn("close connection", zap.Error(err))
		}
	}
}

func openBackends(ctx context.Context, cfg *config.Config, l *zap.Logger) (*backends, error) {
	b := &backends{}

	var mysqlAdapter *storage.MySQLAdapter
	if cfg.UsesMySQL() {
		db, err := sql.Open("mysql", cfg.MySQL.DSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
		b.closers = append(b.closers, db.Close)

		mysqlAdapter = storage.NewMySQLAdapter(db)
		if err := mysqlAdapter.Ping(ctx); err != nil {
			b.close(l)
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		if cfg.MySQL.Migrate {
			if err := mysqlAdapter.Migrate(ctx); err != nil {
				b.close(l)
				return nil, err
			}
			l.Info("schema migrated")
		}
		l.Info("connected to mysql")
	}

	memory := storage.NewMemoryAdapter()

	switch cfg.Storage.Backend {
	case config.BackendMySQL:
		b.items, b.reports = mysqlAdapter, mysqlAdapter
	default:
		b.items, b.reports = memory, memory
	}

	switch cfg.Sequence.Backend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		b.closers = append(b.closers, rdb.Close)

		redisAdapter := storage.NewRedisSequenceAdapter(rdb)
		if err := redisAdapter.Ping(ctx); err != nil {
			b.close(l)
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		b.sequence = redisAdapter
		l.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	case config.BackendMySQL:
		b.sequence = mysqlAdapter
	default:
		b.sequence = memory
	}

	l.Info("backends ready",
		zap.String("sequence", cfg.Sequence.Backend),
		zap.String("storage", cfg.Storage.Backend),
	)
	return b, nil
}

func run(cfg *config.Config, l *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	b, err := openBackends(startCtx, cfg, l)
	cancel()
	if err != nil {
		return err
	}
	defer b.close(l)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	creator := service.NewCreator(
		service.NewSequenceAllocator(b.sequence),
		service.RetryPolicy{MaxAttempts: cfg.Sequence.MaxAttempts, Backoff: cfg.Sequence.Backoff},
		metrics.NewCreatorMetrics(reg),
		l,
	)
	items := service.NewItemService(b.items, creator, cfg.Sequence.ItemSequence)
	reports := service.NewReportService(b.reports)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      handler.NewRouter(handler.NewHTTPHandler(items, reports), l, reg),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	grpcServer, healthServer := handler.NewGRPCServer(handler.NewGRPCHandler(items), l)
	lis, err := net.Listen("tcp", cfg.App.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.App.GRPCAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info("HTTP server listening", zap.String("addr", cfg.App.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		l.Info("gRPC server listening", zap.String("addr", cfg.App.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutting down...")

		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			l.Warn("http shutdown", zap.Error(err))
		}
		l.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		l.Info("gRPC server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	l.Info("server stopped")
	return nil
}
