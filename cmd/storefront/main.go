package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/storefront/internal/api-gateway/infra/httpx"
	cartapp "github.com/jcmexdev/storefront/internal/cart-service/app"
	"github.com/jcmexdev/storefront/internal/catalog"
	"github.com/jcmexdev/storefront/internal/checkout"
	"github.com/jcmexdev/storefront/internal/coordinator"
	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	sagasqlite "github.com/jcmexdev/storefront/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/storefront/internal/coupon"
	orderapp "github.com/jcmexdev/storefront/internal/order-service/app"
	payment "github.com/jcmexdev/storefront/internal/payment-service/app"
	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/events"
	"github.com/jcmexdev/storefront/internal/pkg/idempotency"
	"github.com/jcmexdev/storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
)

const serviceName = "storefront"

func main() {
	cfg := config.Load()
	log := telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Disabled:    !cfg.TracingEnabled,
	})
	if err != nil {
		log.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Error("tracer shutdown error", "error", err)
		}
	}()

	kv, closeKV, err := kvstore.Open(ctx, log, kvstore.Options{
		Driver:     kvstore.Driver(cfg.StorageDriver),
		SQLitePath: cfg.SQLitePath,
		RedisAddr:  cfg.RedisAddr,
		Namespace:  cfg.RedisPrefix,
		PGURL:      cfg.PGURL,
	})
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer closeKV()

	sagaLog, closeSagaLog, err := openSagaLog(cfg.SagaLogPath)
	if err != nil {
		log.Error("failed to open lifecycle log", "path", cfg.SagaLogPath, "error", err)
		os.Exit(1)
	}
	defer closeSagaLog()

	publisher, err := events.Open(events.Options{
		Broker:        cfg.EventsBroker,
		KafkaBrokers:  strings.Split(cfg.KafkaAddr, ","),
		KafkaTopic:    cfg.KafkaTopic,
		RabbitMQURL:   cfg.RabbitMQURL,
		RabbitMQQueue: cfg.RabbitMQQueue,
	})
	if err != nil {
		log.Error("failed to open event publisher", "broker", cfg.EventsBroker, "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	var idem idempotency.Store = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	if r, ok := kv.(*kvstore.Redis); ok {
		idem = idempotency.NewRedisStore(r.Client(), cfg.IdempotencyTTL)
	}

	orders := orderapp.NewStore(ctx, log, kv, orderapp.WithPublisher(publisher))
	cart := cartapp.NewStore(ctx, log, kv)

	simulator := coordinator.NewSimulator(log, orders, coordinator.Config{
		InitialDelay: cfg.SimInitialDelay,
		MinStepDelay: cfg.SimMinStepDelay,
		MaxStepDelay: cfg.SimMaxStepDelay,
	}, coordinator.WithSagaLog(sagaLog))

	gateway := payment.NewGateway(log, payment.Config{
		Delay:     cfg.PaymentDelay,
		MaxAmount: cfg.PaymentMaxAmount,
	})
	checkoutSvc := checkout.NewService(log, cart, orders, gateway, simulator, coupon.DefaultCatalog(), idem)

	handler := httpx.NewHandler(catalog.Default(), cart, checkoutSvc, orders, sagaLog)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.UnaryServerInterceptor(),
			interceptors.LoggingServerInterceptor(log),
		),
	)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("failed to listen", "addr", cfg.GRPCAddr, "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("health gRPC running", "addr", cfg.GRPCAddr)
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		log.Info("storefront HTTP running", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver, "events", cfg.EventsBroker)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server failed", "error", err)
	}

	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", "error", err)
	}
	if err := simulator.Shutdown(shutdownCtx); err != nil {
		log.Error("lifecycle shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	log.Info("storefront stopped")
}

// openSagaLog returns the sqlite lifecycle log, or an in-memory one when path
// is empty.
func openSagaLog(path string) (sagalog.Repository, func() error, error) {
	if path == "" {
		return sagalog.NewMemory(), func() error { return nil }, nil
	}
	repo, err := sagasqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}
