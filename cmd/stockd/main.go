package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/authz"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/platform/broker"
	"github.com/fekuna/omnipos-stock-service/internal/platform/cache"
	"github.com/fekuna/omnipos-stock-service/internal/platform/i18n"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/observability"
	"github.com/fekuna/omnipos-stock-service/internal/platform/postgres"
	"github.com/fekuna/omnipos-stock-service/internal/platform/rpc"
	"github.com/fekuna/omnipos-stock-service/internal/platform/search"
	"github.com/fekuna/omnipos-stock-service/internal/txmanager"

	itemH "github.com/fekuna/omnipos-stock-service/internal/item/handler"
	itemRepoPkg "github.com/fekuna/omnipos-stock-service/internal/item/repository"
	itemUCPkg "github.com/fekuna/omnipos-stock-service/internal/item/usecase"

	ledgerRepoPkg "github.com/fekuna/omnipos-stock-service/internal/ledger/repository"
	ledgerUCPkg "github.com/fekuna/omnipos-stock-service/internal/ledger/usecase"

	locRepoPkg "github.com/fekuna/omnipos-stock-service/internal/location/repository"
	locUCPkg "github.com/fekuna/omnipos-stock-service/internal/location/usecase"

	orderH "github.com/fekuna/omnipos-stock-service/internal/order/handler"
	orderListenerPkg "github.com/fekuna/omnipos-stock-service/internal/order/listener"
	orderRepoPkg "github.com/fekuna/omnipos-stock-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-stock-service/internal/order/usecase"

	prodH "github.com/fekuna/omnipos-stock-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-stock-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-stock-service/internal/product/usecase"

	stockH "github.com/fekuna/omnipos-stock-service/internal/stock/handler"
	stockRepoPkg "github.com/fekuna/omnipos-stock-service/internal/stock/repository"
	stockUCPkg "github.com/fekuna/omnipos-stock-service/internal/stock/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := observability.SetupTracingSDK(ctx, &observability.Config{
		ServiceName:   cfg.Otel.ServiceName,
		Endpoint:      cfg.Otel.Endpoint,
		URLPath:       cfg.Otel.URLPath,
		AuthHeader:    cfg.Otel.AuthHeader,
		Insecure:      cfg.Otel.Insecure,
		ExportTimeout: cfg.Otel.ExportTimeout,
		MaxQueueSize:  cfg.Otel.MaxQueueSize,
	})
	if err != nil {
		appLogger.Fatal("Could not set up tracing", zap.Error(err))
	}

	// 4. i18n
	translator, err := i18n.New()
	if err != nil {
		appLogger.Fatal("Could not load message catalogs", zap.Error(err))
	}

	// 5. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:             cfg.Postgres.Host,
		Port:             cfg.Postgres.Port,
		User:             cfg.Postgres.User,
		Password:         cfg.Postgres.Password,
		DBName:           cfg.Postgres.DBName,
		SSLMode:          cfg.Postgres.SSLMode,
		MaxOpenConns:     cfg.Postgres.MaxOpenConns,
		MaxIdleConns:     cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime:  time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime:  time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		StatementTimeout: cfg.Postgres.StatementTimeout,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	tx := txmanager.New(db, txmanager.WithIsolation(sql.LevelReadCommitted))

	// 6. Initialize Repositories
	itemRepo := itemRepoPkg.NewPGRepository(db)
	ledgerRepo := ledgerRepoPkg.NewPGRepository(db)
	locRepo := locRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	stockRepo := stockRepoPkg.NewPGRepository(db)

	// 7. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 8. Initialize Kafka
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrderTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()

	kafkaProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OutcomesTopic,
	})
	defer kafkaProducer.Close()
	appLogger.Info("Connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("order_topic", cfg.Kafka.OrderTopic),
		zap.String("outcomes_topic", cfg.Kafka.OutcomesTopic),
	)

	// 9. Notification sinks
	sinks := []notify.Sink{
		notify.NewLogSink(appLogger),
		notify.NewKafkaSink(kafkaProducer),
	}
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			// The ledger index is an audit copy; the service runs without it.
			appLogger.Warn("Could not connect to Elasticsearch, ledger audit index disabled", zap.Error(err))
		} else {
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
			sinks = append(sinks, notify.NewLedgerIndexSink(esClient, cfg.Elastic.LedgerIndex))
		}
	}
	notifier := notify.NewDispatcher(translator, cfg.Notify.Lang, cfg.Notify.SinkTimeout, appLogger, sinks...)

	// 10. Permissions
	checker := authz.NewCachedChecker(authz.NewPGChecker(db), redisClient.Client, cfg.Redis.PermissionTTL, appLogger)
	guard := authz.NewGuard(checker, appLogger)

	// 11. Initialize UseCases
	writer := ledger.NewWriter(ledgerRepo)

	prodUC := prodUCPkg.NewProductUseCase(tx, prodRepo, itemRepo, guard, appLogger)
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(ledgerRepo, appLogger)
	stockUC := stockUCPkg.NewStockUseCase(stockRepo, prodUC, cfg.Stock.LowThreshold, appLogger)
	itemUC := itemUCPkg.NewItemUseCase(itemUCPkg.Deps{
		Tx:              tx,
		Items:           itemRepo,
		Products:        prodRepo,
		Locations:       locRepo,
		Ledger:          writer,
		Guard:           guard,
		Notifier:        notifier,
		DefaultCapacity: cfg.Stock.DefaultSlotCapacity,
		Logger:          appLogger,
	})
	locUC := locUCPkg.NewLocationUseCase(locUCPkg.Deps{
		Tx:              tx,
		Locations:       locRepo,
		Items:           itemRepo,
		Products:        prodRepo,
		Ledger:          writer,
		Guard:           guard,
		Notifier:        notifier,
		Locker:          redisClient,
		LockTTL:         cfg.Redis.LockTTL,
		DefaultCapacity: cfg.Stock.DefaultSlotCapacity,
		Logger:          appLogger,
	})
	orderUC := orderUCPkg.NewOrderUseCase(orderUCPkg.Deps{
		Tx:       tx,
		Orders:   orderRepo,
		Items:    itemRepo,
		Products: prodRepo,
		Ledger:   writer,
		Guard:    guard,
		Notifier: notifier,
		Logger:   appLogger,
	})

	// 12. Start Listener
	orderListener := orderListenerPkg.NewOrderListener(kafkaConsumer, orderUC, appLogger)
	go orderListener.Start(ctx)

	// 13. Initialize Handlers
	itemHandler := itemH.NewItemHandler(itemUC, appLogger)
	orderHandler := orderH.NewOrderHandler(orderUC, appLogger)
	prodHandler := prodH.NewProductHandler(prodUC, appLogger)
	stockHandler := stockH.NewStockHandler(stockUC, locUC, ledgerUC, appLogger)

	// 14. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(rpc.LoggingInterceptor(appLogger)),
	)

	grpcServer.RegisterService(itemHandler.ServiceDesc(), itemHandler)
	grpcServer.RegisterService(orderHandler.ServiceDesc(), orderHandler)
	grpcServer.RegisterService(prodHandler.ServiceDesc(), prodHandler)
	grpcServer.RegisterService(stockHandler.ServiceDesc(), stockHandler)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Warn("tracing shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
