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

	"github.com/fekuna/omnipos-storefront-service/config"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/notification"
	"github.com/fekuna/omnipos-storefront-service/internal/operator"
	"github.com/fekuna/omnipos-storefront-service/internal/pricing"
	"github.com/fekuna/omnipos-storefront-service/internal/server"
	"github.com/fekuna/omnipos-storefront-service/migrations"
	"github.com/fekuna/omnipos-storefront-service/pkg/broker"
	"github.com/fekuna/omnipos-storefront-service/pkg/cache"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/fekuna/omnipos-storefront-service/pkg/metrics"

	catH "github.com/fekuna/omnipos-storefront-service/internal/catalog/handler"
	catRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/catalog/repository"
	catUCPkg "github.com/fekuna/omnipos-storefront-service/internal/catalog/usecase"

	notifH "github.com/fekuna/omnipos-storefront-service/internal/notification/handler"

	orderH "github.com/fekuna/omnipos-storefront-service/internal/order/handler"
	orderRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-storefront-service/internal/order/usecase"
	postH "github.com/fekuna/omnipos-storefront-service/internal/post/handler"
	postRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/post/repository"
	postUCPkg "github.com/fekuna/omnipos-storefront-service/internal/post/usecase"

	tenantH "github.com/fekuna/omnipos-storefront-service/internal/tenant/handler"
	tenantRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/tenant/repository"
	tenantUCPkg "github.com/fekuna/omnipos-storefront-service/internal/tenant/usecase"

	walletH "github.com/fekuna/omnipos-storefront-service/internal/wallet/handler"
	walletListenerPkg "github.com/fekuna/omnipos-storefront-service/internal/wallet/listener"
	walletRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/wallet/repository"
	walletUCPkg "github.com/fekuna/omnipos-storefront-service/internal/wallet/usecase"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

const migrationLockKey = "storefront:migrations:lock"

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	decimal.MarshalJSONWithoutQuotes = true

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		appLogger.Warn("Unknown timezone, using UTC", zap.String("timezone", cfg.Server.Timezone), zap.Error(err))
		loc = time.UTC
	}

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
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

	// 4.5 Run Migrations, one replica at a time
	if cfg.Postgres.RunMigrations {
		runMigrations(redisClient, db, cfg, appLogger)
	}

	// 5. Initialize Repositories
	txManager := postgres.NewTxManager(db, cfg.Postgres.LockTimeout)
	tenantRepo := tenantRepoPkg.NewPGRepository(db)
	walletRepo := walletRepoPkg.NewPGRepository(db)
	catRepo := catRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	postRepo := postRepoPkg.NewPGRepository(db)
	idemStore := orderRepoPkg.NewRedisIdempotencyStore(redisClient, cfg.Order.IdempotencyTTL)

	// 6. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics("storefront", registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 7. Notifications
	hub := notification.NewHub(5*time.Second, appLogger)
	sinks := []notification.Sink{notification.NewHubSink(hub)}

	var walletConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		orderProducer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.OrdersTopic,
		})
		defer orderProducer.Close()
		sinks = append(sinks, notification.NewBrokerSink(orderProducer))

		walletConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.WalletTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer walletConsumer.Close()
		appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("orders_topic", cfg.Kafka.OrdersTopic), zap.String("wallet_topic", cfg.Kafka.WalletTopic))
	}

	dispatcher := notification.NewDispatcher(notification.DispatcherConfig{
		QueueSize: cfg.Order.NotifyQueueSize,
		Dropped:   serverMetrics.NotificationsDropped,
	}, appLogger, sinks...)
	dispatcherDone := make(chan struct{})
	go func() {
		dispatcher.Run(ctx)
		close(dispatcherDone)
	}()

	// 8. Initialize UseCases
	walletUC := walletUCPkg.NewWalletUseCase(txManager, walletRepo, tenantRepo, appLogger)
	tenantUC := tenantUCPkg.NewTenantUseCase(txManager, tenantRepo, walletUC, appLogger)
	catUC := catUCPkg.NewCatalogUseCase(txManager, catRepo, redisClient, cfg.Catalog.CacheTTL, appLogger)

	extrasPolicy := pricing.DropUnknownExtras
	if cfg.Order.RejectUnknownExtras {
		extrasPolicy = pricing.RejectUnknownExtras
	}
	orderUC := orderUCPkg.NewOrderUseCase(orderUCPkg.Dependencies{
		Tx:          txManager,
		Orders:      orderRepo,
		Tenants:     tenantRepo,
		Catalog:     catRepo,
		Wallet:      walletUC,
		Resolver:    pricing.NewResolver(catRepo, extrasPolicy),
		Idempotency: idemStore,
		Notifier:    dispatcher,
		Cache:       catUC,
	}, orderUCPkg.Config{
		CreditsPerOrder:  cfg.Order.CreditsPerOrder,
		MinAddressLength: cfg.Order.MinAddressLength,
		PhonePrefix:      cfg.Order.PhonePrefix,
		Location:         loc,
	}, appLogger)

	postUC := postUCPkg.NewPostUseCase(txManager, postRepo, tenantRepo, walletUC, postUCPkg.Config{
		CreditsPerPost:   cfg.Post.CreditsPerPost,
		MaxContentLength: cfg.Post.MaxContentLength,
	}, appLogger)

	// 8.5 Initialize Listeners
	if walletConsumer != nil {
		walletListener := walletListenerPkg.NewWalletListener(walletConsumer, walletUC, redisClient, appLogger)
		go walletListener.Start(ctx)
	}

	// 9. Initialize Handlers
	handlers := server.Handlers{
		Storefront: tenantH.NewStorefrontHandler(tenantUC, catUC, appLogger),
		Orders:     orderH.NewOrderHandler(orderUC, serverMetrics, appLogger),
		Catalog:    catH.NewCatalogHandler(catUC, appLogger),
		Wallet:     walletH.NewWalletHandler(walletUC, appLogger),
		Posts:      postH.NewPostHandler(postUC, appLogger),
		WS: notifH.NewWSHandler(hub, notifH.Config{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Connections:    serverMetrics.WSConnections,
		}, appLogger),
	}
	operatorHandler := operator.NewOperatorHandler(tenantUC, walletUC, orderUC, appLogger)

	// 10. Start HTTP Server
	httpCfg := server.Config{Addr: normalizePort(cfg.Server.HTTPPort), RequestTimeout: cfg.Server.RequestTimeout}
	httpServer := server.NewHTTPServer(httpCfg, server.NewRouter(httpCfg, handlers, serverMetrics, appLogger))

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpCfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// 11. Start gRPC Server
	port := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", port)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", port), zap.Error(err))
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(auth.ContextInterceptor(), operator.RequireOperator()),
	)
	operator.RegisterOperatorServer(grpcServer, operatorHandler)
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()

	// stop listeners and flush pending notifications
	cancel()
	select {
	case <-dispatcherDone:
	case <-shutdownCtx.Done():
		appLogger.Warn("Notification dispatcher did not drain in time")
	}
	appLogger.Info("Server stopped")
}

func runMigrations(rc *cache.RedisClient, db *sqlx.DB, cfg *config.Config, log logger.ZapLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	token := uuid.New().String()
	for {
		ok, err := rc.AcquireLock(ctx, migrationLockKey, token, time.Minute)
		if err != nil {
			log.Fatal("Could not acquire migration lock", zap.Error(err))
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			log.Fatal("Timed out waiting for migration lock")
		case <-time.After(time.Second):
		}
	}
	defer func() {
		if err := rc.ReleaseLock(context.Background(), migrationLockKey, token); err != nil {
			log.Warn("Could not release migration lock", zap.Error(err))
		}
	}()

	if err := postgres.RunMigrations(db, migrations.FS, cfg.Postgres.MigrationsTable); err != nil {
		log.Fatal("Could not run migrations", zap.Error(err))
	}
	log.Info("Database migrations applied", zap.String("table", cfg.Postgres.MigrationsTable))
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
