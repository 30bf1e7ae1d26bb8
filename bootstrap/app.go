package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"video-indexer/config"
	"video-indexer/consumer"
	"video-indexer/driver"
	"video-indexer/gateway"
	"video-indexer/logger"
	"video-indexer/port"
	"video-indexer/rest"
	"video-indexer/usecase"
)

// App holds all components of the video-indexer service.
type App struct {
	httpServer *echo.Echo
	httpAddr   string
	producer   *usecase.PublishMetadataUsecase
	consumer   *consumer.Consumer
	brokerConn *driver.Connection
	dbDriver   *driver.DatabaseDriver
	redisCli   *redis.Client
}

// Run initializes all components and starts the service. It blocks until
// ctx is cancelled, then performs graceful shutdown. Broker dial,
// topology declaration and index bootstrap failures are startup-fatal:
// without them the process would silently fail its sync function.
func Run(ctx context.Context) error {
	logger.Init()
	logger.Logger.Info("Starting video-indexer")

	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Error("Failed to load config", "err", err)
		return err
	}

	// ── Drivers (infrastructure layer) ──
	dbDriver, err := driver.NewDatabaseDriver(ctx, cfg.Database.ConnectionString())
	if err != nil {
		logger.Logger.Error("Failed to initialize database", "err", err)
		return err
	}

	esClient, err := initElasticsearchClient(cfg.Search)
	if err != nil {
		logger.Logger.Error("Failed to initialize Elasticsearch", "err", err)
		dbDriver.Close()
		return err
	}
	searchDriver := driver.NewElasticsearchDriver(esClient, cfg.Search.IndexName, logger.Logger)

	brokerConn, err := initBrokerConnection(cfg.Queue)
	if err != nil {
		logger.Logger.Error("Failed to initialize broker connection", "err", err)
		dbDriver.Close()
		return err
	}

	if err := driver.DeclareTopology(brokerConn, driver.Topology{
		Exchange:   cfg.Queue.Exchange,
		Queue:      cfg.Queue.Queue,
		RoutingKey: cfg.Queue.RoutingKey,
	}); err != nil {
		logger.Logger.Error("Failed to declare broker topology", "err", err)
		brokerConn.Close()
		dbDriver.Close()
		return err
	}

	// ── Gateways (anti-corruption layer) ──
	searchEngine := gateway.NewSearchEngineGateway(searchDriver)
	catalog := gateway.NewCatalogGateway(dbDriver.Pool)

	var categories port.CategoryReader = gateway.NewCategoryGateway(dbDriver.Pool)
	var redisCli *redis.Client
	if cfg.Cache.Enabled {
		opts, parseErr := redis.ParseURL(cfg.Cache.RedisURL)
		if parseErr != nil {
			logger.Logger.Error("Invalid redis URL", "err", parseErr)
			brokerConn.Close()
			dbDriver.Close()
			return parseErr
		}
		redisCli = redis.NewClient(opts)
		categories = gateway.NewCachedCategoryReader(categories, redisCli, cfg.Cache.TTL, logger.Logger)
		logger.Logger.Info("category subtree cache enabled", "ttl", cfg.Cache.TTL)
	}

	if err := searchEngine.EnsureIndex(ctx); err != nil {
		logger.Logger.Error("Failed to ensure search index", "err", err)
		brokerConn.Close()
		dbDriver.Close()
		return err
	}

	// ── Use cases (application layer) ──
	indexUsecase := usecase.NewIndexVideoUsecase(searchEngine, catalog, logger.Logger)
	searchUsecase := usecase.NewSearchVideosUsecase(searchEngine, categories, logger.Logger)
	suggestUsecase := usecase.NewSuggestVideosUsecase(searchEngine)

	producer := usecase.NewPublishMetadataUsecase(
		driver.NewPublisher(brokerConn),
		cfg.Queue.Exchange,
		cfg.Queue.RoutingKey,
		cfg.Producer.BufferSize,
		logger.Logger,
	)
	producer.Start()

	// ── Consumer ──
	syncConsumer := consumer.NewConsumer(
		brokerConn,
		consumer.Config{Queue: cfg.Queue.Queue, Enabled: cfg.Queue.ConsumerEnabled},
		func() consumer.MessageHandler {
			// Fresh handler scope per message.
			return consumer.NewSyncMessageHandler(indexUsecase, logger.Logger)
		},
		logger.Logger,
	)
	if err := syncConsumer.Start(ctx); err != nil {
		logger.Logger.Error("Failed to start consumer", "err", err)
		producer.Stop()
		brokerConn.Close()
		dbDriver.Close()
		return err
	}

	// ── HTTP server ──
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadHeaderTimeout = cfg.HTTP.ReadHeaderTimeout
	rest.NewHandler(searchUsecase, suggestUsecase, indexUsecase).Register(e)

	app := &App{
		httpServer: e,
		httpAddr:   cfg.HTTP.Addr,
		producer:   producer,
		consumer:   syncConsumer,
		brokerConn: brokerConn,
		dbDriver:   dbDriver,
		redisCli:   redisCli,
	}

	go func() {
		logger.Logger.Info("http listen", "addr", app.httpAddr)
		if err := e.Start(app.httpAddr); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("http", "err", err)
		}
	}()

	<-ctx.Done()
	app.shutdown()
	return nil
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http shutdown error", "err", err)
	}
	a.consumer.Stop()
	a.producer.Stop()
	if err := a.brokerConn.Close(); err != nil {
		logger.Logger.Error("broker close error", "err", err)
	}
	a.dbDriver.Close()
	if a.redisCli != nil {
		if err := a.redisCli.Close(); err != nil {
			logger.Logger.Error("redis close error", "err", err)
		}
	}
	logger.Logger.Info("shutdown complete")
}
