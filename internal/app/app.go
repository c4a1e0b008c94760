package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/shop-backend/internal/cfg"
	v1Http "github.com/DRSN-tech/shop-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/shop-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/shop-backend/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/shop-backend/internal/repository/minio"
	"github.com/DRSN-tech/shop-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/shop-backend/internal/repository/pgdb/converter/generated"
	"github.com/DRSN-tech/shop-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/shop-backend/internal/repository/redis/converter/generated"
	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/clients"
	"github.com/DRSN-tech/shop-backend/pkg/closer"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	"github.com/DRSN-tech/shop-backend/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App собирает зависимости сервиса и управляет их жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger

	httpSrv      *v1Http.Server
	outboxWorker *kafka.OutboxWorker
	imagesInfra  *minioInfra.MinioInfrastructure
	closer       *closer.Closer

	workerCancel context.CancelFunc
	minioCancel  context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(5 * time.Second),
	}

	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	app.closer.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	prConv := pgdbConv.NewProductConverterImpl()
	catConv := pgdbConv.NewCategoryConverterImpl()
	outboxConv := pgdbConv.NewOutboxEventConverterImpl()
	infoConv := redisConv.NewProductInfoConverterImpl()

	stockRepo := pgdb.NewStockRepo(db.Pool)
	productRepo := pgdb.NewProductRepo(db.Pool, prConv)
	categoryRepo := pgdb.NewCategoryRepo(db.Pool, catConv)
	orderRepo := pgdb.NewOrderRepo(db.Pool)
	cartRepo := pgdb.NewCartRepo(db.Pool)
	wishlistRepo := pgdb.NewWishlistRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	app.closer.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})
	cacheRepo := redis.NewCacheRepo(redisClient, infoConv, cfg.Redis, log)

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	minioCtx, bucketCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer bucketCancel()
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)

	// Контекст живёт дольше HTTP-запросов: фоновые компенсации в MinIO
	// должны успеть завершиться при остановке приложения.
	minioShutdownCtx, minioCancel := context.WithCancel(context.Background())
	app.minioCancel = minioCancel
	app.imagesInfra = minioInfra.NewMinioInfrastructure(imageRepo, cfg.Minio.BucketName, log, minioShutdownCtx)
	app.closer.Add(func(ctx context.Context) error {
		return app.imagesInfra.WaitForCleanup(ctx)
	})

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	app.closer.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	ledger := usecase.NewStockLedger(stockRepo, cacheRepo, log)
	orderUC := usecase.NewOrderUC(ledger, orderRepo, outboxRepo, cartRepo, db.Pool, log)
	productUC := usecase.NewProductUC(productRepo, categoryRepo, cacheRepo, app.imagesInfra, db.Pool, log)
	cartUC := usecase.NewCartUC(cartRepo, wishlistRepo, productRepo, log)

	app.outboxWorker = kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)
	app.closer.Add(func(ctx context.Context) error {
		app.outboxWorker.Stop()
		return nil
	})

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(orderUC, productUC, cartUC)

	app.httpSrv = v1Http.NewServer(r, cfg.Http)
	app.closer.Add(func(ctx context.Context) error {
		return app.httpSrv.Stop(ctx)
	})

	return app, nil
}

// Run запускает HTTP-сервер и outbox-воркера и блокируется до сигнала
// завершения или фатальной ошибки сервера.
func (a *App) Run() error {
	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.workerCancel = workerCancel
	a.outboxWorker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("%v", err)
	}
	a.minioCancel()

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
