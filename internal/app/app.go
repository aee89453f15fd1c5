package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"

	config "github.com/shahadul878/planet-2.0/internal/cfg"
	v1Http "github.com/shahadul878/planet-2.0/internal/delivery/v1/http"
	"github.com/shahadul878/planet-2.0/internal/infrastructure/kafka"
	"github.com/shahadul878/planet-2.0/internal/infrastructure/media"
	"github.com/shahadul878/planet-2.0/internal/infrastructure/planet"
	"github.com/shahadul878/planet-2.0/internal/infrastructure/worker"
	s3Repo "github.com/shahadul878/planet-2.0/internal/repository/minio"
	"github.com/shahadul878/planet-2.0/internal/repository/pgdb"
	"github.com/shahadul878/planet-2.0/internal/repository/redis"
	"github.com/shahadul878/planet-2.0/internal/usecase"
	"github.com/shahadul878/planet-2.0/pkg/clients"
	"github.com/shahadul878/planet-2.0/pkg/closer"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/logger"
	"github.com/shahadul878/planet-2.0/pkg/postgres"
)

// Run wires the sync engine together and blocks until a shutdown signal
// or a fatal server error.
func Run(cfg *config.Config, logger logger.Logger) error {
	c := closer.NewCloser(2 * time.Second)

	// appCtx drives the background worker, the scheduler and media copies.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	db, err := initPGDB(logger, cfg)
	if err != nil {
		return err
	}
	c.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = redisClient.Ping(redisCtx)
	redisCancel()
	if err != nil {
		logger.Errorf(err, "failed to connect to redis")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	c.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})

	minioClient, err := clients.NewMinIOClient(cfg)
	if err != nil {
		logger.Errorf(err, "failed to initialize minio client")
		return e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName)
	minioCancel()
	if err != nil {
		logger.Errorf(err, "failed to initialize MinIO bucket")
		return e.Wrap(whereami.WhereAmI(), err)
	}

	queueRepo := pgdb.NewQueueRepo(db.Pool)
	jobRepo := pgdb.NewJobRepo(db.Pool)
	productRepo := pgdb.NewProductRepo(db.Pool)
	categoryRepo := pgdb.NewCategoryRepo(db.Pool)
	activityRepo := pgdb.NewActivityRepo(db.Pool)
	optionRepo := pgdb.NewOptionRepo(db.Pool)
	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, logger)
	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)

	catalogClient := planet.NewClient(cacheRepo, cfg.Planet, logger)
	mediaInfra := media.NewMediaInfrastructure(imageRepo, logger, appCtx)

	producer, err := kafka.NewProducer(logger, cfg.Kafka)
	if err != nil {
		logger.Errorf(err, "failed to initialize kafka producer")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		logger.Errorf(err, "failed to ensure kafka topic")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	c.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	categoryUC := usecase.NewCategoryUC(categoryRepo, catalogClient, logger)
	productUC := usecase.NewProductUC(
		productRepo,
		categoryRepo,
		catalogClient,
		mediaInfra,
		cfg.Planet.BaseURL,
		imageRepo.PublicURL(""),
		logger,
	)
	orphanUC := usecase.NewOrphanUC(productRepo, catalogClient, activityRepo, mediaInfra, db.Pool, cfg.Sync, logger)
	syncUC := usecase.NewSyncUC(
		queueRepo,
		jobRepo,
		productUC,
		categoryUC,
		orphanUC,
		catalogClient,
		cacheRepo,
		optionRepo,
		activityRepo,
		producer,
		db.Pool,
		cfg.Sync,
		logger,
	)

	syncWorker := worker.NewWorker(jobRepo, syncUC, optionRepo, cacheRepo, cfg.Sync, logger, db.Dsn)
	syncWorker.Start(appCtx)
	c.Add(func(ctx context.Context) error {
		syncWorker.Stop()
		return nil
	})

	scheduler := worker.NewScheduler(syncUC, activityRepo, cfg.Sync, logger)
	scheduler.Start(appCtx)
	c.Add(func(ctx context.Context) error {
		scheduler.Stop()
		return nil
	})

	c.Add(func(ctx context.Context) error {
		return mediaInfra.WaitForCleanup(ctx)
	})

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger)
	router.Init(syncUC, orphanUC, categoryUC, catalogClient, syncWorker)

	httpSrv := v1Http.NewServer(r, cfg.Http)
	c.Add(func(ctx context.Context) error {
		return httpSrv.Stop(ctx)
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server started on port %s", cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		logger.Infof("received shutdown signal, stopping gracefully...")
	}

	appCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := c.Close(shutdownCtx); err != nil {
		logger.Warnf("shutdown finished with errors: %v", err)
	} else {
		logger.Infof("application shutdown complete")
	}

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
