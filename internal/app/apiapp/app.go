package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/accessmap/backend/internal/config"
	s3infra "github.com/accessmap/backend/internal/infra/s3"
	"github.com/accessmap/backend/internal/jobs/reaper"
	pgrepo "github.com/accessmap/backend/internal/repo/postgres"
	redrepo "github.com/accessmap/backend/internal/repo/redis"
	authsvc "github.com/accessmap/backend/internal/services/auth"
	geoindexsvc "github.com/accessmap/backend/internal/services/geoindex"
	mediasvc "github.com/accessmap/backend/internal/services/media"
	photossvc "github.com/accessmap/backend/internal/services/photos"
	pointssvc "github.com/accessmap/backend/internal/services/points"
	ratesvc "github.com/accessmap/backend/internal/services/rate"
	reportssvc "github.com/accessmap/backend/internal/services/reports"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	reaperJob  *reaper.Job
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	geoLockRepo := redrepo.NewGeoLockRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	reportRepo := pgrepo.NewReportRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := authsvc.NewService(jwtManager)

	geoIndex := geoindexsvc.NewService(reportRepo, geoindexsvc.Config{
		MergeRadiusMeters:  cfg.Reports.MergeRadiusMeters,
		NearbyRadiusMeters: cfg.Reports.NearbyRadiusMeters,
	})

	reportsService := reportssvc.NewService(geoIndex, reportRepo, reportssvc.Config{
		CreateLockTTL: cfg.Reports.CreateLockTTL,
	})
	reportsService.AttachCreateLocker(geoLockRepo)
	reportsService.AttachRateLimiter(ratesvc.NewLimiter(
		rateRepo,
		cfg.Limits.SubmitPerMinute,
		cfg.Limits.SubmitPer10Sec,
	))

	photosService := photossvc.NewService(reportRepo)
	pointsService := pointssvc.NewService(userRepo)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	mediaService := mediasvc.NewService(mediaStorage, cfg.Reports.PhotoUploadURLExpiry)

	reaperJob := reaper.New(reportRepo, cfg.Reaper.RemovedRetention, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:    authService,
		ReportsService: reportsService,
		PhotosService:  photosService,
		PointsService:  pointsService,
		MediaService:   mediaService,
		Logger:         log,
		Config:         cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		reaperJob:  reaperJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// StartReaper runs the expiry sweep loop until the context is cancelled.
func (a *App) StartReaper(ctx context.Context) {
	if a.reaperJob == nil {
		return
	}
	go a.reaperJob.Loop(ctx, a.cfg.Reaper.Interval)
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
