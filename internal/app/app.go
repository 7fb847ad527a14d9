package app

import (
	"context"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/controller"
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/pkg/configwatcher"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/messaging"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/security"
	"learnhub_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	Publisher messaging.Publisher
	Cron      *cron.Cron

	// ConfigDir 热加载监听的目录，为空时不监听
	ConfigDir string

	services        *services
	limiters        []*security.Limiter
	tracer          *sdktrace.TracerProvider
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user          *repository.UserRepository
	catalog       *repository.CatalogRepository
	enrollment    *repository.EnrollmentRepository
	videoProgress *repository.VideoProgressRepository
	quizAttempt   *repository.QuizAttemptRepository
	attemptDraft  *repository.AttemptDraftRepository
}

type services struct {
	settings      *service.ProgressSettings
	events        *service.EventService
	access        *service.AccessService
	aggregator    *service.ProgressAggregator
	storage       *service.StorageService
	quizAttempt   *service.QuizAttemptService
	videoProgress *service.VideoProgressService
	enrollment    *service.EnrollmentService
	lessonCleanup *service.LessonCleanupService
	reconcile     *service.ReconcileService
}

type controllers struct {
	health        *controller.HealthController
	quizAttempt   *controller.QuizAttemptController
	videoProgress *controller.VideoProgressController
	enrollment    *controller.EnrollmentController
	lesson        *controller.LessonController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// applyConfig 配置文件变更后依次通知回调
func (a *App) applyConfig(newCfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(newCfg)
	}
	logger.Log.Info("Configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:          repository.NewUserRepository(db),
		catalog:       repository.NewCatalogRepository(db),
		enrollment:    repository.NewEnrollmentRepository(db),
		videoProgress: repository.NewVideoProgressRepository(db),
		quizAttempt:   repository.NewQuizAttemptRepository(db),
		attemptDraft:  repository.NewAttemptDraftRepository(rdb),
	}
}

// initPublisher 消息队列不可用时降级为 Nop，事件丢失不影响主流程
func (a *App) initPublisher(cfg *config.MessagingConfig) messaging.Publisher {
	if !cfg.Enabled {
		return messaging.NopPublisher{}
	}
	p, err := messaging.NewRabbitPublisher(cfg.URL, cfg.Exchange)
	if err != nil {
		logger.Log.Warn("RabbitMQ unavailable, learning events will be dropped", zap.Error(err))
		return messaging.NopPublisher{}
	}
	logger.Log.Info("RabbitMQ publisher ready", zap.String("exchange", cfg.Exchange))
	return p
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.settings = service.NewProgressSettings(cfg.Progress)
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.settings.Set(newCfg.Progress)
	})

	s.events = service.NewEventService(a.Publisher)
	s.access = service.NewAccessService(repos.user, repos.catalog, repos.enrollment)
	s.aggregator = service.NewProgressAggregator(repos.catalog, repos.enrollment, s.events)
	s.storage = service.NewStorageService(&cfg.Storage)

	s.quizAttempt = service.NewQuizAttemptService(s.access, repos.catalog, repos.quizAttempt, repos.attemptDraft, s.aggregator, s.events, s.settings)
	s.videoProgress = service.NewVideoProgressService(s.access, repos.catalog, repos.videoProgress, repos.enrollment, s.aggregator, s.settings)
	s.enrollment = service.NewEnrollmentService(s.access, repos.enrollment, s.aggregator)
	s.lessonCleanup = service.NewLessonCleanupService(s.access, repos.catalog, repos.enrollment, repos.videoProgress, s.storage, s.aggregator)
	s.reconcile = service.NewReconcileService(repos.enrollment, s.aggregator, cfg.Scheduler.ReconcileBatchSize)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		health:        controller.NewHealthController(a.DB, a.Redis),
		quizAttempt:   controller.NewQuizAttemptController(s.quizAttempt),
		videoProgress: controller.NewVideoProgressController(s.videoProgress),
		enrollment:    controller.NewEnrollmentController(s.enrollment),
		lesson:        controller.NewLessonController(s.lessonCleanup),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	// 全局按 IP 兜底，进度上报另在路由上按用户限流
	global := security.NewLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	a.limiters = append(a.limiters, global)
	router.Use(global.Middleware(security.ClientIPKey))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// scheduleJobs 注册定时对账任务，Run 时才启动
func (a *App) scheduleJobs(s *services, cfg *config.Config) error {
	a.Cron = cron.New()
	if cfg.Scheduler.ReconcileCron == "" {
		return nil
	}
	_, err := s.reconcile.Schedule(a.Cron, cfg.Scheduler.ReconcileCron)
	return err
}

// checkpointLimit 必须挂在鉴权之后，才能取到用户
func (a *App) checkpointLimit(cfg *config.Config) gin.HandlerFunc {
	l := security.NewLimiter(cfg.RateLimit.CheckpointPerMinute, time.Minute)
	a.limiters = append(a.limiters, l)
	return l.Middleware(middleware.UserRateKey)
}

func (a *App) startBackgroundTasks(ctx context.Context) {
	a.Cron.Start()
	for _, l := range a.limiters {
		go l.Run(ctx)
	}

	if a.ConfigDir == "" {
		return
	}
	go func() {
		if err := configwatcher.WatchConfig(ctx, a.ConfigDir, a.applyConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

// build 组装依赖，不初始化全局日志，测试直接调用
func build(cfg *config.Config) (*App, error) {
	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		return nil, err
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}
	app.Publisher = app.initPublisher(&cfg.Messaging)

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services)

	if err := app.scheduleJobs(services, cfg); err != nil {
		return nil, err
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("learnhub-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.tracer = tp
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	return app, nil
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	app, err := build(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize application", zap.Error(err))
	}
	return app
}

// Close 释放外部连接，Run 退出时调用
func (a *App) Close() {
	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			logger.Log.Warn("Failed to close publisher", zap.Error(err))
		}
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	a.startBackgroundTasks(bgCtx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close()
	logger.Log.Info("Server exiting")
}
