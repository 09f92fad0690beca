package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classroom_backend/internal/config"
	"classroom_backend/internal/controller"
	"classroom_backend/internal/repository"
	"classroom_backend/internal/service"
	"classroom_backend/pkg/blink"
	"classroom_backend/pkg/configwatcher"
	"classroom_backend/pkg/database"
	"classroom_backend/pkg/logger"
	"classroom_backend/pkg/monitoring"
	"classroom_backend/pkg/security"
	"classroom_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	services *services
}

type repositories struct {
	classes     *repository.ClassRepository
	polls       *repository.PollRepository
	transcripts *repository.TranscriptionRepository
	outbox      *repository.OutboxRepository
}

type services struct {
	hub          *service.ClassroomHub
	sessions     *service.SessionService
	polls        *service.PollService
	transcripts  *service.TranscriptService
	storage      *service.StorageService
	connectivity *service.ConnectivityService
	sync         *service.SyncService
}

type controllers struct {
	class  *controller.ClassController
	poll   *controller.PollController
	health *controller.HealthController
	upload *controller.UploadController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		classes:     repository.NewClassRepository(db),
		polls:       repository.NewPollRepository(db),
		transcripts: repository.NewTranscriptionRepository(db),
		outbox:      repository.NewOutboxRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	notifier := blink.NewNotifier()

	s.hub = service.NewClassroomHub()
	s.sessions = service.NewSessionService(repos.classes, s.hub, notifier)
	s.polls = service.NewPollService(repos.polls, s.sessions, s.hub, notifier)
	s.transcripts = service.NewTranscriptService(repos.transcripts, s.sessions, s.hub, notifier)
	s.storage = service.NewStorageService(cfg, s.hub)

	s.connectivity = service.NewConnectivityService(&cfg.Probe)
	s.sync = service.NewSyncService(repos.outbox, repos.classes, repos.polls, repos.transcripts, s.connectivity, &cfg.Sync)
	s.connectivity.SetOnOnline(s.sync.Trigger)
	s.sessions.SetArchiver(s.sync)

	router := service.NewEventRouter(s.sessions, s.polls, s.transcripts, s.storage)
	s.hub.SetHandler(router)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		class:  controller.NewClassController(repos.classes, repos.transcripts),
		poll:   controller.NewPollController(repos.polls),
		health: controller.NewHealthController(db, s.sessions, s.hub, a.Config),
		upload: controller.NewUploadController(s.storage),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 联网探测和发件箱同步跑在各自的定时器上，
// 和课堂实时路径互不等待
func (a *App) startBackgroundTasks(s *services) {
	go s.connectivity.Run()
	go s.sync.Run()

	go configwatcher.WatchConfig("configs/config.yaml", func(cfg *config.Config) {
		logger.Log.Info("Config reloaded, applying sync/probe cadence")
		s.sync.UpdateConfig(&cfg.Sync)
		s.connectivity.UpdateConfig(&cfg.Probe)
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		// 本地库打不开属于不可恢复，直接退出
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, repos, db)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("classroom-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, services)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	if !cfg.MigrateOnly {
		app.startBackgroundTasks(services)
	}

	return app
}

func ginMode(mode string) string {
	if mode == "release" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Classroom server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 先广播下线通知并清理WebSocket连接
	if a.services != nil {
		a.services.hub.Stop()
		a.services.connectivity.Stop()
		a.services.sync.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
