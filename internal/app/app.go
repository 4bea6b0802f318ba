package app

import (
	"birthday_quest_backend/internal/config"
	"birthday_quest_backend/internal/controller"
	"birthday_quest_backend/internal/repository"
	"birthday_quest_backend/internal/service"
	"birthday_quest_backend/pkg/database"
	"birthday_quest_backend/pkg/logger"
	"birthday_quest_backend/pkg/monitoring"
	"birthday_quest_backend/pkg/security"
	"birthday_quest_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user   *repository.UserRepository
	pack   *repository.PackRepository
	result *repository.ResultRepository
	store  *repository.SessionStore
}

type services struct {
	auth     *service.AuthService
	storage  *service.StorageService
	pack     *service.PackService
	question *service.QuestionService
	session  *service.SessionService
	result   *service.ResultService
	hub      *service.SpectatorHub
}

type controllers struct {
	auth   *controller.AuthController
	game   *controller.GameController
	result *controller.ResultController
	author *controller.AuthorController
	health *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	return &repositories{
		user:   repository.NewUserRepository(db),
		pack:   repository.NewPackRepository(db),
		result: repository.NewResultRepository(db),
		store:  repository.NewSessionStore(rdb, cfg.Game.SessionTTL),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.pack = service.NewPackService(repos.pack, cfg)
	s.question = service.NewQuestionService(repos.pack, s.pack)
	s.result = service.NewResultService(repos.result, rdb)

	s.hub = service.NewSpectatorHub(rdb)
	go s.hub.Run()

	s.session = service.NewSessionService(repos.store, s.pack, s.result, s.hub, cfg)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:   controller.NewAuthController(s.auth),
		game:   controller.NewGameController(s.session, s.pack, s.hub),
		result: controller.NewResultController(s.result),
		author: controller.NewAuthorController(s.question, s.pack, s.storage),
		health: controller.NewHealthController(db, s.pack),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis 缺席时快照与排行榜缓存降级，不阻止启动
		logger.Log.Warn("Redis unavailable, running without snapshots and caches", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 题库装配失败无法开局，直接终止启动
	if err := services.pack.EnsureLoaded(); err != nil {
		logger.Log.Fatal("Failed to load game pack", zap.Error(err))
		log.Fatalf("Failed to load game pack: %v", err)
	}
	services.pack.Watch()

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("birthday-quest", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
		router.Static("/api/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 清理围观 WebSocket 连接
	if a.services != nil && a.services.hub != nil {
		a.services.hub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
