package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damoang/angple-wiki/internal/config"
	"github.com/damoang/angple-wiki/internal/database"
	"github.com/damoang/angple-wiki/internal/handler"
	"github.com/damoang/angple-wiki/internal/middleware"
	"github.com/damoang/angple-wiki/internal/migration"
	"github.com/damoang/angple-wiki/internal/pipeline"
	"github.com/damoang/angple-wiki/internal/plugin"
	"github.com/damoang/angple-wiki/internal/plugins/imagelink"
	"github.com/damoang/angple-wiki/internal/repository"
	"github.com/damoang/angple-wiki/internal/routes"
	"github.com/damoang/angple-wiki/internal/service"
	"github.com/damoang/angple-wiki/pkg/cache"
	pkges "github.com/damoang/angple-wiki/pkg/elasticsearch"
	"github.com/damoang/angple-wiki/pkg/jwt"
	pkglogger "github.com/damoang/angple-wiki/pkg/logger"
	"github.com/damoang/angple-wiki/pkg/queue"
	pkgredis "github.com/damoang/angple-wiki/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	gormlogger "gorm.io/gorm/logger"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	if err := run(); err != nil {
		pkglogger.GetLogger().Fatal().Err(err).Msg("server stopped")
	}
}

func run() error {
	dotenvFiles := config.LoadDotEnv()

	// 로거 초기화
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	log := pkglogger.GetLogger()
	log.Info().Strs("env_files", dotenvFiles).Msg("starting angple-wiki")

	// 설정 로드
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}
	config.LogResolved(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB 연결
	gormLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		gormLevel = gormlogger.Info
	}
	db, err := database.Open(cfg.Database, gormLevel)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := migration.Run(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	history, err := repository.NewHistoryRepository(db)
	if err != nil {
		return err
	}
	nodes := repository.NewNodeRepository(db, history, cfg.Wiki.HistoryTypes)

	// Redis 연결 (태스크 큐, 편집 rate limit)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, pkgredis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			// BRPOP 대기보다 길어야 함
			ReadTimeout: time.Duration(cfg.Queue.PollTimeout+5) * time.Second,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable; using in-memory task queue")
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info().Msg("connected to redis")
		}
	}

	var tasks queue.Queue
	if redisClient != nil {
		tasks = queue.NewRedisQueue(redisClient, cfg.Queue.Key)
	} else {
		tasks = queue.NewMemoryQueue(cfg.Queue.Buffer)
	}
	defer tasks.Close()

	// Elasticsearch 연결
	var esClient *pkges.Client
	if cfg.Elasticsearch.Enabled && len(cfg.Elasticsearch.Addresses) > 0 {
		esClient, err = pkges.NewClient(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password, cfg.Elasticsearch.Index)
		if err == nil {
			err = esClient.EnsureIndex(ctx)
		}
		if err != nil {
			log.Warn().Err(err).Msg("elasticsearch unavailable; search disabled")
			esClient = nil
		} else {
			log.Info().Str("index", esClient.Index()).Msg("connected to elasticsearch")
		}
	}

	// Hook 과 플러그인
	hooks := plugin.NewHookManager(plugin.NewZerologLogger(*log, "hooks"))
	if cfg.Wiki.ImageLink.Enabled {
		imagelink.New(cfg.Wiki.ImageLink).RegisterHooks(hooks)
	}

	files := repository.NewFileProvider(nodes, cfg.Wiki.Files.BaseURL, cfg.Wiki.Files.Variants, cfg.Wiki.Files.Placeholder)
	renderer, err := pipeline.New(cfg.Wiki, service.NewPageLookup(nodes), files, hooks)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	// 렌더링 캐시 (Redis 없으면 통과)
	cached := service.NewCachedRenderer(renderer, cache.NewService(redisClient), cache.TTLRender)
	pages := service.NewPageService(nodes, history, cached, tasks, hooks, cfg.Wiki)

	// 백그라운드 워커
	worker := queue.NewWorker(tasks, cfg.Queue.Workers, time.Duration(cfg.Queue.PollTimeout)*time.Second, *log)
	var index service.SearchIndex
	var searcher handler.Searcher
	if esClient != nil {
		index, searcher = esClient, esClient
	}
	service.RegisterTaskHandlers(worker, pages, nodes, index)
	worker.Start(ctx)
	defer worker.Stop()

	// Gin 라우터 생성
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "PUT", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	routes.Setup(router,
		handler.NewWikiHandler(pages, searcher),
		handler.NewHealthHandler(sqlDB),
		routes.Options{
			JWT:            jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn),
			Redis:          redisClient,
			EditsPerMinute: cfg.Wiki.EditsPerMinute,
		},
	)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	go reportDBStats(ctx, sqlDB.Stats)

	// 서버 시작
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// reportDBStats feeds the connection pool gauge until ctx is done
func reportDBStats(ctx context.Context, stats func() sql.DBStats) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		middleware.SetDBConnectionsInUse(stats().InUse)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
