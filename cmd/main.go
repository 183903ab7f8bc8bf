package main

import (
	"context"
	"errors"
	"gurimarket/backend/internal/api/handler"
	"gurimarket/backend/internal/block"
	"gurimarket/backend/internal/config"
	"gurimarket/backend/internal/counter"
	"gurimarket/backend/internal/hub"
	"gurimarket/backend/internal/localization"
	"gurimarket/backend/internal/logging"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/notify"
	"gurimarket/backend/internal/push"
	"gurimarket/backend/internal/report"
	"gurimarket/backend/internal/reputation"
	"gurimarket/backend/internal/storage"
	"gurimarket/backend/internal/telegram"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// reviewQueue is satisfied by both the Postgres and the in-memory queue.
type reviewQueue interface {
	report.ReviewQueue
	Open(ctx context.Context, review *models.AdminReview) error
}

type dependencies struct {
	store   storage.Storage
	mongo   *mongo.Client
	mongoDB *mongo.Database
	rdb     *redis.Client
	cache   *storage.Cache
	queue   reviewQueue
}

func setupDependencies(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) *dependencies {
	deps := &dependencies{}

	// 1. Document store
	if cfg.StoreBackend == "memory" {
		log.Warnw("Using the in-memory store; data is lost on restart")
		deps.store = storage.NewMemoryStore()
	} else {
		cli, err := storage.ConnectMongo(ctx, storage.MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err != nil {
			log.Fatalw("Failed to connect MongoDB", "error", err)
		}
		deps.mongo = cli
		deps.mongoDB = cli.Database(cfg.MongoDatabase)
		deps.store = storage.NewMongoStore(deps.mongoDB)
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		if cfg.Environment == "production" {
			log.Fatalw("Failed to connect Redis", "addr", cfg.RedisAddr, "error", err)
		}
		log.Warnw("Redis unavailable; running without suspension cache, feed and pub/sub", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
	} else {
		deps.rdb = rdb
		deps.cache = storage.NewCache(rdb)
	}

	// 3. Admin review queue
	if cfg.DatabaseURL == "" {
		log.Warnw("DATABASE_URL not set; admin reviews are kept in memory")
		deps.queue = storage.NewMemoryReviewQueue()
	} else {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalw("Failed to connect PostgreSQL", "error", err)
		}
		q := storage.NewReviewQueue(db)
		if err := q.Migrate(); err != nil {
			log.Fatalw("Failed to run migrations", "error", err)
		}
		deps.queue = q
	}

	log.Infow("Dependencies ready", "store", cfg.StoreBackend, "redis", deps.rdb != nil, "postgres", cfg.DatabaseURL != "")
	return deps
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()
	log.Infow("Starting trigger engine", "env", cfg.Environment, "sources", cfg.TriggerSources)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Dependencies
	deps := setupDependencies(ctx, cfg, log)
	text, err := localization.NewLocalizer()
	if err != nil {
		log.Fatalw("Failed to load translations", "error", err)
	}
	pusher := push.NewClient(cfg.PushEndpoint, cfg.PushTimeout)

	// 2. Services
	reports := report.NewService(deps.store, log)
	reports.Reviews = deps.queue
	if deps.cache != nil {
		reports.Suspensions = deps.cache
		reports.Feed = deps.cache
	}

	var bot *telegram.BotService
	if cfg.TelegramBotToken != "" {
		bot, err = telegram.NewBotService(cfg.TelegramBotToken, cfg.TelegramAdminChatID, text, log)
		if err != nil {
			log.Fatalw("Failed to start Telegram bot", "error", err)
		}
		bot.Restorer = reports
		bot.Queue = deps.queue
		reports.Alerts = bot.Alerts
	}

	// 3. Hub
	d := hub.NewDispatcher(cfg.HubMaxInflight, log)
	if deps.cache != nil {
		d.SetDeduper(deps.cache, cfg.DedupTTL)
	} else {
		d.SetDeduper(hub.NewMemoryDeduper(), cfg.DedupTTL)
	}
	hub.Register(d, hub.Services{
		Reports:    reports,
		Reputation: reputation.NewService(deps.store, log),
		Counter:    counter.NewService(deps.store, log),
		Blocks:     block.NewService(deps.store, log),
		Chat:       notify.NewChatDispatcher(deps.store, pusher, text, log),
		Replies:    notify.NewReplyDispatcher(deps.store, pusher, text, log),
	})

	var sources []hub.Source
	if cfg.HasSource("changestream") {
		if deps.mongoDB == nil {
			log.Warnw("Change streams need the mongo backend; source disabled")
		} else {
			var tokens hub.TokenStore
			if deps.cache != nil {
				tokens = deps.cache
			}
			sources = append(sources, hub.NewChangeStreamSource(deps.mongoDB, tokens, log))
		}
	}
	if cfg.HasSource("pubsub") && deps.rdb != nil {
		sources = append(sources, hub.NewPubSubSource(deps.rdb, log))
	}

	// 4. Background goroutines
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src hub.Source) {
			defer wg.Done()
			hub.RunSource(ctx, src, d, log)
		}(src)
	}
	if bot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bot.Run(ctx)
		}()
	}

	// 5. HTTP
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(logger))
	h := handler.NewHandler(d, reports, cfg.JWTSecret, log)
	h.Reviews = deps.queue
	if deps.cache != nil {
		h.Feed = deps.cache
	}
	h.Routes(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		log.Infow("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("HTTP server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Infow("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Forced HTTP shutdown", "error", err)
	}
	wg.Wait()
	d.Wait()

	if deps.mongo != nil {
		_ = deps.mongo.Disconnect(shutdownCtx)
	}
	if deps.rdb != nil {
		_ = deps.rdb.Close()
	}
	log.Infow("Engine stopped")
}
