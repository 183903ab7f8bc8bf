package main

import (
	"context"
	"flag"
	"fmt"
	"gurimarket/backend/internal/api/handler"
	"gurimarket/backend/internal/config"
	"gurimarket/backend/internal/report"
	"gurimarket/backend/internal/storage"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  restore <uid>                   restore a suspended user's hidden posts
  queue                           list pending admin reviews
  resolve [--restore] <review_id> close a pending review
  token <subject> [ttl]           mint an admin API token (default ttl 12h)`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("config: %v", err)
	}
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	log := logger.Sugar()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "token":
		if len(os.Args) < 3 {
			fatalf("Usage: admin token <subject> [ttl]")
		}
		ttl := 12 * time.Hour
		if len(os.Args) > 3 {
			if ttl, err = time.ParseDuration(os.Args[3]); err != nil {
				fatalf("Invalid ttl: %v", err)
			}
		}
		token, err := handler.GenerateAdminToken([]byte(cfg.JWTSecret), os.Args[2], ttl)
		if err != nil {
			fatalf("Error minting token: %v", err)
		}
		fmt.Println(token)

	case "restore":
		if len(os.Args) != 3 {
			fatalf("Usage: admin restore <uid>")
		}
		svc := newReportService(ctx, cfg, log)
		restored, err := svc.RestoreUserPostsAfterSuspension(ctx, os.Args[2])
		if err != nil {
			fatalf("Error restoring posts: %v", err)
		}
		fmt.Printf("Restored %d posts of user %s.\n", restored, os.Args[2])

	case "queue":
		q := newReviewQueue(cfg)
		reviews, err := q.Pending(ctx, 0)
		if err != nil {
			fatalf("Error listing reviews: %v", err)
		}
		if len(reviews) == 0 {
			fmt.Println("No pending reviews.")
			return
		}
		for _, r := range reviews {
			fmt.Printf("%s  user=%s  recent30=%d  hidden=%d  categories=%v  opened=%s\n",
				r.ID, r.UserID, r.Recent30Days, r.HiddenPosts, []string(r.Categories), r.CreatedAt.Format(time.RFC3339))
		}

	case "resolve":
		fs := flag.NewFlagSet("resolve", flag.ExitOnError)
		restore := fs.Bool("restore", false, "restore the user's hidden posts")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() != 1 {
			fatalf("Usage: admin resolve [--restore] <review_id>")
		}
		svc := newReportService(ctx, cfg, log)
		review, restored, err := svc.ResolveReview(ctx, newReviewQueue(cfg), fs.Arg(0), *restore)
		if err != nil {
			fatalf("Error resolving review: %v", err)
		}
		fmt.Printf("Review %s resolved as %s (%d posts restored).\n", review.ID, review.Resolution, restored)

	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func newReportService(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) *report.Service {
	cli, err := storage.ConnectMongo(ctx, storage.MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
	if err != nil {
		fatalf("Failed to connect MongoDB: %v", err)
	}
	svc := report.NewService(storage.NewMongoStore(cli.Database(cfg.MongoDatabase)), log)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnw("Redis unavailable; the suspension cache will not be cleared", "error", err)
		return svc
	}
	cache := storage.NewCache(rdb)
	svc.Suspensions = cache
	svc.Feed = cache
	return svc
}

func newReviewQueue(cfg *config.Config) *storage.ReviewQueue {
	if cfg.DatabaseURL == "" {
		fatalf("DATABASE_URL is required for the review queue")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		fatalf("Failed to connect PostgreSQL: %v", err)
	}
	return storage.NewReviewQueue(db)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
