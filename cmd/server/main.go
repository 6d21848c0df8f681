// server exposes the HTTP API: manual tick triggering and contact
// schedule inspection. Sends triggered through the API use the same
// engine as the tick daemon.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-engine/internal/api"
	"github.com/ignite/outreach-engine/internal/config"
	"github.com/ignite/outreach-engine/internal/engine"
	"github.com/ignite/outreach-engine/internal/mailing"
	"github.com/ignite/outreach-engine/internal/pkg/logger"
	"github.com/ignite/outreach-engine/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	configureLogging(cfg)

	db, redisClient, eng := buildEngine(cfg)
	defer db.Close()
	if redisClient != nil {
		defer redisClient.Close()
	}

	router := api.SetupRoutes(api.NewHandlers(eng))
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("server stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}

func configureLogging(cfg *config.Config) {
	switch cfg.Logging.Level {
	case "debug":
		logger.SetLevel(logger.DEBUG)
	case "warn":
		logger.SetLevel(logger.WARN)
	case "error":
		logger.SetLevel(logger.ERROR)
	default:
		logger.SetLevel(logger.INFO)
	}
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}
}

func buildEngine(cfg *config.Config) (*sql.DB, *redis.Client, *engine.Engine) {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("invalid redis url: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("ping redis: %v", err)
		}
	}

	// The API can always fall back to test-mode sends, so missing SES
	// credentials downgrade delivery instead of refusing to start.
	var deliver mailing.EmailSender
	if cfg.SES.AccessKey != "" && cfg.SES.SecretKey != "" {
		deliver, err = mailing.NewSESSender(context.Background(), cfg.SES.Region, cfg.SES.AccessKey, cfg.SES.SecretKey)
		if err != nil {
			log.Fatalf("init SES sender: %v", err)
		}
	} else {
		logger.Warn("SES credentials not set, live sends disabled")
	}

	var health mailing.HealthProvider
	if cfg.Health.BaseURL != "" {
		health = mailing.NewHTTPHealthProvider(cfg.Health.BaseURL)
	}

	eng := engine.New(engine.Config{
		NumWorkers:       cfg.Automation.NumWorkers,
		ContactBatchSize: cfg.Automation.ContactBatchSize,
		SendTimeout:      cfg.Automation.SendTimeout(),
		LockTTL:          cfg.Automation.LockTTL(),
		MinHealthScore:   cfg.Automation.MinHealthScore,
		DefaultTimezone:  cfg.Automation.DefaultTimezone,
		FromName:         cfg.SES.FromName,
	}, engine.Options{
		Store:   postgres.New(db),
		Redis:   redisClient,
		DB:      db,
		Deliver: deliver,
		Health:  health,
	})
	return db, redisClient, eng
}
