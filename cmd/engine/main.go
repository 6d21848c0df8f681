// engine is the tick daemon: it runs one evaluation tick every interval
// until stopped. Use -once for a single tick (cron-style deployments).
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-engine/internal/config"
	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/engine"
	"github.com/ignite/outreach-engine/internal/mailing"
	"github.com/ignite/outreach-engine/internal/pkg/logger"
	"github.com/ignite/outreach-engine/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single tick and exit")
	testMode := flag.Bool("test-mode", false, "simulate sends instead of delivering")
	campaignID := flag.String("campaign", "", "restrict ticks to one campaign")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	configureLogging(cfg)

	db, redisClient, eng := buildEngine(cfg, *testMode)
	defer db.Close()
	if redisClient != nil {
		defer redisClient.Close()
	}

	opts := domain.TickOptions{TestMode: *testMode, CampaignID: *campaignID}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if _, err := eng.RunTick(ctx, opts); err != nil {
			log.Fatalf("tick failed: %v", err)
		}
		return
	}

	interval := cfg.Automation.TickInterval()
	logger.Info("engine started", "interval", interval.String(), "test_mode", *testMode)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("engine stopping")
			return
		case <-ticker.C:
			if _, err := eng.RunTick(ctx, opts); err != nil {
				logger.Error("tick failed", "error", err.Error())
			}
		}
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

func buildEngine(cfg *config.Config, testMode bool) (*sql.DB, *redis.Client, *engine.Engine) {
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

	var deliver mailing.EmailSender
	if !testMode {
		if cfg.SES.AccessKey == "" || cfg.SES.SecretKey == "" {
			log.Fatal("SES credentials are required outside test mode")
		}
		deliver, err = mailing.NewSESSender(context.Background(), cfg.SES.Region, cfg.SES.AccessKey, cfg.SES.SecretKey)
		if err != nil {
			log.Fatalf("init SES sender: %v", err)
		}
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
