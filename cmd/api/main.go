package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trustfreeze/backend/internal/api/middleware"
	"github.com/trustfreeze/backend/internal/api/routes"
	"github.com/trustfreeze/backend/internal/config"
	"github.com/trustfreeze/backend/internal/database"
	"github.com/trustfreeze/backend/internal/events"
	"github.com/trustfreeze/backend/internal/ledger"
	"github.com/trustfreeze/backend/internal/logger"
	"github.com/trustfreeze/backend/internal/metrics"
	"github.com/trustfreeze/backend/internal/server"
	"github.com/trustfreeze/backend/internal/services"
	"github.com/trustfreeze/backend/internal/version"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Handle CLI commands
	if len(os.Args) > 1 && os.Args[1] == "issue-token" {
		issueToken(cfg, os.Args[2:])
		return
	}

	// Setup logging with rotation
	if err := os.MkdirAll(cfg.Log.Dir, 0o755); err != nil {
		log.Fatalf("create log directory: %v", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Log.Dir, "trustfreeze.log"),
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	}
	defer rotator.Close()

	// Log to both stdout and file
	mw := io.MultiWriter(os.Stdout, rotator)
	log.SetOutput(mw)
	logger.Init(cfg.Log.Debug, mw)

	logger.Log().WithField("version", version.Full()).Infof("starting %s", version.Name)

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Log().WithError(err).Fatal("connect database")
	}
	if err := database.Migrate(db, cfg.Database.Driver); err != nil {
		logger.Log().WithError(err).Fatal("migrate database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
		logger.Log().WithField("topic", cfg.Kafka.Topic).Info("publishing freeze events to kafka")
	}

	freeze := services.NewFreezeService(
		ledger.NewHorizonClient(cfg.Ledger.HorizonURL, cfg.Ledger.RequestTimeout),
		services.NewGormFreezeAuditStore(db),
		services.WithBuilder(ledger.NewBuilder(cfg.Ledger.NetworkPassphrase, cfg.Ledger.BaseFee, cfg.Ledger.TxTimeout)),
		services.WithPublisher(publisher),
		services.WithHolderPageSize(cfg.Ledger.HolderPageSize),
	)

	srv, err := server.New(cfg, routes.Deps{
		DB:        db,
		Freeze:    freeze,
		Metrics:   registry,
		JWTSecret: cfg.Auth.JWTSecret,
	})
	if err != nil {
		logger.Log().WithError(err).Fatal("build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Log().WithError(err).Error("server error")
		os.Exit(1)
	}
	logger.Log().Info("server stopped")
}

// issueToken prints a bearer token for the freeze API.
func issueToken(cfg config.Config, args []string) {
	if len(args) < 2 || len(args) > 3 {
		log.Fatalf("Usage: %s issue-token <subject> <compliance|auditor> [ttl]", os.Args[0])
	}
	subject, role := args[0], args[1]
	if role != middleware.RoleCompliance && role != middleware.RoleAuditor {
		log.Fatalf("unknown role %q", role)
	}
	ttl := 24 * time.Hour
	if len(args) == 3 {
		d, err := time.ParseDuration(args[2])
		if err != nil {
			log.Fatalf("parse ttl: %v", err)
		}
		ttl = d
	}

	token, err := middleware.GenerateToken(cfg.Auth.JWTSecret, subject, role, ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}
