package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/app"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/cron"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/email"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/pubsub"
	"github.com/mythrivebuddy/thrive_server/internal/worker"
)

var (
	configPath  = flag.String("config", "config.yaml", "Path to config file")
	withCron    = flag.Bool("cron", true, "Run the in-process scheduler alongside queue consumers")
	maxAttempts = flag.Int("max-attempts", 3, "Email delivery attempts before giving up")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(cfg.Log)
	log := logger.Component("worker")

	db, rdb, err := app.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect storage")
	}
	defer rdb.Close()

	svc, err := app.NewServices(db, rdb, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build services")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *withCron {
		sched := cron.NewScheduler(logger.Component("cron"), 10*time.Minute)
		if err := svc.Cron.Register(sched, cfg.Cron); err != nil {
			log.WithError(err).Fatal("failed to register cron jobs")
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	var sender email.Sender
	if svc.Mailer != nil {
		sender = svc.Mailer
	} else {
		log.Warn("smtp not configured, email delivery disabled")
	}

	processor := worker.NewProcessor(svc.Queue, sender,
		pubsub.NewPublisher(rdb, cfg.Notification.Channel), *maxAttempts)

	log.WithField("workers", cfg.Queue.MaxWorkers).Info("worker started")
	if err := processor.Run(ctx, cfg.Queue.MaxWorkers); err != nil {
		log.WithError(err).Error("worker stopped with error")
	}
	log.WithField("processed", processor.Processed()).Info("worker shutdown complete")
}
