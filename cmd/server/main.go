package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/api"
	"github.com/mythrivebuddy/thrive_server/internal/api/handler"
	"github.com/mythrivebuddy/thrive_server/internal/app"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/pubsub"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/ws"
)

var configPath = flag.String("config", "config.yaml", "Path to config file")

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(cfg.Log)
	log := logger.Component("server")

	db, rdb, err := app.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect storage")
	}
	defer rdb.Close()

	svc, err := app.NewServices(db, rdb, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build services")
	}

	// WebSocket Hub，worker 通过 Redis 频道推送
	hub := ws.NewHub(logger.Component("ws"))

	router := api.NewRouter(api.Handlers{
		Auth:         handler.NewAuthHandler(svc.Auth, cfg),
		User:         handler.NewUserHandler(svc.User),
		Ledger:       handler.NewLedgerHandler(svc.Ledger),
		Application:  handler.NewApplicationHandler(svc.Application),
		Subscription: handler.NewSubscriptionHandler(svc.Subscription),
		Group:        handler.NewGroupHandler(svc.Group),
		Comment:      handler.NewCommentHandler(svc.Comment),
		Challenge:    handler.NewChallengeHandler(svc.Challenge),
		Notification: handler.NewNotificationHandler(svc.Notification),
		Cron:         handler.NewCronHandler(svc.Cron),
		WebSocket:    handler.NewWebSocketHandler(hub, cfg),
	}, svc.Repos.Users, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sub := pubsub.NewSubscriber(rdb, cfg.Notification.Channel)
		err := sub.Subscribe(gctx, hub.Deliver)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("realtime subscriber: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped with error")
		return
	}
	log.Info("server stopped")
}
