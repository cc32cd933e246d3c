package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BlackMission/spauth/internal/auth"
	"github.com/BlackMission/spauth/internal/config"
	"github.com/BlackMission/spauth/internal/logging"
	"github.com/BlackMission/spauth/internal/metrics"
	"github.com/BlackMission/spauth/internal/providers/sharepoint"
	"github.com/BlackMission/spauth/internal/server"
	"github.com/BlackMission/spauth/internal/state"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	stateSvc := state.NewService([]byte(cfg.Secrets.StateSigningKey))

	strategies := auth.NewRegistry()

	if cfg.SharePoint != nil {
		factory := sharepoint.Factory(*cfg.SharePoint, sharepoint.WithLogger(log))
		if err := strategies.Register(sharepoint.StrategyName, factory); err != nil {
			log.WithError(err).Fatal("failed to register sharepoint strategy")
		}
		// Build eagerly so bad settings stop the process at startup.
		if _, err := strategies.Get(sharepoint.StrategyName); err != nil {
			log.WithError(err).Fatal("invalid sharepoint settings")
		}
		log.WithFields(logrus.Fields{
			"strategy":   sharepoint.StrategyName,
			"site":       cfg.SharePoint.URL,
			"login_mode": cfg.SharePoint.LoginMode,
		}).Info("registered strategy")
	} else {
		log.Warn("SHAREPOINT_URL not set, no strategies registered")
	}

	srv := server.New(server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, server.Deps{
		Strategies: strategies,
		State:      stateSvc,
		Metrics:    metrics.New(),
		Logger:     log,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	log.WithField("base_url", cfg.Server.BaseURL).Info("server started")

	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("shutdown error")
	}

	log.Info("server stopped")
}
