package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/snake-draft-backend/internal/config"
	"github.com/DoyleJ11/snake-draft-backend/internal/httpapi"
	"github.com/DoyleJ11/snake-draft-backend/internal/hub"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The hub outlives ctx so in-flight requests drain before lobbies stop.
	h := hub.NewHub(context.Background(), hub.WithLogger(log), hub.WithIdleTTL(cfg.Draft.IdleTTL))

	// Build the router with the hub injected
	srv := &http.Server{
		Addr: cfg.GetAddr(),
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:            h,
			Logger:         log,
			Rules:          cfg.Draft.Rules,
			Rosters:        cfg.Draft.Rosters,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Server.Env),
			zap.Int("quota", cfg.Draft.Rules.Quota()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return multierr.Combine(srv.Shutdown(sctx), h.Close(sctx))
	})
	return g.Wait()
}
