package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PixelSam123/wordgames-client/internal/config"
	"github.com/PixelSam123/wordgames-client/internal/httpapi"
	"github.com/PixelSam123/wordgames-client/internal/hub"
	"github.com/PixelSam123/wordgames-client/internal/lobby"
	"github.com/PixelSam123/wordgames-client/internal/logger"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		cobra.CheckErr(err)
	}
	cfg := &config.Server{}
	cobra.CheckErr(config.NewServerCommand(cfg, serve).Execute())
}

func serve(cmd *cobra.Command, cfg *config.Server) error {
	log := logger.Init(cfg.LogLevel, cfg.LogJSON)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, lobby.Config{
		Game:      "anagram",
		RoundTime: cfg.RoundTime,
		BreakTime: cfg.BreakTime,
		Rounds:    cfg.Rounds,
	})

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           httpapi.SetupRoutes(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		done := make(chan struct{})
		select {
		case h.Inbox() <- hub.ShutdownHub{Done: done}:
			select {
			case <-done:
			case <-h.Done():
			}
		case <-h.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
