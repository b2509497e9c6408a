package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PixelSam123/wordgames-client/internal/bridge"
	"github.com/PixelSam123/wordgames-client/internal/config"
	"github.com/PixelSam123/wordgames-client/internal/logger"
	"github.com/PixelSam123/wordgames-client/internal/session"
	"github.com/PixelSam123/wordgames-client/internal/settings"
	"github.com/PixelSam123/wordgames-client/internal/ws"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		cobra.CheckErr(err)
	}
	cfg := &config.Client{}
	cobra.CheckErr(config.NewClientCommand(cfg, run).Execute())
}

func run(cmd *cobra.Command, cfg *config.Client) (err error) {
	log := logger.Init(cfg.LogLevel, cfg.LogJSON)
	defer logger.Sync()

	store, err := settings.Open(cfg.Settings)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wake := make(chan struct{}, 1)
	b := bridge.New(ws.Dial, bridge.Options{
		Logger: log,
		Notify: func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		},
	})
	sess := session.New(session.FromBridge(b), store, session.Options{Logger: log})
	if cfg.Address != "" {
		if err := sess.SetAddress(ctx, cfg.Address); err != nil {
			log.Warn("address not saved", zap.Error(err))
		}
	}

	// stdin cannot be interrupted; this reader is left behind on exit.
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	sh := newShell(sess, os.Stdout)
	g.Go(func() error {
		defer stop()
		return sh.loop(gctx, cfg.Tick, lines, wake)
	})
	return g.Wait()
}
