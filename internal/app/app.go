package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/you/missionlog/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Run serves HTTP until ctx is cancelled, then drains connections and
// closes the hub, the pending store sweeper and the database.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.App.GinMode != "" {
		gin.SetMode(cfg.App.GinMode)
	}

	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("failed to close resources", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           c.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return c.Hub.Run(gctx)
	})

	if c.sweeper != nil {
		g.Go(func() error {
			return c.sweeper.Run(gctx, cfg.OTP.SweepInterval)
		})
	}

	return g.Wait()
}
