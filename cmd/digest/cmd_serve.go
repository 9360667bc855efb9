package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jongeeting/development-digest/internal/adapter/httpadapter"
	"github.com/jongeeting/development-digest/internal/render"
)

var serveOpts struct {
	interval time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a service, rebuilding the digest on an interval",
	Long: "Serves /healthz, /readyz, /metrics, and /digest/latest while\n" +
		"rebuilding the digest window on the given interval.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&serveOpts.interval, "interval", time.Hour, "digest rebuild interval")
}

// digestCache holds the latest rendered digest for the HTTP preview endpoint.
type digestCache struct {
	mu       sync.RWMutex
	markdown string
	builtAt  time.Time
}

func (c *digestCache) store(markdown string, builtAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markdown = markdown
	c.builtAt = builtAt
}

func (c *digestCache) LatestDigest() (string, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.markdown, c.builtAt, c.markdown != ""
}

func runServe(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cache := &digestCache{}
	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.builder, cache, a.logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
		}
	}()

	renderer := a.renderer(a.cfg.MinUnits, a.cfg.LookbackDays)
	go a.rebuildLoop(ctx, cache, renderer)

	<-ctx.Done()
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

// rebuildLoop builds the digest immediately and then on every tick until the
// context is cancelled. Build failures keep the previous digest in the cache.
func (a *app) rebuildLoop(ctx context.Context, cache *digestCache, renderer *render.Renderer) {
	ticker := time.NewTicker(serveOpts.interval)
	defer ticker.Stop()

	for {
		a.rebuild(ctx, cache, renderer)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *app) rebuild(ctx context.Context, cache *digestCache, renderer *render.Renderer) {
	since := time.Now().UTC().AddDate(0, 0, -a.cfg.LookbackDays)

	digest, err := a.builder.Build(ctx, since)
	if err != nil {
		a.logger.Error("digest rebuild failed", "error", err)
		return
	}
	cache.store(renderer.Markdown(digest), digest.GeneratedAt)
}
