package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tastymetrics/internal/cache"
	"tastymetrics/internal/server"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query catalog over HTTP",
	Long: "Expose the catalog as a JSON API: GET /api/v1/queries lists the\n" +
		"available queries and GET /api/v1/queries/{name} runs one with\n" +
		"start, end, country and limit query parameters.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	runner, cfg, cleanup, err := newRunner()
	if err != nil {
		return err
	}
	defer cleanup()

	log := newLogger()

	var store cache.Store
	ttl := 5 * time.Minute
	if cfg.Cache.Enabled {
		redisStore, err := cache.NewRedisStore(cfg.Cache, log)
		if err != nil {
			// The cache is an optimization; serve uncached rather than fail.
			log.Warn("result cache disabled", zap.Error(err))
		} else {
			store = redisStore
			defer redisStore.Close()
			if d, err := time.ParseDuration(cfg.Cache.TTL); err == nil {
				ttl = d
			}
		}
	}

	addr := flagAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	srv := server.New(runner, store, ttl, log)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-done:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
	}

	return nil
}
