// serve_cmd.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LilVoxy/obeya_headcount/ETL/config"
	"github.com/LilVoxy/obeya_headcount/ETL/extractors"
	"github.com/LilVoxy/obeya_headcount/ETL/load"
	"github.com/LilVoxy/obeya_headcount/ETL/runner"
	"github.com/LilVoxy/obeya_headcount/routes"
	"github.com/LilVoxy/obeya_headcount/websocket"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		origins []string
		warm    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API, metrics and websocket notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if addr == "" {
				addr = cfg.HTTPAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			connections, err := config.ConnectDatabases(cfg, logger)
			if err != nil {
				return err
			}
			defer config.CloseDatabases(connections, logger)

			var redisClient *redis.Client
			if cfg.CacheBackend == config.CacheRedis {
				if redisClient, err = load.NewRedisClient(ctx, cfg.RedisURL); err != nil {
					return err
				}
				defer redisClient.Close()
			}

			wsManager := websocket.NewManager(logger, origins...)
			if redisClient != nil {
				wsManager.WithBus(websocket.NewRedisBus(redisClient, websocket.DefaultChannel, logger))
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			etl, err := runner.NewETLRunner(ctx, runner.Deps{
				Config:      cfg,
				Connections: connections,
				Logger:      logger,
				Notifier:    wsManager,
				Registerer:  registry,
				Redis:       redisClient,
			})
			if err != nil {
				return err
			}
			if warm {
				if err := etl.Refresh(ctx); err != nil {
					logger.Warn("Initial dataset load failed: %v", err)
				}
			}

			handlers := routes.NewHandlers(etl, extractors.NewLayerCatalog(cfg.GeoDataPath, logger), cfg.TopStores, logger)
			router := mux.NewRouter()
			routes.SetupRoutes(router, handlers, wsManager.HandleConnections, registry)

			server := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return wsManager.Run(gctx) })
			g.Go(func() error { return etl.StartScheduler(gctx, cfg.RefreshInterval) })
			g.Go(func() error {
				logger.Info("HTTP server listening on %s", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				logger.Info("Shutting down HTTP server")
				return server.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default OBEYA_HTTP_ADDR)")
	cmd.Flags().StringSliceVar(&origins, "ws-origin", nil, "Allowed websocket origins (default any)")
	cmd.Flags().BoolVar(&warm, "warm", true, "Load the dataset before accepting requests")
	return cmd
}
