// Package server boots the storefront gateway: config, cache, storage, the
// screen registry, the event→WebSocket bridge, and the HTTP listener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/storefront/app/controllers"
	appgql "github.com/shashiranjanraj/storefront/app/graphql"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/session"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

const (
	stagingWorkers   = 8
	sessionSweepTick = 10 * time.Minute
	shutdownGrace    = 10 * time.Second
)

// Start boots every subsystem and serves until SIGINT/SIGTERM.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	if uri := config.MongoLogURI(); uri != "" {
		sink, err := logger.AttachMongoSink(uri, config.MongoLogDB(), config.MongoLogCollection())
		if err != nil {
			logger.Warn("mongo log sink disabled", "error", err)
		} else {
			defer sink.Close()
		}
	}

	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, using in-process cache", "error", err)
	}
	storage.Connect()

	pool := workerpool.New(stagingWorkers)
	defer pool.Shutdown()

	hub := ws.NewHub()
	go hub.Run()
	bridgeScreenEvents(hub)

	orders := services.NewOrderService()
	products := services.NewProductService()

	registry := controllers.NewRegistry(controllers.Services{
		Orders:   orders,
		Products: products,
		Uploads:  services.NewUploadService(pool),
		Payments: services.NewConfigService(),
	})

	schema, err := graphql.NewSchema(appgql.NewRootQuery(products, orders))
	if err != nil {
		return err
	}

	sessOpts := session.DefaultOptions()

	r := router.New()
	routes.Register(r, routes.Deps{
		Registry:    registry,
		Schema:      schema,
		Hub:         hub,
		SessionOpts: sessOpts,
	})

	go sweepSessions(registry, sessOpts.TTL)

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront gateway listening",
			"addr", srv.Addr,
			"upstream", config.APIBaseURL(),
			"env", config.AppEnv(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// bridgeScreenEvents forwards every controller state transition to the
// owning session's WebSocket clients.
func bridgeScreenEvents(hub *ws.Hub) {
	event.Listen(event.ScreenUpdated, func(payload interface{}) {
		ev, ok := payload.(controllers.ScreenEvent)
		if !ok {
			return
		}
		data, err := json.Marshal(ev)
		if err != nil {
			logger.Warn("screen event marshal", "error", err)
			return
		}
		hub.SendTo(ev.Session, data)
	})
}

// sweepSessions drops screen state for sessions idle past the cookie TTL.
func sweepSessions(registry *controllers.Registry, maxIdle time.Duration) {
	ticker := time.NewTicker(sessionSweepTick)
	defer ticker.Stop()
	for range ticker.C {
		if removed := registry.Sweep(maxIdle); removed > 0 {
			logger.Debug("swept idle screen sessions", "removed", removed)
		}
	}
}
