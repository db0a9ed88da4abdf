// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tableside/internal/config"
	"tableside/internal/coordinator"
	"tableside/internal/events"
	httptransport "tableside/internal/http"
	"tableside/internal/infra"
	"tableside/internal/locks"
	"tableside/internal/maps"
	"tableside/internal/modules/menu"
	"tableside/internal/modules/order"
	"tableside/internal/modules/table"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	lockManager := locks.NewManager(redisClient)

	var eta order.ETA
	if cfg.Maps.APIKey != "" {
		etaSvc, err := maps.NewETAService(cfg.Maps.APIKey, cfg.Maps.RestaurantAddress)
		if err != nil {
			logger.Error("maps init failed", "error", err)
			os.Exit(1)
		}
		eta = etaSvc
	}

	menuStore := menu.NewStore(dbPool)
	menuSvc := menu.NewService(menuStore)

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(orderStore, menuSvc, lockManager, eta)

	tableStore := table.NewStore(dbPool)
	tableSvc := table.NewService(tableStore)

	hub := events.NewHub()
	coord := coordinator.New(orderSvc, tableSvc, hub)

	if cfg.AMQP.URL != "" {
		conn, err := infra.NewRabbit(cfg.AMQP.URL)
		if err != nil {
			logger.Error("rabbit connect failed", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		sink, err := events.NewAMQPSink(conn, logger)
		if err != nil {
			logger.Error("amqp sink init failed", "error", err)
			os.Exit(1)
		}
		go sink.Run(ctx, hub)
	}

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httptransport.NewRouter(coord, menuSvc, logger),
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
