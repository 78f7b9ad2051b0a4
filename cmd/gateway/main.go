package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trendora/storefront/internal/apiclient"
	"github.com/trendora/storefront/internal/config"
	"github.com/trendora/storefront/internal/events"
	"github.com/trendora/storefront/internal/httpserver"
	"github.com/trendora/storefront/internal/localstore"
	"github.com/trendora/storefront/internal/logging"
	"github.com/trendora/storefront/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	local, err := localstore.Open(initCtx, cfg.GuestStoreDSN)
	cancel()
	if err != nil {
		log.Fatalf("guest store init error: %v", err)
	}

	shop := apiclient.New(cfg.ShopAPIURL)

	pricing := store.Pricing{
		ShippingFee:     cfg.ShippingFee,
		FreeShippingMin: cfg.FreeShippingMin,
	}
	registry := store.NewRegistry(shop.Cart, shop.Wishlist, local, pricing, cfg.SessionTTL)

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.EventsTopic)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(httpserver.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Registry:  registry,
		Catalog:   shop.Catalog,
		Producer:  producer,
		JWTSecret: cfg.JWTSecret,
	})

	sweepCtx, stopSweep := context.WithCancel(logging.IntoContext(context.Background(), logger))
	go registry.Run(sweepCtx)

	go func() {
		logger.Info("starting storefront gateway", "port", cfg.ServerPort)
		if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	stopSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}

	if err := producer.Close(); err != nil {
		logger.Error("event producer close", "error", err)
	}

	if err := local.Close(); err != nil {
		logger.Error("guest store close", "error", err)
	}

	logger.Info("stopped")
}
