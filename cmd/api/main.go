package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"servipay/internal/config"
	httpx "servipay/internal/http"
	"servipay/internal/mercadopago"
	"servipay/internal/services/checkout"
	"servipay/internal/services/connect"
	"servipay/internal/services/webhook"
	"servipay/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init DB
	pool := postgres.MustOpen(ctx, cfg.DB.DSN)
	defer pool.Close()

	requests := postgres.NewRequestRepository(pool)
	tokens := postgres.NewTokenRepository(pool)
	transactions := postgres.NewTransactionRepository(pool)

	// Redis backs the rate limiter only; the API runs without it.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	}

	mp := mercadopago.New(cfg.MP)

	r := httpx.NewRouter(httpx.RouterDependencies{
		Config:   cfg,
		Redis:    rdb,
		Connect:  connect.NewService(tokens, requests, mp),
		Checkout: checkout.NewService(requests, tokens, transactions, mp, cfg.App),
		Webhook:  webhook.NewService(requests, tokens, transactions, mp, cfg.MP.PlatformAccessToken),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Msgf("ServiPay API listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	log.Info().Msg("server stopped")
}
