package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"stargifty/internal/client"
	"stargifty/internal/config"
	"stargifty/internal/observability"
	"stargifty/internal/repository"
	"stargifty/internal/server"
	"stargifty/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Log, "api")

	db := client.InitSqliteClient(cfg.DBPath)
	marketClient := client.NewMarketClient(&cfg.Market)
	telegramClient := client.NewTelegramClient(&cfg.Telegram)

	accountRepo := repository.NewAccountRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentEventRepo := repository.NewPaymentEventRepository(db)

	fulfillmentService := service.NewFulfillmentService(
		accountRepo, orderRepo, marketClient,
		cfg.Market.CallTimeout,
		observability.NewLogger(cfg.Log, "fulfillment"),
	)
	paymentService := service.NewPaymentService(
		accountRepo, paymentEventRepo, fulfillmentService, marketClient, telegramClient,
		cfg.Market.ListingLimit,
		observability.NewLogger(cfg.Log, "payment"),
	)
	accountService := service.NewAccountService(accountRepo, subscriptionRepo, orderRepo)

	sniper := service.NewSniper(
		accountRepo, subscriptionRepo, fulfillmentService, marketClient, telegramClient,
		cfg.Sniper.ScanInterval,
		cfg.Market.CallTimeout,
		observability.NewLogger(cfg.Log, "sniper"),
	)

	sniperCtx, stopSniper := context.WithCancel(context.Background())
	sniperDone := make(chan struct{})
	go func() {
		defer close(sniperDone)
		sniper.Run(sniperCtx)
	}()

	srv := server.NewServer(paymentService, accountService,
		observability.NewLogger(cfg.Log, "http"))
	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	logger.Info().Str("addr", serverAddr).Msg("starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info().Msg("signal received, starting graceful shutdown")

	// current sniper pass finishes before Run returns
	stopSniper()
	<-sniperDone

	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
}
