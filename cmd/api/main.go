package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/cache"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/config"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/database"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/handlers"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/logger"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/metrics"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/middleware"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/oracle"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/provider"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/scheduler"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/services"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/validator"

	"github.com/gin-gonic/gin"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := dbManager.DB()

	// Seed the in-memory tier from the durable tier so a restart serves
	// the last known prices immediately.
	store := cache.New(db, appConfig.FreshThreshold, appConfig.StaleThreshold)
	loaded, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load durable price records: %w", err)
	}
	log.Infof("Loaded %d price records from the durable tier", loaded)

	httpClient := &http.Client{Timeout: appConfig.ProviderTimeout}
	forex := provider.NewForexResolver(httpClient, appConfig.FallbackUSDNGNRate)

	providers := make([]provider.Provider, 0, len(appConfig.ProviderOrder))
	for _, name := range appConfig.ProviderOrder {
		switch name {
		case "coingecko":
			providers = append(providers, provider.NewCoinGeckoProvider(httpClient, appConfig.CoinGeckoAPIKey))
		case "coinmarketcap":
			providers = append(providers, provider.NewCoinMarketCapProvider(httpClient, appConfig.CMCAPIKey, forex))
		case "binance":
			providers = append(providers, provider.NewBinanceProvider(httpClient, forex))
		default:
			log.Warnf("Unknown provider %q in PROVIDER_ORDER, skipping", name)
		}
	}
	if len(providers) == 0 {
		return fmt.Errorf("no valid providers configured")
	}

	fetcher := oracle.NewFetcher(providers, log)
	sched := scheduler.New(fetcher, store, db, scheduler.Config{
		Tokens:             appConfig.Tokens,
		MarginNGN:          appConfig.MarginNGN,
		Interval:           appConfig.RefreshInterval,
		MinRequestInterval: appConfig.MinRequestInterval,
		BackoffBase:        appConfig.BackoffBase,
		BackoffCeiling:     appConfig.BackoffCeiling,
		MaxRetries:         appConfig.MaxRetries,
		InitialRetryDelay:  appConfig.InitialRetryDelay,
		FetchTimeout:       appConfig.ProviderTimeout,
	}, log)
	go sched.Run(ctx)

	priceService := services.NewPriceService(store, sched, db, log)

	priceHandler := handlers.NewPriceHandler(priceService)
	refreshHandler := handlers.NewRefreshHandler(sched)
	statusHandler := handlers.NewStatusHandler(store, sched, dbManager)
	logsHandler := handlers.NewLogsHandler(db)

	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	router.GET("/health", statusHandler.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/prices", priceHandler.GetPrices)
	v1.GET("/status", statusHandler.GetStatus)

	operator := v1.Group("/")
	operator.Use(middleware.APIKeyAuth(appConfig.APIKey))
	operator.POST("/refresh", refreshHandler.TriggerRefresh)
	operator.GET("/logs/fetches", logsHandler.GetFetchLogs)
	operator.GET("/logs/requests", logsHandler.GetRequestMetrics)

	server := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Starting Paycrypt price API on port %s", appConfig.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
