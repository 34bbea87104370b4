package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mb-basketd/internal/auth"
	"mb-basketd/internal/baskets"
	"mb-basketd/internal/broker"
	"mb-basketd/internal/config"
	"mb-basketd/internal/db"
	"mb-basketd/internal/health"
	"mb-basketd/internal/httpserver"
	applog "mb-basketd/internal/log"
	"mb-basketd/internal/quotes"
	"mb-basketd/internal/symbols"
	"mb-basketd/internal/types"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := applog.New(cfg.AppMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	var journal baskets.Journal
	healthHandler := health.NewHandler(nil, time.Now())
	if cfg.DBDSN != "" {
		p, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer p.Close()
		pg := baskets.NewPostgresJournal(p)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema migration failed", zap.Error(err))
		}
		journal = pg
		healthHandler = health.NewHandler(p, time.Now())
	}

	registry := broker.NewStaticRegistry()
	for i := 0; i < cfg.BrokerCount; i++ {
		name := fmt.Sprintf("sim-broker-%d", i+1)
		registry.Register(broker.Connection{
			ID:       name,
			Name:     name,
			Priority: cfg.BrokerCount - i,
		}, broker.NewSimAdapter(name, broker.SimOptions{
			Latency:  time.Duration(50+i*30) * time.Millisecond,
			FailRate: 0.05,
			FailKind: types.ErrorKindTransient,
		}))
	}

	store := baskets.NewStore(journal, logger)
	coord := baskets.NewCoordinator(store, registry, baskets.RetryPolicy{
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
		MaxAttempts: cfg.RetryMaxAttempts,
	}, cfg.BrokerMaxInflight, logger)
	directory := symbols.NewStaticDirectory()
	basketSvc := baskets.NewService(store, coord, directory, logger)
	basketHandler := baskets.NewHandler(basketSvc)

	authSvc := auth.NewService(cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL, cfg.AdminUser, cfg.AdminPasswordHash)
	authHandler := auth.NewHandler(authSvc)
	brokerHandler := broker.NewHandler(registry)

	bus := quotes.NewBus()
	feed := quotes.NewSimFeed(map[string]float64{
		"NIFTY":     24800,
		"BANKNIFTY": 55600,
		"FINNIFTY":  26400,
		"SENSEX":    81200,
	}, 0.10)
	done := make(chan struct{})
	quotes.StartPublisher(bus, feed, feed.Symbols(), 500*time.Millisecond, done)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		BasketHandler: basketHandler,
		BrokerHandler: brokerHandler,
		AuthHandler:   authHandler,
		AuthService:   authSvc,
		HealthHandler: healthHandler,
		QuotesWS:      quotes.NewWS(bus, cfg.WebSocketOrigin),
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	logger.Info("server listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("journal", journal != nil))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		close(done)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
