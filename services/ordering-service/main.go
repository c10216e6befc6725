package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/ashendes/restaurant-ordering/internal/apiclient"
	"github.com/ashendes/restaurant-ordering/internal/catalog"
	"github.com/ashendes/restaurant-ordering/internal/config"
	"github.com/ashendes/restaurant-ordering/internal/history"
	"github.com/ashendes/restaurant-ordering/internal/order"
	"github.com/ashendes/restaurant-ordering/internal/session"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	configFile := flag.String("config", "", "optional config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	config.SetupLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	backend, closeBackend, err := openHistoryBackend(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal("Failed to open order history: ", err)
	}
	defer closeBackend()

	store, err := history.NewStore(context.Background(), backend)
	if err != nil {
		log.Fatal("Failed to load order history: ", err)
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:        cfg.PartnerBaseURL,
		APIKey:         cfg.PartnerAPIKey,
		Timeout:        cfg.HTTPTimeout,
		PaymentTimeout: cfg.PaymentTimeout,
		Concurrency:    cfg.DetailConcurrency,
	})
	if err != nil {
		log.Fatal("Failed to create partner client: ", err)
	}

	aggregator := catalog.NewAggregator(client, catalog.Options{
		PageSize:          cfg.CatalogPageSize,
		MaxPages:          cfg.CatalogMaxPages,
		DetailConcurrency: cfg.DetailConcurrency,
	})
	placement := order.NewService(client, store, order.WithTransitionHook(func(from, to order.State) {
		log.WithFields(log.Fields{"from": from.String(), "to": to.String()}).Debug("Order state changed")
	}))

	sess := session.New(aggregator, placement, store)
	defer sess.Close()

	// A failed first load is not fatal; /catalog/refresh retries it.
	if _, err := sess.RefreshCatalog(context.Background()); err != nil {
		log.Warn("Initial catalog load failed: ", err)
	}

	router := newRouter(&OrderingService{session: sess, circuits: client})

	log.WithFields(log.Fields{
		"partner_url":     cfg.PartnerBaseURL,
		"history_backend": backend.Name(),
		"orders":          store.Len(),
		"addr":            cfg.ListenAddr,
	}).Info("Ordering Service starting")

	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// openHistoryBackend builds the configured backend and returns its cleanup
func openHistoryBackend(ctx context.Context, cfg *config.Config) (history.Backend, func(), error) {
	switch cfg.HistoryBackend {
	case config.HistoryBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return history.NewRedisBackend(client, cfg.HistoryKey), func() { client.Close() }, nil

	case config.HistoryBackendPostgres:
		db, err := history.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		backend := history.NewPostgresBackend(db, cfg.HistoryKey)
		if err := backend.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return backend, func() { db.Close() }, nil

	default:
		return history.NewFileBackend(cfg.HistoryFile), func() {}, nil
	}
}
