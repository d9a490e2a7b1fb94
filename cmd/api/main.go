package main

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-storefront-orders/internal/config"
	"github.com/ariefcatur/go-storefront-orders/internal/httpx"
	"github.com/ariefcatur/go-storefront-orders/internal/inventory"
	kafkax "github.com/ariefcatur/go-storefront-orders/internal/kafka"
	"github.com/ariefcatur/go-storefront-orders/internal/logx"
	"github.com/ariefcatur/go-storefront-orders/internal/memstore"
	"github.com/ariefcatur/go-storefront-orders/internal/notify"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/ariefcatur/go-storefront-orders/internal/postgres"
	"github.com/ariefcatur/go-storefront-orders/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// store is what the api needs from a storage driver.
type store interface {
	orders.ProductStore
	orders.OrderStore
	orders.ReturnStore
	orders.NotificationStore
	orders.ZoneStore
	inventory.StockStore
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logx.New(cfg.ServiceName, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("api exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	var (
		st     store
		events orders.EventPublisher
		api    = &httpx.API{}
	)

	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("memory store: no redis, no kafka, data is lost on exit")
		st = memstore.New()
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		st = postgres.New(db)

		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		api.Idempotency = &redisx.Idempotency{RDB: rdb, TTL: cfg.IdempotencyTTL}
		api.StatusCache = &redisx.StatusCache{RDB: rdb}

		prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log.With().Str("component", "producer").Logger())
		prod.Start(context.Background())
		defer func() {
			prod.Close()
			prod.WaitClosed()
		}()
		events = &kafkax.Publisher{Producer: prod, Service: cfg.ServiceName}
	}

	sink := &notify.Sink{Store: st, Events: events, Log: log}
	ledger := &inventory.Ledger{Store: st, Notifier: sink, Threshold: cfg.LowStock, Log: log.With().Str("component", "ledger").Logger()}

	api.Orders = &orders.Service{
		Validator: &orders.Validator{Zones: st, Products: st},
		Writer:    &orders.Writer{Orders: st},
		Orders:    st,
		Ledger:    ledger,
		Notifier:  sink,
		Events:    events,
		Log:       log.With().Str("component", "orders").Logger(),
	}
	api.Returns = &orders.Reconciler{
		Orders:   st,
		Returns:  st,
		Ledger:   ledger,
		Notifier: sink,
		Events:   events,
		Log:      log.With().Str("component", "returns").Logger(),
	}
	api.Zones = &orders.Zones{Store: st}
	api.Catalog = &orders.Catalog{Store: st}
	api.Inbox = &orders.Inbox{Store: st}

	router := httpx.NewRouter(log, cfg.RequestTimeout)
	api.Register(router)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
