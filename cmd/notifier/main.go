package main

import (
	"context"
	"github.com/ariefcatur/go-storefront-orders/internal/config"
	kafkax "github.com/ariefcatur/go-storefront-orders/internal/kafka"
	"github.com/ariefcatur/go-storefront-orders/internal/logx"
	"github.com/ariefcatur/go-storefront-orders/internal/notify"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/ariefcatur/go-storefront-orders/internal/redisx"
	"github.com/joho/godotenv"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	name := cfg.ServiceName + "-notifier"
	log := logx.New(name, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Redis:       rdb,
		Dispatcher:  notify.LogDispatcher{Log: log.With().Str("component", "dispatcher").Logger()},
		ServiceName: name,
		Log:         log,
	}

	topics := []string{orders.TopicNotificationCreated}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, topics, cfg.NotifierWorkers, log)
	log.Info().Str("group", cfg.NotifierGroup).Strs("topics", topics).Int("workers", cfg.NotifierWorkers).Msg("notifier consumer started")

	if err := cons.Start(ctx, svc.HandleNotification); err != nil {
		log.Error().Err(err).Msg("consumer exit")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("notifier stopped")
}
