package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/istaaklogisquare-source/ebook-bot-clean/configs"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/adapter/cache"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/adapter/chat"
	httpadapter "github.com/istaaklogisquare-source/ebook-bot-clean/internal/adapter/http"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/adapter/kafka"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/adapter/payment"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/adapter/queue"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/adapter/repo"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/bot"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/delivery"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/logging"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

type App struct {
	Router *gin.Engine
	Bot    *chat.Bot
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, cfg.App.LogFile)
	log := logging.New("app")

	// init store, verify connectivity up front
	store := repo.NewStore(cfg.MySQL.DSN, repo.StoreOptions{
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		PingTimeout:     cfg.MySQL.PingTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("mysql: %w", err)
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}

	// infra
	catalogRepo := repo.NewMySQLCatalogRepo(store)
	orderRepo := repo.NewMySQLOrderRepo(store)
	lock := cache.NewRedisCheckoutLock(rdb, cfg.Checkout.LockTTL)
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey)
	signer := delivery.NewSigner(cfg.Delivery.BaseURL, cfg.Delivery.SignSecret, cfg.Delivery.LinkTTL)

	// rabbitmq is optional; without it events are dropped silently
	var events usecase.EventPublisher = nopPublisher{}
	var rabbitConn *amqp091.Connection
	var rabbitCh *amqp091.Channel
	if cfg.Rabbit.URL != "" {
		conn, err := amqp091.Dial(cfg.Rabbit.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
		}
		producer, err := queue.NewRabbitProducer(ch, cfg.Rabbit.Exchange)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq topology: %w", err)
		}
		events = producer
		rabbitConn, rabbitCh = conn, ch
	}

	// usecases + command router
	buyUC := usecase.NewBuyEbook(catalogRepo, orderRepo, gateway, lock, events, usecase.CheckoutOptions{
		Currency:   cfg.Checkout.Currency,
		SuccessURL: cfg.Checkout.SuccessURL,
		CancelURL:  cfg.Checkout.CancelURL,
	}, logging.New("usecase"))
	confirmUC := usecase.NewConfirmPayment(orderRepo, gateway, events, logging.New("usecase"))
	cmdRouter := bot.NewRouter(catalogRepo, orderRepo, buyUC, confirmUC, signer, logging.New("bot"))

	// discord session
	discordBot, err := chat.NewBot(cfg.Discord.Token, cmdRouter, cfg.Discord.CommandTimeout, logging.New("discord"))
	if err != nil {
		return nil, nil, err
	}

	// register [queue-handler]: fulfillment DMs over rabbit
	if rabbitCh != nil {
		if err := setupQueue(rabbitCh, signer, discordBot); err != nil {
			return nil, nil, fmt.Errorf("rabbitmq consumer: %w", err)
		}
	}

	// register kafka-listener: processor-side payment status events
	kafkaCtx, stopKafka := context.WithCancel(context.Background())
	var kafkaGroup sarama.ConsumerGroup
	if len(cfg.Kafka.Brokers) > 0 {
		grp, err := setupKafkaListener(kafkaCtx, cfg, confirmUC)
		if err != nil {
			stopKafka()
			return nil, nil, fmt.Errorf("kafka: %w", err)
		}
		kafkaGroup = grp
	}

	// http surface
	pages := httpadapter.NewPagesHandler(signer, cfg.Delivery.FilesDir)
	router := httpadapter.NewRouter(pages, store, logging.New("http"))

	cleanup := func() {
		stopKafka()
		if kafkaGroup != nil {
			_ = kafkaGroup.Close()
		}
		_ = discordBot.Close()
		if rabbitConn != nil {
			_ = rabbitConn.Close()
		}
		_ = rdb.Close()
		_ = store.Close()
	}

	log.Info("wired", "rabbit", rabbitCh != nil, "kafka", len(cfg.Kafka.Brokers) > 0)
	return &App{Router: router, Bot: discordBot}, cleanup, nil
}

func setupQueue(ch *amqp091.Channel, signer *delivery.Signer, notifier usecase.Notifier) error {
	h := queue.NewFulfillmentHandler(signer, notifier, logging.New("fulfillment"))

	router := queue.NewRouter(ch, logging.New("rmq-router"), queue.WithPrefetch(50))
	router.Register(queue.PaidQueue, h)
	return router.Start()
}

func setupKafkaListener(ctx context.Context, cfg configs.Config, confirmUC *usecase.ConfirmPayment) (sarama.ConsumerGroup, error) {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return nil, err
	}

	h := kafka.NewPaymentStatusHandler(confirmUC, logging.New("kafka"))
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.Topic}, h.Handle, logging.New("kafka-consumer"))

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Base().Error("kafka consumer stopped", "err", err)
		}
	}()
	return grp, nil
}

// nopPublisher drops events when no broker is configured.
type nopPublisher struct{}

func (nopPublisher) PublishOrderCreated(context.Context, usecase.OrderCreatedMsg) error { return nil }
func (nopPublisher) PublishOrderPaid(context.Context, usecase.OrderPaidMsg) error      { return nil }
