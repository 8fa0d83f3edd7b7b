package main

import (
	"context"
	"log/slog"
	"time"

	"haritsattva/internal/config"
	"haritsattva/internal/domain/model"
	"haritsattva/internal/handler"
	"haritsattva/internal/infra/cache"
	"haritsattva/internal/infra/db"
	"haritsattva/internal/infra/event"
	logs "haritsattva/internal/infra/log"
	"haritsattva/internal/infra/payment"
	infraRepo "haritsattva/internal/infra/repository"
	repo "haritsattva/internal/repository"
	"haritsattva/internal/server"
	"haritsattva/internal/usecase"
	"haritsattva/internal/validator"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	fx.New(
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		injectInfra(),
		injectRepo(),
		injectUsecase(),
		injectHandler(),
		fx.Provide(server.New),
		fx.Invoke(func(*server.Server) {}),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		db.New,
		validator.New,
		func(v *validator.Validator) usecase.StructValidator { return v },
		newCartStore,
		newDeliveryPolicy,
		newPaymentGateway,
		newSignatureVerifier,
		newEventPublisher,
	)
}

func injectRepo() fx.Option {
	return fx.Provide(
		infraRepo.NewUserGormRepository,
		infraRepo.NewAddressGormRepository,
		infraRepo.NewCategoryGormRepository,
		infraRepo.NewAnalyticsGormRepository,
		infraRepo.NewTxManagerGorm,
		fx.Annotate(infraRepo.NewProductGormRepository, fx.As(new(repo.ProductRepository))),
		fx.Annotate(infraRepo.NewAuditLogGormRepository, fx.As(new(repo.AuditLogRepository))),
	)
}

func injectUsecase() fx.Option {
	return fx.Provide(
		usecase.NewAuthUsecase,
		usecase.NewAdminUserUsecase,
		usecase.NewProductUsecase,
		usecase.NewCategoryUsecase,
		usecase.NewCartUsecase,
		usecase.NewOrderUsecase,
		usecase.NewPaymentUsecase,
		usecase.NewAddressUsecase,
		usecase.NewAdminOrderUsecase,
		usecase.NewAnalyticsUsecase,
		usecase.NewAuditLogUsecase,
	)
}

func injectHandler() fx.Option {
	return fx.Provide(
		handler.NewErrorHandler,
		handler.NewAuthHandler,
		handler.NewProductHandler,
		handler.NewCategoryHandler,
		handler.NewCartHandler,
		handler.NewOrderHandler,
		handler.NewPaymentHandler,
		handler.NewAddressHandler,
		handler.NewAdminOrderHandler,
		handler.NewAdminProductHandler,
		handler.NewAdminUserHandler,
		handler.NewAdminReportHandler,
	)
}

// redisのアドレスが空ならメモリに置く（開発用）
func newCartStore(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (repo.CartStore, error) {
	if cfg.Redis.Addr == "" {
		logger.Warn("redis addr is empty, using in-memory cart store")
		return cache.NewMemoryCartStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return cache.NewRedisCartStore(client, cfg.Redis.CartTTL), nil
}

func newDeliveryPolicy(cfg *config.Config) model.DeliveryPolicy {
	return model.DeliveryPolicy{
		Fee:       cfg.Pricing.DeliveryFee,
		FreeAbove: cfg.Pricing.FreeDeliveryAbove,
	}
}

func newPaymentGateway(cfg *config.Config, logger *slog.Logger) usecase.PaymentGateway {
	if !cfg.Payment.Enabled {
		logger.Warn("payment gateway disabled, using fake gateway")
		return payment.NewFakeGateway()
	}
	return payment.NewHTTPGateway(cfg.Payment)
}

func newSignatureVerifier(cfg *config.Config) usecase.SignatureVerifier {
	return payment.NewSignatureVerifier(cfg.Payment.KeySecret, cfg.Payment.WebhookSecret)
}

// brokersが空ならイベントはログに出すだけ
func newEventPublisher(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) usecase.EventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return event.NewNoopPublisher(logger)
	}

	p := event.NewKafkaPublisher(cfg.Kafka)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return p.Close()
		},
	})
	return p
}
