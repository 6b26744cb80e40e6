package main

import (
	"context"
	"errors"
	"io/fs"
	"os/signal"
	"syscall"
	"time"

	"ecshop/internal/config"
	"ecshop/internal/handler"
	"ecshop/internal/infra/cache"
	"ecshop/internal/infra/db"
	"ecshop/internal/infra/messaging"
	infraRepo "ecshop/internal/infra/repository"
	"ecshop/internal/logger"
	"ecshop/internal/repository"
	"ecshop/internal/server"
	"ecshop/internal/usecase"
	auth "ecshop/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now().UTC()
}

// publisherはPublishとCloseを持つ
type orderPublisher interface {
	usecase.OrderEventPublisher
	Close() error
}

func main() {
	//.envは無くても良い（本番は環境変数）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Options{
		Service: "ecshop-api",
		Env:     cfg.GoEnv,
		Level:   cfg.LogLevel,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("bye")
}

func run(cfg config.Config, log zerolog.Logger) error {
	// 金額はJSONの数値で返す
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	//商品キャッシュ（REDIS_ADDRが空なら使わない）
	var productCache repository.ProductCache = cache.NopProductCache{}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		productCache = cache.NewProductRedisCache(client, cfg.ProductCacheTTL)
		log.Info().Str("addr", cfg.RedisAddr).Msg("product cache enabled")
	}

	//注文イベント（KAFKA_BROKERSが空なら送らない）
	var publisher orderPublisher = messaging.NopOrderPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = messaging.NewKafkaOrderPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, log)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaOrderTopic).Msg("order events enabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("close order publisher")
		}
	}()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, idGen, clock, cfg.AllowRoleSelfAssign)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	userUC := usecase.NewUserUsecase(userRepo, log)
	productUC := usecase.NewProductUsecase(txm, productRepo, productCache, idGen, clock, log)
	orderUC := usecase.NewOrderUsecase(txm, productCache, publisher, idGen, clock, cfg.ShippingFee, log)

	//Handler生成
	e := server.New(cfg, log)
	server.RegisterRoutes(e, cfg, userRepo, server.Handlers{
		Auth:    handler.NewAuthHandler(registerUC, loginUC, log),
		User:    handler.NewUserHandler(userUC),
		Product: handler.NewProductHandler(productUC),
		Order:   handler.NewOrderHandler(orderUC),
	})

	//Server起動（SIGINT/SIGTERMで停止）
	return server.Run(ctx, e, cfg, log)
}
