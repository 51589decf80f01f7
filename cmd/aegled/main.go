package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aegle-health/aegle/adapters/events"
	"github.com/aegle-health/aegle/adapters/store"
	"github.com/aegle-health/aegle/adapters/tokenizer"
	"github.com/aegle-health/aegle/core"
	"github.com/aegle-health/aegle/internal/config"
	"github.com/aegle-health/aegle/ports"
	"github.com/aegle-health/aegle/service"
	transport "github.com/aegle-health/aegle/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Development)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Generate a new ECDSA key pair (you would normally load this from somewhere secure)
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		logger.Fatal("failed to generate signing key", zap.Error(err))
	}

	var (
		nonceStore ports.NonceStore
		eventPub   ports.EventPublisher
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to parse redis URL", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(cfg.Development, false),
		)
		if err != nil {
			logger.Fatal("failed to create redis publisher", zap.Error(err))
		}

		nonceStore = store.NewRedisNonceStore(redisClient)
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		logger.Info("no REDIS_URL set, using in-memory stores")
		nonceStore = store.NewMemoryNonceStore()
		eventPub = events.NopPublisher{}
	}

	state := core.NewLedgerState()
	jwtTokenizer := tokenizer.NewJWTTokenizer(signKey)
	nonces := service.NewNonceRegistry(nonceStore, logger)

	auth := service.NewAuthService(
		nonces,
		store.NewMemoryIdentityStore(),
		jwtTokenizer,
		eventPub,
		cfg.ControllerAddress,
		logger,
	)
	rewards := service.NewRewardService(
		store.NewMemoryRewardStore(),
		state,
		eventPub,
		service.DefaultRewardAmounts,
		cfg.Location(),
		logger,
	)
	conditions := service.NewConditionService(
		store.NewMemoryConditionStore(),
		eventPub,
		service.DefaultConditionAmounts,
		logger,
	)
	achievements := service.NewAchievementService(
		store.NewMemoryAchievementStore(),
		state,
		eventPub,
		cfg.CharityAddress,
		cfg.CharitySplitPercent,
		logger,
	)

	handlers := transport.NewHandlers(auth, rewards, conditions, achievements, logger)
	router := transport.SetupRouter(handlers, auth)

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	logger.Info("starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
