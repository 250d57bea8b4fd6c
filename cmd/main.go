package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"realtime-ws/internal/auth"
	"realtime-ws/internal/broadcast"
	"realtime-ws/internal/bus"
	"realtime-ws/internal/config"
	"realtime-ws/internal/delivery"
	"realtime-ws/internal/infrastructure/kafka"
	infraredis "realtime-ws/internal/infrastructure/redis"
	"realtime-ws/internal/listener"
	"realtime-ws/internal/membership"
	"realtime-ws/internal/presence"
	"realtime-ws/internal/registry"
	"realtime-ws/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting realtime server",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"redis", cfg.RedisAddr(),
		"kafka_brokers", cfg.KafkaBrokers,
		"presence_ttl", cfg.PresenceTTL,
		"heartbeat_interval", cfg.HeartbeatInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shared backbone
	redisClient := infraredis.NewClient(cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis connection failed, continuing degraded", "error", err)
	} else {
		logger.Info("redis connection successful")
	}

	// Durable export feed
	producer := kafka.NewProducer(cfg.KafkaBrokers)
	recorder := kafka.NewMessageRecorder(producer)

	// Domain core
	events := bus.New()
	store := presence.NewRedisStore(redisClient, cfg.RedisDB)
	presenceSvc := service.NewPresence(store, events, cfg.PresenceTTL)
	members := membership.NewCached(membership.NewRedisRepository(redisClient), cfg.MembershipCacheTTL)
	chatSvc := service.NewChat(members, recorder, events)

	// Listeners render domain events onto the broadcast backbone and the
	// export feed.
	transport := broadcast.NewRedisTransport(redisClient)
	listener.NewChat(transport).Register(events)
	listener.NewPresence(transport, members).Register(events)
	listener.NewExport(producer).Register(events)

	// Transport tier
	reg := registry.New()
	wsManager := delivery.NewWSManager(reg, chatSvc, presenceSvc, cfg.HeartbeatInterval, cfg.SendBuffer)
	verifier := auth.NewHS256Verifier(cfg.TokenSecret)
	server := delivery.NewServer(cfg, verifier, reg, presenceSvc, wsManager)

	go func() {
		if err := store.Listen(ctx); err != nil && ctx.Err() == nil {
			logger.Error("presence expiry listener stopped", "error", err)
		}
	}()
	go func() {
		if err := transport.Subscribe(ctx, wsManager.DeliverLocal); err != nil && ctx.Err() == nil {
			logger.Error("broadcast subscription stopped", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down")
		cancel()
		if err := server.Shutdown(); err != nil {
			logger.Error("server shutdown", "error", err)
		}
		if err := producer.Close(); err != nil {
			logger.Error("closing kafka producer", "error", err)
		}
		if err := redisClient.Close(); err != nil {
			logger.Error("closing redis client", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger: JSON in production so the collector
// can parse it, text during development.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
