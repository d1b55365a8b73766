package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courseconnect/internal/chat"
	"courseconnect/internal/class"
	"courseconnect/internal/config"
	"courseconnect/internal/db"
	"courseconnect/internal/logging"
	"courseconnect/internal/media"
	"courseconnect/internal/presence"
	"courseconnect/internal/store/memstore"
	"courseconnect/internal/user"

	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// 1. Config & logging
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	deps, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	// 3. Redis fan-out (optional)
	var relay chat.Relay
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info(ctx, "connected to redis", "addr", cfg.RedisAddr)
		relay = chat.NewRedisRelay(redisClient)
	}

	// 4. Features
	userService := user.NewService(deps.users, deps.images, cfg.JWTSecret, cfg.TokenValidity)
	classService := class.NewService(deps.classes, deps.users, logger)

	hub := chat.NewHub(presence.NewRegistry(), relay, logger)
	go hub.Run(ctx)
	go hub.Subscribe(ctx)

	chatService := chat.NewService(deps.messages, deps.users, classService, deps.images, hub, logger)

	r := newRouter(routerDeps{
		log:   logger,
		users: user.NewHandler(userService, logger),
		auth:  userService,
		class: class.NewHandler(classService, logger),
		chat:  chat.NewHandler(chatService, hub, logger),
		ping:  deps.ping,
	})

	// 5. Serve until signalled
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type storage struct {
	users    user.Repository
	classes  class.Repository
	messages chat.Repository
	images   media.Store
	ping     func(context.Context) error
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger logging.Logger) (*storage, error) {
	if cfg.DatabaseDSN == config.MemoryDSN {
		logger.Warn(ctx, "using in-memory store; data is lost on exit")
		if cfg.JWTSecret == config.DefaultJWTSecret {
			logger.Warn(ctx, "JWT_SECRET not set; signing sessions with the development default")
		}
		store := memstore.New()
		return &storage{
			users:    store.Users(),
			classes:  store.Classes(),
			messages: store.Messages(),
			images:   media.InlineStore{},
			ping:     func(context.Context) error { return nil },
			close:    func() {},
		}, nil
	}

	database, err := db.NewDatabase(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info(ctx, "connected to postgres")

	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	logger.Info(ctx, "database schema up to date")

	images, err := media.NewS3Store(ctx, media.S3Config{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		database.Close()
		return nil, err
	}

	return &storage{
		users:    user.NewPostgresRepository(database.Conn),
		classes:  class.NewPostgresRepository(database.Conn),
		messages: chat.NewPostgresRepository(database.Conn),
		images:   images,
		ping:     database.Conn.PingContext,
		close:    func() { database.Close() },
	}, nil
}
