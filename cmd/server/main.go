package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/littertag/internal/api"
	"github.com/mmynk/littertag/internal/auth"
	"github.com/mmynk/littertag/internal/blob"
	"github.com/mmynk/littertag/internal/config"
	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/feed"
	"github.com/mmynk/littertag/internal/leaderboard"
	"github.com/mmynk/littertag/internal/listeners"
	"github.com/mmynk/littertag/internal/mail"
	"github.com/mmynk/littertag/internal/service"
	"github.com/mmynk/littertag/internal/storage/sqlite"
	"github.com/mmynk/littertag/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.Database.Path)

	blobs, closeBlobs, err := openBlobs(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	defer closeBlobs()
	logger.Info("Blob storage initialized", "backend", cfg.Blob.Backend)

	board, closeBoard, err := openBoard(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeBoard()

	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: cfg.Events.Buffer},
		watermill.NewSlogLogger(logger),
	)
	defer pubsub.Close()

	dispatcher := events.NewDispatcher(logger)
	dispatcher.SetPublisher(pubsub, cfg.Events.Topic)
	listeners.Register(dispatcher, listeners.Deps{Mailer: mail.NewLogMailer(logger), Logger: logger})

	hub := feed.NewHub(logger, cfg.Server.CORSOrigins)
	go func() {
		if err := hub.Run(ctx, pubsub, cfg.Events.Topic); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Live feed stopped", "error", err)
		}
	}()

	deps := service.Deps{Store: store, Events: dispatcher, Board: board, Logger: logger}
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	services := api.Services{
		Auth:      service.NewAuthService(deps, auth.NewPasswordAuthenticator(store), jwtManager),
		Photos:    service.NewPhotoService(deps, blobs),
		Tags:      service.NewTagService(deps),
		Teams:     service.NewTeamService(deps),
		Locations: service.NewLocationService(deps),
	}

	opts := api.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.Server.RateWindow,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}
	if cfg.Blob.Backend == "local" && strings.HasPrefix(cfg.Blob.PublicURL, "/") {
		opts.MediaPath, opts.MediaDir = cfg.Blob.PublicURL, cfg.Blob.Dir
	}
	handler := api.NewServer(opts, services, jwtManager, hub, logger).Handler()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "address", cfg.Server.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openBlobs(ctx context.Context, cfg config.BlobConfig) (blob.Store, func(), error) {
	if cfg.Backend == "gcs" {
		s, err := blob.NewGCSStore(ctx, cfg.Bucket, cfg.PublicURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	s, err := blob.NewLocalStore(cfg.Dir, cfg.PublicURL)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}

// openBoard connects to Redis when enabled and otherwise keeps leaderboards
// in memory.
func openBoard(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (leaderboard.Board, func(), error) {
	if !cfg.Enabled {
		logger.Warn("Redis disabled, leaderboards are kept in memory")
		return leaderboard.NewMemoryBoard(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	logger.Info("Redis connected", "addr", cfg.Addr)
	return leaderboard.NewRedisBoard(rdb), func() { _ = rdb.Close() }, nil
}
