package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rodetes/boxoffice/internal/config"
	"github.com/rodetes/boxoffice/internal/postgres"
	"github.com/rodetes/boxoffice/internal/redis"
	postgresrepo "github.com/rodetes/boxoffice/internal/repository/postgres"
	redisrepo "github.com/rodetes/boxoffice/internal/repository/redis"
	"github.com/rodetes/boxoffice/internal/service"
	"github.com/rodetes/boxoffice/internal/service/auth"
	httpgin "github.com/rodetes/boxoffice/internal/transport/http/gin"
	"golang.org/x/sync/errgroup"
)

const (
	purchaseRateLimit  = 10
	purchaseRateWindow = time.Minute
	idempotencyTTL     = 2 * time.Hour
	shutdownTimeout    = 5 * time.Second
)

// App owns the process-level resources: the connection pools and the
// HTTP server. Run blocks until shutdown completes.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *goredis.Client
	cache      *redisrepo.Cache
	pubsub     *redisrepo.ContentPubSub
	httpServer *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pool, err := postgres.New(ctx, postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}

	rdb, err := redis.New(ctx, redis.Config(cfg.Redis))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}

	store := postgresrepo.NewStore(pool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewContentPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl:purchase", purchaseRateLimit, purchaseRateWindow)
	idem := redisrepo.NewIdempotencyStore(rdb, idempotencyTTL)

	services := service.NewServices(store, cache, pubsub, logger, service.Config{
		Auth: auth.Config{
			Secret:            cfg.Auth.JWTSecret,
			TokenTTL:          cfg.Auth.TokenTTL,
			BootstrapEmail:    cfg.Auth.AdminEmail,
			BootstrapPassword: cfg.Auth.AdminPassword,
		},
	})

	router := httpgin.NewRouter(services, idem, limiter, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		rdb:    rdb,
		cache:  cache,
		pubsub: pubsub,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server listening", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Content writes from other instances drop our cached views too.
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, msgType string, eventID int64) {
			a.logger.Debug("content changed", slog.String("type", msgType), slog.Int64("event_id", eventID))
			switch msgType {
			case "event_changed":
				_ = a.cache.InvalidateEvent(ctx, eventID)
			case "settings_changed":
				_ = a.cache.InvalidateSettings(ctx)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("content subscription ended", slog.Any("error", err))
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()

	a.pool.Close()
	if cerr := a.rdb.Close(); cerr != nil {
		a.logger.Warn("closing redis client", slog.Any("error", cerr))
	}
	return err
}
