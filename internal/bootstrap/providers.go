package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"txscope/internal/application"
	"txscope/internal/config"
	httpserver "txscope/internal/infrastructure/http"
	"txscope/internal/infrastructure/logx"
	"txscope/internal/infrastructure/pg"
	redisstore "txscope/internal/infrastructure/redis"
	"txscope/internal/infrastructure/sqlite"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// Store is the session provider selected by STORAGE together with the
// repositories bound to it.
type Store struct {
	Factory application.SessionFactory
	Tags    application.TagRepo
	Ready   httpserver.ReadinessCheck
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

func ProvideStore(ctx context.Context, log *zap.Logger, cfg config.Config) (Store, func(), error) {
	switch cfg.Storage {
	case "pg":
		if cfg.DatabaseURL == "" {
			return Store{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Store{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return Store{}, func() {}, err
		}
		factory := pg.NewSessionFactory(db)
		cleanup := func() {
			log.Info("closing pg")
			db.Close()
		}
		return Store{Factory: factory, Tags: pg.NewTagRepo(factory), Ready: db.Ping}, cleanup, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLiteDSN)
		if err != nil {
			return Store{}, func() {}, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			_ = sqlite.Close(db)
			return Store{}, func() {}, err
		}
		factory := sqlite.NewSessionFactory(db)
		cleanup := func() {
			log.Info("closing sqlite")
			_ = sqlite.Close(db)
		}
		return Store{Factory: factory, Tags: sqlite.NewTagRepo(factory), Ready: sqlDB.PingContext}, cleanup, nil
	default:
		return Store{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

func ProvideUnitOfWork(s Store, cfg config.Config, log *zap.Logger) (*application.UnitOfWork, error) {
	return application.NewUnitOfWork(s.Factory,
		application.WithImplicitTransactions(cfg.ImplicitTransactions),
		application.WithLogger(log.Named("uow")),
	)
}

// ProvideIdempotency builds the redis store when IDEMPOTENCY_BACKEND=redis, else a no-op.
func ProvideIdempotency(cfg config.Config) (application.IdempotencyStore, func(), error) {
	if cfg.IdempotencyBackend != "redis" {
		return application.NoopIdempotency{}, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return redisstore.New(client, cfg.RedisTTL), func() { _ = client.Close() }, nil
}

func ProvideTagService(uow *application.UnitOfWork, s Store, idem application.IdempotencyStore) *application.TagService {
	return application.NewTagService(uow, s.Tags, application.WithIdempotency(idem))
}

func ProvideReadiness(s Store) httpserver.ReadinessCheck { return s.Ready }

func ProvideHandler(srv *httpserver.Server, cfg config.Config) http.Handler {
	return httpserver.NewRouter(srv, cfg.RequestTimeout)
}
