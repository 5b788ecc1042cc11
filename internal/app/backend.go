package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crudzilla/crudzilla/internal/adapter/memory"
	"github.com/crudzilla/crudzilla/internal/adapter/postgres"
	"github.com/crudzilla/crudzilla/internal/adapter/postgres/entitystore"
	"github.com/crudzilla/crudzilla/internal/catalog"
	"github.com/crudzilla/crudzilla/internal/config"
	"github.com/crudzilla/crudzilla/internal/eager"
	"github.com/crudzilla/crudzilla/internal/query"
	"github.com/crudzilla/crudzilla/internal/registry"
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// backend is the persistence side of the application for one store driver.
type backend struct {
	driver string
	tx     txRunner
	db     pinger // nil for the memory driver
	mapper *entitystore.Mapper
	conn   query.ConnFunc
	close  func()
}

// openBackend connects the configured store driver.
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return &backend{driver: config.DriverMemory, tx: memory.NoTx{}, close: func() {}}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		tx := postgres.NewTxManager(pool)
		return &backend{
			driver: config.DriverPostgres,
			tx:     tx,
			db:     pool,
			mapper: entitystore.NewMapper(log, pool, tx, eager.New(cfg.Registry.Packages()...)),
			conn:   postgres.Conn(pool),
			close:  pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// defaults returns the repository and query factories of the driver.
func (b *backend) defaults() []registry.Option {
	if b.mapper == nil {
		return []registry.Option{
			registry.WithDefaultRepository(memory.Factory),
			registry.WithDefaultQueryBuilder(memory.QueryFactory),
		}
	}
	return []registry.Option{
		registry.WithDefaultRepository(b.mapper.Factory),
		registry.WithDefaultQueryBuilder(b.mapper.QueryFactory),
	}
}

// newRegistry registers the catalog against the backend and seals the
// registry.
func newRegistry(log *slog.Logger, b *backend) (*registry.Registry, error) {
	opts, err := catalog.Options(log, b.mapper, b.conn)
	if err != nil {
		return nil, fmt.Errorf("catalog options: %w", err)
	}
	opts = append(opts, registry.WithLogger(log))
	opts = append(opts, b.defaults()...)

	reg := registry.New(opts...)
	if err := catalog.Register(reg); err != nil {
		return nil, fmt.Errorf("register catalog: %w", err)
	}
	reg.Seal()
	return reg, nil
}
