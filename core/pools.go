package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Pools owns the two shared connection pools: PostgreSQL for durable user
// rows and a Redis-protocol cache. Both are configured once at startup from
// the two connection URLs and treated as immutable afterwards.
type Pools struct {
	store          *pgxpool.Pool
	cache          *redis.Client
	acquireTimeout time.Duration
}

// OpenPools connects both pools with conservative defaults and validates
// connectivity before returning.
func OpenPools(ctx context.Context, cfg Config) (*Pools, error) {
	store, err := connectStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cache, err := connectCache(cfg.CacheURL)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Pools{
		store:          store,
		cache:          cache,
		acquireTimeout: cfg.AcquireTimeout(),
	}, nil
}

// connectStore opens a pgx connection pool with conservative defaults.
func connectStore(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	// Reasonable defaults for small services; callers can override via DSN.
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	// Validate connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// connectCache returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func connectCache(cacheURL string) (*redis.Client, error) {
	if cacheURL == "" {
		return nil, errors.New("empty cache url")
	}
	opts, err := redis.ParseURL(cacheURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// AcquireStore checks a connection out of the store pool, blocking up to the
// configured acquire timeout. Exhaustion, unreachability and deadline expiry
// all surface as ErrConnection. Callers must Release the connection.
func (p *Pools) AcquireStore(ctx context.Context) (*pgxpool.Conn, error) {
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}
	conn, err := p.store.Acquire(ctx)
	if err != nil {
		return nil, wrapKind(ErrConnection, err)
	}
	return conn, nil
}

// Store exposes the shared pgx pool for components that issue their own
// queries with pool-managed checkout.
func (p *Pools) Store() *pgxpool.Pool {
	return p.store
}

// CacheClient exposes the shared cache client. go-redis checks connections
// out of its internal pool per command, so there is no explicit checkout;
// command-level failures are translated to ErrConnection at call sites.
func (p *Pools) CacheClient() *redis.Client {
	return p.cache
}

// PingCache probes cache connectivity, reporting failure as ErrConnection.
func (p *Pools) PingCache(ctx context.Context) error {
	if err := p.cache.Ping(ctx).Err(); err != nil {
		return cacheError(err)
	}
	return nil
}

// Close releases both pools. Safe to call once at shutdown.
func (p *Pools) Close() {
	p.store.Close()
	_ = p.cache.Close()
}
