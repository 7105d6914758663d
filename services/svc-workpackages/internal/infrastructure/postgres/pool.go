package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnString renders cfg as a postgres URL. The scheme is left to the caller
// since the migration driver registers its own.
func ConnString(scheme string, cfg config.Database) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     cfg.Host + ":" + strconv.FormatUint(uint64(cfg.Port), 10),
		Path:     cfg.Database,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}

	return u.String()
}

// NewPool connects and pings, retrying with exponential backoff while the
// database is still starting.
func NewPool(ctx context.Context, cfg config.Database, retry config.Backoff, log logger.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(ConnString("postgres", cfg))
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	poolConfig.MinConns = cfg.MinConnections
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	if cfg.StatementTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	attempt := 0

	connect := func() (*pgxpool.Pool, error) {
		attempt++

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("creating connection pool: %w", err))
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("host", cfg.Host).
				Msg("database not reachable yet")

			return nil, fmt.Errorf("pinging database: %w", err)
		}

		return pool, nil
	}

	return backoff.Retry(ctx, connect,
		backoff.WithBackOff(retry.NewExponential()),
		backoff.WithMaxTries(retry.MaxTries),
	)
}
