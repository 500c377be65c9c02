package sql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of a pgx connection (or pool, or transaction) the storage uses
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const saveExchangeRateQuery = `
INSERT INTO exchange_rates (base, target, rate, rate_type, source, as_of, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT ON CONSTRAINT exchange_rates_point_unique
    DO UPDATE SET rate       = EXCLUDED.rate,
                  fetched_at = EXCLUDED.fetched_at`

const rateAsOfQuery = `
WITH latest AS (
    SELECT DISTINCT ON (target, source, rate_type)
        base, target, rate, rate_type, source, as_of, fetched_at
    FROM exchange_rates
    WHERE base = $1
      AND ($2::TEXT IS NULL OR target = $2)
      AND ($3::TEXT IS NULL OR source = $3)
      AND ($4::TEXT IS NULL OR rate_type = $4)
      AND as_of <= $5
    ORDER BY target, source, rate_type, as_of DESC, fetched_at DESC
)
SELECT base, target, rate, rate_type, source, as_of, fetched_at, COUNT(*) OVER () AS total
FROM latest
ORDER BY target, source, rate_type
LIMIT $6 OFFSET $7`

const listSourcesQuery = `
SELECT DISTINCT source
FROM exchange_rates
ORDER BY source`

const listCurrenciesQuery = `
SELECT base AS code FROM exchange_rates
UNION
SELECT target AS code FROM exchange_rates
ORDER BY code`

const pruneQuery = `
DELETE FROM exchange_rates
WHERE as_of < $1`
