package sql

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sig-0/fxarb/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)

	// rateScale is the number of stored decimal places.
	// Crypto reciprocals are small (1 USDT = 0.0000167 BTC)
	rateScale = 12
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveExchangeRate(
	ctx context.Context,
	rate *types.ExchangeRate,
) error {
	_, err := s.db.Exec(
		ctx,
		saveExchangeRateQuery,
		rate.Base.String(),
		rate.Target.String(),
		floatToNumeric(rate.Rate),
		rate.RateType.String(),
		rate.Source.String(),
		timeToTimestampz(rate.AsOf),
		timeToTimestampz(rate.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("unable to save exchange rate: %w", err)
	}

	return nil
}

func (s *Storage) RateAsOf(
	ctx context.Context,
	query *types.RateQuery,
	t time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	var target, source, rateType *string

	if query.Target != nil {
		v := query.Target.String()
		target = &v
	}

	if query.Source != nil {
		v := query.Source.String()
		source = &v
	}

	if query.RateType != nil {
		v := query.RateType.String()
		rateType = &v
	}

	rows, err := s.db.Query(
		ctx,
		rateAsOfQuery,
		query.Base.String(),
		target,
		source,
		rateType,
		timeToTimestampz(t),
		limit,
		max(query.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates: %w", err)
	}
	defer rows.Close()

	var (
		items []*types.ExchangeRate
		total int64
	)

	for rows.Next() {
		var (
			base, tgt, rt, src string
			rate               pgtype.Numeric
			asOf, fetchedAt    pgtype.Timestamptz
		)

		if err = rows.Scan(&base, &tgt, &rate, &rt, &src, &asOf, &fetchedAt, &total); err != nil {
			return nil, fmt.Errorf("unable to scan rate: %w", err)
		}

		if !rate.Valid || rate.Int == nil {
			continue
		}

		items = append(items, &types.ExchangeRate{
			Base:      types.Currency(base),
			Target:    types.Currency(tgt),
			Rate:      numericToFloat(rate),
			RateType:  types.RateType(rt),
			Source:    types.Source(src),
			AsOf:      timestampzToTime(asOf),
			FetchedAt: timestampzToTime(fetchedAt),
		})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to fetch rates: %w", err)
	}

	return &types.Page[*types.ExchangeRate]{
		Results: items,
		Total:   total,
	}, nil
}

func (s *Storage) ListSources(ctx context.Context) ([]types.Source, error) {
	codes, err := s.collectStrings(ctx, listSourcesQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch sources: %w", err)
	}

	out := make([]types.Source, 0, len(codes))
	for _, src := range codes {
		out = append(out, types.Source(src))
	}

	return out, nil
}

func (s *Storage) ListCurrencies(ctx context.Context) ([]types.Currency, error) {
	codes, err := s.collectStrings(ctx, listCurrenciesQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch currencies: %w", err)
	}

	out := make([]types.Currency, 0, len(codes))
	for _, code := range codes {
		out = append(out, types.Currency(code))
	}

	return out, nil
}

func (s *Storage) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, pruneQuery, timeToTimestampz(before))
	if err != nil {
		return 0, fmt.Errorf("unable to prune rates: %w", err)
	}

	return tag.RowsAffected(), nil
}

// collectStrings runs a single text column query
func (s *Storage) collectStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// floatToNumeric converts the float value to postgres numeric
func floatToNumeric(value float64) pgtype.Numeric {
	// round to rateScale dp, and store as an integer with a negative exponent
	i, _ := new(big.Float).
		SetFloat64(math.Round(value * math.Pow10(rateScale))).
		Int(nil)

	return pgtype.Numeric{
		Int:   i,
		Exp:   -rateScale,
		Valid: true,
	}
}

// numericToFloat converts the postgres value to float
func numericToFloat(value pgtype.Numeric) float64 {
	f, _ := new(big.Rat).SetInt(value.Int).Float64()

	if value.Exp > 0 {
		f *= math.Pow10(int(value.Exp))
	} else if value.Exp < 0 {
		f /= math.Pow10(int(-value.Exp))
	}

	return f
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time.UTC()
}
