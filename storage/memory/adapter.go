package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sig-0/fxarb/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

// series identifies a single rate series of a base currency
type series struct {
	target   types.Currency
	source   types.Source
	rateType types.RateType
}

// key identifies a single data point of a base currency
type key struct {
	series

	asOf int64 // unix nanos
}

// Storage is the in-memory rate store, with data points bucketed by base currency
type Storage struct {
	data map[types.Currency]map[key]types.ExchangeRate

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		data: make(map[types.Currency]map[key]types.ExchangeRate),
	}
}

func (s *Storage) SaveExchangeRate(_ context.Context, r *types.ExchangeRate) error {
	elem := *r
	elem.AsOf = elem.AsOf.UTC()
	elem.FetchedAt = elem.FetchedAt.UTC()

	k := key{
		series: series{
			target:   elem.Target,
			source:   elem.Source,
			rateType: elem.RateType,
		},
		asOf: elem.AsOf.UnixNano(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.data[elem.Base]
	if !ok {
		bucket = make(map[key]types.ExchangeRate)
		s.data[elem.Base] = bucket
	}

	bucket[k] = elem // a re-fetched point replaces the previous one

	return nil
}

func (s *Storage) RateAsOf(
	_ context.Context,
	query *types.RateQuery,
	asOf time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	cutoff := asOf.UTC()

	matches := func(k key) bool {
		if query.Target != nil && k.target != *query.Target {
			return false
		}

		if query.Source != nil && k.source != *query.Source {
			return false
		}

		if query.RateType != nil && k.rateType != *query.RateType {
			return false
		}

		return true
	}

	s.mu.RLock()

	latest := make(map[series]types.ExchangeRate)

	for k, v := range s.data[query.Base] {
		if !matches(k) || v.AsOf.After(cutoff) {
			continue
		}

		cur, ok := latest[k.series]
		if !ok ||
			v.AsOf.After(cur.AsOf) ||
			(v.AsOf.Equal(cur.AsOf) && v.FetchedAt.After(cur.FetchedAt)) {
			latest[k.series] = v
		}
	}

	s.mu.RUnlock()

	out := make([]*types.ExchangeRate, 0, len(latest))
	for _, v := range latest {
		out = append(out, &v)
	}

	slices.SortFunc(out, func(a, b *types.ExchangeRate) int {
		return cmp.Or(
			cmp.Compare(a.Target, b.Target),
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.RateType, b.RateType),
		)
	})

	total := int64(len(out))

	lim := query.Limit
	if lim <= 0 {
		lim = defaultLimit
	}

	if lim > maxLimit {
		lim = maxLimit
	}

	if total == 0 || query.Offset >= total || query.Offset < 0 {
		return &types.Page[*types.ExchangeRate]{
			Results: nil,
			Total:   total,
		}, nil
	}

	var (
		start = int(query.Offset)
		end   = min(start+int(lim), len(out))
	)

	return &types.Page[*types.ExchangeRate]{
		Results: out[start:end],
		Total:   total,
	}, nil
}

func (s *Storage) ListSources(_ context.Context) ([]types.Source, error) {
	seen := make(map[types.Source]struct{})

	s.mu.RLock()

	for _, bucket := range s.data {
		for k := range bucket {
			seen[k.source] = struct{}{}
		}
	}

	s.mu.RUnlock()

	return sortedKeys(seen), nil
}

func (s *Storage) ListCurrencies(_ context.Context) ([]types.Currency, error) {
	seen := make(map[types.Currency]struct{})

	s.mu.RLock()

	for base, bucket := range s.data {
		if len(bucket) == 0 {
			continue
		}

		seen[base] = struct{}{}

		for k := range bucket {
			seen[k.target] = struct{}{}
		}
	}

	s.mu.RUnlock()

	return sortedKeys(seen), nil
}

func (s *Storage) Prune(_ context.Context, before time.Time) (int64, error) {
	cutoff := before.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int64

	for base, bucket := range s.data {
		for k, v := range bucket {
			if !v.AsOf.Before(cutoff) {
				continue
			}

			delete(bucket, k)
			dropped++
		}

		if len(bucket) == 0 {
			delete(s.data, base)
		}
	}

	return dropped, nil
}

func sortedKeys[T ~string](set map[T]struct{}) []T {
	out := make([]T, 0, len(set))
	for v := range set {
		out = append(out, v)
	}

	slices.Sort(out)

	return out
}
