package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/fxarb/arbitrage"
	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

var (
	errUnableToFetchRates      = errors.New("unable to fetch rates")
	errUnableToFetchCurrencies = errors.New("unable to fetch currencies")
	errUnableToFetchSources    = errors.New("unable to fetch sources")

	errInvalidLimit         = errors.New("invalid limit")
	errInvalidOffset        = errors.New("invalid offset")
	errInvalidType          = errors.New("invalid type")
	errInvalidCurrency      = errors.New("invalid currency (must be 3 or 4 letters)")
	errInvalidCurrencyChars = errors.New("invalid currency (must be A-Z)")
	errUnsupportedCurrency  = errors.New("currency is not in the configured universe")
	errSamePair             = errors.New("base and target must differ")
	errInvalidAsOf          = errors.New("invalid as_of (must be RFC3339 UTC)")
)

// Rates serves the stored rates of a base currency (optionally a single pair),
// each one next to the edge it currently contributes to the rate graph
func (s *Server) Rates(w http.ResponseWriter, r *http.Request) {
	q, asOf, err := s.parseRateQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	page, err := s.storage.RateAsOf(r.Context(), q, asOf)
	if err != nil {
		s.logger.Debug(
			"unable to fetch rates",
			"base", q.Base,
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchRates)

		return
	}

	resp := &RatesResponse{
		Results: make([]*RateEdge, 0),
	}

	if page != nil {
		resp.Total = page.Total
	}

	snap := s.currentGraph(r.Context())
	if snap != nil {
		resp.GraphBuiltAt = &snap.BuiltAt
	}

	for _, rate := range ratesOf(page) {
		item := &RateEdge{
			ExchangeRate: rate,
		}

		if snap != nil {
			if e, ok := snap.Graph.Edge(rate.Base, rate.Target); ok {
				item.Edge = &e
			}
		}

		resp.Results = append(resp.Results, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Sources lists the stored rate sources, and the market each one quotes
func (s *Server) Sources(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListSources(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch sources",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchSources)

		return
	}

	resp := &SourcesResponse{
		Results: make([]SourceInfo, 0, len(items)),
	}

	for _, src := range items {
		resp.Results = append(resp.Results, SourceInfo{
			Name:   src,
			Market: src.Kind(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Currencies lists the search universe, and which of its members have stored rates.
// Stored currencies outside the universe are never searched, and are not listed
func (s *Server) Currencies(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListCurrencies(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch currencies",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchCurrencies)

		return
	}

	var (
		universe = s.arbitrage.Universe()
		stored   = make(map[types.Currency]struct{}, len(items))
	)

	for _, c := range items {
		stored[currencies.Normalize(c.String())] = struct{}{}
	}

	resp := &CurrenciesResponse{
		Fiat:   universe.Fiat(),
		Crypto: universe.Crypto(),
		Stored: make([]types.Currency, 0, len(stored)),
	}

	// Universe order
	for _, c := range universe.All() {
		if _, ok := stored[c]; ok {
			resp.Stored = append(resp.Stored, c)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// currentGraph returns the current graph snapshot,
// or nil if none can be built (the rates are served without edges)
func (s *Server) currentGraph(ctx context.Context) *arbitrage.Snapshot {
	snap, err := s.arbitrage.Graph(ctx, nil)
	if err != nil || snap == nil || snap.Graph == nil {
		if err != nil {
			s.logger.Debug(
				"unable to fetch the rate graph",
				"err", err,
			)
		}

		return nil
	}

	return snap
}

// parseRateQuery parses the rates route params, and the query string
func (s *Server) parseRateQuery(r *http.Request) (*types.RateQuery, time.Time, error) {
	var (
		values = r.URL.Query()
		q      = &types.RateQuery{}
	)

	base, err := s.parseUniverseCurrency(chi.URLParam(r, "base"))
	if err != nil {
		return nil, time.Time{}, err
	}

	q.Base = base

	// The target is only present on the pair route
	if targetParam := chi.URLParam(r, "target"); targetParam != "" {
		target, err := s.parseUniverseCurrency(targetParam)
		if err != nil {
			return nil, time.Time{}, err
		}

		if target == base {
			return nil, time.Time{}, errSamePair
		}

		q.Target = &target
	}

	asOf, err := parseAsOf(values.Get("as_of"))
	if err != nil {
		return nil, time.Time{}, err
	}

	q.Limit, q.Offset, err = parseLimitOffset(values.Get("limit"), values.Get("offset"))
	if err != nil {
		return nil, time.Time{}, err
	}

	q.Source, q.RateType, err = parseSourceAndType(values.Get("source"), values.Get("type"))
	if err != nil {
		return nil, time.Time{}, err
	}

	return q, asOf, nil
}

// parseUniverseCurrency parses a currency code, and checks it is searchable
func (s *Server) parseUniverseCurrency(v string) (types.Currency, error) {
	c, err := parseCurrencySymbol(v)
	if err != nil {
		return "", err
	}

	if !s.arbitrage.Universe().Contains(c) {
		return "", errUnsupportedCurrency
	}

	return c, nil
}

func ratesOf(page *types.Page[*types.ExchangeRate]) []*types.ExchangeRate {
	if page == nil {
		return nil
	}

	out := make([]*types.ExchangeRate, 0, len(page.Results))

	for _, rate := range page.Results {
		if rate != nil {
			out = append(out, rate)
		}
	}

	return out
}

func parseAsOf(asOfRaw string) (time.Time, error) {
	v := strings.TrimSpace(asOfRaw)
	if v == "" {
		return time.Now().UTC(), nil // default is now
	}

	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errInvalidAsOf
	}

	return t.UTC(), nil
}

func parseLimitOffset(limitRaw, offsetRaw string) (int32, int64, error) {
	limit := defaultLimit

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return 0, 0, errInvalidLimit
		}

		limit = int32(n)
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	limit = min(limit, maxLimit)

	var offset int64

	if v := strings.TrimSpace(offsetRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}

		offset = n
	}

	return limit, offset, nil
}

func parseSourceAndType(sourceRaw, typeRaw string) (*types.Source, *types.RateType, error) {
	var src *types.Source

	if v := strings.TrimSpace(sourceRaw); v != "" {
		s := types.Source(v)

		src = &s
	}

	v := strings.TrimSpace(typeRaw)
	if v == "" {
		return src, nil, nil
	}

	rt := types.RateType(strings.ToUpper(v))

	switch rt {
	case types.RateTypeMID, types.RateTypeBUY, types.RateTypeSELL:
		return src, &rt, nil
	default:
		return nil, nil, errInvalidType
	}
}

// parseCurrencySymbol parses a 3 (fiat) or 4 (ex. USDT) letter currency code
func parseCurrencySymbol(v string) (types.Currency, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if len(s) < 3 || len(s) > 4 {
		return "", errInvalidCurrency
	}

	for i := range len(s) {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", errInvalidCurrencyChars
		}
	}

	return types.Currency(s), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &ErrorResponse{
		Error: err.Error(),
	})
}
