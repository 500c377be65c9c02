package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/sig-0/fxarb/arbitrage"
)

var (
	errUnableToBuildGraph = errors.New("unable to build rate graph")
	errUnableToSearch     = errors.New("unable to search paths")

	errInvalidAmount  = errors.New("invalid amount")
	errInvalidMaxHops = errors.New("invalid max_hops")
	errInvalidTop     = errors.New("invalid top")
	errInvalidLoop    = errors.New("invalid loop (must be true or false)")
)

// defaultAmount is the quoted amount when none is given
const defaultAmount = 1.0

// Graph reports the current rate graph statistics
func (s *Server) Graph(w http.ResponseWriter, r *http.Request) {
	snap, err := s.arbitrage.Graph(r.Context(), nil)
	if err != nil {
		status, resErr := searchError(err)

		s.logger.Debug(
			"unable to build graph",
			"err", err,
		)

		if status == http.StatusInternalServerError {
			resErr = errUnableToBuildGraph
		}

		writeError(w, status, resErr)

		return
	}

	resp := &GraphResponse{
		Stats:   snap.Graph.Stats(),
		BuiltAt: snap.BuiltAt,
	}

	writeJSON(w, http.StatusOK, resp)
}

// Paths runs a ranked path search, and returns the priced results
func (s *Server) Paths(w http.ResponseWriter, r *http.Request) {
	q, err := parsePathQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	result, err := s.arbitrage.Search(r.Context(), q, nil)
	if err != nil {
		status, resErr := searchError(err)

		s.logger.Debug(
			"unable to search paths",
			"source", q.Source,
			"target", q.Target,
			"err", err,
		)

		writeError(w, status, resErr)

		return
	}

	writeJSON(w, http.StatusOK, result)
}

// searchError maps a service error to the response status and the error shown
func searchError(err error) (int, error) {
	switch {
	case errors.Is(err, arbitrage.ErrSameCurrency),
		errors.Is(err, arbitrage.ErrUnknownCurrency),
		errors.Is(err, arbitrage.ErrInvalidAmount),
		errors.Is(err, arbitrage.ErrInvalidMaxHops),
		errors.Is(err, arbitrage.ErrInvalidTop):
		return http.StatusBadRequest, err
	case errors.Is(err, arbitrage.ErrEmptyGraph):
		return http.StatusServiceUnavailable, err
	default:
		return http.StatusInternalServerError, errUnableToSearch
	}
}

// parsePathQuery parses the path search query parameters:
// from, to (required), amount, max_hops, top, loop (optional)
func parsePathQuery(r *http.Request) (arbitrage.Query, error) {
	var (
		params = r.URL.Query()
		q      arbitrage.Query
		err    error
	)

	if q.Source, err = parseCurrencySymbol(params.Get("from")); err != nil {
		return q, err
	}

	if q.Target, err = parseCurrencySymbol(params.Get("to")); err != nil {
		return q, err
	}

	q.Amount = defaultAmount

	if v := strings.TrimSpace(params.Get("amount")); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil || amount <= 0 || math.IsInf(amount, 0) {
			return q, errInvalidAmount
		}

		q.Amount = amount
	}

	if v := strings.TrimSpace(params.Get("max_hops")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errInvalidMaxHops
		}

		q.MaxHops = n
	}

	if v := strings.TrimSpace(params.Get("top")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errInvalidTop
		}

		q.Top = n
	}

	if v := strings.TrimSpace(params.Get("loop")); v != "" {
		loop, err := strconv.ParseBool(v)
		if err != nil {
			return q, errInvalidLoop
		}

		q.AllowLoop = loop
	}

	return q, nil
}
