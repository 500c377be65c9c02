package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"

	"github.com/sig-0/fxarb/metrics"
	"github.com/sig-0/fxarb/storage"
	"github.com/sig-0/fxarb/storage/types"
)

var (
	errInvalidProvider = errors.New("invalid provider")
	errInvalidInterval = errors.New("invalid interval")
)

const (
	defaultRetryDelay = time.Second * 10
	defaultBufferSize = 100

	pruneInterval = time.Hour
	saveTimeout   = time.Second * 10
)

// Orchestrator is the main job scheduler for registered providers
type Orchestrator struct {
	storage storage.Storage
	logger  *slog.Logger
	metrics *metrics.Metrics
	hook    Hook

	registeredProviders sync.Map

	q             iq.Queue[scheduledIngest]
	queryInterval time.Duration
	retryDelay    time.Duration
	retention     time.Duration
	bufferSize    int
	qMux          sync.Mutex
}

// New creates a new Orchestrator instance
func New(storage storage.Storage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage:       storage,
		q:             iq.NewQueue[scheduledIngest](),
		queryInterval: time.Second, // every second
		retryDelay:    defaultRetryDelay,
		bufferSize:    defaultBufferSize,
	}

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Register registers a new provider with the orchestrator.
// The provider is immediately queued up for execution
func (o *Orchestrator) Register(p Provider) error {
	if p == nil || p.Name() == "" {
		return errInvalidProvider
	}

	if p.Interval() <= 0 {
		return errInvalidInterval
	}

	// Register the provider
	id := xid.New()
	o.registeredProviders.Store(id, p)

	o.logger.Info(
		"registered new provider",
		"name", p.Name(),
	)

	// Schedule the job
	o.scheduleIngest(
		time.Now().UTC(),
		id,
		p,
	)

	return nil
}

// Start starts the provider orchestration service loop [BLOCKING]
func (o *Orchestrator) Start(ctx context.Context) error {
	var (
		collectorCh = make(chan *workerResponse, max(o.bufferSize, 1))
		failures    = make(map[xid.ID]int) // consecutive fetch failures
	)

	// Start a listener for monitoring jobs
	ticker := time.NewTicker(o.queryInterval)
	defer ticker.Stop()

	var pruneCh <-chan time.Time

	if o.retention > 0 {
		pruneTicker := time.NewTicker(pruneInterval)
		defer pruneTicker.Stop()

		pruneCh = pruneTicker.C

		o.prune(ctx)
	}

	// handleIngest initializes all jobs that are executable (due)
	handleIngest := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				nextSI := o.nextIngest()
				if nextSI == nil {
					return // nothing to schedule anymore
				}

				o.logger.Debug(
					"scheduling ingest",
					"name", nextSI.provider.Name(),
				)

				// Spawn worker
				info := &workerInfo{
					provider:   nextSI.provider,
					providerID: nextSI.providerID,
					resCh:      collectorCh,
				}

				go handleJob(ctx, info)
			}
		}
	}

	// Initialize the first set of due jobs (on boot)
	handleIngest()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator service shut down")

			return nil
		case <-ticker.C:
			handleIngest()
		case <-pruneCh:
			o.prune(ctx)
		case response := <-collectorCh:
			now := time.Now().UTC()

			rpRaw, ok := o.registeredProviders.Load(response.providerID)
			if !ok {
				o.logger.Error(
					"unable to load registered provider",
					"id", response.providerID.String(),
				)

				continue
			}

			rp, _ := rpRaw.(Provider)

			if response.error != nil {
				failures[response.providerID]++

				delay := retryBackoff(o.retryDelay, rp.Interval(), failures[response.providerID])

				o.logger.Error(
					"error encountered during rate fetch",
					"name", rp.Name(),
					"attempt", failures[response.providerID],
					"retry_in", delay.String(),
					"err", response.error.Error(),
				)

				o.metrics.SourceFailed(rp.Name())

				// Retry ingest job, backing off
				o.scheduleIngest(
					now.Add(delay),
					response.providerID,
					rp,
				)

				continue
			}

			delete(failures, response.providerID)

			// Save the provider-fetched rates
			if saved := o.save(ctx, response.rates); len(saved) > 0 && o.hook != nil {
				o.hook(rp.Name(), saved)
			}

			// Schedule a new ingest for this provider
			o.scheduleIngest(
				now.Add(rp.Interval()),
				response.providerID,
				rp,
			)
		}
	}
}

// save persists the rates, returning the ones that were saved
func (o *Orchestrator) save(ctx context.Context, rates []*types.ExchangeRate) []*types.ExchangeRate {
	saved := make([]*types.ExchangeRate, 0, len(rates))

	for _, rate := range rates {
		saveCtx, cancelFn := context.WithTimeout(ctx, saveTimeout)
		err := o.storage.SaveExchangeRate(saveCtx, rate)

		cancelFn()

		if err != nil {
			o.logger.Error(
				"unable to save exchange rate",
				"base", rate.Base,
				"target", rate.Target,
				"source", rate.Source,
				"err", err,
			)

			continue
		}

		o.logger.Debug(
			"saved exchange rate",
			"base", rate.Base,
			"target", rate.Target,
			"source", rate.Source,
			"rate", rate.Rate,
			"rate_type", rate.RateType,
			"effective_date", rate.AsOf.String(),
		)

		o.metrics.RateIngested(rate.Source.String())

		saved = append(saved, rate)
	}

	return saved
}

// prune drops the rates that fell out of the retention window
func (o *Orchestrator) prune(ctx context.Context) {
	before := time.Now().UTC().Add(-o.retention)

	removed, err := o.storage.Prune(ctx, before)
	if err != nil {
		o.logger.Error("unable to prune rates", "err", err)

		return
	}

	o.logger.Info(
		"pruned exchange rates",
		"before", before.String(),
		"removed", removed,
	)
}

// scheduleIngest schedules a new provider ingest
func (o *Orchestrator) scheduleIngest(
	at time.Time,
	providerID xid.ID,
	provider Provider,
) {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	futureSI := scheduledIngest{
		at:         at,
		providerID: providerID,
		provider:   provider,
	}

	o.q.Push(futureSI)
}

// nextIngest fetches the next due ingest job, as of the moment of calling
func (o *Orchestrator) nextIngest() *scheduledIngest {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	now := time.Now().UTC()

	// Check if anything needs to be scheduled
	if o.q.Len() == 0 {
		return nil // nothing to schedule, all jobs are running
	}

	// Check if the top element is due
	if o.q.Index(0).at.After(now) {
		return nil // nothing to schedule, latest job is in the future
	}

	// Grab the next job
	return o.q.PopFront()
}
