package pager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pagekit/pagekit/pkg/observe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for pagination controller operations.
var (
	pagerLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pager_loads_total",
		Help: "Total page load attempts by outcome",
	}, []string{"outcome"})

	pagerLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pager_load_duration_seconds",
		Help:    "Page fetch duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	pagerItemsLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pager_items_loaded_total",
		Help: "Total items appended across all controllers",
	})

	pagerReloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pager_reloads_total",
		Help: "Total reloads",
	})
)

// Load outcomes recorded in pager_loads_total.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomeNoop  = "noop"
	outcomeStale = "stale"
)

// Total is an optional total item count. Known is false until the source
// reports a total or the end of items is detected.
type Total struct {
	Count int
	Known bool
}

// LoadResult describes a settled load attempt, success or failure. It is
// published on the LoadSettled stream so observers can detect a
// completed-load edge even when no published field changed.
type LoadResult struct {
	// Page is the zero-based page index that was requested.
	Page int

	// Count is the number of items the page contributed (0 on failure).
	Count int

	// Err is nil on success.
	Err error
}

// Config holds the controller configuration.
type Config struct {
	// LoadingGrace is how long the loading flag stays set after a fetch
	// settles. The trailing window lets a sentinel element that never left
	// the viewport observe a false/true/false transition and re-trigger
	// the next load. Zero clears the flag as soon as the call returns;
	// the LoadSettled stream fires either way.
	LoadingGrace time.Duration

	// Logger used for controller events. When nil, the global logger with
	// a component field is used.
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		LoadingGrace: 10 * time.Millisecond,
	}
}

// Controller incrementally loads pages of items from a Source and tracks
// the paging state. All mutation is serialized behind a single mutex which
// is never held across the fetch call.
type Controller[T any] struct {
	source Source[T]
	cfg    Config
	logger zerolog.Logger

	mu         sync.Mutex
	items      []T
	total      int
	totalKnown bool
	nextPage   int
	ended      bool
	inflight   bool
	// gen is bumped by Reload; a fetch settling under an older generation
	// belongs to discarded state and must not be applied.
	gen uint64
	// loadSeq is bumped per started load; the grace timer clears the
	// loading flag only for the load that armed it.
	loadSeq uint64

	obsItems   *observe.Value[[]T]
	obsTotal   *observe.Value[Total]
	obsPage    *observe.Value[int]
	obsLoading *observe.Value[bool]
	obsEnded   *observe.Value[bool]
	settled    *observe.Signal[LoadResult]
}

// New creates a pagination controller over the given source.
func New[T any](source Source[T], cfg Config) (*Controller[T], error) {
	if source == nil {
		return nil, fmt.Errorf("page source is required")
	}

	if cfg.LoadingGrace < 0 {
		return nil, fmt.Errorf("loading_grace must be >= 0 (got %v)", cfg.LoadingGrace)
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.With().Str("component", "pager").Logger()
	}

	return &Controller[T]{
		source: source,
		cfg:    cfg,
		logger: logger,
		obsItems: observe.NewValue([]T(nil), func(a, b []T) bool {
			// Items are append-only between reloads, so a length match
			// means the value is unchanged.
			return len(a) == len(b)
		}),
		obsTotal:   observe.NewComparable(Total{}),
		obsPage:    observe.NewComparable(0),
		obsLoading: observe.NewComparable(false),
		obsEnded:   observe.NewComparable(false),
		settled:    observe.NewSignal[LoadResult](),
	}, nil
}

// Reload resets the controller to its initial state and loads the first
// page. It is callable at any time; a fetch that was in flight when Reload
// was called runs to completion but its result is discarded.
func (c *Controller[T]) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	c.items = nil
	c.total = 0
	c.totalKnown = false
	c.nextPage = 0
	c.ended = false
	c.inflight = true
	c.loadSeq++
	gen, seq := c.gen, c.loadSeq
	c.publishLocked()
	c.obsLoading.Set(true)
	c.mu.Unlock()

	pagerReloadsTotal.Inc()
	c.logger.Debug().Msg("Reloading from first page")

	return c.fetch(ctx, gen, seq, 0)
}

// LoadNextPage loads the next page and appends its items.
//
// It is a silent no-op when the end of items has been reached or a fetch is
// already in flight; neither case invokes the source or changes state. On
// fetch failure the error is returned wrapped in *FetchError and state is
// left exactly as it was, except that the loading flag still clears after
// the grace window.
func (c *Controller[T]) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		pagerLoadsTotal.WithLabelValues(outcomeNoop).Inc()
		c.logger.Debug().Msg("Load skipped: end of items reached")
		return nil
	}
	if c.inflight {
		c.mu.Unlock()
		pagerLoadsTotal.WithLabelValues(outcomeNoop).Inc()
		c.logger.Debug().Msg("Load skipped: fetch already in flight")
		return nil
	}
	c.inflight = true
	c.loadSeq++
	gen, seq := c.gen, c.loadSeq
	page := c.nextPage
	c.obsLoading.Set(true)
	c.mu.Unlock()

	return c.fetch(ctx, gen, seq, page)
}

// fetch performs the single suspension point (the source call) and applies
// the resulting state mutation as one atomic block under the mutex.
func (c *Controller[T]) fetch(ctx context.Context, gen, seq uint64, page int) error {
	start := time.Now()
	c.logger.Debug().Int("page", page).Msg("Fetching page")

	result, err := c.source.FetchPage(ctx, page)
	pagerLoadDuration.Observe(time.Since(start).Seconds())

	c.mu.Lock()

	if c.gen != gen {
		// Reload reset the controller while this fetch was in flight.
		// The reload owns the loading flag now; leave everything alone.
		c.mu.Unlock()
		pagerLoadsTotal.WithLabelValues(outcomeStale).Inc()
		c.logger.Debug().Int("page", page).Msg("Discarding superseded page")
		if err != nil {
			return &FetchError{Page: page, Err: err}
		}
		return nil
	}

	c.inflight = false

	if err != nil {
		c.scheduleLoadingClearLocked(seq)
		c.mu.Unlock()

		pagerLoadsTotal.WithLabelValues(outcomeError).Inc()
		c.logger.Warn().Err(err).Int("page", page).Dur("duration", time.Since(start)).Msg("Page fetch failed")
		c.settled.Emit(LoadResult{Page: page, Err: err})
		return &FetchError{Page: page, Err: err}
	}

	if result.TotalCount >= 0 && (!c.totalKnown || c.total != result.TotalCount) {
		c.total = result.TotalCount
		c.totalKnown = true
	}

	if len(result.Items) > 0 {
		c.items = append(c.items, result.Items...)
	}
	c.nextPage++

	if (c.totalKnown && len(c.items) == c.total) || len(result.Items) == 0 {
		c.ended = true
		if !c.totalKnown || c.total != len(c.items) {
			// The items actually collected win over a server-reported
			// total that disagrees at the end.
			c.total = len(c.items)
			c.totalKnown = true
		}
	}

	c.publishLocked()
	c.scheduleLoadingClearLocked(seq)

	count := len(result.Items)
	loaded := len(c.items)
	ended := c.ended
	c.mu.Unlock()

	pagerLoadsTotal.WithLabelValues(outcomeOK).Inc()
	pagerItemsLoadedTotal.Add(float64(count))

	if ended {
		c.logger.Info().
			Int("page", page).
			Int("items", loaded).
			Msg("End of items reached")
	} else {
		c.logger.Debug().
			Int("page", page).
			Int("count", count).
			Int("items", loaded).
			Dur("duration", time.Since(start)).
			Msg("Page loaded")
	}

	c.settled.Emit(LoadResult{Page: page, Count: count})
	return nil
}

// publishLocked pushes the canonical state into the observables.
// Caller must hold c.mu.
func (c *Controller[T]) publishLocked() {
	snap := make([]T, len(c.items))
	copy(snap, c.items)
	c.obsItems.Set(snap)
	c.obsTotal.Set(Total{Count: c.total, Known: c.totalKnown})
	c.obsPage.Set(c.nextPage)
	c.obsEnded.Set(c.ended)
}

// scheduleLoadingClearLocked clears the loading flag after the configured
// grace window. Caller must hold c.mu.
func (c *Controller[T]) scheduleLoadingClearLocked(seq uint64) {
	if c.cfg.LoadingGrace <= 0 {
		c.obsLoading.Set(false)
		return
	}

	time.AfterFunc(c.cfg.LoadingGrace, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.loadSeq != seq {
			// A newer load owns the flag.
			return
		}
		c.obsLoading.Set(false)
	})
}

// Items returns a snapshot of all items loaded since the last reload, in
// fetch order. Callers must not mutate the returned slice.
func (c *Controller[T]) Items() []T {
	return c.obsItems.Get()
}

// TotalCount returns the total item count and whether it is known. Once the
// end of items is reached the count always equals len(Items()).
func (c *Controller[T]) TotalCount() (int, bool) {
	t := c.obsTotal.Get()
	return t.Count, t.Known
}

// CurrentPage returns the number of pages successfully loaded since the
// last reload.
func (c *Controller[T]) CurrentPage() int {
	return c.obsPage.Get()
}

// Loading reports whether a fetch is in flight (or settled within the
// trailing grace window).
func (c *Controller[T]) Loading() bool {
	return c.obsLoading.Get()
}

// HasReachedEnd reports whether all items have been retrieved. Once true,
// no fetch occurs until Reload.
func (c *Controller[T]) HasReachedEnd() bool {
	return c.obsEnded.Get()
}

// ItemsChanged subscribes to item snapshots, delivered only when the item
// set actually changed.
func (c *Controller[T]) ItemsChanged() (<-chan []T, func()) {
	return c.obsItems.Subscribe()
}

// TotalChanged subscribes to total count changes.
func (c *Controller[T]) TotalChanged() (<-chan Total, func()) {
	return c.obsTotal.Subscribe()
}

// CurrentPageChanged subscribes to loaded-page-count changes.
func (c *Controller[T]) CurrentPageChanged() (<-chan int, func()) {
	return c.obsPage.Subscribe()
}

// LoadingChanged subscribes to loading flag transitions.
func (c *Controller[T]) LoadingChanged() (<-chan bool, func()) {
	return c.obsLoading.Subscribe()
}

// EndChanged subscribes to end-of-items flag transitions.
func (c *Controller[T]) EndChanged() (<-chan bool, func()) {
	return c.obsEnded.Subscribe()
}

// LoadSettled subscribes to settled load attempts. Every fetch that runs to
// completion produces exactly one event, success or failure, so observers
// can re-evaluate without relying on the timed loading grace window.
func (c *Controller[T]) LoadSettled() (<-chan LoadResult, func()) {
	return c.settled.Subscribe()
}
