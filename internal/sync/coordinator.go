// Package sync fans fetches out to connected platforms and drives the
// reconciliation cycle over the results. Failure isolation is the rule:
// one platform failing, timing out, or tripping its breaker never aborts
// the others.
package sync

import (
	"context"
	"errors"
	"log/slog"
	gosync "sync"
	"time"

	"creatorid/internal/identity"
	"creatorid/internal/sync/metrics"
	"creatorid/internal/sync/ports"
	id "creatorid/pkg/domain"
)

// FetchFailure records one platform's failure with its normalized class.
type FetchFailure struct {
	PlatformID id.PlatformID
	Category   ports.ErrorCategory
	Err        error
}

// FetchResult collects the settled outcome of one fan-out. No ordering
// guarantee between platform completions; the coordinator waits for every
// dispatched fetch (or its individual timeout) before returning.
type FetchResult struct {
	Snapshots []*ports.PlatformSnapshot
	Failures  []FetchFailure
	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded lists the platforms that produced a snapshot.
func (r *FetchResult) Succeeded() []id.PlatformID {
	out := make([]id.PlatformID, 0, len(r.Snapshots))
	for _, snap := range r.Snapshots {
		out = append(out, snap.PlatformID)
	}
	return out
}

// Failed lists the platforms that did not.
func (r *FetchResult) Failed() []id.PlatformID {
	out := make([]id.PlatformID, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.PlatformID)
	}
	return out
}

// Coordinator dispatches profile fetches to platform adapters in parallel.
type Coordinator struct {
	registry    *ports.AdapterRegistry
	breakers    *breakerSet
	perPlatform time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithBreaker overrides the default circuit breaker tuning.
func WithBreaker(threshold int, cooldown time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.breakers = newBreakerSet(threshold, cooldown)
	}
}

// WithMetrics attaches the sync metrics collector.
func WithMetrics(m *metrics.Metrics) CoordinatorOption {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// NewCoordinator constructs a Coordinator. perPlatformTimeout bounds each
// fetch independently.
func NewCoordinator(registry *ports.AdapterRegistry, perPlatformTimeout time.Duration, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		registry:    registry,
		breakers:    newBreakerSet(5, time.Minute),
		perPlatform: perPlatformTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch fans out to every connected platform of the identity, optionally
// restricted to a subset. Partial success is the contract: the result lists
// succeeded and failed platforms separately and an error is returned only
// when nothing was dispatched or the context was cancelled outright.
func (c *Coordinator) Fetch(ctx context.Context, ident *identity.Identity, subset map[id.PlatformID]bool) (*FetchResult, error) {
	start := time.Now()
	collector := newFetchCollector()

	dispatched := 0
	for _, conn := range ident.ConnectedPlatforms() {
		if len(subset) > 0 && !subset[conn.PlatformID] {
			continue
		}
		adapter, ok := c.registry.Get(conn.PlatformID)
		if !ok {
			collector.recordFailure(conn.PlatformID, ports.NewAdapterError(
				ports.ErrorInternal, conn.PlatformID.String(), "no adapter registered", ports.ErrAdapterNotRegistered))
			continue
		}
		dispatched++
		collector.wg.Add(1)
		go c.fetchOne(ctx, adapter, conn, collector)
	}

	collector.wg.Wait()

	if err := ctx.Err(); err != nil {
		// Cancellation abandons the cycle: late results are discarded and no
		// partial reconciliation is committed downstream.
		return nil, err
	}

	result := collector.result()
	result.StartedAt = start
	result.Duration = time.Since(start)

	if dispatched == 0 && len(result.Failures) == 0 {
		return result, nil
	}
	if len(result.Snapshots) == 0 && len(result.Failures) > 0 {
		return result, ports.ErrAllPlatformsFailed
	}
	return result, nil
}

func (c *Coordinator) fetchOne(ctx context.Context, adapter ports.PlatformAdapter, conn *identity.PlatformConnection, collector *fetchCollector) {
	defer collector.wg.Done()

	pid := conn.PlatformID
	breaker := c.breakers.forPlatform(pid.String())
	if !breaker.Allow() {
		collector.recordFailure(pid, ports.NewAdapterError(
			ports.ErrorOutage, pid.String(), "circuit open, failing fast", nil))
		c.observeFetch(pid, "short_circuited", 0)
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.perPlatform)
	defer cancel()

	start := time.Now()
	// Each fetch reads an isolated copy of the connection; adapters never see
	// shared mutable state.
	connCopy := *conn
	snapshot, err := adapter.FetchProfileData(fetchCtx, &connCopy)
	elapsed := time.Since(start)

	if err != nil {
		breaker.RecordFailure()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ports.NewAdapterError(ports.ErrorTimeout, pid.String(), "fetch deadline exceeded", err)
		}
		collector.recordFailure(pid, err)
		c.observeFetch(pid, "failure", elapsed)
		c.logger.WarnContext(ctx, "platform fetch failed",
			"platform_id", pid,
			"category", ports.CategoryOf(err),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return
	}

	breaker.RecordSuccess()
	collector.addSnapshot(snapshot)
	c.observeFetch(pid, "success", elapsed)
}

func (c *Coordinator) observeFetch(pid id.PlatformID, outcome string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveFetch(pid.String(), outcome, d)
	}
}

// fetchCollector handles parallel snapshot collection with proper
// synchronization.
type fetchCollector struct {
	mu        gosync.Mutex
	wg        gosync.WaitGroup
	snapshots []*ports.PlatformSnapshot
	failures  []FetchFailure
}

func newFetchCollector() *fetchCollector {
	return &fetchCollector{}
}

func (fc *fetchCollector) addSnapshot(s *ports.PlatformSnapshot) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.snapshots = append(fc.snapshots, s)
}

func (fc *fetchCollector) recordFailure(pid id.PlatformID, err error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.failures = append(fc.failures, FetchFailure{
		PlatformID: pid,
		Category:   ports.CategoryOf(err),
		Err:        err,
	})
}

func (fc *fetchCollector) result() *FetchResult {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return &FetchResult{
		Snapshots: fc.snapshots,
		Failures:  fc.failures,
	}
}
