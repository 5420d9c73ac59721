package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"creatorid/internal/audit"
	"creatorid/internal/identity"
	"creatorid/internal/reconcile"
	"creatorid/internal/sync/lock"
	"creatorid/internal/sync/metrics"
	"creatorid/internal/sync/ports"
	id "creatorid/pkg/domain"
	dErrors "creatorid/pkg/domain-errors"
	"creatorid/pkg/platform/sentinel"
	"creatorid/pkg/requestcontext"
)

// defaultMinInterval throttles back-to-back cycles for one identity unless
// the caller forces a refresh.
const defaultMinInterval = 5 * time.Minute

// AuditEmitter records sync cycle outcomes. Satisfied by audit.Publisher.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CycleResult is the settled outcome of one sync cycle.
type CycleResult struct {
	Identity *identity.Identity
	Fetch    *FetchResult
	Report   *reconcile.Report
}

// Service drives the full reconciliation cycle: lock, fan out, detect,
// resolve, merge, persist. One cycle per identity at a time; concurrent
// requests are rejected, never interleaved.
type Service struct {
	store       identity.Store
	coordinator *Coordinator
	engine      *reconcile.Engine
	locks       lock.Registry
	audit       AuditEmitter
	metrics     *metrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer

	lockTTL      time.Duration
	cycleTimeout time.Duration
	minInterval  time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceMetrics attaches the sync metrics collector.
func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithMinInterval overrides the throttle between unforced cycles.
func WithMinInterval(d time.Duration) ServiceOption {
	return func(s *Service) { s.minInterval = d }
}

// NewService constructs the sync service.
func NewService(
	store identity.Store,
	coordinator *Coordinator,
	engine *reconcile.Engine,
	locks lock.Registry,
	auditor AuditEmitter,
	lockTTL, cycleTimeout time.Duration,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:        store,
		coordinator:  coordinator,
		engine:       engine,
		locks:        locks,
		audit:        auditor,
		logger:       logger,
		tracer:       otel.Tracer("creatorid/sync"),
		lockTTL:      lockTTL,
		cycleTimeout: cycleTimeout,
		minInterval:  defaultMinInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync runs one reconciliation cycle for the identity, optionally restricted
// to a subset of its connected platforms. force bypasses the recent-sync
// throttle.
func (s *Service) Sync(ctx context.Context, identityID id.IdentityID, platforms []string, force bool) (*CycleResult, error) {
	ctx, span := s.tracer.Start(ctx, "sync.cycle",
		trace.WithAttributes(attribute.String("identity.id", identityID.String())))
	defer span.End()

	result, err := s.sync(ctx, identityID, platforms, force)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("sync.state", string(result.Report.State)),
		attribute.Int("sync.platforms_succeeded", len(result.Fetch.Snapshots)),
		attribute.Int("sync.platforms_failed", len(result.Fetch.Failures)),
		attribute.Int("sync.conflicts", len(result.Report.Conflicts)),
	)
	return result, nil
}

func (s *Service) sync(ctx context.Context, identityID id.IdentityID, platforms []string, force bool) (*CycleResult, error) {
	subset, err := parseSubset(platforms)
	if err != nil {
		return nil, err
	}

	acquired, err := s.locks.TryAcquire(ctx, identityID, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, dErrors.New(dErrors.CodeConflict, "sync already in progress for identity")
	}
	defer func() {
		if releaseErr := s.locks.Release(context.WithoutCancel(ctx), identityID); releaseErr != nil {
			s.logger.WarnContext(ctx, "sync lock release failed",
				"identity_id", identityID, "error", releaseErr)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	ident, err := s.loadTarget(ctx, identityID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if !force && s.minInterval > 0 && !ident.LastSyncAt.IsZero() && now.Sub(ident.LastSyncAt) < s.minInterval {
		return nil, dErrors.New(dErrors.CodeConflict, "identity synced recently, use force to override")
	}

	start := time.Now()
	fetch, err := s.coordinator.Fetch(ctx, ident, subset)
	if err != nil {
		s.metrics.IncrementCycle(string(reconcile.StateFailed))
		s.emitCycle(ctx, ident, string(reconcile.StateFailed), nil)
		if errors.Is(err, ports.ErrAllPlatformsFailed) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "all platform fetches failed")
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "sync cycle cancelled")
		}
		return nil, fmt.Errorf("fetch platforms: %w", err)
	}

	merged, report := s.engine.Reconcile(ident, fetch.Snapshots, len(fetch.Failures) > 0, now)

	if err := s.store.Save(ctx, merged); err != nil {
		s.metrics.IncrementCycle(string(reconcile.StateFailed))
		s.emitCycle(ctx, ident, string(reconcile.StateFailed), nil)
		return nil, fmt.Errorf("save reconciled identity: %w", err)
	}

	s.observe(report, time.Since(start))
	s.emitCycle(ctx, merged, string(report.State), report)
	s.logger.InfoContext(ctx, "sync cycle completed",
		"identity_id", merged.ID,
		"state", report.State,
		"succeeded", fetch.Succeeded(),
		"failed", fetch.Failed(),
		"updated_fields", report.UpdatedFields,
		"conflicts", len(report.Conflicts),
	)

	return &CycleResult{Identity: merged, Fetch: fetch, Report: report}, nil
}

// loadTarget fetches the identity and checks it can be synced.
func (s *Service) loadTarget(ctx context.Context, identityID id.IdentityID) (*identity.Identity, error) {
	ident, err := s.store.Get(ctx, identityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if ident.Status != identity.IdentityActive {
		return nil, dErrors.New(dErrors.CodeConflict, "identity is revoked")
	}
	return ident, nil
}

func (s *Service) observe(report *reconcile.Report, elapsed time.Duration) {
	s.metrics.IncrementCycle(string(report.State))
	s.metrics.ObserveCycle(elapsed)
	for _, outcome := range report.Conflicts {
		s.metrics.IncrementConflict(string(outcome.Conflict.Field), string(outcome.Conflict.Severity))
	}
}

func (s *Service) emitCycle(ctx context.Context, ident *identity.Identity, state string, report *reconcile.Report) {
	if s.audit == nil {
		return
	}
	detail := map[string]string{}
	if report != nil {
		detail["conflicts"] = fmt.Sprintf("%d", len(report.Conflicts))
		detail["updated_fields"] = fmt.Sprintf("%d", len(report.UpdatedFields))
	}
	event := audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		IdentityID: ident.ID.String(),
		Actor:      requestcontext.RequestID(ctx),
		Action:     audit.ActionSyncCompleted,
		Outcome:    state,
		Detail:     detail,
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// parseSubset validates the requested platform restriction.
func parseSubset(platforms []string) (map[id.PlatformID]bool, error) {
	if len(platforms) == 0 {
		return nil, nil
	}
	subset := make(map[id.PlatformID]bool, len(platforms))
	for _, p := range platforms {
		pid, err := id.ParsePlatformID(p)
		if err != nil {
			return nil, err
		}
		subset[pid] = true
	}
	return subset, nil
}
