package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"creatorid/internal/audit"
	"creatorid/internal/identity"
	"creatorid/internal/reconcile"
	"creatorid/internal/sync/lock"
	"creatorid/internal/sync/ports"
	"creatorid/internal/webhook/metrics"
	dErrors "creatorid/pkg/domain-errors"
	"creatorid/pkg/platform/sentinel"
	"creatorid/pkg/requestcontext"
)

const (
	defaultLockTTL  = 30 * time.Second
	defaultEventTTL = 24 * time.Hour
)

// AuditEmitter records webhook outcomes. Satisfied by audit.Publisher.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service applies inbound platform events to the identity record. It takes
// the same per-identity lock as the sync service, so a webhook and a full
// cycle serialize rather than corrupt each other.
type Service struct {
	store    identity.Store
	engine   *reconcile.Engine
	locks    lock.Registry
	applied  IdempotencyStore
	audit    AuditEmitter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	lockTTL  time.Duration
	eventTTL time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithEventTTL overrides how long applied event IDs are remembered.
func WithEventTTL(ttl time.Duration) Option {
	return func(s *Service) { s.eventTTL = ttl }
}

// NewService creates the webhook Service.
func NewService(
	store identity.Store,
	engine *reconcile.Engine,
	locks lock.Registry,
	applied IdempotencyStore,
	auditor AuditEmitter,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:    store,
		engine:   engine,
		locks:    locks,
		applied:  applied,
		audit:    auditor,
		logger:   logger,
		lockTTL:  defaultLockTTL,
		eventTTL: defaultEventTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest authenticates and applies one event. Replaying an event ID is a
// no-op reporting Duplicate; the identity state after a replay is identical
// to the state after the first delivery.
func (s *Service) Ingest(ctx context.Context, event Event, secret string) (*Result, error) {
	if strings.TrimSpace(event.EventID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "event_id is required")
	}
	if strings.TrimSpace(event.Username) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username is required")
	}

	ident, err := s.store.FindByConnection(ctx, event.PlatformID, event.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementEvent(event.PlatformID.String(), "rejected")
			return nil, dErrors.New(dErrors.CodeNotFound, "no identity linked to this account")
		}
		return nil, fmt.Errorf("find identity by connection: %w", err)
	}

	conn := ident.Connections[event.PlatformID]
	if conn == nil || conn.Status == identity.ConnectionRevoked {
		s.metrics.IncrementEvent(event.PlatformID.String(), "rejected")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "platform connection is revoked")
	}
	if bcrypt.CompareHashAndPassword(conn.WebhookSecretHash, []byte(secret)) != nil {
		s.metrics.IncrementEvent(event.PlatformID.String(), "rejected")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid webhook secret")
	}

	acquired, err := s.locks.TryAcquire(ctx, ident.ID, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire reconciliation lock: %w", err)
	}
	if !acquired {
		return nil, dErrors.New(dErrors.CodeConflict, "reconciliation in progress, retry shortly")
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), ident.ID); err != nil {
			s.logger.WarnContext(ctx, "lock release failed", "identity_id", ident.ID, "error", err)
		}
	}()

	idemKey := event.PlatformID.String() + ":" + event.EventID
	first, err := s.applied.FirstSeen(ctx, idemKey, s.eventTTL)
	if err != nil {
		return nil, fmt.Errorf("check event idempotency: %w", err)
	}
	if !first {
		s.metrics.IncrementEvent(event.PlatformID.String(), "duplicate")
		s.emit(ctx, ident, event, "duplicate", nil)
		return &Result{Duplicate: true}, nil
	}

	// A valid shared secret proves the creator controls the platform-side
	// webhook configuration. The first authenticated delivery verifies the
	// connection, which admits it to verified-platform-priority resolution.
	conn.Verified = true

	now := requestcontext.Now(ctx)
	merged, report := s.engine.Reconcile(ident, []*ports.PlatformSnapshot{toSnapshot(event, conn)}, false, now)

	if err := s.store.Save(ctx, merged); err != nil {
		// Forget so the platform's retry is not swallowed as a duplicate.
		if forgetErr := s.applied.Forget(context.WithoutCancel(ctx), idemKey); forgetErr != nil {
			s.logger.ErrorContext(ctx, "idempotency rollback failed",
				"event_id", event.EventID, "error", forgetErr)
		}
		return nil, fmt.Errorf("save identity: %w", err)
	}

	result := &Result{}
	for _, field := range report.UpdatedFields {
		result.UpdatedFields = append(result.UpdatedFields, string(field))
		s.metrics.IncrementField(string(field))
	}
	for _, field := range report.StaleDiscards {
		result.StaleDiscards = append(result.StaleDiscards, string(field))
	}
	s.metrics.IncrementEvent(event.PlatformID.String(), "applied")
	s.emit(ctx, merged, event, "applied", result)
	s.logger.InfoContext(ctx, "webhook event applied",
		"identity_id", merged.ID,
		"platform_id", event.PlatformID,
		"event_id", event.EventID,
		"updated_fields", result.UpdatedFields,
	)
	return result, nil
}

// toSnapshot shapes the event as a single-platform snapshot so the
// reconciliation engine's staleness and merge rules apply unchanged. Every
// pushed field counts as changed; platforms only send what moved.
func toSnapshot(event Event, conn *identity.PlatformConnection) *ports.PlatformSnapshot {
	snap := &ports.PlatformSnapshot{
		PlatformID: event.PlatformID,
		Username:   event.Username,
		CapturedAt: event.ObservedAt,
		// Seed unreported metrics from the stored connection so a partial
		// event does not zero them when the connection state is refreshed.
		Metrics: ports.NormalizedMetrics{
			DisplayName:    conn.Metrics.DisplayName,
			Bio:            conn.Metrics.Bio,
			FollowerCount:  conn.Metrics.FollowerCount,
			EngagementRate: conn.Metrics.EngagementRate,
		},
	}
	report := func(field identity.ProfileField) {
		snap.Reported = append(snap.Reported, field)
		snap.ChangedFields = append(snap.ChangedFields, field)
	}
	if event.DisplayName != nil {
		snap.Metrics.DisplayName = *event.DisplayName
		report(identity.FieldDisplayName)
	}
	if event.Bio != nil {
		snap.Metrics.Bio = *event.Bio
		report(identity.FieldBio)
	}
	if event.FollowerCount != nil {
		snap.Metrics.FollowerCount = *event.FollowerCount
		report(identity.FieldFollowerCount)
	}
	if event.EngagementRate != nil {
		snap.Metrics.EngagementRate = *event.EngagementRate
		report(identity.FieldEngagementRate)
	}
	return snap
}

func (s *Service) emit(ctx context.Context, ident *identity.Identity, event Event, outcome string, result *Result) {
	if s.audit == nil {
		return
	}
	detail := map[string]string{"event_id": event.EventID}
	if result != nil {
		detail["updated_fields"] = fmt.Sprintf("%d", len(result.UpdatedFields))
	}
	auditEvent := audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		IdentityID: ident.ID.String(),
		Actor:      event.PlatformID.String(),
		Action:     audit.ActionWebhookReceived,
		PlatformID: event.PlatformID.String(),
		Outcome:    outcome,
		Detail:     detail,
	}
	if err := s.audit.Emit(ctx, auditEvent); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", auditEvent.Action, "error", err)
	}
}
