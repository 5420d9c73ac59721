package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"creatorid/internal/audit"
	"creatorid/internal/identity/metrics"
	id "creatorid/pkg/domain"
	dErrors "creatorid/pkg/domain-errors"
	"creatorid/pkg/platform/sentinel"
	"creatorid/pkg/requestcontext"
)

// AuditEmitter records state-changing actions. Satisfied by audit.Publisher.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Scorer recomputes the derived trust scores from stored evidence.
// Satisfied by scoring.Scorer.
type Scorer interface {
	VerificationLevel(methods []VerificationMethod, now time.Time) int
	IdentityAuthenticityScore(credentials []ContentCredential, now time.Time) int
}

// Service owns every mutation path into the identity aggregate. Derived
// scores are recomputed from evidence on each write, never set directly.
type Service struct {
	store   Store
	scorer  Scorer
	audit   AuditEmitter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches the identity metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs the identity service.
func NewService(store Store, scorer Scorer, auditor AuditEmitter, opts ...Option) *Service {
	s := &Service{
		store:  store,
		scorer: scorer,
		audit:  auditor,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new identity for a wallet address. One identity per
// wallet; a second registration is a conflict, not an upsert.
func (s *Service) Register(ctx context.Context, walletAddress string) (*Identity, error) {
	if walletAddress == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "wallet address is required")
	}
	if _, err := s.store.GetByWallet(ctx, walletAddress); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "wallet address already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("check wallet registration: %w", err)
	}

	now := requestcontext.Now(ctx)
	ident := &Identity{
		ID:            id.NewIdentityID(),
		WalletAddress: walletAddress,
		Status:        IdentityActive,
		Connections:   make(map[id.PlatformID]*PlatformConnection),
		FieldSyncedAt: make(map[ProfileField]time.Time),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Save(ctx, ident); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}

	s.metrics.IncrementRegistered()
	s.emit(ctx, ident.ID, audit.ActionIdentityRegistered, "", nil)
	s.logger.InfoContext(ctx, "identity registered", "identity_id", ident.ID)
	return ident, nil
}

// Get loads one identity.
func (s *Service) Get(ctx context.Context, identityID id.IdentityID) (*Identity, error) {
	ident, err := s.store.Get(ctx, identityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return ident, nil
}

// AddVerificationMethod attaches verification evidence and recomputes the
// trust level. A method of the same type replaces the previous one; evidence
// of one kind counts once. Out-of-range confidence is clamped with a warning
// rather than rejected.
func (s *Service) AddVerificationMethod(ctx context.Context, identityID id.IdentityID, methodType string, confidence float64, expiresAt *time.Time) (*Identity, error) {
	mt, err := ParseMethodType(methodType)
	if err != nil {
		return nil, err
	}
	if confidence < 0 || confidence > 1 {
		s.logger.WarnContext(ctx, "confidence out of range, clamping",
			"identity_id", identityID, "method_type", mt, "confidence", confidence)
		confidence = clampConfidence(confidence)
	}

	ident, err := s.getActive(ctx, identityID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	method := VerificationMethod{
		ID:         uuid.New(),
		Type:       mt,
		Status:     MethodStatusVerified,
		Confidence: confidence,
		AddedAt:    now,
		ExpiresAt:  expiresAt,
	}
	replaced := false
	for i := range ident.Methods {
		if ident.Methods[i].Type == mt && !ident.Methods[i].ExpiredAt(now) {
			ident.Methods[i] = method
			replaced = true
			break
		}
	}
	if !replaced {
		ident.Methods = append(ident.Methods, method)
	}

	s.recomputeAndTouch(ident, now)
	if err := s.store.Save(ctx, ident); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}

	s.metrics.IncrementMethod(string(mt))
	s.metrics.ObserveVerificationLevel(ident.VerificationLevel)
	s.emit(ctx, ident.ID, audit.ActionMethodAdded, "", map[string]string{"type": string(mt)})
	return ident, nil
}

// AddContentCredential records a content authenticity proof. Credentials are
// content-addressed: a second submission for the same hash is a conflict.
func (s *Service) AddContentCredential(ctx context.Context, identityID id.IdentityID, contentHash string, proof AuthenticityProof) (*Identity, error) {
	hash, err := id.ParseContentHash(contentHash)
	if err != nil {
		return nil, err
	}

	ident, err := s.getActive(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if ident.Credential(hash) != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "credential already exists for content hash")
	}

	now := requestcontext.Now(ctx)
	ident.Credentials = append(ident.Credentials, ContentCredential{
		ContentHash: hash,
		Proof:       proof,
		Status:      CredentialPending,
		CreatedAt:   now,
	})

	s.recomputeAndTouch(ident, now)
	if err := s.store.Save(ctx, ident); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}

	s.metrics.IncrementCredential()
	s.emit(ctx, ident.ID, audit.ActionCredentialAdded, "", map[string]string{"content_hash": hash.String()})
	return ident, nil
}

// ApplyOracleResult records the oracle's verdict on a credential and
// recomputes the authenticity score.
func (s *Service) ApplyOracleResult(ctx context.Context, identityID id.IdentityID, contentHash string, status string, proof *AuthenticityProof) (*Identity, error) {
	hash, err := id.ParseContentHash(contentHash)
	if err != nil {
		return nil, err
	}
	verdict, err := ParseCredentialStatus(status)
	if err != nil {
		return nil, err
	}

	ident, err := s.getActive(ctx, identityID)
	if err != nil {
		return nil, err
	}
	cred := ident.Credential(hash)
	if cred == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "credential not found for content hash")
	}

	cred.Status = verdict
	if proof != nil {
		cred.Proof = *proof
	}

	now := requestcontext.Now(ctx)
	s.recomputeAndTouch(ident, now)
	if err := s.store.Save(ctx, ident); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}

	s.metrics.IncrementOracleResult(string(verdict))
	s.emit(ctx, ident.ID, audit.ActionOracleResult, "", map[string]string{
		"content_hash": hash.String(),
		"status":       string(verdict),
	})
	return ident, nil
}

// LinkPlatform connects a platform account to the identity and issues the
// webhook secret. The plaintext secret is returned exactly once; only its
// bcrypt hash is stored. One connection per platform; relinking a revoked
// platform reissues the secret.
func (s *Service) LinkPlatform(ctx context.Context, identityID id.IdentityID, platformID string, username string) (*Identity, string, error) {
	pid, err := id.ParsePlatformID(platformID)
	if err != nil {
		return nil, "", err
	}
	if username == "" {
		return nil, "", dErrors.New(dErrors.CodeValidation, "username is required")
	}

	ident, err := s.getActive(ctx, identityID)
	if err != nil {
		return nil, "", err
	}
	if existing, ok := ident.Connections[pid]; ok && existing.Status != ConnectionRevoked {
		return nil, "", dErrors.New(dErrors.CodeConflict, "platform already linked")
	}

	secret, secretHash, err := newWebhookSecret()
	if err != nil {
		return nil, "", err
	}

	now := requestcontext.Now(ctx)
	ident.Connections[pid] = &PlatformConnection{
		PlatformID:        pid,
		Username:          username,
		Status:            ConnectionConnected,
		LinkedAt:          now,
		WebhookSecretHash: secretHash,
	}
	ident.UpdatedAt = now

	if err := s.store.Save(ctx, ident); err != nil {
		return nil, "", fmt.Errorf("save identity: %w", err)
	}

	s.metrics.IncrementPlatformLink(pid.String(), "link")
	s.emit(ctx, ident.ID, audit.ActionPlatformLinked, pid, map[string]string{"username": username})
	s.logger.InfoContext(ctx, "platform linked",
		"identity_id", ident.ID, "platform_id", pid, "username", username)
	return ident, secret, nil
}

// RevokePlatform disconnects a platform. The connection is marked revoked
// and excluded from sync, never deleted; its history stays on record.
func (s *Service) RevokePlatform(ctx context.Context, identityID id.IdentityID, platformID string) (*Identity, error) {
	pid, err := id.ParsePlatformID(platformID)
	if err != nil {
		return nil, err
	}

	ident, err := s.getActive(ctx, identityID)
	if err != nil {
		return nil, err
	}
	conn, ok := ident.Connections[pid]
	if !ok || conn.Status == ConnectionRevoked {
		return nil, dErrors.New(dErrors.CodeNotFound, "platform not linked")
	}

	conn.Status = ConnectionRevoked
	conn.Verified = false
	ident.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Save(ctx, ident); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}

	s.metrics.IncrementPlatformLink(pid.String(), "revoke")
	s.emit(ctx, ident.ID, audit.ActionPlatformRevoked, pid, nil)
	return ident, nil
}

// getActive loads an identity and rejects mutations on revoked records.
func (s *Service) getActive(ctx context.Context, identityID id.IdentityID) (*Identity, error) {
	ident, err := s.Get(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if ident.Status != IdentityActive {
		return nil, dErrors.New(dErrors.CodeConflict, "identity is revoked")
	}
	return ident, nil
}

// recomputeAndTouch refreshes both derived scores from the stored evidence.
func (s *Service) recomputeAndTouch(ident *Identity, now time.Time) {
	ident.VerificationLevel = s.scorer.VerificationLevel(ident.Methods, now)
	ident.AuthenticityScore = s.scorer.IdentityAuthenticityScore(ident.Credentials, now)
	ident.UpdatedAt = now
}

// emit records an audit event. Audit failures are logged, never surfaced:
// the mutation already committed.
func (s *Service) emit(ctx context.Context, identityID id.IdentityID, action audit.Action, platformID id.PlatformID, detail map[string]string) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		IdentityID: identityID.String(),
		Actor:      requestcontext.RequestID(ctx),
		Action:     action,
		PlatformID: platformID.String(),
		Detail:     detail,
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}

// newWebhookSecret generates the shared webhook secret and its stored hash.
func newWebhookSecret() (string, []byte, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("generate webhook secret: %w", err)
	}
	secret := hex.EncodeToString(raw)
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash webhook secret: %w", err)
	}
	return secret, hash, nil
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
