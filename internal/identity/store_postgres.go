package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "creatorid/pkg/domain"
	"creatorid/pkg/platform/sentinel"
)

// Schema creates the identities table. The aggregate is stored as a JSONB
// document with the columns the store queries by lifted out.
const Schema = `
CREATE TABLE IF NOT EXISTS identities (
    id              UUID PRIMARY KEY,
    wallet_address  TEXT NOT NULL UNIQUE,
    status          TEXT NOT NULL,
    document        JSONB NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS identities_connections_idx
    ON identities USING GIN ((document -> 'connections'));
`

// PostgresStore persists identities in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identity store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies the table definition. Safe to run on every startup.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure identities schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, ident *Identity) error {
	if ident == nil {
		return fmt.Errorf("identity is required")
	}
	doc, err := json.Marshal(toDocument(ident))
	if err != nil {
		return fmt.Errorf("encode identity document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO identities (id, wallet_address, status, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			wallet_address = EXCLUDED.wallet_address,
			status         = EXCLUDED.status,
			document       = EXCLUDED.document,
			updated_at     = EXCLUDED.updated_at`,
		uuid.UUID(ident.ID), ident.WalletAddress, string(ident.Status), doc, ident.CreatedAt, ident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, identityID id.IdentityID) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT document FROM identities WHERE id = $1`, uuid.UUID(identityID))
	return scanIdentity(row, "get identity")
}

func (s *PostgresStore) GetByWallet(ctx context.Context, walletAddress string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT document FROM identities WHERE wallet_address = $1`, walletAddress)
	return scanIdentity(row, "get identity by wallet")
}

func (s *PostgresStore) FindByConnection(ctx context.Context, platformID id.PlatformID, username string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document FROM identities
		WHERE document -> 'connections' -> $1 ->> 'username' = $2
		LIMIT 1`,
		platformID.String(), username)
	return scanIdentity(row, "find identity by connection")
}

func scanIdentity(row *sql.Row, op string) (*Identity, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var d identityDocument
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("%s: decode document: %w", op, err)
	}
	return fromDocument(&d), nil
}

// identityDocument is the JSONB persistence shape. Kept separate from the
// domain aggregate so the storage format can evolve without touching domain
// types.
type identityDocument struct {
	ID                uuid.UUID                     `json:"id"`
	WalletAddress     string                        `json:"wallet_address"`
	Status            string                        `json:"status"`
	VerificationLevel int                           `json:"verification_level"`
	AuthenticityScore int                           `json:"authenticity_score"`
	Methods           []methodDocument              `json:"methods"`
	Connections       map[string]connectionDocument `json:"connections"`
	Credentials       []credentialDocument          `json:"credentials"`
	Profile           profileDocument               `json:"profile"`
	FieldSyncedAt     map[string]time.Time          `json:"field_synced_at"`
	CreatedAt         time.Time                     `json:"created_at"`
	UpdatedAt         time.Time                     `json:"updated_at"`
	LastSyncAt        time.Time                     `json:"last_sync_at"`
}

type methodDocument struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	Confidence float64    `json:"confidence"`
	AddedAt    time.Time  `json:"added_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type connectionDocument struct {
	PlatformID        string    `json:"platform_id"`
	Username          string    `json:"username"`
	Status            string    `json:"status"`
	Verified          bool      `json:"verified"`
	LinkedAt          time.Time `json:"linked_at"`
	LastSyncAt        time.Time `json:"last_sync_at"`
	WebhookSecretHash []byte    `json:"webhook_secret_hash,omitempty"`
	DisplayName       string    `json:"display_name,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	FollowerCount     int64     `json:"follower_count"`
	EngagementRate    float64   `json:"engagement_rate"`
	MetricsCapturedAt time.Time `json:"metrics_captured_at"`
}

type credentialDocument struct {
	ContentHash         string    `json:"content_hash"`
	Status              string    `json:"status"`
	BiometricMatch      float64   `json:"biometric_match"`
	MetadataConsistency float64   `json:"metadata_consistency"`
	DeepfakeConfidence  float64   `json:"deepfake_confidence"`
	SocialProof         float64   `json:"social_proof"`
	BlockchainProofAt   time.Time `json:"blockchain_proof_at"`
	CreatedAt           time.Time `json:"created_at"`
}

type profileDocument struct {
	DisplayName    string  `json:"display_name"`
	Bio            string  `json:"bio"`
	FollowerCount  int64   `json:"follower_count"`
	EngagementRate float64 `json:"engagement_rate"`
}

func toDocument(ident *Identity) *identityDocument {
	doc := &identityDocument{
		ID:                uuid.UUID(ident.ID),
		WalletAddress:     ident.WalletAddress,
		Status:            string(ident.Status),
		VerificationLevel: ident.VerificationLevel,
		AuthenticityScore: ident.AuthenticityScore,
		Connections:       make(map[string]connectionDocument, len(ident.Connections)),
		Profile: profileDocument{
			DisplayName:    ident.Profile.DisplayName,
			Bio:            ident.Profile.Bio,
			FollowerCount:  ident.Profile.FollowerCount,
			EngagementRate: ident.Profile.EngagementRate,
		},
		FieldSyncedAt: make(map[string]time.Time, len(ident.FieldSyncedAt)),
		CreatedAt:     ident.CreatedAt,
		UpdatedAt:     ident.UpdatedAt,
		LastSyncAt:    ident.LastSyncAt,
	}
	for _, m := range ident.Methods {
		doc.Methods = append(doc.Methods, methodDocument{
			ID:         m.ID,
			Type:       string(m.Type),
			Status:     string(m.Status),
			Confidence: m.Confidence,
			AddedAt:    m.AddedAt,
			ExpiresAt:  m.ExpiresAt,
		})
	}
	for pid, conn := range ident.Connections {
		doc.Connections[pid.String()] = connectionDocument{
			PlatformID:        conn.PlatformID.String(),
			Username:          conn.Username,
			Status:            string(conn.Status),
			Verified:          conn.Verified,
			LinkedAt:          conn.LinkedAt,
			LastSyncAt:        conn.LastSyncAt,
			WebhookSecretHash: conn.WebhookSecretHash,
			DisplayName:       conn.Metrics.DisplayName,
			Bio:               conn.Metrics.Bio,
			FollowerCount:     conn.Metrics.FollowerCount,
			EngagementRate:    conn.Metrics.EngagementRate,
			MetricsCapturedAt: conn.Metrics.CapturedAt,
		}
	}
	for _, cred := range ident.Credentials {
		doc.Credentials = append(doc.Credentials, credentialDocument{
			ContentHash:         cred.ContentHash.String(),
			Status:              string(cred.Status),
			BiometricMatch:      cred.Proof.BiometricMatch,
			MetadataConsistency: cred.Proof.MetadataConsistency,
			DeepfakeConfidence:  cred.Proof.DeepfakeConfidence,
			SocialProof:         cred.Proof.SocialProof,
			BlockchainProofAt:   cred.Proof.BlockchainProofAt,
			CreatedAt:           cred.CreatedAt,
		})
	}
	for field, ts := range ident.FieldSyncedAt {
		doc.FieldSyncedAt[string(field)] = ts
	}
	return doc
}

func fromDocument(doc *identityDocument) *Identity {
	ident := &Identity{
		ID:                id.IdentityID(doc.ID),
		WalletAddress:     doc.WalletAddress,
		Status:            IdentityStatus(doc.Status),
		VerificationLevel: doc.VerificationLevel,
		AuthenticityScore: doc.AuthenticityScore,
		Connections:       make(map[id.PlatformID]*PlatformConnection, len(doc.Connections)),
		Profile: Profile{
			DisplayName:    doc.Profile.DisplayName,
			Bio:            doc.Profile.Bio,
			FollowerCount:  doc.Profile.FollowerCount,
			EngagementRate: doc.Profile.EngagementRate,
		},
		FieldSyncedAt: make(map[ProfileField]time.Time, len(doc.FieldSyncedAt)),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
		LastSyncAt:    doc.LastSyncAt,
	}
	for _, m := range doc.Methods {
		ident.Methods = append(ident.Methods, VerificationMethod{
			ID:         m.ID,
			Type:       MethodType(m.Type),
			Status:     MethodStatus(m.Status),
			Confidence: m.Confidence,
			AddedAt:    m.AddedAt,
			ExpiresAt:  m.ExpiresAt,
		})
	}
	for pid, conn := range doc.Connections {
		ident.Connections[id.PlatformID(pid)] = &PlatformConnection{
			PlatformID: id.PlatformID(conn.PlatformID),
			Username:   conn.Username,
			Status:     ConnectionStatus(conn.Status),
			Verified:   conn.Verified,
			LinkedAt:   conn.LinkedAt,
			LastSyncAt: conn.LastSyncAt,
			WebhookSecretHash: conn.WebhookSecretHash,
			Metrics: ConnectionMetrics{
				DisplayName:    conn.DisplayName,
				Bio:            conn.Bio,
				FollowerCount:  conn.FollowerCount,
				EngagementRate: conn.EngagementRate,
				CapturedAt:     conn.MetricsCapturedAt,
			},
		}
	}
	for _, cred := range doc.Credentials {
		ident.Credentials = append(ident.Credentials, ContentCredential{
			ContentHash: id.ContentHash(cred.ContentHash),
			Status:      CredentialStatus(cred.Status),
			Proof: AuthenticityProof{
				BiometricMatch:      cred.BiometricMatch,
				MetadataConsistency: cred.MetadataConsistency,
				DeepfakeConfidence:  cred.DeepfakeConfidence,
				SocialProof:         cred.SocialProof,
				BlockchainProofAt:   cred.BlockchainProofAt,
			},
			CreatedAt: cred.CreatedAt,
		})
	}
	for field, ts := range doc.FieldSyncedAt {
		ident.FieldSyncedAt[ProfileField(field)] = ts
	}
	return ident
}
