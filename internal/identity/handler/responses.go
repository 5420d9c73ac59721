package handler

import (
	"sort"
	"time"

	"creatorid/internal/identity"
	"creatorid/internal/scoring"
	id "creatorid/pkg/domain"
)

// IdentityResponse is the wire view of the aggregate. Webhook secret hashes
// never leave the service; the plaintext secret appears only in
// LinkPlatformResponse, once.
type IdentityResponse struct {
	ID                string               `json:"id"`
	WalletAddress     string               `json:"walletAddress"`
	Status            string               `json:"status"`
	VerificationLevel int                  `json:"verificationLevel"`
	AuthenticityScore int                  `json:"authenticityScore"`
	RiskTier          string               `json:"riskTier"`
	Profile           ProfileResponse      `json:"profile"`
	Methods           []MethodResponse     `json:"verificationMethods"`
	Platforms         []PlatformResponse   `json:"platforms"`
	Credentials       []CredentialResponse `json:"credentials"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
	LastSyncAt        *time.Time           `json:"lastSyncAt,omitempty"`
}

type ProfileResponse struct {
	DisplayName    string  `json:"displayName"`
	Bio            string  `json:"bio"`
	FollowerCount  int64   `json:"followerCount"`
	EngagementRate float64 `json:"engagementRate"`
}

type MethodResponse struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	Confidence float64    `json:"confidence"`
	AddedAt    time.Time  `json:"addedAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type PlatformResponse struct {
	PlatformID     string     `json:"platformId"`
	Username       string     `json:"username"`
	Status         string     `json:"status"`
	Verified       bool       `json:"verified"`
	LinkedAt       time.Time  `json:"linkedAt"`
	LastSyncAt     *time.Time `json:"lastSyncAt,omitempty"`
	FollowerCount  int64      `json:"followerCount"`
	EngagementRate float64    `json:"engagementRate"`
}

type CredentialResponse struct {
	ContentHash       string    `json:"contentHash"`
	Status            string    `json:"status"`
	AuthenticityScore int       `json:"authenticityScore"`
	CreatedAt         time.Time `json:"createdAt"`
}

// RegisterResponse returns the new identity with its access token.
type RegisterResponse struct {
	Identity    IdentityResponse `json:"identity"`
	AccessToken string           `json:"accessToken"`
}

// LinkPlatformResponse carries the webhook secret exactly once.
type LinkPlatformResponse struct {
	Identity      IdentityResponse `json:"identity"`
	WebhookSecret string           `json:"webhookSecret"`
}

func toIdentityResponse(ident *identity.Identity, now time.Time) IdentityResponse {
	resp := IdentityResponse{
		ID:                ident.ID.String(),
		WalletAddress:     ident.WalletAddress,
		Status:            string(ident.Status),
		VerificationLevel: ident.VerificationLevel,
		AuthenticityScore: ident.AuthenticityScore,
		RiskTier:          string(scoring.Tier(ident.AuthenticityScore)),
		Profile: ProfileResponse{
			DisplayName:    ident.Profile.DisplayName,
			Bio:            ident.Profile.Bio,
			FollowerCount:  ident.Profile.FollowerCount,
			EngagementRate: ident.Profile.EngagementRate,
		},
		CreatedAt: ident.CreatedAt,
		UpdatedAt: ident.UpdatedAt,
	}
	if !ident.LastSyncAt.IsZero() {
		resp.LastSyncAt = &ident.LastSyncAt
	}
	for _, m := range ident.Methods {
		resp.Methods = append(resp.Methods, MethodResponse{
			ID:         m.ID.String(),
			Type:       string(m.Type),
			Status:     string(m.Status),
			Confidence: m.Confidence,
			AddedAt:    m.AddedAt,
			ExpiresAt:  m.ExpiresAt,
		})
	}
	// Map iteration order is random; sort so responses are stable.
	pids := make([]id.PlatformID, 0, len(ident.Connections))
	for pid := range ident.Connections {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	for _, pid := range pids {
		conn := ident.Connections[pid]
		p := PlatformResponse{
			PlatformID:     conn.PlatformID.String(),
			Username:       conn.Username,
			Status:         string(conn.Status),
			Verified:       conn.Verified,
			LinkedAt:       conn.LinkedAt,
			FollowerCount:  conn.Metrics.FollowerCount,
			EngagementRate: conn.Metrics.EngagementRate,
		}
		if !conn.LastSyncAt.IsZero() {
			syncedAt := conn.LastSyncAt
			p.LastSyncAt = &syncedAt
		}
		resp.Platforms = append(resp.Platforms, p)
	}
	for _, cred := range ident.Credentials {
		resp.Credentials = append(resp.Credentials, CredentialResponse{
			ContentHash:       cred.ContentHash.String(),
			Status:            string(cred.Status),
			AuthenticityScore: scoring.AuthenticityScore(cred.Proof, now),
			CreatedAt:         cred.CreatedAt,
		})
	}
	return resp
}
