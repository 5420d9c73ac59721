package handler

import (
	"time"

	dErrors "creatorid/pkg/domain-errors"
)

// RegisterRequest creates a new creator identity.
type RegisterRequest struct {
	WalletAddress string `json:"walletAddress"`
}

func (r *RegisterRequest) Validate() error {
	if r.WalletAddress == "" {
		return dErrors.New(dErrors.CodeValidation, "walletAddress is required")
	}
	return nil
}

// AddMethodRequest attaches verification evidence.
type AddMethodRequest struct {
	Type       string     `json:"type"`
	Confidence float64    `json:"confidence"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

func (r *AddMethodRequest) Validate() error {
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	return nil
}

// ProofPayload is the wire shape of an authenticity proof bundle.
type ProofPayload struct {
	BiometricMatch      float64   `json:"biometricMatch"`
	MetadataConsistency float64   `json:"metadataConsistency"`
	DeepfakeConfidence  float64   `json:"deepfakeConfidence"`
	SocialProof         float64   `json:"socialProof"`
	BlockchainProofAt   time.Time `json:"blockchainProofAt"`
}

// AddCredentialRequest records a content authenticity proof.
type AddCredentialRequest struct {
	ContentHash string       `json:"contentHash"`
	Proof       ProofPayload `json:"proof"`
}

func (r *AddCredentialRequest) Validate() error {
	if r.ContentHash == "" {
		return dErrors.New(dErrors.CodeValidation, "contentHash is required")
	}
	return nil
}

// OracleResultRequest applies the oracle's verdict to a credential.
type OracleResultRequest struct {
	Status string        `json:"status"`
	Proof  *ProofPayload `json:"proof,omitempty"`
}

func (r *OracleResultRequest) Validate() error {
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return nil
}

// LinkPlatformRequest connects a platform account.
type LinkPlatformRequest struct {
	PlatformID string `json:"platformId"`
	Username   string `json:"username"`
}

func (r *LinkPlatformRequest) Validate() error {
	if r.PlatformID == "" {
		return dErrors.New(dErrors.CodeValidation, "platformId is required")
	}
	if r.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	return nil
}
