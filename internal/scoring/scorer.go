// Package scoring computes the derived trust scores for a creator identity.
// Everything here is pure domain logic: no I/O, no side effects, no hidden
// state. Identical evidence always produces identical scores.
package scoring

import (
	"math"
	"time"

	"creatorid/internal/identity"
)

// methodWeights fixes the contribution ceiling per verification method type.
var methodWeights = map[identity.MethodType]float64{
	identity.MethodBiometric:            20,
	identity.MethodGovernmentID:         30,
	identity.MethodSocialProof:          15,
	identity.MethodPlatformVerification: 25,
	identity.MethodCommunityVouching:    10,
}

// Authenticity sub-score weights. They sum to 1 so a perfect proof lands on
// exactly 100 before clamping.
const (
	weightBiometricMatch      = 0.30
	weightMetadataConsistency = 0.20
	weightDeepfakeInverse     = 0.25
	weightSocialProof         = 0.15
	weightChainRecency        = 0.10
)

// Blockchain proof recency bands: full credit inside freshWindow, linear
// decay to zero at staleWindow.
const (
	freshWindow = 30 * 24 * time.Hour
	staleWindow = 365 * 24 * time.Hour
)

// RiskTier classifies an authenticity score.
type RiskTier string

const (
	RiskHigh   RiskTier = "high"
	RiskMedium RiskTier = "medium"
	RiskLow    RiskTier = "low"
)

// VerificationLevel computes the trust score from a method set. Only verified,
// unexpired methods contribute weight x confidence; the sum is clamped to
// [0,100] and floored once on the final value. Adding a verified method can
// only raise the score or keep it constant.
//
// Out-of-range confidences are clamped rather than rejected so scoring stays
// total; callers log the data-quality warning.
func VerificationLevel(methods []identity.VerificationMethod, now time.Time) int {
	var sum float64
	for _, m := range methods {
		if m.Status != identity.MethodStatusVerified {
			continue
		}
		if m.ExpiredAt(now) {
			continue
		}
		sum += methodWeights[m.Type] * clamp01(m.Confidence)
	}
	return int(math.Floor(clamp(sum, 0, 100)))
}

// AuthenticityScore computes the score for one authenticity proof. Each
// sub-score is normalized to [0,100] before weighting; the result is clamped
// to [0,100] and floored.
func AuthenticityScore(proof identity.AuthenticityProof, now time.Time) int {
	score := weightBiometricMatch*normalize(proof.BiometricMatch) +
		weightMetadataConsistency*normalize(proof.MetadataConsistency) +
		weightDeepfakeInverse*normalize(1-clamp01(proof.DeepfakeConfidence)) +
		weightSocialProof*normalize(proof.SocialProof) +
		weightChainRecency*chainRecency(proof.BlockchainProofAt, now)
	return int(math.Floor(clamp(score, 0, 100)))
}

// IdentityAuthenticityScore aggregates across the identity's content
// credentials. Oracle verdicts scale each credential's proof score: verified
// and pending count in full, disputed at half, fake at zero. No credentials
// means no evidence, which scores 0 (risk tier high), never undefined.
func IdentityAuthenticityScore(credentials []identity.ContentCredential, now time.Time) int {
	if len(credentials) == 0 {
		return 0
	}
	var sum float64
	for _, cred := range credentials {
		proofScore := float64(AuthenticityScore(cred.Proof, now))
		switch cred.Status {
		case identity.CredentialFake:
			proofScore = 0
		case identity.CredentialDisputed:
			proofScore /= 2
		}
		sum += proofScore
	}
	return int(math.Floor(clamp(sum/float64(len(credentials)), 0, 100)))
}

// Scorer exposes the package functions behind identity.Scorer so the identity
// service can recompute scores without importing this package.
type Scorer struct{}

// NewScorer returns the canonical scorer.
func NewScorer() Scorer { return Scorer{} }

func (Scorer) VerificationLevel(methods []identity.VerificationMethod, now time.Time) int {
	return VerificationLevel(methods, now)
}

func (Scorer) IdentityAuthenticityScore(credentials []identity.ContentCredential, now time.Time) int {
	return IdentityAuthenticityScore(credentials, now)
}

// Tier maps a score to its risk band: <40 high, 40-75 medium, >75 low.
func Tier(score int) RiskTier {
	switch {
	case score < 40:
		return RiskHigh
	case score <= 75:
		return RiskMedium
	default:
		return RiskLow
	}
}

// chainRecency rewards recent on-chain anchoring: 100 inside the fresh
// window, decaying linearly to 0 at the stale window. A zero timestamp means
// no chain proof at all.
func chainRecency(proofAt, now time.Time) float64 {
	if proofAt.IsZero() {
		return 0
	}
	age := now.Sub(proofAt)
	if age <= freshWindow {
		return 100
	}
	if age >= staleWindow {
		return 0
	}
	return 100 * float64(staleWindow-age) / float64(staleWindow-freshWindow)
}

// normalize maps a raw [0,1] sub-score to [0,100], clamping malformed input.
func normalize(v float64) float64 {
	return clamp01(v) * 100
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
