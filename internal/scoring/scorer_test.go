package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"creatorid/internal/identity"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func verified(t identity.MethodType, confidence float64) identity.VerificationMethod {
	return identity.VerificationMethod{
		Type:       t,
		Status:     identity.MethodStatusVerified,
		Confidence: confidence,
		AddedAt:    now.Add(-time.Hour),
	}
}

func TestVerificationLevel(t *testing.T) {
	t.Run("single biometric method floors the weighted contribution", func(t *testing.T) {
		methods := []identity.VerificationMethod{
			verified(identity.MethodBiometric, 0.95),
		}
		// floor(20 * 0.95) = 19
		assert.Equal(t, 19, VerificationLevel(methods, now))
	})

	t.Run("floors once on the final sum, not per method", func(t *testing.T) {
		methods := []identity.VerificationMethod{
			verified(identity.MethodBiometric, 0.95),
			verified(identity.MethodPlatformVerification, 1.0),
		}
		// floor(20*0.95 + 25*1.0) = floor(44.0) = 44
		assert.Equal(t, 44, VerificationLevel(methods, now))
	})

	t.Run("pending and failed methods contribute nothing", func(t *testing.T) {
		methods := []identity.VerificationMethod{
			{Type: identity.MethodGovernmentID, Status: identity.MethodStatusPending, Confidence: 1.0},
			{Type: identity.MethodSocialProof, Status: identity.MethodStatusFailed, Confidence: 1.0},
		}
		assert.Equal(t, 0, VerificationLevel(methods, now))
	})

	t.Run("expired methods are excluded at read time", func(t *testing.T) {
		past := now.Add(-time.Minute)
		methods := []identity.VerificationMethod{
			verified(identity.MethodGovernmentID, 1.0),
		}
		methods[0].ExpiresAt = &past
		assert.Equal(t, 0, VerificationLevel(methods, now))
	})

	t.Run("malformed confidence is clamped not rejected", func(t *testing.T) {
		methods := []identity.VerificationMethod{
			verified(identity.MethodBiometric, 3.7),
			verified(identity.MethodCommunityVouching, -0.5),
		}
		// biometric clamps to 1.0 -> 20; vouching clamps to 0 -> 0
		assert.Equal(t, 20, VerificationLevel(methods, now))
	})

	t.Run("score is bounded to [0,100] for any method set", func(t *testing.T) {
		var methods []identity.VerificationMethod
		for range 10 {
			methods = append(methods,
				verified(identity.MethodGovernmentID, 1.0),
				verified(identity.MethodPlatformVerification, 1.0),
			)
		}
		level := VerificationLevel(methods, now)
		assert.GreaterOrEqual(t, level, 0)
		assert.LessOrEqual(t, level, 100)
		assert.Equal(t, 100, level)
	})

	t.Run("adding a verified method never decreases the level", func(t *testing.T) {
		base := []identity.VerificationMethod{
			verified(identity.MethodBiometric, 0.8),
			verified(identity.MethodSocialProof, 0.5),
		}
		before := VerificationLevel(base, now)

		for _, extra := range []identity.MethodType{
			identity.MethodGovernmentID,
			identity.MethodPlatformVerification,
			identity.MethodCommunityVouching,
		} {
			for _, confidence := range []float64{0, 0.25, 0.5, 1.0} {
				grown := append(append([]identity.VerificationMethod{}, base...), verified(extra, confidence))
				assert.GreaterOrEqual(t, VerificationLevel(grown, now), before,
					"adding %s at confidence %v must not lower the level", extra, confidence)
			}
		}
	})

	t.Run("empty method set scores zero", func(t *testing.T) {
		assert.Equal(t, 0, VerificationLevel(nil, now))
	})
}

func TestAuthenticityScore(t *testing.T) {
	t.Run("perfect recent proof scores 100", func(t *testing.T) {
		proof := identity.AuthenticityProof{
			BiometricMatch:      1.0,
			MetadataConsistency: 1.0,
			DeepfakeConfidence:  0.0,
			SocialProof:         1.0,
			BlockchainProofAt:   now.Add(-24 * time.Hour),
		}
		assert.Equal(t, 100, AuthenticityScore(proof, now))
	})

	t.Run("high deepfake confidence drags the score down", func(t *testing.T) {
		clean := identity.AuthenticityProof{
			BiometricMatch:      0.9,
			MetadataConsistency: 0.9,
			DeepfakeConfidence:  0.05,
			SocialProof:         0.5,
			BlockchainProofAt:   now.Add(-24 * time.Hour),
		}
		fake := clean
		fake.DeepfakeConfidence = 0.95

		assert.Greater(t, AuthenticityScore(clean, now), AuthenticityScore(fake, now))
	})

	t.Run("zero-value proof earns only the deepfake-inverse floor", func(t *testing.T) {
		// No deepfake signal means not flagged, which is worth the full
		// inverse-deepfake weight and nothing else.
		assert.Equal(t, 25, AuthenticityScore(identity.AuthenticityProof{}, now))
	})

	t.Run("score is bounded for malformed sub-scores", func(t *testing.T) {
		proof := identity.AuthenticityProof{
			BiometricMatch:      12.0,
			MetadataConsistency: -4.0,
			DeepfakeConfidence:  -1.0,
			SocialProof:         7.5,
			BlockchainProofAt:   now,
		}
		score := AuthenticityScore(proof, now)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	})

	t.Run("stale blockchain proof earns no recency credit", func(t *testing.T) {
		fresh := identity.AuthenticityProof{BlockchainProofAt: now.Add(-24 * time.Hour)}
		stale := identity.AuthenticityProof{BlockchainProofAt: now.Add(-2 * 365 * 24 * time.Hour)}
		assert.Greater(t, AuthenticityScore(fresh, now), AuthenticityScore(stale, now))
	})
}

func TestIdentityAuthenticityScore(t *testing.T) {
	strongProof := identity.AuthenticityProof{
		BiometricMatch:      1.0,
		MetadataConsistency: 1.0,
		DeepfakeConfidence:  0.0,
		SocialProof:         1.0,
		BlockchainProofAt:   now.Add(-time.Hour),
	}

	t.Run("no evidence scores zero and tiers high", func(t *testing.T) {
		score := IdentityAuthenticityScore(nil, now)
		assert.Equal(t, 0, score)
		assert.Equal(t, RiskHigh, Tier(score))
	})

	t.Run("fake verdict zeroes the credential contribution", func(t *testing.T) {
		creds := []identity.ContentCredential{
			{Proof: strongProof, Status: identity.CredentialVerified},
			{Proof: strongProof, Status: identity.CredentialFake},
		}
		// (100 + 0) / 2 = 50
		assert.Equal(t, 50, IdentityAuthenticityScore(creds, now))
	})

	t.Run("disputed verdict halves the credential contribution", func(t *testing.T) {
		creds := []identity.ContentCredential{
			{Proof: strongProof, Status: identity.CredentialDisputed},
		}
		assert.Equal(t, 50, IdentityAuthenticityScore(creds, now))
	})
}

func TestTier(t *testing.T) {
	cases := []struct {
		score int
		tier  RiskTier
	}{
		{0, RiskHigh},
		{39, RiskHigh},
		{40, RiskMedium},
		{75, RiskMedium},
		{76, RiskLow},
		{100, RiskLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, Tier(tc.score), "score %d", tc.score)
	}
}
