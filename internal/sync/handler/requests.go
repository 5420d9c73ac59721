package handler

import (
	id "creatorid/pkg/domain"
	dErrors "creatorid/pkg/domain-errors"
)

// SyncRequest optionally narrows the cycle to a platform subset and can
// bypass the minimum sync interval.
type SyncRequest struct {
	Platforms []string `json:"platforms"`
	ForceSync bool     `json:"forceSync"`
}

// Validate rejects platform identifiers that could never match a connection.
func (r *SyncRequest) Validate() error {
	for _, p := range r.Platforms {
		if _, err := id.ParsePlatformID(p); err != nil {
			return dErrors.New(dErrors.CodeValidation, "unknown platform: "+p)
		}
	}
	return nil
}
