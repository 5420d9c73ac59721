package identity

import (
	"context"
	"sync"

	id "creatorid/pkg/domain"
	"creatorid/pkg/platform/sentinel"
)

// InMemoryStore keeps identities in process memory. Aggregates are cloned on
// both write and read so callers never share mutable state with the store.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[id.IdentityID]*Identity
	byWallet   map[string]id.IdentityID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		identities: make(map[id.IdentityID]*Identity),
		byWallet:   make(map[string]id.IdentityID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, ident *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.identities[ident.ID]; ok && prev.WalletAddress != ident.WalletAddress {
		delete(s.byWallet, prev.WalletAddress)
	}
	s.identities[ident.ID] = ident.Clone()
	s.byWallet[ident.WalletAddress] = ident.ID
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, identityID id.IdentityID) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.identities[identityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return ident.Clone(), nil
}

func (s *InMemoryStore) GetByWallet(_ context.Context, walletAddress string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identityID, ok := s.byWallet[walletAddress]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.identities[identityID].Clone(), nil
}

func (s *InMemoryStore) FindByConnection(_ context.Context, platformID id.PlatformID, username string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.identities {
		conn, ok := ident.Connections[platformID]
		if ok && conn.Username == username {
			return ident.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}
